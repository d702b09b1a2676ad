package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func mustDecode(t *testing.T, src string) (*AST, *LiteralTable) {
	t.Helper()
	ast, lits, err := DecodeProgram(src)
	if err != nil {
		t.Fatalf("DecodeProgram(%q): %v", src, err)
	}
	return ast, lits
}

func TestDecodeProgramWrapsBareStatements(t *testing.T) {
	ast, _ := mustDecode(t, "(decl x 3)\n(decl y x)")

	root := ast.Node(ast.Root)
	be.Equal(t, root.Kind, NodeProgram)
	be.Equal(t, len(ast.List(root.Left)), 2)
}

func TestDecodeProgramEmpty(t *testing.T) {
	ast, _ := mustDecode(t, "")
	root := ast.Node(ast.Root)
	be.Equal(t, root.Kind, NodeProgram)
	be.Equal(t, root.Left, NoNode)
}

func TestDecodeDeclaration(t *testing.T) {
	ast, lits := mustDecode(t, "(decl x 3)")

	decl := ast.Node(ast.Node(ast.Root).Left)
	be.Equal(t, decl.Kind, NodeDeclaration)
	be.Equal(t, decl.Lit, NoLiteral)

	name := ast.Node(decl.Left)
	be.Equal(t, name.Kind, NodeIdentifier)
	lit, _ := lits.At(name.Lit)
	be.Equal(t, lit.Text, "x")

	value := ast.Node(decl.Right)
	be.Equal(t, value.Kind, NodeNumber)
	lit, _ = lits.At(value.Lit)
	be.Equal(t, lit.Kind, LitNumber)
	be.Equal(t, lit.Text, "3")
}

func TestDecodeDeclarationWithoutValue(t *testing.T) {
	ast, _ := mustDecode(t, "(decl x)")
	decl := ast.Node(ast.Node(ast.Root).Left)
	be.Equal(t, decl.Right, NoNode)
}

func TestDecodeLiterals(t *testing.T) {
	ast, lits := mustDecode(t, `(call f 5n 2.0 "hi" y)`)

	call := ast.Node(ast.Node(ast.Root).Left)
	be.Equal(t, call.Kind, NodeFunctionCall)

	args := ast.List(call.Right)
	be.Equal(t, len(args), 4)

	wantKinds := []LiteralKind{LitNatural, LitNumber, LitString, LitIdentifier}
	wantNodes := []NodeKind{NodeNumber, NodeNumber, NodeStringLiteral, NodeIdentifier}
	for i, id := range args {
		node := ast.Node(id)
		be.Equal(t, node.Kind, wantNodes[i])
		lit, ok := lits.At(node.Lit)
		be.True(t, ok)
		be.Equal(t, lit.Kind, wantKinds[i])
	}
	lit, _ := lits.At(ast.Node(args[2]).Lit)
	be.Equal(t, lit.Text, `"hi"`)
}

func TestDecodeFunction(t *testing.T) {
	ast, lits := mustDecode(t, "(func f (a b) (block (return a)))")

	fn := ast.Node(ast.Node(ast.Root).Left)
	be.Equal(t, fn.Kind, NodeFunction)
	lit, _ := lits.At(fn.Lit)
	be.Equal(t, lit.Text, "f")
	be.Equal(t, len(ast.List(fn.Left)), 2)
	be.Equal(t, ast.Node(fn.Right).Kind, NodeBlock)
}

func TestDecodeArrayDecl(t *testing.T) {
	ast, _ := mustDecode(t, "(array-decl a (array-type nat 3) (array 1n 2n 3n))\n(array-decl b (array-type ent 2))")
	stmts := ast.List(ast.Node(ast.Root).Left)

	withInit := ast.Node(stmts[0])
	be.Equal(t, withInit.Kind, NodeArrayDecl)
	init := ast.Node(withInit.Right)
	be.Equal(t, init.Kind, NodeArrayInit)
	typeNode := ast.Node(init.Left)
	be.Equal(t, typeNode.Kind, NodeArrayType)
	be.Equal(t, typeNode.Keyword, KeywordNat)
	be.Equal(t, ast.Node(init.Right).Kind, NodeArrayLiteral)

	plain := ast.Node(stmts[1])
	typeNode = ast.Node(plain.Right)
	be.Equal(t, typeNode.Kind, NodeArrayType)
	be.Equal(t, typeNode.Keyword, KeywordEnt)
	be.Equal(t, ast.Node(typeNode.Left).Kind, NodeNumber)
}

func TestDecodeBigraphForms(t *testing.T) {
	src := `(bigraph b "a")
(add-node b "c")
(remove-edge b "a" "c")
(compose c b b)`
	ast, lits := mustDecode(t, src)
	stmts := ast.List(ast.Node(ast.Root).Left)

	be.Equal(t, ast.Node(stmts[0]).Kind, NodeBigraphDecl)
	be.Equal(t, ast.Node(stmts[1]).Kind, NodeBigraphAddNode)
	be.Equal(t, ast.Node(stmts[2]).Kind, NodeBigraphRemoveEdge)
	be.Equal(t, len(ast.List(ast.Node(stmts[2]).Right)), 2)

	compose := ast.Node(stmts[3])
	be.Equal(t, compose.Kind, NodeBigraphCompose)
	lit, _ := lits.At(compose.Lit)
	be.Equal(t, lit.Text, "c")
}

func TestDecodeEveryBigraphOperation(t *testing.T) {
	for kind, head := range bigraphOpHeads {
		ast, _ := mustDecode(t, "("+head+` b "x" 1)`)
		be.Equal(t, ast.Node(ast.Node(ast.Root).Left).Kind, kind)
	}
}

func TestDecodeBinaryOperators(t *testing.T) {
	ast, _ := mustDecode(t, `(decl a (<= x 1)) (decl b (binary "%" x 1))`)
	stmts := ast.List(ast.Node(ast.Root).Left)

	be.Equal(t, ast.Node(ast.Node(stmts[0]).Right).Op, "<=")
	be.Equal(t, ast.Node(ast.Node(stmts[1]).Right).Op, "%")
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		src string
		err string
	}{
		{"(decl x", "1:1: unterminated list"},
		{"(frobnicate x)", "1:1: unknown form 'frobnicate'"},
		{"(decl)", "1:1: decl expects 1 to 2 arguments, got 0"},
		{"(if x)", "1:1: if expects 2 arguments, got 1"},
		{"(call)", "1:1: call expects at least 1 arguments, got 0"},
		{`(decl "x" 1)`, "1:7: assignment target must be a symbol, got string"},
		{"(func f x (block))", "1:9: parameter list must be a list"},
		{"(array-decl a 3)", "1:15: expected (array-type KEYWORD SIZE)"},
		{"(index-assign a 1)", "1:15: index-assign target must be an (index ...) form"},
		{"((x) 1)", "1:1: expected a form starting with a symbol"},
	}
	for _, test := range tests {
		_, _, err := DecodeProgram(test.src)
		be.Err(t, err)
		be.Equal(t, err.Error(), test.err)
	}
}

func TestDecodeErrorType(t *testing.T) {
	_, _, err := DecodeProgram("\n  (decl 1 2)")
	var derr *DecodeError
	be.True(t, errors.As(err, &derr))
	be.Equal(t, derr.Line, 2)
	be.Equal(t, derr.Col, 9)
	be.True(t, strings.Contains(derr.Msg, "must be a symbol"))
}
