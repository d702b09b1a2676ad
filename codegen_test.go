package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/nalgeon/be"
)

func generateSource(t *testing.T, src string) string {
	t.Helper()
	ast, lits := mustDecode(t, src)
	tac, err := Generate(ast, lits)
	be.Err(t, err, nil)
	return tac
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestNameAllocator(t *testing.T) {
	var names NameAllocator
	be.Equal(t, names.NewTemp(), "t1")
	be.Equal(t, names.NewLabel(), "L1")
	be.Equal(t, names.NewTemp(), "t2")
	be.Equal(t, names.NewLabel(), "L2")
	be.Equal(t, names.NewLabel(), "L3")
}

func TestGenerateDeclarations(t *testing.T) {
	tac := generateSource(t, "(decl x 3) (decl y (+ x 2.0))")
	be.Equal(t, tac, lines(
		"t1 = 3",
		"x = t1",
		"t2 = 2.0",
		"t3 = x + t2",
		"y = t3",
	))
}

func TestGenerateDeclarationWithoutValue(t *testing.T) {
	be.Equal(t, generateSource(t, "(decl z)"), lines("z = 0"))
}

func TestGenerateAssignment(t *testing.T) {
	be.Equal(t, generateSource(t, "(assign x y)"), lines("x = y"))
}

func TestGenerateNaturalLiteral(t *testing.T) {
	be.Equal(t, generateSource(t, "(decl n 7n)"), lines("t1 = 7", "n = t1"))
}

func TestGenerateStringLiteral(t *testing.T) {
	be.Equal(t, generateSource(t, `(decl s "hi")`), lines(`s = "hi"`))
}

func TestGenerateUnknownOperatorFallsBackToAdd(t *testing.T) {
	tac := generateSource(t, `(decl z (binary "%" a b))`)
	be.Equal(t, tac, lines("t1 = a + b", "z = t1"))
}

func TestGenerateOperators(t *testing.T) {
	for op := range binaryOperators {
		tac := generateSource(t, "(decl z ("+op+" a b))")
		be.Equal(t, tac, lines("t1 = a "+op+" b", "z = t1"))
	}
}

func TestGenerateIf(t *testing.T) {
	tac := generateSource(t, "(decl x 1) (if (< x 2) (block (assign x 5)))")
	be.Equal(t, tac, lines(
		"t1 = 1",
		"x = t1",
		"t2 = 2",
		"t3 = x < t2",
		"ifz t3 goto L1",
		"t4 = 5",
		"x = t4",
		"goto L2",
		"L1:",
		"L2:",
	))
}

func TestGenerateEmptyWhile(t *testing.T) {
	tac := generateSource(t, "(while 1 (block))")
	be.Equal(t, tac, lines(
		"L1:",
		"t1 = 1",
		"ifz t1 goto L2",
		"goto L1",
		"L2:",
	))
}

func TestGenerateNestedLoops(t *testing.T) {
	tac := generateSource(t, "(while a (block (while b (block (assign c d)))))")
	be.Equal(t, tac, lines(
		"L1:",
		"ifz a goto L2",
		"L3:",
		"ifz b goto L4",
		"c = d",
		"goto L3",
		"L4:",
		"goto L1",
		"L2:",
	))
}

func TestGenerateFunction(t *testing.T) {
	tac := generateSource(t, "(func f (a b) (block (return (+ a b))))")
	be.Equal(t, tac, "begin_func f\nparam a\nparam b\nt1 = a + b\nreturn t1\nend_func\n\n")
}

func TestGenerateReturnWithoutValue(t *testing.T) {
	be.Equal(t, generateSource(t, "(return)"), lines("return"))
}

func TestGenerateCountersSpanFunctions(t *testing.T) {
	tac := generateSource(t, "(func f () (block (return 1))) (func g () (block (return 2)))")
	be.True(t, strings.Contains(tac, "t1 = 1\nreturn t1\n"))
	be.True(t, strings.Contains(tac, "t2 = 2\nreturn t2\n"))
}

func TestGenerateCall(t *testing.T) {
	tac := generateSource(t, "(decl r (call power 2.0 x))")
	be.Equal(t, tac, lines(
		"t1 = 2.0",
		"param t1",
		"param x",
		"t2 = call power, 2",
		"r = t2",
	))
}

func TestGenerateCallArgumentsLoweredOnce(t *testing.T) {
	tac := generateSource(t, "(call f (+ a b) c)")
	be.Equal(t, strings.Count(tac, "t1 = a + b"), 1)
	be.Equal(t, strings.Count(tac, "param c"), 1)
	be.True(t, strings.HasSuffix(tac, "t2 = call f, 2\n"))
}

func TestGenerateStatementsAfterBlocks(t *testing.T) {
	tac := generateSource(t, "(func f () (block (decl a 1))) (decl b 2)")
	be.Equal(t, tac, "begin_func f\nt1 = 1\na = t1\nend_func\n\nt2 = 2\nb = t2\n")
}

func TestGenerateArrayLiteral(t *testing.T) {
	tac := generateSource(t, "(decl a (array 1 2))")
	be.Equal(t, tac, lines(
		"t1 = new_array 2",
		"t2 = 1",
		"t1[0] = t2",
		"t3 = 2",
		"t1[1] = t3",
		"a = t1",
	))
}

func TestGenerateArrayAccessAndAssignment(t *testing.T) {
	tac := generateSource(t, "(decl v (index a 1)) (index-assign (index a 0) 9)")
	be.Equal(t, tac, lines(
		"t1 = 1",
		"t2 = a[t1]",
		"v = t2",
		"t3 = 0",
		"t4 = 9",
		"a[t3] = t4",
	))
}

func TestGenerateArrayDeclarations(t *testing.T) {
	tac := generateSource(t, "(array-decl a (array-type ent 2) (array 1 2)) (array-decl b (array-type flo n))")
	be.Equal(t, tac, lines(
		"t1 = 2",
		"t2 = new_array 2",
		"t3 = 1",
		"t2[0] = t3",
		"t4 = 2",
		"t2[1] = t4",
		"a = new_array t1",
		"a = t2",
		"b = new_array n",
	))
}

func TestGenerateBigraphDeclaration(t *testing.T) {
	tac := generateSource(t, `(bigraph b "a" "b") (add-node b "c")`)
	be.Equal(t, tac, lines(
		"b = _new_bigraph()",
		"_bigraph_add_node(b, a)",
		"_bigraph_add_node(b, b)",
		"_bigraph_add_node(b, c)",
	))
}

func TestGenerateBigraphOperations(t *testing.T) {
	tac := generateSource(t, `
(remove-node b "a")
(replace-node b "a" "z")
(add-edge b "a" "z")
(remove-edge b x y)
(add-parent b "a" "z")
(add-type b "Room" "a")
(remove-type b "Room" n)
(set-link b "a" 2)
(remove-link b "a")`)
	be.Equal(t, tac, lines(
		"_bigraph_remove_node(b, a)",
		"_bigraph_replace_node(b, a, z)",
		`_bigraph_add_edge(b, "a", "z")`,
		"_bigraph_remove_edge(b, x, y)",
		`_bigraph_add_parent(b, "a", "z")`,
		`_bigraph_add_type(b, Room, "a")`,
		"_bigraph_remove_type(b, Room, n)",
		"t1 = 2",
		`_bigraph_set_link(b, "a", t1)`,
		`_bigraph_remove_link(b, "a")`,
	))
}

func TestGenerateCompose(t *testing.T) {
	be.Equal(t, generateSource(t, "(compose c x y)"), lines("c = _bigraph_compose(x, y)"))
}

func TestGenerateIsDeterministic(t *testing.T) {
	ast, lits := mustDecode(t, `
(func f (a) (block (while (< a 10) (block (assign a (+ a 1.0))))))
(array-decl v (array-type ent 2) (array 1 2))
(bigraph b "a")
(set-link b "a" 1)`)
	first, err := Generate(ast, lits)
	be.Err(t, err, nil)
	second, err := Generate(ast, lits)
	be.Err(t, err, nil)
	be.Equal(t, first, second)
}

func TestGenerateTo(t *testing.T) {
	ast, lits := mustDecode(t, "(decl x 1)")
	var buf bytes.Buffer
	be.Err(t, GenerateTo(&buf, ast, lits), nil)
	be.Equal(t, buf.String(), lines("t1 = 1", "x = t1"))
}

func TestGenerateMalformed(t *testing.T) {
	tests := []struct {
		name  string
		build func(a *AST, lits *LiteralTable)
		err   string
	}{
		{
			name:  "missing root",
			build: func(a *AST, lits *LiteralTable) {},
			err:   "malformed AST at node 0: missing root node",
		},
		{
			name: "declaration without target",
			build: func(a *AST, lits *LiteralTable) {
				decl := a.Add(ASTNode{Kind: NodeDeclaration, Lit: NoLiteral})
				a.Root = a.Add(ASTNode{Kind: NodeProgram, Lit: NoLiteral, Left: decl})
			},
			err: "malformed AST at node 1 (NodeDeclaration): missing assignment target",
		},
		{
			name: "binary without right operand",
			build: func(a *AST, lits *LiteralTable) {
				left := a.Add(ASTNode{Kind: NodeIdentifier, Lit: lits.AddIdentifier("x")})
				bin := a.Add(ASTNode{Kind: NodeBinaryOp, Lit: NoLiteral, Op: "+", Left: left})
				a.Root = a.Add(ASTNode{Kind: NodeProgram, Lit: NoLiteral, Left: bin})
			},
			err: "malformed AST at node 2 (NodeBinaryOp): missing right operand",
		},
		{
			name: "literal out of range",
			build: func(a *AST, lits *LiteralTable) {
				id := a.Add(ASTNode{Kind: NodeIdentifier, Lit: 5})
				a.Root = a.Add(ASTNode{Kind: NodeProgram, Lit: NoLiteral, Left: id})
			},
			err: "malformed AST at node 1 (NodeIdentifier): literal index 5 out of range",
		},
		{
			name: "array type on its own",
			build: func(a *AST, lits *LiteralTable) {
				id := a.Add(ASTNode{Kind: NodeArrayType, Lit: NoLiteral, Keyword: KeywordEnt})
				a.Root = a.Add(ASTNode{Kind: NodeProgram, Lit: NoLiteral, Left: id})
			},
			err: "malformed AST at node 1 (NodeArrayType): cannot lower NodeArrayType here",
		},
		{
			name: "expression without value",
			build: func(a *AST, lits *LiteralTable) {
				ret := a.Add(ASTNode{Kind: NodeReturn, Lit: NoLiteral})
				callee := a.Add(ASTNode{Kind: NodeIdentifier, Lit: lits.AddIdentifier("f")})
				call := a.Add(ASTNode{Kind: NodeFunctionCall, Lit: NoLiteral, Left: callee, Right: ret})
				a.Root = a.Add(ASTNode{Kind: NodeProgram, Lit: NoLiteral, Left: call})
			},
			err: "malformed AST at node 1 (NodeReturn): argument produces no value",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			a, lits := NewAST(), &LiteralTable{}
			test.build(a, lits)

			var buf bytes.Buffer
			err := GenerateTo(&buf, a, lits)
			var malformed *MalformedASTError
			be.True(t, errors.As(err, &malformed))
			be.Equal(t, err.Error(), test.err)
			be.Equal(t, buf.Len(), 0)
		})
	}
}

func TestGenerateRejectsNonStringBigraphNode(t *testing.T) {
	ast, lits := mustDecode(t, "(bigraph b x)")
	_, err := Generate(ast, lits)
	be.Err(t, err)
	be.True(t, strings.Contains(err.Error(), "initial node must be a string literal"))
}

func TestGenerateRejectsMissingBigraphOperand(t *testing.T) {
	ast, lits := mustDecode(t, "(add-node b)")
	_, err := Generate(ast, lits)
	be.Err(t, err)
	be.True(t, strings.Contains(err.Error(), "missing node name"))
}

func TestGenerateMalformedInsideNestedBodies(t *testing.T) {
	ast, lits := mustDecode(t, "(decl x 1) (func f () (block (while 1 (block (add-node b y)))))")
	var buf bytes.Buffer
	err := GenerateTo(&buf, ast, lits)
	var malformed *MalformedASTError
	be.True(t, errors.As(err, &malformed))
	be.Equal(t, malformed.Kind, NodeIdentifier)
	be.True(t, strings.Contains(err.Error(), "node name must be a string literal"))
	be.Equal(t, buf.Len(), 0)
}
