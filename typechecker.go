package main

import "strings"

// TypeChecker infers expression types and checks statements against a flat
// symbol table. It reports problems as diagnostics and never stops early:
// every failed check substitutes TypeUnknown or skips the rest of that one
// construct.
type TypeChecker struct {
	ast     *AST
	lits    *LiteralTable
	symbols *SymbolTable
	diags   *Diagnostics
}

func NewTypeChecker(ast *AST, lits *LiteralTable, symbols *SymbolTable) *TypeChecker {
	return &TypeChecker{
		ast:     ast,
		lits:    lits,
		symbols: symbols,
		diags:   &Diagnostics{},
	}
}

// CheckProgram runs one analysis pass over the whole tree with a fresh
// symbol table seeded with builtins.
func CheckProgram(ast *AST, lits *LiteralTable, builtins []Builtin) (*SymbolTable, *Diagnostics) {
	st := NewSymbolTable(builtins)
	tc := NewTypeChecker(ast, lits, st)
	tc.Analyze(ast.Root)
	return st, tc.diags
}

func (tc *TypeChecker) Diagnostics() *Diagnostics {
	return tc.diags
}

func (tc *TypeChecker) Symbols() *SymbolTable {
	return tc.symbols
}

func (tc *TypeChecker) errorf(node NodeID, format string, args ...any) {
	tc.diags.Add(TypeError, node, format, args...)
}

// literalText returns the lexeme a node refers to.
func (tc *TypeChecker) literalText(node *ASTNode) (string, bool) {
	if node == nil {
		return "", false
	}
	lit, ok := tc.lits.At(node.Lit)
	if !ok {
		return "", false
	}
	return lit.Text, true
}

// identName returns the name of an Identifier node.
func (tc *TypeChecker) identName(id NodeID) (string, bool) {
	node := tc.ast.Node(id)
	if node == nil || node.Kind != NodeIdentifier {
		return "", false
	}
	return tc.literalText(node)
}

func (tc *TypeChecker) isStringLiteral(id NodeID) bool {
	node := tc.ast.Node(id)
	return node != nil && node.Kind == NodeStringLiteral
}

// CheckTypes infers the type of the expression rooted at id.
func (tc *TypeChecker) CheckTypes(id NodeID) DataType {
	node := tc.ast.Node(id)
	if node == nil {
		return TypeVoid
	}

	switch node.Kind {
	case NodeNumber:
		lit, ok := tc.lits.At(node.Lit)
		if !ok {
			return TypeUnknown
		}
		if lit.Kind == LitNatural {
			return TypeNatural
		}
		if strings.ContainsAny(lit.Text, ".eE") {
			return TypeFloat
		}
		return TypeInteger

	case NodeStringLiteral:
		return TypeString

	case NodeIdentifier:
		name, _ := tc.literalText(node)
		sym := tc.symbols.Lookup(name)
		if sym == nil {
			tc.errorf(id, "undefined identifier '%s'", name)
			return TypeUnknown
		}
		return sym.Type

	case NodeBinaryOp:
		left := tc.CheckTypes(node.Left)
		right := tc.CheckTypes(node.Right)
		// Natural operands yield Integer.
		if left == TypeFloat || right == TypeFloat {
			return TypeFloat
		}
		return TypeInteger

	case NodeFunctionCall:
		return tc.checkCall(id, node)

	case NodeArrayAccess:
		name, _ := tc.identName(node.Left)
		sym := tc.symbols.Lookup(name)
		if sym == nil {
			tc.errorf(id, "undefined identifier '%s'", name)
			return TypeUnknown
		}
		if !sym.Type.IsArray() {
			tc.errorf(id, "'%s' is not an array", name)
			return TypeUnknown
		}
		index := tc.CheckTypes(node.Right)
		if index != TypeInteger && index != TypeNatural {
			tc.errorf(node.Right, "array index must be Integer or Natural, got %s", index)
		}
		return sym.Type.ElementType()

	case NodeArrayLiteral:
		elems := tc.ast.List(node.Left)
		if len(elems) == 0 {
			return TypeUnknown
		}
		elemType := tc.CheckTypes(elems[0])
		mismatched := false
		for _, elem := range elems[1:] {
			current := tc.CheckTypes(elem)
			if !mismatched && current != elemType {
				tc.errorf(elem, "array elements must have the same type: expected %s, got %s", elemType, current)
				mismatched = true
			}
		}
		return ArrayOf(elemType)

	case NodeArrayAssignment:
		target := tc.CheckTypes(node.Left)
		value := tc.CheckTypes(node.Right)
		if target != value {
			tc.errorf(id, "type mismatch in array assignment: cannot store %s in %s element", value, target)
		}
		return target

	default:
		return TypeUnknown
	}
}

func (tc *TypeChecker) checkCall(id NodeID, node *ASTNode) DataType {
	name, _ := tc.identName(node.Left)
	fn := tc.symbols.Lookup(name)
	if fn == nil || !fn.IsFunction {
		tc.errorf(id, "'%s' is not a function", name)
		return TypeUnknown
	}

	args := tc.ast.List(node.Right)
	for i, arg := range args {
		argType := tc.CheckTypes(arg)
		if i < len(fn.ParamTypes) && argType != fn.ParamTypes[i] {
			tc.errorf(arg, "type mismatch in argument %d of '%s': expected %s, got %s",
				i+1, name, fn.ParamTypes[i], argType)
		}
	}
	if len(args) != len(fn.ParamTypes) {
		tc.errorf(id, "wrong number of arguments for '%s': expected %d, got %d",
			name, len(fn.ParamTypes), len(args))
	}
	return fn.ReturnType
}

// Analyze checks the statement at id and every statement after it in the
// same list.
func (tc *TypeChecker) Analyze(id NodeID) {
	for _, stmt := range tc.ast.List(id) {
		tc.analyzeStatement(stmt)
	}
}

func (tc *TypeChecker) analyzeStatement(id NodeID) {
	node := tc.ast.Node(id)

	switch node.Kind {
	case NodeProgram, NodeBlock:
		tc.Analyze(node.Left)

	case NodeFunction:
		name, _ := tc.literalText(node)
		// Registered before the body so recursive calls resolve. Parameter
		// types are not recorded, so calls with arguments report a count
		// mismatch.
		tc.symbols.DeclareFunction(name, TypeVoid, nil)
		for _, param := range tc.ast.List(node.Left) {
			paramName, _ := tc.literalText(tc.ast.Node(param))
			tc.symbols.Declare(paramName, TypeFloat)
		}
		tc.Analyze(node.Right)

	case NodeDeclaration:
		valueType := tc.CheckTypes(node.Right)
		if name, ok := tc.identName(node.Left); ok {
			tc.symbols.Declare(name, valueType)
		}

	case NodeAssignment:
		name, _ := tc.identName(node.Left)
		target := tc.symbols.Lookup(name)
		if target == nil {
			tc.diags.Add(DeclarationError, id, "assignment to undefined variable '%s'", name)
			return
		}
		valueType := tc.CheckTypes(node.Right)
		widening := target.Type == TypeFloat && valueType == TypeInteger
		if target.Type != valueType && !widening {
			tc.errorf(id, "type mismatch in assignment to '%s': expected %s, got %s", name, target.Type, valueType)
		}

	case NodeArrayDecl:
		tc.analyzeArrayDecl(id, node)

	case NodeArrayAssignment, NodeFunctionCall:
		tc.CheckTypes(id)

	case NodeIf, NodeWhile:
		cond := tc.CheckTypes(node.Left)
		if cond != TypeInteger && cond != TypeFloat {
			tc.errorf(node.Left, "condition must be numeric, got %s", cond)
		}
		tc.Analyze(node.Right)

	case NodeReturn:
		tc.CheckTypes(node.Left)

	case NodeBigraphDecl:
		tc.analyzeBigraphDecl(id, node)

	case NodeBigraphCompose:
		tc.analyzeCompose(node)

	default:
		if _, ok := bigraphOpNames[node.Kind]; ok {
			tc.analyzeBigraphOp(id, node)
		}
	}
}

func (tc *TypeChecker) analyzeArrayDecl(id NodeID, node *ASTNode) {
	name, _ := tc.identName(node.Left)

	typeID, initID := node.Right, NoNode
	if decl := tc.ast.Node(node.Right); decl != nil && decl.Kind == NodeArrayInit {
		typeID, initID = decl.Left, decl.Right
	}

	elemType := TypeUnknown
	if typeNode := tc.ast.Node(typeID); typeNode != nil && typeNode.Kind == NodeArrayType {
		size := tc.CheckTypes(typeNode.Left)
		if size != TypeInteger && size != TypeNatural {
			tc.errorf(typeNode.Left, "array size must be Integer or Natural, got %s", size)
		}
		elemType = typeNode.Keyword.DataType()
	} else {
		tc.errorf(id, "array declaration of '%s' has no element type", name)
	}

	if initID != NoNode {
		expected := ArrayOf(elemType)
		initType := tc.CheckTypes(initID)
		if initType != expected {
			tc.errorf(initID, "array initializer type mismatch: expected %s, got %s", expected, initType)
		}
	}

	if tc.symbols.DeclareArray(name, elemType, 0) == TypeUnknown {
		tc.errorf(id, "cannot create array of element type %s", elemType)
	}
}

func (tc *TypeChecker) analyzeBigraphDecl(id NodeID, node *ASTNode) {
	name, _ := tc.identName(node.Left)
	if tc.symbols.Lookup(name) != nil {
		tc.diags.Add(DeclarationError, id, "bigraph '%s' already declared", name)
		return
	}
	tc.symbols.Declare(name, TypeBigraph)
	for _, entry := range tc.ast.List(node.Right) {
		if !tc.isStringLiteral(entry) {
			tc.errorf(entry, "nodes of bigraph '%s' must be string literals", name)
		}
	}
}

// bigraphOpNames gives each bigraph operation the method name used in
// diagnostics.
var bigraphOpNames = map[NodeKind]string{
	NodeBigraphAddNode:     "addNode",
	NodeBigraphRemoveNode:  "removeNode",
	NodeBigraphReplaceNode: "replaceNode",
	NodeBigraphAddEdge:     "addEdge",
	NodeBigraphRemoveEdge:  "removeEdge",
	NodeBigraphAddType:     "addType",
	NodeBigraphRemoveType:  "removeType",
	NodeBigraphAddParent:   "addParent",
	NodeBigraphSetLink:     "setLink",
	NodeBigraphRemoveLink:  "removeLink",
}

// requireBigraph reports whether id names a Bigraph-typed symbol.
func (tc *TypeChecker) requireBigraph(id NodeID) bool {
	name, ok := tc.identName(id)
	if !ok {
		tc.errorf(id, "bigraph operand must be an identifier")
		return false
	}
	sym := tc.symbols.Lookup(name)
	if sym == nil || sym.Type != TypeBigraph {
		tc.errorf(id, "'%s' is not a bigraph", name)
		return false
	}
	return true
}

// arg returns the i-th entry of an operand list, or NoNode.
func arg(args []NodeID, i int) NodeID {
	if i < len(args) {
		return args[i]
	}
	return NoNode
}

func (tc *TypeChecker) analyzeBigraphOp(id NodeID, node *ASTNode) {
	if !tc.requireBigraph(node.Left) {
		return
	}
	op := bigraphOpNames[node.Kind]
	args := tc.ast.List(node.Right)

	requireString := func(i int, what string) {
		if !tc.isStringLiteral(arg(args, i)) {
			tc.errorf(id, "%s expects a string literal %s", op, what)
		}
	}

	switch node.Kind {
	case NodeBigraphAddNode, NodeBigraphRemoveNode:
		requireString(0, "node name")
	case NodeBigraphReplaceNode:
		requireString(0, "old node name")
		requireString(1, "new node name")
	case NodeBigraphAddEdge, NodeBigraphRemoveEdge, NodeBigraphAddParent:
		tc.CheckTypes(arg(args, 0))
		tc.CheckTypes(arg(args, 1))
	case NodeBigraphAddType, NodeBigraphRemoveType:
		requireString(0, "type name")
		tc.CheckTypes(arg(args, 1))
	case NodeBigraphSetLink:
		tc.CheckTypes(arg(args, 0))
		count := tc.CheckTypes(arg(args, 1))
		if count != TypeInteger && count != TypeNatural {
			tc.errorf(id, "%s link count must be Integer or Natural, got %s", op, count)
		}
	case NodeBigraphRemoveLink:
		tc.CheckTypes(arg(args, 0))
	}
}

func (tc *TypeChecker) analyzeCompose(node *ASTNode) {
	for _, side := range []NodeID{node.Left, node.Right} {
		if n := tc.ast.Node(side); n != nil && n.Kind == NodeIdentifier {
			tc.requireBigraph(side)
		}
	}
	if result, ok := tc.literalText(node); ok && tc.symbols.Lookup(result) == nil {
		tc.symbols.Declare(result, TypeBigraph)
	}
}
