package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// NameAllocator hands out temporaries (t1, t2, ...) and labels (L1, L2, ...)
// for one generation run. The two counters are independent and never reset
// between functions.
type NameAllocator struct {
	temps  int
	labels int
}

func (n *NameAllocator) NewTemp() string {
	n.temps++
	return "t" + strconv.Itoa(n.temps)
}

func (n *NameAllocator) NewLabel() string {
	n.labels++
	return "L" + strconv.Itoa(n.labels)
}

// Generator lowers a type-checked AST to three-address code, one
// instruction per line. It does not consult the symbol table; names come
// straight from the tree.
type Generator struct {
	ast   *AST
	lits  *LiteralTable
	names NameAllocator
	buf   bytes.Buffer
}

// Generate lowers the tree rooted at ast.Root with fresh counters.
func Generate(ast *AST, lits *LiteralTable) (string, error) {
	g := &Generator{ast: ast, lits: lits}
	if err := g.run(ast.Root); err != nil {
		return "", err
	}
	return g.buf.String(), nil
}

// GenerateTo is Generate writing to w. Nothing is written when lowering
// fails.
func GenerateTo(w io.Writer, ast *AST, lits *LiteralTable) error {
	tac, err := Generate(ast, lits)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, tac)
	return err
}

func (g *Generator) run(root NodeID) error {
	if g.ast.Node(root) == nil {
		return g.malformed(root, "missing root node")
	}
	return g.genStatements(root)
}

func (g *Generator) malformed(id NodeID, format string, args ...any) error {
	var kind NodeKind
	if node := g.ast.Node(id); node != nil {
		kind = node.Kind
	}
	return &MalformedASTError{
		Node:   id,
		Kind:   kind,
		Reason: fmt.Sprintf(format, args...),
	}
}

func (g *Generator) emit(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

// child returns the node at id, which parent requires to be present.
func (g *Generator) child(parent, id NodeID, what string) (*ASTNode, error) {
	node := g.ast.Node(id)
	if node == nil {
		return nil, g.malformed(parent, "missing %s", what)
	}
	return node, nil
}

func (g *Generator) literal(id NodeID, node *ASTNode) (Literal, error) {
	lit, ok := g.lits.At(node.Lit)
	if !ok {
		return Literal{}, g.malformed(id, "literal index %d out of range", node.Lit)
	}
	return lit, nil
}

// name resolves an identifier structurally, without generating code.
func (g *Generator) name(parent, id NodeID, what string) (string, error) {
	node, err := g.child(parent, id, what)
	if err != nil {
		return "", err
	}
	if node.Kind != NodeIdentifier {
		return "", g.malformed(id, "%s must be an identifier", what)
	}
	lit, err := g.literal(id, node)
	return lit.Text, err
}

// stringArg returns a string literal operand with its quotes stripped.
func (g *Generator) stringArg(parent, id NodeID, what string) (string, error) {
	node, err := g.child(parent, id, what)
	if err != nil {
		return "", err
	}
	if node.Kind != NodeStringLiteral {
		return "", g.malformed(id, "%s must be a string literal", what)
	}
	lit, err := g.literal(id, node)
	return stripQuotes(lit.Text), err
}

// value lowers an expression that must produce a value.
func (g *Generator) value(parent, id NodeID, what string) (string, error) {
	if _, err := g.child(parent, id, what); err != nil {
		return "", err
	}
	v, err := g.gen(id)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", g.malformed(id, "%s produces no value", what)
	}
	return v, nil
}

func (g *Generator) genStatements(first NodeID) error {
	for _, id := range g.ast.List(first) {
		if _, err := g.gen(id); err != nil {
			return err
		}
	}
	return nil
}

// gen lowers a single node and returns the temporary or variable holding
// its value, or "" for statements. It never follows Next.
func (g *Generator) gen(id NodeID) (string, error) {
	node := g.ast.Node(id)
	if node == nil {
		return "", nil
	}

	switch node.Kind {
	case NodeProgram, NodeBlock:
		return "", g.genStatements(node.Left)

	case NodeFunction:
		fn, err := g.literal(id, node)
		if err != nil {
			return "", err
		}
		g.emit("begin_func %s", fn.Text)
		for _, param := range g.ast.List(node.Left) {
			lit, err := g.literal(param, g.ast.Node(param))
			if err != nil {
				return "", err
			}
			g.emit("param %s", lit.Text)
		}
		if err := g.genStatements(node.Right); err != nil {
			return "", err
		}
		g.emit("end_func")
		g.emit("")
		return "", nil

	case NodeDeclaration, NodeAssignment:
		value, err := g.gen(node.Right)
		if err != nil {
			return "", err
		}
		if value == "" {
			value = "0"
		}
		target, err := g.name(id, node.Left, "assignment target")
		if err != nil {
			return "", err
		}
		g.emit("%s = %s", target, value)
		return target, nil

	case NodeReturn:
		value, err := g.gen(node.Left)
		if err != nil {
			return "", err
		}
		if value == "" {
			g.emit("return")
		} else {
			g.emit("return %s", value)
		}
		return "", nil

	case NodeBinaryOp:
		left, err := g.value(id, node.Left, "left operand")
		if err != nil {
			return "", err
		}
		right, err := g.value(id, node.Right, "right operand")
		if err != nil {
			return "", err
		}
		op := node.Op
		if !binaryOperators[op] {
			// Unrecognized operators lower as addition.
			op = "+"
		}
		temp := g.names.NewTemp()
		g.emit("%s = %s %s %s", temp, left, op, right)
		return temp, nil

	case NodeNumber:
		lit, err := g.literal(id, node)
		if err != nil {
			return "", err
		}
		temp := g.names.NewTemp()
		if lit.Kind == LitNatural {
			g.emit("%s = %d", temp, lit.Natural)
		} else {
			g.emit("%s = %s", temp, lit.Text)
		}
		return temp, nil

	case NodeIdentifier, NodeStringLiteral:
		lit, err := g.literal(id, node)
		return lit.Text, err

	case NodeIf:
		cond, err := g.value(id, node.Left, "condition")
		if err != nil {
			return "", err
		}
		elseLabel := g.names.NewLabel()
		endLabel := g.names.NewLabel()
		g.emit("ifz %s goto %s", cond, elseLabel)
		if err := g.genStatements(node.Right); err != nil {
			return "", err
		}
		g.emit("goto %s", endLabel)
		g.emit("%s:", elseLabel)
		g.emit("%s:", endLabel)
		return "", nil

	case NodeWhile:
		startLabel := g.names.NewLabel()
		endLabel := g.names.NewLabel()
		g.emit("%s:", startLabel)
		cond, err := g.value(id, node.Left, "condition")
		if err != nil {
			return "", err
		}
		g.emit("ifz %s goto %s", cond, endLabel)
		if err := g.genStatements(node.Right); err != nil {
			return "", err
		}
		g.emit("goto %s", startLabel)
		g.emit("%s:", endLabel)
		return "", nil

	case NodeFunctionCall:
		callee, err := g.name(id, node.Left, "callee")
		if err != nil {
			return "", err
		}
		args := g.ast.List(node.Right)
		for _, a := range args {
			v, err := g.value(id, a, "argument")
			if err != nil {
				return "", err
			}
			g.emit("param %s", v)
		}
		temp := g.names.NewTemp()
		g.emit("%s = call %s, %d", temp, callee, len(args))
		return temp, nil

	case NodeArrayLiteral:
		elems := g.ast.List(node.Left)
		temp := g.names.NewTemp()
		g.emit("%s = new_array %d", temp, len(elems))
		for i, elem := range elems {
			v, err := g.value(id, elem, "array element")
			if err != nil {
				return "", err
			}
			g.emit("%s[%d] = %s", temp, i, v)
		}
		return temp, nil

	case NodeArrayAccess:
		base, err := g.name(id, node.Left, "array name")
		if err != nil {
			return "", err
		}
		index, err := g.value(id, node.Right, "index")
		if err != nil {
			return "", err
		}
		temp := g.names.NewTemp()
		g.emit("%s = %s[%s]", temp, base, index)
		return temp, nil

	case NodeArrayAssignment:
		return "", g.genArrayAssignment(id, node)

	case NodeArrayDecl:
		return g.genArrayDecl(id, node)

	case NodeBigraphDecl:
		name, err := g.name(id, node.Left, "bigraph name")
		if err != nil {
			return "", err
		}
		g.emit("%s = _new_bigraph()", name)
		for _, entry := range g.ast.List(node.Right) {
			initial, err := g.stringArg(id, entry, "initial node")
			if err != nil {
				return "", err
			}
			g.emit("_bigraph_add_node(%s, %s)", name, initial)
		}
		return name, nil

	case NodeBigraphCompose:
		result, err := g.literal(id, node)
		if err != nil {
			return "", err
		}
		left, err := g.name(id, node.Left, "left operand")
		if err != nil {
			return "", err
		}
		right, err := g.name(id, node.Right, "right operand")
		if err != nil {
			return "", err
		}
		g.emit("%s = _bigraph_compose(%s, %s)", result.Text, left, right)
		return result.Text, nil

	case NodeBigraphAddNode, NodeBigraphRemoveNode, NodeBigraphReplaceNode,
		NodeBigraphAddEdge, NodeBigraphRemoveEdge, NodeBigraphAddParent,
		NodeBigraphAddType, NodeBigraphRemoveType,
		NodeBigraphSetLink, NodeBigraphRemoveLink:
		return "", g.genBigraphOp(id, node)

	default:
		return "", g.malformed(id, "cannot lower %s here", node.Kind)
	}
}

func (g *Generator) genArrayAssignment(id NodeID, node *ASTNode) error {
	access, err := g.child(id, node.Left, "array element target")
	if err != nil {
		return err
	}
	if access.Kind != NodeArrayAccess {
		return g.malformed(node.Left, "array assignment target must be an array access")
	}
	base, err := g.name(node.Left, access.Left, "array name")
	if err != nil {
		return err
	}
	index, err := g.value(node.Left, access.Right, "index")
	if err != nil {
		return err
	}
	value, err := g.value(id, node.Right, "assigned value")
	if err != nil {
		return err
	}
	g.emit("%s[%s] = %s", base, index, value)
	return nil
}

func (g *Generator) genArrayDecl(id NodeID, node *ASTNode) (string, error) {
	name, err := g.name(id, node.Left, "array name")
	if err != nil {
		return "", err
	}
	decl, err := g.child(id, node.Right, "array type")
	if err != nil {
		return "", err
	}

	switch decl.Kind {
	case NodeArrayInit:
		typeNode, err := g.child(node.Right, decl.Left, "array type")
		if err != nil {
			return "", err
		}
		if typeNode.Kind != NodeArrayType {
			return "", g.malformed(decl.Left, "expected array type")
		}
		size, err := g.value(decl.Left, typeNode.Left, "array size")
		if err != nil {
			return "", err
		}
		init, err := g.value(node.Right, decl.Right, "array initializer")
		if err != nil {
			return "", err
		}
		g.emit("%s = new_array %s", name, size)
		g.emit("%s = %s", name, init)
	case NodeArrayType:
		size, err := g.value(node.Right, decl.Left, "array size")
		if err != nil {
			return "", err
		}
		g.emit("%s = new_array %s", name, size)
	default:
		return "", g.malformed(node.Right, "expected array type or initializer")
	}
	return name, nil
}

// bigraphCalls maps each bigraph operation to its runtime pseudo-call.
var bigraphCalls = map[NodeKind]string{
	NodeBigraphAddNode:     "_bigraph_add_node",
	NodeBigraphRemoveNode:  "_bigraph_remove_node",
	NodeBigraphReplaceNode: "_bigraph_replace_node",
	NodeBigraphAddEdge:     "_bigraph_add_edge",
	NodeBigraphRemoveEdge:  "_bigraph_remove_edge",
	NodeBigraphAddType:     "_bigraph_add_type",
	NodeBigraphRemoveType:  "_bigraph_remove_type",
	NodeBigraphAddParent:   "_bigraph_add_parent",
	NodeBigraphSetLink:     "_bigraph_set_link",
	NodeBigraphRemoveLink:  "_bigraph_remove_link",
}

// operand describes one bigraph-operation argument. Quoted operands must be
// string literals and lose their quotes; the rest are lowered as values.
type operand struct {
	what   string
	quoted bool
}

var bigraphOperands = map[NodeKind][]operand{
	NodeBigraphAddNode:     {{"node name", true}},
	NodeBigraphRemoveNode:  {{"node name", true}},
	NodeBigraphReplaceNode: {{"old node name", true}, {"new node name", true}},
	NodeBigraphAddEdge:     {{"first operand", false}, {"second operand", false}},
	NodeBigraphRemoveEdge:  {{"first operand", false}, {"second operand", false}},
	NodeBigraphAddParent:   {{"first operand", false}, {"second operand", false}},
	NodeBigraphAddType:     {{"type name", true}, {"node", false}},
	NodeBigraphRemoveType:  {{"type name", true}, {"node", false}},
	NodeBigraphSetLink:     {{"node", false}, {"link count", false}},
	NodeBigraphRemoveLink:  {{"node", false}},
}

func (g *Generator) genBigraphOp(id NodeID, node *ASTNode) error {
	bigraph, err := g.name(id, node.Left, "bigraph operand")
	if err != nil {
		return err
	}
	args := g.ast.List(node.Right)

	line := bigraphCalls[node.Kind] + "(" + bigraph
	for i, op := range bigraphOperands[node.Kind] {
		var v string
		if op.quoted {
			v, err = g.stringArg(id, arg(args, i), op.what)
		} else {
			v, err = g.value(id, arg(args, i), op.what)
		}
		if err != nil {
			return err
		}
		line += ", " + v
	}
	g.emit("%s)", line)
	return nil
}
