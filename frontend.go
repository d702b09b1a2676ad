package main

import (
	"fmt"

	"github.com/bigrafos/bgc/sexy"
)

// DecodeProgram builds an AST and literal table from the s-expression form
// of a program. The input is either a single (program ...) form or a
// sequence of top-level statements.
func DecodeProgram(src string) (*AST, *LiteralTable, error) {
	forms, err := sexy.ParseAll(src)
	if err != nil {
		return nil, nil, err
	}
	if len(forms) == 1 && forms[0].Head() == "program" {
		forms = forms[0].Args()
	}

	d := &decoder{ast: NewAST(), lits: &LiteralTable{}}
	stmts, err := d.statements(forms)
	if err != nil {
		return nil, nil, err
	}
	d.ast.Root = d.add(ASTNode{Kind: NodeProgram, Left: d.ast.Chain(stmts...)})
	return d.ast, d.lits, nil
}

type decoder struct {
	ast  *AST
	lits *LiteralTable
}

// DecodeError reports an s-expression that does not describe a valid node.
type DecodeError struct {
	Line, Col int
	Msg       string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

func errorAt(n *sexy.Node, format string, args ...any) error {
	return &DecodeError{Line: n.Line, Col: n.Col, Msg: fmt.Sprintf(format, args...)}
}

// literalKinds are the node kinds that refer to a literal-table entry.
var literalKinds = map[NodeKind]bool{
	NodeIdentifier:     true,
	NodeNumber:         true,
	NodeStringLiteral:  true,
	NodeFunction:       true,
	NodeBigraphCompose: true,
}

func (d *decoder) add(node ASTNode) NodeID {
	if !literalKinds[node.Kind] {
		node.Lit = NoLiteral
	}
	return d.ast.Add(node)
}

// arity checks that a list form has between min and max arguments; max < 0
// means unbounded.
func arity(n *sexy.Node, min, max int) error {
	got := len(n.Args())
	if got < min || (max >= 0 && got > max) {
		switch {
		case min == max:
			return errorAt(n, "%s expects %d arguments, got %d", n.Head(), min, got)
		case max < 0:
			return errorAt(n, "%s expects at least %d arguments, got %d", n.Head(), min, got)
		default:
			return errorAt(n, "%s expects %d to %d arguments, got %d", n.Head(), min, max, got)
		}
	}
	return nil
}

func (d *decoder) symbol(n *sexy.Node, what string) (string, error) {
	if n.Type != sexy.NodeSymbol {
		return "", errorAt(n, "%s must be a symbol, got %s", what, n.Type)
	}
	return n.Text, nil
}

func (d *decoder) ident(n *sexy.Node, what string) (NodeID, error) {
	name, err := d.symbol(n, what)
	if err != nil {
		return NoNode, err
	}
	return d.add(ASTNode{Kind: NodeIdentifier, Lit: d.lits.AddIdentifier(name)}), nil
}

func (d *decoder) statements(forms []*sexy.Node) ([]NodeID, error) {
	ids := make([]NodeID, 0, len(forms))
	for _, form := range forms {
		id, err := d.statement(form)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (d *decoder) expressions(forms []*sexy.Node) (NodeID, error) {
	ids := make([]NodeID, 0, len(forms))
	for _, form := range forms {
		id, err := d.expression(form)
		if err != nil {
			return NoNode, err
		}
		ids = append(ids, id)
	}
	return d.ast.Chain(ids...), nil
}

func (d *decoder) statement(n *sexy.Node) (NodeID, error) {
	args := n.Args()

	switch n.Head() {
	case "block":
		stmts, err := d.statements(args)
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeBlock, Left: d.ast.Chain(stmts...)}), nil

	case "func":
		if err := arity(n, 3, 3); err != nil {
			return NoNode, err
		}
		name, err := d.symbol(args[0], "function name")
		if err != nil {
			return NoNode, err
		}
		if args[1].Type != sexy.NodeList {
			return NoNode, errorAt(args[1], "parameter list must be a list")
		}
		var params []NodeID
		for _, p := range args[1].Items {
			id, err := d.ident(p, "parameter")
			if err != nil {
				return NoNode, err
			}
			params = append(params, id)
		}
		body, err := d.statement(args[2])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{
			Kind:  NodeFunction,
			Lit:   d.lits.AddIdentifier(name),
			Left:  d.ast.Chain(params...),
			Right: body,
		}), nil

	case "decl", "assign":
		if err := arity(n, 1, 2); err != nil {
			return NoNode, err
		}
		target, err := d.ident(args[0], "assignment target")
		if err != nil {
			return NoNode, err
		}
		value := NoNode
		if len(args) == 2 {
			if value, err = d.expression(args[1]); err != nil {
				return NoNode, err
			}
		}
		kind := NodeDeclaration
		if n.Head() == "assign" {
			kind = NodeAssignment
		}
		return d.add(ASTNode{Kind: kind, Left: target, Right: value}), nil

	case "if", "while":
		if err := arity(n, 2, 2); err != nil {
			return NoNode, err
		}
		cond, err := d.expression(args[0])
		if err != nil {
			return NoNode, err
		}
		body, err := d.statement(args[1])
		if err != nil {
			return NoNode, err
		}
		kind := NodeIf
		if n.Head() == "while" {
			kind = NodeWhile
		}
		return d.add(ASTNode{Kind: kind, Left: cond, Right: body}), nil

	case "return":
		if err := arity(n, 0, 1); err != nil {
			return NoNode, err
		}
		value := NoNode
		if len(args) == 1 {
			var err error
			if value, err = d.expression(args[0]); err != nil {
				return NoNode, err
			}
		}
		return d.add(ASTNode{Kind: NodeReturn, Left: value}), nil

	case "array-decl":
		return d.arrayDecl(n)

	case "index-assign":
		if err := arity(n, 2, 2); err != nil {
			return NoNode, err
		}
		if args[0].Head() != "index" {
			return NoNode, errorAt(args[0], "index-assign target must be an (index ...) form")
		}
		target, err := d.expression(args[0])
		if err != nil {
			return NoNode, err
		}
		value, err := d.expression(args[1])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeArrayAssignment, Left: target, Right: value}), nil

	case "bigraph":
		if err := arity(n, 1, -1); err != nil {
			return NoNode, err
		}
		name, err := d.ident(args[0], "bigraph name")
		if err != nil {
			return NoNode, err
		}
		nodes, err := d.expressions(args[1:])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeBigraphDecl, Left: name, Right: nodes}), nil

	case "compose":
		if err := arity(n, 3, 3); err != nil {
			return NoNode, err
		}
		result, err := d.symbol(args[0], "composition result")
		if err != nil {
			return NoNode, err
		}
		left, err := d.expression(args[1])
		if err != nil {
			return NoNode, err
		}
		right, err := d.expression(args[2])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{
			Kind:  NodeBigraphCompose,
			Lit:   d.lits.AddIdentifier(result),
			Left:  left,
			Right: right,
		}), nil
	}

	if kind, ok := bigraphOpKinds[n.Head()]; ok {
		if err := arity(n, 1, -1); err != nil {
			return NoNode, err
		}
		target, err := d.expression(args[0])
		if err != nil {
			return NoNode, err
		}
		operands, err := d.expressions(args[1:])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: kind, Left: target, Right: operands}), nil
	}

	return d.expression(n)
}

// bigraphOpKinds is the inverse of bigraphOpHeads.
var bigraphOpKinds = func() map[string]NodeKind {
	kinds := make(map[string]NodeKind, len(bigraphOpHeads))
	for kind, head := range bigraphOpHeads {
		kinds[head] = kind
	}
	return kinds
}()

func (d *decoder) arrayDecl(n *sexy.Node) (NodeID, error) {
	if err := arity(n, 2, 3); err != nil {
		return NoNode, err
	}
	args := n.Args()
	name, err := d.ident(args[0], "array name")
	if err != nil {
		return NoNode, err
	}
	typeID, err := d.arrayType(args[1])
	if err != nil {
		return NoNode, err
	}
	if len(args) == 2 {
		return d.add(ASTNode{Kind: NodeArrayDecl, Left: name, Right: typeID}), nil
	}
	init, err := d.expression(args[2])
	if err != nil {
		return NoNode, err
	}
	initID := d.add(ASTNode{Kind: NodeArrayInit, Left: typeID, Right: init})
	return d.add(ASTNode{Kind: NodeArrayDecl, Left: name, Right: initID}), nil
}

func (d *decoder) arrayType(n *sexy.Node) (NodeID, error) {
	if n.Head() != "array-type" {
		return NoNode, errorAt(n, "expected (array-type KEYWORD SIZE)")
	}
	if err := arity(n, 2, 2); err != nil {
		return NoNode, err
	}
	args := n.Args()
	keyword, err := d.symbol(args[0], "element type")
	if err != nil {
		return NoNode, err
	}
	size, err := d.expression(args[1])
	if err != nil {
		return NoNode, err
	}
	return d.add(ASTNode{Kind: NodeArrayType, Keyword: parseTypeKeyword(keyword), Left: size}), nil
}

func (d *decoder) expression(n *sexy.Node) (NodeID, error) {
	switch n.Type {
	case sexy.NodeNumber:
		if n.Text[len(n.Text)-1] == 'n' {
			return d.add(ASTNode{Kind: NodeNumber, Lit: d.lits.AddNatural(n.Text)}), nil
		}
		return d.add(ASTNode{Kind: NodeNumber, Lit: d.lits.AddNumber(n.Text)}), nil
	case sexy.NodeString:
		return d.add(ASTNode{Kind: NodeStringLiteral, Lit: d.lits.AddString(n.Text)}), nil
	case sexy.NodeSymbol:
		return d.ident(n, "identifier")
	}

	args := n.Args()
	head := n.Head()
	switch {
	case binaryOperators[head]:
		if err := arity(n, 2, 2); err != nil {
			return NoNode, err
		}
		return d.binary(head, args[0], args[1])

	case head == "binary":
		// (binary "op" a b) spells operators the shorthand cannot.
		if err := arity(n, 3, 3); err != nil {
			return NoNode, err
		}
		if args[0].Type != sexy.NodeString && args[0].Type != sexy.NodeSymbol {
			return NoNode, errorAt(args[0], "operator must be a string or symbol")
		}
		return d.binary(args[0].Text, args[1], args[2])

	case head == "call":
		if err := arity(n, 1, -1); err != nil {
			return NoNode, err
		}
		callee, err := d.ident(args[0], "callee")
		if err != nil {
			return NoNode, err
		}
		callArgs, err := d.expressions(args[1:])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeFunctionCall, Left: callee, Right: callArgs}), nil

	case head == "index":
		if err := arity(n, 2, 2); err != nil {
			return NoNode, err
		}
		base, err := d.ident(args[0], "array name")
		if err != nil {
			return NoNode, err
		}
		index, err := d.expression(args[1])
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeArrayAccess, Left: base, Right: index}), nil

	case head == "array":
		elems, err := d.expressions(args)
		if err != nil {
			return NoNode, err
		}
		return d.add(ASTNode{Kind: NodeArrayLiteral, Left: elems}), nil
	}

	if head == "" {
		return NoNode, errorAt(n, "expected a form starting with a symbol")
	}
	return NoNode, errorAt(n, "unknown form '%s'", head)
}

func (d *decoder) binary(op string, left, right *sexy.Node) (NodeID, error) {
	l, err := d.expression(left)
	if err != nil {
		return NoNode, err
	}
	r, err := d.expression(right)
	if err != nil {
		return NoNode, err
	}
	return d.add(ASTNode{Kind: NodeBinaryOp, Op: op, Left: l, Right: r}), nil
}
