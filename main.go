package main

import (
	"strconv"
	"strings"
)

// LiteralKind tags what the scanner recognized a literal-table entry as.
type LiteralKind int

const (
	LitIdentifier LiteralKind = iota + 1
	LitNumber                 // integer or float numeral, decoded as float
	LitNatural                // natural numeral, decoded as unsigned
	LitString
)

// Literal is one entry of the literal table filled in by the front end.
type Literal struct {
	Text    string // lexeme as scanned; strings keep their quotes
	Kind    LiteralKind
	Float   float64
	Natural uint64
	Str     string
}

// LiteralTable is append-only. AST leaves refer to entries by index.
type LiteralTable struct {
	Entries []Literal
}

// NoLiteral marks a node without a literal-table reference.
const NoLiteral = -1

func (lt *LiteralTable) Add(lit Literal) int {
	lt.Entries = append(lt.Entries, lit)
	return len(lt.Entries) - 1
}

func (lt *LiteralTable) AddIdentifier(name string) int {
	return lt.Add(Literal{Text: name, Kind: LitIdentifier, Str: name})
}

// AddNumber records an integer or float numeral. The decoded value is
// best-effort; the lexeme is what the passes look at.
func (lt *LiteralTable) AddNumber(text string) int {
	v, _ := strconv.ParseFloat(text, 64)
	return lt.Add(Literal{Text: text, Kind: LitNumber, Float: v})
}

func (lt *LiteralTable) AddNatural(text string) int {
	v, _ := strconv.ParseUint(strings.TrimSuffix(text, "n"), 10, 64)
	return lt.Add(Literal{Text: text, Kind: LitNatural, Natural: v})
}

// AddString records a string literal. lexeme may be given with or without
// its surrounding quotes; the table always stores it quoted.
func (lt *LiteralTable) AddString(lexeme string) int {
	value := stripQuotes(lexeme)
	return lt.Add(Literal{Text: `"` + value + `"`, Kind: LitString, Str: value})
}

func (lt *LiteralTable) At(i int) (Literal, bool) {
	if lt == nil || i < 0 || i >= len(lt.Entries) {
		return Literal{}, false
	}
	return lt.Entries[i], true
}

func (lt *LiteralTable) Len() int {
	return len(lt.Entries)
}

// NodeKind represents different types of AST nodes
type NodeKind string

const (
	NodeProgram            NodeKind = "NodeProgram"
	NodeFunction           NodeKind = "NodeFunction"
	NodeBlock              NodeKind = "NodeBlock"
	NodeDeclaration        NodeKind = "NodeDeclaration"
	NodeAssignment         NodeKind = "NodeAssignment"
	NodeIf                 NodeKind = "NodeIf"
	NodeWhile              NodeKind = "NodeWhile"
	NodeReturn             NodeKind = "NodeReturn"
	NodeBinaryOp           NodeKind = "NodeBinaryOp"
	NodeFunctionCall       NodeKind = "NodeFunctionCall"
	NodeIdentifier         NodeKind = "NodeIdentifier"
	NodeNumber             NodeKind = "NodeNumber"
	NodeStringLiteral      NodeKind = "NodeStringLiteral"
	NodeArrayType          NodeKind = "NodeArrayType"
	NodeArrayDecl          NodeKind = "NodeArrayDecl"
	NodeArrayAccess        NodeKind = "NodeArrayAccess"
	NodeArrayAssignment    NodeKind = "NodeArrayAssignment"
	NodeArrayLiteral       NodeKind = "NodeArrayLiteral"
	NodeArrayInit          NodeKind = "NodeArrayInit"
	NodeBigraphDecl        NodeKind = "NodeBigraphDecl"
	NodeBigraphAddNode     NodeKind = "NodeBigraphAddNode"
	NodeBigraphReplaceNode NodeKind = "NodeBigraphReplaceNode"
	NodeBigraphRemoveNode  NodeKind = "NodeBigraphRemoveNode"
	NodeBigraphAddEdge     NodeKind = "NodeBigraphAddEdge"
	NodeBigraphRemoveEdge  NodeKind = "NodeBigraphRemoveEdge"
	NodeBigraphAddType     NodeKind = "NodeBigraphAddType"
	NodeBigraphRemoveType  NodeKind = "NodeBigraphRemoveType"
	NodeBigraphAddParent   NodeKind = "NodeBigraphAddParent"
	NodeBigraphSetLink     NodeKind = "NodeBigraphSetLink"
	NodeBigraphRemoveLink  NodeKind = "NodeBigraphRemoveLink"
	NodeBigraphCompose     NodeKind = "NodeBigraphCompose"
)

// binaryOperators are the operators a NodeBinaryOp may carry.
var binaryOperators = map[string]bool{
	"+": true, "-": true, "*": true, "/": true,
	"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true,
}

// NodeID addresses a node in an AST arena. The zero value is NoNode.
type NodeID int32

const NoNode NodeID = 0

// ASTNode represents a node in the Abstract Syntax Tree.
//
// Left, Right and Next are owned links; which children a kind uses is
// documented next to the kind's handling in the checker and generator.
type ASTNode struct {
	Kind NodeKind
	// Literal-table index for leaves, functions and compose results.
	Lit int
	// NodeBinaryOp: "+", "-", "*", "/", "==", "!=", "<", "<=", ">", ">="
	Op string
	// NodeArrayType:
	Keyword TypeKeyword

	Left  NodeID
	Right NodeID
	Next  NodeID
}

// AST is an arena of nodes. Slot 0 is a sentinel so that NoNode never
// addresses a real node.
type AST struct {
	Nodes []ASTNode
	Root  NodeID
}

func NewAST() *AST {
	return &AST{Nodes: []ASTNode{{}}}
}

// Add appends node to the arena and returns its id.
func (a *AST) Add(node ASTNode) NodeID {
	a.Nodes = append(a.Nodes, node)
	return NodeID(len(a.Nodes) - 1)
}

// Node returns the node addressed by id, or nil for NoNode and ids outside
// the arena.
func (a *AST) Node(id NodeID) *ASTNode {
	if a == nil || id <= NoNode || int(id) >= len(a.Nodes) {
		return nil
	}
	return &a.Nodes[id]
}

// Chain links ids through their Next fields in order and returns the first
// one, or NoNode for an empty list.
func (a *AST) Chain(ids ...NodeID) NodeID {
	for i := 0; i+1 < len(ids); i++ {
		a.Nodes[ids[i]].Next = ids[i+1]
	}
	if len(ids) == 0 {
		return NoNode
	}
	return ids[0]
}

// List collects the sibling chain starting at first. The walk stops after
// len(Nodes) steps so a corrupted arena cannot loop forever.
func (a *AST) List(first NodeID) []NodeID {
	var ids []NodeID
	for id := first; id != NoNode && len(ids) < len(a.Nodes); {
		node := a.Node(id)
		if node == nil {
			break
		}
		ids = append(ids, id)
		id = node.Next
	}
	return ids
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// ToSExpr converts an AST node to s-expression string representation, in
// the same notation DecodeProgram reads.
func ToSExpr(a *AST, lits *LiteralTable, id NodeID) string {
	node := a.Node(id)
	if node == nil {
		return "()"
	}
	lit := func(i int) string {
		l, ok := lits.At(i)
		if !ok {
			return "?"
		}
		return l.Text
	}
	list := func(head string, ids ...NodeID) string {
		var b strings.Builder
		b.WriteString("(" + head)
		for _, child := range ids {
			b.WriteString(" " + ToSExpr(a, lits, child))
		}
		b.WriteString(")")
		return b.String()
	}

	switch node.Kind {
	case NodeProgram:
		return list("program", a.List(node.Left)...)
	case NodeBlock:
		return list("block", a.List(node.Left)...)
	case NodeFunction:
		var params []string
		for _, p := range a.List(node.Left) {
			params = append(params, ToSExpr(a, lits, p))
		}
		return "(func " + lit(node.Lit) + " (" + strings.Join(params, " ") + ") " + ToSExpr(a, lits, node.Right) + ")"
	case NodeDeclaration:
		return list("decl", node.Left, node.Right)
	case NodeAssignment:
		return list("assign", node.Left, node.Right)
	case NodeIf:
		return list("if", node.Left, node.Right)
	case NodeWhile:
		return list("while", node.Left, node.Right)
	case NodeReturn:
		return list("return", node.Left)
	case NodeBinaryOp:
		if !binaryOperators[node.Op] {
			return list("binary "+strconv.Quote(node.Op), node.Left, node.Right)
		}
		return list(node.Op, node.Left, node.Right)
	case NodeFunctionCall:
		return list("call", append([]NodeID{node.Left}, a.List(node.Right)...)...)
	case NodeIdentifier, NodeStringLiteral:
		return lit(node.Lit)
	case NodeNumber:
		if l, ok := lits.At(node.Lit); ok && l.Kind == LitNatural {
			return strconv.FormatUint(l.Natural, 10) + "n"
		}
		return lit(node.Lit)
	case NodeArrayType:
		return list("array-type "+node.Keyword.String(), node.Left)
	case NodeArrayInit:
		return list("array-init", node.Left, node.Right)
	case NodeArrayDecl:
		if init := a.Node(node.Right); init != nil && init.Kind == NodeArrayInit {
			return list("array-decl", node.Left, init.Left, init.Right)
		}
		return list("array-decl", node.Left, node.Right)
	case NodeArrayAccess:
		return list("index", node.Left, node.Right)
	case NodeArrayAssignment:
		return list("index-assign", node.Left, node.Right)
	case NodeArrayLiteral:
		return list("array", a.List(node.Left)...)
	case NodeBigraphDecl:
		return list("bigraph", append([]NodeID{node.Left}, a.List(node.Right)...)...)
	case NodeBigraphCompose:
		return "(compose " + lit(node.Lit) + " " + ToSExpr(a, lits, node.Left) + " " + ToSExpr(a, lits, node.Right) + ")"
	default:
		if head, ok := bigraphOpHeads[node.Kind]; ok {
			return list(head, append([]NodeID{node.Left}, a.List(node.Right)...)...)
		}
		return "()"
	}
}

// bigraphOpHeads names the s-expression head of each bigraph operation.
var bigraphOpHeads = map[NodeKind]string{
	NodeBigraphAddNode:     "add-node",
	NodeBigraphRemoveNode:  "remove-node",
	NodeBigraphReplaceNode: "replace-node",
	NodeBigraphAddEdge:     "add-edge",
	NodeBigraphRemoveEdge:  "remove-edge",
	NodeBigraphAddType:     "add-type",
	NodeBigraphRemoveType:  "remove-type",
	NodeBigraphAddParent:   "add-parent",
	NodeBigraphSetLink:     "set-link",
	NodeBigraphRemoveLink:  "remove-link",
}
