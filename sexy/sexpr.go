package sexy

import (
	"fmt"
	"strings"
	"unicode"
)

// NodeType represents the type of a Node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeString
	NodeNumber
	NodeList
)

func (t NodeType) String() string {
	switch t {
	case NodeSymbol:
		return "symbol"
	case NodeString:
		return "string"
	case NodeNumber:
		return "number"
	case NodeList:
		return "list"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Node is one datum read from an s-expression.
type Node struct {
	Type NodeType

	// NodeSymbol and NodeNumber hold the atom as written. NodeString holds
	// the decoded value without quotes.
	Text string

	Items []*Node // NodeList

	Line, Col int
}

func (n *Node) String() string {
	switch n.Type {
	case NodeSymbol, NodeNumber:
		return n.Text
	case NodeString:
		escaped := strings.ReplaceAll(n.Text, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	case NodeList:
		parts := make([]string, len(n.Items))
		for i, item := range n.Items {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	default:
		return fmt.Sprintf("UNKNOWN_NODE_TYPE_%d", n.Type)
	}
}

func NewSymbol(name string) *Node {
	return &Node{Type: NodeSymbol, Text: name}
}

func NewString(value string) *Node {
	return &Node{Type: NodeString, Text: value}
}

func NewNumber(text string) *Node {
	return &Node{Type: NodeNumber, Text: text}
}

func NewList(items ...*Node) *Node {
	return &Node{Type: NodeList, Items: items}
}

func (n *Node) IsAtom() bool {
	return n.Type != NodeList
}

// Head returns the symbol a list starts with, or "" when the node is not a
// list or does not start with a symbol.
func (n *Node) Head() string {
	if n.Type != NodeList || len(n.Items) == 0 || n.Items[0].Type != NodeSymbol {
		return ""
	}
	return n.Items[0].Text
}

// Args returns the items of a list after its head.
func (n *Node) Args() []*Node {
	if n.Type != NodeList || len(n.Items) == 0 {
		return nil
	}
	return n.Items[1:]
}

// Position formats the node's source location as line:col.
func (n *Node) Position() string {
	return fmt.Sprintf("%d:%d", n.Line, n.Col)
}

// Parse reads exactly one datum from input.
func Parse(input string) (*Node, error) {
	nodes, err := ParseAll(input)
	if err != nil {
		return nil, err
	}
	if len(nodes) != 1 {
		return nil, fmt.Errorf("expected one datum, got %d", len(nodes))
	}
	return nodes[0], nil
}

// ParseAll reads every top-level datum in input.
func ParseAll(input string) ([]*Node, error) {
	r := &reader{src: []rune(input), line: 1, col: 1}
	var nodes []*Node
	for {
		r.skipSpace()
		if r.eof() {
			return nodes, nil
		}
		node, err := r.datum()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
}

type reader struct {
	src       []rune
	pos       int
	line, col int
}

func (r *reader) eof() bool {
	return r.pos >= len(r.src)
}

func (r *reader) peek() rune {
	return r.src[r.pos]
}

func (r *reader) advance() rune {
	ch := r.src[r.pos]
	r.pos++
	if ch == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return ch
}

func (r *reader) errorf(line, col int, format string, args ...any) error {
	return fmt.Errorf("%d:%d: %s", line, col, fmt.Sprintf(format, args...))
}

// skipSpace skips whitespace and ';' line comments.
func (r *reader) skipSpace() {
	for !r.eof() {
		ch := r.peek()
		switch {
		case unicode.IsSpace(ch):
			r.advance()
		case ch == ';':
			for !r.eof() && r.peek() != '\n' {
				r.advance()
			}
		default:
			return
		}
	}
}

func (r *reader) datum() (*Node, error) {
	line, col := r.line, r.col
	switch ch := r.peek(); ch {
	case '(':
		r.advance()
		list := &Node{Type: NodeList, Items: []*Node{}, Line: line, Col: col}
		for {
			r.skipSpace()
			if r.eof() {
				return nil, r.errorf(line, col, "unterminated list")
			}
			if r.peek() == ')' {
				r.advance()
				return list, nil
			}
			item, err := r.datum()
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, item)
		}
	case ')':
		return nil, r.errorf(line, col, "unexpected ')'")
	case '"':
		return r.str(line, col)
	default:
		return r.atom(line, col), nil
	}
}

func (r *reader) str(line, col int) (*Node, error) {
	r.advance()
	var b strings.Builder
	for {
		if r.eof() {
			return nil, r.errorf(line, col, "unterminated string")
		}
		ch := r.advance()
		switch ch {
		case '"':
			return &Node{Type: NodeString, Text: b.String(), Line: line, Col: col}, nil
		case '\\':
			if r.eof() {
				return nil, r.errorf(line, col, "unterminated string")
			}
			switch esc := r.advance(); esc {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case '"', '\\':
				b.WriteRune(esc)
			default:
				return nil, r.errorf(r.line, r.col-2, "unknown escape '\\%c'", esc)
			}
		default:
			b.WriteRune(ch)
		}
	}
}

func (r *reader) atom(line, col int) *Node {
	start := r.pos
	for !r.eof() {
		ch := r.peek()
		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' || ch == ';' {
			break
		}
		r.advance()
	}
	text := string(r.src[start:r.pos])
	typ := NodeSymbol
	if isNumeral(text) {
		typ = NodeNumber
	}
	return &Node{Type: typ, Text: text, Line: line, Col: col}
}

// isNumeral reports whether an atom starts like a number: a digit, or a
// sign followed by a digit.
func isNumeral(text string) bool {
	if text == "" {
		return false
	}
	if text[0] == '-' || text[0] == '+' {
		text = text[1:]
	}
	return text != "" && text[0] >= '0' && text[0] <= '9'
}
