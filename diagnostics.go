package main

import (
	"fmt"
	"strings"
)

// DiagnosticKind separates type errors from declaration errors.
type DiagnosticKind int

const (
	TypeError DiagnosticKind = iota
	DeclarationError
)

func (k DiagnosticKind) String() string {
	if k == DeclarationError {
		return "declaration"
	}
	return "type"
}

// Diagnostic is one non-fatal problem found by the type checker.
type Diagnostic struct {
	Kind    DiagnosticKind
	Node    NodeID
	Message string
}

func (d Diagnostic) Error() string {
	return "error: " + d.Message
}

// Diagnostics accumulates problems in the order they were found. Reporting
// never stops the traversal.
type Diagnostics struct {
	items []Diagnostic
}

func (ds *Diagnostics) Add(kind DiagnosticKind, node NodeID, format string, args ...any) {
	ds.items = append(ds.items, Diagnostic{
		Kind:    kind,
		Node:    node,
		Message: fmt.Sprintf(format, args...),
	})
}

func (ds *Diagnostics) HasErrors() bool {
	return ds != nil && len(ds.items) > 0
}

func (ds *Diagnostics) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.items)
}

func (ds *Diagnostics) Items() []Diagnostic {
	if ds == nil {
		return nil
	}
	return ds.items
}

// Messages returns the bare messages, without the "error: " prefix.
func (ds *Diagnostics) Messages() []string {
	var msgs []string
	for _, d := range ds.Items() {
		msgs = append(msgs, d.Message)
	}
	return msgs
}

// String renders one diagnostic per line.
func (ds *Diagnostics) String() string {
	var b strings.Builder
	for i, d := range ds.Items() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(d.Error())
	}
	return b.String()
}

// MalformedASTError reports a tree the code generator cannot lower, such as
// a required child that is absent.
type MalformedASTError struct {
	Node   NodeID
	Kind   NodeKind
	Reason string
}

func (e *MalformedASTError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("malformed AST at node %d: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("malformed AST at node %d (%s): %s", e.Node, e.Kind, e.Reason)
}
