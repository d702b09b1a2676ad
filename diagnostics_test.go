package main

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/nalgeon/be"
)

func TestDiagnostics(t *testing.T) {
	var diags Diagnostics
	be.True(t, !diags.HasErrors())
	be.Equal(t, diags.String(), "")

	diags.Add(TypeError, 3, "undefined identifier '%s'", "x")
	diags.Add(DeclarationError, 7, "bigraph '%s' already declared", "b")

	be.True(t, diags.HasErrors())
	be.Equal(t, diags.Len(), 2)
	be.Equal(t, diags.String(), "error: undefined identifier 'x'\nerror: bigraph 'b' already declared")

	want := []Diagnostic{
		{Kind: TypeError, Node: 3, Message: "undefined identifier 'x'"},
		{Kind: DeclarationError, Node: 7, Message: "bigraph 'b' already declared"},
	}
	if diff := deep.Equal(diags.Items(), want); diff != nil {
		t.Error(diff)
	}
}

func TestNilDiagnostics(t *testing.T) {
	var diags *Diagnostics
	be.True(t, !diags.HasErrors())
	be.Equal(t, diags.Len(), 0)
	be.True(t, diags.Items() == nil)
	be.Equal(t, len(diags.Messages()), 0)
}

func TestDiagnosticKindString(t *testing.T) {
	be.Equal(t, TypeError.String(), "type")
	be.Equal(t, DeclarationError.String(), "declaration")
}

func TestMalformedASTError(t *testing.T) {
	err := &MalformedASTError{Node: 4, Kind: NodeIf, Reason: "missing condition"}
	be.Equal(t, err.Error(), "malformed AST at node 4 (NodeIf): missing condition")

	err = &MalformedASTError{Reason: "missing root node"}
	be.Equal(t, err.Error(), "malformed AST at node 0: missing root node")
}
