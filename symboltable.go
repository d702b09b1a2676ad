package main

import (
	"strings"
)

// SymbolInfo describes one declared name.
type SymbolInfo struct {
	Name       string
	Type       DataType
	IsFunction bool
	// Functions:
	ReturnType DataType
	ParamTypes []DataType
	// Arrays:
	ElementType DataType
	ArraySize   int // not computed by the checker; 0
}

// Builtin is a function signature installed before analysis starts.
type Builtin struct {
	Name    string
	Returns DataType
	Params  []DataType
}

// DefaultBuiltins returns the functions every program can call without
// defining them. Only return types are known; a config file can supply
// parameter types.
func DefaultBuiltins() []Builtin {
	return []Builtin{
		{Name: "sqrt", Returns: TypeFloat},
		{Name: "power", Returns: TypeFloat},
	}
}

// SymbolTable is a flat, append-only list of declarations. Lookup always
// resolves to the earliest entry with a given name; later entries with the
// same name are recorded but never found.
type SymbolTable struct {
	symbols []SymbolInfo
	first   map[string]int
}

// NewSymbolTable creates a table pre-seeded with builtins.
func NewSymbolTable(builtins []Builtin) *SymbolTable {
	st := &SymbolTable{
		symbols: make([]SymbolInfo, 0, 100),
		first:   make(map[string]int),
	}
	for _, b := range builtins {
		st.DeclareFunction(b.Name, b.Returns, b.Params)
	}
	return st
}

func (st *SymbolTable) insert(sym SymbolInfo) {
	if _, exists := st.first[sym.Name]; !exists {
		st.first[sym.Name] = len(st.symbols)
	}
	st.symbols = append(st.symbols, sym)
}

// Declare records a plain variable. Array-typed variables also get their
// element type.
func (st *SymbolTable) Declare(name string, t DataType) {
	st.insert(SymbolInfo{Name: name, Type: t, ElementType: t.ElementType()})
}

// DeclareFunction records a function. Its Type is its return type.
func (st *SymbolTable) DeclareFunction(name string, returns DataType, params []DataType) {
	st.insert(SymbolInfo{
		Name:       name,
		Type:       returns,
		IsFunction: true,
		ReturnType: returns,
		ParamTypes: append([]DataType(nil), params...),
	})
}

// DeclareArray records an array of elem and returns the array type, which
// is TypeUnknown when elem is not a scalar kind.
func (st *SymbolTable) DeclareArray(name string, elem DataType, size int) DataType {
	arrayType := ArrayOf(elem)
	st.insert(SymbolInfo{
		Name:        name,
		Type:        arrayType,
		ElementType: elem,
		ArraySize:   size,
	})
	return arrayType
}

// Lookup returns the first declaration of name, or nil.
func (st *SymbolTable) Lookup(name string) *SymbolInfo {
	i, ok := st.first[name]
	if !ok {
		return nil
	}
	sym := st.symbols[i]
	return &sym
}

func (st *SymbolTable) Len() int {
	return len(st.symbols)
}

// Entries returns every declaration in insertion order, shadowed ones
// included.
func (st *SymbolTable) Entries() []SymbolInfo {
	return append([]SymbolInfo(nil), st.symbols...)
}

// Dump lists every entry as "name: type", one per line, in insertion order.
func (st *SymbolTable) Dump() string {
	var b strings.Builder
	for _, sym := range st.symbols {
		b.WriteString(sym.Name)
		b.WriteString(": ")
		b.WriteString(sym.Signature())
		b.WriteString("\n")
	}
	return b.String()
}

// Signature renders the symbol's type the way Dump shows it.
func (sym SymbolInfo) Signature() string {
	if !sym.IsFunction {
		return sym.Type.String()
	}
	params := make([]string, len(sym.ParamTypes))
	for i, p := range sym.ParamTypes {
		params[i] = p.String()
	}
	return "func(" + strings.Join(params, ", ") + ") " + sym.ReturnType.String()
}
