package main

import "strings"

// DataType is the closed set of types the checker can infer.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeInteger
	TypeFloat
	TypeNatural
	TypeVoid
	TypeArrayInteger
	TypeArrayFloat
	TypeArrayNatural
	TypeBigraph
	TypeString
)

func (t DataType) String() string {
	switch t {
	case TypeUnknown:
		return "Unknown"
	case TypeInteger:
		return "Integer"
	case TypeFloat:
		return "Float"
	case TypeNatural:
		return "Natural"
	case TypeVoid:
		return "Void"
	case TypeArrayInteger:
		return "Array(Integer)"
	case TypeArrayFloat:
		return "Array(Float)"
	case TypeArrayNatural:
		return "Array(Natural)"
	case TypeBigraph:
		return "Bigraph"
	case TypeString:
		return "String"
	default:
		return "Unknown"
	}
}

// ArrayOf returns the array type holding elements of elem, or TypeUnknown
// when elem is not one of the three scalar kinds.
func ArrayOf(elem DataType) DataType {
	switch elem {
	case TypeInteger:
		return TypeArrayInteger
	case TypeFloat:
		return TypeArrayFloat
	case TypeNatural:
		return TypeArrayNatural
	default:
		return TypeUnknown
	}
}

// ElementType is the inverse of ArrayOf.
func (t DataType) ElementType() DataType {
	switch t {
	case TypeArrayInteger:
		return TypeInteger
	case TypeArrayFloat:
		return TypeFloat
	case TypeArrayNatural:
		return TypeNatural
	default:
		return TypeUnknown
	}
}

func (t DataType) IsArray() bool {
	return t == TypeArrayInteger || t == TypeArrayFloat || t == TypeArrayNatural
}

// IsScalar reports whether t can be an array element.
func (t DataType) IsScalar() bool {
	return t == TypeInteger || t == TypeFloat || t == TypeNatural
}

// ParseDataType maps a type name as written in configuration files back to
// a DataType. Names are matched case-insensitively.
func ParseDataType(name string) (DataType, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "integer", "ent":
		return TypeInteger, true
	case "float", "flo":
		return TypeFloat, true
	case "natural", "nat":
		return TypeNatural, true
	case "void":
		return TypeVoid, true
	case "array(integer)":
		return TypeArrayInteger, true
	case "array(float)":
		return TypeArrayFloat, true
	case "array(natural)":
		return TypeArrayNatural, true
	case "bigraph":
		return TypeBigraph, true
	case "string":
		return TypeString, true
	default:
		return TypeUnknown, false
	}
}

// TypeKeyword is the element-type keyword attached to an ArrayType node.
type TypeKeyword int

const (
	KeywordInvalid TypeKeyword = iota
	KeywordEnt
	KeywordFlo
	KeywordNat
)

// DataType converts the keyword to the element type it names.
func (k TypeKeyword) DataType() DataType {
	switch k {
	case KeywordEnt:
		return TypeInteger
	case KeywordFlo:
		return TypeFloat
	case KeywordNat:
		return TypeNatural
	default:
		return TypeUnknown
	}
}

func (k TypeKeyword) String() string {
	switch k {
	case KeywordEnt:
		return "ent"
	case KeywordFlo:
		return "flo"
	case KeywordNat:
		return "nat"
	default:
		return "invalid"
	}
}

func parseTypeKeyword(s string) TypeKeyword {
	switch s {
	case "ent":
		return KeywordEnt
	case "flo":
		return KeywordFlo
	case "nat":
		return KeywordNat
	default:
		return KeywordInvalid
	}
}
