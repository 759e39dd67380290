package common

import (
	"strings"

	"github.com/squareup/blockexec/errors"
)

// Type is the physical kind of a column. Fixed width types have a constant size per value, variable width types
// are stored as length prefixed byte sequences.
type Type int

const (
	TypeUnknown Type = iota
	TypeBoolean
	TypeBigInt
	TypeDouble
	TypeVarbinary
	TypeVarchar
)

const (
	SizeOfBoolean = 1
	SizeOfInt64   = 8
	SizeOfFloat64 = 8
)

var typeNames = map[Type]string{
	TypeUnknown:   "UNKNOWN",
	TypeBoolean:   "BOOLEAN",
	TypeBigInt:    "BIGINT",
	TypeDouble:    "DOUBLE",
	TypeVarbinary: "VARBINARY",
	TypeVarchar:   "VARCHAR",
}

// TypesByName allows lookup of a Type by its SQL name
var TypesByName = map[string]Type{
	"BOOLEAN":   TypeBoolean,
	"BIGINT":    TypeBigInt,
	"DOUBLE":    TypeDouble,
	"VARBINARY": TypeVarbinary,
	"VARCHAR":   TypeVarchar,
}

func (t Type) String() string {
	name, ok := typeNames[t]
	if !ok {
		return "UNKNOWN"
	}
	return name
}

func (t Type) IsFixedWidth() bool {
	switch t {
	case TypeBoolean, TypeBigInt, TypeDouble:
		return true
	default:
		return false
	}
}

// FixedSize returns the size in bytes of a single value, or zero if the type is variable width
func (t Type) FixedSize() int {
	switch t {
	case TypeBoolean:
		return SizeOfBoolean
	case TypeBigInt:
		return SizeOfInt64
	case TypeDouble:
		return SizeOfFloat64
	default:
		return 0
	}
}

// Capture is used by the signature parser to convert a type token into a Type
func (t *Type) Capture(tokens []string) error {
	text := strings.ToUpper(strings.Join(tokens, " "))
	typ, ok := TypesByName[text]
	if !ok {
		return errors.Errorf("unknown column type %s", text)
	}
	*t = typ
	return nil
}

// TypesString renders types as a comma separated list e.g. "BIGINT, DOUBLE"
func TypesString(types []Type) string {
	sb := strings.Builder{}
	for i, t := range types {
		sb.WriteString(t.String())
		if i != len(types)-1 {
			sb.WriteString(", ")
		}
	}
	return sb.String()
}

func TypesEqual(types1 []Type, types2 []Type) bool {
	if len(types1) != len(types2) {
		return false
	}
	for i, t := range types1 {
		if t != types2[i] {
			return false
		}
	}
	return true
}
