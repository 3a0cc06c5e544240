package types

import "strconv"

// Kind is the width class of an IR value. The language itself is untyped;
// every variable holds a 64-bit signed integer and comparisons produce a
// single-bit truth value.
type Kind int

const (
	Int1 Kind = iota
	Int64
)

// Type is a minimal description of an IR value's type.
type Type struct {
	K Kind
}

func I1() Type  { return Type{K: Int1} }
func I64() Type { return Type{K: Int64} }

// Bits returns the width in bits.
func (t Type) Bits() int {
	switch t.K {
	case Int1:
		return 1
	default:
		return 64
	}
}

// IsBool reports whether the value is already a single-bit truth value.
func (t Type) IsBool() bool { return t.Bits() == 1 }

// String renders the type as i1 / i64.
func (t Type) String() string { return "i" + strconv.Itoa(t.Bits()) }
