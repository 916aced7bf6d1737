package event

import "fmt"

// Scalar is a value with an explicit "is this initialized" flag. The flag
// distinguishes "the location holds 0" from "the location has never been
// written", which matters to the initial-value bridge: an uninitialized
// candidate must never be recorded as a location's initial value.
//
// Value holds the low 64 bits. Extra holds the second word of a wide
// (128-bit) value, or the allocation base address when the value is a
// pointer; it is carried through untouched by everything except the code
// that produced it.
type Scalar struct {
	Value uint64
	Extra uint64
	Init  bool
}

// UninitScalar is the scalar for memory that has never been written.
var UninitScalar = Scalar{}

// NewScalar returns an initialized scalar holding v.
func NewScalar(v uint64) Scalar {
	return Scalar{Value: v, Init: true}
}

func (s Scalar) String() string {
	if !s.Init {
		return "<uninit>"
	}
	if s.Extra != 0 {
		return fmt.Sprintf("%#x (extra=%#x)", s.Value, s.Extra)
	}
	return fmt.Sprintf("%#x", s.Value)
}

// Equal reports whether two scalars are identical, including the
// initialized flag.
func (s Scalar) Equal(o Scalar) bool {
	return s == o
}
