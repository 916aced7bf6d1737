package event

import "fmt"

// RMWOp is the operator of a read-modify-write operation.
type RMWOp uint8

const (
	RMWXchg RMWOp = iota
	RMWAdd
	RMWSub
	RMWAnd
	RMWNand
	RMWOr
	RMWXor
	RMWMax
	RMWMin
	RMWUMax
	RMWUMin
)

func (op RMWOp) String() string {
	switch op {
	case RMWXchg:
		return "Xchg"
	case RMWAdd:
		return "Add"
	case RMWSub:
		return "Sub"
	case RMWAnd:
		return "And"
	case RMWNand:
		return "Nand"
	case RMWOr:
		return "Or"
	case RMWXor:
		return "Xor"
	case RMWMax:
		return "Max"
	case RMWMin:
		return "Min"
	case RMWUMax:
		return "UMax"
	case RMWUMin:
		return "UMin"
	default:
		return fmt.Sprintf("RMWOp(%d)", uint8(op))
	}
}

// sizeMask returns the bit mask covering an access of size bytes.
// Sizes of 8 bytes and above use the full 64-bit word.
func sizeMask(size uint64) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return (uint64(1) << (8 * size)) - 1
}

// signExtend interprets v as a size-byte two's-complement integer.
func signExtend(v, size uint64) int64 {
	if size >= 8 {
		return int64(v)
	}
	shift := 64 - 8*size
	return int64(v<<shift) >> shift
}

// ExecuteRMWOp computes `old OP rhs` at the bit width of a size-byte
// access. Arithmetic wraps modulo 2^(8*size); Max/Min compare as signed
// integers of that width, UMax/UMin as unsigned. Both operands are
// truncated to the access width before the operator is applied.
func ExecuteRMWOp(old, rhs Scalar, size uint64, op RMWOp) Scalar {
	mask := sizeMask(size)
	o := old.Value & mask
	r := rhs.Value & mask

	var v uint64
	switch op {
	case RMWXchg:
		v = r
	case RMWAdd:
		v = o + r
	case RMWSub:
		v = o - r
	case RMWAnd:
		v = o & r
	case RMWNand:
		v = ^(o & r)
	case RMWOr:
		v = o | r
	case RMWXor:
		v = o ^ r
	case RMWMax:
		if signExtend(o, size) >= signExtend(r, size) {
			v = o
		} else {
			v = r
		}
	case RMWMin:
		if signExtend(o, size) <= signExtend(r, size) {
			v = o
		} else {
			v = r
		}
	case RMWUMax:
		v = max(o, r)
	case RMWUMin:
		v = min(o, r)
	default:
		panic(fmt.Sprintf("event: unknown RMW operator %s", op))
	}

	return NewScalar(v & mask)
}
