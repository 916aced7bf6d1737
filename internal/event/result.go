package event

import "fmt"

// ModelError is an engine-reported, recoverable failure: the engine
// determined that no consistent outcome exists for an operation (a data
// race, an invalid access, a consistency violation). It is carried inside
// the per-operation result records rather than aborting anything; the
// caller decides what to do with the diagnosed execution.
type ModelError struct {
	Code    ModelErrorCode
	Message string
}

// ModelErrorCode categorizes engine-reported failures.
type ModelErrorCode string

const (
	ErrCodeRace           ModelErrorCode = "RACE"
	ErrCodeUninitialized  ModelErrorCode = "UNINITIALIZED_MEM"
	ErrCodeAccessFreed    ModelErrorCode = "ACCESS_FREED"
	ErrCodeAccessNonAlloc ModelErrorCode = "ACCESS_NON_MALLOC"
	ErrCodeDoubleFree     ModelErrorCode = "DOUBLE_FREE"
	ErrCodeInvalidJoin    ModelErrorCode = "INVALID_JOIN"
	ErrCodeInvalidUnlock  ModelErrorCode = "INVALID_UNLOCK"
	ErrCodeConsistency    ModelErrorCode = "CONSISTENCY"
)

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadResult is what the engine hands back for a read label. Exactly one
// of the three outcomes holds: a resolved value, Unresolved (no
// consistent value exists right now; the thread must be parked and the
// read retried on a later exploration), or Err.
type LoadResult struct {
	Value      Scalar
	Unresolved bool
	Err        *ModelError
}

// LoadValue returns a resolved-value result.
func LoadValue(v Scalar) LoadResult {
	return LoadResult{Value: v}
}

// LoadUnresolved returns the "no consistent value" result.
func LoadUnresolved() LoadResult {
	return LoadResult{Unresolved: true}
}

// LoadError returns an error result.
func LoadError(err *ModelError) LoadResult {
	return LoadResult{Err: err}
}

// StoreResult is what the engine hands back for a write label.
// CoMaxWrite reports whether the write became coherence-order-maximal
// for its address.
type StoreResult struct {
	CoMaxWrite bool
	Err        *ModelError
}

// RMWResult is the interpreter-facing result of a read-modify-write:
// the observed old value and the stored new value.
type RMWResult struct {
	Old        Scalar
	New        Scalar
	CoMaxWrite bool
	Err        *ModelError
}

// CASResult is the interpreter-facing result of a compare-exchange. On
// failure, Old carries the observed value and no store was issued.
type CASResult struct {
	Old        Scalar
	Success    bool
	CoMaxWrite bool
	Err        *ModelError
}

// CASFailure returns the mismatch result carrying the observed value.
func CASFailure(observed Scalar) CASResult {
	return CASResult{Old: observed}
}

// MutexLockResult is the interpreter-facing result of a lock or try-lock
// attempt. Acquired=false with a nil Err means the attempt did not
// succeed and the interpreter should let the scheduler decide when (or
// whether) to retry.
type MutexLockResult struct {
	Acquired bool
	Err      *ModelError
}

// JoinResult is the interpreter-facing result of a thread join.
// Unresolved means the child has not finished yet: the join event was
// withdrawn and the caller must retry after the scheduler runs the child.
type JoinResult struct {
	RetVal     Scalar
	Unresolved bool
	Err        *ModelError
}
