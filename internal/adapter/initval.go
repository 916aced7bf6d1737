package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// Diagnostic placeholder values returned by the initial-value getter.
// They never represent program data; their only job is to be
// recognizable in a trace when something asked for an initial value the
// adapter does not have.
const (
	// placeholderNoRecord is returned for addresses whose initial value
	// was never recorded.
	placeholderNoRecord uint64 = 0xCC00CC00

	// placeholderUninit is returned for addresses whose recorded
	// candidate was uninitialized memory.
	placeholderUninit uint64 = 0xFF00FF00
)

// oldValueSupplier builds the per-call callback handed to the engine
// alongside a label. The engine invokes it, synchronously during its own
// resolution of that label, with the address whose previously-known
// value it is consulting; candidate is the value the interpreter knew at
// the time of the call.
func (a *Adapter) oldValueSupplier(candidate event.Scalar) event.OldValueSupplier {
	return func(addr uint64) {
		a.supplyOldValue(addr, candidate)
	}
}

// supplyOldValue reconciles the interpreter's eagerly supplied "old
// value" with the engine's lazily-determined coherence state for addr.
// What happens depends on the coherence-order-maximal event the engine
// has recorded for the address:
//
//   - A non-atomic write that is still coherence-maximal is still
//     mutable: its stored value is overwritten in place with candidate.
//   - An atomic write is not retroactively rewritable: no action.
//   - The initializing event: candidate becomes the address's recorded
//     initial value. Initial values are write-once; recording a second,
//     different value for the same address is fatal.
//   - An uninitialized candidate is never recorded anywhere.
func (a *Adapter) supplyOldValue(addr uint64, candidate event.Scalar) {
	coMax := a.engine.CoMax(addr)
	a.log.Debug("supply old value", "addr", addr, "candidate", candidate)

	switch lab := coMax.(type) {
	case *event.WriteLabel:
		if !candidate.Init {
			a.log.Warn("old value for coherence-maximal write is uninitialized, ignoring",
				"addr", addr, "pos", lab.Pos())
			return
		}
		if !lab.IsAtomic() {
			lab.SetValue(candidate)
		}

	case event.InitLabel:
		if !candidate.Init {
			a.log.Warn("old value for unwritten address is uninitialized, not recording",
				"addr", addr)
			return
		}
		prev, ok := a.initVals[addr]
		if ok {
			if !prev.Equal(candidate) {
				invariantf("supplyOldValue",
					"conflicting initial values for address %#x: recorded %s, got %s",
					addr, prev, candidate)
			}
			return
		}
		a.initVals[addr] = candidate

	default:
		invariantf("supplyOldValue",
			"coherence-maximal label for address %#x is neither a write nor the initializing event", addr)
	}
}

// initValSource is the capability object registered with the engine at
// setup. Holding the callback as a value with an explicit owner (rather
// than a bare captured closure) keeps its lifetime visibly tied to the
// adapter instance.
type initValSource struct {
	adapter *Adapter
}

var _ event.InitValGetter = (*initValSource)(nil)

// InitVal looks up the recorded initial value for addr. Absence is
// tolerated, since exploration can legitimately ask before the value is
// known, so the getter degrades to diagnostic placeholders instead of
// failing.
func (s *initValSource) InitVal(addr uint64) event.Scalar {
	a := s.adapter
	rec, ok := a.initVals[addr]
	if !ok {
		a.log.Warn("initial value requested but never recorded", "addr", addr)
		return event.NewScalar(placeholderNoRecord)
	}
	if !rec.Init {
		a.log.Warn("initial value requested but memory is uninitialized", "addr", addr)
		return event.NewScalar(placeholderUninit)
	}
	a.log.Debug("initial value requested", "addr", addr, "value", rec)
	return rec
}
