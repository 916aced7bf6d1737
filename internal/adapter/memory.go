package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// HandleLoad lowers a load into a read label and resolves it against the
// engine. oldVal is the interpreter's eagerly supplied "value currently
// at the address"; it reaches the engine lazily, through the old-value
// supplier, only if the engine consults it during resolution.
//
// The claimed position is kept even on an error or unresolved outcome:
// the read event itself stays in the graph and the driver decides how to
// proceed.
func (a *Adapter) HandleLoad(tid event.ThreadID, access event.MemAccess, ord event.MemOrdering, oldVal event.Scalar) event.LoadResult {
	a.log.Debug("load", "thread", tid, "addr", access.Addr, "size", access.Size, "ordering", ord)

	pos := a.pos.advance("Load", tid)
	lab := &event.ReadLabel{
		Position: pos,
		Ordering: ord,
		Access:   access,
		Kind:     event.ReadPlain,
	}
	return a.engine.HandleLoad(lab, a.oldValueSupplier(oldVal))
}

// HandleStore lowers a store into a write label of the given kind. The
// kind matters: the write half of an RMW, a CAS and a mutex unlock each
// construct a structurally different label with different consistency
// obligations in the engine.
func (a *Adapter) HandleStore(tid event.ThreadID, access event.MemAccess, ord event.MemOrdering, val, oldVal event.Scalar, kind event.StoreKind) event.StoreResult {
	a.log.Debug("store", "thread", tid, "addr", access.Addr, "size", access.Size, "ordering", ord, "kind", kind)

	pos := a.pos.advance("Store", tid)
	lab := &event.WriteLabel{
		Position: pos,
		Ordering: ord,
		Access:   access,
		Kind:     kind,
		Value:    val,
	}
	return a.engine.HandleStore(lab, a.oldValueSupplier(oldVal))
}

// HandleReadModifyWrite lowers an atomic RMW as a read carrying the
// operator and right-hand operand, followed (only if the read succeeds)
// by a store of `old OP rhs` computed at the operation's width
// (overflow wraps modulo 2^(8·size)). A failed read fails the whole
// operation with no store issued.
func (a *Adapter) HandleReadModifyWrite(tid event.ThreadID, access event.MemAccess, loadOrd, storeOrd event.MemOrdering, op event.RMWOp, rhs, oldVal event.Scalar) event.RMWResult {
	a.log.Debug("rmw", "thread", tid, "addr", access.Addr, "size", access.Size, "op", op,
		"load_ordering", loadOrd, "store_ordering", storeOrd)

	pos := a.pos.advance("ReadModifyWrite", tid)
	lab := &event.ReadLabel{
		Position: pos,
		Ordering: loadOrd,
		Access:   access,
		Kind:     event.ReadRMW,
		Operator: op,
		Rhs:      rhs,
	}
	res := a.engine.HandleLoad(lab, a.oldValueSupplier(oldVal))
	if res.Err != nil {
		return event.RMWResult{Err: res.Err}
	}
	if res.Unresolved {
		return event.RMWResult{Err: &event.ModelError{
			Code:    event.ErrCodeConsistency,
			Message: "no consistent value for read-modify-write",
		}}
	}

	old := res.Value
	newVal := event.ExecuteRMWOp(old, rhs, access.Size, op)

	storeRes := a.HandleStore(tid, access, storeOrd, newVal, oldVal, event.StoreRMW)
	if storeRes.Err != nil {
		return event.RMWResult{Err: storeRes.Err}
	}
	return event.RMWResult{Old: old, New: newVal, CoMaxWrite: storeRes.CoMaxWrite}
}

// HandleCompareExchange lowers a compare-exchange as a CAS read; on a
// value mismatch the operation fails carrying the observed value and no
// store is issued. On a match it proceeds like the RMW store phase with
// the new value. The weak (spuriously failing) variant is the caller's
// concern; the adapter models the failure-insensitive path.
func (a *Adapter) HandleCompareExchange(tid event.ThreadID, access event.MemAccess, successLoadOrd, successStoreOrd, failLoadOrd event.MemOrdering, expected, newVal, oldVal event.Scalar, canFailSpuriously bool) event.CASResult {
	a.log.Debug("compare-exchange", "thread", tid, "addr", access.Addr, "size", access.Size,
		"expected", expected, "new", newVal, "weak", canFailSpuriously,
		"success_load_ordering", successLoadOrd, "success_store_ordering", successStoreOrd,
		"fail_load_ordering", failLoadOrd)

	pos := a.pos.advance("CompareExchange", tid)
	lab := &event.ReadLabel{
		Position: pos,
		Ordering: successLoadOrd,
		Access:   access,
		Kind:     event.ReadCAS,
		Expected: expected,
		New:      newVal,
	}
	res := a.engine.HandleLoad(lab, a.oldValueSupplier(oldVal))
	if res.Err != nil {
		return event.CASResult{Err: res.Err}
	}
	if res.Unresolved {
		return event.CASResult{Err: &event.ModelError{
			Code:    event.ErrCodeConsistency,
			Message: "no consistent value for compare-exchange",
		}}
	}

	observed := res.Value
	if !observed.Equal(expected) {
		return event.CASFailure(observed)
	}

	storeRes := a.HandleStore(tid, access, successStoreOrd, newVal, oldVal, event.StoreCAS)
	if storeRes.Err != nil {
		return event.CASResult{Err: storeRes.Err}
	}
	return event.CASResult{Old: observed, Success: true, CoMaxWrite: storeRes.CoMaxWrite}
}

// HandleFence lowers a fence.
func (a *Adapter) HandleFence(tid event.ThreadID, ord event.MemOrdering) {
	a.log.Debug("fence", "thread", tid, "ordering", ord)

	pos := a.pos.advance("Fence", tid)
	a.engine.HandleFence(&event.FenceLabel{Position: pos, Ordering: ord})
}

// HandleMalloc records an allocation and returns the engine-chosen
// address. A zero size is a caller contract violation; a zero address
// from the engine breaks the engine's own non-null guarantee. Both are
// fatal.
func (a *Adapter) HandleMalloc(tid event.ThreadID, size, alignment uint64) uint64 {
	if size == 0 {
		invariantf("Malloc", "zero-size allocation requested by thread %d", tid)
	}

	pos := a.pos.advance("Malloc", tid)
	a.log.Debug("malloc", "thread", tid, "size", size, "alignment", alignment, "pos", pos)

	lab := &event.MallocLabel{
		Position:  pos,
		Size:      size,
		Alignment: alignment,
		Duration:  event.StorageHeap,
		Kind:      event.StorageDurable,
		Space:     event.AddressSpaceUser,
	}
	addr := a.engine.HandleMalloc(lab)
	if addr == 0 {
		invariantf("Malloc", "engine returned null address for %d-byte allocation", size)
	}
	return addr
}

// HandleFree records a deallocation. Zero size or a null address are
// caller contract violations, not engine-level errors.
func (a *Adapter) HandleFree(tid event.ThreadID, addr, size uint64) {
	if size == 0 {
		invariantf("Free", "zero-size free requested by thread %d", tid)
	}
	if addr == 0 {
		invariantf("Free", "free of null address requested by thread %d", tid)
	}

	pos := a.pos.advance("Free", tid)
	a.log.Debug("free", "thread", tid, "addr", addr, "size", size, "pos", pos)

	a.engine.HandleFree(&event.FreeLabel{Position: pos, Addr: addr, Size: size})
}
