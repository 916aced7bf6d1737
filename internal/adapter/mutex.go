package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// Mutex state sentinels. A mutex word holds mutexUnlocked when free and
// mutexLocked while held.
const (
	mutexUnlocked uint64 = 0
	mutexLocked   uint64 = 1
)

// annotationFor returns the stable spin-loop annotation id for a mutex
// address, assigning the next id on first use. Ids grow monotonically
// for the whole verification session and are never reused, so the same
// mutex is tagged identically in every explored interleaving.
func (a *Adapter) annotationFor(addr uint64) uint32 {
	if id, ok := a.annotIDs[addr]; ok {
		return id
	}
	id := a.nextAnnotID
	a.nextAnnotID++
	a.annotIDs[addr] = id
	return id
}

// mutexOldValue is the old-value supplier payload for every mutex
// operation: a mutex word starts out unlocked, so the previously-known
// value is always "unlocked".
func (a *Adapter) mutexOldValue() event.OldValueSupplier {
	return a.oldValueSupplier(event.NewScalar(mutexUnlocked))
}

// HandleMutexLock lowers a blocking lock attempt: an annotated
// compare-and-swap-style read at the claimed position, then either the
// locking write (lock was free), or a block label (lock held; the thread
// becomes unschedulable until an unlock lets the scheduler revisit it).
//
// The read is tagged with the address's annotation id and the spin-exit
// condition "observed value != locked", which lets the engine treat the
// retry loop as a busy-wait instead of exploring every futile iteration.
func (a *Adapter) HandleMutexLock(tid event.ThreadID, access event.MemAccess) event.MutexLockResult {
	a.log.Debug("mutex lock", "thread", tid, "addr", access.Addr)

	pos, g := a.pos.advanceGuarded("MutexLock", tid)
	defer g.abort()

	lab := &event.ReadLabel{
		Position: pos,
		Ordering: event.OrderingAcquire,
		Access:   access,
		Kind:     event.ReadLockCAS,
		Expected: event.NewScalar(mutexUnlocked),
		New:      event.NewScalar(mutexLocked),
		Annot: &event.Annotation{
			ID:    a.annotationFor(access.Addr),
			Bits:  uint32(8 * access.Size),
			NotEq: mutexLocked,
		},
	}
	res := a.engine.HandleLoad(lab, a.mutexOldValue())
	if res.Err != nil {
		// The attempt is withdrawn; the guard retreats the position.
		return event.MutexLockResult{Err: res.Err}
	}
	if res.Unresolved {
		// No consistent value right now: the attempt did not happen and
		// the thread will be rescheduled later.
		return event.MutexLockResult{}
	}
	g.commit()

	if res.Value.Value != mutexUnlocked {
		// Lock is held: park the thread behind a block label.
		blockPos := a.pos.advance("MutexLock", tid)
		a.engine.HandleBlock(&event.BlockLabel{
			Position: blockPos,
			Kind:     event.BlockLockNotAcquired,
			Addr:     access.Addr,
		})
		return event.MutexLockResult{}
	}

	wPos := a.pos.advance("MutexLock", tid)
	wLab := &event.WriteLabel{
		Position: wPos,
		Ordering: event.OrderingAcquireRelease,
		Access:   access,
		Kind:     event.StoreLockCAS,
		Value:    event.NewScalar(mutexLocked),
	}
	if storeRes := a.engine.HandleStore(wLab, a.mutexOldValue()); storeRes.Err != nil {
		return event.MutexLockResult{Err: storeRes.Err}
	}
	return event.MutexLockResult{Acquired: true}
}

// HandleMutexTryLock lowers a non-blocking lock attempt: the same
// read/write shape as HandleMutexLock but with the trylock label kinds,
// no spin-loop annotation, and no block label on failure: a held lock
// simply reports not-acquired and the thread stays schedulable.
func (a *Adapter) HandleMutexTryLock(tid event.ThreadID, access event.MemAccess) event.MutexLockResult {
	a.log.Debug("mutex trylock", "thread", tid, "addr", access.Addr)

	pos, g := a.pos.advanceGuarded("MutexTryLock", tid)
	defer g.abort()

	lab := &event.ReadLabel{
		Position: pos,
		Ordering: event.OrderingAcquire,
		Access:   access,
		Kind:     event.ReadTrylockCAS,
		Expected: event.NewScalar(mutexUnlocked),
		New:      event.NewScalar(mutexLocked),
	}
	res := a.engine.HandleLoad(lab, a.mutexOldValue())
	if res.Err != nil {
		return event.MutexLockResult{Err: res.Err}
	}
	if res.Unresolved {
		return event.MutexLockResult{}
	}
	g.commit()

	if res.Value.Value != mutexUnlocked {
		return event.MutexLockResult{}
	}

	wPos := a.pos.advance("MutexTryLock", tid)
	wLab := &event.WriteLabel{
		Position: wPos,
		Ordering: event.OrderingAcquireRelease,
		Access:   access,
		Kind:     event.StoreTrylockCAS,
		Value:    event.NewScalar(mutexLocked),
	}
	if storeRes := a.engine.HandleStore(wLab, a.mutexOldValue()); storeRes.Err != nil {
		return event.MutexLockResult{Err: storeRes.Err}
	}
	return event.MutexLockResult{Acquired: true}
}

// HandleMutexUnlock lowers an unlock: a release-ordered store of the
// unlocked sentinel, tagged with the mutex-unlock label kind so the
// engine can tell releases from plain stores.
func (a *Adapter) HandleMutexUnlock(tid event.ThreadID, access event.MemAccess) event.StoreResult {
	a.log.Debug("mutex unlock", "thread", tid, "addr", access.Addr)

	return a.HandleStore(tid, access, event.OrderingRelease,
		event.NewScalar(mutexUnlocked), event.NewScalar(mutexUnlocked), event.StoreMutexUnlock)
}
