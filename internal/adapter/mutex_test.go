package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/event"
)

var mtx = event.MemAccess{Addr: 0x500, Size: 4}

func TestMutexLock_AcquiresWhenUnlocked(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadValue(event.NewScalar(mutexUnlocked))}

	res := a.HandleMutexLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.True(t, res.Acquired)

	rLab := eng.labels[0].(*event.ReadLabel)
	assert.Equal(t, event.ReadLockCAS, rLab.Kind)
	require.NotNil(t, rLab.Annot, "lock reads carry the spin-loop annotation")
	assert.Equal(t, uint32(32), rLab.Annot.Bits)
	assert.Equal(t, mutexLocked, rLab.Annot.NotEq)

	wLab := eng.labels[1].(*event.WriteLabel)
	assert.Equal(t, event.StoreLockCAS, wLab.Kind)
	assert.Equal(t, mutexLocked, wLab.Value.Value)

	// Read and write each committed one position.
	assert.Equal(t, 2, index(a, event.MainThreadID))
	assert.Empty(t, eng.blockLabels())
}

func TestMutexLock_BlocksWhenHeld(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadValue(event.NewScalar(mutexLocked))}

	res := a.HandleMutexLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.False(t, res.Acquired)

	blocks := eng.blockLabels()
	require.Len(t, blocks, 1, "a held lock parks the thread behind a block label")
	assert.Equal(t, event.BlockLockNotAcquired, blocks[0].Kind)
	assert.Equal(t, mtx.Addr, blocks[0].Addr)

	// Read plus block label: two committed positions.
	assert.Equal(t, 2, index(a, event.MainThreadID))
}

func TestMutexLock_UnresolvedRetreatsPosition(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadUnresolved()}

	res := a.HandleMutexLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.False(t, res.Acquired)
	assert.Equal(t, 0, index(a, event.MainThreadID),
		"an attempt the engine could not resolve did not happen")
	assert.Empty(t, eng.blockLabels())
}

func TestMutexLock_ErrorRetreatsPosition(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{
		event.LoadError(&event.ModelError{Code: event.ErrCodeRace, Message: "lock race"}),
	}

	res := a.HandleMutexLock(event.MainThreadID, mtx)

	require.NotNil(t, res.Err)
	assert.False(t, res.Acquired)
	assert.Equal(t, 0, index(a, event.MainThreadID))
}

func TestMutexLock_AnnotationIDStablePerAddress(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{
		event.LoadValue(event.NewScalar(mutexUnlocked)),
		event.LoadValue(event.NewScalar(mutexUnlocked)),
		event.LoadValue(event.NewScalar(mutexUnlocked)),
	}
	other := event.MemAccess{Addr: 0x600, Size: 4}

	a.HandleMutexLock(event.MainThreadID, mtx)
	a.HandleMutexLock(event.MainThreadID, other)
	a.HandleMutexLock(event.MainThreadID, mtx)

	var ids []uint32
	for _, l := range eng.labels {
		if r, ok := l.(*event.ReadLabel); ok {
			ids = append(ids, r.Annot.ID)
		}
	}
	require.Len(t, ids, 3)
	assert.Equal(t, ids[0], ids[2], "same address, same annotation id")
	assert.NotEqual(t, ids[0], ids[1], "distinct addresses get distinct ids")
}

func TestMutexTryLock_FailureNeverBlocks(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadValue(event.NewScalar(mutexLocked))}

	res := a.HandleMutexTryLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.False(t, res.Acquired)
	assert.Empty(t, eng.blockLabels(), "try-lock failure leaves the thread schedulable")

	rLab := eng.labels[0].(*event.ReadLabel)
	assert.Equal(t, event.ReadTrylockCAS, rLab.Kind)
	assert.Nil(t, rLab.Annot, "try-lock reads are not spin-loop annotated")
}

func TestMutexTryLock_AcquiresWhenUnlocked(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadValue(event.NewScalar(mutexUnlocked))}

	res := a.HandleMutexTryLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.True(t, res.Acquired)
	wLab := eng.labels[1].(*event.WriteLabel)
	assert.Equal(t, event.StoreTrylockCAS, wLab.Kind)
}

func TestMutexTryLock_UnresolvedRetreatsPosition(t *testing.T) {
	a, eng := newTestAdapter(t)
	eng.loadResults = []event.LoadResult{event.LoadUnresolved()}

	res := a.HandleMutexTryLock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	assert.False(t, res.Acquired)
	assert.Equal(t, 0, index(a, event.MainThreadID))
}

func TestMutexUnlock_ReleaseStoreOfUnlockedSentinel(t *testing.T) {
	a, eng := newTestAdapter(t)

	res := a.HandleMutexUnlock(event.MainThreadID, mtx)

	require.Nil(t, res.Err)
	lab := eng.lastLabel().(*event.WriteLabel)
	assert.Equal(t, event.StoreMutexUnlock, lab.Kind)
	assert.Equal(t, event.OrderingRelease, lab.Ordering)
	assert.Equal(t, mutexUnlocked, lab.Value.Value)
}
