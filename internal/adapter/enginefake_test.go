package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// fakeEngine is a scriptable Engine for adapter tests. Each Handle call
// records the submitted label; load/store outcomes, the co-max label,
// malloc addresses and scheduling answers are set by the test.
type fakeEngine struct {
	getter event.InitValGetter

	labels []event.Label

	// loadResults are consumed front-to-back by HandleLoad; when the
	// queue is empty a zero-value read is returned.
	loadResults []event.LoadResult

	// storeResults are consumed the same way; empty means success.
	storeResults []event.StoreResult

	// coMax is returned from CoMax; nil means the initializing event.
	coMax event.Label

	// callSupplierWith, when non-nil, makes every load/store invoke the
	// old-value supplier with these addresses.
	callSupplierWith []uint64

	mallocAddr uint64

	// createAssign overrides the child id returned from
	// HandleThreadCreate; nil means "echo the label's child id".
	createAssign *event.ThreadID

	joinResult event.LoadResult

	scheduleAnswer event.ThreadID
	scheduleOK     bool
	lastActions    []event.Action

	started  int
	ended    int
	endceErr *event.ModelError
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{mallocAddr: 0x1000, scheduleOK: true}
}

func (f *fakeEngine) SetInitValGetter(g event.InitValGetter) { f.getter = g }

func (f *fakeEngine) HandleExecutionStart() { f.started++ }

func (f *fakeEngine) HandleExecutionEnd(actions []event.Action) *event.ModelError {
	f.ended++
	f.lastActions = actions
	return f.endceErr
}

func (f *fakeEngine) runSupplier(supply event.OldValueSupplier) {
	for _, addr := range f.callSupplierWith {
		supply(addr)
	}
}

func (f *fakeEngine) HandleLoad(lab *event.ReadLabel, supply event.OldValueSupplier) event.LoadResult {
	f.labels = append(f.labels, lab)
	f.runSupplier(supply)
	if len(f.loadResults) == 0 {
		return event.LoadValue(event.NewScalar(0))
	}
	res := f.loadResults[0]
	f.loadResults = f.loadResults[1:]
	return res
}

func (f *fakeEngine) HandleStore(lab *event.WriteLabel, supply event.OldValueSupplier) event.StoreResult {
	f.labels = append(f.labels, lab)
	f.runSupplier(supply)
	if len(f.storeResults) == 0 {
		return event.StoreResult{CoMaxWrite: true}
	}
	res := f.storeResults[0]
	f.storeResults = f.storeResults[1:]
	return res
}

func (f *fakeEngine) HandleFence(lab *event.FenceLabel) {
	f.labels = append(f.labels, lab)
}

func (f *fakeEngine) HandleMalloc(lab *event.MallocLabel) uint64 {
	f.labels = append(f.labels, lab)
	return f.mallocAddr
}

func (f *fakeEngine) HandleFree(lab *event.FreeLabel) {
	f.labels = append(f.labels, lab)
}

func (f *fakeEngine) HandleThreadCreate(lab *event.ThreadCreateLabel) event.ThreadID {
	f.labels = append(f.labels, lab)
	if f.createAssign != nil {
		return *f.createAssign
	}
	return lab.Child
}

func (f *fakeEngine) HandleThreadJoin(lab *event.ThreadJoinLabel) event.LoadResult {
	f.labels = append(f.labels, lab)
	return f.joinResult
}

func (f *fakeEngine) HandleThreadFinish(lab *event.ThreadFinishLabel) {
	f.labels = append(f.labels, lab)
}

func (f *fakeEngine) HandleBlock(lab *event.BlockLabel) {
	f.labels = append(f.labels, lab)
}

func (f *fakeEngine) ScheduleNext(actions []event.Action) (event.ThreadID, bool) {
	f.lastActions = actions
	return f.scheduleAnswer, f.scheduleOK
}

func (f *fakeEngine) CoMax(addr uint64) event.Label {
	if f.coMax == nil {
		return event.InitLabel{}
	}
	return f.coMax
}

// lastLabel returns the most recently submitted label.
func (f *fakeEngine) lastLabel() event.Label {
	if len(f.labels) == 0 {
		return nil
	}
	return f.labels[len(f.labels)-1]
}

// blockLabels returns every submitted block label.
func (f *fakeEngine) blockLabels() []*event.BlockLabel {
	var out []*event.BlockLabel
	for _, l := range f.labels {
		if b, ok := l.(*event.BlockLabel); ok {
			out = append(out, b)
		}
	}
	return out
}
