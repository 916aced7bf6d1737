package engine

import (
	"fmt"
	"strings"

	"github.com/weftlabs/weft/internal/event"
)

// graph is the execution graph of one candidate interleaving: every
// submitted label in per-thread order, plus the coherence order over
// writes per address. Rebuilt from scratch at every execution start.
type graph struct {
	// threads holds each thread's labels in position order. Index 0 of
	// each inner slice is the thread's first real event (position 1).
	threads [][]event.Label

	// writes holds the coherence order per address: writes in the order
	// they were committed. The last element is coherence-order-maximal.
	writes map[uint64][]*event.WriteLabel
}

func newGraph() *graph {
	return &graph{
		threads: make([][]event.Label, 1, 8),
		writes:  make(map[uint64][]*event.WriteLabel),
	}
}

// add records a label under its issuing thread.
func (g *graph) add(lab event.Label) {
	tid := int(lab.Pos().Thread)
	for tid >= len(g.threads) {
		g.threads = append(g.threads, nil)
	}
	g.threads[tid] = append(g.threads[tid], lab)
}

// addWrite records a write label and makes it coherence-order-maximal
// for its address.
func (g *graph) addWrite(lab *event.WriteLabel) {
	g.add(lab)
	g.writes[lab.Access.Addr] = append(g.writes[lab.Access.Addr], lab)
}

// coMax returns the coherence-order-maximal label for addr: the latest
// write, or the initializing event when no write has happened.
func (g *graph) coMax(addr uint64) event.Label {
	ws := g.writes[addr]
	if len(ws) == 0 {
		return event.InitLabel{}
	}
	return ws[len(ws)-1]
}

// String renders the graph one thread per block, in position order.
// Used by the --print-graphs surface.
func (g *graph) String() string {
	var b strings.Builder
	for tid, labs := range g.threads {
		fmt.Fprintf(&b, "thread %d:\n", tid)
		for _, lab := range labs {
			fmt.Fprintf(&b, "  %s %s\n", lab.Pos(), describe(lab))
		}
	}
	return b.String()
}

func describe(lab event.Label) string {
	switch l := lab.(type) {
	case *event.ReadLabel:
		return fmt.Sprintf("%s %s %s", l.Kind, l.Ordering, l.Access)
	case *event.WriteLabel:
		return fmt.Sprintf("%s %s %s <- %s", l.Kind, l.Ordering, l.Access, l.Value)
	case *event.FenceLabel:
		return fmt.Sprintf("Fence %s", l.Ordering)
	case *event.MallocLabel:
		return fmt.Sprintf("Malloc size=%d align=%d", l.Size, l.Alignment)
	case *event.FreeLabel:
		return fmt.Sprintf("Free addr=%#x size=%d", l.Addr, l.Size)
	case *event.ThreadCreateLabel:
		return fmt.Sprintf("ThreadCreate child=%d", l.Child)
	case *event.ThreadJoinLabel:
		return fmt.Sprintf("ThreadJoin child=%d", l.Child)
	case *event.ThreadFinishLabel:
		return fmt.Sprintf("ThreadFinish ret=%s", l.RetVal)
	case *event.BlockLabel:
		return l.Kind.String()
	case event.InitLabel:
		return "Init"
	default:
		return fmt.Sprintf("%T", lab)
	}
}
