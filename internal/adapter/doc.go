// Package adapter bridges a sequential-per-thread interpreter and a
// model-checking engine that explores thread interleavings under a weak
// memory model.
//
// The interpreter runs one logical thread at a time and calls into the
// adapter at every synchronization-relevant instruction: atomic
// load/store/RMW/CAS, fences, allocation, thread lifecycle, mutex
// operations, blocking waits, and a scheduling query between
// instructions. For each call the adapter advances the issuing thread's
// event position, lowers the operation into the engine's graph-label
// vocabulary, submits it, and hands the engine's verdict back.
//
// ARCHITECTURE:
//
// Single caller, no concurrency. All the concurrency being modeled is
// logical: interleavings the engine explores one at a time. The adapter
// is driven synchronously from one goroutine and owns its mutable state
// (position table, initial-value table, annotation table) outright, so
// no locking discipline exists here.
//
// Two causality models meet in this package. The interpreter thinks in
// "one active thread"; the engine thinks in a global partial order over
// all threads' events. The position table is the seam: one
// monotonically-increasing event index per thread, advanced exactly once
// per committed operation and wound back exactly once per abandoned one.
//
// Error tiers. Engine-reported failures (races, consistency violations)
// are recoverable: they come back inside the per-operation result and
// the adapter simply unwinds any speculative position advance. Contract
// violations between adapter, interpreter and engine (zero-size
// allocations, thread-id mismatches, conflicting initial values,
// operations on unregistered threads) are fatal: the adapter panics with
// an *InvariantError, since continuing would silently corrupt the
// execution graph.
package adapter
