// Package engine provides the reference model-checking engine the
// adapter drives: an in-memory execution graph with per-address
// coherence order, a thread eligibility table, and pluggable scheduling
// policies.
//
// This engine resolves every load against the coherence-order-maximal
// write (sequentially consistent semantics) and explores interleavings
// by rerunning the program under different schedules, counting complete
// and blocked executions as it goes. It deliberately implements no
// weak-memory consistency axioms and no race verdicts; those belong to
// a full model checker. What it does implement is the complete engine
// contract the adapter relies on (label recording, value resolution
// through the old-value supplier and the registered initial-value
// getter, blocking and unblocking, and scheduling), which makes the
// whole adapter stack runnable and testable end to end.
//
// Determinism: all mutations happen on the single driving goroutine, in
// call order. Given the same program, policy and seed, every run
// produces the identical schedule and the identical graph.
package engine
