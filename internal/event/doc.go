// Package event defines the vocabulary shared by the adapter and the
// model-checking engine: thread-local event positions, per-thread action
// records, memory orderings, scalar values, graph labels, and the typed
// result records each operation hands back to the interpreter.
//
// Everything in this package is plain data. Labels are built by the
// adapter, submitted to the engine, and owned by the engine from that
// point on; the adapter never retains a label after submission.
//
// The one piece of behavior that lives here is RMW arithmetic
// (ExecuteRMWOp): it is part of the vocabulary because both the adapter
// and any engine implementation must agree on it bit for bit.
package event
