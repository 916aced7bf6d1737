// Package litmus runs small concurrent programs, called scenarios,
// through the adapter and the exploration engine and collects the final
// values of their shared variables across many executions.
//
// Scenarios are declared in CUE files. Each scenario names its shared
// variables with their initial values and gives every thread a straight
// line program of memory operations. The runner drives the whole program
// through the adapter exactly as an interpreter front end would: one
// scheduling query per step, one handler call per operation.
package litmus
