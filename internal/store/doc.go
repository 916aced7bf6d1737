// Package store archives exploration runs in SQLite.
//
// Each exploration of a scenario is recorded as a run row plus one row
// per distinct outcome, so past results can be compared across policy
// and seed changes without re-running the exploration.
package store
