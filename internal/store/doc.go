// Package store persists the four-level archive hierarchy (Patient, Study,
// Series, Instance) in SQLite.
//
// Natural keys (patient name, study/series/SOP instance UIDs) are enforced by
// unique indexes; parent links are foreign keys, and child collections are
// queries over those keys rather than embedded pointers. Multi-level writes
// run inside a single transaction via WithTx so a file's merge is either
// fully visible or not at all.
package store
