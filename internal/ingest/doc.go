// Package ingest implements the asynchronous, deduplicated folder-import
// pipeline: the registry that tracks one job per canonical path, the workers
// that walk roots and filter archive files, and the merge that idempotently
// folds each file's attributes into the Patient/Study/Series/Instance
// hierarchy.
//
// All per-file failures are recovered locally and counted so one bad file
// never aborts a batch import. Only an invalid root path surfaces to the
// caller of Registry.Add.
package ingest
