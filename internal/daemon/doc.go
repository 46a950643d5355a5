// Package daemon hosts the long-running archive process: it enforces
// single-instance execution with a lock file, runs the import worker pool,
// and serves the HTTP control API the CLI talks to.
package daemon
