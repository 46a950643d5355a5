package ingest

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Info accumulates the outcome of one import job.
type Info struct {
	// InstanceUIDs holds the SOP instance UID of every newly archived file.
	InstanceUIDs []string
	// Duplicates counts files whose instance was already archived.
	Duplicates int
	// Failures counts files that could not be imported.
	Failures int
	// Skipped counts regular files that did not pass the archive sniff.
	Skipped int
	// Processed counts archive files handed to the hierarchy merge.
	Processed int
}

// Imported is the number of files that created a new instance.
func (i Info) Imported() int {
	return len(i.InstanceUIDs)
}

// Job is the handle for one accepted import. It is tracked by the registry
// until cleaned up and completes at most once.
type Job struct {
	// ID uniquely identifies the job across its lifetime.
	ID string
	// Path is the canonical import root.
	Path string

	mu   sync.Mutex
	info Info
	done chan struct{}
}

func newJob(path string) *Job {
	return &Job{
		ID:   uuid.NewString(),
		Path: path,
		done: make(chan struct{}),
	}
}

// Done reports whether the job has completed.
func (j *Job) Done() bool {
	select {
	case <-j.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the job completes.
func (j *Job) Wait() {
	<-j.done
}

// Info returns a snapshot of the accumulated outcome.
func (j *Job) Info() Info {
	j.mu.Lock()
	defer j.mu.Unlock()
	snapshot := j.info
	snapshot.InstanceUIDs = append([]string(nil), j.info.InstanceUIDs...)
	return snapshot
}

// Status renders the one-line state callers of listImports see.
func (j *Job) Status() string {
	state := "running"
	if j.Done() {
		state = "done"
	}
	info := j.Info()
	return fmt.Sprintf("[%s] %s: %d imported, %d duplicates, %d failed",
		state, j.Path, info.Imported(), info.Duplicates, info.Failures)
}

func (j *Job) update(fn func(*Info)) {
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.info)
}

func (j *Job) complete() {
	close(j.done)
}
