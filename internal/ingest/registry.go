package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"mupacs/internal/config"
	"mupacs/internal/logging"
	"mupacs/internal/metadata"
	"mupacs/internal/metrics"
	"mupacs/internal/store"
)

// Registry is the job-tracking front door for imports. It maps each canonical
// root path to at most one job, hands accepted jobs to a bounded worker pool,
// and reports running/completed status.
type Registry struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	worker  *worker

	mu   sync.Mutex
	jobs map[string]*Job

	tasks  chan *Job
	wg     sync.WaitGroup
	jobsWG sync.WaitGroup

	startOnce sync.Once
	cancel    context.CancelFunc
}

// NewRegistry wires the import pipeline: reader and sniffer are the ports the
// workers use per file, st receives the merged hierarchy.
func NewRegistry(cfg *config.Config, st *store.Store, reader metadata.Reader, sniffer metadata.Sniffer, logger *slog.Logger, mets *metrics.Metrics) *Registry {
	componentLogger := logging.NewComponentLogger(logger, "import")
	return &Registry{
		cfg:     cfg,
		logger:  componentLogger,
		metrics: mets,
		worker: &worker{
			sync:             NewSync(st, logger),
			reader:           reader,
			sniffer:          sniffer,
			logger:           componentLogger,
			metrics:          mets,
			progressInterval: cfg.Import.ProgressInterval,
		},
		jobs:  make(map[string]*Job),
		tasks: make(chan *Job, cfg.Import.QueueSize),
	}
}

// Start launches the worker pool. It is safe to call once; jobs accepted
// before Start simply wait in the backlog.
func (r *Registry) Start(ctx context.Context) {
	r.startOnce.Do(func() {
		ctx, r.cancel = context.WithCancel(ctx)
		for i := 0; i < r.cfg.Import.Workers; i++ {
			r.wg.Add(1)
			go func() {
				defer r.wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case job := <-r.tasks:
						r.metrics.JobStarted()
						r.worker.run(ctx, job)
						r.metrics.JobFinished()
						r.jobsWG.Done()
					}
				}
			}()
		}
	})
}

// Stop cancels the pool, waits for in-flight jobs to wind down, and drains
// the backlog. Jobs still queued at shutdown complete without running so
// that Wait returns and status lines do not report them running forever.
func (r *Registry) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()

	for {
		select {
		case job := <-r.tasks:
			r.logger.Warn("import abandoned at shutdown", logging.FieldJobID, job.ID, logging.FieldPath, job.Path)
			job.complete()
			r.jobsWG.Done()
		default:
			return
		}
	}
}

// Add registers an import for path. The check-then-insert is atomic per
// canonical path: a second call for the same root (under any equivalent
// spelling) while an entry exists is an idempotent no-op returning the
// existing job. Submission blocks when the backlog is full.
func (r *Registry) Add(path string) (*Job, error) {
	canonical, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if existing, ok := r.jobs[canonical]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	job := newJob(canonical)
	r.jobs[canonical] = job
	r.jobsWG.Add(1)
	r.mu.Unlock()

	r.metrics.JobAccepted()
	r.logger.Info("import accepted", logging.FieldJobID, job.ID, logging.FieldPath, canonical)

	// Enqueue outside the lock so a full backlog never blocks List or Add
	// for other paths.
	r.tasks <- job
	return job, nil
}

// List returns a snapshot of status lines, one per tracked path, sorted for
// stable output. It never blocks on in-flight jobs.
func (r *Registry) List() []string {
	r.mu.Lock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	statuses := make([]string, 0, len(jobs))
	for _, job := range jobs {
		statuses = append(statuses, job.Status())
	}
	return statuses
}

// Jobs returns a snapshot of the tracked job handles, sorted by path.
func (r *Registry) Jobs() []*Job {
	r.mu.Lock()
	jobs := make([]*Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job)
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].Path < jobs[j].Path })
	return jobs
}

// CleanupCompleted removes finished entries from the table and returns the
// count removed. Safe to call concurrently with Add.
func (r *Registry) CleanupCompleted() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for path, job := range r.jobs {
		if job.Done() {
			delete(r.jobs, path)
			removed++
		}
	}
	return removed
}

// Wait blocks until every accepted job has completed.
func (r *Registry) Wait() {
	r.jobsWG.Wait()
}

// canonicalPath resolves path to its absolute, symlink-free form, the dedup
// key for import jobs.
func canonicalPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	return resolved, nil
}
