package api

import (
	"mupacs/internal/ingest"
)

// ImportService exposes import submission and tracking as API operations.
type ImportService struct {
	registry *ingest.Registry
}

// NewImportService constructs an ImportService around the registry.
func NewImportService(registry *ingest.Registry) *ImportService {
	if registry == nil {
		return nil
	}
	return &ImportService{registry: registry}
}

// Add registers an import for path. Resubmitting a tracked path returns the
// existing job.
func (s *ImportService) Add(path string) (ImportJob, error) {
	job, err := s.registry.Add(path)
	if err != nil {
		return ImportJob{}, err
	}
	return FromJob(job), nil
}

// List returns the tracked jobs, sorted by path.
func (s *ImportService) List() []ImportJob {
	if s == nil || s.registry == nil {
		return nil
	}
	return FromJobs(s.registry.Jobs())
}

// Cleanup removes completed jobs from tracking.
func (s *ImportService) Cleanup() int {
	if s == nil || s.registry == nil {
		return 0
	}
	return s.registry.CleanupCompleted()
}

// FromJob converts a job handle to its DTO snapshot.
func FromJob(job *ingest.Job) ImportJob {
	info := job.Info()
	state := "running"
	if job.Done() {
		state = "done"
	}
	return ImportJob{
		ID:         job.ID,
		Path:       job.Path,
		State:      state,
		Imported:   info.Imported(),
		Duplicates: info.Duplicates,
		Failures:   info.Failures,
		Skipped:    info.Skipped,
		Processed:  info.Processed,
	}
}

// FromJobs converts a slice of job handles.
func FromJobs(jobs []*ingest.Job) []ImportJob {
	if len(jobs) == 0 {
		return nil
	}
	out := make([]ImportJob, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, FromJob(job))
	}
	return out
}
