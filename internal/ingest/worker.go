package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"mupacs/internal/logging"
	"mupacs/internal/metadata"
	"mupacs/internal/metrics"
	"mupacs/internal/store"
)

// worker executes one import job: walk the root, filter archive files, and
// merge each one independently. Per-file failures are counted, never
// propagated; a walk that dies partway still completes the job with whatever
// was accumulated.
type worker struct {
	sync             *Sync
	reader           metadata.Reader
	sniffer          metadata.Sniffer
	logger           *slog.Logger
	metrics          *metrics.Metrics
	progressInterval int
}

func (w *worker) run(ctx context.Context, job *Job) {
	defer job.complete()

	logger := w.logger.With(logging.FieldJobID, job.ID, logging.FieldPath, job.Path)

	info, err := os.Stat(job.Path)
	if err != nil {
		logger.Error("import root unreadable, completing with empty result", logging.Error(err))
		return
	}

	switch {
	case info.Mode().IsRegular():
		w.importFile(ctx, job, logger, job.Path)
	case info.IsDir():
		w.walk(ctx, job, logger)
	default:
		logger.Error("import root is neither file nor directory, completing with empty result")
		return
	}

	final := job.Info()
	logger.Info("import job finished",
		"imported", final.Imported(),
		"duplicates", final.Duplicates,
		"failures", final.Failures,
		"skipped", final.Skipped)
}

func (w *worker) walk(ctx context.Context, job *Job, logger *slog.Logger) {
	visited := 0
	err := filepath.WalkDir(job.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Abort the walk but keep everything accumulated so far.
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}
		w.importFile(ctx, job, logger, path)
		visited++
		if w.progressInterval > 0 && visited%w.progressInterval == 0 {
			info := job.Info()
			logger.Info("import progress",
				"visited", visited,
				"imported", info.Imported(),
				"duplicates", info.Duplicates,
				"failures", info.Failures)
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("directory walk aborted", logging.Error(err))
	}
}

// importFile merges one candidate file. Outcomes are tallied on the job;
// nothing escapes.
func (w *worker) importFile(ctx context.Context, job *Job, logger *slog.Logger, path string) {
	ok, err := w.sniffer.IsArchiveFile(path)
	if err != nil {
		logger.Warn("cannot sniff candidate file",
			logging.FieldPath, path,
			logging.Error(fmt.Errorf("%w: %v", ErrUnreadableFile, err)))
		job.update(func(i *Info) { i.Failures++ })
		w.metrics.FileOutcome(metrics.OutcomeFailed)
		return
	}
	if !ok {
		job.update(func(i *Info) { i.Skipped++ })
		w.metrics.FileOutcome(metrics.OutcomeSkipped)
		return
	}

	job.update(func(i *Info) { i.Processed++ })

	attrs, err := w.reader.ReadFile(path)
	if err != nil {
		logger.Warn("cannot decode archive file", logging.FieldPath, path, logging.Error(err))
		job.update(func(i *Info) { i.Failures++ })
		w.metrics.FileOutcome(metrics.OutcomeFailed)
		return
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	result, err := w.sync.MergeFile(ctx, attrs, absPath)
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		// Lost the find-or-create race twice; counted, not retried further.
		logger.Warn("merge lost concurrent-create race", logging.FieldPath, path, logging.Error(err))
		job.update(func(i *Info) { i.Failures++ })
		w.metrics.FileOutcome(metrics.OutcomeFailed)
	case err != nil:
		logger.Warn("cannot merge archive file", logging.FieldPath, path, logging.Error(err))
		job.update(func(i *Info) { i.Failures++ })
		w.metrics.FileOutcome(metrics.OutcomeFailed)
	case result.Duplicate:
		job.update(func(i *Info) { i.Duplicates++ })
		w.metrics.FileOutcome(metrics.OutcomeDuplicate)
	default:
		job.update(func(i *Info) { i.InstanceUIDs = append(i.InstanceUIDs, result.SOPInstanceUID) })
		w.metrics.FileOutcome(metrics.OutcomeImported)
	}
}
