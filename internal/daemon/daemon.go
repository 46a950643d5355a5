package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"mupacs/internal/api"
	"mupacs/internal/config"
	"mupacs/internal/ingest"
	"mupacs/internal/logging"
	"mupacs/internal/metrics"
	"mupacs/internal/store"
)

// Daemon coordinates the import pipeline and the control API and enforces
// single-instance execution over one archive.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *ingest.Registry

	lockPath string
	lock     *flock.Flock

	server *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	StorePath    string
	LockFilePath string
	Counts       store.Counts
	Imports      []api.ImportJob
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, registry *ingest.Registry, logger *slog.Logger, mets *metrics.Metrics) (*Daemon, error) {
	if cfg == nil || st == nil || registry == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, registry, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "mupacsd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		registry: registry,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	server, err := newAPIServer(cfg, d, logger, mets)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// Start acquires the instance lock, launches the worker pool, and brings the
// control API up.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another archive daemon instance is already running")
	}

	ctx, d.cancel = context.WithCancel(ctx)
	d.registry.Start(ctx)
	if err := d.server.start(ctx); err != nil {
		d.cancel()
		d.registry.Stop()
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("daemon started",
		"lock", d.lockPath,
		"store", d.store.Path())
	return nil
}

// Stop winds down the API server and the worker pool and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.registry.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and releases the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the control API's bound address, empty before Start.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
		Imports:      api.FromJobs(d.registry.Jobs()),
	}
	counts, err := d.store.Counts(ctx)
	if err != nil {
		d.logger.Warn("cannot read archive counts", logging.Error(err))
	} else {
		status.Counts = counts
	}
	return status
}
