package testsupport

import (
	"path/filepath"
	"testing"

	"mupacs/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Import.Workers = 2
	cfg.Import.QueueSize = 8
	cfg.Import.ProgressInterval = 10

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithImportWorkers overrides the worker pool size on the test config.
func WithImportWorkers(workers int) ConfigOption {
	return func(c *config.Config) {
		c.Import.Workers = workers
	}
}
