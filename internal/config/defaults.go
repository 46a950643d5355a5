package config

const (
	defaultDataDir          = "~/.local/share/mupacs/data"
	defaultLogDir           = "~/.local/share/mupacs/logs"
	defaultAPIBind          = "127.0.0.1:7806"
	defaultImportWorkers    = 4
	defaultImportQueueSize  = 64
	defaultProgressInterval = 100
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Import: Import{
			Workers:          defaultImportWorkers,
			QueueSize:        defaultImportQueueSize,
			ProgressInterval: defaultProgressInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
