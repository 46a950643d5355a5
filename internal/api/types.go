package api

// ImportJob describes one tracked import in a transport-friendly format.
type ImportJob struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	State      string `json:"state"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
	Failures   int    `json:"failures"`
	Skipped    int    `json:"skipped"`
	Processed  int    `json:"processed"`
}

// ImportRequest is the body of an import submission.
type ImportRequest struct {
	Path string `json:"path"`
}

// ImportListResponse wraps the tracked import jobs.
type ImportListResponse struct {
	Jobs []ImportJob `json:"jobs"`
}

// ImportCleanupResponse reports how many completed entries were removed.
type ImportCleanupResponse struct {
	Removed int `json:"removed"`
}

// ArchiveCounts summarizes the hierarchy cardinalities.
type ArchiveCounts struct {
	Patients  int64 `json:"patients"`
	Studies   int64 `json:"studies"`
	Series    int64 `json:"series"`
	Instances int64 `json:"instances"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool          `json:"running"`
	PID          int           `json:"pid"`
	StorePath    string        `json:"storePath"`
	LockFilePath string        `json:"lockFilePath"`
	Counts       ArchiveCounts `json:"counts"`
	Imports      []ImportJob   `json:"imports"`
}

// QueryResponse wraps the matches a level-scoped query resolved to, one
// field-to-value object per match.
type QueryResponse struct {
	Matches []map[string]string `json:"matches"`
}
