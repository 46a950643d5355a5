package ingest

import "errors"

var (
	// ErrInvalidPath indicates an import root that cannot be canonicalized
	// or does not exist. It is the only ingest error surfaced to callers
	// of Registry.Add.
	ErrInvalidPath = errors.New("invalid import path")

	// ErrMissingRequiredField indicates a decoded file lacks one of the
	// identifiers the hierarchy requires.
	ErrMissingRequiredField = errors.New("missing required field")

	// ErrUnreadableFile indicates an I/O failure reading or sniffing a
	// candidate file.
	ErrUnreadableFile = errors.New("unreadable file")
)
