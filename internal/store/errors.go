package store

import (
	"errors"
	"strings"

	sqlite "modernc.org/sqlite"
)

// ErrDuplicateKey indicates an insert collided with an existing natural key.
// During concurrent imports this signals that another worker created the
// entity between a lookup and the insert.
var ErrDuplicateKey = errors.New("duplicate natural key")

// SQLite result codes this layer reacts to.
const (
	sqliteBusy                 = 5
	sqliteLocked               = 6
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

// isBusyError reports whether err is a transient lock contention the caller
// may retry.
func isBusyError(err error) bool {
	if err == nil {
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteBusy, sqliteLocked:
			return true
		}
	}
	return strings.Contains(err.Error(), "database is locked") ||
		strings.Contains(err.Error(), "database table is locked")
}

// classifyError maps driver-level uniqueness violations to ErrDuplicateKey
// and passes everything else through.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqliteConstraintUnique, sqliteConstraintPrimaryKey:
			return errors.Join(ErrDuplicateKey, err)
		}
		return err
	}
	// The driver does not wrap every constraint failure in *sqlite.Error.
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return errors.Join(ErrDuplicateKey, err)
	}
	return err
}
