package sqlite

import (
	"database/sql"
	"errors"
	"strings"
)

// isNoRows reports whether the error is sql.ErrNoRows.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isUniqueViolation reports whether the error is a SQLite unique constraint
// violation. modernc.org/sqlite does not export typed constraint errors, so
// the check is on the error text (code 2067 / "UNIQUE constraint failed").
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

// isCorrupt reports whether the error indicates an unreadable database file.
func isCorrupt(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "file is not a database") ||
		strings.Contains(msg, "database disk image is malformed")
}
