package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// IsUniqueViolation reports whether err is a unique constraint violation on
// either supported driver. When constraintName is provided, the error text
// must reference it (index name under sqlite, constraint under postgres).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	matched := false

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		matched = sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		matched = pgErr.Code == "23505"
	}

	if !matched {
		msg := err.Error()
		matched = strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value")
	}

	if matched && constraintName != "" {
		return strings.Contains(err.Error(), constraintName)
	}
	return matched
}

// IsForeignKeyViolation reports whether err is a referential integrity
// failure on either supported driver.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}

	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsLocked reports whether err is a sqlite busy/locked condition worth
// retrying.
func IsLocked(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}

	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked")
}
