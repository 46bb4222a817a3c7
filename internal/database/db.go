package database

import (
	"database/sql"
	"errors"
	"regexp"

	"github.com/contextfort/postwatch/internal/models"
	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// MapStorageError converts driver-specific failures into sentinel errors
func MapStorageError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return models.ErrConflict
		case "23502": // not_null_violation
			return models.ErrBadRequest
		}
	}

	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return models.ErrConflict
		case sqlite3lib.SQLITE_CONSTRAINT_NOTNULL:
			return models.ErrBadRequest
		}
	}

	return err
}

var placeholderPattern = regexp.MustCompile(`\$\d+`)

// Rebind rewrites $N placeholders to ? for the sqlite driver. Queries must use
// arguments in positional order without reuse.
func (db *DB) Rebind(query string) string {
	if db.driver == driverPostgres {
		return query
	}
	return placeholderPattern.ReplaceAllString(query, "?")
}
