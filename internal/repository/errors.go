// Package repository holds the SQL data access layer. Repositories wrap a
// *sql.DB; methods with a Tx suffix run inside a caller-owned transaction
// and never commit it. The SQL is kept to the subset understood by both
// MySQL and SQLite.
//
// Sentinel errors let services tell apart missing rows, uniqueness
// collisions and unexpected failures.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrMovieNotFound     = errors.New("movie not found")
	ErrCinemaNotFound    = errors.New("cinema not found")
	ErrHallNotFound      = errors.New("hall not found")
	ErrScreeningNotFound = errors.New("screening not found")
	ErrSessionInvalid    = errors.New("session invalid")
)

// ErrDuplicate is returned when an insert hits a unique or primary key
// constraint. Callers translate it into their own conflict error.
var ErrDuplicate = errors.New("duplicate key")

// isDuplicate recognises unique violations from both supported drivers.
func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Error 1062")
}
