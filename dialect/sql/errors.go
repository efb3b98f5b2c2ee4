package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes for constraint violations (Class 23).
const (
	pgIntegrityClass      = "23"
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MySQL error numbers for constraint violations.
const (
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451 // Cannot delete or update a parent row
	mysqlForeignKeyChild  = 1452 // Cannot add or update a child row
	mysqlForeignKeyOld    = 1216
	mysqlForeignKeyOldRef = 1217
	mysqlCheckViolation   = 3819
)

// IsConstraintError reports if the error resulted from a database
// constraint violation: a duplicate key, a missing parent row or a failed
// check.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var (
		me *mysql.MySQLError
		pe *pq.Error
		se *sqlite.Error
	)
	switch {
	case errors.As(err, &me):
		switch me.Number {
		case mysqlDuplicateEntry, mysqlForeignKeyParent, mysqlForeignKeyChild,
			mysqlForeignKeyOld, mysqlForeignKeyOldRef, mysqlCheckViolation:
			return true
		}
		return false
	case errors.As(err, &pe):
		return strings.HasPrefix(string(pe.Code), pgIntegrityClass)
	case errors.As(err, &se):
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	// Fallback to string matching for drivers not linked above.
	return containsAny(err.Error(),
		"Error 1062", "Error 1451", "Error 1452",
		"violates unique constraint", "violates foreign key constraint",
		"UNIQUE constraint failed", "FOREIGN KEY constraint failed", "CHECK constraint failed",
	)
}

// IsUniqueConstraintError reports if the error resulted from a duplicate
// value in a unique index or primary key.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var (
		me *mysql.MySQLError
		pe *pq.Error
		se *sqlite.Error
	)
	switch {
	case errors.As(err, &me):
		return me.Number == mysqlDuplicateEntry
	case errors.As(err, &pe):
		return string(pe.Code) == pgUniqueViolation
	case errors.As(err, &se):
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return containsAny(err.Error(), "Error 1062", "violates unique constraint", "UNIQUE constraint failed")
}

// IsForeignKeyConstraintError reports if the error resulted from a missing
// or still referenced parent row.
func IsForeignKeyConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var (
		me *mysql.MySQLError
		pe *pq.Error
		se *sqlite.Error
	)
	switch {
	case errors.As(err, &me):
		switch me.Number {
		case mysqlForeignKeyParent, mysqlForeignKeyChild, mysqlForeignKeyOld, mysqlForeignKeyOldRef:
			return true
		}
		return false
	case errors.As(err, &pe):
		return string(pe.Code) == pgForeignKeyViolation
	case errors.As(err, &se):
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
	}
	return containsAny(err.Error(), "Error 1451", "Error 1452", "violates foreign key constraint", "FOREIGN KEY constraint failed")
}

// containsAny returns true if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
