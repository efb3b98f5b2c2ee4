// Package dialect provides the database dialect abstraction for eq.
//
// Statement text produced by eq depends on the target dialect in three places:
// the identifier delimiter pair, the upsert conflict clause, and the way a
// store-generated identity is fetched back after an insert.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB database (the default)
//   - Postgres: PostgreSQL database
//   - SQLite: SQLite database
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite"
//
// # Driver Interface
//
// The package defines the Driver interface for statement execution:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface wraps the same ExecQuerier operations with Commit and Rollback.
//
// # Usage
//
//	import (
//	    "github.com/syssam/eq/dialect"
//	    "github.com/syssam/eq/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.MySQL, "user:pass@/db?parseTime=true&multiStatements=true")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, named parameter binding, stats and debug drivers
//   - dialect/sqlschema: SQL annotations for record types
package dialect
