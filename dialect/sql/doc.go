// Package sql executes compiled statements over database/sql.
//
// It provides a dialect.Driver implementation on top of *sql.DB, wrappers
// collecting statistics (StatsDriver) or logging statements (DebugDriver),
// named parameter binding and constraint error detection.
//
// # Drivers
//
//	drv, err := sql.Open("sqlite", "file:app.db?_pragma=foreign_keys(1)")
//	if err != nil {
//		return err
//	}
//	defer drv.Close()
//
// NewStatsDriver counts statements by kind and reports slow ones;
// NewDebugDriver logs each statement to a slog.Logger at debug level. Both
// wrap a Driver and can be passed wherever a dialect.ExecQuerier is taken.
//
// # Binding
//
// Compiled statements carry @Name placeholders. Bind rewrites them into the
// positional form of the dialect and collects the arguments from a struct or
// a map:
//
//	query, args, err := sql.Bind(dialect.Postgres,
//		`UPDATE "Users" SET "Name"=@Name WHERE "Id"=@Id`,
//		sql.Params{"Name": "a8m", "Id": 1},
//	)
//	// UPDATE "Users" SET "Name"=$1 WHERE "Id"=$2 [a8m 1]
//
// # Errors
//
// IsConstraintError reports constraint violations raised by the MySQL,
// PostgreSQL and SQLite drivers.
package sql
