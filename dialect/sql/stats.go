package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/syssam/eq/dialect"
)

// QueryStats counts the statements run through a StatsDriver.
type QueryStats struct {
	queries, execs atomic.Int64
	duration       atomic.Int64 // nanoseconds
	slow           atomic.Int64
	errors         atomic.Int64
	constraints    atomic.Int64
	// statements by leading keyword; upserts count as inserts.
	selects, inserts, updates, deletes atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		Queries:     s.queries.Load(),
		Execs:       s.execs.Load(),
		Duration:    time.Duration(s.duration.Load()),
		Slow:        s.slow.Load(),
		Errors:      s.errors.Load(),
		Constraints: s.constraints.Load(),
		Selects:     s.selects.Load(),
		Inserts:     s.inserts.Load(),
		Updates:     s.updates.Load(),
		Deletes:     s.deletes.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	for _, c := range []*atomic.Int64{
		&s.queries, &s.execs, &s.duration, &s.slow, &s.errors, &s.constraints,
		&s.selects, &s.inserts, &s.updates, &s.deletes,
	} {
		c.Store(0)
	}
}

// count records the statement kind of query. A MySQL identity insert
// ("INSERT ...;SELECT LAST_INSERT_ID()") counts as one insert.
func (s *QueryStats) count(query string) {
	query = strings.TrimLeft(query, " \t\r\n(")
	if len(query) < 6 {
		return
	}
	switch strings.ToUpper(query[:6]) {
	case "SELECT":
		s.selects.Add(1)
	case "INSERT":
		s.inserts.Add(1)
	case "UPDATE":
		s.updates.Add(1)
	case "DELETE":
		s.deletes.Add(1)
	}
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	Queries     int64
	Execs       int64
	Duration    time.Duration
	Slow        int64
	Errors      int64
	Constraints int64
	Selects     int64
	Inserts     int64
	Updates     int64
	Deletes     int64
}

// String returns a one-line summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s slow=%d errors=%d constraints=%d select=%d insert=%d update=%d delete=%d",
		s.Queries, s.Execs, s.Duration, s.Slow, s.Errors, s.Constraints,
		s.Selects, s.Inserts, s.Updates, s.Deletes,
	)
}

// SlowQueryHook is called for statements slower than the threshold.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver with statement statistics.
type StatsDriver struct {
	*Driver
	stats     *QueryStats
	threshold time.Duration
	hook      SlowQueryHook
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the duration above which a statement is slow.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.threshold = d
	}
}

// WithSlowQueryHook sets the callback for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.hook = hook
	}
}

// WithSlowQueryLogger logs slow statements to l at warn level.
func WithSlowQueryLogger(l *slog.Logger) StatsOption {
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		l.WarnContext(ctx, "slow statement", "duration", duration, "query", query, "args", args)
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv := sql.NewStatsDriver(base, sql.WithSlowQueryLogger(logger))
//	users, err := eq.SelectAll[User](ctx, cfg, drv)
//	fmt.Println(drv.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:    drv,
		stats:     &QueryStats{},
		threshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the statistics of the driver.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// Query runs a query and records it.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec runs a statement and records it.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	elapsed := time.Since(start)
	if isQuery {
		d.stats.queries.Add(1)
	} else {
		d.stats.execs.Add(1)
	}
	d.stats.duration.Add(int64(elapsed))
	d.stats.count(query)
	if err != nil {
		d.stats.errors.Add(1)
		if IsConstraintError(err) {
			d.stats.constraints.Add(1)
		}
	}
	if elapsed > d.threshold {
		d.stats.slow.Add(1)
		if d.hook != nil {
			argv, _ := args.([]any)
			d.hook(ctx, query, argv, elapsed)
		}
	}
}

// Tx starts a transaction that records into the same statistics.
func (d *StatsDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsTx{Tx: tx, driver: d}, nil
}

// StatsTx wraps a transaction with statistics collection.
type StatsTx struct {
	dialect.Tx
	driver *StatsDriver
}

// Query runs a query within the transaction and records it.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec runs a statement within the transaction and records it.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// DebugDriver logs every statement at debug level before running it.
type DebugDriver struct {
	*Driver
	log *slog.Logger
}

// NewDebugDriver wraps a Driver with statement logging. A nil logger
// selects slog.Default().
func NewDebugDriver(drv *Driver, l *slog.Logger) *DebugDriver {
	if l == nil {
		l = slog.Default()
	}
	return &DebugDriver{Driver: drv, log: l.With("dialect", drv.Dialect())}
}

// Query logs and runs a query.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "query", "sql", query, "args", args)
	return d.Driver.Query(ctx, query, args, v)
}

// Exec logs and runs a statement.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log.DebugContext(ctx, "exec", "sql", query, "args", args)
	return d.Driver.Exec(ctx, query, args, v)
}

// Tx starts a transaction whose statements are logged too.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	d.log.DebugContext(ctx, "begin")
	return &DebugTx{Tx: tx, log: d.log.With("tx", true)}, nil
}

// DebugTx wraps a transaction with statement logging.
type DebugTx struct {
	dialect.Tx
	log *slog.Logger
}

// Query logs and runs a query within the transaction.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "query", "sql", query, "args", args)
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec logs and runs a statement within the transaction.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.log.DebugContext(ctx, "exec", "sql", query, "args", args)
	return tx.Tx.Exec(ctx, query, args, v)
}

// Commit commits the transaction.
func (tx *DebugTx) Commit() error {
	tx.log.Debug("commit")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction.
func (tx *DebugTx) Rollback() error {
	tx.log.Debug("rollback")
	return tx.Tx.Rollback()
}

var (
	_ dialect.Driver = (*StatsDriver)(nil)
	_ dialect.Tx     = (*StatsTx)(nil)
	_ dialect.Driver = (*DebugDriver)(nil)
	_ dialect.Tx     = (*DebugTx)(nil)
)
