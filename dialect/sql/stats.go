package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/veloxmysql/dialect"
	"github.com/syssam/veloxmysql/dialect/sql/sqlcmd"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the total number of queries executed.
	TotalQueries atomic.Int64
	// TotalExecs is the total number of exec statements executed.
	TotalExecs atomic.Int64
	// TotalDuration is the total time spent executing queries.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of queries exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of query errors.
	Errors atomic.Int64
	// Unsupported is the count of statements the server rejected with
	// error 1235.
	Unsupported atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalExecs:    s.TotalExecs.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
		Unsupported:   s.Unsupported.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalExecs.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
	s.Unsupported.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalExecs    int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
	Unsupported   int64
}

// AvgQueryDuration returns the average query duration.
func (s StatsSnapshot) AvgQueryDuration() time.Duration {
	total := s.TotalQueries + s.TotalExecs
	if total == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(total)
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d execs=%d duration=%s avg=%s slow=%d errors=%d unsupported=%d",
		s.TotalQueries, s.TotalExecs, s.TotalDuration, s.AvgQueryDuration(),
		s.SlowQueries, s.Errors, s.Unsupported,
	)
}

// SlowQueryHook is a function called when a slow query is detected.
type SlowQueryHook func(ctx context.Context, query string, args []any, duration time.Duration)

// StatsDriver wraps a Driver with query statistics collection.
type StatsDriver struct {
	*Driver
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDriver.
type StatsOption func(*StatsDriver)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDriver) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow queries.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDriver) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow queries to the given logger, or to the default
// logger when l is nil. Argument values are not logged.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, args []any, duration time.Duration) {
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "args", len(args))
	})
}

// NewStatsDriver wraps a Driver with statistics collection.
//
//	drv, _ := sql.Open(dsn, opts)
//	statsDriver := sql.NewStatsDriver(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	provider, _ := sql.NewProvider(statsDriver, opts)
//
//	// Later, check statistics:
//	fmt.Println(statsDriver.QueryStats().Stats())
func NewStatsDriver(drv *Driver, opts ...StatsOption) *StatsDriver {
	s := &StatsDriver{
		Driver:        drv,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDriver) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDriver) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDriver) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a query and records statistics.
func (d *StatsDriver) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Query(ctx, query, args, v)
	d.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement and records statistics.
func (d *StatsDriver) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := d.Driver.Exec(ctx, query, args, v)
	d.record(ctx, query, args, start, err, false)
	return err
}

// ExecCommand prepares cmd and executes it, recording statistics.
func (d *StatsDriver) ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return execCommand(ctx, d, d.Preparer(), cmd, v)
}

// QueryCommand prepares cmd and runs it, recording statistics.
func (d *StatsDriver) QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return queryCommand(ctx, d, d.Preparer(), cmd, v)
}

func (d *StatsDriver) record(ctx context.Context, query string, args any, start time.Time, err error, isQuery bool) {
	duration := time.Since(start)
	if isQuery {
		d.stats.TotalQueries.Add(1)
	} else {
		d.stats.TotalExecs.Add(1)
	}
	d.stats.TotalDuration.Add(int64(duration))

	if err != nil {
		d.stats.Errors.Add(1)
		if IsUnsupportedError(err) {
			d.stats.Unsupported.Add(1)
		}
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			argsSlice, _ := args.([]any)
			hook(ctx, query, argsSlice, duration)
		}
	}
}

// Tx starts a transaction that also records statistics.
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

// Query executes a query within the transaction and records statistics.
func (tx *StatsTx) Query(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Query(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, true)
	return err
}

// Exec executes a statement within the transaction and records statistics.
func (tx *StatsTx) Exec(ctx context.Context, query string, args, v any) error {
	start := time.Now()
	err := tx.Tx.Exec(ctx, query, args, v)
	tx.driver.record(ctx, query, args, start, err, false)
	return err
}

// ExecCommand prepares cmd and executes it within the transaction.
func (tx *StatsTx) ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return execCommand(ctx, tx, tx.driver.Preparer(), cmd, v)
}

// QueryCommand prepares cmd and runs it within the transaction.
func (tx *StatsTx) QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	return queryCommand(ctx, tx, tx.driver.Preparer(), cmd, v)
}

// DebugDriver wraps a Driver with debug logging. Commands are logged in
// their "SET @p = <literal>;" form so they can be pasted into a client.
type DebugDriver struct {
	*Driver
	log         func(context.Context, ...any)
	logValues   bool
	preparedLog bool
}

// DebugOption configures the DebugDriver.
type DebugOption func(*DebugDriver)

// DebugWithLog sets a custom log function.
func DebugWithLog(logFunc func(context.Context, ...any)) DebugOption {
	return func(d *DebugDriver) {
		d.log = logFunc
	}
}

// DebugWithParameterValues makes the driver log parameter values. Without
// it only parameter names are logged.
func DebugWithParameterValues(enable bool) DebugOption {
	return func(d *DebugDriver) {
		d.logValues = enable
	}
}

// DebugWithPreparedText logs commands after LIMIT folding and string
// inlining instead of as generated.
func DebugWithPreparedText(enable bool) DebugOption {
	return func(d *DebugDriver) {
		d.preparedLog = enable
	}
}

// NewDebugDriver wraps a Driver with debug logging.
//
//	debugDriver := sql.NewDebugDriver(drv, sql.DebugWithLog(func(ctx context.Context, v ...any) {
//	    log.Println(v...)
//	}))
func NewDebugDriver(drv *Driver, opts ...DebugOption) *DebugDriver {
	d := &DebugDriver{
		Driver: drv,
		log: func(ctx context.Context, v ...any) {
			slog.DebugContext(ctx, fmt.Sprint(v...))
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query executes a query and logs it.
func (d *DebugDriver) Query(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("query: %s args: %s", query, d.args(args)))
	return d.Driver.Query(ctx, query, args, v)
}

// Exec executes a statement and logs it.
func (d *DebugDriver) Exec(ctx context.Context, query string, args, v any) error {
	d.log(ctx, fmt.Sprintf("exec: %s args: %s", query, d.args(args)))
	return d.Driver.Exec(ctx, query, args, v)
}

// ExecCommand logs cmd and executes it.
func (d *DebugDriver) ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	d.log(ctx, "exec:\n"+d.command(cmd))
	return d.Driver.ExecCommand(ctx, cmd, v)
}

// QueryCommand logs cmd and runs it.
func (d *DebugDriver) QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	d.log(ctx, "query:\n"+d.command(cmd))
	return d.Driver.QueryCommand(ctx, cmd, v)
}

// command renders cmd for the log. The executed command is not affected.
func (d *DebugDriver) command(cmd sqlcmd.Command) string {
	prep := d.Preparer()
	if d.preparedLog {
		if prepared, err := prep.Prepare(cmd); err == nil {
			cmd = prepared
		}
	}
	if d.logValues {
		return prep.DebugString(cmd)
	}
	if len(cmd.Parameters) == 0 {
		return cmd.Text
	}
	names := make([]string, len(cmd.Parameters))
	for i, p := range cmd.Parameters {
		names[i] = "@" + p.Name
	}
	return fmt.Sprintf("-- parameters: %s\n%s", strings.Join(names, ", "), cmd.Text)
}

func (d *DebugDriver) args(args any) string {
	if d.logValues {
		return fmt.Sprint(args)
	}
	argv, _ := args.([]any)
	return fmt.Sprintf("<%d hidden>", len(argv))
}

// Tx starts a transaction with debug logging.
func (d *DebugDriver) Tx(ctx context.Context) (dialect.Tx, error) {
	d.log(ctx, "begin transaction")
	tx, err := d.Driver.Tx(ctx)
	if err != nil {
		return nil, err
	}
	return &DebugTx{Tx: tx, driver: d}, nil
}

// DebugTx wraps a transaction with debug logging.
type DebugTx struct {
	dialect.Tx
	driver *DebugDriver
}

// Query executes a query within the transaction and logs it.
func (tx *DebugTx) Query(ctx context.Context, query string, args, v any) error {
	tx.driver.log(ctx, fmt.Sprintf("tx query: %s args: %s", query, tx.driver.args(args)))
	return tx.Tx.Query(ctx, query, args, v)
}

// Exec executes a statement within the transaction and logs it.
func (tx *DebugTx) Exec(ctx context.Context, query string, args, v any) error {
	tx.driver.log(ctx, fmt.Sprintf("tx exec: %s args: %s", query, tx.driver.args(args)))
	return tx.Tx.Exec(ctx, query, args, v)
}

// ExecCommand logs cmd and executes it within the transaction.
func (tx *DebugTx) ExecCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	tx.driver.log(ctx, "tx exec:\n"+tx.driver.command(cmd))
	query, args, err := bindCommand(tx.driver.Preparer(), cmd)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	return tx.Tx.Exec(ctx, query, args, v)
}

// QueryCommand logs cmd and runs it within the transaction.
func (tx *DebugTx) QueryCommand(ctx context.Context, cmd sqlcmd.Command, v any) error {
	tx.driver.log(ctx, "tx query:\n"+tx.driver.command(cmd))
	query, args, err := bindCommand(tx.driver.Preparer(), cmd)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	return tx.Tx.Query(ctx, query, args, v)
}

// Commit commits the transaction and logs it.
func (tx *DebugTx) Commit() error {
	tx.driver.log(context.Background(), "commit transaction")
	return tx.Tx.Commit()
}

// Rollback rolls back the transaction and logs it.
func (tx *DebugTx) Rollback() error {
	tx.driver.log(context.Background(), "rollback transaction")
	return tx.Tx.Rollback()
}

// Ensure interfaces are implemented.
var (
	_ CommandDriver      = (*StatsDriver)(nil)
	_ dialect.Tx         = (*StatsTx)(nil)
	_ CommandExecQuerier = (*StatsTx)(nil)
	_ CommandDriver      = (*DebugDriver)(nil)
	_ dialect.Tx         = (*DebugTx)(nil)
	_ CommandExecQuerier = (*DebugTx)(nil)
)

// OpenWithStats opens a database connection with statistics collection enabled.
//
//	drv, stats, err := sql.OpenWithStats(dsn, opts,
//	    sql.WithSlowThreshold(100*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	go func() {
//	    for range time.Tick(time.Minute) {
//	        log.Printf("Query stats: %s", stats.Stats())
//	    }
//	}()
func OpenWithStats(dsn string, opts *dialect.Options, statsOpts ...StatsOption) (*StatsDriver, *QueryStats, error) {
	drv, err := Open(dsn, opts)
	if err != nil {
		return nil, nil, err
	}
	statsDriver := NewStatsDriver(drv, statsOpts...)
	return statsDriver, statsDriver.QueryStats(), nil
}
