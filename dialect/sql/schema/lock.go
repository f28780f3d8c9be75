package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrLockTimeout is returned when the migration lock could not be acquired
// before the timeout elapsed.
var ErrLockTimeout = errors.New("schema: timed out waiting for migration lock")

// maxLockName is the longest lock name accepted by GET_LOCK.
const maxLockName = 64

// Conner pins a single connection of a pool. *sql.DB implements it.
type Conner interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// MigrationLock is a named server lock held by one pinned connection.
// MySQL locks are owned by the session that took them, so the connection
// stays out of the pool until Release.
type MigrationLock struct {
	conn *sql.Conn
	name string
}

// AcquireLock takes the named lock with GET_LOCK, waiting at most timeout.
func AcquireLock(ctx context.Context, db Conner, name string, timeout time.Duration) (*MigrationLock, error) {
	if name == "" || len(name) > maxLockName {
		return nil, fmt.Errorf("schema: invalid lock name %q", name)
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("schema: pin connection: %w", err)
	}
	var got sql.NullInt64
	if err := conn.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)", name, int64(timeout.Seconds())).Scan(&got); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("schema: acquire lock %q: %w", name, err)
	}
	switch {
	case !got.Valid:
		_ = conn.Close()
		return nil, fmt.Errorf("schema: acquire lock %q: server returned NULL", name)
	case got.Int64 == 0:
		_ = conn.Close()
		return nil, fmt.Errorf("%w %q after %s", ErrLockTimeout, name, timeout)
	}
	return &MigrationLock{conn: conn, name: name}, nil
}

// Name returns the lock name.
func (l *MigrationLock) Name() string { return l.name }

// Release frees the lock and returns the pinned connection to the pool.
func (l *MigrationLock) Release(ctx context.Context) error {
	var released sql.NullInt64
	err := l.conn.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", l.name).Scan(&released)
	if cerr := l.conn.Close(); err == nil && cerr != nil {
		err = cerr
	}
	switch {
	case err != nil:
		return fmt.Errorf("schema: release lock %q: %w", l.name, err)
	case !released.Valid || released.Int64 != 1:
		return fmt.Errorf("schema: release lock %q: lock was not held", l.name)
	}
	return nil
}

// WithLock runs fn while holding the named migration lock.
//
//	err := schema.WithLock(ctx, db, "migrate", 10*time.Second, func(ctx context.Context) error {
//	    return applyMigrations(ctx, db)
//	})
func WithLock(ctx context.Context, db Conner, name string, timeout time.Duration, fn func(context.Context) error) error {
	l, err := AcquireLock(ctx, db, name, timeout)
	if err != nil {
		return err
	}
	err = fn(ctx)
	return errors.Join(err, l.Release(context.WithoutCancel(ctx)))
}
