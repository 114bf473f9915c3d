// Package lock provides MySQL advisory locking to keep two migrion
// instances from writing the same target table at once.
package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrLockTimeout is returned when another instance holds the lock.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// acquireTimeoutSeconds is how long GET_LOCK waits before giving up.
// Kept short so a duplicate run fails fast instead of queueing.
const acquireTimeoutSeconds = 1

// AdvisoryLock is a named MySQL advisory lock (GET_LOCK / RELEASE_LOCK).
// The server releases it automatically when the connection closes, so a
// crashed run never wedges the table.
type AdvisoryLock struct {
	db       *sql.DB
	lockName string
	held     bool
}

// NewTableLock creates an advisory lock scoped to one target table.
func NewTableLock(db *sql.DB, table string) *AdvisoryLock {
	return &AdvisoryLock{
		db:       db,
		lockName: tableLockName(table),
	}
}

// AcquireOrFail acquires the lock or returns ErrLockTimeout when another
// instance already holds it.
//
// GET_LOCK returns 1 when obtained, 0 on timeout, and NULL on server error.
func (a *AdvisoryLock) AcquireOrFail(ctx context.Context) error {
	if a.held {
		return nil
	}

	var result sql.NullInt64
	err := a.db.QueryRowContext(ctx, "SELECT GET_LOCK(?, ?)",
		a.lockName, acquireTimeoutSeconds).Scan(&result)
	if err != nil {
		return fmt.Errorf("failed to execute GET_LOCK: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("GET_LOCK returned NULL for lock %q", a.lockName)
	}

	switch result.Int64 {
	case 1:
		a.held = true
		return nil
	case 0:
		return fmt.Errorf("%w: lock %q is held by another instance", ErrLockTimeout, a.lockName)
	default:
		return fmt.Errorf("unexpected GET_LOCK return value: %d", result.Int64)
	}
}

// Release releases the lock. Releasing a lock that is not held is a no-op.
func (a *AdvisoryLock) Release(ctx context.Context) error {
	if !a.held {
		return nil
	}

	var result sql.NullInt64
	err := a.db.QueryRowContext(ctx, "SELECT RELEASE_LOCK(?)", a.lockName).Scan(&result)
	a.held = false
	if err != nil {
		return fmt.Errorf("failed to execute RELEASE_LOCK: %w", err)
	}
	if !result.Valid {
		return fmt.Errorf("RELEASE_LOCK returned NULL for lock %q", a.lockName)
	}
	return nil
}

// IsHeld reports whether this instance currently holds the lock.
func (a *AdvisoryLock) IsHeld() bool {
	return a.held
}

// LockName returns the name of the advisory lock.
func (a *AdvisoryLock) LockName() string {
	return a.lockName
}

// tableLockName builds a namespaced, sanitized lock name for a table.
func tableLockName(table string) string {
	sanitized := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			return r
		}
		return '_'
	}, table)

	return fmt.Sprintf("migrion:table:%s", sanitized)
}
