// Package store defines the target store capability interfaces and their
// implementations: a MySQL-backed store for real migrations and an in-memory
// store for tests and dry runs.
//
// The core treats the target as an opaque sink with at-least-once delivery:
// a batch write may be retried after a timeout even if the first attempt
// partially landed, so writes must be idempotent on the store side (the SQL
// implementation uses INSERT IGNORE for this reason).
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/dbsmedya/migrion/internal/types"
)

// TargetStore is the minimal write capability every target must provide.
// The batch ordinal identifies the batch for auditing and gives idempotent
// stores a natural dedup key.
type TargetStore interface {
	WriteBatch(ctx context.Context, ordinal int, records []types.Record) error
}

// Counter is an optional capability: stores that can report how many records
// they hold enable count-based post-migration verification.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// Checksummer is an optional capability: stores that retain per-batch
// checksums enable structural post-migration verification.
type Checksummer interface {
	BatchChecksum(ctx context.Context, ordinal int) (string, error)
}

// WriteError is returned by WriteBatch implementations on a failed write.
// Write errors are retryable by the executor up to its retry limit.
type WriteError struct {
	Ordinal int
	Err     error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("batch %d write failed: %v", e.Ordinal, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ChecksumRecords computes the canonical checksum of a batch: SHA256 over
// the records in order, each serialized as field=value pairs in the given
// field order. Both sides of a checksum comparison must use the same field
// order for the comparison to be meaningful.
func ChecksumRecords(fields []string, records []types.Record) string {
	h := sha256.New()
	for _, rec := range records {
		for _, f := range fields {
			h.Write([]byte(f))
			h.Write([]byte{'='})
			h.Write([]byte(types.ToString(rec[f])))
			h.Write([]byte{';'})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
