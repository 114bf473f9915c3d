package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dbsmedya/migrion/internal/types"
)

// MemoryStore is an in-memory TargetStore used by tests and dry runs.
// It implements all optional capabilities and supports failure injection.
type MemoryStore struct {
	mu      sync.Mutex
	fields  []string
	batches map[int][]types.Record
	writes  map[int]int // ordinal -> write attempts observed

	// FailFunc, when set, is consulted before each write; a non-nil return
	// fails the write. The attempt argument counts calls for that ordinal,
	// starting at 1.
	FailFunc func(ordinal, attempt int) error

	// AfterWrite, when set, runs after each successful write. Tests use it
	// to trigger cancellation at a known point.
	AfterWrite func(ordinal int)
}

// NewMemory creates a MemoryStore. The field order is used for checksums.
func NewMemory(fields []string) *MemoryStore {
	return &MemoryStore{
		fields:  fields,
		batches: make(map[int][]types.Record),
		writes:  make(map[int]int),
	}
}

// WriteBatch stores the batch, keyed by ordinal. Rewriting an ordinal
// replaces the previous content, which models an idempotent upsert.
func (m *MemoryStore) WriteBatch(ctx context.Context, ordinal int, records []types.Record) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Ordinal: ordinal, Err: err}
	}

	m.mu.Lock()
	m.writes[ordinal]++
	attempt := m.writes[ordinal]
	failFunc := m.FailFunc
	m.mu.Unlock()

	if failFunc != nil {
		if err := failFunc(ordinal, attempt); err != nil {
			return &WriteError{Ordinal: ordinal, Err: err}
		}
	}

	copied := make([]types.Record, len(records))
	for i, rec := range records {
		copied[i] = rec.Clone()
	}

	m.mu.Lock()
	m.batches[ordinal] = copied
	after := m.AfterWrite
	m.mu.Unlock()

	if after != nil {
		after(ordinal)
	}
	return nil
}

// Count returns the total number of stored records.
func (m *MemoryStore) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, records := range m.batches {
		n += int64(len(records))
	}
	return n, nil
}

// BatchChecksum returns the canonical checksum of a stored batch.
func (m *MemoryStore) BatchChecksum(ctx context.Context, ordinal int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, ok := m.batches[ordinal]
	if !ok {
		return "", fmt.Errorf("no batch stored for ordinal %d", ordinal)
	}
	return ChecksumRecords(m.fields, records), nil
}

// Records returns all stored records in batch ordinal order.
func (m *MemoryStore) Records() []types.Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordinals := make([]int, 0, len(m.batches))
	for ord := range m.batches {
		ordinals = append(ordinals, ord)
	}
	sort.Ints(ordinals)

	var out []types.Record
	for _, ord := range ordinals {
		out = append(out, m.batches[ord]...)
	}
	return out
}

// WriteAttempts returns how many write attempts were observed for an ordinal.
func (m *MemoryStore) WriteAttempts(ordinal int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes[ordinal]
}
