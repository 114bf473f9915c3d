package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dbsmedya/migrion/internal/logger"
	"github.com/dbsmedya/migrion/internal/sqlutil"
	"github.com/dbsmedya/migrion/internal/types"
)

// SQLStore writes batches to a MySQL table with one multi-row INSERT per
// batch. INSERT IGNORE makes retried writes idempotent when the table has a
// primary or unique key, which is what the at-least-once delivery contract
// requires from the target side.
type SQLStore struct {
	db      *sql.DB
	table   string
	columns []string
	logger  *logger.Logger
}

// NewSQL creates an SQLStore for the given table and column set.
// Table and column names are validated as identifiers since they originate
// from schema files and mapping candidates.
func NewSQL(db *sql.DB, table string, columns []string, log *logger.Logger) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is nil")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no target columns")
	}
	if log == nil {
		log = logger.NewDefault()
	}

	if !sqlutil.IsValidIdentifier(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	for _, col := range columns {
		if !sqlutil.IsValidIdentifier(col) {
			return nil, fmt.Errorf("invalid column name %q", col)
		}
	}

	return &SQLStore{
		db:      db,
		table:   table,
		columns: columns,
		logger:  log,
	}, nil
}

// WriteBatch inserts all records of the batch in a single statement inside
// a transaction. The whole batch commits or rolls back as one unit.
func (s *SQLStore) WriteBatch(ctx context.Context, ordinal int, records []types.Record) error {
	if len(records) == 0 {
		return nil
	}

	query, args := s.buildInsert(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &WriteError{Ordinal: ordinal, Err: fmt.Errorf("begin transaction: %w", err)}
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Errorf("Failed to rollback batch %d: %v", ordinal, rbErr)
		}
		return &WriteError{Ordinal: ordinal, Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &WriteError{Ordinal: ordinal, Err: fmt.Errorf("commit: %w", err)}
	}

	if rows, err := result.RowsAffected(); err == nil && rows < int64(len(records)) {
		// INSERT IGNORE swallowed duplicates, expected on retried batches.
		s.logger.WithBatch(ordinal).Debugf("Inserted %d of %d rows (duplicates ignored)", rows, len(records))
	}

	return nil
}

// buildInsert renders the multi-row INSERT IGNORE statement for the batch.
func (s *SQLStore) buildInsert(records []types.Record) (string, []interface{}) {
	quoted := make([]string, len(s.columns))
	for i, col := range s.columns {
		quoted[i] = sqlutil.QuoteIdentifier(col)
	}

	rowPlaceholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(s.columns)), ",") + ")"
	placeholders := make([]string, len(records))
	args := make([]interface{}, 0, len(records)*len(s.columns))

	for i, rec := range records {
		placeholders[i] = rowPlaceholder
		for _, col := range s.columns {
			v := rec[col]
			if types.IsMissing(v) {
				args = append(args, nil)
			} else {
				args = append(args, v)
			}
		}
	}

	query := fmt.Sprintf("INSERT IGNORE INTO %s (%s) VALUES %s",
		sqlutil.QuoteIdentifier(s.table),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args
}

// Count returns the number of rows in the target table.
func (s *SQLStore) Count(ctx context.Context) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", sqlutil.QuoteIdentifier(s.table))

	var count int64
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count target rows: %w", err)
	}
	return count, nil
}
