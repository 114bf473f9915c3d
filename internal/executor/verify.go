package executor

import (
	"context"
	"fmt"

	"github.com/dbsmedya/migrion/internal/store"
)

// Mismatch is one discrepancy found during post-migration verification.
// A mismatch never changes the job's terminal state; it signals that the
// migration may be incomplete even though execution finished.
type Mismatch struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// Mismatch kinds.
const (
	// MismatchIncomplete: fewer records were committed than the source holds.
	MismatchIncomplete = "incomplete"
	// MismatchStoreCount: the store reports a different record count than
	// the job committed.
	MismatchStoreCount = "store-count"
	// MismatchChecksum: a committed batch's checksum differs between the
	// executor and the store.
	MismatchChecksum = "checksum"
)

// VerificationResult is the outcome of post-migration verification.
type VerificationResult struct {
	Performed           bool       `json:"performed"`
	Method              string     `json:"method"`
	ExpectedSourceCount int        `json:"expected_source_count"`
	CommittedCount      int        `json:"committed_count"`
	StoreCount          int64      `json:"store_count"` // -1 when the store cannot count
	Mismatches          []Mismatch `json:"mismatches,omitempty"`
}

// OK reports whether verification found no discrepancies.
func (v *VerificationResult) OK() bool {
	return len(v.Mismatches) == 0
}

// verify runs after the last batch (or after a fail-fast halt). It compares
// committed counts against the source, asks the store to count when it can,
// and compares per-batch checksums when the method asks for it and the
// store supports it.
func (e *Executor) verify(ctx context.Context, job *MigrationJob, batches []Batch) *VerificationResult {
	progress := job.Progress()
	result := &VerificationResult{
		Performed:           true,
		Method:              e.opts.Verification.Method,
		ExpectedSourceCount: job.Dataset.Len(),
		CommittedCount:      progress.RecordsCommitted,
		StoreCount:          -1,
	}

	if progress.RecordsCommitted != job.Dataset.Len() {
		skipped := 0
		unattempted := 0
		for _, b := range batches {
			switch b.Outcome {
			case BatchFailed, BatchSkipped:
				skipped += b.Size()
			case BatchPending:
				unattempted += b.Size()
			}
		}
		result.Mismatches = append(result.Mismatches, Mismatch{
			Kind: MismatchIncomplete,
			Detail: fmt.Sprintf("committed %d of %d source records (%d failed or skipped, %d never attempted)",
				progress.RecordsCommitted, job.Dataset.Len(), skipped, unattempted),
		})
	}

	if counter, ok := e.store.(store.Counter); ok {
		countCtx, cancel := context.WithTimeout(ctx, e.opts.WriteTimeout)
		count, err := counter.Count(countCtx)
		cancel()
		if err != nil {
			e.logger.WithJob(job.ID).Warnf("Store count unavailable during verification: %v", err)
		} else {
			result.StoreCount = count
			if count != int64(progress.RecordsCommitted) {
				result.Mismatches = append(result.Mismatches, Mismatch{
					Kind:   MismatchStoreCount,
					Detail: fmt.Sprintf("store holds %d records, job committed %d", count, progress.RecordsCommitted),
				})
			}
		}
	}

	if e.opts.Verification.Method == "checksum" {
		if checksummer, ok := e.store.(store.Checksummer); ok {
			e.verifyChecksums(ctx, job, batches, checksummer, result)
		}
	}

	return result
}

// verifyChecksums recomputes each committed batch's canonical checksum from
// the source (transforms are deterministic) and compares it with the
// store's copy.
func (e *Executor) verifyChecksums(ctx context.Context, job *MigrationJob, batches []Batch, checksummer store.Checksummer, result *VerificationResult) {
	fields := TargetFields(job.Directives)

	for _, b := range batches {
		if b.Outcome != BatchCommitted {
			continue
		}

		transformed, err := transformBatch(job.Directives, job.Dataset.Records[b.Start:b.End])
		if err != nil {
			// Cannot happen for a committed batch; transforms already ran once.
			continue
		}
		local := store.ChecksumRecords(fields, transformed)

		checkCtx, cancel := context.WithTimeout(ctx, e.opts.WriteTimeout)
		remote, err := checksummer.BatchChecksum(checkCtx, b.Ordinal)
		cancel()
		if err != nil {
			e.logger.WithJob(job.ID).Warnf("Checksum unavailable for batch %d: %v", b.Ordinal, err)
			continue
		}

		if local != remote {
			result.Mismatches = append(result.Mismatches, Mismatch{
				Kind:   MismatchChecksum,
				Detail: fmt.Sprintf("batch %d checksum differs (local %.16s, store %.16s)", b.Ordinal, local, remote),
			})
		}
	}
}
