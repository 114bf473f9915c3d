package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/logger"
	"github.com/dbsmedya/migrion/internal/store"
	"github.com/dbsmedya/migrion/internal/types"
)

// Options holds execution tuning knobs.
type Options struct {
	// Workers bounds how many batches may be in flight concurrently.
	Workers int
	// MaxRetries is the number of retries after the first failed write.
	MaxRetries int
	// RetryBackoff is the initial backoff between retries; it doubles per attempt.
	RetryBackoff time.Duration
	// WriteTimeout bounds every target-store call. A timed-out write counts
	// as a failed write for retry purposes.
	WriteTimeout time.Duration
	// Verification selects the post-migration verification method.
	Verification config.VerificationConfig
}

// OptionsFromConfig derives executor options from the processing config.
func OptionsFromConfig(p config.ProcessingConfig, v config.VerificationConfig) Options {
	return Options{
		Workers:      p.Workers,
		MaxRetries:   p.MaxRetries,
		RetryBackoff: time.Duration(p.RetryBackoffMillis) * time.Millisecond,
		WriteTimeout: time.Duration(p.WriteTimeoutSecs * float64(time.Second)),
		Verification: v,
	}
}

// JobResult is everything one finished run reports: terminal state,
// per-batch outcomes, aggregate counts, verification outcome, and the full
// audit sequence.
type JobResult struct {
	JobID        string              `json:"job_id"`
	State        State               `json:"state"`
	Policy       Policy              `json:"policy"`
	Batches      []Batch             `json:"batches"`
	Progress     Progress            `json:"progress"`
	Verification *VerificationResult `json:"verification,omitempty"`
	Audit        []AuditEntry        `json:"audit"`
	Duration     time.Duration       `json:"duration"`
}

// Executor runs migration jobs against a target store.
type Executor struct {
	store  store.TargetStore
	logger *logger.Logger
	opts   Options
}

// New creates an Executor. Zero option values get conservative defaults.
func New(target store.TargetStore, log *logger.Logger, opts Options) (*Executor, error) {
	if target == nil {
		return nil, fmt.Errorf("target store is nil")
	}
	if log == nil {
		log = logger.NewDefault()
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 500 * time.Millisecond
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	return &Executor{
		store:  target,
		logger: log,
		opts:   opts,
	}, nil
}

// splitBatches divides n records into consecutive, non-overlapping batches
// of the given size. The last batch may be smaller. Ordinal assignment
// follows dataset order and is deterministic.
func splitBatches(n, size int) []Batch {
	var batches []Batch
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		batches = append(batches, Batch{
			Ordinal: len(batches) + 1,
			Start:   start,
			End:     end,
			Outcome: BatchPending,
		})
	}
	return batches
}

// Run executes the job to a terminal state and returns its result.
// The job must be in the Created state. Cancellation (via job.Cancel or the
// context) is honored at batch boundaries only: in-flight batches complete,
// committed batches stay committed, and no compensating rollback happens.
func (e *Executor) Run(ctx context.Context, job *MigrationJob) (*JobResult, error) {
	batches := splitBatches(job.Dataset.Len(), job.BatchSize)
	if err := job.start(len(batches)); err != nil {
		return nil, err
	}

	log := e.logger.WithJob(job.ID)
	audit := newAuditLog()
	// Validation rejections precede execution, so they open the sequence.
	for _, rej := range job.Rejections {
		audit.append(rej.Candidate.SourceField, rej.Reason, rej.Detail)
	}
	audit.append("job", "started", fmt.Sprintf("%d records in %d batches, policy %s",
		job.Dataset.Len(), len(batches), job.Policy))

	startTime := time.Now()
	log.Infow("Starting migration job",
		"dataset", job.Dataset.Name,
		"records", job.Dataset.Len(),
		"batches", len(batches),
		"batch_size", job.BatchSize,
		"policy", job.Policy,
		"workers", e.opts.Workers,
	)

	// halt is set on an unrecoverable batch failure under fail-fast; no
	// batch is launched after it is observed.
	var halt atomic.Bool
	sem := semaphore.NewWeighted(int64(e.opts.Workers))
	var wg sync.WaitGroup

	launched := 0
	for i := range batches {
		// Batch boundary: cancellation and fail-fast halt are honored
		// here, never mid-batch.
		if job.cancelRequested() || halt.Load() || ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		// A worker slot can take a while; re-check before launching.
		if job.cancelRequested() || halt.Load() {
			sem.Release(1)
			break
		}

		launched++
		wg.Add(1)
		go func(b *Batch) {
			defer wg.Done()
			defer sem.Release(1)
			e.processBatch(ctx, job, b, audit, &halt)
		}(&batches[i])
	}
	wg.Wait()

	finalState := StateCompleted
	switch {
	case halt.Load():
		finalState = StateFailed
	case launched < len(batches):
		// Stopped early by cancellation (job or context).
		finalState = StateCancelled
	}
	job.finish(finalState)

	progress := job.Progress()
	audit.append("job", string(finalState), fmt.Sprintf(
		"attempted=%d committed=%d failed=%d",
		progress.RecordsAttempted, progress.RecordsCommitted, progress.RecordsFailed))

	var verification *VerificationResult
	if !e.opts.Verification.SkipVerification {
		verification = e.verify(ctx, job, batches)
		for _, m := range verification.Mismatches {
			audit.append("job", "verification-mismatch", m.Kind+": "+m.Detail)
		}
	}

	result := &JobResult{
		JobID:        job.ID,
		State:        finalState,
		Policy:       job.Policy,
		Batches:      batches,
		Progress:     progress,
		Verification: verification,
		Audit:        audit.snapshot(),
		Duration:     time.Since(startTime),
	}

	log.Infow("Migration job finished",
		"state", finalState,
		"committed", progress.RecordsCommitted,
		"failed", progress.RecordsFailed,
		"duration", result.Duration,
	)

	return result, nil
}

// processBatch drives one batch to a terminal outcome.
func (e *Executor) processBatch(ctx context.Context, job *MigrationJob, b *Batch, audit *auditLog, halt *atomic.Bool) {
	log := e.logger.WithJob(job.ID).WithBatch(b.Ordinal)
	records := job.Dataset.Records[b.Start:b.End]

	transformed, err := transformBatch(job.Directives, records)
	if err != nil {
		// Transform errors are deterministic; retrying cannot help.
		log.Errorf("Batch %d transform failed: %v", b.Ordinal, err)
		e.settleFailure(job, b, audit, fmt.Errorf("transform: %w", err), halt)
		return
	}

	if err := e.writeWithRetry(ctx, b, transformed, audit, log); err != nil {
		e.settleFailure(job, b, audit, err, halt)
		return
	}

	b.Outcome = BatchCommitted
	audit.append(batchSubject(b.Ordinal), "committed",
		fmt.Sprintf("%d records in %d attempt(s)", len(transformed), b.Attempts))
	job.recordBatch(b)
	log.Debugf("Batch %d committed (%d records)", b.Ordinal, len(transformed))
}

// writeWithRetry attempts the batch write with bounded retries and doubling
// backoff. Every attempt is bounded by the write timeout; a timed-out write
// counts as a failed attempt.
func (e *Executor) writeWithRetry(ctx context.Context, b *Batch, records []types.Record, audit *auditLog, log *logger.Logger) error {
	backoff := e.opts.RetryBackoff

	var err error
	for attempt := 1; attempt <= e.opts.MaxRetries+1; attempt++ {
		b.Attempts = attempt

		writeCtx, cancel := context.WithTimeout(ctx, e.opts.WriteTimeout)
		err = e.store.WriteBatch(writeCtx, b.Ordinal, records)
		cancel()

		if err == nil {
			return nil
		}

		if attempt > e.opts.MaxRetries {
			break
		}

		audit.append(batchSubject(b.Ordinal), "retry",
			fmt.Sprintf("attempt %d failed: %v", attempt, err))
		log.Warnf("Batch %d write attempt %d failed, retrying in %v: %v",
			b.Ordinal, attempt, backoff, err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry interrupted: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	return fmt.Errorf("write failed after %d attempt(s): %w", b.Attempts, err)
}

// settleFailure records a batch that exhausted its retries (or failed to
// transform) according to the job policy.
func (e *Executor) settleFailure(job *MigrationJob, b *Batch, audit *auditLog, err error, halt *atomic.Bool) {
	b.Error = err.Error()
	if job.Policy == PolicyFailFast {
		b.Outcome = BatchFailed
		halt.Store(true)
	} else {
		b.Outcome = BatchSkipped
	}
	audit.append(batchSubject(b.Ordinal), string(b.Outcome), err.Error())
	job.recordBatch(b)
}

func batchSubject(ordinal int) string {
	return fmt.Sprintf("batch-%d", ordinal)
}
