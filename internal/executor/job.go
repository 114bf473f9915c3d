// Package executor runs validated migrations batch by batch against a
// target store, with bounded parallelism, retry with backoff, cooperative
// cancellation, and post-migration verification.
package executor

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dbsmedya/migrion/internal/mapping"
	"github.com/dbsmedya/migrion/internal/types"
)

// Policy controls how the job reacts to an unrecoverable batch failure.
// It is fixed for the whole job at creation time.
type Policy string

const (
	// PolicyFailFast halts the job on the first unrecoverable batch failure.
	PolicyFailFast Policy = "fail-fast"
	// PolicyBestEffort records the failure, skips the batch, and continues.
	PolicyBestEffort Policy = "best-effort"
)

// ParsePolicy converts a policy string from config or flags.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyFailFast, PolicyBestEffort:
		return Policy(s), nil
	default:
		return "", fmt.Errorf("invalid policy %q (fail-fast or best-effort)", s)
	}
}

// State is the lifecycle state of a migration job.
// Created -> Running -> {Completed | Failed | Cancelled}. Running may be
// entered only once; the three end states are terminal.
type State string

const (
	StateCreated   State = "created"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// BatchOutcome is the terminal disposition of a single batch.
type BatchOutcome string

const (
	BatchPending   BatchOutcome = "pending"
	BatchCommitted BatchOutcome = "committed"
	BatchFailed    BatchOutcome = "failed"
	BatchSkipped   BatchOutcome = "skipped"
)

// Batch is one contiguous slice of source records, processed and committed
// as a unit. Once its outcome is set it is never re-executed in place;
// retries within the run are counted in Attempts.
type Batch struct {
	Ordinal  int          `json:"ordinal"`
	Start    int          `json:"start"` // record range [Start, End)
	End      int          `json:"end"`
	Outcome  BatchOutcome `json:"outcome"`
	Attempts int          `json:"attempts"`
	Error    string       `json:"error,omitempty"`
}

// Size returns the number of records in the batch.
func (b *Batch) Size() int {
	return b.End - b.Start
}

// Progress is a point-in-time snapshot of job counters. Counters only ever
// advance; aggregate totals are final once every batch reaches a terminal
// outcome.
type Progress struct {
	RecordsAttempted int `json:"records_attempted"`
	RecordsCommitted int `json:"records_committed"`
	RecordsFailed    int `json:"records_failed"`
	BatchesDone      int `json:"batches_done"`
	BatchesTotal     int `json:"batches_total"`
}

// MigrationJob carries everything one migration run needs. All mutable run
// state lives on the job and is guarded by its mutex; operations take and
// return the job explicitly instead of relying on shared globals.
type MigrationJob struct {
	ID         string
	Dataset    *types.Dataset
	Directives []Directive
	BatchSize  int
	Policy     Policy

	// Rejections carries the candidates discarded during mapping validation
	// so the run's audit sequence records them alongside batch events.
	Rejections []mapping.Rejected

	mu        sync.Mutex
	state     State
	cancelled bool
	progress  Progress
}

// NewJob creates a migration job in the Created state.
func NewJob(ds *types.Dataset, ruleset *mapping.RuleSet, batchSize int, policy Policy) (*MigrationJob, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}
	if ruleset == nil || len(ruleset.Rules) == 0 {
		return nil, fmt.Errorf("ruleset is empty")
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	if _, err := ParsePolicy(string(policy)); err != nil {
		return nil, err
	}

	return &MigrationJob{
		ID:         uuid.NewString(),
		Dataset:    ds,
		Directives: BuildDirectives(ruleset),
		BatchSize:  batchSize,
		Policy:     policy,
		state:      StateCreated,
	}, nil
}

// State returns the current job state.
func (j *MigrationJob) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Cancel requests cooperative cancellation. It is safe to call concurrently
// with Run. The running job finishes its in-flight batches and then stops;
// no batch is interrupted mid-write.
func (j *MigrationJob) Cancel() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cancelled = true
}

// Progress returns a snapshot of the job counters.
func (j *MigrationJob) Progress() Progress {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.progress
}

func (j *MigrationJob) cancelRequested() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelled
}

// start transitions Created -> Running. Any other starting state is an error.
func (j *MigrationJob) start(totalBatches int) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.state != StateCreated {
		return fmt.Errorf("job %s cannot start from state %q", j.ID, j.state)
	}
	j.state = StateRunning
	j.progress.BatchesTotal = totalBatches
	return nil
}

// finish transitions Running -> terminal state.
func (j *MigrationJob) finish(state State) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.state = state
}

// recordBatch folds a terminal batch outcome into the job counters.
// Serialized by the job mutex so no update is lost under parallel batches.
func (j *MigrationJob) recordBatch(b *Batch) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.progress.BatchesDone++
	j.progress.RecordsAttempted += b.Size()
	switch b.Outcome {
	case BatchCommitted:
		j.progress.RecordsCommitted += b.Size()
	case BatchFailed, BatchSkipped:
		j.progress.RecordsFailed += b.Size()
	}
}
