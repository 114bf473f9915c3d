package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/migrion/internal/config"
	"github.com/dbsmedya/migrion/internal/executor"
	"github.com/dbsmedya/migrion/internal/lock"
	"github.com/dbsmedya/migrion/internal/logger"
	"github.com/dbsmedya/migrion/internal/report"
	"github.com/dbsmedya/migrion/internal/store"
)

var (
	migrateDryRun  bool
	migrateForce   bool
	migrateJSONOut string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run the full migration pipeline against the target database",
	Long: `Migrate profiles the source dataset, validates the mapping candidates,
and executes the migration in batches against the target table.

Batches are written transactionally with bounded retries; committed batches
are never rolled back. Sending SIGINT or SIGTERM stops the job at the next
batch boundary. After the last batch the committed data is verified against
the source (count or checksum, per configuration).

With --dry-run the pipeline runs end to end against an in-memory target, so
mappings and transforms can be exercised without touching the database.

Example:
  migrion migrate --config migrion.yaml --schema customers.json --candidates mappings.json`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().StringVarP(&validateSchemaFile, "schema", "s", "",
		"Target schema JSON file (required)")
	migrateCmd.MarkFlagRequired("schema")

	migrateCmd.Flags().StringVar(&validateCandidatesFile, "candidates", "",
		"Mapping candidates JSON file (default: query the suggestion service)")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false,
		"Execute against an in-memory target instead of the database")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false,
		"Force execution even if the target table lock cannot be acquired")
	migrateCmd.Flags().StringVar(&migrateJSONOut, "json", "",
		"Write the job result as JSON to this file")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(!migrateDryRun)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	ds, _, _, ruleset, rejected, err := validatePipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	if len(rejected) > 0 {
		log.Warnw("Proceeding without rejected candidates", "rejected", len(rejected))
	}

	policy, err := executor.ParsePolicy(cfg.Processing.Policy)
	if err != nil {
		return err
	}

	job, err := executor.NewJob(ds, ruleset, cfg.Processing.BatchSize, policy)
	if err != nil {
		return fmt.Errorf("failed to create migration job: %w", err)
	}
	job.Rejections = rejected

	directives := job.Directives
	target, cleanup, err := openTarget(ctx, cfg, executor.TargetFields(directives), log)
	if err != nil {
		return err
	}
	defer cleanup()

	exec, err := executor.New(target, log,
		executor.OptionsFromConfig(cfg.Processing, cfg.Verification))
	if err != nil {
		return err
	}

	// Stop at the next batch boundary on SIGINT/SIGTERM.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - completing current batch...")
		job.Cancel()
	}()

	result, err := exec.Run(ctx, job)
	if err != nil {
		return fmt.Errorf("migration failed to start: %w", err)
	}

	cmd.Print(report.New(!noColor).Job(result))

	if err := exportJSON(migrateJSONOut, result); err != nil {
		return err
	}

	if result.State == executor.StateFailed {
		return fmt.Errorf("migration job %s failed", result.JobID)
	}
	return nil
}

// openTarget connects the executor to its target store: the configured MySQL
// table, or an in-memory store for dry runs. For real targets it also takes
// an advisory lock on the table so two instances cannot migrate into it
// concurrently.
func openTarget(ctx context.Context, cfg *config.Config, columns []string, log *logger.Logger) (store.TargetStore, func(), error) {
	if migrateDryRun {
		log.Info("Dry run: writing to in-memory target")
		return store.NewMemory(columns), func() {}, nil
	}

	db, err := store.Connect(ctx, &cfg.Target)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to target: %w", err)
	}

	cleanup := func() { db.Close() }
	if !migrateForce {
		tableLock := lock.NewTableLock(db, cfg.Target.Table)
		if err := tableLock.AcquireOrFail(ctx); err != nil {
			db.Close()
			if errors.Is(err, lock.ErrLockTimeout) {
				return nil, nil, fmt.Errorf("table %q is being migrated by another instance (use --force to override)", cfg.Target.Table)
			}
			return nil, nil, fmt.Errorf("failed to acquire table lock: %w", err)
		}
		log.Infow("Acquired advisory lock for target table", "table", cfg.Target.Table)
		cleanup = func() {
			tableLock.Release(context.Background())
			db.Close()
		}
	} else {
		log.Warnw("Skipping advisory lock acquisition (--force flag used)", "table", cfg.Target.Table)
	}

	sqlStore, err := store.NewSQL(db, cfg.Target.Table, columns, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sqlStore, cleanup, nil
}
