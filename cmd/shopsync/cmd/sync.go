package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/shopsync/internal/config"
	"github.com/dbsmedya/shopsync/internal/emit"
	"github.com/dbsmedya/shopsync/internal/extract"
	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/logger"
	"github.com/dbsmedya/shopsync/internal/state"
)

var syncForce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract entity data from the store",
	Long: `Sync discovers extractable entities, derives a record schema for each
from the remote type system, and streams rows to stdout as newline-delimited
JSON messages (SCHEMA, RECORD, STATE).

In the default interactive mode pages are sized adaptively against the
server's cost budget. With --bulk one asynchronous job per entity is
submitted and its result file streamed.

Example:
  shopsync sync --config shopsync.yaml`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncForce, "force", false,
		"Force execution even if the run lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.PollInterval, overrides.PollTimeout, overrides.Bulk)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Infow("Starting sync",
		"store", cfg.Store,
		"api_version", cfg.APIVersion,
		"bulk", cfg.Bulk,
		"config", configFile,
	)

	// Cancellation is cooperative: the context is checked between steps,
	// never mid-sleep.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received signal - stopping after current step")
		cancel()
	}()

	store, err := state.Open(cfg.State.Path, log)
	if err != nil {
		return fmt.Errorf("failed to open state store: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.InitializeTables(ctx); err != nil {
		return err
	}

	if err := store.AcquireRunLock(ctx, cfg.Store); err != nil {
		if errors.Is(err, state.ErrLocked) && syncForce {
			if err := store.ForceReleaseRunLock(ctx, cfg.Store); err != nil {
				return err
			}
			if err := store.AcquireRunLock(ctx, cfg.Store); err != nil {
				return err
			}
		} else if errors.Is(err, state.ErrLocked) {
			return fmt.Errorf("a sync for store %q is already running (use --force to override)", cfg.Store)
		} else {
			return err
		}
	}
	defer func() { _ = store.ReleaseRunLock(context.Background(), cfg.Store) }()

	client := gql.NewClient(cfg, log)
	emitter := emit.NewNDJSON(os.Stdout)

	svc, err := extract.NewService(cfg, client, emitter, store, log)
	if err != nil {
		return err
	}
	if err := svc.Initialize(ctx); err != nil {
		return err
	}

	result, err := svc.Run(ctx)
	if err != nil {
		return err
	}

	log.Infow("Sync finished",
		"duration", result.Duration,
		"entities_synced", result.EntitiesSynced,
		"entities_skipped", result.EntitiesSkipped,
		"records", result.Records,
	)

	return nil
}
