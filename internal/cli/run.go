package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-tickpipe/internal/db"
	"github.com/pgEdge/pgedge-tickpipe/internal/generator"
	"github.com/pgEdge/pgedge-tickpipe/internal/loader"
	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
	"github.com/pgEdge/pgedge-tickpipe/internal/pipeline"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
	"github.com/pgEdge/pgedge-tickpipe/internal/transformer"
)

var (
	runInterval int
	runCycles   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline, once or on a schedule",
	Long: `Run the generate, transform, and load stages as one pipeline. With no
interval the pipeline runs once and exits. With --interval it runs on a
fixed schedule until interrupted with Ctrl+C or until --cycles runs have
been launched. An interval that fires while the previous run is still
active is skipped, never queued.

Example:
  pgedge-tickpipe run --count 100
  pgedge-tickpipe run --interval 300
  pgedge-tickpipe run --interval 60 --cycles 10`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runInterval, "interval", 0,
		"seconds between pipeline runs (0 = run once)")
	runCmd.Flags().IntVar(&runCycles, "cycles", 0,
		"number of scheduled runs (0 = run until interrupted)")

	// The run command accepts the generate stage's flags as well.
	runCmd.Flags().IntVar(&generateCount, "count", 0,
		"number of ticks per batch")
	runCmd.Flags().Float64Var(&generateBadTickRate, "bad-tick-rate", 0,
		"probability (0..1) that a tick is published malformed")
	runCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed for reproducible batches (0 = seed from the clock)")
}

func runRun(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	applyGenerateFlags()
	if runInterval > 0 {
		cfg.Run.Interval = runInterval
	}
	if runCycles > 0 {
		cfg.Run.Cycles = runCycles
	}

	// Validate configuration
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	area := staging.New(cfg.StagingDir)
	gen, err := generator.New(generatorConfig(), area)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.Connect(ctx, db.ConnString(cfg))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("staging_dir", cfg.StagingDir).
		Int("interval_seconds", cfg.Run.Interval).
		Int("cycles", cfg.Run.Cycles).
		Msg("Starting pipeline")

	pipe := pipeline.New(gen, transformer.New(area), loader.New(area, pool))
	runner := pipeline.NewRunner(pipe,
		time.Duration(cfg.Run.Interval)*time.Second, cfg.Run.Cycles)

	return runner.Run(ctx)
}
