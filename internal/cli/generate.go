package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-tickpipe/internal/generator"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
)

var (
	generateCount       int
	generateBadTickRate float64
	generateSeed        uint64
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one batch of synthetic stock ticks",
	Long: `Generate one batch of synthetic stock ticks and publish it as a new
raw artifact in the staging area. Every invocation writes a uniquely
named file; earlier batches are never overwritten.

Example:
  pgedge-tickpipe generate --count 100
  pgedge-tickpipe generate --count 100 --bad-tick-rate 0.05 --seed 42`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().IntVar(&generateCount, "count", 0,
		"number of ticks per batch")
	generateCmd.Flags().Float64Var(&generateBadTickRate, "bad-tick-rate", 0,
		"probability (0..1) that a tick is published malformed")
	generateCmd.Flags().Uint64Var(&generateSeed, "seed", 0,
		"random seed for reproducible batches (0 = seed from the clock)")
}

// applyGenerateFlags folds generate command flags into the loaded config.
// Shared with the run command, which accepts the same flags.
func applyGenerateFlags() {
	if generateCount > 0 {
		cfg.Generate.Count = generateCount
	}
	if generateBadTickRate > 0 {
		cfg.Generate.BadTickRate = generateBadTickRate
	}
	if generateSeed > 0 {
		cfg.Generate.Seed = generateSeed
	}
}

// generatorConfig maps the loaded config onto a generator config.
func generatorConfig() generator.Config {
	return generator.Config{
		Count:       cfg.Generate.Count,
		Symbols:     cfg.Generate.Symbols,
		Weights:     cfg.Generate.Weights,
		PriceMin:    cfg.Generate.PriceMin,
		PriceMax:    cfg.Generate.PriceMax,
		VolumeMin:   cfg.Generate.VolumeMin,
		VolumeMax:   cfg.Generate.VolumeMax,
		BadTickRate: cfg.Generate.BadTickRate,
		Seed:        cfg.Generate.Seed,
	}
}

func runGenerate(cmd *cobra.Command, args []string) error {
	applyGenerateFlags()

	// Validate configuration
	if err := cfg.ValidateGenerate(); err != nil {
		return err
	}

	area := staging.New(cfg.StagingDir)
	gen, err := generator.New(generatorConfig(), area)
	if err != nil {
		return err
	}

	_, _, err = gen.GenerateBatch(context.Background())
	return err
}
