// Package generator implements the first pipeline stage: fabricating a
// batch of synthetic stock ticks and publishing it as a raw staging
// artifact.
package generator

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-tickpipe/internal/datagen"
	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
	"github.com/pgEdge/pgedge-tickpipe/internal/model"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
)

// Config controls one generator instance.
type Config struct {
	// Count is the number of ticks per batch.
	Count int

	// Symbols is the universe ticks draw their symbol from. Weights,
	// when non-empty, skews the draw and must be parallel to Symbols.
	Symbols []string
	Weights []int

	// PriceMin and PriceMax bound the generated price.
	PriceMin float64
	PriceMax float64

	// VolumeMin and VolumeMax bound the generated volume.
	VolumeMin int64
	VolumeMax int64

	// BadTickRate is the probability that a tick is published with a
	// zero price, for exercising downstream validation.
	BadTickRate float64

	// Seed fixes the random source (0 = seed from the clock).
	Seed uint64
}

// Generator fabricates raw tick batches.
type Generator struct {
	cfg   Config
	faker *datagen.Faker
	area  *staging.Area

	// Now supplies the batch creation time. Overridable for
	// reproducible batches.
	Now func() time.Time
}

// New returns a generator publishing to the given staging area.
func New(cfg Config, area *staging.Area) (*Generator, error) {
	if cfg.Count < 1 {
		return nil, fmt.Errorf("count must be at least 1")
	}
	if len(cfg.Symbols) == 0 {
		return nil, fmt.Errorf("symbol universe must not be empty")
	}
	if len(cfg.Weights) > 0 && len(cfg.Weights) != len(cfg.Symbols) {
		return nil, fmt.Errorf("weights must be parallel to symbols")
	}

	faker := datagen.NewFaker()
	if cfg.Seed != 0 {
		faker = datagen.NewFakerWithSeed(cfg.Seed)
	}

	return &Generator{
		cfg:   cfg,
		faker: faker,
		area:  area,
		Now:   time.Now,
	}, nil
}

// GenerateBatch draws one batch of ticks and publishes it as a new raw
// artifact. Every tick shares the batch creation time; logical
// timestamps are offset by the tick's index in milliseconds so keys
// within a batch stay distinct and reproducible.
func (g *Generator) GenerateBatch(ctx context.Context) (model.RawBatch, string, error) {
	if err := ctx.Err(); err != nil {
		return model.RawBatch{}, "", err
	}

	batchTime := g.Now().UTC()
	ticks := make([]model.RawTick, 0, g.cfg.Count)
	bad := 0

	for i := 0; i < g.cfg.Count; i++ {
		tick := model.RawTick{
			Symbol:    g.pickSymbol(),
			Timestamp: batchTime.Add(time.Duration(i) * time.Millisecond),
			Price:     g.faker.Price(g.cfg.PriceMin, g.cfg.PriceMax),
			Volume:    g.faker.Int64(g.cfg.VolumeMin, g.cfg.VolumeMax),
		}
		if g.faker.Chance(g.cfg.BadTickRate) {
			tick.Price = decimal.Zero
			bad++
		}
		ticks = append(ticks, tick)
	}

	batch := model.RawBatch{CreatedAt: batchTime, Ticks: ticks}
	path, err := g.area.WriteRawBatch(batch)
	if err != nil {
		return model.RawBatch{}, "", fmt.Errorf("generate: %w", err)
	}

	logging.Info().
		Int("ticks", len(ticks)).
		Int("bad_ticks", bad).
		Str("artifact", filepath.Base(path)).
		Msg("Generated raw batch")

	return batch, path, nil
}

func (g *Generator) pickSymbol() string {
	if len(g.cfg.Weights) > 0 {
		return datagen.ChooseWeighted(g.faker, g.cfg.Symbols, g.cfg.Weights)
	}
	return datagen.Choose(g.faker, g.cfg.Symbols)
}
