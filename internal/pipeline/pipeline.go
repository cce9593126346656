// Package pipeline composes the generate, transform, and load stages
// into one flow and schedules repeated runs of it.
package pipeline

import (
	"context"
	"fmt"

	"github.com/pgEdge/pgedge-tickpipe/internal/model"
)

// GeneratorStage publishes one batch of raw ticks into the staging area.
type GeneratorStage interface {
	GenerateBatch(ctx context.Context) (model.RawBatch, string, error)
}

// TransformerStage consolidates staged raw batches into the transformed
// table.
type TransformerStage interface {
	Run(ctx context.Context) (model.TransformResult, error)
}

// LoaderStage applies the transformed table to the persistent store.
type LoaderStage interface {
	Run(ctx context.Context) (model.LoadResult, error)
}

// Summary reports one end-to-end pipeline run.
type Summary struct {
	Ticks     int
	Transform model.TransformResult
	Load      model.LoadResult
}

// Pipeline runs the three stages in order.
type Pipeline struct {
	generator   GeneratorStage
	transformer TransformerStage
	loader      LoaderStage
}

// New composes the stages into a pipeline.
func New(g GeneratorStage, t TransformerStage, l LoaderStage) *Pipeline {
	return &Pipeline{generator: g, transformer: t, loader: l}
}

// RunOnce executes one full generate-transform-load cycle. The first
// failing stage aborts the run; later stages are not attempted.
func (p *Pipeline) RunOnce(ctx context.Context) (Summary, error) {
	var summary Summary

	batch, _, err := p.generator.GenerateBatch(ctx)
	if err != nil {
		return summary, fmt.Errorf("generate stage: %w", err)
	}
	summary.Ticks = len(batch.Ticks)

	summary.Transform, err = p.transformer.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("transform stage: %w", err)
	}

	summary.Load, err = p.loader.Run(ctx)
	if err != nil {
		return summary, fmt.Errorf("load stage: %w", err)
	}

	return summary, nil
}
