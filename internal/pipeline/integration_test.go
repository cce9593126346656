//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// End-to-end integration test for the full pipeline.
// Run with: go test -tags=integration ./internal/pipeline/...
// Requires PostgreSQL to be available.
// Set TICKPIPE_TEST_CONN environment variable to override connection string.

package pipeline_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-tickpipe/internal/generator"
	"github.com/pgEdge/pgedge-tickpipe/internal/loader"
	"github.com/pgEdge/pgedge-tickpipe/internal/pipeline"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
	"github.com/pgEdge/pgedge-tickpipe/internal/testutil"
	"github.com/pgEdge/pgedge-tickpipe/internal/transformer"
)

func countRows(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(),
		"SELECT count(*) FROM tickpipe.stock_ticks").Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	return n
}

// TestPipelineEndToEnd runs full generate-transform-load cycles against a
// real database and verifies the staged artifacts flow through to rows.
func TestPipelineEndToEnd(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "pipeline")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	area := staging.New(t.TempDir())
	gen, err := generator.New(generator.Config{
		Count:     5,
		Symbols:   []string{"AAA", "BBB"},
		PriceMin:  10,
		PriceMax:  20,
		VolumeMin: 100,
		VolumeMax: 200,
		Seed:      42,
	}, area)
	if err != nil {
		t.Fatalf("generator.New failed: %v", err)
	}

	ld := loader.New(area, pool)
	pipe := pipeline.New(gen, transformer.New(area), ld)
	ctx := context.Background()

	t.Run("FirstCycle", func(t *testing.T) {
		summary, err := pipe.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if summary.Ticks != 5 {
			t.Errorf("Summary.Ticks = %d, want 5", summary.Ticks)
		}
		if summary.Transform.Rows != 5 || summary.Transform.Dropped != 0 {
			t.Errorf("Transform = %+v, want 5 rows, 0 dropped", summary.Transform)
		}
		if summary.Load.Inserted != 5 || summary.Load.Updated != 0 {
			t.Errorf("Load = %+v, want 5 inserted, 0 updated", summary.Load)
		}
		if n := countRows(t, pool); n != 5 {
			t.Errorf("Row count = %d, want 5", n)
		}
	})

	// The first cycle's raw artifacts are archived, so the second cycle
	// transforms only its own batch and every key is new.
	t.Run("SecondCycleInsertsNewKeys", func(t *testing.T) {
		summary, err := pipe.RunOnce(ctx)
		if err != nil {
			t.Fatalf("RunOnce failed: %v", err)
		}
		if summary.Load.Inserted != 5 || summary.Load.Updated != 0 {
			t.Errorf("Load = %+v, want 5 inserted, 0 updated", summary.Load)
		}
		if n := countRows(t, pool); n != 10 {
			t.Errorf("Row count = %d, want 10", n)
		}
	})

	// Re-applying the current table without a new batch updates in place.
	t.Run("ReloadUpdatesInPlace", func(t *testing.T) {
		result, err := ld.Run(ctx)
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if result.Inserted != 0 || result.Updated != 5 {
			t.Errorf("Run = inserted %d updated %d, want 0/5",
				result.Inserted, result.Updated)
		}
		if n := countRows(t, pool); n != 10 {
			t.Errorf("Row count = %d, want 10", n)
		}
	})
}
