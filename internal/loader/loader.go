// Package loader implements the final pipeline stage: applying the
// transformed table to PostgreSQL as one transactional upsert batch.
//
// The upsert is modeled as an explicit two-branch operation on the
// natural key: a batched UPDATE pass first, then a batched INSERT pass
// for the keys the update missed. Both passes run inside a single
// transaction, so a run either commits every record or none of them,
// and re-applying the same table is idempotent.
package loader

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
	"github.com/pgEdge/pgedge-tickpipe/internal/model"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
)

const (
	updateTickSQL = `
        UPDATE tickpipe.stock_ticks
        SET price = $3, volume = $4, pct_change = $5, loaded_at = now()
        WHERE symbol = $1 AND ts = $2
    `

	insertTickSQL = `
        INSERT INTO tickpipe.stock_ticks (symbol, ts, price, volume, pct_change)
        VALUES ($1, $2, $3, $4, $5)
    `
)

// Loader applies transformed tables to the persistent store.
type Loader struct {
	area *staging.Area
	pool *pgxpool.Pool
}

// New returns a loader reading from the given staging area and writing
// through the given pool.
func New(area *staging.Area, pool *pgxpool.Pool) *Loader {
	return &Loader{area: area, pool: pool}
}

// Run reads the transformed table and upserts every record inside one
// transaction. The returned LoadResult reports how many rows were newly
// inserted vs overwritten. Record order does not matter (keys are unique
// within the table); records are applied in table order.
func (l *Loader) Run(ctx context.Context) (model.LoadResult, error) {
	records, err := l.area.ReadTable()
	if err != nil {
		return model.LoadResult{}, fmt.Errorf("load: %w", err)
	}

	if err := EnsureSchema(ctx, l.pool); err != nil {
		return model.LoadResult{}, err
	}

	if len(records) == 0 {
		logging.Info().Msg("Transformed table is empty; nothing to load")
		return model.LoadResult{}, nil
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return model.LoadResult{}, classify("beginning transaction", err)
	}
	defer tx.Rollback(ctx)

	result, err := upsertRecords(ctx, tx, records)
	if err != nil {
		return model.LoadResult{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.LoadResult{}, classify("committing", err)
	}

	logging.Info().
		Int("records", len(records)).
		Int64("inserted", result.Inserted).
		Int64("updated", result.Updated).
		Msg("Loaded transformed table")

	return result, nil
}

// upsertRecords applies the two upsert branches within tx: update
// existing keys, then insert the misses. Counts come from the rows
// affected by each statement.
func upsertRecords(ctx context.Context, tx pgx.Tx, records []model.CleanRecord) (model.LoadResult, error) {
	var result model.LoadResult

	update := &pgx.Batch{}
	for _, rec := range records {
		update.Queue(updateTickSQL,
			rec.Symbol, rec.Timestamp.UTC(), rec.Price, rec.Volume, rec.PctChange)
	}

	var misses []model.CleanRecord
	br := tx.SendBatch(ctx, update)
	for _, rec := range records {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return model.LoadResult{}, classify(fmt.Sprintf("updating %s", rec.Key()), err)
		}
		if tag.RowsAffected() == 0 {
			misses = append(misses, rec)
		} else {
			result.Updated++
		}
	}
	if err := br.Close(); err != nil {
		return model.LoadResult{}, classify("closing update batch", err)
	}

	if len(misses) == 0 {
		return result, nil
	}

	insert := &pgx.Batch{}
	for _, rec := range misses {
		insert.Queue(insertTickSQL,
			rec.Symbol, rec.Timestamp.UTC(), rec.Price, rec.Volume, rec.PctChange)
	}

	br = tx.SendBatch(ctx, insert)
	for _, rec := range misses {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return model.LoadResult{}, classify(fmt.Sprintf("inserting %s", rec.Key()), err)
		}
		result.Inserted += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return model.LoadResult{}, classify("closing insert batch", err)
	}

	return result, nil
}
