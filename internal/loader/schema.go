//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package loader

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema SQL for the persistent tick table. The primary key (symbol, ts)
// is the natural record key the upsert branches on; loaded_at tracks the
// last time a row was written by either branch.
const createSchemaSQL = `
CREATE SCHEMA IF NOT EXISTS tickpipe;

CREATE TABLE IF NOT EXISTS tickpipe.stock_ticks (
    symbol      VARCHAR(10)    NOT NULL,
    ts          TIMESTAMPTZ    NOT NULL,
    price       NUMERIC(12,2)  NOT NULL CHECK (price > 0),
    volume      BIGINT         NOT NULL CHECK (volume >= 0),
    pct_change  NUMERIC(14,6)  NOT NULL DEFAULT 0,
    loaded_at   TIMESTAMPTZ    NOT NULL DEFAULT now(),
    PRIMARY KEY (symbol, ts)
);
`

// EnsureSchema creates the tick schema and table if they do not exist.
// It never drops or rewrites existing objects; rows accumulated by
// earlier runs survive.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, createSchemaSQL)
	if err != nil {
		return classify("ensuring schema", err)
	}
	return nil
}
