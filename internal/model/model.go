// Package model defines the record types passed between pipeline stages.
package model

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// PricePlaces is the fixed decimal precision for normalized prices.
const PricePlaces = 2

// PctChangePlaces is the fixed decimal precision for the derived
// pct_change column.
const PctChangePlaces = 6

// RawTick is one synthetic price observation as written by the generator.
// Immutable once persisted; consumed by the transformer.
type RawTick struct {
	Symbol    string          `json:"symbol"`
	Timestamp time.Time       `json:"ts"`
	Price     decimal.Decimal `json:"price"`
	Volume    int64           `json:"volume"`
}

// Validate reports why a tick is malformed, or nil if it is well formed.
func (t RawTick) Validate() error {
	if t.Symbol == "" {
		return fmt.Errorf("missing symbol")
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("non-positive price %s", t.Price)
	}
	if t.Volume < 0 {
		return fmt.Errorf("negative volume %d", t.Volume)
	}
	return nil
}

// Key returns the natural key of the tick.
func (t RawTick) Key() RecordKey {
	return KeyOf(t.Symbol, t.Timestamp)
}

// RawBatch is the ordered output of one generator invocation, persisted
// as a single staging artifact.
type RawBatch struct {
	CreatedAt time.Time
	Ticks     []RawTick
}

// RecordKey is the natural key (symbol, timestamp) identifying a record
// across the transformed table and the persistent store.
type RecordKey struct {
	Symbol    string
	Timestamp time.Time
}

// KeyOf builds a RecordKey with the timestamp normalized to UTC and
// stripped of any monotonic reading, so keys compare correctly with ==
// and may be used as map keys.
func KeyOf(symbol string, ts time.Time) RecordKey {
	return RecordKey{Symbol: symbol, Timestamp: ts.UTC().Round(0)}
}

// Less orders keys by symbol, then timestamp.
func (k RecordKey) Less(other RecordKey) bool {
	if k.Symbol != other.Symbol {
		return k.Symbol < other.Symbol
	}
	return k.Timestamp.Before(other.Timestamp)
}

func (k RecordKey) String() string {
	return k.Symbol + "@" + k.Timestamp.Format(time.RFC3339Nano)
}

// CleanRecord is the normalized, validated form of a RawTick plus the
// derived pct_change column. Within one transformed table, Key() is unique.
type CleanRecord struct {
	Symbol    string
	Timestamp time.Time
	Price     decimal.Decimal
	Volume    int64
	PctChange decimal.Decimal
}

// Key returns the natural key of the record.
func (r CleanRecord) Key() RecordKey {
	return KeyOf(r.Symbol, r.Timestamp)
}

// TableHeader is the header row of the transformed table artifact.
var TableHeader = []string{"symbol", "ts", "price", "volume", "pct_change"}

// TableRow renders the record as one CSV row of the transformed table.
func (r CleanRecord) TableRow() []string {
	return []string{
		r.Symbol,
		r.Timestamp.UTC().Format(time.RFC3339Nano),
		r.Price.StringFixed(PricePlaces),
		strconv.FormatInt(r.Volume, 10),
		r.PctChange.StringFixed(PctChangePlaces),
	}
}

// RecordFromTableRow parses one CSV row of the transformed table.
func RecordFromTableRow(row []string) (CleanRecord, error) {
	if len(row) != len(TableHeader) {
		return CleanRecord{}, fmt.Errorf("expected %d columns, got %d", len(TableHeader), len(row))
	}

	ts, err := time.Parse(time.RFC3339Nano, row[1])
	if err != nil {
		return CleanRecord{}, fmt.Errorf("invalid timestamp %q: %w", row[1], err)
	}
	price, err := decimal.NewFromString(row[2])
	if err != nil {
		return CleanRecord{}, fmt.Errorf("invalid price %q: %w", row[2], err)
	}
	volume, err := strconv.ParseInt(row[3], 10, 64)
	if err != nil {
		return CleanRecord{}, fmt.Errorf("invalid volume %q: %w", row[3], err)
	}
	pctChange, err := decimal.NewFromString(row[4])
	if err != nil {
		return CleanRecord{}, fmt.Errorf("invalid pct_change %q: %w", row[4], err)
	}

	return CleanRecord{
		Symbol:    row[0],
		Timestamp: ts.UTC(),
		Price:     price,
		Volume:    volume,
		PctChange: pctChange,
	}, nil
}

// TransformResult reports one transformer run.
type TransformResult struct {
	Artifacts int
	Rows      int
	Dropped   int
}

// LoadResult reports how many rows one loader run inserted vs updated.
type LoadResult struct {
	Inserted int64
	Updated  int64
}
