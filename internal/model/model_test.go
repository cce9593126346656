package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestRawTickValidate(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		tick    RawTick
		wantErr bool
	}{
		{
			name: "valid",
			tick: RawTick{Symbol: "AAPL", Timestamp: ts, Price: decimal.NewFromInt(187), Volume: 1200},
		},
		{
			name:    "missing symbol",
			tick:    RawTick{Timestamp: ts, Price: decimal.NewFromInt(187), Volume: 1200},
			wantErr: true,
		},
		{
			name:    "missing timestamp",
			tick:    RawTick{Symbol: "AAPL", Price: decimal.NewFromInt(187), Volume: 1200},
			wantErr: true,
		},
		{
			name:    "zero price",
			tick:    RawTick{Symbol: "AAPL", Timestamp: ts, Price: decimal.Zero, Volume: 1200},
			wantErr: true,
		},
		{
			name:    "negative price",
			tick:    RawTick{Symbol: "AAPL", Timestamp: ts, Price: decimal.NewFromInt(-1), Volume: 1200},
			wantErr: true,
		},
		{
			name:    "negative volume",
			tick:    RawTick{Symbol: "AAPL", Timestamp: ts, Price: decimal.NewFromInt(187), Volume: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tick.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected valid tick, got error: %v", err)
			}
		})
	}
}

func TestKeyOfNormalizesTimestamps(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	instant := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	a := KeyOf("AAPL", instant)
	b := KeyOf("AAPL", instant.In(loc))

	if a != b {
		t.Errorf("keys for the same instant differ: %v vs %v", a, b)
	}

	seen := map[RecordKey]int{a: 1}
	if seen[b] != 1 {
		t.Error("normalized keys are not usable as map keys")
	}
}

func TestRecordKeyLess(t *testing.T) {
	ts1 := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	ts2 := ts1.Add(time.Millisecond)

	tests := []struct {
		name string
		a, b RecordKey
		want bool
	}{
		{"symbol before timestamp", KeyOf("AAPL", ts2), KeyOf("MSFT", ts1), true},
		{"same symbol earlier ts", KeyOf("AAPL", ts1), KeyOf("AAPL", ts2), true},
		{"same symbol later ts", KeyOf("AAPL", ts2), KeyOf("AAPL", ts1), false},
		{"equal keys", KeyOf("AAPL", ts1), KeyOf("AAPL", ts1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTableRowRoundTrip(t *testing.T) {
	rec := CleanRecord{
		Symbol:    "GOOGL",
		Timestamp: time.Date(2026, 3, 14, 9, 30, 0, 123456000, time.UTC),
		Price:     decimal.RequireFromString("142.50"),
		Volume:    98765,
		PctChange: decimal.RequireFromString("-0.003215"),
	}

	row := rec.TableRow()
	if len(row) != len(TableHeader) {
		t.Fatalf("TableRow() has %d columns, want %d", len(row), len(TableHeader))
	}
	if row[2] != "142.50" {
		t.Errorf("price column = %q, want %q", row[2], "142.50")
	}
	if row[4] != "-0.003215" {
		t.Errorf("pct_change column = %q, want %q", row[4], "-0.003215")
	}

	got, err := RecordFromTableRow(row)
	if err != nil {
		t.Fatalf("RecordFromTableRow() error: %v", err)
	}
	if got.Symbol != rec.Symbol {
		t.Errorf("Symbol = %q, want %q", got.Symbol, rec.Symbol)
	}
	if !got.Timestamp.Equal(rec.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", got.Timestamp, rec.Timestamp)
	}
	if !got.Price.Equal(rec.Price) {
		t.Errorf("Price = %s, want %s", got.Price, rec.Price)
	}
	if got.Volume != rec.Volume {
		t.Errorf("Volume = %d, want %d", got.Volume, rec.Volume)
	}
	if !got.PctChange.Equal(rec.PctChange) {
		t.Errorf("PctChange = %s, want %s", got.PctChange, rec.PctChange)
	}
	if got.Key() != rec.Key() {
		t.Errorf("Key() = %v, want %v", got.Key(), rec.Key())
	}
}

func TestRecordFromTableRowErrors(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"too few columns", []string{"AAPL", "2026-03-14T09:30:00Z", "1.00"}},
		{"bad timestamp", []string{"AAPL", "yesterday", "1.00", "10", "0.000000"}},
		{"bad price", []string{"AAPL", "2026-03-14T09:30:00Z", "cheap", "10", "0.000000"}},
		{"bad volume", []string{"AAPL", "2026-03-14T09:30:00Z", "1.00", "lots", "0.000000"}},
		{"bad pct_change", []string{"AAPL", "2026-03-14T09:30:00Z", "1.00", "10", "n/a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RecordFromTableRow(tt.row); err == nil {
				t.Error("Expected parse error, got nil")
			}
		})
	}
}
