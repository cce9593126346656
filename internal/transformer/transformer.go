// Package transformer implements the second pipeline stage: consolidating
// staged raw tick batches into the normalized, deduplicated transformed
// table.
package transformer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/pgEdge/pgedge-tickpipe/internal/logging"
	"github.com/pgEdge/pgedge-tickpipe/internal/model"
	"github.com/pgEdge/pgedge-tickpipe/internal/staging"
)

// Transformer consolidates raw batches into the transformed table.
type Transformer struct {
	area *staging.Area
}

// New returns a transformer consuming from and publishing to the given
// staging area.
func New(area *staging.Area) *Transformer {
	return &Transformer{area: area}
}

// Run consumes every unconsumed raw artifact, oldest first, and publishes
// the consolidated table at the fixed well-known path. Malformed records
// are dropped and counted, never merged; records sharing a key collapse
// to the later-generated one. Consumed artifacts are archived after a
// successful publish, so a crash in between only causes a harmless
// re-consumption on the next run.
func (t *Transformer) Run(ctx context.Context) (model.TransformResult, error) {
	if err := ctx.Err(); err != nil {
		return model.TransformResult{}, err
	}

	paths, err := t.area.ListRawArtifacts()
	if err != nil {
		return model.TransformResult{}, fmt.Errorf("transform: %w", err)
	}
	if len(paths) == 0 {
		return model.TransformResult{}, fmt.Errorf("transform: %w", staging.ErrNoRawArtifacts)
	}

	index := make(map[model.RecordKey]model.CleanRecord)
	dropped := 0

	for _, path := range paths {
		d, err := t.consumeArtifact(path, index)
		if err != nil {
			return model.TransformResult{}, fmt.Errorf("transform: %w", err)
		}
		dropped += d
	}

	records := make([]model.CleanRecord, 0, len(index))
	for _, rec := range index {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Key().Less(records[j].Key())
	})
	derivePctChange(records)

	if err := t.area.WriteTable(records); err != nil {
		return model.TransformResult{}, fmt.Errorf("transform: %w", err)
	}
	for _, path := range paths {
		if err := t.area.ArchiveRawArtifact(path); err != nil {
			return model.TransformResult{}, fmt.Errorf("transform: %w", err)
		}
	}

	result := model.TransformResult{
		Artifacts: len(paths),
		Rows:      len(records),
		Dropped:   dropped,
	}

	event := logging.Info()
	if result.Dropped > 0 {
		event = logging.Warn()
	}
	event.
		Int("artifacts", result.Artifacts).
		Int("rows", result.Rows).
		Int("dropped", result.Dropped).
		Msg("Published transformed table")

	return result, nil
}

// consumeArtifact folds one raw artifact into the dedup index and returns
// how many of its records were dropped as malformed.
func (t *Transformer) consumeArtifact(path string, index map[model.RecordKey]model.CleanRecord) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening raw artifact: %w", err)
	}
	defer f.Close()

	name := filepath.Base(path)
	dropped := 0

	scanner := bufio.NewScanner(f)
	for line := 1; scanner.Scan(); line++ {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var tick model.RawTick
		if err := json.Unmarshal(raw, &tick); err != nil {
			dropped++
			logging.Debug().
				Str("artifact", name).
				Int("line", line).
				Err(err).
				Msg("Dropping unparseable record")
			continue
		}
		if err := tick.Validate(); err != nil {
			dropped++
			logging.Debug().
				Str("artifact", name).
				Int("line", line).
				Err(err).
				Msg("Dropping malformed record")
			continue
		}

		// Later-generated records win: artifacts arrive oldest first and
		// lines in generation order, so overwriting keeps the last one.
		index[tick.Key()] = model.CleanRecord{
			Symbol:    tick.Symbol,
			Timestamp: tick.Timestamp.UTC(),
			Price:     tick.Price.Round(model.PricePlaces),
			Volume:    tick.Volume,
		}
	}
	if err := scanner.Err(); err != nil {
		return dropped, fmt.Errorf("reading raw artifact %s: %w", name, err)
	}

	return dropped, nil
}

// derivePctChange fills the fractional price change of each record
// against the previous record in the final sorted order. The first record
// is 0.
func derivePctChange(records []model.CleanRecord) {
	for i := range records {
		if i == 0 {
			records[i].PctChange = decimal.Zero
			continue
		}
		prev := records[i-1].Price
		records[i].PctChange = records[i].Price.Sub(prev).Div(prev).Round(model.PctChangePlaces)
	}
}
