//-------------------------------------------------------------------------
//
// pgEdge Tick Pipeline
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package staging manages the durable artifacts passed between pipeline
// stages: raw tick batches (JSON Lines, one uniquely named file per
// generator run) and the consolidated transformed table (CSV at a fixed
// path, overwritten each run). All writes are atomic publishes; a reader
// never observes a partially written artifact.
package staging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/pgEdge/pgedge-tickpipe/internal/model"
)

const (
	rawSubdir     = "raw"
	archiveSubdir = "archive"
	tableSubdir   = "transformed"

	rawPrefix = "ticks_"
	rawExt    = ".jsonl"

	// TableFileName is the fixed name of the transformed table artifact.
	TableFileName = "stock_ticks.csv"

	// nameTimeFormat renders batch creation time at second resolution for
	// artifact names; the unique suffix disambiguates within one second.
	nameTimeFormat = "20060102T150405Z"
)

// ErrNoRawArtifacts reports that the raw staging directory holds nothing
// to consume.
var ErrNoRawArtifacts = errors.New("no raw artifacts in staging area")

// Area is a staging area rooted at a single directory.
type Area struct {
	root string
}

// New returns a staging area rooted at dir. Directories are created
// lazily on first write.
func New(dir string) *Area {
	return &Area{root: dir}
}

// RawDir is the directory holding unconsumed raw batch artifacts.
func (a *Area) RawDir() string {
	return filepath.Join(a.root, rawSubdir)
}

// ArchiveDir is the directory consumed raw artifacts are moved into.
func (a *Area) ArchiveDir() string {
	return filepath.Join(a.root, rawSubdir, archiveSubdir)
}

// TablePath is the fixed location of the transformed table artifact.
func (a *Area) TablePath() string {
	return filepath.Join(a.root, tableSubdir, TableFileName)
}

// rawArtifactName builds a unique artifact name from the batch creation
// time. Collisions within the same second are resolved by the suffix
// rather than by timing.
func rawArtifactName(createdAt time.Time) string {
	suffix := uuid.NewString()[:8]
	return rawPrefix + createdAt.UTC().Format(nameTimeFormat) + "_" + suffix + rawExt
}

// WriteRawBatch publishes the batch as a new raw artifact and returns its
// path. The artifact becomes visible only once fully written.
func (a *Area) WriteRawBatch(batch model.RawBatch) (string, error) {
	createdAt := batch.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	for i, tick := range batch.Ticks {
		line, err := json.Marshal(tick)
		if err != nil {
			return "", fmt.Errorf("encoding tick %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if err := os.MkdirAll(a.RawDir(), 0o755); err != nil {
		return "", fmt.Errorf("creating raw staging directory: %w", err)
	}

	path := filepath.Join(a.RawDir(), rawArtifactName(createdAt))
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("publishing raw artifact: %w", err)
	}
	return path, nil
}

// ListRawArtifacts returns the unconsumed raw artifact paths in name
// order, which is chronological order because names embed the creation
// time. A missing raw directory means no artifacts, not an error.
func (a *Area) ListRawArtifacts() ([]string, error) {
	entries, err := os.ReadDir(a.RawDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading raw staging directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, rawPrefix) || !strings.HasSuffix(name, rawExt) {
			continue
		}
		paths = append(paths, filepath.Join(a.RawDir(), name))
	}
	return paths, nil
}

// ArchiveRawArtifact moves a consumed artifact into the archive so the
// next run does not reprocess it.
func (a *Area) ArchiveRawArtifact(path string) error {
	if err := os.MkdirAll(a.ArchiveDir(), 0o755); err != nil {
		return fmt.Errorf("creating archive directory: %w", err)
	}
	dest := filepath.Join(a.ArchiveDir(), filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("archiving %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteTable publishes records as the transformed table, atomically
// replacing any previous table.
func (a *Area) WriteTable(records []model.CleanRecord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(model.TableHeader); err != nil {
		return fmt.Errorf("encoding table header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rec.TableRow()); err != nil {
			return fmt.Errorf("encoding record %s: %w", rec.Key(), err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding table: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(a.TablePath()), 0o755); err != nil {
		return fmt.Errorf("creating transformed staging directory: %w", err)
	}
	if err := renameio.WriteFile(a.TablePath(), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("publishing transformed table: %w", err)
	}
	return nil
}

// ReadTable reads the transformed table artifact.
func (a *Area) ReadTable() ([]model.CleanRecord, error) {
	f, err := os.Open(a.TablePath())
	if err != nil {
		return nil, fmt.Errorf("opening transformed table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading table header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(model.TableHeader, ",") {
		return nil, fmt.Errorf("unexpected table header %v", header)
	}

	var records []model.CleanRecord
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading table: %w", err)
		}
		rec, err := model.RecordFromTableRow(row)
		if err != nil {
			return nil, fmt.Errorf("table line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
