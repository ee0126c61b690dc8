package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"exoseeker/internal/common"
	"exoseeker/internal/features"
	"exoseeker/internal/label"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// LoadStats describes what happened to the raw rows of a file.
type LoadStats struct {
	RawRows        int
	DroppedMissing int
}

// Loader reads mission datasets from <dir>/<mission>/<mission>_data_treated.csv
// and caches each one for the loader's lifetime.
type Loader struct {
	dir   string
	mu    sync.Mutex
	cache map[string]*Dataset
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{
		dir:   dir,
		cache: make(map[string]*Dataset),
	}
}

// Path returns the file path of a mission dataset.
func (l *Loader) Path(mission string) string {
	return filepath.Join(l.dir, mission, mission+common.DatasetFileSuffix)
}

// Load returns the dataset for a mission, reading it on first use.
func (l *Loader) Load(mission string) (*Dataset, error) {
	if !common.IsMission(mission) {
		return nil, &DataLoadError{Mission: mission, Err: fmt.Errorf("unknown mission")}
	}

	l.mu.Lock()
	if ds, ok := l.cache[mission]; ok {
		l.mu.Unlock()
		return ds, nil
	}
	l.mu.Unlock()

	path := l.Path(mission)
	file, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Mission: mission, Path: path, Err: err}
	}
	defer file.Close()

	ds, st, err := ReadCSV(mission, file)
	if err != nil {
		return nil, &DataLoadError{Mission: mission, Path: path, Err: err}
	}

	log.Info().
		Str("mission", mission).
		Str("file", path).
		Int("raw_rows", st.RawRows).
		Int("dropped_missing", st.DroppedMissing).
		Int("rows", ds.Len()).
		Msg("Dataset loaded")

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, ok := l.cache[mission]; ok {
		return cached, nil
	}
	l.cache[mission] = ds
	return ds, nil
}

// LoadAll loads every mission concurrently and fails on the first error.
func (l *Loader) LoadAll(ctx context.Context) (map[string]*Dataset, error) {
	g, ctx := errgroup.WithContext(ctx)
	results := make([]*Dataset, len(common.Missions))

	for i, mission := range common.Missions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := l.Load(mission)
			if err != nil {
				return err
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*Dataset, len(results))
	for i, mission := range common.Missions {
		out[mission] = results[i]
	}
	return out, nil
}

// ReadCSV parses a mission table. The header must contain the label column and
// every feature column; rows with an empty or non-numeric feature are dropped.
func ReadCSV(mission string, r io.Reader) (*Dataset, LoadStats, error) {
	var st LoadStats
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, st, fmt.Errorf("failed to read CSV header: %w", err)
	}

	labelIdx := -1
	featIdx := [features.Count]int{}
	for i := range featIdx {
		featIdx[i] = -1
	}
	for i, col := range header {
		col = strings.TrimSpace(strings.ToLower(col))
		if col == common.LabelColumn {
			labelIdx = i
			continue
		}
		if j := features.Index(col); j >= 0 {
			featIdx[j] = i
		}
	}
	if labelIdx < 0 {
		return nil, st, fmt.Errorf("missing %q column", common.LabelColumn)
	}
	for j, idx := range featIdx {
		if idx < 0 {
			return nil, st, fmt.Errorf("missing %q column", features.Names[j])
		}
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, st, fmt.Errorf("failed to read CSV row %d: %w", st.RawRows+1, err)
		}
		st.RawRows++

		row, ok := parseRow(record, labelIdx, featIdx)
		if !ok {
			st.DroppedMissing++
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, st, fmt.Errorf("no usable rows")
	}
	return &Dataset{Mission: mission, rows: rows}, st, nil
}

func parseRow(record []string, labelIdx int, featIdx [features.Count]int) (Row, bool) {
	var row Row
	if labelIdx >= len(record) {
		return row, false
	}
	for j, idx := range featIdx {
		if idx >= len(record) {
			return row, false
		}
		raw := strings.TrimSpace(record[idx])
		if raw == "" {
			return row, false
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v != v {
			return row, false
		}
		row.Features[j] = v
	}

	row.Label = label.Normalize(record[labelIdx])
	return row, row.Label.Valid()
}
