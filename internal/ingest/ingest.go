// Package ingest loads NEO datasets into a catalog.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/neodex/internal/domain"
	"github.com/kailas-cloud/neodex/internal/domain/caldate"
	"github.com/kailas-cloud/neodex/internal/domain/neo"
	"github.com/kailas-cloud/neodex/internal/logger"
	"github.com/kailas-cloud/neodex/internal/metrics"
	"github.com/kailas-cloud/neodex/internal/repository/catalog"
)

// ctxCheckEvery is how many rows are read between cancellation checks.
const ctxCheckEvery = 1024

// Dataset columns. Every column is required.
const (
	colID = iota
	colName
	colDiameterMin
	colDiameterMax
	colHazardous
	colSpeed
	colMissDistance
	colDate
	colOrbitingBody
	numColumns
)

var columnNames = [numColumns]string{
	colID:           "id",
	colName:         "name",
	colDiameterMin:  "estimated_diameter_min_kilometers",
	colDiameterMax:  "estimated_diameter_max_kilometers",
	colHazardous:    "is_potentially_hazardous_asteroid",
	colSpeed:        "kilometers_per_hour",
	colMissDistance: "miss_distance_kilometers",
	colDate:         "close_approach_date",
	colOrbitingBody: "orbiting_body",
}

// Columns returns the required dataset column names in canonical order.
func Columns() []string {
	out := make([]string, numColumns)
	copy(out, columnNames[:])
	return out
}

// columnIndex maps each required column to its position in the source.
type columnIndex [numColumns]int

// resolveColumns finds every required column in names.
func resolveColumns(names []string) (columnIndex, error) {
	var idx columnIndex
	for i := range idx {
		idx[i] = -1
	}
	for pos, n := range names {
		n = strings.TrimSpace(strings.TrimPrefix(n, "\ufeff"))
		for c, want := range columnNames {
			if n == want {
				idx[c] = pos
			}
		}
	}
	var missing []string
	for c, pos := range idx {
		if pos < 0 {
			missing = append(missing, columnNames[c])
		}
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: missing columns %s", domain.ErrMalformedRecord, strings.Join(missing, ", "))
	}
	return idx, nil
}

// Stats summarizes a load.
type Stats struct {
	Format   Format
	Rows     int
	Objects  int
	Dates    int
	Duration time.Duration
}

// Loader reads datasets from local files or S3 into a catalog.
type Loader struct {
	s3 S3Config
}

// NewLoader creates a loader. s3 is only needed for s3:// sources.
func NewLoader(s3 S3Config) *Loader {
	return &Loader{s3: s3}
}

// Load reads every row at uri into cat: one UpsertObject and one RecordApproach per row,
// in row order. A malformed row aborts the load with an error naming the row.
func (l *Loader) Load(ctx context.Context, uri string, cat *catalog.Catalog) (Stats, error) {
	if uri == "" {
		return Stats{}, fmt.Errorf("%w: no dataset path provided", domain.ErrConfiguration)
	}
	if cat == nil {
		return Stats{}, errors.New("load: nil catalog")
	}

	ctx = logger.With(ctx, zap.String("uri", uri))
	start := time.Now()
	src, err := l.open(ctx, uri)
	if err != nil {
		return Stats{}, err
	}
	defer func() { _ = src.Close() }()

	sink := &catalogSink{cat: cat}
	switch src.format {
	case FormatCSV:
		err = readCSV(ctx, src.r, sink)
	case FormatParquet:
		err = readParquet(ctx, src, sink)
	}
	metrics.IngestRowsTotal.WithLabelValues(string(src.format)).Add(float64(sink.rows))
	if err != nil {
		return Stats{}, fmt.Errorf("load %s: %w", uri, err)
	}

	stats := Stats{
		Format:   src.format,
		Rows:     sink.rows,
		Objects:  cat.Len(),
		Dates:    cat.DateCount(),
		Duration: time.Since(start),
	}
	logger.FromContext(ctx).Info("dataset loaded",
		zap.String("format", string(stats.Format)),
		zap.String("compression", string(src.compression)),
		zap.Int("rows", stats.Rows),
		zap.Int("objects", stats.Objects),
		zap.Int("dates", stats.Dates),
		zap.Duration("duration", stats.Duration),
	)
	return stats, nil
}

// catalogSink turns raw rows into catalog entries.
type catalogSink struct {
	cat  *catalog.Catalog
	rows int
}

// add parses one row of cells (indexed by column) and records it. row is 1-based.
func (s *catalogSink) add(row int, cells *[numColumns]string) error {
	attrs, approach, err := parseRow(cells)
	if err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	o := s.cat.UpsertObject(attrs)
	if err := s.cat.RecordApproach(o, approach); err != nil {
		return fmt.Errorf("row %d: %w", row, err)
	}
	s.rows++
	return nil
}

func parseRow(cells *[numColumns]string) (neo.Attributes, neo.Approach, error) {
	name := strings.TrimSpace(cells[colName])
	if name == "" {
		return neo.Attributes{}, neo.Approach{}, fmt.Errorf("%w: empty name", domain.ErrMalformedRecord)
	}

	var nums [numColumns]float64
	for _, c := range []int{colDiameterMin, colDiameterMax, colSpeed, colMissDistance} {
		v, err := strconv.ParseFloat(strings.TrimSpace(cells[c]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return neo.Attributes{}, neo.Approach{}, fmt.Errorf("%w: %s %q is not a finite number",
				domain.ErrMalformedRecord, columnNames[c], cells[c])
		}
		nums[c] = v
	}

	hazardous, err := strconv.ParseBool(strings.TrimSpace(cells[colHazardous]))
	if err != nil {
		return neo.Attributes{}, neo.Approach{}, fmt.Errorf("%w: %s %q is not a boolean",
			domain.ErrMalformedRecord, columnNames[colHazardous], cells[colHazardous])
	}

	date, err := caldate.ParseRecord(strings.TrimSpace(cells[colDate]))
	if err != nil {
		return neo.Attributes{}, neo.Approach{}, fmt.Errorf("%s: %w", columnNames[colDate], err)
	}

	attrs := neo.Attributes{
		ID:            strings.TrimSpace(cells[colID]),
		Name:          name,
		DiameterMinKm: nums[colDiameterMin],
		DiameterMaxKm: nums[colDiameterMax],
		Hazardous:     hazardous,
	}
	approach := neo.NewApproach(name, nums[colSpeed], nums[colMissDistance], date,
		strings.TrimSpace(cells[colOrbitingBody]))
	return attrs, approach, nil
}
