package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// readCSV streams a header-mapped CSV into sink.
func readCSV(ctx context.Context, r io.Reader, sink *catalogSink) error {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("csv: empty input")
		}
		return fmt.Errorf("csv header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return err
	}

	var cells [numColumns]string
	for row := 1; ; row++ {
		if row%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("csv row %d: %w", row, err)
		}
		for c, pos := range cols {
			cells[c] = ""
			if pos < len(rec) {
				cells[c] = rec[pos]
			}
		}
		if err := sink.add(row, &cells); err != nil {
			return err
		}
	}
}
