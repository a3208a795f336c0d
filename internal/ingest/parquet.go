package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// parquetBatch is the number of rows read per ReadRows call.
const parquetBatch = 1000

// readParquet reads every row group of a parquet dataset into sink.
// Local uncompressed files are read in place; other sources are buffered.
func readParquet(ctx context.Context, src *source, sink *catalogSink) error {
	ra, size, err := readerAt(src)
	if err != nil {
		return err
	}
	pf, err := parquet.OpenFile(ra, size)
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	names := make([]string, 0, len(pf.Schema().Columns()))
	for _, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			names = append(names, "")
			continue
		}
		names = append(names, path[0])
	}
	cols, err := resolveColumns(names)
	if err != nil {
		return err
	}
	// leaf column index -> dataset column
	byLeaf := make(map[int]int, numColumns)
	for c, leaf := range cols {
		byLeaf[leaf] = c
	}

	row := 0
	buf := make([]parquet.Row, parquetBatch)
	var cells [numColumns]string
	for _, rg := range pf.RowGroups() {
		rows := parquet.NewRowGroupReader(rg)
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				row++
				cells = [numColumns]string{}
				for _, v := range buf[i] {
					if c, ok := byLeaf[v.Column()]; ok {
						cells[c] = valueText(v)
					}
				}
				if err := sink.add(row, &cells); err != nil {
					return err
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return nil
}

// valueText renders a parquet leaf value in the text form the row parser expects.
func valueText(v parquet.Value) string {
	if v.IsNull() {
		return ""
	}
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'g', -1, 64)
	default:
		return v.String()
	}
}

func readerAt(src *source) (io.ReaderAt, int64, error) {
	if f, ok := src.r.(*os.File); ok {
		stat, err := f.Stat()
		if err != nil {
			return nil, 0, fmt.Errorf("stat: %w", err)
		}
		return f, stat.Size(), nil
	}
	data, err := io.ReadAll(src.r)
	if err != nil {
		return nil, 0, fmt.Errorf("buffer parquet: %w", err)
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
