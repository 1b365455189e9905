package archive

import (
	"bytes"
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/tablechat/tablechat/internal/dataset"
)

// EncodeParquet serializes a dataset with a schema derived from its
// columns: numeric columns become doubles, everything else becomes
// strings (datetimes rendered in the canonical layout). Missing cells
// are written as nulls.
func EncodeParquet(ds dataset.Dataset) ([]byte, error) {
	if len(ds.Table.Columns) == 0 {
		return nil, fmt.Errorf("dataset %q has no columns", ds.ID)
	}

	fields := parquet.Group{}
	for _, col := range ds.Table.Columns {
		switch col.Type {
		case dataset.TypeNumeric:
			fields[col.Name] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		default:
			fields[col.Name] = parquet.Optional(parquet.String())
		}
	}
	schema := parquet.NewSchema(ds.ID, fields)

	rowCount := ds.Table.Rows()
	rows := make([]map[string]any, 0, rowCount)
	for i := 0; i < rowCount; i++ {
		row := make(map[string]any, len(ds.Table.Columns))
		for _, col := range ds.Table.Columns {
			v := col.Values[i]
			if v.Missing {
				continue
			}
			switch col.Type {
			case dataset.TypeNumeric:
				row[col.Name] = v.Num
			case dataset.TypeDatetime:
				row[col.Name] = v.Time.Format(dataset.TimeLayout)
			default:
				row[col.Name] = v.Str
			}
		}
		rows = append(rows, row)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return nil, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close parquet writer: %w", err)
	}
	return buf.Bytes(), nil
}
