package summary

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tablechat/tablechat/internal/dataset"
)

// SampleRows is fixed so the summary stays bounded and byte-identical
// across calls regardless of dataset size.
const SampleRows = 2

// Describe renders the dataset collection as grounding text for the
// model capability: per dataset its id, columns, shape, column types and
// a fixed-size sample. Deterministic for identical input.
func Describe(datasets []dataset.Dataset) string {
	var b strings.Builder
	for _, ds := range datasets {
		b.WriteString(fmt.Sprintf("File: %s\n", ds.ID))
		b.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(ds.Table.ColumnNames(), ", ")))
		b.WriteString(fmt.Sprintf("Shape: %d rows, %d columns\n", ds.Table.Rows(), len(ds.Table.Columns)))

		types := make(map[string]string, len(ds.Table.Columns))
		for _, col := range ds.Table.Columns {
			types[col.Name] = string(col.Type)
		}
		typesJSON, _ := json.Marshal(types)
		b.WriteString(fmt.Sprintf("Data types: %s\n", typesJSON))

		sampleJSON, _ := json.Marshal(sample(ds.Table))
		b.WriteString(fmt.Sprintf("Sample data: %s\n\n", sampleJSON))
	}
	return b.String()
}

func sample(t dataset.Table) []map[string]any {
	count := SampleRows
	if t.Rows() < count {
		count = t.Rows()
	}
	rows := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		record := make(map[string]any, len(t.Columns))
		for _, col := range t.Columns {
			record[col.Name] = cell(col, i)
		}
		rows = append(rows, record)
	}
	return rows
}

func cell(col dataset.Column, i int) any {
	v := col.Values[i]
	if v.Missing {
		return nil
	}
	switch col.Type {
	case dataset.TypeNumeric:
		return v.Num
	case dataset.TypeDatetime:
		return v.Time.Format(dataset.TimeLayout)
	default:
		return v.Str
	}
}
