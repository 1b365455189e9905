package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tablechat/tablechat/internal/dataset"
)

// FileError reports a single malformed file inside a batch. The rest of
// the batch keeps processing.
type FileError struct {
	File string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("ingest %q: %v", e.File, e.Err) }
func (e *FileError) Unwrap() error { return e.Err }

type File struct {
	Name   string
	Reader io.Reader
}

type Named struct {
	Name  string
	Table dataset.Table
}

// ReadAll parses a batch of CSV files. Malformed files are reported
// per-file and never abort the remaining files.
func ReadAll(files []File) ([]Named, []*FileError) {
	tables := make([]Named, 0, len(files))
	var failures []*FileError
	for _, f := range files {
		table, err := ReadTable(f.Reader)
		if err != nil {
			failures = append(failures, &FileError{File: f.Name, Err: err})
			continue
		}
		tables = append(tables, Named{Name: f.Name, Table: table})
	}
	return tables, failures
}

// ReadTable parses one CSV file. A header row is required. Empty cells
// and common NA markers become missing values; columns where every
// non-missing cell parses as a float are typed numeric, everything else
// is text.
func ReadTable(r io.Reader) (dataset.Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return dataset.Table{}, fmt.Errorf("empty file")
	}
	if err != nil {
		return dataset.Table{}, fmt.Errorf("read header: %w", err)
	}
	if len(header) == 0 {
		return dataset.Table{}, fmt.Errorf("header row is required")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return dataset.Table{}, fmt.Errorf("read rows: %w", err)
	}

	cells := make([][]string, len(header))
	for col := range header {
		cells[col] = make([]string, 0, len(records))
	}
	for _, record := range records {
		for col := range header {
			cells[col] = append(cells[col], record[col])
		}
	}

	columns := make([]dataset.Column, 0, len(header))
	for col, colName := range header {
		columns = append(columns, buildColumn(strings.TrimSpace(colName), cells[col]))
	}
	return dataset.Table{Columns: columns}, nil
}

func buildColumn(name string, raw []string) dataset.Column {
	numeric := false
	for _, cell := range raw {
		if isMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			numeric = false
			break
		}
		numeric = true
	}

	values := make([]dataset.Value, 0, len(raw))
	if numeric {
		for _, cell := range raw {
			if isMissing(cell) {
				values = append(values, dataset.Missing)
				continue
			}
			parsed, _ := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			values = append(values, dataset.Number(parsed))
		}
		return dataset.Column{Name: name, Type: dataset.TypeNumeric, Values: values}
	}

	for _, cell := range raw {
		if isMissing(cell) {
			values = append(values, dataset.Missing)
			continue
		}
		values = append(values, dataset.Text(strings.TrimSpace(cell)))
	}
	return dataset.Column{Name: name, Type: dataset.TypeText, Values: values}
}

func isMissing(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "", "na", "n/a", "nan", "null":
		return true
	default:
		return false
	}
}
