package ingest

import (
	"strings"
	"testing"

	"github.com/tablechat/tablechat/internal/dataset"
)

func TestReadTableTypesColumns(t *testing.T) {
	table, err := ReadTable(strings.NewReader("age,city\n31,NYC\n28,LA\n"))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if table.Rows() != 2 || len(table.Columns) != 2 {
		t.Fatalf("shape = (%d, %d)", table.Rows(), len(table.Columns))
	}
	if table.Columns[0].Type != dataset.TypeNumeric {
		t.Fatalf("age type = %s", table.Columns[0].Type)
	}
	if table.Columns[1].Type != dataset.TypeText {
		t.Fatalf("city type = %s", table.Columns[1].Type)
	}
	if table.Columns[0].Values[0].Num != 31 {
		t.Fatalf("age[0] = %v", table.Columns[0].Values[0])
	}
}

func TestReadTableMissingMarkers(t *testing.T) {
	// The blank line is skipped entirely, not read as a missing cell.
	table, err := ReadTable(strings.NewReader("sales\n10\n\nNA\nnull\n3.5\n"))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	col := table.Columns[0]
	if col.Type != dataset.TypeNumeric {
		t.Fatalf("type = %s", col.Type)
	}
	if len(col.Values) != 4 {
		t.Fatalf("rows = %d", len(col.Values))
	}
	if col.MissingCount() != 2 {
		t.Fatalf("missing = %d", col.MissingCount())
	}
}

func TestReadTableAllMissingColumnIsText(t *testing.T) {
	table, err := ReadTable(strings.NewReader("a,b\n1,\n2,NA\n"))
	if err != nil {
		t.Fatalf("ReadTable() error = %v", err)
	}
	if table.Columns[1].Type != dataset.TypeText {
		t.Fatalf("all-missing column type = %s", table.Columns[1].Type)
	}
}

func TestReadTableRequiresHeader(t *testing.T) {
	if _, err := ReadTable(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestReadTableRejectsRaggedRows(t *testing.T) {
	if _, err := ReadTable(strings.NewReader("a,b\n1,2\n3\n")); err == nil {
		t.Fatal("expected error for ragged rows")
	}
}

func TestReadAllContinuesPastBadFile(t *testing.T) {
	files := []File{
		{Name: "good.csv", Reader: strings.NewReader("x\n1\n")},
		{Name: "bad.csv", Reader: strings.NewReader("a,b\n1\n")},
		{Name: "also_good.csv", Reader: strings.NewReader("y\nfoo\n")},
	}

	tables, failures := ReadAll(files)
	if len(tables) != 2 {
		t.Fatalf("tables = %d", len(tables))
	}
	if tables[0].Name != "good.csv" || tables[1].Name != "also_good.csv" {
		t.Fatalf("table names = %q, %q", tables[0].Name, tables[1].Name)
	}
	if len(failures) != 1 || failures[0].File != "bad.csv" {
		t.Fatalf("failures = %v", failures)
	}
}
