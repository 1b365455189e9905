package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/tablechat/tablechat/internal/dataset"
)

func salesDataset() dataset.Dataset {
	return dataset.Dataset{
		ID: "sales.csv",
		Table: dataset.Table{Columns: []dataset.Column{
			{Name: "region", Type: dataset.TypeText, Values: []dataset.Value{dataset.Text("east")}},
			{Name: "sales", Type: dataset.TypeNumeric, Values: []dataset.Value{dataset.Number(10)}},
			{Name: "team", Type: dataset.TypeText, Values: []dataset.Value{dataset.Text("a")}},
			{Name: "headcount", Type: dataset.TypeNumeric, Values: []dataset.Value{dataset.Number(4)}},
		}},
	}
}

func TestResolveFamilies(t *testing.T) {
	cases := []struct {
		family    string
		want      Family
		wantColor string
		wantSize  string
	}{
		{"bar", FamilyBar, "team", ""},
		{"line", FamilyLine, "team", ""},
		{"scatter", FamilyScatter, "team", "headcount"},
		{"pie", FamilyPie, "", ""},
	}
	for _, tc := range cases {
		spec, err := Resolve(salesDataset(), Request{
			Family: tc.family,
			X:      "region",
			Y:      "sales",
			Color:  "team",
			Size:   "headcount",
		})
		if err != nil {
			t.Fatalf("%s: Resolve() error = %v", tc.family, err)
		}
		if spec.Family != tc.want {
			t.Fatalf("%s: family = %s", tc.family, spec.Family)
		}
		if spec.Color != tc.wantColor || spec.Size != tc.wantSize {
			t.Fatalf("%s: color = %q, size = %q", tc.family, spec.Color, spec.Size)
		}
		if spec.Height != DisplayHeight {
			t.Fatalf("%s: height = %d", tc.family, spec.Height)
		}
	}
}

func TestResolveUnknownFamilyFallsBackToBar(t *testing.T) {
	spec, err := Resolve(salesDataset(), Request{Family: "radar", X: "region", Y: "sales"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec.Family != FamilyBar {
		t.Fatalf("family = %s", spec.Family)
	}
	if spec.Title != "Bar Chart" {
		t.Fatalf("title = %q", spec.Title)
	}
}

func TestResolveMissingFieldNamesTheField(t *testing.T) {
	_, err := Resolve(salesDataset(), Request{Family: "bar", X: "region"})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("error = %v, want ErrMissingField", err)
	}
	if !strings.Contains(err.Error(), "y_column") {
		t.Fatalf("error %q does not name y_column", err)
	}

	_, err = Resolve(salesDataset(), Request{Family: "bar", Y: "sales"})
	if !errors.Is(err, ErrMissingField) || !strings.Contains(err.Error(), "x_column") {
		t.Fatalf("error = %v, want ErrMissingField naming x_column", err)
	}
}

func TestResolveRejectsUnknownColumn(t *testing.T) {
	_, err := Resolve(salesDataset(), Request{Family: "bar", X: "region", Y: "revenue"})
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("error = %v, want ErrUnknownColumn", err)
	}
}

func TestResolveKeepsExplicitTitle(t *testing.T) {
	spec, err := Resolve(salesDataset(), Request{Family: "line", X: "region", Y: "sales", Title: "Sales by Region"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec.Title != "Sales by Region" {
		t.Fatalf("title = %q", spec.Title)
	}
}
