package chart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tablechat/tablechat/internal/dataset"
)

var (
	ErrMissingField  = errors.New("chart: missing required field")
	ErrUnknownColumn = errors.New("chart: unknown column")
)

type Family string

const (
	FamilyBar     Family = "bar"
	FamilyLine    Family = "line"
	FamilyScatter Family = "scatter"
	FamilyPie     Family = "pie"
)

// DisplayHeight is fixed; sizing beyond it belongs to the renderer.
const DisplayHeight = 500

type Request struct {
	Family    string
	DatasetID string
	X         string
	Y         string
	Title     string
	Color     string
	Size      string
}

// Spec is the declarative, renderer-agnostic chart description.
type Spec struct {
	Family    Family `json:"family"`
	DatasetID string `json:"dataset_id"`
	X         string `json:"x_column"`
	Y         string `json:"y_column"`
	Title     string `json:"title"`
	Color     string `json:"color,omitempty"`
	Size      string `json:"size,omitempty"`
	Height    int    `json:"height"`
}

// Resolve maps a validated visualization request onto a family's field
// contract. The family dispatch is a closed switch; anything outside the
// known set renders with the bar contract.
func Resolve(ds dataset.Dataset, req Request) (Spec, error) {
	if err := requireField("x_column", req.X); err != nil {
		return Spec{}, err
	}
	if err := requireField("y_column", req.Y); err != nil {
		return Spec{}, err
	}

	spec := Spec{
		DatasetID: ds.ID,
		X:         req.X,
		Y:         req.Y,
		Title:     req.Title,
		Height:    DisplayHeight,
	}

	switch Family(strings.ToLower(strings.TrimSpace(req.Family))) {
	case FamilyLine:
		spec.Family = FamilyLine
		spec.Color = req.Color
		if spec.Title == "" {
			spec.Title = "Line Chart"
		}
	case FamilyScatter:
		spec.Family = FamilyScatter
		spec.Color = req.Color
		spec.Size = req.Size
		if spec.Title == "" {
			spec.Title = "Scatter Plot"
		}
	case FamilyPie:
		// Pie reads x as category and y as value; grouping fields do
		// not apply.
		spec.Family = FamilyPie
		if spec.Title == "" {
			spec.Title = "Pie Chart"
		}
	default:
		spec.Family = FamilyBar
		spec.Color = req.Color
		if spec.Title == "" {
			spec.Title = "Bar Chart"
		}
	}

	for _, column := range []string{spec.X, spec.Y, spec.Color, spec.Size} {
		if column == "" {
			continue
		}
		if !ds.Table.HasColumn(column) {
			return Spec{}, fmt.Errorf("%w: %q is not a column of %q", ErrUnknownColumn, column, ds.ID)
		}
	}
	return spec, nil
}

func requireField(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	return nil
}
