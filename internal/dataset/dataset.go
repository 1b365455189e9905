package dataset

import (
	"fmt"
	"strconv"
	"time"
)

type ColumnType string

const (
	TypeNumeric  ColumnType = "numeric"
	TypeText     ColumnType = "text"
	TypeDatetime ColumnType = "datetime"
)

// TimeLayout is the canonical rendering for datetime cells.
const TimeLayout = "2006-01-02 15:04:05"

// Value is a single cell. The active field is determined by the owning
// column's type; Missing marks an absent cell regardless of type.
type Value struct {
	Missing bool
	Num     float64
	Str     string
	Time    time.Time
}

func Number(v float64) Value      { return Value{Num: v} }
func Text(v string) Value         { return Value{Str: v} }
func Timestamp(v time.Time) Value { return Value{Time: v} }

var Missing = Value{Missing: true}

type Column struct {
	Name   string
	Type   ColumnType
	Values []Value
}

func (c Column) MissingCount() int {
	count := 0
	for _, v := range c.Values {
		if v.Missing {
			count++
		}
	}
	return count
}

// Render formats the cell at index i for display and serialization.
func (c Column) Render(i int) string {
	v := c.Values[i]
	if v.Missing {
		return ""
	}
	switch c.Type {
	case TypeNumeric:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case TypeDatetime:
		return v.Time.Format(TimeLayout)
	default:
		return v.Str
	}
}

type Table struct {
	Columns []Column
}

func (t Table) Rows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (t Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

func (t Table) Clone() Table {
	columns := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		values := make([]Value, len(c.Values))
		copy(values, c.Values)
		columns[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return Table{Columns: columns}
}

// Select returns a new table holding the given row indices, preserving
// column order and the relative order of rows.
func (t Table) Select(rows []int) Table {
	columns := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		values := make([]Value, 0, len(rows))
		for _, row := range rows {
			values = append(values, c.Values[row])
		}
		columns[i] = Column{Name: c.Name, Type: c.Type, Values: values}
	}
	return Table{Columns: columns}
}

func (t Table) validate() error {
	rows := t.Rows()
	for _, c := range t.Columns {
		if len(c.Values) != rows {
			return fmt.Errorf("column %q has %d values, expected %d", c.Name, len(c.Values), rows)
		}
	}
	return nil
}

type Dataset struct {
	ID    string
	Table Table
}

type Metadata struct {
	Rows            int
	Cols            int
	Columns         []string
	Types           map[string]ColumnType
	Missing         map[string]int
	NumericCols     []string
	CategoricalCols []string
	DatetimeCols    []string
}

func describeTable(t Table) Metadata {
	meta := Metadata{
		Rows:    t.Rows(),
		Cols:    len(t.Columns),
		Columns: t.ColumnNames(),
		Types:   make(map[string]ColumnType, len(t.Columns)),
		Missing: make(map[string]int, len(t.Columns)),
	}
	for _, c := range t.Columns {
		meta.Types[c.Name] = c.Type
		meta.Missing[c.Name] = c.MissingCount()
		switch c.Type {
		case TypeNumeric:
			meta.NumericCols = append(meta.NumericCols, c.Name)
		case TypeDatetime:
			meta.DatetimeCols = append(meta.DatetimeCols, c.Name)
		default:
			meta.CategoricalCols = append(meta.CategoricalCols, c.Name)
		}
	}
	return meta
}
