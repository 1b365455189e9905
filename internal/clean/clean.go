package clean

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/tablechat/tablechat/internal/dataset"
)

// Placeholder fills categorical columns that are entirely missing.
const Placeholder = "Unknown"

var numericPattern = regexp.MustCompile(`^-?\d+\.?\d*$`)

var dateHints = []string{"date", "time", "year", "month", "day"}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"02 Jan 2006",
}

// Clean normalizes a table on a copy: missing-value imputation first so
// type inference never sees gaps, then date inference for name-hinted
// columns, then numeric coercion of remaining text columns. Idempotent.
func Clean(t dataset.Table) dataset.Table {
	out := t.Clone()
	for i := range out.Columns {
		impute(&out.Columns[i])
	}
	for i := range out.Columns {
		inferDates(&out.Columns[i])
	}
	for i := range out.Columns {
		coerceNumeric(&out.Columns[i])
	}
	return out
}

func impute(col *dataset.Column) {
	if col.MissingCount() == 0 {
		return
	}
	if col.Type == dataset.TypeNumeric {
		imputeMedian(col)
		return
	}
	imputeMode(col)
}

func imputeMedian(col *dataset.Column) {
	present := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		if !v.Missing {
			present = append(present, v.Num)
		}
	}
	if len(present) == 0 {
		return
	}
	sort.Float64s(present)
	median := present[len(present)/2]
	if len(present)%2 == 0 {
		median = (present[len(present)/2-1] + present[len(present)/2]) / 2
	}
	for i, v := range col.Values {
		if v.Missing {
			col.Values[i] = dataset.Number(median)
		}
	}
}

func imputeMode(col *dataset.Column) {
	counts := make(map[dataset.Value]int)
	for _, v := range col.Values {
		if !v.Missing {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		// Entirely missing: no mode exists, fall back to a placeholder.
		for i := range col.Values {
			col.Values[i] = dataset.Text(Placeholder)
		}
		col.Type = dataset.TypeText
		return
	}

	var mode dataset.Value
	best := 0
	for v, count := range counts {
		if count > best || (count == best && less(col.Type, v, mode)) {
			mode = v
			best = count
		}
	}
	for i, v := range col.Values {
		if v.Missing {
			col.Values[i] = mode
		}
	}
}

// less gives mode ties a deterministic winner.
func less(colType dataset.ColumnType, a, b dataset.Value) bool {
	switch colType {
	case dataset.TypeNumeric:
		return a.Num < b.Num
	case dataset.TypeDatetime:
		return a.Time.Before(b.Time)
	default:
		return a.Str < b.Str
	}
}

func inferDates(col *dataset.Column) {
	if col.Type != dataset.TypeText || !hasDateHint(col.Name) {
		return
	}

	parsed := make([]*time.Time, len(col.Values))
	min := time.Time{}
	any := false
	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		ts, ok := parseDate(v.Str)
		if !ok {
			continue
		}
		parsed[i] = &ts
		if !any || ts.Before(min) {
			min = ts
		}
		any = true
	}
	if !any {
		// Nothing in the column looks like a date; abandon inference.
		return
	}

	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		if parsed[i] != nil {
			col.Values[i] = dataset.Timestamp(*parsed[i])
		} else {
			col.Values[i] = dataset.Timestamp(min)
		}
	}
	col.Type = dataset.TypeDatetime
}

func hasDateHint(name string) bool {
	lowered := strings.ToLower(name)
	for _, hint := range dateHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

func parseDate(raw string) (time.Time, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, trimmed); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func coerceNumeric(col *dataset.Column) {
	if col.Type != dataset.TypeText {
		return
	}
	parsed := make([]float64, len(col.Values))
	matched := false
	for i, v := range col.Values {
		if v.Missing {
			continue
		}
		if !numericPattern.MatchString(v.Str) {
			return
		}
		value, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return
		}
		parsed[i] = value
		matched = true
	}
	if !matched {
		return
	}
	for i, v := range col.Values {
		if !v.Missing {
			col.Values[i] = dataset.Number(parsed[i])
		}
	}
	col.Type = dataset.TypeNumeric
}
