package filter

import (
	"errors"
	"testing"
	"time"

	"github.com/tablechat/tablechat/internal/dataset"
)

func peopleDataset() dataset.Dataset {
	return dataset.Dataset{
		ID: "people.csv",
		Table: dataset.Table{Columns: []dataset.Column{
			{Name: "age", Type: dataset.TypeNumeric, Values: []dataset.Value{
				dataset.Number(35), dataset.Number(25), dataset.Number(42), dataset.Number(31),
			}},
			{Name: "city", Type: dataset.TypeText, Values: []dataset.Value{
				dataset.Text("NYC"), dataset.Text("NYC"), dataset.Text("LA"), dataset.Text("NYC"),
			}},
		}},
	}
}

func TestExecuteBooleanPredicate(t *testing.T) {
	result, err := Execute(peopleDataset(), `age > 30 and city == "NYC"`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 2 {
		t.Fatalf("rows = %d", result.Rows())
	}
	// Original row order: rows 0 (35) and 3 (31).
	ages := result.Columns[0]
	if ages.Values[0].Num != 35 || ages.Values[1].Num != 31 {
		t.Fatalf("ages = %v, %v", ages.Values[0].Num, ages.Values[1].Num)
	}
	if got := result.ColumnNames(); got[0] != "age" || got[1] != "city" {
		t.Fatalf("column order = %v", got)
	}
}

func TestExecuteVariants(t *testing.T) {
	cases := []struct {
		name string
		expr string
		want int
	}{
		{"or", `age < 26 or age > 40`, 2},
		{"not", `not city == "NYC"`, 1},
		{"symbolic and", `age > 30 & city == "NYC"`, 2},
		{"membership list", `city in ["LA", "SF"]`, 1},
		{"negated membership", `city not in ["LA", "SF"]`, 3},
		{"parenthesized", `(age > 30 and city == "NYC") or city == "LA"`, 3},
		{"numeric membership", `age in (25, 31)`, 2},
		{"backtick identifier", "`age` >= 35", 2},
		{"single quotes", `city == 'LA'`, 1},
		{"tilde negation", `~(city == "LA")`, 3},
	}
	for _, tc := range cases {
		result, err := Execute(peopleDataset(), tc.expr)
		if err != nil {
			t.Fatalf("%s: Execute(%q) error = %v", tc.name, tc.expr, err)
		}
		if result.Rows() != tc.want {
			t.Fatalf("%s: rows = %d, want %d", tc.name, result.Rows(), tc.want)
		}
	}
}

func TestExecuteUnknownColumn(t *testing.T) {
	_, err := Execute(peopleDataset(), `zz_missing > 1`)
	if !errors.Is(err, ErrInvalidExpression) {
		t.Fatalf("error = %v, want ErrInvalidExpression", err)
	}
}

func TestExecuteInvalidSyntax(t *testing.T) {
	cases := []string{
		``,
		`age >`,
		`age = 30`,
		`age + 1 > 2`,
		`age > 30 and`,
		`city in`,
		`age in [25, city]`,
		`drop(table)`,
	}
	for _, expr := range cases {
		_, err := Execute(peopleDataset(), expr)
		if !errors.Is(err, ErrInvalidExpression) {
			t.Fatalf("Execute(%q) error = %v, want ErrInvalidExpression", expr, err)
		}
	}
}

func TestExecuteTypeMismatch(t *testing.T) {
	cases := []string{
		`age == "thirty"`,
		`city > 5`,
		`age in ["a", "b"]`,
	}
	for _, expr := range cases {
		_, err := Execute(peopleDataset(), expr)
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("Execute(%q) error = %v, want ErrTypeMismatch", expr, err)
		}
	}
}

func TestExecuteTypeMismatchReportedBeforeShortCircuit(t *testing.T) {
	// The first conjunct matches no rows, but the conflict in the second
	// must still surface.
	_, err := Execute(peopleDataset(), `age > 100 and city == 7`)
	if !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("error = %v, want ErrTypeMismatch", err)
	}
}

func TestExecuteDatetimeComparison(t *testing.T) {
	ds := dataset.Dataset{
		ID: "orders.csv",
		Table: dataset.Table{Columns: []dataset.Column{
			{Name: "order_date", Type: dataset.TypeDatetime, Values: []dataset.Value{
				dataset.Timestamp(time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)),
				dataset.Timestamp(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)),
			}},
		}},
	}

	result, err := Execute(ds, `order_date >= "2024-02-01"`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 1 {
		t.Fatalf("rows = %d", result.Rows())
	}

	if _, err := Execute(ds, `order_date > "not a date"`); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("error = %v, want ErrTypeMismatch", err)
	}
}

func TestExecuteMissingValuesNeverMatch(t *testing.T) {
	ds := dataset.Dataset{
		ID: "raw.csv",
		Table: dataset.Table{Columns: []dataset.Column{
			{Name: "score", Type: dataset.TypeNumeric, Values: []dataset.Value{
				dataset.Number(1), dataset.Missing, dataset.Number(3),
			}},
		}},
	}
	result, err := Execute(ds, `score < 100`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 2 {
		t.Fatalf("rows = %d", result.Rows())
	}

	// != is still a comparison: the missing row stays out.
	result, err = Execute(ds, `score != 1`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 1 || result.Columns[0].Values[0].Num != 3 {
		t.Fatalf("!= rows = %d", result.Rows())
	}

	// not inverts after the missing rule, so the missing row comes back.
	result, err = Execute(ds, `not (score == 1)`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 2 {
		t.Fatalf("not rows = %d", result.Rows())
	}
	if !result.Columns[0].Values[0].Missing {
		t.Fatalf("first kept row = %+v, want the missing cell", result.Columns[0].Values[0])
	}

	// not in inverts the same way.
	result, err = Execute(ds, `score not in (1, 3)`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Rows() != 1 || !result.Columns[0].Values[0].Missing {
		t.Fatalf("not in rows = %d", result.Rows())
	}
}
