package filter

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tablechat/tablechat/internal/dataset"
)

var (
	ErrInvalidExpression = errors.New("filter: invalid expression")
	ErrTypeMismatch      = errors.New("filter: type mismatch")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidExpression, fmt.Sprintf(format, args...))
}

func mismatchf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeMismatch, fmt.Sprintf(format, args...))
}

var literalTimeLayouts = []string{
	dataset.TimeLayout,
	"2006-01-02",
	time.RFC3339,
}

// Execute evaluates a filter expression against the dataset and returns
// the matching rows with original column and row order preserved.
// Unknown columns and unsupported syntax wrap ErrInvalidExpression,
// incompatible comparisons wrap ErrTypeMismatch; values are never
// silently coerced.
//
// A missing cell satisfies no comparison or membership test, != included;
// negation inverts afterwards, so `not (city == "NYC")` and
// `city not in ["NYC"]` keep a missing row while `city != "NYC"` drops it.
// Cleaned tables have no missing cells, the rule only shows on tables
// built directly.
func Execute(ds dataset.Dataset, expr string) (dataset.Table, error) {
	if strings.TrimSpace(expr) == "" {
		return dataset.Table{}, invalidf("expression is empty")
	}
	tree, err := parse(expr)
	if err != nil {
		return dataset.Table{}, err
	}
	ev := &evaluator{table: ds.Table}
	if err := ev.check(tree); err != nil {
		return dataset.Table{}, err
	}

	rows := make([]int, 0, ds.Table.Rows())
	for row := 0; row < ds.Table.Rows(); row++ {
		match, err := ev.eval(tree, row)
		if err != nil {
			return dataset.Table{}, err
		}
		if match {
			rows = append(rows, row)
		}
	}
	return ds.Table.Select(rows), nil
}

type evaluator struct {
	table dataset.Table
}

// check walks the tree once before evaluation so that unknown columns
// and type conflicts are reported even for rows short-circuiting would
// skip.
func (ev *evaluator) check(n node) error {
	switch t := n.(type) {
	case *logicalNode:
		if err := ev.check(t.left); err != nil {
			return err
		}
		return ev.check(t.right)
	case *notNode:
		return ev.check(t.child)
	case *compareNode:
		leftType, err := ev.operandType(t.left)
		if err != nil {
			return err
		}
		rightType, err := ev.operandType(t.right)
		if err != nil {
			return err
		}
		return ev.checkComparable(t.left, leftType, t.right, rightType)
	case *inNode:
		valueType, err := ev.operandType(t.value)
		if err != nil {
			return err
		}
		for _, item := range t.items {
			itemType, err := ev.operandType(item)
			if err != nil {
				return err
			}
			if err := ev.checkComparable(t.value, valueType, item, itemType); err != nil {
				return err
			}
		}
		return nil
	default:
		return invalidf("unsupported expression node")
	}
}

func (ev *evaluator) operandType(op operand) (dataset.ColumnType, error) {
	switch op.kind {
	case operandColumn:
		col, ok := ev.table.Column(op.name)
		if !ok {
			return "", invalidf("unknown column %q", op.name)
		}
		return col.Type, nil
	case operandNumber:
		return dataset.TypeNumeric, nil
	default:
		return dataset.TypeText, nil
	}
}

func (ev *evaluator) checkComparable(left operand, leftType dataset.ColumnType, right operand, rightType dataset.ColumnType) error {
	if leftType == rightType {
		return nil
	}
	// A string literal may stand in for a datetime when the other side
	// is a datetime column, provided it parses.
	if leftType == dataset.TypeDatetime && right.kind == operandString {
		if _, ok := parseLiteralTime(right.str); !ok {
			return mismatchf("cannot compare datetime %s with string %q", describeOperand(left), right.str)
		}
		return nil
	}
	if rightType == dataset.TypeDatetime && left.kind == operandString {
		if _, ok := parseLiteralTime(left.str); !ok {
			return mismatchf("cannot compare datetime %s with string %q", describeOperand(right), left.str)
		}
		return nil
	}
	return mismatchf("cannot compare %s %s with %s %s",
		leftType, describeOperand(left), rightType, describeOperand(right))
}

func parseLiteralTime(raw string) (time.Time, bool) {
	for _, layout := range literalTimeLayouts {
		if ts, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func (ev *evaluator) eval(n node, row int) (bool, error) {
	switch t := n.(type) {
	case *logicalNode:
		left, err := ev.eval(t.left, row)
		if err != nil {
			return false, err
		}
		if t.op == "and" && !left {
			return false, nil
		}
		if t.op == "or" && left {
			return true, nil
		}
		return ev.eval(t.right, row)
	case *notNode:
		child, err := ev.eval(t.child, row)
		if err != nil {
			return false, err
		}
		return !child, nil
	case *compareNode:
		return ev.compare(t.op, t.left, t.right, row)
	case *inNode:
		for _, item := range t.items {
			match, err := ev.compare("==", t.value, item, row)
			if err != nil {
				return false, err
			}
			if match {
				return !t.negated, nil
			}
		}
		return t.negated, nil
	default:
		return false, invalidf("unsupported expression node")
	}
}

type cell struct {
	missing bool
	colType dataset.ColumnType
	num     float64
	str     string
	ts      time.Time
}

func (ev *evaluator) resolve(op operand, row int) cell {
	switch op.kind {
	case operandColumn:
		col, _ := ev.table.Column(op.name)
		v := col.Values[row]
		return cell{missing: v.Missing, colType: col.Type, num: v.Num, str: v.Str, ts: v.Time}
	case operandNumber:
		return cell{colType: dataset.TypeNumeric, num: op.num}
	default:
		return cell{colType: dataset.TypeText, str: op.str}
	}
}

func (ev *evaluator) compare(op string, left, right operand, row int) (bool, error) {
	l := ev.resolve(left, row)
	r := ev.resolve(right, row)
	if l.missing || r.missing {
		return false, nil
	}

	switch {
	case l.colType == dataset.TypeNumeric && r.colType == dataset.TypeNumeric:
		return applyOrdered(op, compareFloats(l.num, r.num)), nil
	case l.colType == dataset.TypeDatetime || r.colType == dataset.TypeDatetime:
		lt, err := asTime(l)
		if err != nil {
			return false, err
		}
		rt, err := asTime(r)
		if err != nil {
			return false, err
		}
		return applyOrdered(op, compareTimes(lt, rt)), nil
	case l.colType == dataset.TypeText && r.colType == dataset.TypeText:
		return applyOrdered(op, strings.Compare(l.str, r.str)), nil
	default:
		// check() rejects these before evaluation starts.
		return false, mismatchf("cannot compare %s with %s", l.colType, r.colType)
	}
}

func asTime(c cell) (time.Time, error) {
	if c.colType == dataset.TypeDatetime {
		return c.ts, nil
	}
	ts, ok := parseLiteralTime(c.str)
	if !ok {
		return time.Time{}, mismatchf("cannot compare datetime with string %q", c.str)
	}
	return ts, nil
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func applyOrdered(op string, cmp int) bool {
	switch op {
	case "==":
		return cmp == 0
	case "!=":
		return cmp != 0
	case ">":
		return cmp > 0
	case ">=":
		return cmp >= 0
	case "<":
		return cmp < 0
	default:
		return cmp <= 0
	}
}
