package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tablechat/tablechat/internal/chart"
	"github.com/tablechat/tablechat/internal/dataset"
	"github.com/tablechat/tablechat/internal/summary"
)

const systemPrompt = `You are part of a chatbot that does data analysis. The user has uploaded
CSV files and asks natural language questions about them.

The service can filter the uploaded tables with a restricted boolean
expression over column names and literals (comparisons, and/or/not,
membership), and it can produce charts. To filter a table, put one or
more {"csv_file", "expr"} pairs in the query_expression field. To
produce a chart, fill the visualization field.

Respond with a single JSON object and nothing else, with fields:
  response_type: "text" | "visualization" | "table_expr"
  answer: natural language answer shown to the user
  query_expression: optional list of {"csv_file": string, "expr": string}
  visualization: optional {"viz_type": "bar"|"line"|"scatter"|"pie",
    "csv_file": string, "x_column": string, "y_column": string,
    "title": string, "color": string, "size": string}

Here are the details of the csv files the user has uploaded:

`

type wireExpr struct {
	CSVFile string `json:"csv_file"`
	Expr    string `json:"expr"`
}

type wireViz struct {
	VizType string `json:"viz_type"`
	CSVFile string `json:"csv_file"`
	XColumn string `json:"x_column"`
	YColumn string `json:"y_column"`
	Title   string `json:"title"`
	Color   string `json:"color"`
	Size    string `json:"size"`
}

type wireOutput struct {
	ResponseType string     `json:"response_type"`
	Answer       string     `json:"answer"`
	Expressions  []wireExpr `json:"query_expression"`
	Viz          *wireViz   `json:"visualization"`
}

type Resolver struct {
	Capability Capability
	Logger     *slog.Logger
}

// Resolve turns one question into a validated Intent. The capability
// response is untrusted input: any structural or referential problem
// downgrades to a text fallback instead of surfacing an error, while a
// failed capability call is reported distinctly via ErrCapability.
func (r *Resolver) Resolve(ctx context.Context, store *dataset.Store, question string, history []Turn) (Intent, error) {
	if r.Capability == nil {
		return Intent{}, fmt.Errorf("%w: no capability configured", ErrCapability)
	}

	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, Turn{Role: RoleUser, Content: question})

	raw, err := r.Capability.Complete(ctx, Request{
		System: systemPrompt + summary.Describe(store.All()),
		Turns:  turns,
	})
	if err != nil {
		return Intent{}, fmt.Errorf("%w: %v", ErrCapability, err)
	}

	resolved, ok := r.parseAndValidate(raw, store)
	if !ok {
		return fallbackIntent(), nil
	}
	return resolved, nil
}

func (r *Resolver) parseAndValidate(raw string, store *dataset.Store) (Intent, bool) {
	var wire wireOutput
	if err := json.Unmarshal([]byte(StripFence(raw)), &wire); err != nil {
		r.warn("model output is not valid JSON", err)
		return Intent{}, false
	}

	switch wire.ResponseType {
	case "text":
		return textIntent(wire.Answer), true
	case "table_expr":
		if len(wire.Expressions) == 0 {
			r.warn("table_expr response without expressions", nil)
			return Intent{}, false
		}
		bindings := make([]Binding, 0, len(wire.Expressions))
		for _, expr := range wire.Expressions {
			if _, ok := store.Get(expr.CSVFile); !ok {
				r.warn(fmt.Sprintf("expression references unknown dataset %q", expr.CSVFile), nil)
				return Intent{}, false
			}
			if strings.TrimSpace(expr.Expr) == "" {
				r.warn("empty filter expression", nil)
				return Intent{}, false
			}
			bindings = append(bindings, Binding{DatasetID: expr.CSVFile, Expr: expr.Expr})
		}
		return Intent{Kind: KindTable, Answer: wire.Answer, Bindings: bindings}, true
	case "visualization":
		if wire.Viz == nil {
			r.warn("visualization response without a chart spec", nil)
			return Intent{}, false
		}
		ds, ok := store.Get(wire.Viz.CSVFile)
		if !ok {
			r.warn(fmt.Sprintf("chart references unknown dataset %q", wire.Viz.CSVFile), nil)
			return Intent{}, false
		}
		for _, column := range []string{wire.Viz.XColumn, wire.Viz.YColumn, wire.Viz.Color, wire.Viz.Size} {
			if column != "" && !ds.Table.HasColumn(column) {
				r.warn(fmt.Sprintf("chart references unknown column %q", column), nil)
				return Intent{}, false
			}
		}
		return Intent{
			Kind:   KindChart,
			Answer: wire.Answer,
			Chart: &chart.Request{
				Family:    wire.Viz.VizType,
				DatasetID: wire.Viz.CSVFile,
				X:         wire.Viz.XColumn,
				Y:         wire.Viz.YColumn,
				Title:     wire.Viz.Title,
				Color:     wire.Viz.Color,
				Size:      wire.Viz.Size,
			},
		}, true
	default:
		r.warn(fmt.Sprintf("unknown response_type %q", wire.ResponseType), nil)
		return Intent{}, false
	}
}

func (r *Resolver) warn(msg string, err error) {
	if r.Logger == nil {
		return
	}
	if err != nil {
		r.Logger.Warn("downgrading model output", slog.String("reason", msg), slog.Any("error", err))
		return
	}
	r.Logger.Warn("downgrading model output", slog.String("reason", msg))
}

// StripFence removes a single wrapping markdown code fence, which
// models still emit even when asked for bare JSON.
func StripFence(value string) string {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
