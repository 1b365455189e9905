package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/tablechat/tablechat/internal/chart"
	"github.com/tablechat/tablechat/internal/dataset"
	"github.com/tablechat/tablechat/internal/filter"
	"github.com/tablechat/tablechat/internal/intent"
	"github.com/tablechat/tablechat/internal/observability"
)

type askRequest struct {
	Question string `json:"question"`
}

type tablePayload struct {
	DatasetID  string   `json:"dataset_id"`
	Expression string   `json:"expression"`
	Columns    []string `json:"columns"`
	Rows       [][]any  `json:"rows"`
}

type askResponse struct {
	Kind   string         `json:"kind"`
	Answer string         `json:"answer"`
	Tables []tablePayload `json:"tables,omitempty"`
	Chart  *chart.Spec    `json:"chart,omitempty"`
}

// handleAsk runs the question through the resolver and executes the
// resolved intent against the session's datasets.
func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	s.Acquire()
	defer s.Release()

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), false, nil)
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", false, nil)
		return
	}
	if deps.Resolver == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "CAPABILITY_DISABLED", "no language capability is configured", false, nil)
		return
	}

	start := time.Now()
	resolved, err := deps.Resolver.Resolve(r.Context(), s.Store, question, s.History())
	if err != nil {
		if errors.Is(err, intent.ErrCapability) {
			writeError(r.Context(), w, http.StatusBadGateway, "CAPABILITY_FAILED", err.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), false, nil)
		return
	}
	observability.ObserveIntent(string(resolved.Kind), resolved.Answer == intent.FallbackAnswer, time.Since(start))

	response := askResponse{Kind: string(resolved.Kind), Answer: resolved.Answer}
	switch resolved.Kind {
	case intent.KindTable:
		for _, binding := range resolved.Bindings {
			ds, ok := s.Store.Get(binding.DatasetID)
			if !ok {
				writeError(r.Context(), w, http.StatusBadRequest, "DATASET_NOT_FOUND", "unknown dataset: "+binding.DatasetID, false, nil)
				return
			}
			filtered, err := filter.Execute(ds, binding.Expr)
			if err != nil {
				observability.IncrementQueryFailure()
				writeError(r.Context(), w, http.StatusBadRequest, "INVALID_EXPRESSION", err.Error(), false, map[string]any{
					"dataset":    binding.DatasetID,
					"expression": binding.Expr,
				})
				return
			}
			response.Tables = append(response.Tables, renderTable(binding, filtered))
		}
	case intent.KindChart:
		ds, ok := s.Store.Get(resolved.Chart.DatasetID)
		if !ok {
			writeError(r.Context(), w, http.StatusBadRequest, "DATASET_NOT_FOUND", "unknown dataset: "+resolved.Chart.DatasetID, false, nil)
			return
		}
		spec, err := chart.Resolve(ds, *resolved.Chart)
		if err != nil {
			observability.IncrementChartFailure()
			writeError(r.Context(), w, http.StatusBadRequest, "INVALID_CHART", err.Error(), false, map[string]any{
				"dataset": resolved.Chart.DatasetID,
			})
			return
		}
		response.Chart = &spec
	}

	s.AppendTurn(intent.RoleUser, question)
	s.AppendTurn(intent.RoleAssistant, resolved.Answer)
	writeJSON(w, http.StatusOK, response)
}

func renderTable(binding intent.Binding, t dataset.Table) tablePayload {
	payload := tablePayload{
		DatasetID:  binding.DatasetID,
		Expression: binding.Expr,
		Columns:    t.ColumnNames(),
		Rows:       make([][]any, 0, t.Rows()),
	}
	for i := 0; i < t.Rows(); i++ {
		row := make([]any, len(t.Columns))
		for j, col := range t.Columns {
			row[j] = renderCell(col, i)
		}
		payload.Rows = append(payload.Rows, row)
	}
	return payload
}

func renderCell(col dataset.Column, i int) any {
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
