package api

import (
	"net/http"

	"github.com/tablechat/tablechat/internal/observability"
)

type datasetSummary struct {
	ID          string         `json:"id"`
	Rows        int            `json:"rows"`
	Cols        int            `json:"cols"`
	Columns     []string       `json:"columns"`
	Types       map[string]any `json:"types"`
	Numeric     []string       `json:"numeric_columns,omitempty"`
	Categorical []string       `json:"categorical_columns,omitempty"`
	Datetime    []string       `json:"datetime_columns,omitempty"`
}

func handleListDatasets(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	s.Acquire()
	defer s.Release()

	summaries := make([]datasetSummary, 0, s.Store.Len())
	for _, id := range s.Store.IDs() {
		meta, ok := s.Store.Metadata(id)
		if !ok {
			continue
		}
		types := make(map[string]any, len(meta.Types))
		for name, columnType := range meta.Types {
			types[name] = string(columnType)
		}
		summaries = append(summaries, datasetSummary{
			ID:          id,
			Rows:        meta.Rows,
			Cols:        meta.Cols,
			Columns:     meta.Columns,
			Types:       types,
			Numeric:     meta.NumericCols,
			Categorical: meta.CategoricalCols,
			Datetime:    meta.DatetimeCols,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": summaries})
}

func handleClearDatasets(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	s.Acquire()
	defer s.Release()

	s.Store.Clear()
	observability.SetDatasetsLoaded(deps.Sessions.DatasetCount())
	w.WriteHeader(http.StatusNoContent)
}
