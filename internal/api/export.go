package api

import (
	"net/http"
	"strconv"

	"github.com/tablechat/tablechat/internal/archive"
)

func handleExport(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	s.Acquire()
	defer s.Release()

	id := r.PathValue("dataset")
	ds, ok := s.Store.Get(id)
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "DATASET_NOT_FOUND", "unknown dataset: "+id, false, nil)
		return
	}

	data, err := archive.EncodeParquet(ds)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "EXPORT_FAILED", err.Error(), false, nil)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id+`.parquet"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
