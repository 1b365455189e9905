package api

import (
	"net/http"

	"github.com/tablechat/tablechat/internal/observability"
	"github.com/tablechat/tablechat/internal/session"
)

func handleCreateSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s := deps.Sessions.Create()
	if deps.Logger != nil {
		deps.Logger.InfoContext(r.Context(), "session created", "session_id", s.ID)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"session_id": s.ID})
}

func handleDropSession(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	deps.Sessions.Drop(s.ID)
	observability.SetDatasetsLoaded(deps.Sessions.DatasetCount())
	w.WriteHeader(http.StatusNoContent)
}

func sessionFromRequest(deps Dependencies, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.PathValue("session")
	s, ok := deps.Sessions.Get(id)
	if !ok {
		writeError(r.Context(), w, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown session: "+id, false, nil)
		return nil, false
	}
	return s, true
}
