package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/tablechat/tablechat/internal/clean"
	"github.com/tablechat/tablechat/internal/config"
	"github.com/tablechat/tablechat/internal/ingest"
	"github.com/tablechat/tablechat/internal/observability"
	"github.com/tablechat/tablechat/internal/session"
)

type uploadedFile struct {
	File string `json:"file"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

type rejectedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// handleUpload ingests a multipart batch of CSV files into the session
// store. Each file is read, cleaned and stored independently: a bad
// file is reported in the response and never aborts the rest.
func handleUpload(cfg config.Config, deps Dependencies, w http.ResponseWriter, r *http.Request) {
	s, ok := sessionFromRequest(deps, w, r)
	if !ok {
		return
	}
	s.Acquire()
	defer s.Release()

	if err := r.ParseMultipartForm(cfg.Upload.MaxFileBytes); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_MULTIPART", err.Error(), false, nil)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(r.Context(), w, http.StatusBadRequest, "NO_FILES", "at least one file part named \"files\" is required", false, nil)
		return
	}
	if len(headers) > cfg.Upload.MaxFiles {
		writeError(r.Context(), w, http.StatusBadRequest, "TOO_MANY_FILES",
			fmt.Sprintf("at most %d files per upload", cfg.Upload.MaxFiles), false, nil)
		return
	}

	if r.URL.Query().Get("replace") == "true" {
		s.Store.Clear()
	}

	files := make([]ingest.File, 0, len(headers))
	raw := make(map[string][]byte, len(headers))
	failed := make([]rejectedFile, 0)
	for _, header := range headers {
		data, err := readPart(header, cfg.Upload.MaxFileBytes)
		if err != nil {
			failed = append(failed, rejectedFile{File: header.Filename, Error: err.Error()})
			continue
		}
		raw[header.Filename] = data
		files = append(files, ingest.File{Name: header.Filename, Reader: bytes.NewReader(data)})
	}

	named, fileErrs := ingest.ReadAll(files)
	for _, fileErr := range fileErrs {
		failed = append(failed, rejectedFile{File: fileErr.File, Error: fileErr.Err.Error()})
	}

	accepted := make([]uploadedFile, 0, len(named))
	for _, n := range named {
		cleaned := clean.Clean(n.Table)
		if err := s.Store.Put(n.Name, cleaned); err != nil {
			failed = append(failed, rejectedFile{File: n.Name, Error: err.Error()})
			continue
		}
		accepted = append(accepted, uploadedFile{File: n.Name, Rows: cleaned.Rows(), Cols: len(cleaned.Columns)})
		archiveUpload(deps, r, s, n.Name, raw[n.Name])
	}

	observability.ObserveUpload(len(accepted), len(failed))
	observability.SetDatasetsLoaded(deps.Sessions.DatasetCount())
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": s.ID,
		"accepted":   accepted,
		"failed":     failed,
	})
}

func readPart(header *multipart.FileHeader, limit int64) ([]byte, error) {
	part, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer part.Close()

	data, err := io.ReadAll(io.LimitReader(part, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d byte limit", limit)
	}
	return data, nil
}

// archiveUpload is best-effort: failures are logged and never fail the
// upload.
func archiveUpload(deps Dependencies, r *http.Request, s *session.Session, fileName string, data []byte) {
	if deps.Archive == nil {
		return
	}
	if err := deps.Archive.SaveRaw(r.Context(), s.ID, fileName, data); err != nil && deps.Logger != nil {
		deps.Logger.WarnContext(r.Context(), "archive raw upload failed", "file", fileName, "error", err)
	}
	if ds, ok := s.Store.Get(fileName); ok {
		if err := deps.Archive.SaveParquet(r.Context(), s.ID, ds); err != nil && deps.Logger != nil {
			deps.Logger.WarnContext(r.Context(), "archive parquet snapshot failed", "file", fileName, "error", err)
		}
	}
}
