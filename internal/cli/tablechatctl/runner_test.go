package tablechatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRunSessionNewCommand(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"session_id":"abc"}`))
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-base-url", srv.URL, "session-new"}, Options{
		Stdout:  &stdout,
		Stderr:  &stderr,
		Timeout: 2 * time.Second,
	})
	if code != 0 {
		t.Fatalf("exit code = %d, stderr=%s", code, stderr.String())
	}
	if gotMethod != http.MethodPost || gotPath != "/v1/sessions" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
	if !strings.Contains(stdout.String(), "abc") {
		t.Fatalf("stdout = %q", stdout.String())
	}
}

func TestRunUploadCommand(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "sales.csv")
	if err := os.WriteFile(csvPath, []byte("a,b\n1,2\n"), 0o600); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}

	var gotPath, gotQuery string
	var gotFiles []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("content type = %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		} else {
			for _, header := range r.MultipartForm.File["files"] {
				gotFiles = append(gotFiles, header.Filename)
			}
		}
		_, _ = w.Write([]byte(`{"accepted":[{"file":"sales.csv","rows":1,"cols":2}],"failed":[]}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-session", "sess-1",
		"-replace",
		"upload", csvPath,
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/sessions/sess-1/files" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotQuery != "replace=true" {
		t.Fatalf("query = %q", gotQuery)
	}
	if len(gotFiles) != 1 || gotFiles[0] != "sales.csv" {
		t.Fatalf("files = %v", gotFiles)
	}
}

func TestRunAskCommand(t *testing.T) {
	var gotPath string
	var gotPayload map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"kind":"text","answer":"fine"}`))
	}))
	defer srv.Close()

	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-session", "sess-1",
		"ask", "how", "are", "sales?",
	}, Options{})
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if gotPath != "/v1/sessions/sess-1/ask" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotPayload["question"] != "how are sales?" {
		t.Fatalf("question = %q", gotPayload["question"])
	}
}

func TestRunRequiresSessionForScopedCommands(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"datasets"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "-session") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error_code":"SESSION_NOT_FOUND"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	var stderr bytes.Buffer
	code := Run(context.Background(), []string{
		"-base-url", srv.URL,
		"-session", "missing",
		"datasets",
	}, Options{Stderr: &stderr})
	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "SESSION_NOT_FOUND") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"frobnicate"}, Options{Stderr: &stderr})
	if code != 2 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(stderr.String(), "usage:") {
		t.Fatalf("stderr = %q", stderr.String())
	}
}
