package tablechatctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Options struct {
	BaseURL    string
	SessionID  string
	Timeout    time.Duration
	HTTPClient *http.Client
	Stdout     io.Writer
	Stderr     io.Writer
}

func Run(ctx context.Context, args []string, defaults Options) int {
	stdout := defaults.Stdout
	if stdout == nil {
		stdout = io.Discard
	}
	stderr := defaults.Stderr
	if stderr == nil {
		stderr = io.Discard
	}

	fs := flag.NewFlagSet("tablechatctl", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("base-url", firstNonEmpty(defaults.BaseURL, "http://localhost:8080"), "TableChat API base URL")
	sessionID := fs.String("session", defaults.SessionID, "Session ID for session-scoped commands")
	replace := fs.Bool("replace", false, "Clear the session's datasets before uploading")
	timeout := fs.Duration("timeout", durationOr(defaults.Timeout, 60*time.Second), "HTTP timeout (e.g. 10s)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() < 1 {
		writeUsage(stderr)
		return 2
	}

	client := defaults.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: *timeout}
	}

	base := strings.TrimRight(*baseURL, "/")
	command := strings.TrimSpace(fs.Arg(0))
	rest := fs.Args()[1:]

	var req *http.Request
	var err error
	switch command {
	case "health":
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/health", nil)
	case "ready":
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/ready", nil)
	case "session-new":
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/sessions", nil)
	case "session-drop":
		if !requireSession(*sessionID, stderr) {
			return 2
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodDelete, base+"/v1/sessions/"+*sessionID, nil)
	case "datasets":
		if !requireSession(*sessionID, stderr) {
			return 2
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, base+"/v1/sessions/"+*sessionID+"/datasets", nil)
	case "clear":
		if !requireSession(*sessionID, stderr) {
			return 2
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodDelete, base+"/v1/sessions/"+*sessionID+"/datasets", nil)
	case "upload":
		if !requireSession(*sessionID, stderr) {
			return 2
		}
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "upload requires at least one CSV file path")
			return 2
		}
		req, err = buildUploadRequest(ctx, base, *sessionID, *replace, rest)
	case "ask":
		if !requireSession(*sessionID, stderr) {
			return 2
		}
		if len(rest) == 0 {
			_, _ = fmt.Fprintln(stderr, "ask requires a question")
			return 2
		}
		req, err = buildAskRequest(ctx, base, *sessionID, strings.Join(rest, " "))
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n\n", command)
		writeUsage(stderr)
		return 2
	}
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "build request failed: %v\n", err)
		return 1
	}

	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "request failed: %v\n", err)
		return 1
	}
	defer func() { _ = resp.Body.Close() }()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "read response failed: %v\n", err)
		return 1
	}

	if resp.StatusCode >= 400 {
		_, _ = fmt.Fprintf(stderr, "http %d: %s\n", resp.StatusCode, strings.TrimSpace(string(responseBody)))
		return 1
	}

	if pretty, ok := prettyJSON(responseBody); ok {
		_, _ = fmt.Fprintln(stdout, pretty)
		return 0
	}
	if len(responseBody) > 0 {
		_, _ = fmt.Fprintln(stdout, string(responseBody))
	}
	return 0
}

func buildUploadRequest(ctx context.Context, base, sessionID string, replace bool, paths []string) (*http.Request, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		part, err := mw.CreateFormFile("files", filepath.Base(p))
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	url := base + "/v1/sessions/" + sessionID + "/files"
	if replace {
		url += "?replace=true"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req, nil
}

func buildAskRequest(ctx context.Context, base, sessionID, question string) (*http.Request, error) {
	payload, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+"/v1/sessions/"+sessionID+"/ask", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func requireSession(sessionID string, stderr io.Writer) bool {
	if strings.TrimSpace(sessionID) == "" {
		_, _ = fmt.Fprintln(stderr, "-session is required for this command")
		return false
	}
	return true
}

func prettyJSON(raw []byte) (string, bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "", false
	}
	var anyValue any
	if err := json.Unmarshal(raw, &anyValue); err != nil {
		return "", false
	}
	formatted, err := json.MarshalIndent(anyValue, "", "  ")
	if err != nil {
		return "", false
	}
	return string(formatted), true
}

func writeUsage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "usage: tablechatctl [flags] <command> [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "commands:")
	_, _ = fmt.Fprintln(w, "  health                 GET /v1/health")
	_, _ = fmt.Fprintln(w, "  ready                  GET /v1/ready")
	_, _ = fmt.Fprintln(w, "  session-new            POST /v1/sessions")
	_, _ = fmt.Fprintln(w, "  session-drop           DELETE /v1/sessions/{session}")
	_, _ = fmt.Fprintln(w, "  datasets               GET /v1/sessions/{session}/datasets")
	_, _ = fmt.Fprintln(w, "  clear                  DELETE /v1/sessions/{session}/datasets")
	_, _ = fmt.Fprintln(w, "  upload <files...>      POST /v1/sessions/{session}/files")
	_, _ = fmt.Fprintln(w, "  ask <question...>      POST /v1/sessions/{session}/ask")
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return strings.TrimSpace(a)
	}
	return b
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
