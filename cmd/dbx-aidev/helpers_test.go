package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// executeCommand runs the root command with args and stdin and returns stdout and the error.
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(out)
	root.SetErr(errOut)
	root.SetArgs(args)

	err := root.Execute()
	return out.String(), err
}

// workspaceArgs points the execution commands at srv with an absent settings file.
func workspaceArgs(t *testing.T, srv *httptest.Server) []string {
	t.Helper()
	return []string{
		"--host", srv.URL,
		"--token", "test-token",
		"--config", filepath.Join(t.TempDir(), "missing.yaml"),
	}
}

func writeJSONResponse(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func newWorkspaceServer(t *testing.T, routes map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	// Go 1.21's ServeMux does not understand "METHOD /path" patterns, so split
	// the method off and dispatch on it per path.
	byPath := map[string]map[string]http.HandlerFunc{}
	for pattern, handler := range routes {
		method, path := "", pattern
		if m, p, ok := strings.Cut(pattern, " "); ok {
			method, path = m, strings.TrimSpace(p)
		}
		if byPath[path] == nil {
			byPath[path] = map[string]http.HandlerFunc{}
		}
		byPath[path][method] = handler
	}
	mux := http.NewServeMux()
	for path, methods := range byPath {
		methods := methods
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			if h, ok := methods[r.Method]; ok {
				h(w, r)
				return
			}
			if h, ok := methods[""]; ok {
				h(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
