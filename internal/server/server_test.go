package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	return New(cfg, nil)
}

func TestHealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{})

	req := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", body["status"])
	}
	if _, ok := body["build_id"]; ok {
		t.Error("build_id reported before any build")
	}
}

func TestHealthCheckReportsLastBuild(t *testing.T) {
	srv := newTestServer(t, Config{})
	srv.RecordBuild("b-1", nil)
	srv.RecordBuild("b-2", errors.New("loading data: boom"))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/healthz", nil))

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["build_id"] != "b-2" {
		t.Errorf("build_id = %v, want b-2", body["build_id"])
	}
	if body["failed"] != true {
		t.Errorf("failed = %v, want true", body["failed"])
	}
	if body["error"] != "loading data: boom" {
		t.Errorf("error = %v", body["error"])
	}
}

func TestServesOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<title>Acme</title>"), 0o644)
	os.MkdirAll(filepath.Join(dir, "styles"), 0o755)
	os.WriteFile(filepath.Join(dir, "styles", "main.css"), []byte("body{margin:0}"), 0o644)

	srv := newTestServer(t, Config{Dir: dir})

	tests := []struct {
		path string
		want string
	}{
		{"/", "<title>Acme</title>"},
		{"/styles/main.css", "body{margin:0}"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", tt.path, nil))
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status %d", tt.path, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), tt.want) {
			t.Errorf("GET %s: body %q, want %q", tt.path, w.Body.String(), tt.want)
		}
		if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "no-cache") {
			t.Errorf("GET %s: Cache-Control = %q", tt.path, cc)
		}
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/missing.js", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("missing file: status %d, want 404", w.Code)
	}
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t, Config{AllowAll: true})

	req := httptest.NewRequest("OPTIONS", "/healthz", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("expected CORS Allow-Origin header")
	}
}

func TestServeAndShutdown(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello"), 0o644)
	srv := newTestServer(t, Config{Dir: dir})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(b) != "hello" {
		t.Errorf("body = %q", b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v, want nil", err)
	}
}
