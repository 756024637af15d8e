package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestWithLiveReload(t *testing.T) {
	tests := []struct {
		name string
		page string
		want string
	}{
		{
			name: "before closing body",
			page: "<html><body><h1>Acme</h1></body></html>",
			want: "<html><body><h1>Acme</h1>" + liveReloadScript + "\n</body></html>",
		},
		{
			name: "last closing body wins",
			page: "<pre></body></pre></body>",
			want: "<pre></body></pre>" + liveReloadScript + "\n</body>",
		},
		{
			name: "fragment without body",
			page: "<p>hi</p>",
			want: "<p>hi</p>" + liveReloadScript,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := string(withLiveReload([]byte(tt.page))); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLiveReloadInjection(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "index.html"), []byte("<body>Acme</body>"), 0o644)
	os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644)

	on := newTestServer(t, Config{Dir: dir, LiveReload: true})
	off := newTestServer(t, Config{Dir: dir})

	get := func(srv *Server, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		return w
	}

	if body := get(on, "/").Body.String(); !strings.Contains(body, liveReloadScript) {
		t.Errorf("live reload page missing script: %q", body)
	}
	if body := get(off, "/").Body.String(); strings.Contains(body, liveReloadScript) {
		t.Errorf("script injected with live reload off: %q", body)
	}
	if body := get(on, "/app.js").Body.String(); body != "console.log(1)" {
		t.Errorf("non-HTML asset modified: %q", body)
	}

	w := get(on, "/livereload.js")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "WebSocket") {
		t.Errorf("livereload.js: %d %q", w.Code, w.Body.String())
	}
	if w := get(off, "/livereload.js"); w.Code != http.StatusNotFound {
		t.Errorf("livereload.js with live reload off: status %d, want 404", w.Code)
	}
}

func TestLiveReloadBroadcast(t *testing.T) {
	srv := newTestServer(t, Config{LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	srv.RecordBuild("b-7", nil)
	var msg reloadMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "reload" || msg.BuildID != "b-7" {
		t.Errorf("got %+v, want reload b-7", msg)
	}

	srv.RecordBuild("", errors.New("loading data: bad json"))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Type != "error" || msg.Error != "loading data: bad json" {
		t.Errorf("got %+v, want error message", msg)
	}
}

func TestLiveReloadClientRemovedOnClose(t *testing.T) {
	srv := newTestServer(t, Config{LiveReload: true})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/livereload"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for srv.hub.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	for srv.hub.count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never removed")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Broadcasting with no clients is a no-op.
	srv.RecordBuild("b-8", nil)
}
