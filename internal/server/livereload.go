package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

// liveReloadScript is appended to served HTML pages when live reload is on.
const liveReloadScript = `<script src="/livereload.js"></script>`

const liveReloadJS = `(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  function connect() {
    var ws = new WebSocket(proto + location.host + "/livereload");
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      if (msg.type === "reload") { location.reload(); }
      if (msg.type === "error") { console.error("pagebuild: " + msg.error); }
    };
    ws.onclose = function () { setTimeout(connect, 1000); };
  }
  connect();
})();
`

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// reloadMessage is the outgoing WebSocket message format.
type reloadMessage struct {
	Type    string `json:"type"` // "reload" or "error"
	BuildID string `json:"build_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// hub fans reload messages out to connected pages.
type hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

func newHub() *hub {
	return &hub{clients: make(map[*websocket.Conn]chan []byte)}
}

func (h *hub) add(conn *websocket.Conn) chan []byte {
	send := make(chan []byte, 4)
	h.mu.Lock()
	h.clients[conn] = send
	h.mu.Unlock()
	return send
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	if send, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(send)
	}
	h.mu.Unlock()
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// broadcast queues msg for every client. Slow clients miss messages rather
// than blocking the build.
func (h *hub) broadcast(msg reloadMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, send := range h.clients {
		select {
		case send <- payload:
		default:
		}
	}
}

// closeAll disconnects every client. Hijacked connections are not closed by
// http.Server.Shutdown.
func (h *hub) closeAll() {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.Unlock()
	for _, conn := range conns {
		conn.Close()
	}
}

func (s *Server) handleLiveReload(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("live reload: websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	send := s.hub.add(conn)
	defer s.hub.remove(conn)

	go func() {
		for msg := range send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				s.logger.Debug("live reload: websocket write", "error", err)
				conn.Close()
				return
			}
		}
	}()

	// Pages never send anything; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("live reload: websocket read", "error", err)
			}
			return
		}
	}
}

func handleLiveReloadJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write([]byte(liveReloadJS))
}

// injectLiveReload serves HTML pages from dir with the live reload script
// added before </body>. Other requests go to next.
func injectLiveReload(dir string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		name := path.Clean("/" + r.URL.Path)
		if strings.HasSuffix(r.URL.Path, "/") {
			name = path.Join(name, "index.html")
		}
		if path.Ext(name) != ".html" {
			next.ServeHTTP(w, r)
			return
		}

		page, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(withLiveReload(page))
	})
}

func withLiveReload(page []byte) []byte {
	idx := bytes.LastIndex(page, []byte("</body>"))
	if idx < 0 {
		return append(page, liveReloadScript...)
	}
	out := make([]byte, 0, len(page)+len(liveReloadScript)+1)
	out = append(out, page[:idx]...)
	out = append(out, liveReloadScript...)
	out = append(out, '\n')
	return append(out, page[idx:]...)
}
