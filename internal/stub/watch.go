package stub

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
)

// watchEvent is one exchanged turn pushed to debug watchers.
type watchEvent struct {
	Builder string      `json:"builder"`
	Turn    domain.Turn `json:"turn"`
	Ended   bool        `json:"ended"`
}

// watchHub fans negotiation turns out to connected debug watchers. It is a
// development aid: `websocat` against /api/debug/watch shows every turn the
// stub exchanges, across all sessions.
type watchHub struct {
	log      *logging.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

func newWatchHub(log *logging.Logger) *watchHub {
	return &watchHub{
		log:   log,
		conns: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local debug feed, any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// run registers the watcher and blocks reading until it disconnects.
func (h *watchHub) run(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = true
	n := len(h.conns)
	h.mu.Unlock()

	h.log.Debug().Str("remote", conn.RemoteAddr().String()).Int("watchers", n).Msg("watcher connected")

	defer func() {
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
		h.log.Debug().Str("remote", conn.RemoteAddr().String()).Msg("watcher disconnected")
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Broadcast pushes one event to every watcher, dropping connections that
// fail to accept the write.
func (h *watchHub) Broadcast(evt watchEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(evt); err != nil {
			h.log.Debug().Err(err).Msg("dropping watcher")
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// CloseAll disconnects every watcher.
func (h *watchHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}

// handleWatch upgrades to WebSocket and streams turns until the watcher
// disconnects.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.watch.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("watch upgrade failed")
		return
	}
	s.watch.run(conn)
}
