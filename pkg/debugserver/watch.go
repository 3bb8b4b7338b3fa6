package debugserver

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// watchMessage is pushed to /snapshot/ws subscribers.
type watchMessage struct {
	Type     string       `json:"type"`
	Snapshot snapshotJSON `json:"snapshot"`
}

// feed holds the websocket subscribers. Writes to every connection happen
// with mu held, so a connection never sees interleaved frames.
type feed struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]struct{}
	upgrader websocket.Upgrader
}

func newFeed() *feed {
	return &feed{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	conn, err := s.feed.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	s.mu.RLock()
	data, err := json.Marshal(watchMessage{Type: "snapshot", Snapshot: s.listing()})
	s.mu.RUnlock()
	if err != nil {
		conn.Close()
		return
	}

	s.feed.mu.Lock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.feed.mu.Unlock()
		conn.Close()
		return
	}
	s.feed.clients[conn] = struct{}{}
	s.feed.mu.Unlock()

	// Subscribers never send anything; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.feed.mu.Lock()
	delete(s.feed.clients, conn)
	s.feed.mu.Unlock()
	conn.Close()
}

// broadcast sends msg to every subscriber and drops the ones that fail.
func (f *feed) broadcast(msg watchMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(f.clients, conn)
			conn.Close()
		}
	}
}

func (f *feed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *feed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.Close()
		delete(f.clients, conn)
	}
}
