package httpserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// GET /api/v1/depth/stream?depth=N
//
// Pushes a depth snapshot at the configured interval until the client
// goes away.
func (s *Server) depthStreamHandler(w http.ResponseWriter, r *http.Request) {
	depth := s.depthParam(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[api] ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Drain control frames so close is noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	t := time.NewTicker(s.streamEvery)
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.C:
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteJSON(s.depthSnapshot(depth)); err != nil {
				return
			}
		}
	}
}
