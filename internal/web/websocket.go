package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// handleWebSocket streams the state of one run until it finishes.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	if _, err := s.runs.Get(runID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// subscribe before the snapshot so no transition is missed
	updates := s.runs.Subscribe(runID)
	defer s.runs.Unsubscribe(runID, updates)

	run, err := s.runs.Get(runID)
	if err != nil {
		return
	}
	if err := conn.WriteJSON(toResponse(run)); err != nil {
		return
	}
	if run.Status.Finished() {
		closeNormally(conn)
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case run, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(toResponse(run)); err != nil {
				s.logger.Error("Failed to write WebSocket message: %v", err)
				return
			}
			if run.Status.Finished() {
				closeNormally(conn)
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.ctx.Done():
			return
		}
	}
}

func closeNormally(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished")
	conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}
