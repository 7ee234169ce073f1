package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vrsandeep/jobrelay/internal/relay"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may subscribe, same as the CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleEvents streams a job's updates as Server-Sent Events until the
// browser disconnects or a newer subscription for the job replaces this one.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing jobId query parameter")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		RespondWithError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	sub, err := s.relay.Subscribe(jobID)
	if err != nil {
		respondWithRelayError(w, err)
		return
	}
	defer s.relay.Unsubscribe(sub)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-sub.Done():
			return
		case f := <-sub.Frames():
			if err := writeSSE(w, f); err != nil {
				log.Printf("SSE write for job %s failed: %v", jobID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, f relay.Frame) error {
	if f.Keepalive {
		_, err := fmt.Fprint(w, ": keepalive\n\n")
		return err
	}
	_, err := fmt.Fprintf(w, "data: %s\n\n", f.Data)
	return err
}

// handleWebSocket delivers the same subscription over a WebSocket, one
// JSON text message per event.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("jobId")
	if jobID == "" {
		RespondWithError(w, http.StatusBadRequest, "Missing jobId query parameter")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sub, err := s.relay.Subscribe(jobID)
	if err != nil {
		log.Printf("ws subscribe for job %s failed: %v", jobID, err)
		return
	}
	defer s.relay.Unsubscribe(sub)

	// The peer never sends anything we care about; reading only surfaces
	// the close frame or a broken connection.
	peerGone := make(chan struct{})
	go func() {
		defer close(peerGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-peerGone:
			return
		case <-sub.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "subscription closed"),
				time.Now().Add(wsWriteWait))
			return
		case f := <-sub.Frames():
			if err := writeWS(conn, f); err != nil {
				log.Printf("ws write for job %s failed: %v", jobID, err)
				return
			}
		}
	}
}

func writeWS(conn *websocket.Conn, f relay.Frame) error {
	deadline := time.Now().Add(wsWriteWait)
	if f.Keepalive {
		return conn.WriteControl(websocket.PingMessage, nil, deadline)
	}
	conn.SetWriteDeadline(deadline)
	return conn.WriteMessage(websocket.TextMessage, f.Data)
}
