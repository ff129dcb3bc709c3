package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/poseguard/internal/gesture"
	"github.com/ayusman/poseguard/internal/pose"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const broadcastInterval = 66 * time.Millisecond // ~15 FPS

// StateSource provides the gesture state to broadcast.
type StateSource interface {
	State() gesture.State
}

// landmarksMessage is sent to clients whenever the state changes.
type landmarksMessage struct {
	Phase     gesture.Phase `json:"phase"`
	Count     int           `json:"count"`
	Confirmed bool          `json:"confirmed"`
	Snapshot  pose.Snapshot `json:"snapshot"`
	Points    int           `json:"points"` // tracked points present in Snapshot
	Timestamp int64         `json:"timestamp"`
}

// LandmarksHandler broadcasts the latest snapshot and gesture phase via
// WebSocket. A message is sent only when the state changed since the last
// broadcast.
type LandmarksHandler struct {
	source  StateSource
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

// NewLandmarksHandler creates a LandmarksHandler and starts its broadcaster.
func NewLandmarksHandler(source StateSource) *LandmarksHandler {
	h := &LandmarksHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *LandmarksHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops the broadcaster.
func (h *LandmarksHandler) Close() {
	h.once.Do(func() { close(h.done) })
}

func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	var (
		lastFrames uint64
		lastPhase  gesture.Phase
		sent       bool
	)

	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			sent = false
			continue
		}

		state := h.source.State()
		if sent && state.Frames == lastFrames && state.Phase() == lastPhase {
			continue
		}

		msg, err := json.Marshal(landmarksMessage{
			Phase:     state.Phase(),
			Count:     state.Count,
			Confirmed: state.Confirmed,
			Snapshot:  state.Snapshot,
			Points:    state.Snapshot.Count(),
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.mu.RLock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
			}
		}
		h.mu.RUnlock()

		lastFrames, lastPhase, sent = state.Frames, state.Phase(), true
	}
}
