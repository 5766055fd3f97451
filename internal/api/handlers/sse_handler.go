package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/vigility/dashboard/internal/application/services"
)

// StateSource publishes dashboard state transitions
type StateSource interface {
	State() services.DashboardState
	OnChange(fn func(services.DashboardState))
}

// SSEHandler streams dashboard state transitions as Server-Sent Events so the
// front end can render loading and error states as they happen
type SSEHandler struct {
	source    StateSource
	heartbeat time.Duration

	mu      sync.RWMutex
	clients map[chan services.DashboardState]bool
}

// NewSSEHandler creates a new SSE handler and subscribes it to source
func NewSSEHandler(source StateSource, heartbeat time.Duration) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	h := &SSEHandler{
		source:    source,
		heartbeat: heartbeat,
		clients:   make(map[chan services.DashboardState]bool),
	}
	source.OnChange(h.broadcast)
	return h
}

// StreamDashboard handles GET /api/dashboard/stream
func (h *SSEHandler) StreamDashboard(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	clientChan := make(chan services.DashboardState, 16)
	h.registerClient(clientChan)
	defer h.unregisterClient(clientChan)

	h.sendEvent(w, "state", h.source.State())
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			h.sendEvent(w, "heartbeat", map[string]interface{}{
				"timestamp": time.Now(),
			})
			flusher.Flush()
		case state := <-clientChan:
			h.sendEvent(w, "state", state)
			flusher.Flush()
		}
	}
}

func (h *SSEHandler) broadcast(state services.DashboardState) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- state:
		default:
			// slow client; it catches up on the next transition
		}
	}
}

func (h *SSEHandler) registerClient(ch chan services.DashboardState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = true
	log.Debug().Int("clients", len(h.clients)).Msg("Dashboard stream client connected")
}

func (h *SSEHandler) unregisterClient(ch chan services.DashboardState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, ch)
	log.Debug().Int("clients", len(h.clients)).Msg("Dashboard stream client disconnected")
}

func (h *SSEHandler) sendEvent(w http.ResponseWriter, eventType string, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal event data")
		return
	}

	fmt.Fprintf(w, "event: %s\n", eventType)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
}

// ClientCount returns the number of connected clients
func (h *SSEHandler) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
