package serve

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ============================================================================
// SSE Event Types
// ============================================================================

// SSEEvent represents a single Server-Sent Event.
type SSEEvent struct {
	Event string // "refresh" or "ping"
	Data  string // JSON payload
}

// refreshData is the JSON payload for a refresh event.
type refreshData struct {
	Trigger   string `json:"trigger"`
	Timestamp string `json:"timestamp"`
}

// ============================================================================
// SSE Hub
// ============================================================================

// Hub manages connected SSE clients and broadcasts refresh triggers to
// them. Mutating handlers call Broadcast after a successful write so every
// connected console refreshes its list regions.
type Hub struct {
	pingInterval time.Duration

	mu      sync.Mutex
	clients map[chan SSEEvent]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates a new Hub with the given ping interval.
func NewHub(pingInterval time.Duration) *Hub {
	return &Hub{
		pingInterval: pingInterval,
		clients:      make(map[chan SSEEvent]struct{}),
		done:         make(chan struct{}),
	}
}

// Start begins the background goroutine that sends periodic pings so idle
// connections are kept alive through proxies.
func (h *Hub) Start(ctx context.Context) {
	ctx, h.cancel = context.WithCancel(ctx)
	go h.run(ctx)
}

// Stop shuts down the hub, closing all client channels and stopping the
// ping goroutine.
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	<-h.done
}

// run sends pings until the context is cancelled, then closes all clients.
func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.send(SSEEvent{Event: "ping", Data: "{}"})
		}
	}
}

// Broadcast sends a refresh event with the given trigger name to all
// connected clients.
func (h *Hub) Broadcast(trigger string) {
	data, err := json.Marshal(refreshData{
		Trigger:   trigger,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		slog.Error("marshal refresh event", "err", err)
		return
	}
	h.send(SSEEvent{Event: "refresh", Data: string(data)})
}

// send delivers an event to every client, dropping it for clients whose
// buffers are full rather than blocking the broadcaster.
func (h *Hub) send(ev SSEEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- ev:
		default:
		}
	}
}

// register adds a client channel and returns it.
func (h *Hub) register() chan SSEEvent {
	ch := make(chan SSEEvent, 16) // buffered to avoid blocking broadcasts
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// unregister removes a client channel.
func (h *Hub) unregister(ch chan SSEEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// closeAll closes every client channel.
func (h *Hub) closeAll() {
	h.mu.Lock()
	for ch := range h.clients {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// handleEvents is the GET /events handler: it registers the connection and
// streams events until the client disconnects or the hub shuts down.
func (h *Hub) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.register()
	defer h.unregister(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data)
			flusher.Flush()
		}
	}
}
