package sse

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rpsroom/internal/api/response"
	"github.com/mcoot/rpsroom/internal/model"
)

// Hub fans session events out to every connected SSE client
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once
}

// NewHub creates a hub; Run must be started for it to deliver anything
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("component", "sse")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run is the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("client_id", client.id),
				slog.Int("total_clients", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.clients[client] {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, client)
			close(client.send)
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client unregistered",
				slog.String("client_id", client.id),
				slog.Duration("connection_duration", time.Since(client.connectedAt)),
				slog.Int("total_clients", total))

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("sse message dropped - client buffer full",
						slog.String("client_id", client.id))
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			total := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", total))
			return
		}
	}
}

// Register adds a client; it reports false once the hub has stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a preformatted message for every client
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// Notify publishes a coordinator event; it never blocks the caller
func (h *Hub) Notify(event model.Event) {
	msg, err := EventMessage(event)
	if err != nil {
		h.logger.Error("sse failed to encode event",
			slog.String("event", string(event.Type)),
			slog.String("error", err.Error()))
		return
	}
	h.Broadcast(msg)
}

// Close stops the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		close(h.done)
	})
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EventName maps an event type to its SSE event name, e.g. room_created to room-created
func EventName(t model.EventType) string {
	return strings.ReplaceAll(string(t), "_", "-")
}

// EventMessage encodes a coordinator event as a named SSE message with a JSON body
func EventMessage(event model.Event) ([]byte, error) {
	data, err := json.Marshal(response.EventFromModel(event))
	if err != nil {
		return nil, err
	}
	return formatMessage(EventName(event.Type), string(data)), nil
}

// SessionMessage encodes a snapshot as the "session" SSE message sent on connect
func SessionMessage(snap model.Snapshot) ([]byte, error) {
	data, err := json.Marshal(response.SessionFromModel(snap))
	if err != nil {
		return nil, err
	}
	return formatMessage("session", string(data)), nil
}

// formatMessage prefixes every data line, dropping carriage returns
func formatMessage(name, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(name)
	b.WriteByte('\n')

	data = strings.TrimSuffix(strings.ReplaceAll(data, "\r", ""), "\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
