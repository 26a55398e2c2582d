package telemetry

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"helm.klederson.com/internal/audio"
)

const broadcastBuffer = 256

// Hub fans messages out to connected clients. Publishing never blocks the
// caller; when the hub falls behind, messages are dropped.
type Hub struct {
	clock clock.Clock
	log   *zap.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu   sync.RWMutex
	last *Snapshot
}

// NewHub creates a hub. Call Run to start it.
func NewHub(clk clock.Clock, logger *zap.Logger) *Hub {
	return &Hub{
		clock:      clk,
		log:        logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	h.log.Debug("hub started")
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.log.Debug("hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Info("client connected", zap.String("id", c.id), zap.String("remote", c.remote), zap.Int("clients", n))
			h.welcome(c)

		case c := <-h.unregister:
			h.drop(c)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var dead []*Client
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					dead = append(dead, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range dead {
				h.log.Warn("client too slow, dropping", zap.String("id", c.id))
				h.drop(c)
			}
		}
	}
}

// PublishState records s as the latest snapshot and sends it to clients.
func (h *Hub) PublishState(s Snapshot) {
	h.mu.Lock()
	h.last = &s
	h.mu.Unlock()
	h.publish(Message{Type: TypeState, State: &s})
}

// PublishEvent sends a sound event to clients.
func (h *Hub) PublishEvent(e audio.Event) {
	h.publish(Message{Type: TypeEvent, Event: &e})
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) publish(m Message) {
	m.Timestamp = h.clock.Now()
	data, err := encode(m)
	if err != nil {
		h.log.Error("encoding telemetry", zap.String("type", m.Type), zap.Error(err))
		return
	}
	select {
	case h.broadcast <- data:
	default:
		h.log.Debug("broadcast buffer full, message dropped", zap.String("type", m.Type))
	}
}

// welcome sends the client its id and the latest snapshot.
func (h *Hub) welcome(c *Client) {
	h.mu.RLock()
	m := Message{Type: TypeWelcome, Timestamp: h.clock.Now(), ClientID: c.id, State: h.last}
	h.mu.RUnlock()

	data, err := encode(m)
	if err != nil {
		h.log.Error("encoding welcome", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Info("client disconnected", zap.String("id", c.id), zap.Int("clients", len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
