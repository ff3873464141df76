package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrHubStopped is returned when publishing or registering on a stopped hub
var ErrHubStopped = errors.New("broadcast hub is not running")

// Message is the JSON envelope written to clients
type Message struct {
	Event    string                 `json:"event"`
	Channels []string               `json:"channels"`
	Data     map[string]interface{} `json:"data"`
}

type outbound struct {
	channels []string
	data     []byte
}

// Hub tracks connected clients by channel. A single goroutine owns the
// client index; other goroutines talk to it through channels.
type Hub struct {
	clients  map[*Client]struct{}
	channels map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound

	mu      sync.RWMutex
	running bool
	quit    chan struct{}
	done    chan struct{}

	logger *zap.Logger
}

// NewHub creates a hub; call Start before use
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		channels:   make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		logger:     logger,
	}
}

// Name implements worker.Worker
func (h *Hub) Name() string {
	return "websocket-hub"
}

// Start implements worker.Worker
func (h *Hub) Start(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.running {
		return nil
	}
	h.running = true
	h.quit = make(chan struct{})
	h.done = make(chan struct{})

	go h.run(ctx, h.quit, h.done)
	return nil
}

// Stop implements worker.Worker. Every client connection is closed.
func (h *Hub) Stop() error {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = false
	quit, done := h.quit, h.done
	h.mu.Unlock()

	close(quit)
	<-done
	return nil
}

func (h *Hub) run(ctx context.Context, quit, done chan struct{}) {
	defer close(done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case <-quit:
			return

		case c := <-h.register:
			h.add(c)

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	for _, ch := range c.channels {
		if h.channels[ch] == nil {
			h.channels[ch] = make(map[*Client]struct{})
		}
		h.channels[ch][c] = struct{}{}
	}
	h.logger.Debug("Websocket client registered",
		zap.String("client_id", c.ID),
		zap.Int64("user_id", c.UserID),
		zap.Strings("channels", c.channels))
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for _, ch := range c.channels {
		delete(h.channels[ch], c)
		if len(h.channels[ch]) == 0 {
			delete(h.channels, ch)
		}
	}
	close(c.send)
}

// deliver sends msg once to every client on any of its channels. Clients
// whose buffer is full are dropped.
func (h *Hub) deliver(msg outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	seen := make(map[*Client]bool)
	for _, ch := range msg.channels {
		for c := range h.channels[ch] {
			if seen[c] {
				continue
			}
			seen[c] = true

			select {
			case c.send <- msg.data:
			default:
				h.logger.Warn("Dropping slow websocket client", zap.String("client_id", c.ID))
				h.removeLocked(c)
			}
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		h.removeLocked(c)
	}
}

// Register adds c to the hub
func (h *Hub) Register(ctx context.Context, c *Client) error {
	done := h.doneChan()
	if done == nil {
		return ErrHubStopped
	}
	select {
	case h.register <- c:
		return nil
	case <-done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Unregister removes c; it is safe to call after the hub stopped
func (h *Hub) Unregister(c *Client) {
	done := h.doneChan()
	if done == nil {
		return
	}
	select {
	case h.unregister <- c:
	case <-done:
	}
}

// Publish queues msg for every client on channels
func (h *Hub) Publish(ctx context.Context, channels []string, msg Message) error {
	done := h.doneChan()
	if done == nil {
		return ErrHubStopped
	}

	msg.Channels = channels
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	select {
	case h.broadcast <- outbound{channels: channels, data: data}:
		return nil
	case <-done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// channelCount returns the number of clients subscribed to ch
func (h *Hub) channelCount(ch string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels[ch])
}

// doneChan is closed once the run loop has exited
func (h *Hub) doneChan() chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.running {
		return nil
	}
	return h.done
}
