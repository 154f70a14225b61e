// Package stream fans controller status events out to live dashboard
// subscribers (the SSE endpoint).
package stream

import (
	"sync"

	"github.com/roadsense/autobrake/internal/models"
)

type Client struct {
	send chan models.StatusEvent
}

// Events returns the client's receive channel. It is closed when the
// client is removed from the hub.
func (c *Client) Events() <-chan models.StatusEvent {
	return c.send
}

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan models.StatusEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan models.StatusEvent),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case event := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- event:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register adds a subscriber with a small buffer. Slow subscribers are
// dropped on overflow rather than stalling the broadcast.
func (h *Hub) Register() *Client {
	client := &Client{send: make(chan models.StatusEvent, 16)}
	select {
	case h.register <- client:
	case <-h.done:
		close(client.send)
	}
	return client
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(event models.StatusEvent) {
	select {
	case h.broadcast <- event:
	case <-h.done:
	}
}

// Close stops the run loop and disconnects all subscribers.
func (h *Hub) Close() {
	close(h.done)
}
