// Package live pushes cart snapshots and order events to the customer's
// open websocket connections.
package live

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"foodcart/models"
)

type Client struct {
	ID     string
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

// Hub fans messages out to every client in a room. Rooms are customer ids.
type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.Mutex
	log        logrus.FieldLogger
}

func NewHub(log logrus.FieldLogger) *Hub {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg, 64),
		quit:       make(chan struct{}),
		log:        log.WithField("component", "live"),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			h.removeLocked(c)
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					h.log.WithField("client", c.ID).Warn("slow client dropped")
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for _, conns := range h.rooms {
				for c := range conns {
					h.removeLocked(c)
				}
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) removeLocked(c *Client) {
	conns := h.rooms[c.Room]
	if conns == nil || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.rooms, c.Room)
	}
}

// Stop ends Run and closes every client's send channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) stopped() bool {
	select {
	case <-h.quit:
		return true
	default:
		return false
	}
}

// Clients reports how many connections a room holds.
func (h *Hub) Clients(room string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[room])
}

// Broadcast queues data for every client in room. It returns false once
// the hub is stopped.
func (h *Hub) Broadcast(room string, data []byte) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.broadcast <- broadcastMsg{Room: room, Data: data}:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Register(c *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.register <- c:
		return true
	case <-h.quit:
		return false
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.quit:
	}
}

const (
	TypeSnapshot = "cart"
	TypeOrder    = "order"
)

// outboundPayload is what we push to every client.
type outboundPayload struct {
	Type  string             `json:"type"`
	Cart  *models.Cart       `json:"cart,omitempty"`
	Event *models.OrderEvent `json:"event,omitempty"`
	At    int64              `json:"at"`
}

func encodeSnapshot(c models.Cart) ([]byte, error) {
	return json.Marshal(outboundPayload{Type: TypeSnapshot, Cart: &c, At: time.Now().Unix()})
}

// Snapshots is the callback a cart store subscribes with; it relays every
// published snapshot to the owner's room.
func (h *Hub) Snapshots(room string) func(models.Cart) {
	return func(c models.Cart) {
		data, err := encodeSnapshot(c)
		if err != nil {
			h.log.WithError(err).Error("encode cart snapshot")
			return
		}
		h.Broadcast(room, data)
	}
}

// Emit relays an order event to the customer's room.
func (h *Hub) Emit(_ context.Context, ev models.OrderEvent) error {
	data, err := json.Marshal(outboundPayload{Type: TypeOrder, Event: &ev, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	h.Broadcast(ev.CustomerID, data)
	return nil
}
