package live

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"foodcart/cart"
	"foodcart/models"
	"foodcart/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Attach relays every snapshot the store publishes to its owner's room
// until the returned func is called.
func (h *Hub) Attach(s *cart.Store) (detach func()) {
	return s.Subscribe(h.Snapshots(s.CustomerID()))
}

// WebSocketHandler opens the customer's snapshot stream. The current cart
// is sent first; later snapshots and order events follow as they happen.
func WebSocketHandler(hub *Hub, reg *cart.Registry, checkOrigin func(*http.Request) bool) httprouter.Handle {
	upgrader := websocket.Upgrader{CheckOrigin: checkOrigin}

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID := utils.GetUserIDFromRequest(r)
		if userID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		store := reg.Session(r.Context(), userID, utils.GetTokenFromRequest(r))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.WithError(err).Warn("websocket upgrade failed")
			return
		}
		client := &Client{
			ID:     uuid.NewString(),
			Conn:   conn,
			Send:   make(chan []byte, 32),
			Room:   userID,
			UserID: userID,
		}

		// Joining the room and seeding it happen under the store lock, so no
		// snapshot can be published in between.
		registered := false
		store.WithSnapshot(func(c models.Cart) {
			if !hub.Register(client) {
				return
			}
			registered = true
			if data, err := encodeSnapshot(c); err == nil {
				hub.Broadcast(client.Room, data)
			}
		})
		if !registered {
			conn.Close()
			return
		}
		hub.log.WithField("client", client.ID).WithField("customer", userID).Debug("websocket connected")

		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump only watches for the peer going away; the stream is one-way.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(512)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
