package interpreter

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // The API serves readings to any dashboard on the network
	},
}

// client serialises writes, a websocket.Conn allows only one writer.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// Hub keeps the websocket clients that receive live telegrams.
type Hub struct {
	clients      map[*websocket.Conn]*client
	clientsMutex sync.RWMutex
	logger       logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	h.clients[conn] = &client{conn: conn}
	h.clientsMutex.Unlock()
}

func (h *Hub) Remove(conn *websocket.Conn) {
	h.clientsMutex.Lock()
	delete(h.clients, conn)
	h.clientsMutex.Unlock()
	conn.Close()
}

func (h *Hub) Len() int {
	h.clientsMutex.RLock()
	defer h.clientsMutex.RUnlock()
	return len(h.clients)
}

// Broadcast sends payload to every client. Clients that fail are dropped.
func (h *Hub) Broadcast(payload []byte) {
	h.clientsMutex.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMutex.RUnlock()

	for _, c := range clients {
		if err := c.write(payload); err != nil {
			h.logger.WithError(err).WithField("remote", c.conn.RemoteAddr().String()).Debug("Dropping websocket client")
			h.Remove(c.conn)
		}
	}
}

// ServeWS upgrades the request, sends initial when it is not nil and keeps
// the client registered until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, initial []byte) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	h.Add(conn)
	if initial != nil {
		h.clientsMutex.RLock()
		c := h.clients[conn]
		h.clientsMutex.RUnlock()
		if c != nil {
			c.write(initial)
		}
	}

	// Keep connection alive, control frames are handled while reading
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.Remove(conn)
			return
		}
	}
}
