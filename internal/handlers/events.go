package handlers

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"kerala-sedp/internal/store"
	"kerala-sedp/pkg/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer in front of this endpoint
		return true
	},
}

// Event is one message on the front-end feed: toast notifications,
// session changes and snapshot-change markers.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}

	mutex sync.RWMutex
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 16),
		done:       make(chan struct{}),
	}
}

func (hub *Hub) Run() {
	for {
		select {
		case client := <-hub.register:
			hub.mutex.Lock()
			hub.clients[client] = true
			hub.mutex.Unlock()

		case client := <-hub.unregister:
			hub.mutex.Lock()
			if _, ok := hub.clients[client]; ok {
				delete(hub.clients, client)
				close(client.send)
			}
			hub.mutex.Unlock()

		case event := <-hub.broadcast:
			payload, err := json.Marshal(event)
			if err != nil {
				logrus.WithError(err).Error("marshaling feed event")
				continue
			}

			hub.mutex.Lock()
			for client := range hub.clients {
				select {
				case client.send <- payload:
				default:
					close(client.send)
					delete(hub.clients, client)
				}
			}
			hub.mutex.Unlock()

		case <-hub.done:
			hub.mutex.Lock()
			for client := range hub.clients {
				close(client.send)
				delete(hub.clients, client)
			}
			hub.mutex.Unlock()
			return
		}
	}
}

func (hub *Hub) Shutdown() {
	close(hub.done)
}

func (hub *Hub) Broadcast(event Event) {
	select {
	case hub.broadcast <- event:
	case <-hub.done:
	}
}

// Notify lets the hub serve as the store's user-facing notification channel:
// toasts are pushed to every connected front-end.
func (hub *Hub) Notify(toast store.Toast) {
	hub.Broadcast(Event{Type: "toast", Data: toast})
}

func (hub *Hub) ConnectionsCount() int {
	hub.mutex.RLock()
	defer hub.mutex.RUnlock()
	return len(hub.clients)
}

type EventsHandler struct {
	hub        *Hub
	jwtManager *auth.JWTManager
}

func NewEventsHandler(hub *Hub, jwtManager *auth.JWTManager) *EventsHandler {
	return &EventsHandler{
		hub:        hub,
		jwtManager: jwtManager,
	}
}

func (h *EventsHandler) HandleWebSocket(c *gin.Context) {
	// Browsers cannot set headers on websocket dials, token rides the query
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Token is required",
		})
		return
	}

	if _, err := h.jwtManager.ValidateToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Invalid token",
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Error("websocket upgrade")
		return
	}

	client := &Client{
		hub:  h.hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	client.hub.register <- client

	go client.writePump()
	go client.readPump()
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// readPump drains the connection; the feed is one-directional apart from
// client pings.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg struct {
			Type string `json:"type"`
		}
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithError(err).Debug("websocket read")
			}
			break
		}
		if msg.Type == "ping" {
			select {
			case c.send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any queued events into the same frame
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
