package eventhub

import (
	"complaintportal/backend/internal/models"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client is one subscriber of the event feed.
type Client interface {
	GetUserID() string
	GetRole() models.Role
	// GetSendChannel is where the hub delivers events for this client.
	GetSendChannel() chan<- models.ComplaintEvent
	// Run starts the client's read and write pumps.
	Run()
	// Close stops the client. It is safe to call more than once.
	Close()
}

// WebSocketClient implements Client over a gorilla websocket connection.
type WebSocketClient struct {
	UserID string
	Role   models.Role
	Conn   *websocket.Conn
	Hub    *Hub
	Send   chan models.ComplaintEvent

	closeOnce sync.Once
}

// NewWebSocketClient binds conn to hub with a buffered send queue.
func NewWebSocketClient(hub *Hub, conn *websocket.Conn, userID string, role models.Role) *WebSocketClient {
	return &WebSocketClient{
		UserID: userID,
		Role:   role,
		Conn:   conn,
		Hub:    hub,
		Send:   make(chan models.ComplaintEvent, 256),
	}
}

func (c *WebSocketClient) GetUserID() string                            { return c.UserID }
func (c *WebSocketClient) GetRole() models.Role                         { return c.Role }
func (c *WebSocketClient) GetSendChannel() chan<- models.ComplaintEvent { return c.Send }

// Run starts the pumps.
func (c *WebSocketClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Close closes Send, which stops writePump and then the connection.
func (c *WebSocketClient) Close() {
	c.closeOnce.Do(func() { close(c.Send) })
}

// readPump only drains control frames; the feed is one-way.
func (c *WebSocketClient) readPump() {
	defer func() {
		select {
		case c.Hub.UnregisterCh <- c:
		case <-c.Hub.Done():
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ERROR: event feed read for %s: %v", c.UserID, err)
			}
			return
		}
	}
}

// writePump writes one JSON text frame per event and pings on idle.
func (c *WebSocketClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("ERROR: encoding event for %s: %v", c.UserID, err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
