package handler

import (
	"complaintportal/backend/internal/eventhub"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the portal frontend origin once it has a fixed host.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades an authenticated request to the complaint event feed.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID, role := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ERROR: websocket upgrade for %s: %v", userID, err)
		return
	}

	client := eventhub.NewWebSocketClient(h.Hub, conn, userID, role)
	if !h.Hub.Register(client) {
		log.Printf("WARN: event feed stopped, closing connection for %s", userID)
		conn.Close()
		return
	}
	client.Run()
}
