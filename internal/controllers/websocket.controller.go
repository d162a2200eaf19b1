package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"groundstation/internal/middleware"
	"groundstation/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketController authenticates and attaches dashboard clients to the hub
type WebSocketController struct {
	Hub    *services.WebSocketHub
	Tokens *services.TokenService
}

// Handle upgrades an incoming connection after validating its token
func (w *WebSocketController) Handle(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if middleware.GlobalSecurityLogger != nil {
			middleware.GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "missing token")
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	claims, err := w.Tokens.Validate(token)
	if err != nil {
		if middleware.GlobalSecurityLogger != nil {
			middleware.GlobalSecurityLogger.LogFailedAuth(c.ClientIP(), "invalid token: "+err.Error())
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if middleware.GlobalSecurityLogger != nil {
		middleware.GlobalSecurityLogger.LogWebSocketConnected(c.ClientIP(), claims.UserID)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade error: %v", err)
		return
	}

	client := &services.ClientConnection{
		ID:    c.ClientIP() + "-" + claims.UserID,
		Conn:  conn,
		Send:  make(chan services.WebSocketMessage, 256),
		Close: make(chan bool),
	}
	w.Hub.Register(client)

	go w.readPump(client)
	go w.writePump(client)
}

// readPump consumes client messages until the connection drops
func (w *WebSocketController) readPump(client *services.ClientConnection) {
	defer func() {
		w.Hub.Unregister(client.ID)
		client.Conn.Close()
	}()

	client.Conn.SetPongHandler(func(string) error { return nil })

	for {
		var msg services.WebSocketMessage
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case "ping":
			select {
			case client.Send <- services.WebSocketMessage{Type: "pong"}:
			case <-client.Close:
				return
			default:
				return
			}
		case "unsubscribe":
			return
		default:
			// cycle and event frames are server-to-client only
		}
	}
}

// writePump delivers hub messages to the client
func (w *WebSocketController) writePump(client *services.ClientConnection) {
	defer client.Conn.Close()

	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[WS] Write error: %v", err)
				}
				return
			}
		case <-client.Close:
			client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}
