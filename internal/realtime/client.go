package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// StatusFunc returns the current playback state of a session, used to answer
// a subscriber's explicit state pull. It returns an error for unknown sessions.
type StatusFunc func(ctx context.Context, sessionID uuid.UUID) (interface{}, error)

// Client represents a single WebSocket subscriber on a session channel.
type Client struct {
	ID          string
	SessionID   uuid.UUID
	Participant string
	hub         *Hub
	conn        *websocket.Conn
	send        chan WSMessage
	status      StatusFunc
	logger      *zap.Logger
}

// ServeWs handles the WebSocket upgrade and runs the client loop. Clients
// connect with ?session_id=<uuid>&name=<participant>; unknown sessions are
// rejected before the upgrade.
func ServeWs(hub *Hub, logger *zap.Logger, status StatusFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionIDStr := c.Query("session_id")
		name := c.Query("name")
		if sessionIDStr == "" || name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "session_id and name required"})
			return
		}
		sessionID, err := uuid.Parse(sessionIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_id"})
			return
		}
		if status != nil {
			if _, err := status(c.Request.Context(), sessionID); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:          uuid.New().String(),
			SessionID:   sessionID,
			Participant: name,
			hub:         hub,
			conn:        conn,
			send:        make(chan WSMessage, 256),
			status:      status,
			logger:      logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "request-sync":
			// Explicit state pull for late joiners: reply to this client only
			// with the current playback state.
			if c.status == nil {
				continue
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			payload, err := c.status(ctx, c.SessionID)
			cancel()
			if err != nil {
				continue
			}
			c.hub.SendToClient(c.SessionID, c.ID, "audio-sync", payload)
		default:
			// subscribers only listen; all other input is ignored
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
