package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// Client is one WebSocket connection of a member in a room.
type Client struct {
	id       string
	hub      *Hub
	conn     *websocket.Conn
	roomID   uint
	roomName string
	user     domain.Principal
	send     chan []byte

	startOnce sync.Once
}

// NewClient wraps an upgraded connection. Register it with the hub through
// QueueMessage; the hub starts the pumps.
func NewClient(hub *Hub, conn *websocket.Conn, room *domain.Room, user domain.Principal) *Client {
	return &Client{
		id:       uuid.NewString(),
		hub:      hub,
		conn:     conn,
		roomID:   room.ID,
		roomName: room.Name,
		user:     user,
		send:     make(chan []byte, 256),
	}
}

func (c *Client) start() {
	c.startOnce.Do(func() {
		go c.WritePump()
		go c.ReadPump()
	})
}

func (c *Client) groups() []string {
	return []string{roomGroup(c.roomName), privateGroup(c.roomName, c.user.Username)}
}

func (c *Client) logCtx() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{"user_id": c.user.UserID, "room": c.roomName, "conn_id": c.id})
}

// trySend queues a frame without blocking. A slow client misses the frame.
func (c *Client) trySend(payload []byte, logCtx *logrus.Entry) {
	select {
	case c.send <- payload:
	default:
		logCtx.WithField("receiver_user_id", c.user.UserID).Warn("Client send channel full, skipping this client")
	}
}

// ReadPump reads commands and runs them one after another.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.messageChan <- HubMessage{Type: "unregister", Client: c}:
		case <-time.After(1 * time.Second):
			c.logCtx().Warn("Timeout sending unregister message to Hub channel")
		}
		c.conn.Close()
		c.logCtx().Info("readPump exited, unregistered client")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logCtx().WithError(err).Warn("WebSocket read error (unexpected close)")
			} else {
				c.logCtx().Debug("WebSocket connection closed normally or read error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			c.logCtx().Debugf("Received non-text message type: %d", messageType)
			continue
		}

		var in Inbound
		if err := json.Unmarshal(message, &in); err != nil {
			c.logCtx().WithError(err).Debug("Dropping malformed frame")
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		c.hub.dispatch(ctx, c, in)
		cancel()
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.logCtx().Debug("writePump exited")
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logCtx().WithError(err).Warn("Failed to write message to websocket")
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logCtx().WithError(err).Warn("Failed to send ping message")
				return
			}
		}
	}
}

func (c *Client) ID() string { return c.id }
func (c *Client) CloseConn() { c.conn.Close() }
