package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/hub"
	"github.com/Alschn/Beerdegu/internal/middleware"
	"github.com/Alschn/Beerdegu/internal/service"
)

// RoomLookup is what the gateway needs to admit a connection.
type RoomLookup interface {
	GetRoom(ctx context.Context, name string) (*domain.Room, error)
	MembershipStatus(ctx context.Context, name string, userID uint) (isMember, isHost bool, err error)
}

// WebSocketHandler upgrades room connections and hands them to the hub.
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	hub      *hub.Hub
	rooms    RoomLookup
}

// NewWebSocketHandler builds the handler. allowedOrigins is matched against the
// Origin header; "*" or an empty list accepts any origin.
func NewWebSocketHandler(h *hub.Hub, rooms RoomLookup, allowedOrigins []string) *WebSocketHandler {
	if h == nil {
		panic("Hub cannot be nil for WebSocketHandler")
	}
	if rooms == nil {
		panic("RoomLookup cannot be nil for WebSocketHandler")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return &WebSocketHandler{upgrader: upgrader, hub: h, rooms: rooms}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	hosts := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		hosts[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	if len(hosts) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser clients
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return hosts[strings.ToLower(u.Scheme+"://"+u.Host)]
	}
}

// HandleConnection serves GET /ws/room/:name.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		logrus.Warn("WS Handler: User not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	name := domain.NormalizeRoomName(c.Param("name"))
	logCtx := logrus.WithFields(logrus.Fields{"user_id": user.UserID, "room": name})
	ctx := c.Request.Context()

	room, err := h.rooms.GetRoom(ctx, name)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			logCtx.Debug("WS Handler: Room not found")
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		} else {
			logCtx.WithError(err).Error("WS Handler: Error loading room")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate room"})
		}
		return
	}

	isMember, _, err := h.rooms.MembershipStatus(ctx, name, user.UserID)
	if err != nil {
		logCtx.WithError(err).Error("WS Handler: Error checking membership")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate room"})
		return
	}
	if !isMember {
		logCtx.Info("WS Handler: Refusing non-member")
		c.JSON(http.StatusForbidden, gin.H{"error": "User is not part of this room!"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the request.
		logCtx.WithError(err).Warn("WS Handler: Failed to upgrade connection")
		return
	}

	client := hub.NewClient(h.hub, conn, room, user)
	if !h.hub.QueueMessage(hub.HubMessage{Type: "register", Client: client}) {
		logCtx.Error("WS Handler: Hub message channel full, failed to register client")
		client.CloseConn()
		return
	}
	logCtx.WithField("conn_id", client.ID()).Info("WS Handler: Client registration queued")
}
