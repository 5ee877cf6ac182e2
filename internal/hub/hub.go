package hub

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. A full rating form fits.
	maxMessageSize = 8192

	// Upper bound for one command's trip through the services.
	commandTimeout = 10 * time.Second
)

// RoomOps is the part of the room service the gateway drives.
type RoomOps interface {
	ListMembers(ctx context.Context, name string) ([]domain.UserView, error)
	RoomState(ctx context.Context, name string) (*domain.RoomView, error)
	ListFlight(ctx context.Context, name string) ([]domain.BeerSummary, error)
	ChangeRoomState(ctx context.Context, name string, user domain.Principal, state string) (*domain.RoomView, error)
	TouchMember(ctx context.Context, roomID, userID uint) error
}

// RatingOps is the part of the rating service the gateway drives.
type RatingOps interface {
	GetUserFormData(ctx context.Context, roomName string, userID, beerID uint) (*domain.RatingView, error)
	SaveUserForm(ctx context.Context, roomName string, userID, beerID uint, data json.RawMessage) (*domain.RatingView, error)
	FinalBeerResults(ctx context.Context, roomName string) ([]domain.BeerResult, error)
	FinalUserResults(ctx context.Context, roomName string, userID uint) ([]domain.UserResult, error)
}

// Fanout relays envelopes between server instances. Subscribe blocks until
// ctx is done, handing every envelope (including this instance's own) to deliver.
type Fanout interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(ctx context.Context, deliver func(Envelope)) error
}

// HubMessage is an event for the hub's run loop.
type HubMessage struct {
	Type   string // "register", "unregister"
	Client *Client
}

// Hub keeps the connection registry. Each client sits in its room group and
// in a private group shared by the same user's tabs in that room.
type Hub struct {
	messageChan chan HubMessage

	// map[group]set of clients
	groups   map[string]map[*Client]bool
	groupsMu sync.RWMutex

	rooms    RoomOps
	ratings  RatingOps
	fanout   Fanout
	commands map[string]command
}

// NewHub creates a hub. A nil fanout keeps delivery inside this process.
func NewHub(rooms RoomOps, ratings RatingOps, fanout Fanout) *Hub {
	if rooms == nil {
		panic("RoomOps cannot be nil for Hub")
	}
	if ratings == nil {
		panic("RatingOps cannot be nil for Hub")
	}
	h := &Hub{
		messageChan: make(chan HubMessage, 512),
		groups:      make(map[string]map[*Client]bool),
		rooms:       rooms,
		ratings:     ratings,
		fanout:      fanout,
	}
	h.commands = h.commandTable()
	return h
}

// Run processes registrations until ctx is done, then hangs up every socket.
// With a fanout configured it also relays envelopes for the same lifetime.
func (h *Hub) Run(ctx context.Context) {
	log := logrus.WithField("component", "hub")
	log.Info("Hub is running...")

	if h.fanout != nil {
		go func() {
			if err := h.fanout.Subscribe(ctx, h.deliver); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("Hub fanout subscription stopped")
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("Hub is shutting down...")
			h.closeAll()
			return
		case msg := <-h.messageChan:
			switch msg.Type {
			case "register":
				h.registerClient(msg.Client)
			case "unregister":
				h.unregisterClient(msg.Client)
			default:
				log.Warnf("Hub: Received unknown message type: %s", msg.Type)
			}
		}
	}
}

// QueueMessage hands a message to the run loop without blocking.
// It returns false when the queue is full.
func (h *Hub) QueueMessage(msg HubMessage) bool {
	select {
	case h.messageChan <- msg:
		return true
	default:
		logrus.WithField("message_type", msg.Type).Warn("Hub message channel full, dropping message")
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to register a nil client")
		return
	}
	logCtx := client.logCtx().WithField("action", "registerClient")

	h.groupsMu.Lock()
	for _, g := range client.groups() {
		if _, ok := h.groups[g]; !ok {
			h.groups[g] = make(map[*Client]bool)
		}
		h.groups[g][client] = true
	}
	h.groupsMu.Unlock()
	logCtx.Info("Client registered to Hub")

	client.start()
	go h.announceJoin(client)
}

func (h *Hub) unregisterClient(client *Client) {
	if client == nil {
		logrus.Error("Hub: Attempted to unregister a nil client")
		return
	}
	logCtx := client.logCtx().WithField("action", "unregisterClient")

	h.groupsMu.Lock()
	removed := false
	for _, g := range client.groups() {
		members, ok := h.groups[g]
		if !ok || !members[client] {
			continue
		}
		delete(members, client)
		removed = true
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	// closed under the lock so deliver never writes to a closed channel
	if removed {
		close(client.send)
	}
	h.groupsMu.Unlock()

	if !removed {
		logCtx.Warn("Client not found during unregister")
		return
	}
	logCtx.Info("Client unregistered from Hub")

	go h.emitTo(roomGroup(client.roomName), Outbound{Command: "user_disconnect", Data: client.user.Username}, "")
}

func (h *Hub) closeAll() {
	h.groupsMu.Lock()
	defer h.groupsMu.Unlock()
	for _, members := range h.groups {
		for c := range members {
			c.CloseConn()
		}
	}
}

// announceJoin tells the others about the newcomer, then syncs the whole room.
func (h *Hub) announceJoin(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	room := roomGroup(client.roomName)
	h.emitTo(room, Outbound{Command: "user_join", Data: client.user.Username}, client.id)
	h.pushUsers(ctx, client.roomName)
	h.pushRoomState(ctx, client.roomName)
	h.pushBeers(ctx, client.roomName)
}

func (h *Hub) pushUsers(ctx context.Context, roomName string) {
	users, err := h.rooms.ListMembers(ctx, roomName)
	if err != nil {
		logrus.WithError(err).WithField("room", roomName).Warn("Hub: failed to load users")
		return
	}
	h.emitTo(roomGroup(roomName), Outbound{Command: "set_users", Data: users}, "")
}

func (h *Hub) pushRoomState(ctx context.Context, roomName string) {
	state, err := h.rooms.RoomState(ctx, roomName)
	if err != nil {
		logrus.WithError(err).WithField("room", roomName).Warn("Hub: failed to load room state")
		return
	}
	h.emitTo(roomGroup(roomName), Outbound{Command: "set_room_state", Data: state}, "")
}

func (h *Hub) pushBeers(ctx context.Context, roomName string) {
	beers, err := h.rooms.ListFlight(ctx, roomName)
	if err != nil {
		logrus.WithError(err).WithField("room", roomName).Warn("Hub: failed to load beers")
		return
	}
	h.emitTo(roomGroup(roomName), Outbound{Command: "set_beers", Data: beers}, "")
}

// --- notifications from the REST side ---

// NotifyMembership pushes user_join or user_leave followed by the new roster.
func (h *Hub) NotifyMembership(ctx context.Context, roomName, event, username string) {
	h.emitTo(roomGroup(roomName), Outbound{Command: event, Data: username}, "")
	h.pushUsers(ctx, roomName)
}

// NotifyBeers pushes the current flight.
func (h *Hub) NotifyBeers(ctx context.Context, roomName string) {
	h.pushBeers(ctx, roomName)
}

// NotifyRoomState pushes the current room state.
func (h *Hub) NotifyRoomState(ctx context.Context, roomName string) {
	h.pushRoomState(ctx, roomName)
}

// DisconnectUser hangs up every socket the user holds in the room.
func (h *Hub) DisconnectUser(ctx context.Context, roomName, username string) {
	h.publish(ctx, Envelope{Group: privateGroup(roomName, username), Close: true})
}

// --- delivery ---

// emitTo stamps and serializes a frame, then routes it through the fanout.
func (h *Hub) emitTo(group string, out Outbound, exclude string) {
	out.Timestamp = time.Now().UTC()
	payload, err := json.Marshal(out)
	if err != nil {
		logrus.WithError(err).WithField("command", out.Command).Error("Hub: failed to marshal frame")
		return
	}
	h.publish(context.Background(), Envelope{Group: group, Exclude: exclude, Payload: payload})
}

func (h *Hub) publish(ctx context.Context, env Envelope) {
	if h.fanout == nil {
		h.deliver(env)
		return
	}
	if err := h.fanout.Publish(ctx, env); err != nil {
		logrus.WithError(err).WithField("group", env.Group).Warn("Hub: fanout publish failed, delivering locally")
		h.deliver(env)
	}
}

// deliver writes an envelope to the local members of its group. Sends are
// non-blocking so the read lock is held only briefly.
func (h *Hub) deliver(env Envelope) {
	h.groupsMu.RLock()
	defer h.groupsMu.RUnlock()

	members := h.groups[env.Group]
	if len(members) == 0 {
		return
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"group":        env.Group,
		"message_size": len(env.Payload),
	})
	for c := range members {
		if c.id == env.Exclude {
			continue
		}
		if env.Close {
			c.CloseConn()
			continue
		}
		c.trySend(env.Payload, logCtx)
	}
}
