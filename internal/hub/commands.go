package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

type route int

const (
	toRoom route = iota
	toPrivate
)

// command answers one inbound frame. A nil Outbound means nothing is sent.
type command struct {
	route  route
	handle func(ctx context.Context, c *Client, data json.RawMessage) (*Outbound, error)
}

func (h *Hub) commandTable() map[string]command {
	beers := command{toRoom, h.getBeers}
	return map[string]command{
		"get_new_message":   {toRoom, h.newMessage},
		"get_users":         {toRoom, h.getUsers},
		"get_beers":         beers,
		"load_beers":        beers,
		"get_room_state":    {toRoom, h.getRoomState},
		"change_room_state": {toRoom, h.changeRoomState},
		"get_final_ratings": {toRoom, h.getFinalRatings},
		"user_active":       {toRoom, noReply},
		"get_form_data":     {toPrivate, h.getFormData},
		"user_form_save":    {toPrivate, h.saveForm},
		"get_user_ratings":  {toPrivate, h.getUserRatings},
	}
}

// dispatch runs one command for c. Unknown or failing commands are dropped;
// the realtime protocol has no error frame.
func (h *Hub) dispatch(ctx context.Context, c *Client, in Inbound) {
	logCtx := c.logCtx().WithField("command", in.Command)
	if in.Command == "" {
		logCtx.Debug("Dropping frame without command")
		return
	}
	if err := h.rooms.TouchMember(ctx, c.roomID, c.user.UserID); err != nil {
		logCtx.WithError(err).Debug("Failed to refresh activity")
	}

	cmd, ok := h.commands[in.Command]
	if !ok {
		logCtx.Debug("Dropping unknown command")
		return
	}
	out, err := cmd.handle(ctx, c, in.Data)
	if err != nil {
		logCtx.WithError(err).Debug("Command failed, dropped")
		return
	}
	if out == nil {
		return
	}

	group := roomGroup(c.roomName)
	if cmd.route == toPrivate {
		group = privateGroup(c.roomName, c.user.Username)
	}
	h.emitTo(group, *out, "")
}

func noReply(context.Context, *Client, json.RawMessage) (*Outbound, error) {
	return nil, nil
}

func (h *Hub) newMessage(_ context.Context, c *Client, data json.RawMessage) (*Outbound, error) {
	if len(data) == 0 {
		data = json.RawMessage(`""`)
	}
	return &Outbound{
		Command: "set_new_message",
		Data: map[string]any{
			"message": data,
			"user":    c.user.Username,
		},
	}, nil
}

func (h *Hub) getUsers(ctx context.Context, c *Client, _ json.RawMessage) (*Outbound, error) {
	users, err := h.rooms.ListMembers(ctx, c.roomName)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_users", Data: users}, nil
}

func (h *Hub) getBeers(ctx context.Context, c *Client, _ json.RawMessage) (*Outbound, error) {
	beers, err := h.rooms.ListFlight(ctx, c.roomName)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_beers", Data: beers}, nil
}

func (h *Hub) getRoomState(ctx context.Context, c *Client, _ json.RawMessage) (*Outbound, error) {
	state, err := h.rooms.RoomState(ctx, c.roomName)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_room_state", Data: state}, nil
}

func (h *Hub) changeRoomState(ctx context.Context, c *Client, data json.RawMessage) (*Outbound, error) {
	var next string
	if err := json.Unmarshal(data, &next); err != nil {
		return nil, fmt.Errorf("room state must be a string: %w", err)
	}
	state, err := h.rooms.ChangeRoomState(ctx, c.roomName, c.user, next)
	if err != nil {
		return nil, err
	}
	logrus.WithFields(logrus.Fields{"room": c.roomName, "state": state.State}).Debug("Room state changed over websocket")
	return &Outbound{Command: "set_room_state", Data: state}, nil
}

func (h *Hub) getFinalRatings(ctx context.Context, c *Client, _ json.RawMessage) (*Outbound, error) {
	results, err := h.ratings.FinalBeerResults(ctx, c.roomName)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_final_results", Data: results}, nil
}

func (h *Hub) getFormData(ctx context.Context, c *Client, data json.RawMessage) (*Outbound, error) {
	beerID, err := parseBeerID(data)
	if err != nil {
		return nil, err
	}
	form, err := h.ratings.GetUserFormData(ctx, c.roomName, c.user.UserID, beerID)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_form_data", Data: form, BeerID: &beerID}, nil
}

func (h *Hub) saveForm(ctx context.Context, c *Client, data json.RawMessage) (*Outbound, error) {
	beerID, err := parseBeerID(data)
	if err != nil {
		return nil, err
	}
	if _, err := h.ratings.SaveUserForm(ctx, c.roomName, c.user.UserID, beerID, data); err != nil {
		return nil, err
	}
	return nil, nil
}

func (h *Hub) getUserRatings(ctx context.Context, c *Client, _ json.RawMessage) (*Outbound, error) {
	results, err := h.ratings.FinalUserResults(ctx, c.roomName, c.user.UserID)
	if err != nil {
		return nil, err
	}
	return &Outbound{Command: "set_user_results", Data: results}, nil
}
