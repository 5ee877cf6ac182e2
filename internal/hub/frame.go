package hub

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Inbound is a command sent by a browser.
type Inbound struct {
	Command string          `json:"command"`
	Data    json.RawMessage `json:"data"`
}

// Outbound is what the hub writes to sockets. Timestamp is set on send.
type Outbound struct {
	Command   string    `json:"command"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	BeerID    *uint     `json:"beer_id,omitempty"`
}

// Envelope is one delivery to a group, possibly relayed between instances.
type Envelope struct {
	Group string `json:"group"`
	// Exclude is the id of a connection that must not receive the payload.
	Exclude string `json:"exclude,omitempty"`
	// Close asks every connection in the group to hang up instead.
	Close   bool            `json:"close,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func roomGroup(room string) string {
	return "room_" + room
}

func privateGroup(room, username string) string {
	return "room_" + room + "_user_" + username
}

// parseBeerID accepts 7, "7" or {"beer_id": 7}.
func parseBeerID(raw json.RawMessage) (uint, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, err
	}
	if obj, ok := v.(map[string]any); ok {
		v = obj["beer_id"]
	}
	switch t := v.(type) {
	case float64:
		if t < 1 || t != float64(uint(t)) {
			return 0, fmt.Errorf("invalid beer id %v", t)
		}
		return uint(t), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(t), 10, 64)
		if err != nil || n == 0 {
			return 0, fmt.Errorf("invalid beer id %q", t)
		}
		return uint(n), nil
	default:
		return 0, fmt.Errorf("missing beer id")
	}
}
