package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoomName(t *testing.T) {
	assert.Equal(t, "brewup1", NormalizeRoomName("  BrewUp1 "))
	assert.Equal(t, "abc", NormalizeRoomName("ABC"))
}

func TestIsRestrictedRoomName(t *testing.T) {
	for _, name := range []string{"admin", "ADMIN", "Join", "create", "none", "null", "true", "False"} {
		assert.True(t, IsRestrictedRoomName(name), name)
	}
	assert.False(t, IsRestrictedRoomName("brewup1"))
	assert.False(t, IsRestrictedRoomName("admins"))
}

func TestIsValidRoomName(t *testing.T) {
	assert.True(t, IsValidRoomName("brewup1"))
	assert.True(t, IsValidRoomName("a"))
	assert.False(t, IsValidRoomName(""))
	assert.False(t, IsValidRoomName("toolongname"))
	assert.False(t, IsValidRoomName("bad-name"))
	assert.False(t, IsValidRoomName("żubr"))
}

func TestRoomState_CanTransition(t *testing.T) {
	cases := []struct {
		from, to RoomState
		ok       bool
	}{
		{RoomWaiting, RoomStarting, true},
		{RoomWaiting, RoomInProgress, true},
		{RoomStarting, RoomInProgress, true},
		{RoomInProgress, RoomFinished, true},
		{RoomInProgress, RoomStarting, true},
		{RoomFinished, RoomInProgress, true},
		{RoomFinished, RoomFinished, true},
		{RoomWaiting, RoomFinished, false},
		{RoomStarting, RoomWaiting, false},
		{RoomFinished, RoomWaiting, false},
		{RoomStarting, RoomFinished, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestParseRoomState(t *testing.T) {
	st, ok := ParseRoomState("in_progress")
	assert.True(t, ok)
	assert.Equal(t, RoomInProgress, st)

	_, ok = ParseRoomState("PAUSED")
	assert.False(t, ok)
}

func TestRoom_ViewHidesPassword(t *testing.T) {
	hostID := uint(3)
	r := &Room{ID: 1, Name: "brewup1", Password: "$2a$hash", HostID: &hostID, Host: &User{ID: 3, Username: "ala"}, Slots: 2, State: RoomWaiting}

	v := r.View(1)

	assert.True(t, v.HasPassword)
	assert.Equal(t, "ala", v.Host.Username)
	assert.Equal(t, 1, v.UsersCount)
	assert.True(t, r.IsHost(3))
	assert.False(t, r.IsHost(4))
}
