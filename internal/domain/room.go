package domain

import (
	"strings"
	"time"
	"unicode"

	"github.com/samber/lo"
)

// RoomState is the lifecycle phase of a tasting session.
type RoomState string

const (
	RoomWaiting    RoomState = "WAITING"
	RoomStarting   RoomState = "STARTING"
	RoomInProgress RoomState = "IN_PROGRESS"
	RoomFinished   RoomState = "FINISHED"
)

const (
	RoomNameMaxLength     = 8
	RoomPasswordMaxLength = 20
	MinRoomSlots          = 1
	MaxRoomSlots          = 10
)

// restrictedRoomNames collide with routing segments.
var restrictedRoomNames = []string{"create", "join", "none", "null", "true", "false", "admin"}

// roomTransitions lists the moves a host can make. Going back from
// IN_PROGRESS to STARTING reopens beer selection, FINISHED to IN_PROGRESS
// resumes a closed session.
var roomTransitions = map[RoomState][]RoomState{
	RoomWaiting:    {RoomStarting, RoomInProgress},
	RoomStarting:   {RoomInProgress},
	RoomInProgress: {RoomStarting, RoomFinished},
	RoomFinished:   {RoomInProgress},
}

// ParseRoomState accepts a state name in any case.
func ParseRoomState(s string) (RoomState, bool) {
	st := RoomState(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := roomTransitions[st]; !ok {
		return "", false
	}
	return st, true
}

// CanTransition reports whether a room in state from may move to state to.
// Staying in the same state is always allowed.
func (from RoomState) CanTransition(to RoomState) bool {
	if from == to {
		return true
	}
	return lo.Contains(roomTransitions[from], to)
}

// Room is a capacity-bounded tasting session addressed by its name.
type Room struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(8);uniqueIndex:idx_room_name;not null"`
	Password  string    `gorm:"type:varchar(100)"` // bcrypt hash, empty for public rooms
	HostID    *uint     `gorm:"index"`
	Host      *User     `gorm:"constraint:OnDelete:SET NULL"`
	Slots     int       `gorm:"not null;default:1"`
	State     RoomState `gorm:"type:varchar(11);not null;default:WAITING;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (r *Room) HasPassword() bool { return r.Password != "" }

func (r *Room) IsHost(userID uint) bool {
	return r.HostID != nil && *r.HostID == userID
}

// NormalizeRoomName lower-cases and trims a requested name.
func NormalizeRoomName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func IsRestrictedRoomName(name string) bool {
	return lo.Contains(restrictedRoomNames, NormalizeRoomName(name))
}

// IsValidRoomName checks the shape of an already normalized name.
func IsValidRoomName(name string) bool {
	if name == "" || len(name) > RoomNameMaxLength {
		return false
	}
	for _, r := range name {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return false
		}
	}
	return true
}

// RoomView is what clients see of a room. The password never leaves the server.
type RoomView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Host        *UserView `json:"host"`
	Slots       int       `json:"slots"`
	State       RoomState `json:"state"`
	HasPassword bool      `json:"has_password"`
	UsersCount  int       `json:"users_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *Room) View(usersCount int) RoomView {
	v := RoomView{
		ID:          r.ID,
		Name:        r.Name,
		Slots:       r.Slots,
		State:       r.State,
		HasPassword: r.HasPassword(),
		UsersCount:  usersCount,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Host != nil {
		v.Host = lo.ToPtr(r.Host.View())
	}
	return v
}

// RoomDetail adds the roster and the flight to a RoomView.
type RoomDetail struct {
	RoomView
	Users []UserView    `json:"users"`
	Beers []BeerSummary `json:"beers"`
}
