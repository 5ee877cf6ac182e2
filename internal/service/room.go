package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// RoomService holds the session commands and queries: rooms, membership,
// presence and the beer flight.
type RoomService struct {
	roomRepo   repository.RoomRepository
	flightRepo repository.FlightRepository
	beerRepo   repository.BeerRepository
	// pruneAfter drops members idle this long whenever the roster is read.
	// Zero disables the inline prune.
	pruneAfter time.Duration
}

func NewRoomService(roomRepo repository.RoomRepository, flightRepo repository.FlightRepository, beerRepo repository.BeerRepository, pruneAfter time.Duration) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	if flightRepo == nil {
		panic("FlightRepository cannot be nil for RoomService")
	}
	if beerRepo == nil {
		panic("BeerRepository cannot be nil for RoomService")
	}
	return &RoomService{
		roomRepo:   roomRepo,
		flightRepo: flightRepo,
		beerRepo:   beerRepo,
		pruneAfter: pruneAfter,
	}
}

// CreateRoomInput carries the user-supplied room settings.
type CreateRoomInput struct {
	Name     string
	Password string
	Slots    int
}

// CreateRoom validates and stores a room hosted by host, who becomes its first member.
func (s *RoomService) CreateRoom(ctx context.Context, host domain.Principal, in CreateRoomInput) (*domain.Room, error) {
	name := domain.NormalizeRoomName(in.Name)
	logCtx := logrus.WithFields(logrus.Fields{"user_id": host.UserID, "room": name})

	// 1. shape of the request
	if domain.IsRestrictedRoomName(name) {
		return nil, newValidationError("name", CodeRoomNameRestricted, "This room name is restricted.")
	}
	if !domain.IsValidRoomName(name) {
		return nil, newValidationError("name", CodeRoomNameInvalid, "Room name must be 1-8 letters or digits.")
	}
	slots := in.Slots
	if slots == 0 {
		slots = domain.MinRoomSlots
	}
	if slots < domain.MinRoomSlots || slots > domain.MaxRoomSlots {
		return nil, newValidationError("slots", CodeRoomSlotsInvalid, "Slots must be between 1 and 10.")
	}
	if len(in.Password) > domain.RoomPasswordMaxLength {
		return nil, newValidationError("password", CodeRoomPasswordInvalid, "Password must be at most 20 characters.")
	}

	room := &domain.Room{
		Name:   name,
		HostID: lo.ToPtr(host.UserID),
		Slots:  slots,
		State:  domain.RoomWaiting,
	}
	if in.Password != "" {
		hashed, err := hashPassword(in.Password)
		if err != nil {
			logCtx.WithError(err).Error("Failed to hash room password")
			return nil, ErrInternalServer
		}
		room.Password = hashed
	}

	// 2. persist together with the host membership; one open room per host
	if err := s.roomRepo.Create(ctx, room); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyHosting):
			return nil, newValidationError("host", CodeRoomHostAlreadyHosting, "You are already hosting a room that has not finished.")
		case errors.Is(err, repository.ErrDuplicateEntry):
			return nil, newValidationError("name", CodeRoomNameTaken, "Room with this name already exists.")
		}
		logCtx.WithError(err).Error("Failed to save new room")
		return nil, ErrInternalServer
	}
	room.Host = &domain.User{ID: host.UserID, Username: host.Username}

	logCtx.WithField("room_id", room.ID).Info("Room created successfully")
	return room, nil
}

// JoinRoom adds the user to the room. joined is false when the user was
// already a member, which is not an error.
func (s *RoomService) JoinRoom(ctx context.Context, name, password string, user domain.Principal) (room *domain.Room, joined bool, err error) {
	logCtx := logrus.WithFields(logrus.Fields{"user_id": user.UserID, "room": name})

	room, err = s.GetRoom(ctx, name)
	if err != nil {
		return nil, false, err
	}

	member, err := s.roomRepo.IsMember(ctx, room.ID, user.UserID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check membership")
		return nil, false, ErrInternalServer
	}
	if member {
		return room, false, nil
	}

	if room.HasPassword() {
		if password == "" || !checkPassword(password, room.Password) {
			return nil, false, newValidationError("password", CodeRoomPasswordInvalid, "Invalid room password.")
		}
	} else if password != "" {
		return nil, false, newValidationError("password", CodeRoomPasswordNotRequired, "This room does not require a password.")
	}

	switch err := s.roomRepo.AddMember(ctx, room.ID, user.UserID); {
	case err == nil:
	case errors.Is(err, repository.ErrAlreadyMember):
		return room, false, nil
	case errors.Is(err, repository.ErrRoomFull):
		return nil, false, newValidationError("slots", CodeRoomAlreadyFull, "Room is already full.")
	case errors.Is(err, repository.ErrRoomNotFound):
		return nil, false, ErrRoomNotFound
	default:
		logCtx.WithError(err).Error("Failed to add member")
		return nil, false, ErrInternalServer
	}

	logCtx.Info("User joined room successfully")
	return room, true, nil
}

// LeaveRoom removes the user's membership.
func (s *RoomService) LeaveRoom(ctx context.Context, name string, user domain.Principal) (*domain.Room, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.roomRepo.RemoveMember(ctx, room.ID, user.UserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newValidationError("user", CodeUserNotInRoom, "You are not in this room.")
		}
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": user.UserID, "room": name}).Error("Failed to remove member")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"user_id": user.UserID, "room": name}).Info("User left room")
	return room, nil
}

// GetRoom looks a room up by name, in any case.
func (s *RoomService) GetRoom(ctx context.Context, name string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByName(ctx, domain.NormalizeRoomName(name))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room", name).Error("GetRoom: Repository error")
		return nil, ErrInternalServer
	}
	return room, nil
}

// RoomState is the snapshot pushed as set_room_state.
func (s *RoomService) RoomState(ctx context.Context, name string) (*domain.RoomView, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, room)
}

func (s *RoomService) view(ctx context.Context, room *domain.Room) (*domain.RoomView, error) {
	count, err := s.roomRepo.CountMembers(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to count members")
		return nil, ErrInternalServer
	}
	v := room.View(int(count))
	return &v, nil
}

// RoomDetail returns the room with its roster and flight.
func (s *RoomService) RoomDetail(ctx context.Context, name string) (*domain.RoomDetail, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	users, err := s.members(ctx, room)
	if err != nil {
		return nil, err
	}
	beers, err := s.flight(ctx, room)
	if err != nil {
		return nil, err
	}
	return &domain.RoomDetail{RoomView: room.View(len(users)), Users: users, Beers: beers}, nil
}

// ListRooms returns every room with its member count.
func (s *RoomService) ListRooms(ctx context.Context) ([]domain.RoomView, error) {
	rooms, err := s.roomRepo.List(ctx)
	if err != nil {
		logrus.WithError(err).Error("Failed to list rooms")
		return nil, ErrInternalServer
	}
	views := make([]domain.RoomView, 0, len(rooms))
	for i := range rooms {
		v, err := s.view(ctx, &rooms[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// MembershipStatus tells whether the user is in the room and hosts it.
func (s *RoomService) MembershipStatus(ctx context.Context, name string, userID uint) (isMember, isHost bool, err error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return false, false, err
	}
	isMember, err = s.roomRepo.IsMember(ctx, room.ID, userID)
	if err != nil {
		logrus.WithError(err).WithField("room", name).Error("Failed to check membership")
		return false, false, ErrInternalServer
	}
	return isMember, room.IsHost(userID), nil
}

// ChangeRoomState moves the room along its lifecycle. Host only.
func (s *RoomService) ChangeRoomState(ctx context.Context, name string, user domain.Principal, state string) (*domain.RoomView, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(user.UserID) {
		return nil, ErrPermissionDenied
	}
	next, ok := domain.ParseRoomState(state)
	if !ok {
		return nil, newValidationError("state", CodeRoomStateInvalid, "Unknown room state.")
	}
	if !room.State.CanTransition(next) {
		return nil, newValidationError("state", CodeRoomStateTransition, "Room cannot move from "+string(room.State)+" to "+string(next)+".")
	}
	if room.State != next {
		prev := room.State
		room.State = next
		if err := s.roomRepo.UpdateState(ctx, room); err != nil {
			logrus.WithError(err).WithField("room", name).Error("Failed to update room state")
			return nil, ErrInternalServer
		}
		logrus.WithFields(logrus.Fields{"room": name, "from": prev, "to": next}).Info("Room state changed")
	}
	return s.view(ctx, room)
}

// ListMembers returns the roster after dropping members idle past the prune threshold.
func (s *RoomService) ListMembers(ctx context.Context, name string) ([]domain.UserView, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.members(ctx, room)
}

func (s *RoomService) members(ctx context.Context, room *domain.Room) ([]domain.UserView, error) {
	var staleBefore time.Time
	if s.pruneAfter > 0 {
		staleBefore = time.Now().Add(-s.pruneAfter)
	}
	users, err := s.roomRepo.ListMembers(ctx, room.ID, staleBefore)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to list members")
		return nil, ErrInternalServer
	}
	return lo.Map(users, func(u domain.User, _ int) domain.UserView { return u.View() }), nil
}

// TouchMember records activity of a member.
func (s *RoomService) TouchMember(ctx context.Context, roomID, userID uint) error {
	if err := s.roomRepo.TouchMember(ctx, roomID, userID, time.Now()); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Warn("Failed to refresh last_active")
		return ErrInternalServer
	}
	return nil
}

// EvictIdleMembers removes memberships idle for longer than idleFor in every room.
func (s *RoomService) EvictIdleMembers(ctx context.Context, idleFor time.Duration) (int64, error) {
	removed, err := s.roomRepo.EvictIdleMembers(ctx, time.Now().Add(-idleFor))
	if err != nil {
		logrus.WithError(err).Error("Failed to evict idle members")
		return 0, ErrInternalServer
	}
	return removed, nil
}

// ListFlight returns the room's beers in tasting order.
func (s *RoomService) ListFlight(ctx context.Context, name string) ([]domain.BeerSummary, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.flight(ctx, room)
}

func (s *RoomService) flight(ctx context.Context, room *domain.Room) ([]domain.BeerSummary, error) {
	entries, err := s.flightRepo.List(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to list flight")
		return nil, ErrInternalServer
	}
	return lo.Map(entries, func(e domain.FlightEntry, _ int) domain.BeerSummary { return summary(e) }), nil
}

// AddBeerToFlight appends a catalog beer to the room. Host only.
func (s *RoomService) AddBeerToFlight(ctx context.Context, name string, user domain.Principal, beerID uint) ([]domain.BeerSummary, error) {
	room, err := s.hostedRoom(ctx, name, user)
	if err != nil {
		return nil, err
	}
	if _, err := s.beerRepo.FindByID(ctx, beerID); err != nil {
		if errors.Is(err, repository.ErrBeerNotFound) {
			return nil, ErrBeerNotFound
		}
		logrus.WithError(err).WithField("beer_id", beerID).Error("Failed to look up beer")
		return nil, ErrInternalServer
	}
	if _, err := s.flightRepo.Append(ctx, room.ID, beerID); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, newValidationError("beer_id", CodeBeerAlreadyInRoom, "Beer is already in this room.")
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room": name, "beer_id": beerID}).Error("Failed to add beer to flight")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room": name, "beer_id": beerID}).Info("Beer added to room")
	return s.flight(ctx, room)
}

// RemoveBeerFromFlight drops a beer and closes the gap. Host only.
func (s *RoomService) RemoveBeerFromFlight(ctx context.Context, name string, user domain.Principal, beerID uint) ([]domain.BeerSummary, error) {
	room, err := s.hostedRoom(ctx, name, user)
	if err != nil {
		return nil, err
	}
	if err := s.flightRepo.Remove(ctx, room.ID, beerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newValidationError("beer_id", CodeBeerNotInRoom, "Beer is not in this room.")
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room": name, "beer_id": beerID}).Error("Failed to remove beer from flight")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"room": name, "beer_id": beerID}).Info("Beer removed from room")
	return s.flight(ctx, room)
}

func (s *RoomService) hostedRoom(ctx context.Context, name string, user domain.Principal) (*domain.Room, error) {
	room, err := s.GetRoom(ctx, name)
	if err != nil {
		return nil, err
	}
	if !room.IsHost(user.UserID) {
		return nil, ErrPermissionDenied
	}
	return room, nil
}
