package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
	"github.com/Alschn/Beerdegu/internal/repository/mocks"
	"github.com/Alschn/Beerdegu/internal/service"
)

type roomFixture struct {
	rooms   *mocks.RoomRepository
	flights *mocks.FlightRepository
	beers   *mocks.BeerRepository
	svc     *service.RoomService
}

func newRoomFixture(pruneAfter time.Duration) roomFixture {
	f := roomFixture{
		rooms:   new(mocks.RoomRepository),
		flights: new(mocks.FlightRepository),
		beers:   new(mocks.BeerRepository),
	}
	f.svc = service.NewRoomService(f.rooms, f.flights, f.beers, pruneAfter)
	return f
}

var (
	host  = domain.Principal{UserID: 1, Username: "host"}
	guest = domain.Principal{UserID: 2, Username: "guest"}
)

func openRoom(name string) *domain.Room {
	return &domain.Room{ID: 10, Name: name, HostID: lo.ToPtr(host.UserID), Slots: 2, State: domain.RoomWaiting}
}

// --- CreateRoom ---

func TestRoomService_CreateRoom_Success(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()

	f.rooms.On("Create", ctx, mock.MatchedBy(func(r *domain.Room) bool {
		assert.Equal(t, "brewup1", r.Name)
		assert.Equal(t, 4, r.Slots)
		assert.Equal(t, domain.RoomWaiting, r.State)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(r.Password), []byte("hops")), "password must be hashed")
		return true
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Room).ID = 42
	}).Return(nil).Once()

	room, err := f.svc.CreateRoom(ctx, host, service.CreateRoomInput{Name: "BrewUp1", Password: "hops", Slots: 4})

	require.NoError(t, err)
	assert.Equal(t, uint(42), room.ID)
	require.NotNil(t, room.Host)
	assert.Equal(t, "host", room.Host.Username)
	f.rooms.AssertExpectations(t)
}

func TestRoomService_CreateRoom_DefaultsToOneSlot(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()

	f.rooms.On("Create", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.Slots == 1 && r.Password == "" })).Return(nil).Once()

	_, err := f.svc.CreateRoom(ctx, host, service.CreateRoomInput{Name: "solo"})
	require.NoError(t, err)
	f.rooms.AssertExpectations(t)
}

func TestRoomService_CreateRoom_Rejections(t *testing.T) {
	cases := []struct {
		name  string
		input service.CreateRoomInput
		code  string
	}{
		{"restricted name", service.CreateRoomInput{Name: "Create", Slots: 2}, service.CodeRoomNameRestricted},
		{"too long", service.CreateRoomInput{Name: "waytoolongname", Slots: 2}, service.CodeRoomNameInvalid},
		{"symbols", service.CreateRoomInput{Name: "a-b", Slots: 2}, service.CodeRoomNameInvalid},
		{"too many slots", service.CreateRoomInput{Name: "big", Slots: 11}, service.CodeRoomSlotsInvalid},
		{"negative slots", service.CreateRoomInput{Name: "neg", Slots: -1}, service.CodeRoomSlotsInvalid},
		{"long password", service.CreateRoomInput{Name: "pw", Slots: 2, Password: "123456789012345678901"}, service.CodeRoomPasswordInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRoomFixture(0)
			_, err := f.svc.CreateRoom(context.Background(), host, tc.input)
			require.Error(t, err)
			assert.True(t, service.HasCode(err, tc.code), "got %v", err)
			f.rooms.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestRoomService_CreateRoom_AlreadyHosting(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("Create", ctx, mock.AnythingOfType("*domain.Room")).Return(repository.ErrAlreadyHosting).Once()

	_, err := f.svc.CreateRoom(ctx, host, service.CreateRoomInput{Name: "second", Slots: 2})

	ve, ok := service.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "host", ve.Field)
	assert.Equal(t, service.CodeRoomHostAlreadyHosting, ve.Code)
	f.rooms.AssertExpectations(t)
}

func TestRoomService_CreateRoom_NameTaken(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("Create", ctx, mock.AnythingOfType("*domain.Room")).Return(repository.ErrDuplicateEntry).Once()

	_, err := f.svc.CreateRoom(ctx, host, service.CreateRoomInput{Name: "brewup1", Slots: 2})

	ve, ok := service.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, service.CodeRoomNameTaken, ve.Code)
}

// --- JoinRoom / LeaveRoom ---

func TestRoomService_JoinRoom_Success(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(false, nil).Once()
	f.rooms.On("AddMember", ctx, room.ID, guest.UserID).Return(nil).Once()

	got, joined, err := f.svc.JoinRoom(ctx, "BREWUP1", "", guest)

	require.NoError(t, err)
	assert.True(t, joined)
	assert.Equal(t, room, got)
	f.rooms.AssertExpectations(t)
}

func TestRoomService_JoinRoom_AlreadyMemberIsIdempotent(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(true, nil).Once()

	// a wrong password does not matter once the user is in
	_, joined, err := f.svc.JoinRoom(ctx, "brewup1", "whatever", guest)

	require.NoError(t, err)
	assert.False(t, joined)
	f.rooms.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_JoinRoom_Passwords(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hops"), bcrypt.MinCost)
	require.NoError(t, err)

	cases := []struct {
		name     string
		stored   string
		given    string
		wantCode string
	}{
		{"missing password", string(hash), "", service.CodeRoomPasswordInvalid},
		{"wrong password", string(hash), "malt", service.CodeRoomPasswordInvalid},
		{"password on open room", "", "hops", service.CodeRoomPasswordNotRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newRoomFixture(0)
			ctx := context.Background()
			room := openRoom("secret")
			room.Password = tc.stored

			f.rooms.On("FindByName", ctx, "secret").Return(room, nil).Once()
			f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(false, nil).Once()

			_, _, err := f.svc.JoinRoom(ctx, "secret", tc.given, guest)

			ve, ok := service.AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, "password", ve.Field)
			assert.Equal(t, tc.wantCode, ve.Code)
			f.rooms.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("correct password", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		room := openRoom("secret")
		room.Password = string(hash)

		f.rooms.On("FindByName", ctx, "secret").Return(room, nil).Once()
		f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(false, nil).Once()
		f.rooms.On("AddMember", ctx, room.ID, guest.UserID).Return(nil).Once()

		_, joined, err := f.svc.JoinRoom(ctx, "secret", "hops", guest)
		require.NoError(t, err)
		assert.True(t, joined)
	})
}

func TestRoomService_JoinRoom_Full(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(false, nil).Once()
	f.rooms.On("AddMember", ctx, room.ID, guest.UserID).Return(repository.ErrRoomFull).Once()

	_, _, err := f.svc.JoinRoom(ctx, "brewup1", "", guest)

	ve, ok := service.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "slots", ve.Field)
	assert.Equal(t, service.CodeRoomAlreadyFull, ve.Code)
}

func TestRoomService_JoinRoom_NotFound(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("FindByName", ctx, "ghost").Return(nil, repository.ErrRoomNotFound).Once()

	_, _, err := f.svc.JoinRoom(ctx, "ghost", "", guest)
	assert.True(t, errors.Is(err, service.ErrRoomNotFound))
}

func TestRoomService_LeaveRoom(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Twice()
	f.rooms.On("RemoveMember", ctx, room.ID, guest.UserID).Return(nil).Once()
	f.rooms.On("RemoveMember", ctx, room.ID, guest.UserID).Return(repository.ErrNotFound).Once()

	_, err := f.svc.LeaveRoom(ctx, "brewup1", guest)
	require.NoError(t, err)

	_, err = f.svc.LeaveRoom(ctx, "brewup1", guest)
	assert.True(t, service.HasCode(err, service.CodeUserNotInRoom))
	f.rooms.AssertExpectations(t)
}

// --- state ---

func TestRoomService_ChangeRoomState(t *testing.T) {
	t.Run("host moves forward", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		room := openRoom("brewup1")

		f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
		f.rooms.On("UpdateState", ctx, mock.MatchedBy(func(r *domain.Room) bool { return r.State == domain.RoomStarting })).Return(nil).Once()
		f.rooms.On("CountMembers", ctx, room.ID).Return(int64(2), nil).Once()

		view, err := f.svc.ChangeRoomState(ctx, "brewup1", host, "starting")

		require.NoError(t, err)
		assert.Equal(t, domain.RoomStarting, view.State)
		assert.Equal(t, 2, view.UsersCount)
		f.rooms.AssertExpectations(t)
	})

	t.Run("same state skips the write", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()
		f.rooms.On("CountMembers", ctx, uint(10)).Return(int64(1), nil).Once()

		_, err := f.svc.ChangeRoomState(ctx, "brewup1", host, "WAITING")
		require.NoError(t, err)
		f.rooms.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything)
	})

	t.Run("guest is denied", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()

		_, err := f.svc.ChangeRoomState(ctx, "brewup1", guest, "STARTING")
		assert.True(t, errors.Is(err, service.ErrPermissionDenied))
	})

	t.Run("unknown state", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()

		_, err := f.svc.ChangeRoomState(ctx, "brewup1", host, "PARTY")
		assert.True(t, service.HasCode(err, service.CodeRoomStateInvalid))
	})

	t.Run("skipping to finished", func(t *testing.T) {
		f := newRoomFixture(0)
		ctx := context.Background()
		f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()

		_, err := f.svc.ChangeRoomState(ctx, "brewup1", host, "FINISHED")
		assert.True(t, service.HasCode(err, service.CodeRoomStateTransition))
		f.rooms.AssertNotCalled(t, "UpdateState", mock.Anything, mock.Anything)
	})
}

// --- presence ---

func TestRoomService_ListMembers_PrunesIdle(t *testing.T) {
	f := newRoomFixture(5 * time.Minute)
	ctx := context.Background()
	room := openRoom("brewup1")
	before := time.Now()

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.rooms.On("ListMembers", ctx, room.ID, mock.MatchedBy(func(staleBefore time.Time) bool {
		return !staleBefore.IsZero() && staleBefore.Before(before.Add(-4*time.Minute))
	})).Return([]domain.User{{ID: 1, Username: "host"}, {ID: 2, Username: "guest"}}, nil).Once()

	users, err := f.svc.ListMembers(ctx, "brewup1")

	require.NoError(t, err)
	assert.Equal(t, []domain.UserView{{ID: 1, Username: "host"}, {ID: 2, Username: "guest"}}, users)
	f.rooms.AssertExpectations(t)
}

func TestRoomService_ListMembers_NoPruneWhenDisabled(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.rooms.On("ListMembers", ctx, room.ID, time.Time{}).Return([]domain.User{}, nil).Once()

	users, err := f.svc.ListMembers(ctx, "brewup1")
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestRoomService_EvictIdleMembers(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("EvictIdleMembers", ctx, mock.AnythingOfType("time.Time")).Return(int64(3), nil).Once()

	removed, err := f.svc.EvictIdleMembers(ctx, 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

// --- flight ---

func TestRoomService_AddBeerToFlight_Twice(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")
	beer := &domain.Beer{ID: 7, Name: "Atak Chmielu"}

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Twice()
	f.beers.On("FindByID", ctx, uint(7)).Return(beer, nil).Twice()
	f.flights.On("Append", ctx, room.ID, uint(7)).Return(&domain.FlightEntry{RoomID: room.ID, BeerID: 7}, nil).Once()
	f.flights.On("Append", ctx, room.ID, uint(7)).Return(nil, repository.ErrDuplicateEntry).Once()
	f.flights.On("List", ctx, room.ID).Return([]domain.FlightEntry{{BeerID: 7, Beer: beer, Position: 0}}, nil).Once()

	beers, err := f.svc.AddBeerToFlight(ctx, "brewup1", host, 7)
	require.NoError(t, err)
	assert.Equal(t, []domain.BeerSummary{{ID: 7, Name: "Atak Chmielu"}}, beers)

	_, err = f.svc.AddBeerToFlight(ctx, "brewup1", host, 7)
	ve, ok := service.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "beer_id", ve.Field)
	assert.Equal(t, service.CodeBeerAlreadyInRoom, ve.Code)
	f.flights.AssertExpectations(t)
}

func TestRoomService_AddBeerToFlight_UnknownBeer(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()
	f.beers.On("FindByID", ctx, uint(99)).Return(nil, repository.ErrBeerNotFound).Once()

	_, err := f.svc.AddBeerToFlight(ctx, "brewup1", host, 99)
	assert.True(t, errors.Is(err, service.ErrBeerNotFound))
	f.flights.AssertNotCalled(t, "Append", mock.Anything, mock.Anything, mock.Anything)
}

func TestRoomService_AddBeerToFlight_GuestDenied(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	f.rooms.On("FindByName", ctx, "brewup1").Return(openRoom("brewup1"), nil).Once()

	_, err := f.svc.AddBeerToFlight(ctx, "brewup1", guest, 7)
	assert.True(t, errors.Is(err, service.ErrPermissionDenied))
	f.beers.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestRoomService_RemoveBeerFromFlight(t *testing.T) {
	f := newRoomFixture(0)
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Twice()
	f.flights.On("Remove", ctx, room.ID, uint(7)).Return(nil).Once()
	f.flights.On("Remove", ctx, room.ID, uint(7)).Return(repository.ErrNotFound).Once()
	f.flights.On("List", ctx, room.ID).Return([]domain.FlightEntry{}, nil).Once()

	beers, err := f.svc.RemoveBeerFromFlight(ctx, "brewup1", host, 7)
	require.NoError(t, err)
	assert.Empty(t, beers)

	_, err = f.svc.RemoveBeerFromFlight(ctx, "brewup1", host, 7)
	assert.True(t, service.HasCode(err, service.CodeBeerNotInRoom))
}
