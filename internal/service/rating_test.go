package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
	"github.com/Alschn/Beerdegu/internal/repository/mocks"
	"github.com/Alschn/Beerdegu/internal/service"
)

type ratingFixture struct {
	ratings *mocks.RatingRepository
	rooms   *mocks.RoomRepository
	flights *mocks.FlightRepository
	svc     *service.RatingService
}

func newRatingFixture() ratingFixture {
	f := ratingFixture{
		ratings: new(mocks.RatingRepository),
		rooms:   new(mocks.RoomRepository),
		flights: new(mocks.FlightRepository),
	}
	f.svc = service.NewRatingService(f.ratings, f.rooms, f.flights)
	return f
}

// storedRating emulates the single row behind a rating key.
func storedRating(row *domain.Rating) func(context.Context, domain.RatingKey, func(*domain.Rating)) *domain.Rating {
	return func(_ context.Context, key domain.RatingKey, apply func(*domain.Rating)) *domain.Rating {
		if row.ID == 0 {
			row.ID = 1
			row.AddedByID = lo.ToPtr(key.UserID)
			row.BeerID = key.BeerID
			row.RoomID = lo.ToPtr(key.RoomID)
		}
		if apply != nil {
			apply(row)
		}
		cp := *row
		return &cp
	}
}

func TestRatingService_GetUserFormData_CreatesBlankForm(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")
	row := &domain.Rating{}

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.flights.On("Contains", ctx, room.ID, uint(7)).Return(true, nil).Once()
	f.ratings.On("Upsert", ctx, domain.RatingKey{UserID: guest.UserID, BeerID: 7, RoomID: room.ID}, mock.Anything).
		Return(storedRating(row), nil).Once()

	form, err := f.svc.GetUserFormData(ctx, "brewup1", guest.UserID, 7)

	require.NoError(t, err)
	assert.Equal(t, uint(7), form.Beer)
	assert.Equal(t, "", form.Color)
	assert.Equal(t, "", form.Opinion)
	assert.Nil(t, form.Note)
	f.ratings.AssertExpectations(t)
}

func TestRatingService_GetUserFormData_BeerNotInRoom(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.flights.On("Contains", ctx, room.ID, uint(8)).Return(false, nil).Once()

	_, err := f.svc.GetUserFormData(ctx, "brewup1", guest.UserID, 8)

	assert.True(t, service.HasCode(err, service.CodeBeerNotInRoom))
	f.ratings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingService_SaveUserForm_TwiceUpdatesOneRow(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")
	room.State = domain.RoomInProgress
	row := &domain.Rating{}
	key := domain.RatingKey{UserID: guest.UserID, BeerID: 7, RoomID: room.ID}

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Twice()
	f.flights.On("Contains", ctx, room.ID, uint(7)).Return(true, nil).Twice()
	f.ratings.On("Upsert", ctx, key, mock.Anything).Return(storedRating(row), nil).Twice()

	first, err := f.svc.SaveUserForm(ctx, "brewup1", guest.UserID, 7, json.RawMessage(`{"beer_id":7,"color":"amber","note":"8"}`))
	require.NoError(t, err)
	assert.Equal(t, "amber", first.Color)
	require.NotNil(t, first.Note)
	assert.Equal(t, 8, *first.Note)

	second, err := f.svc.SaveUserForm(ctx, "brewup1", guest.UserID, 7, json.RawMessage(`{"foam":"thick","note":11}`))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "amber", second.Color, "fields not sent are kept")
	assert.Equal(t, "thick", second.Foam)
	assert.Nil(t, second.Note, "out of range note is stored as empty")
	f.ratings.AssertExpectations(t)
}

func TestRatingService_SaveUserForm_FinishedRoomIsLocked(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")
	room.State = domain.RoomFinished

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.flights.On("Contains", ctx, room.ID, uint(7)).Return(true, nil).Once()

	_, err := f.svc.SaveUserForm(ctx, "brewup1", guest.UserID, 7, json.RawMessage(`{"color":"amber"}`))

	assert.True(t, service.HasCode(err, service.CodeRatingLocked))
	f.ratings.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestRatingService_SaveUserForm_MalformedData(t *testing.T) {
	f := newRatingFixture()

	_, err := f.svc.SaveUserForm(context.Background(), "brewup1", guest.UserID, 7, json.RawMessage(`"color"`))

	assert.True(t, service.HasCode(err, service.CodeRatingFormInvalid))
	f.rooms.AssertNotCalled(t, "FindByName", mock.Anything, mock.Anything)
}

// --- results ---

func TestRatingService_FinalBeerResults(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.flights.On("List", ctx, room.ID).Return([]domain.FlightEntry{
		{BeerID: 7, Position: 0, Beer: &domain.Beer{ID: 7, Name: "Atak Chmielu", Brewery: &domain.Brewery{Name: "Pinta"}}},
		{BeerID: 9, Position: 1, Beer: &domain.Beer{ID: 9, Name: "Grodziskie"}},
	}, nil).Once()
	f.ratings.On("AverageNotes", ctx, room.ID).Return([]repository.BeerAverage{
		{BeerID: 7, Average: lo.ToPtr(20.0 / 3)},
	}, nil).Once()

	results, err := f.svc.FinalBeerResults(ctx, "brewup1")

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Order)
	assert.Equal(t, "Pinta", results[0].Beer.Brewery)
	require.NotNil(t, results[0].AverageRating)
	assert.Equal(t, 6.67, *results[0].AverageRating)
	assert.Equal(t, 2, results[1].Order)
	assert.Nil(t, results[1].AverageRating, "unrated beer has no average")
}

func TestRatingService_FinalUserResults_FollowsFlightOrder(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	room := openRoom("brewup1")

	f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
	f.flights.On("List", ctx, room.ID).Return([]domain.FlightEntry{
		{BeerID: 9, Position: 0, Beer: &domain.Beer{ID: 9, Name: "Grodziskie"}},
		{BeerID: 7, Position: 1, Beer: &domain.Beer{ID: 7, Name: "Atak Chmielu"}},
	}, nil).Once()
	f.ratings.On("ListForRoomByAuthor", ctx, room.ID, guest.UserID).Return([]domain.Rating{
		{ID: 3, BeerID: 9, Note: lo.ToPtr(5)},
		{ID: 2, BeerID: 7, Taste: lo.ToPtr("bitter")},
	}, nil).Once()

	results, err := f.svc.FinalUserResults(ctx, "brewup1", guest.UserID)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Order)
	assert.Equal(t, "Grodziskie", results[0].Beer.Name)
	assert.Equal(t, 2, results[1].Order)
	assert.Equal(t, "bitter", results[1].Taste)
}

// --- standalone ratings ---

func TestRatingService_GetRating_OtherAuthorLooksMissing(t *testing.T) {
	f := newRatingFixture()
	ctx := context.Background()
	f.ratings.On("FindByID", ctx, uint(5)).Return(&domain.Rating{ID: 5, AddedByID: lo.ToPtr(host.UserID)}, nil).Once()

	_, err := f.svc.GetRating(ctx, 5, guest.UserID)
	assert.True(t, errors.Is(err, service.ErrRatingNotFound))
}

func TestRatingService_UpdateRating(t *testing.T) {
	t.Run("author edits open rating", func(t *testing.T) {
		f := newRatingFixture()
		ctx := context.Background()
		rating := &domain.Rating{ID: 5, AddedByID: lo.ToPtr(guest.UserID), Room: &domain.Room{State: domain.RoomInProgress}}
		f.ratings.On("FindByID", ctx, uint(5)).Return(rating, nil).Once()
		f.ratings.On("Update", ctx, mock.MatchedBy(func(r *domain.Rating) bool { return r.Note != nil && *r.Note == 9 })).Return(nil).Once()

		view, err := f.svc.UpdateRating(ctx, 5, guest.UserID, json.RawMessage(`{"note":9,"smell":"citrus"}`))

		require.NoError(t, err)
		assert.Equal(t, "citrus", view.Smell)
		f.ratings.AssertExpectations(t)
	})

	t.Run("invalid note is rejected", func(t *testing.T) {
		f := newRatingFixture()
		_, err := f.svc.UpdateRating(context.Background(), 5, guest.UserID, json.RawMessage(`{"note":"ten"}`))
		ve, ok := service.AsValidationError(err)
		require.True(t, ok)
		assert.Equal(t, "note", ve.Field)
		assert.Equal(t, service.CodeNoteInvalid, ve.Code)
	})

	t.Run("finished room is protected", func(t *testing.T) {
		f := newRatingFixture()
		ctx := context.Background()
		rating := &domain.Rating{ID: 5, AddedByID: lo.ToPtr(guest.UserID), RoomID: lo.ToPtr(uint(10)), Room: &domain.Room{State: domain.RoomFinished}}
		f.ratings.On("FindByID", ctx, uint(5)).Return(rating, nil).Once()

		_, err := f.svc.UpdateRating(ctx, 5, guest.UserID, json.RawMessage(`{"note":9}`))
		assert.True(t, errors.Is(err, service.ErrPermissionDenied))
		f.ratings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestRatingService_DeleteRating(t *testing.T) {
	t.Run("room-less rating", func(t *testing.T) {
		f := newRatingFixture()
		ctx := context.Background()
		f.ratings.On("FindByID", ctx, uint(5)).Return(&domain.Rating{ID: 5, AddedByID: lo.ToPtr(guest.UserID)}, nil).Once()
		f.ratings.On("Delete", ctx, uint(5)).Return(nil).Once()

		require.NoError(t, f.svc.DeleteRating(ctx, 5, guest.UserID))
		f.ratings.AssertExpectations(t)
	})

	t.Run("room-linked rating", func(t *testing.T) {
		f := newRatingFixture()
		ctx := context.Background()
		f.ratings.On("FindByID", ctx, uint(5)).Return(&domain.Rating{ID: 5, AddedByID: lo.ToPtr(guest.UserID), RoomID: lo.ToPtr(uint(10))}, nil).Once()

		err := f.svc.DeleteRating(ctx, 5, guest.UserID)
		assert.True(t, errors.Is(err, service.ErrPermissionDenied))
		f.ratings.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

// --- report ---

func TestReportService_GenerateReport(t *testing.T) {
	newReport := func() (ratingFixture, *service.ReportService) {
		f := newRatingFixture()
		return f, service.NewReportService(f.rooms, f.svc)
	}

	t.Run("not finished", func(t *testing.T) {
		f, svc := newReport()
		ctx := context.Background()
		room := openRoom("brewup1")
		room.State = domain.RoomInProgress
		f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
		f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(true, nil).Once()

		_, err := svc.GenerateReport(ctx, "brewup1", guest)
		assert.True(t, errors.Is(err, service.ErrRoomNotFinished))
	})

	t.Run("not a member", func(t *testing.T) {
		f, svc := newReport()
		ctx := context.Background()
		room := openRoom("brewup1")
		room.State = domain.RoomFinished
		f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
		f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(false, nil).Once()

		_, err := svc.GenerateReport(ctx, "brewup1", guest)
		assert.True(t, errors.Is(err, service.ErrNotMember))
	})

	t.Run("finished", func(t *testing.T) {
		f, svc := newReport()
		ctx := context.Background()
		room := openRoom("brewup1")
		room.State = domain.RoomFinished
		entries := []domain.FlightEntry{{BeerID: 7, Position: 0, Beer: &domain.Beer{ID: 7, Name: "Atak Chmielu"}}}

		f.rooms.On("FindByName", ctx, "brewup1").Return(room, nil).Once()
		f.rooms.On("IsMember", ctx, room.ID, guest.UserID).Return(true, nil).Once()
		f.flights.On("List", ctx, room.ID).Return(entries, nil).Twice()
		f.ratings.On("ListForRoomByAuthor", ctx, room.ID, guest.UserID).Return([]domain.Rating{{ID: 1, BeerID: 7, Note: lo.ToPtr(8)}}, nil).Once()
		f.ratings.On("AverageNotes", ctx, room.ID).Return([]repository.BeerAverage{{BeerID: 7, Average: lo.ToPtr(8.0)}}, nil).Once()

		rep, err := svc.GenerateReport(ctx, "brewup1", guest)

		require.NoError(t, err)
		assert.Equal(t, "brewup1", rep.Room)
		assert.Equal(t, "guest", rep.Username)
		require.Len(t, rep.User, 1)
		require.Len(t, rep.Beers, 1)
		assert.Equal(t, 8.0, *rep.Beers[0].AverageRating)
	})
}

// --- catalog ---

func TestBeerService_CreateBeer(t *testing.T) {
	beers := new(mocks.BeerRepository)
	svc := service.NewBeerService(beers)
	ctx := context.Background()

	beers.On("Save", ctx, mock.MatchedBy(func(b *domain.Beer) bool { return b.Name == "Atak Chmielu" })).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Beer).ID = 7 }).
		Return(nil).Once()
	beers.On("FindByID", ctx, uint(7)).Return(&domain.Beer{ID: 7, Name: "Atak Chmielu", Brewery: &domain.Brewery{Name: "Pinta"}}, nil).Once()

	beer, err := svc.CreateBeer(ctx, service.CreateBeerInput{Name: "  Atak Chmielu "})

	require.NoError(t, err)
	assert.Equal(t, "Pinta", beer.Brewery.Name)

	_, err = svc.CreateBeer(ctx, service.CreateBeerInput{Name: " "})
	assert.True(t, service.HasCode(err, "required"))
	beers.AssertExpectations(t)
}
