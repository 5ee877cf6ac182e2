package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// RatingService manages tasting notes, both inside a room session and
// through the standalone ratings API.
type RatingService struct {
	ratingRepo repository.RatingRepository
	roomRepo   repository.RoomRepository
	flightRepo repository.FlightRepository
}

func NewRatingService(ratingRepo repository.RatingRepository, roomRepo repository.RoomRepository, flightRepo repository.FlightRepository) *RatingService {
	if ratingRepo == nil {
		panic("RatingRepository cannot be nil for RatingService")
	}
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RatingService")
	}
	if flightRepo == nil {
		panic("FlightRepository cannot be nil for RatingService")
	}
	return &RatingService{ratingRepo: ratingRepo, roomRepo: roomRepo, flightRepo: flightRepo}
}

// GetUserFormData returns the user's rating of a beer in the room, creating
// an empty one on first access.
func (s *RatingService) GetUserFormData(ctx context.Context, roomName string, userID, beerID uint) (*domain.RatingView, error) {
	room, err := s.roomInFlight(ctx, roomName, beerID)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratingRepo.Upsert(ctx, domain.RatingKey{UserID: userID, BeerID: beerID, RoomID: room.ID}, nil)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room": roomName, "user_id": userID, "beer_id": beerID}).Error("Failed to load rating form")
		return nil, ErrInternalServer
	}
	v := rating.View()
	return &v, nil
}

// SaveUserForm applies a partial update to the user's rating. A note that
// cannot be read as 1..10 is stored as empty. Finished rooms are read-only.
func (s *RatingService) SaveUserForm(ctx context.Context, roomName string, userID, beerID uint, data json.RawMessage) (*domain.RatingView, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room": roomName, "user_id": userID, "beer_id": beerID})

	patch, err := domain.ParseRatingPatch(data)
	if err != nil {
		return nil, newValidationError("data", CodeRatingFormInvalid, err.Error())
	}
	room, err := s.roomInFlight(ctx, roomName, beerID)
	if err != nil {
		return nil, err
	}
	if room.State == domain.RoomFinished {
		return nil, newValidationError("data", CodeRatingLocked, "Ratings are locked once the room has finished.")
	}

	rating, err := s.ratingRepo.Upsert(ctx, domain.RatingKey{UserID: userID, BeerID: beerID, RoomID: room.ID}, patch.Apply)
	if err != nil {
		logCtx.WithError(err).Error("Failed to save rating form")
		return nil, ErrInternalServer
	}
	if patch.NoteInvalid {
		logCtx.Debug("Unreadable note stored as empty")
	}
	v := rating.View()
	return &v, nil
}

func (s *RatingService) roomInFlight(ctx context.Context, roomName string, beerID uint) (*domain.Room, error) {
	room, err := s.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	ok, err := s.flightRepo.Contains(ctx, room.ID, beerID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room": roomName, "beer_id": beerID}).Error("Failed to check flight")
		return nil, ErrInternalServer
	}
	if !ok {
		return nil, newValidationError("beer_id", CodeBeerNotInRoom, "Beer is not in this room.")
	}
	return room, nil
}

func (s *RatingService) room(ctx context.Context, roomName string) (*domain.Room, error) {
	room, err := s.roomRepo.FindByName(ctx, domain.NormalizeRoomName(roomName))
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room", roomName).Error("Failed to find room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// FinalBeerResults averages every beer in the flight, in flight order.
func (s *RatingService) FinalBeerResults(ctx context.Context, roomName string) ([]domain.BeerResult, error) {
	room, err := s.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return s.beerResults(ctx, room)
}

func (s *RatingService) beerResults(ctx context.Context, room *domain.Room) ([]domain.BeerResult, error) {
	entries, err := s.flightRepo.List(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to list flight for results")
		return nil, ErrInternalServer
	}
	averages, err := s.ratingRepo.AverageNotes(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to average notes")
		return nil, ErrInternalServer
	}
	byBeer := lo.SliceToMap(averages, func(a repository.BeerAverage) (uint, *float64) { return a.BeerID, a.Average })

	return lo.Map(entries, func(e domain.FlightEntry, _ int) domain.BeerResult {
		res := domain.BeerResult{Order: e.Position + 1, Beer: summary(e)}
		if avg := byBeer[e.BeerID]; avg != nil {
			res.AverageRating = lo.ToPtr(domain.RoundAverage(*avg))
		}
		return res
	}), nil
}

// FinalUserResults lists the user's ratings in the room, in flight order.
func (s *RatingService) FinalUserResults(ctx context.Context, roomName string, userID uint) ([]domain.UserResult, error) {
	room, err := s.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	return s.userResults(ctx, room, userID)
}

func (s *RatingService) userResults(ctx context.Context, room *domain.Room, userID uint) ([]domain.UserResult, error) {
	entries, err := s.flightRepo.List(ctx, room.ID)
	if err != nil {
		logrus.WithError(err).WithField("room", room.Name).Error("Failed to list flight for user results")
		return nil, ErrInternalServer
	}
	ratings, err := s.ratingRepo.ListForRoomByAuthor(ctx, room.ID, userID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room": room.Name, "user_id": userID}).Error("Failed to list user ratings")
		return nil, ErrInternalServer
	}
	positions := lo.SliceToMap(entries, func(e domain.FlightEntry) (uint, domain.FlightEntry) { return e.BeerID, e })

	results := make([]domain.UserResult, 0, len(ratings))
	for i := range ratings {
		r := &ratings[i]
		entry, ok := positions[r.BeerID]
		if !ok {
			continue
		}
		res := domain.UserResult{Order: entry.Position + 1, Beer: summary(entry), RatingView: r.View()}
		if r.Beer != nil {
			res.Beer = r.Beer.Summary()
		}
		results = append(results, res)
	}
	return results, nil
}

func summary(e domain.FlightEntry) domain.BeerSummary {
	if e.Beer == nil {
		return domain.BeerSummary{ID: e.BeerID}
	}
	return e.Beer.Summary()
}

// --- standalone ratings API ---

// ListRatings returns the caller's own ratings.
func (s *RatingService) ListRatings(ctx context.Context, userID uint) ([]domain.RatingView, error) {
	ratings, err := s.ratingRepo.ListByAuthor(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list ratings")
		return nil, ErrInternalServer
	}
	return lo.Map(ratings, func(r domain.Rating, _ int) domain.RatingView { return r.View() }), nil
}

// GetRating returns one of the caller's ratings. Other users' ratings look absent.
func (s *RatingService) GetRating(ctx context.Context, id, userID uint) (*domain.RatingView, error) {
	rating, err := s.ownRating(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	v := rating.View()
	return &v, nil
}

// UpdateRating edits a rating. Only its author may, and not once its room has finished.
func (s *RatingService) UpdateRating(ctx context.Context, id, userID uint, data json.RawMessage) (*domain.RatingView, error) {
	patch, err := domain.ParseRatingPatch(data)
	if err != nil {
		return nil, newValidationError("data", CodeRatingFormInvalid, err.Error())
	}
	if patch.NoteInvalid {
		return nil, newValidationError("note", CodeNoteInvalid, "Note must be a whole number between 1 and 10.")
	}
	rating, err := s.ownRating(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if rating.Room != nil && rating.Room.State == domain.RoomFinished {
		return nil, ErrPermissionDenied
	}

	patch.Apply(rating)
	if err := s.ratingRepo.Update(ctx, rating); err != nil {
		logrus.WithError(err).WithField("rating_id", id).Error("Failed to update rating")
		return nil, ErrInternalServer
	}
	v := rating.View()
	return &v, nil
}

// DeleteRating removes a rating that is not tied to any room.
func (s *RatingService) DeleteRating(ctx context.Context, id, userID uint) error {
	rating, err := s.ownRating(ctx, id, userID)
	if err != nil {
		return err
	}
	if rating.RoomID != nil {
		return ErrPermissionDenied
	}
	if err := s.ratingRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return ErrRatingNotFound
		}
		logrus.WithError(err).WithField("rating_id", id).Error("Failed to delete rating")
		return ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"rating_id": id, "user_id": userID}).Info("Rating deleted")
	return nil
}

func (s *RatingService) ownRating(ctx context.Context, id, userID uint) (*domain.Rating, error) {
	rating, err := s.ratingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRatingNotFound) {
			return nil, ErrRatingNotFound
		}
		logrus.WithError(err).WithField("rating_id", id).Error("Failed to find rating")
		return nil, ErrInternalServer
	}
	if !rating.IsAuthor(userID) {
		return nil, ErrRatingNotFound
	}
	return rating, nil
}
