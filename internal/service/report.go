package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/report"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// ReportService assembles the downloadable summary of a finished tasting.
type ReportService struct {
	roomRepo repository.RoomRepository
	ratings  *RatingService
}

func NewReportService(roomRepo repository.RoomRepository, ratings *RatingService) *ReportService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for ReportService")
	}
	if ratings == nil {
		panic("RatingService cannot be nil for ReportService")
	}
	return &ReportService{roomRepo: roomRepo, ratings: ratings}
}

// GenerateReport collects the user's ratings and the room averages. Only
// members may ask, and only once the room is FINISHED.
func (s *ReportService) GenerateReport(ctx context.Context, roomName string, user domain.Principal) (*report.Report, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room": roomName, "user_id": user.UserID})

	room, err := s.ratings.room(ctx, roomName)
	if err != nil {
		return nil, err
	}
	member, err := s.roomRepo.IsMember(ctx, room.ID, user.UserID)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check membership for report")
		return nil, ErrInternalServer
	}
	if !member {
		return nil, ErrNotMember
	}
	if room.State != domain.RoomFinished {
		return nil, ErrRoomNotFinished
	}

	userRows, err := s.ratings.userResults(ctx, room, user.UserID)
	if err != nil {
		return nil, err
	}
	beerRows, err := s.ratings.beerResults(ctx, room)
	if err != nil {
		return nil, err
	}
	logCtx.Info("Report generated")
	return &report.Report{Room: room.Name, Username: user.Username, User: userRows, Beers: beerRows}, nil
}
