package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/middleware"
	"github.com/Alschn/Beerdegu/internal/report"
	"github.com/Alschn/Beerdegu/internal/service"
)

// RoomNotifier pushes fresh snapshots to connected sockets after REST changes.
type RoomNotifier interface {
	NotifyMembership(ctx context.Context, roomName, event, username string)
	NotifyBeers(ctx context.Context, roomName string)
	NotifyRoomState(ctx context.Context, roomName string)
	DisconnectUser(ctx context.Context, roomName, username string)
}

type noopNotifier struct{}

func (noopNotifier) NotifyMembership(context.Context, string, string, string) {}
func (noopNotifier) NotifyBeers(context.Context, string)                      {}
func (noopNotifier) NotifyRoomState(context.Context, string)                  {}
func (noopNotifier) DisconnectUser(context.Context, string, string)           {}

// RoomHandler serves rooms, membership, the flight and reports.
type RoomHandler struct {
	roomService   *service.RoomService
	reportService *service.ReportService
	notifier      RoomNotifier
}

// NewRoomHandler builds the handler. A nil notifier disables realtime pushes.
func NewRoomHandler(roomService *service.RoomService, reportService *service.ReportService, notifier RoomNotifier) *RoomHandler {
	if roomService == nil {
		panic("RoomService cannot be nil for RoomHandler")
	}
	if reportService == nil {
		panic("ReportService cannot be nil for RoomHandler")
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	registerValidators()
	return &RoomHandler{roomService: roomService, reportService: reportService, notifier: notifier}
}

// currentUser reads the principal set by the auth middleware, answering 401 when absent.
func currentUser(c *gin.Context) (domain.Principal, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		logrus.Warn("Handler: User not found in context, middleware missing or failed?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return domain.Principal{}, false
	}
	return user, true
}

type CreateRoomRequest struct {
	Name     string `json:"name" binding:"required,roomname"`
	Password string `json:"password" binding:"max=20"`
	Slots    int    `json:"slots" binding:"omitempty,min=1,max=10"`
}

var createRoomMessages = bindMessages{
	"name": {
		"required": {Code: "required", Message: "Room name is required."},
		"roomname": {Code: service.CodeRoomNameInvalid, Message: "Room name must be 1-8 letters or digits."},
	},
	"password": {
		"max": {Code: service.CodeRoomPasswordInvalid, Message: "Password must be at most 20 characters."},
	},
	"slots": {
		"min":  {Code: service.CodeRoomSlotsInvalid, Message: "Slots must be between 1 and 10."},
		"max":  {Code: service.CodeRoomSlotsInvalid, Message: "Slots must be between 1 and 10."},
		"type": {Code: service.CodeRoomSlotsInvalid, Message: "Slots must be a whole number."},
	},
}

func (h *RoomHandler) List(c *gin.Context) {
	rooms, err := h.roomService.ListRooms(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rooms)
}

func (h *RoomHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req CreateRoomRequest
	if !bindJSON(c, &req, createRoomMessages) {
		return
	}

	room, err := h.roomService.CreateRoom(c.Request.Context(), user, service.CreateRoomInput{
		Name:     req.Name,
		Password: req.Password,
		Slots:    req.Slots,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{"user_id": user.UserID, "room": room.Name}).Info("Handler.CreateRoom: Room created successfully")
	SuccessResponse(c, http.StatusCreated, room.View(1))
}

func (h *RoomHandler) Get(c *gin.Context) {
	detail, err := h.roomService.RoomDetail(c.Request.Context(), c.Param("name"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, detail)
}

// In answers whether the caller is a member, and whether they host.
func (h *RoomHandler) In(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	isMember, isHost, err := h.roomService.MembershipStatus(c.Request.Context(), c.Param("name"), user.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if !isMember {
		ErrorResponse(c, http.StatusForbidden, "User is not part of this room!")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is in this room.", user.Username),
		"is_host": isHost,
	})
}

type JoinRoomRequest struct {
	Password string `json:"password" binding:"max=20"`
}

func (h *RoomHandler) Join(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		field, fe := resolveBindError(err, bindMessages{"password": {"max": {Code: service.CodeRoomPasswordInvalid, Message: "Invalid room password."}}})
		ValidationResponse(c, http.StatusBadRequest, field, fe)
		return
	}

	ctx := c.Request.Context()
	room, joined, err := h.roomService.JoinRoom(ctx, c.Param("name"), req.Password, user)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if joined {
		h.notifier.NotifyMembership(ctx, room.Name, "user_join", user.Username)
	}
	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%s is in the room.", user.Username),
		"joined":  joined,
	})
}

func (h *RoomHandler) Leave(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	room, err := h.roomService.LeaveRoom(ctx, c.Param("name"), user)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.DisconnectUser(ctx, room.Name, user.Username)
	h.notifier.NotifyMembership(ctx, room.Name, "user_leave", user.Username)
	MessageResponse(c, http.StatusOK, fmt.Sprintf("%s has left room %s!", user.Username, room.Name))
}

type flightResponse struct {
	Room  string               `json:"room"`
	Beers []domain.BeerSummary `json:"beers"`
}

func (h *RoomHandler) ListBeers(c *gin.Context) {
	name := domain.NormalizeRoomName(c.Param("name"))
	beers, err := h.roomService.ListFlight(c.Request.Context(), name)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, flightResponse{Room: name, Beers: beers})
}

type AddBeerRequest struct {
	BeerID uint `json:"beer_id" binding:"required,min=1"`
}

var addBeerMessages = bindMessages{
	"beer_id": {
		"required": {Code: "required", Message: "Beer id not found in request body!"},
		"min":      {Code: "required", Message: "Beer id not found in request body!"},
		"type":     {Code: "invalid", Message: "Beer id must be a positive whole number."},
	},
}

func (h *RoomHandler) AddBeer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req AddBeerRequest
	if !bindJSON(c, &req, addBeerMessages) {
		return
	}
	ctx := c.Request.Context()
	name := domain.NormalizeRoomName(c.Param("name"))
	beers, err := h.roomService.AddBeerToFlight(ctx, name, user, req.BeerID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.NotifyBeers(ctx, name)
	SuccessResponse(c, http.StatusCreated, flightResponse{Room: name, Beers: beers})
}

func (h *RoomHandler) RemoveBeer(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	beerID, err := strconv.ParseUint(c.Query("id"), 10, 64)
	if err != nil || beerID == 0 {
		ValidationResponse(c, http.StatusBadRequest, "id", FieldError{Code: "required", Message: "Beer id not found in request parameters!"})
		return
	}
	ctx := c.Request.Context()
	name := domain.NormalizeRoomName(c.Param("name"))
	beers, err := h.roomService.RemoveBeerFromFlight(ctx, name, user, uint(beerID))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.NotifyBeers(ctx, name)
	SuccessResponse(c, http.StatusOK, flightResponse{Room: name, Beers: beers})
}

type ChangeStateRequest struct {
	State string `json:"state" binding:"required"`
}

func (h *RoomHandler) ChangeState(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req ChangeStateRequest
	if !bindJSON(c, &req, bindMessages{"state": {"required": {Code: service.CodeRoomStateInvalid, Message: "State is required."}}}) {
		return
	}
	ctx := c.Request.Context()
	view, err := h.roomService.ChangeRoomState(ctx, c.Param("name"), user, req.State)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	h.notifier.NotifyRoomState(ctx, view.Name)
	SuccessResponse(c, http.StatusOK, view)
}

// Report streams the finished session as a plain-text attachment.
func (h *RoomHandler) Report(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	rep, err := h.reportService.GenerateReport(c.Request.Context(), c.Param("name"), user)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, report.Filename(time.Now())))
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.Render(c.Writer, *rep); err != nil {
		logrus.WithError(err).WithField("room", rep.Room).Error("Handler.Report: Failed to write report")
	}
}
