package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/service"
)

// HandleServiceError maps service errors onto HTTP responses.
func HandleServiceError(c *gin.Context, err error) {
	if ve, ok := service.AsValidationError(err); ok {
		ValidationResponse(c, http.StatusBadRequest, ve.Field, FieldError{Code: ve.Code, Message: ve.Message})
		return
	}
	switch {
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrRegistrationFailed):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrPermissionDenied),
		errors.Is(err, service.ErrNotMember),
		errors.Is(err, service.ErrRoomNotFinished):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrBeerNotFound),
		errors.Is(err, service.ErrRatingNotFound),
		errors.Is(err, service.ErrUserNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
