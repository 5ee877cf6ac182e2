package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Alschn/Beerdegu/internal/service"
)

// RatingHandler serves the caller's own ratings outside of a live session.
type RatingHandler struct {
	ratingService *service.RatingService
}

func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	if ratingService == nil {
		panic("RatingService cannot be nil for RatingHandler")
	}
	return &RatingHandler{ratingService: ratingService}
}

type ratingURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

func (h *RatingHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ratings, err := h.ratingService.ListRatings(c.Request.Context(), user.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, ratings)
}

func (h *RatingHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var uri ratingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ErrorResponse(c, http.StatusNotFound, service.ErrRatingNotFound.Error())
		return
	}
	rating, err := h.ratingService.GetRating(c.Request.Context(), uri.ID, user.UserID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rating)
}

// Update applies a partial edit; the body uses the same keys as the live form.
func (h *RatingHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var uri ratingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ErrorResponse(c, http.StatusNotFound, service.ErrRatingNotFound.Error())
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		ValidationResponse(c, http.StatusBadRequest, "non_field_errors", FieldError{Code: "invalid", Message: "Malformed request body."})
		return
	}
	rating, err := h.ratingService.UpdateRating(c.Request.Context(), uri.ID, user.UserID, json.RawMessage(body))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, rating)
}

func (h *RatingHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var uri ratingURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ErrorResponse(c, http.StatusNotFound, service.ErrRatingNotFound.Error())
		return
	}
	if err := h.ratingService.DeleteRating(c.Request.Context(), uri.ID, user.UserID); err != nil {
		HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
