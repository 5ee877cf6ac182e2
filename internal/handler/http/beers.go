package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Alschn/Beerdegu/internal/service"
)

// BeerHandler serves the beer catalog.
type BeerHandler struct {
	beerService *service.BeerService
}

func NewBeerHandler(beerService *service.BeerService) *BeerHandler {
	if beerService == nil {
		panic("BeerService cannot be nil for BeerHandler")
	}
	registerValidators()
	return &BeerHandler{beerService: beerService}
}

type listBeersQuery struct {
	Search string `form:"search" binding:"max=100"`
}

type beerURI struct {
	ID uint `uri:"id" binding:"required,min=1"`
}

type CreateBeerRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	BreweryID   *uint    `json:"brewery_id"`
	StyleID     *uint    `json:"style_id"`
	Percentage  *float64 `json:"percentage" binding:"omitempty,min=0,max=100"`
	VolumeML    *int     `json:"volume_ml" binding:"omitempty,min=0"`
	HopRate     *float64 `json:"hop_rate" binding:"omitempty,min=0"`
	Extract     *float64 `json:"extract" binding:"omitempty,min=0,max=100"`
	IBU         *int     `json:"ibu" binding:"omitempty,min=0"`
	Description string   `json:"description"`
}

var createBeerMessages = bindMessages{
	"name": {
		"required": {Code: "required", Message: "Beer name is required."},
		"max":      {Code: "max_length", Message: "Beer name must be at most 100 characters."},
	},
}

func (h *BeerHandler) List(c *gin.Context) {
	var q listBeersQuery
	if !bindQuery(c, &q, nil) {
		return
	}
	beers, err := h.beerService.ListBeers(c.Request.Context(), q.Search)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, beers)
}

func (h *BeerHandler) Get(c *gin.Context) {
	var uri beerURI
	if err := c.ShouldBindUri(&uri); err != nil {
		ErrorResponse(c, http.StatusNotFound, "beer not found")
		return
	}
	beer, err := h.beerService.GetBeer(c.Request.Context(), uri.ID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, beer)
}

func (h *BeerHandler) Create(c *gin.Context) {
	var req CreateBeerRequest
	if !bindJSON(c, &req, createBeerMessages) {
		return
	}
	beer, err := h.beerService.CreateBeer(c.Request.Context(), service.CreateBeerInput{
		Name:        req.Name,
		BreweryID:   req.BreweryID,
		StyleID:     req.StyleID,
		Percentage:  req.Percentage,
		VolumeML:    req.VolumeML,
		HopRate:     req.HopRate,
		Extract:     req.Extract,
		IBU:         req.IBU,
		Description: req.Description,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, beer)
}
