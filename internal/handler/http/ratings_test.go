package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Alschn/Beerdegu/internal/domain"
	httphandler "github.com/Alschn/Beerdegu/internal/handler/http"
	"github.com/Alschn/Beerdegu/internal/repository"
	"github.com/Alschn/Beerdegu/internal/repository/mocks"
	"github.com/Alschn/Beerdegu/internal/service"
)

func newRatingAPI() (*mocks.RatingRepository, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	ratings := new(mocks.RatingRepository)
	svc := service.NewRatingService(ratings, new(mocks.RoomRepository), new(mocks.FlightRepository))
	h := httphandler.NewRatingHandler(svc)

	router := gin.New()
	g := router.Group("/api/ratings", asUser)
	g.GET("/", h.List)
	g.GET("/:id/", h.Get)
	g.PATCH("/:id/", h.Update)
	g.DELETE("/:id/", h.Delete)
	return ratings, router
}

func serve(router *gin.Engine, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", user)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func guestRating(id uint) *domain.Rating {
	return &domain.Rating{ID: id, AddedByID: lo.ToPtr(guestUser.UserID), BeerID: 7}
}

func TestRatingHandler_List(t *testing.T) {
	ratings, router := newRatingAPI()
	ratings.On("ListByAuthor", mock.Anything, guestUser.UserID).
		Return([]domain.Rating{*guestRating(1), *guestRating(2)}, nil).Once()

	w := serve(router, http.MethodGet, "/api/ratings/", "guest", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":1`)
	assert.Contains(t, w.Body.String(), `"id":2`)
}

func TestRatingHandler_GetForeignRatingIsNotFound(t *testing.T) {
	ratings, router := newRatingAPI()
	ratings.On("FindByID", mock.Anything, uint(5)).Return(guestRating(5), nil).Once()

	w := serve(router, http.MethodGet, "/api/ratings/5/", "host", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, http.MethodGet, "/api/ratings/abc/", "host", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRatingHandler_Update(t *testing.T) {
	t.Run("applies the patch", func(t *testing.T) {
		ratings, router := newRatingAPI()
		ratings.On("FindByID", mock.Anything, uint(3)).Return(guestRating(3), nil).Once()
		ratings.On("Update", mock.Anything, mock.MatchedBy(func(r *domain.Rating) bool {
			return r.Note != nil && *r.Note == 9 && r.Taste != nil && *r.Taste == "citrus"
		})).Return(nil).Once()

		w := serve(router, http.MethodPatch, "/api/ratings/3/", "guest", `{"note":"9","taste":"citrus"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `"note":9`)
		ratings.AssertExpectations(t)
	})

	t.Run("finished room is locked", func(t *testing.T) {
		ratings, router := newRatingAPI()
		locked := guestRating(3)
		locked.RoomID = lo.ToPtr(uint(10))
		locked.Room = &domain.Room{ID: 10, State: domain.RoomFinished}
		ratings.On("FindByID", mock.Anything, uint(3)).Return(locked, nil).Once()

		w := serve(router, http.MethodPatch, "/api/ratings/3/", "guest", `{"note":5}`)
		assert.Equal(t, http.StatusForbidden, w.Code)
		ratings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestRatingHandler_Delete(t *testing.T) {
	ratings, router := newRatingAPI()
	ratings.On("FindByID", mock.Anything, uint(4)).Return(guestRating(4), nil).Once()
	ratings.On("Delete", mock.Anything, uint(4)).Return(nil).Once()

	w := serve(router, http.MethodDelete, "/api/ratings/4/", "guest", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	inRoom := guestRating(6)
	inRoom.RoomID = lo.ToPtr(uint(10))
	ratings.On("FindByID", mock.Anything, uint(6)).Return(inRoom, nil).Once()
	w = serve(router, http.MethodDelete, "/api/ratings/6/", "guest", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	ratings.On("FindByID", mock.Anything, uint(8)).Return(nil, repository.ErrRatingNotFound).Once()
	w = serve(router, http.MethodDelete, "/api/ratings/8/", "guest", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
