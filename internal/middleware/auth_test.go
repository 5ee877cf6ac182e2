package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{"user_id": 3, "username": "ola", "exp": time.Now().Add(time.Hour).Unix()}
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Auth(testSecret), func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": user.UserID, "username": user.Username})
	})
	return r
}

func TestAuth(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		query    string
		wantCode int
	}{
		{"bearer header", "Bearer " + signed(t, validClaims(), testSecret), "", http.StatusOK},
		{"query token", "", signed(t, validClaims(), testSecret), http.StatusOK},
		{"anonymous", "", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", "", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, validClaims(), "other"), "", http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, jwt.MapClaims{"user_id": 3, "username": "ola", "exp": time.Now().Add(-time.Hour).Unix()}, testSecret), "", http.StatusUnauthorized},
		{"no username", "Bearer " + signed(t, jwt.MapClaims{"user_id": 3}, testSecret), "", http.StatusUnauthorized},
	}
	router := newAuthRouter()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			url := "/me"
			if tc.query != "" {
				url += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, url, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.wantCode, w.Code)
			if tc.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"id":3,"username":"ola"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error"`)
			}
		})
	}
}
