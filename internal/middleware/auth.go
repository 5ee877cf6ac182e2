package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
)

// ErrMissingToken is returned when neither the header nor the query carries a token.
var ErrMissingToken = errors.New("missing authorization token")

// Auth validates the JWT and stores user_id and username in the context.
// Browsers cannot set headers on a WebSocket handshake, so the token may
// also come in the "token" query parameter.
func Auth(jwtSecret string) gin.HandlerFunc {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty for Auth middleware")
	}

	return func(c *gin.Context) {
		tokenStr, err := extractToken(c)
		if err != nil {
			if errors.Is(err, ErrMissingToken) {
				logrus.Debug("Auth middleware: Missing token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided"})
			} else {
				logrus.Warnf("Auth middleware: Malformed token format: %v", err)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format"})
			}
			return
		}

		claims, err := validateToken(tokenStr, jwtSecret)
		if err != nil {
			logCtx := logrus.WithError(err)
			logCtx.Warn("Auth middleware: Invalid token")
			var validationError *jwt.ValidationError
			if errors.As(err, &validationError) && validationError.Errors&jwt.ValidationErrorExpired != 0 {
				logCtx.Debug("Reason: Token is expired")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		principal, err := principalFromClaims(claims)
		if err != nil {
			logrus.WithError(err).Error("Auth middleware: Unusable claims")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ContextUserID, principal.UserID)
		c.Set(ContextUsername, principal.Username)
		logrus.WithField("user_id", principal.UserID).Debug("Auth middleware: User authenticated via JWT")
		c.Next()
	}
}

// CurrentUser returns the principal stored by Auth.
func CurrentUser(c *gin.Context) (domain.Principal, bool) {
	userID, ok := c.Get(ContextUserID)
	if !ok {
		return domain.Principal{}, false
	}
	id, ok := userID.(uint)
	if !ok {
		return domain.Principal{}, false
	}
	return domain.Principal{UserID: id, Username: c.GetString(ContextUsername)}, true
}

func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", jwt.ErrTokenMalformed
	}
	return parts[1], nil
}

func validateToken(tokenStr string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token or claims type")
}

// principalFromClaims reads user_id (a JSON number) and username.
func principalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	idFloat, ok := claims["user_id"].(float64)
	if !ok || idFloat <= 0 || idFloat != float64(uint(idFloat)) {
		return domain.Principal{}, fmt.Errorf("'user_id' claim is not a valid positive integer: %v", claims["user_id"])
	}
	username, _ := claims["username"].(string)
	if username == "" {
		return domain.Principal{}, errors.New("'username' claim missing")
	}
	return domain.Principal{UserID: uint(idFloat), Username: username}, nil
}
