package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthRequired validates the bearer JWT and stores user_id in the context.
// Requests without a valid token are rejected.
func AuthRequired(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := userIDFromRequest(c, jwtSecret)
		if err != nil {
			util.RespondWithAPIError(c, apierrors.Unauthorized(err.Error()))
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// AuthOptional resolves user_id when a valid token is present and leaves
// the request anonymous otherwise. An invalid token is still rejected; a
// missing one is not.
func AuthOptional(jwtSecret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if bearerToken(c) == "" {
			c.Next()
			return
		}
		userID, err := userIDFromRequest(c, jwtSecret)
		if err != nil {
			util.RespondWithAPIError(c, apierrors.Unauthorized(err.Error()))
			c.Abort()
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// GenerateToken signs a JWT for a user, used by the seed CLI and tests.
func GenerateToken(jwtSecret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func bearerToken(c *gin.Context) string {
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func userIDFromRequest(c *gin.Context, jwtSecret []byte) (string, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return "", errors.New("no authentication token provided")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", errors.New("invalid token claims")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("token has no subject")
	}
	return sub, nil
}
