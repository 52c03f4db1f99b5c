package util

import (
	"github.com/gin-gonic/gin"
)

// GetUserIDFromContext extracts the authenticated user ID from the Gin
// context. If the request is not authenticated it responds 401 and returns
// false.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		RespondUnauthorized(c)
		return "", false
	}
	userIDStr, ok := userID.(string)
	if !ok || userIDStr == "" {
		RespondUnauthorized(c)
		return "", false
	}
	return userIDStr, true
}

// OptionalUserID returns the authenticated user ID, or empty for anonymous
// requests. It never writes a response.
func OptionalUserID(c *gin.Context) string {
	if userID, exists := c.Get("user_id"); exists {
		if s, ok := userID.(string); ok {
			return s
		}
	}
	return ""
}
