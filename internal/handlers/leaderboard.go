package handlers

import (
	"net/http"

	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

const (
	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 100
)

// GetLeaderboard returns the top point earners, highest first.
func (h *Handlers) GetLeaderboard(c *gin.Context) {
	limit, _ := util.Pagination(c.Query("limit"), "", defaultLeaderboardSize, maxLeaderboardSize)

	entries, err := h.points.Top(c.Request.Context(), limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
