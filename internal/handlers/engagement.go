package handlers

import (
	"context"
	"net/http"

	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// ToggleLike flips the viewer's like on a post. The response reports the
// resulting state.
func (h *Handlers) ToggleLike(c *gin.Context) {
	h.toggle(c, "like", points.DeltaLike, h.store.ToggleLike)
}

// ToggleRepost flips the viewer's repost on a post.
func (h *Handlers) ToggleRepost(c *gin.Context) {
	h.toggle(c, "repost", points.DeltaRepost, h.store.ToggleRepost)
}

// ToggleBookmark flips the viewer's private bookmark on a post.
func (h *Handlers) ToggleBookmark(c *gin.Context) {
	h.toggle(c, "bookmark", 0, h.store.ToggleBookmark)
}

// toggle runs one engagement toggle. Points are awarded only when the
// toggle lands in the active state; removing a like never claws back
// points.
func (h *Handlers) toggle(c *gin.Context, kind string, delta int64,
	fn func(ctx context.Context, userID, postID string) (bool, error)) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")
	if _, err := h.store.GetPost(c.Request.Context(), postID); err != nil {
		util.RespondError(c, err)
		return
	}

	active, err := fn(c.Request.Context(), userID, postID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	state := "off"
	if active {
		state = "on"
		if delta > 0 {
			h.points.Award(userID, delta, kind)
		}
	}
	metrics.Get().EngagementTogglesTotal.WithLabelValues(kind, state).Inc()

	c.JSON(http.StatusOK, gin.H{"active": active})
}

type reactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

// ToggleReaction flips one emoji reaction by the viewer on a post.
func (h *Handlers) ToggleReaction(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req reactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if _, err := h.store.GetPost(c.Request.Context(), postID); err != nil {
		util.RespondError(c, err)
		return
	}

	active, err := h.store.ToggleReaction(c.Request.Context(), userID, postID, req.Emoji)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	state := "off"
	if active {
		state = "on"
	}
	metrics.Get().EngagementTogglesTotal.WithLabelValues("reaction", state).Inc()

	c.JSON(http.StatusOK, gin.H{"active": active, "emoji": req.Emoji})
}
