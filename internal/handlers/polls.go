package handlers

import (
	"net/http"

	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetPoll serves the poll attached to a post, with tallies and the
// viewer's own vote.
func (h *Handlers) GetPoll(c *gin.Context) {
	view, err := h.store.PollForPost(c.Request.Context(), c.Param("id"), util.OptionalUserID(c))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if view == nil {
		util.RespondNotFound(c, "poll")
		return
	}
	c.JSON(http.StatusOK, view)
}

type voteRequest struct {
	OptionID string `json:"option_id" binding:"required"`
}

// CastVote records the viewer's poll vote. Voting again replaces the
// previous choice; it never produces a second vote.
func (h *Handlers) CastVote(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	view, err := h.store.PollForPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if view == nil {
		util.RespondNotFound(c, "poll")
		return
	}

	if _, err := h.store.CastVote(c.Request.Context(), userID, view.Poll.ID, req.OptionID); err != nil {
		util.RespondError(c, err)
		return
	}

	// Re-read so the response carries the moved tallies.
	view, err = h.store.PollForPost(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
