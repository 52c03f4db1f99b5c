package handlers

import (
	"net/http"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetComments lists a post's comments, oldest first.
func (h *Handlers) GetComments(c *gin.Context) {
	postID := c.Param("id")
	if _, err := h.store.GetPost(c.Request.Context(), postID); err != nil {
		util.RespondError(c, err)
		return
	}

	comments, err := h.store.ListComments(c.Request.Context(), postID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

type createCommentRequest struct {
	Content  string  `json:"content" binding:"required"`
	ParentID *string `json:"parent_id"`
}

// CreateComment adds a comment to a post, optionally threaded under a
// parent comment. Comments pass the same moderation gate as posts.
func (h *Handlers) CreateComment(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len([]rune(req.Content)) > maxPostChars {
		util.RespondValidationError(c, "content", "content exceeds 500 characters")
		return
	}
	if _, err := h.store.GetPost(c.Request.Context(), postID); err != nil {
		util.RespondError(c, err)
		return
	}

	verdict := h.assist.Moderate(c.Request.Context(), req.Content)
	m := metrics.Get()
	if verdict.Flagged {
		m.ModerationChecksTotal.WithLabelValues("flagged").Inc()
		util.RespondWithAPIError(c, apierrors.Moderated(verdict.Reason))
		return
	}
	m.ModerationChecksTotal.WithLabelValues("clean").Inc()

	comment := &models.Comment{
		PostID:   postID,
		UserID:   userID,
		ParentID: req.ParentID,
		Content:  req.Content,
	}
	if err := h.store.CreateComment(c.Request.Context(), comment); err != nil {
		util.RespondError(c, err)
		return
	}

	h.points.Award(userID, points.DeltaComment, "comment")

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}
