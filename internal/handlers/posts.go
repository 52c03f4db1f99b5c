package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// maxPostChars is the post body length limit.
const maxPostChars = 500

type createPostRequest struct {
	Content      string     `json:"content" binding:"required"`
	MediaURLs    []string   `json:"media_urls"`
	ReplyToID    *string    `json:"reply_to_id"`
	QuotedPostID *string    `json:"quoted_post_id"`
	Campus       string     `json:"campus"`
	City         string     `json:"city"`
	Categories   []string   `json:"categories"`
	Promos       []string   `json:"promos"`
	Fields       []string   `json:"fields"`
	IsEvent      bool       `json:"is_event"`
	EventAt      *time.Time `json:"event_at"`
	LocationName string     `json:"location_name"`
	LinkURL      string     `json:"link_url"`
	Seats        *int       `json:"seats"`
	Poll         *pollInput `json:"poll"`
}

type pollInput struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// CreatePost creates a post, event, or reply. Content is moderated before
// anything is written; flagged content is rejected with the moderation
// reason. Hashtags in the body become searchable tags.
func (h *Handlers) CreatePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if len([]rune(req.Content)) > maxPostChars {
		util.RespondValidationError(c, "content", "content exceeds 500 characters")
		return
	}
	if req.IsEvent && req.EventAt == nil {
		util.RespondValidationError(c, "event_at", "events need a date")
		return
	}
	if req.Seats != nil && *req.Seats <= 0 {
		util.RespondValidationError(c, "seats", "seats must be positive")
		return
	}
	if req.Poll != nil {
		if req.Poll.Question == "" || len(req.Poll.Options) < 2 {
			util.RespondValidationError(c, "poll", "polls need a question and at least two options")
			return
		}
	}

	verdict := h.assist.Moderate(c.Request.Context(), req.Content)
	m := metrics.Get()
	if verdict.Flagged {
		m.ModerationChecksTotal.WithLabelValues("flagged").Inc()
		util.RespondWithAPIError(c, apierrors.Moderated(verdict.Reason))
		return
	}
	m.ModerationChecksTotal.WithLabelValues("clean").Inc()

	post := &models.Post{
		UserID:       userID,
		Content:      req.Content,
		MediaURLs:    models.StringArray(req.MediaURLs),
		ReplyToID:    req.ReplyToID,
		QuotedPostID: req.QuotedPostID,
		Campus:       req.Campus,
		City:         req.City,
		Categories:   models.StringArray(req.Categories),
		Promos:       models.StringArray(req.Promos),
		Fields:       models.StringArray(req.Fields),
		IsEvent:      req.IsEvent,
		EventAt:      req.EventAt,
		LocationName: req.LocationName,
		LinkURL:      req.LinkURL,
		Seats:        req.Seats,
	}

	tags := util.ExtractHashtags(req.Content)
	if err := h.store.CreatePost(c.Request.Context(), post, tags); err != nil {
		util.RespondError(c, err)
		return
	}

	if req.Poll != nil {
		if _, err := h.store.CreatePoll(c.Request.Context(), post.ID, req.Poll.Question, req.Poll.Options); err != nil {
			util.RespondError(c, err)
			return
		}
	}

	created, err := h.store.GetPost(c.Request.Context(), post.ID)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	kind := "post"
	switch {
	case created.IsEvent:
		kind = "event"
	case created.ReplyToID != nil:
		kind = "reply"
	}
	m.PostsCreatedTotal.WithLabelValues(kind).Inc()

	h.points.Award(userID, points.DeltaPost, "post")
	if h.hub != nil {
		h.hub.BroadcastNewPost(*created)
	}

	c.JSON(http.StatusCreated, gin.H{"post": created})
}

// GetPost serves one post with its engagement counts and viewer flags.
func (h *Handlers) GetPost(c *gin.Context) {
	post, err := h.store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}

	items := h.enricher.Enrich(c.Request.Context(), []models.Post{*post}, util.OptionalUserID(c))
	c.JSON(http.StatusOK, gin.H{"post": items[0]})
}

// GetPostReplies lists direct replies to a post, oldest first.
func (h *Handlers) GetPostReplies(c *gin.Context) {
	postID := c.Param("id")
	if _, err := h.store.GetPost(c.Request.Context(), postID); err != nil {
		util.RespondError(c, err)
		return
	}
	limit, offset := util.Pagination(c.Query("limit"), c.Query("offset"), 50, 100)

	replies, err := h.store.ListReplies(c.Request.Context(), postID, limit, offset)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	items := h.enricher.Enrich(c.Request.Context(), replies, util.OptionalUserID(c))
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// DeletePost soft-deletes the viewer's own post.
func (h *Handlers) DeletePost(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	postID := c.Param("id")

	if err := h.store.DeletePost(c.Request.Context(), userID, postID); err != nil {
		util.RespondError(c, err)
		return
	}
	if h.hub != nil {
		h.hub.BroadcastPostDeleted(postID)
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type reportRequest struct {
	TargetType string `json:"target_type" binding:"required"`
	TargetID   string `json:"target_id"`
	Reason     string `json:"reason" binding:"required"`
}

// CreateReport files a report against a post or comment. The target
// defaults to the post in the URL; a comment report names the comment in
// target_id. Reporting the same target twice is a no-op.
func (h *Handlers) CreateReport(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if req.TargetType != models.ReportTargetPost && req.TargetType != models.ReportTargetComment {
		util.RespondValidationError(c, "target_type", "must be post or comment")
		return
	}
	if req.TargetID == "" {
		req.TargetID = c.Param("id")
	}

	report := &models.Report{
		UserID:     userID,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		Reason:     req.Reason,
	}
	if err := h.store.CreateReport(c.Request.Context(), report); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reported": true})
}
