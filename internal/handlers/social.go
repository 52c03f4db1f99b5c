package handlers

import (
	"net/http"

	"github.com/campuslink/backend/internal/models"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Follow creates a follow edge from the authenticated user to :id.
// Re-following and self-follows are accepted and do nothing.
func (h *Handlers) Follow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if _, err := h.store.GetProfile(c.Request.Context(), targetID); err != nil {
		util.RespondError(c, err)
		return
	}
	if err := h.store.Follow(c.Request.Context(), userID, targetID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow removes the follow edge from the authenticated user to :id.
func (h *Handlers) Unfollow(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	targetID := c.Param("id")

	if err := h.store.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// GetMe returns the authenticated user's profile.
func (h *Handlers) GetMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	profile, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Campus   string `json:"campus"`
	City     string `json:"city"`
}

// UpdateMe updates the mutable fields of the authenticated user's profile.
func (h *Handlers) UpdateMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	profile := &models.Profile{
		ID:       userID,
		FullName: req.FullName,
		Campus:   req.Campus,
		City:     req.City,
	}
	if err := h.store.UpsertProfile(c.Request.Context(), profile); err != nil {
		util.RespondError(c, err)
		return
	}

	updated, err := h.store.GetProfile(c.Request.Context(), userID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": updated})
}

// GetProfile returns a public profile by ID.
func (h *Handlers) GetProfile(c *gin.Context) {
	profile, err := h.store.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}
