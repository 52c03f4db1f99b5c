package handlers

import (
	"net/http"

	apierrors "github.com/campuslink/backend/internal/errors"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

type translateRequest struct {
	Content    string `json:"content" binding:"required"`
	TargetLang string `json:"target_lang" binding:"required"`
}

// Translate renders a post or comment body into the requested language.
func (h *Handlers) Translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if !h.assist.Enabled() {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("assist"))
		return
	}

	result, err := h.assist.Translate(c.Request.Context(), req.Content, req.TargetLang)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type contentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Summarize condenses a long post or thread into a few sentences.
func (h *Handlers) Summarize(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if !h.assist.Enabled() {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("assist"))
		return
	}

	result, err := h.assist.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Suggest proposes a title and hashtags for a draft post.
func (h *Handlers) Suggest(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	if !h.assist.Enabled() {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("assist"))
		return
	}

	result, err := h.assist.Suggest(c.Request.Context(), req.Content)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
