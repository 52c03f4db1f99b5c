package handlers

import (
	"fmt"
	"net/http"

	"github.com/campuslink/backend/internal/ics"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// GetEventCalendar renders an event post as a downloadable iCalendar file.
func (h *Handlers) GetEventCalendar(c *gin.Context) {
	post, err := h.store.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}

	body, err := ics.Render(post)
	if err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ics.Filename(post)))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(body))
}
