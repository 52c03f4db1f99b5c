package handlers

import (
	"net/http"

	"github.com/campuslink/backend/internal/metrics"
	"github.com/campuslink/backend/internal/points"
	"github.com/campuslink/backend/internal/util"
	"github.com/gin-gonic/gin"
)

// Register claims a seat on an event post. The claim is atomic; when seats
// run out the response carries success=false and the authoritative seat
// count rather than an error status.
func (h *Handlers) Register(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.store.Register(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}

	outcome := "rejected"
	if result.Success {
		outcome = "registered"
		h.points.Award(userID, points.DeltaRegister, "register")
	}
	metrics.Get().RegistrationsTotal.WithLabelValues(outcome).Inc()

	c.JSON(http.StatusOK, result)
}

// CancelRegistration releases the viewer's seat on an event post.
func (h *Handlers) CancelRegistration(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	result, err := h.store.CancelRegistration(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	if result.Success {
		metrics.Get().RegistrationsTotal.WithLabelValues("cancelled").Inc()
	}

	c.JSON(http.StatusOK, result)
}
