package controllers

import (
	"net/http"
	"time"

	"nutrilens/services"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	Svc *services.AnalyticsService
	Cal *services.Calendar
}

func NewAnalyticsController(svc *services.AnalyticsService, cal *services.Calendar) *AnalyticsController {
	return &AnalyticsController{Svc: svc, Cal: cal}
}

// GET /api/accounts/analytics/summary/?from=&to=&includeMissingDays=
func (h *AnalyticsController) GetAnalyticsSummary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	today, _ := time.ParseInLocation(services.DateLayout, h.Cal.Today(), h.Cal.Location())
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	last := first.AddDate(0, 1, -1)

	from, err := h.Cal.ParseDate(c.DefaultQuery("from", first.Format(services.DateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
		return
	}
	to, err := h.Cal.ParseDate(c.DefaultQuery("to", last.Format(services.DateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
		return
	}
	if to < from {
		c.JSON(http.StatusBadRequest, gin.H{"error": "`to` must be on/after `from`"})
		return
	}
	includeMissing := c.DefaultQuery("includeMissingDays", "false") == "true"

	out, err := h.Svc.Summary(c.Request.Context(), userID, from, to, includeMissing)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /api/accounts/analytics/weekly/?week_start=
func (h *AnalyticsController) GetWeeklyOverview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	weekOf, err := h.Cal.ParseDate(c.DefaultQuery("week_start", h.Cal.Today()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week_start"})
		return
	}

	out, err := h.Svc.WeeklyOverview(c.Request.Context(), userID, weekOf)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
