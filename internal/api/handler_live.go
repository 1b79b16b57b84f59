package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/report"
)

// GetLiveStatus handles GET /api/live-status.
func (h *Handler) GetLiveStatus(c *gin.Context) {
	f := report.Filters{
		FacilityID: queryID(c, "facility_id"),
		ZoneID:     queryID(c, "zone_id"),
		Search:     c.Query("search"),
	}

	snapshot, err := h.reports.LiveStatus(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build live status"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}
