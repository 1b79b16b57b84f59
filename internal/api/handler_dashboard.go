package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/report"
)

// GetDashboardSummary handles GET /api/dashboard/summary. An optional date
// parameter (YYYY-MM-DD) scopes the event count; it defaults to today.
func (h *Handler) GetDashboardSummary(c *gin.Context) {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid date, expected YYYY-MM-DD"})
			return
		}
		date = parsed
	}

	summary, err := h.reports.DashboardSummary(c.Request.Context(), date)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetZonesPerformance handles GET /api/dashboard/zones.
func (h *Handler) GetZonesPerformance(c *gin.Context) {
	f := report.Filters{
		FacilityID: queryID(c, "facility_id"),
		ZoneID:     queryID(c, "zone_id"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		Order:      c.Query("order"),
	}

	zones, err := h.reports.ZonesPerformance(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build zone performance"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"zones": zones, "count": len(zones)})
}

// GetDevicesHeartbeat handles GET /api/dashboard/heartbeat.
func (h *Handler) GetDevicesHeartbeat(c *gin.Context) {
	f := report.Filters{
		FacilityID: queryID(c, "facility_id"),
		ZoneID:     queryID(c, "zone_id"),
		Status:     c.Query("status"),
		Search:     c.Query("search"),
		SortBy:     c.Query("sort_by"),
		Order:      c.Query("order"),
	}

	devices, err := h.reports.DevicesHeartbeat(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build heartbeat report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices, "count": len(devices)})
}
