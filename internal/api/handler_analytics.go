package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/report"
)

func analyticsFilters(c *gin.Context) report.Filters {
	return report.Filters{
		FacilityID: queryID(c, "facility_id"),
		ZoneID:     queryID(c, "zone_id"),
		Search:     c.Query("search"),
	}
}

// GetHourlyUsage handles GET /api/analytics/hourly-usage.
func (h *Handler) GetHourlyUsage(c *gin.Context) {
	hours := queryInt(c, "hours", 24)

	usage, err := h.reports.HourlyUsage(c.Request.Context(), analyticsFilters(c), hours)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build hourly usage"})
		return
	}
	c.JSON(http.StatusOK, usage)
}

// GetOccupancyTrend handles GET /api/analytics/occupancy-trend.
func (h *Handler) GetOccupancyTrend(c *gin.Context) {
	days := queryInt(c, "days", 7)

	trend, err := h.reports.OccupancyTrend(c.Request.Context(), analyticsFilters(c), days)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build occupancy trend"})
		return
	}
	c.JSON(http.StatusOK, trend)
}

// GetDeviceHealth handles GET /api/analytics/device-health.
func (h *Handler) GetDeviceHealth(c *gin.Context) {
	health, err := h.reports.DeviceHealth(c.Request.Context(), analyticsFilters(c))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to build health report"})
		return
	}
	c.JSON(http.StatusOK, health)
}
