package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/alerting"
)

// GetAlerts handles GET /api/alerts.
func (h *Handler) GetAlerts(c *gin.Context) {
	f := alerting.Filter{
		FacilityID:   queryID(c, "facility_id"),
		ZoneID:       queryID(c, "zone_id"),
		Severity:     c.Query("severity"),
		Acknowledged: queryBool(c, "acknowledged"),
		Active:       queryBool(c, "is_active"),
		Search:       c.Query("search"),
		SortBy:       c.Query("sort_by"),
		Order:        c.Query("order"),
	}

	alerts, stats, err := h.alerts.List(c.Request.Context(), f)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to load alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"stats":  stats,
	})
}

// AcknowledgeAlert handles PATCH /api/alerts/:id/acknowledge.
func (h *Handler) AcknowledgeAlert(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid alert id"})
		return
	}

	alert, updated, err := h.alerts.Acknowledge(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, alerting.ErrAlertNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to acknowledge alert"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alert":                alert,
		"already_acknowledged": !updated,
	})
}

type bulkAckRequest struct {
	AlertIDs []int64 `json:"alert_ids"`
}

// BulkAcknowledgeAlerts handles POST /api/alerts/bulk-acknowledge.
func (h *Handler) BulkAcknowledgeAlerts(c *gin.Context) {
	var req bulkAckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	result, err := h.alerts.BulkAcknowledge(c.Request.Context(), req.AlertIDs)
	if err != nil {
		if errors.Is(err, alerting.ErrNoAlertIDs) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "alert_ids must be a non-empty list"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to acknowledge alerts"})
		return
	}

	c.JSON(http.StatusOK, result)
}
