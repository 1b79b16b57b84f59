package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/ingest"
)

// PostTelemetry handles POST /api/telemetry.
func (h *Handler) PostTelemetry(c *gin.Context) {
	var reading ingest.Reading
	if err := c.ShouldBindJSON(&reading); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.pipeline.IngestOne(c.Request.Context(), reading); err != nil {
		var vErr *ingest.ValidationError
		switch {
		case errors.As(err, &vErr):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
		case errors.Is(err, ingest.ErrDeviceNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to process telemetry"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// PostTelemetryBulk handles POST /api/telemetry/bulk.
func (h *Handler) PostTelemetryBulk(c *gin.Context) {
	var items []ingest.Reading
	if err := c.ShouldBindJSON(&items); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Expected a list of telemetry records"})
		return
	}

	result, err := h.pipeline.IngestBatch(c.Request.Context(), items)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Batch processing failed",
			"details": result.Errors,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":   "ok",
		"inserted": result.ProcessedCount,
		"failed":   result.FailedCount,
		"errors":   result.Errors,
	})
}

type occupancyRequest struct {
	DeviceCode string    `json:"device_code" binding:"required"`
	IsOccupied *bool     `json:"is_occupied" binding:"required"`
	Timestamp  time.Time `json:"timestamp"`
}

// PostOccupancy handles POST /api/occupancy.
func (h *Handler) PostOccupancy(c *gin.Context) {
	var req occupancyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Timestamp.IsZero() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing required field: timestamp"})
		return
	}

	err := h.pipeline.RecordOccupancy(c.Request.Context(), req.DeviceCode, *req.IsOccupied, req.Timestamp)
	if err != nil {
		if errors.Is(err, ingest.ErrDeviceNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to record occupancy"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
