package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/ingest"
	"parking-monitor-backend/internal/report"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	pipeline *ingest.Pipeline
	alerts   *alerting.Engine
	reports  *report.Engine
}

// NewHandler creates a new API handler.
func NewHandler(pipeline *ingest.Pipeline, alerts *alerting.Engine, reports *report.Engine) *Handler {
	return &Handler{
		pipeline: pipeline,
		alerts:   alerts,
		reports:  reports,
	}
}

// queryID parses an integer query parameter, returning 0 when absent or
// malformed (malformed filter ids simply do not filter).
func queryID(c *gin.Context, name string) int64 {
	raw := c.Query(name)
	if raw == "" {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// queryBool parses a tri-state boolean query parameter: nil when absent.
func queryBool(c *gin.Context, name string) *bool {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	v := raw == "true"
	return &v
}

// queryInt parses an integer query parameter with a fallback default.
func queryInt(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
