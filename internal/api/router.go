package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"parking-monitor-backend/config"
	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/ingest"
	"parking-monitor-backend/internal/mw"
	"parking-monitor-backend/internal/report"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, pipeline *ingest.Pipeline, alerts *alerting.Engine, reports *report.Engine) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(pipeline, alerts, reports)

	// Initialize middleware
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Ingestion
		api.POST("/telemetry", handler.PostTelemetry)
		api.POST("/telemetry/bulk", handler.PostTelemetryBulk)
		api.POST("/occupancy", handler.PostOccupancy)

		// Alerts
		api.GET("/alerts", handler.GetAlerts)
		api.PATCH("/alerts/:id/acknowledge", handler.AcknowledgeAlert)
		api.POST("/alerts/bulk-acknowledge", handler.BulkAcknowledgeAlerts)

		// Dashboard
		api.GET("/dashboard/summary", caching, handler.GetDashboardSummary)
		api.GET("/dashboard/zones", caching, handler.GetZonesPerformance)
		api.GET("/dashboard/heartbeat", handler.GetDevicesHeartbeat)

		// Live status is never cached; staleness defeats its purpose.
		api.GET("/live-status", handler.GetLiveStatus)

		// Analytics
		api.GET("/analytics/hourly-usage", caching, handler.GetHourlyUsage)
		api.GET("/analytics/occupancy-trend", caching, handler.GetOccupancyTrend)
		api.GET("/analytics/device-health", handler.GetDeviceHealth)

		// Reference data
		api.GET("/facilities", caching, handler.GetFacilities)
	}

	return r
}
