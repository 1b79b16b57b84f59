package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"parking-monitor-backend/internal/health"
	"parking-monitor-backend/internal/model"
)

// Summary is the dashboard headline for a calendar date. CurrentOccupancy is
// derived from the latest event per device globally, not scoped to the date.
type Summary struct {
	TotalEvents      int64 `json:"total_events"`
	CurrentOccupancy int   `json:"current_occupancy"`
	ActiveDevices    int64 `json:"active_devices"`
	AlertsCount      int64 `json:"alerts_count"`
}

// DashboardSummary computes the headline counters for the given date.
func (e *Engine) DashboardSummary(ctx context.Context, date time.Time) (*Summary, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var summary Summary
	err := e.db.WithContext(ctx).Model(&model.TelemetryReading{}).
		Where("timestamp >= ? AND timestamp < ?", dayStart, dayEnd).
		Count(&summary.TotalEvents).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}

	latest, err := e.latestOccupancy(ctx, nil)
	if err != nil {
		return nil, err
	}
	for _, ev := range latest {
		if ev.IsOccupied {
			summary.CurrentOccupancy++
		}
	}

	err = e.db.WithContext(ctx).Model(&model.Device{}).
		Where("is_active = ?", true).
		Count(&summary.ActiveDevices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active devices: %w", err)
	}

	err = e.db.WithContext(ctx).Model(&model.Alert{}).
		Where("is_active = ?", true).
		Count(&summary.AlertsCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active alerts: %w", err)
	}

	return &summary, nil
}

// ZonePerformance is one zone's utilization snapshot.
type ZonePerformance struct {
	ID                    int64   `json:"id"`
	Name                  string  `json:"name"`
	Facility              string  `json:"facility"`
	FacilityID            int64   `json:"facility_id"`
	TotalDevices          int     `json:"total_devices"`
	OccupiedSlots         int     `json:"occupied_slots"`
	DailyCapacity         uint    `json:"daily_capacity"`
	UtilizationPercentage float64 `json:"utilization_percentage"`
	ActiveAlerts          int     `json:"active_alerts"`
}

// ZonesPerformance computes per-zone utilization: active device count,
// occupied slots (devices whose latest occupancy event is occupied), the
// utilization percentage against daily capacity, and the active alert count.
func (e *Engine) ZonesPerformance(ctx context.Context, f Filters) ([]ZonePerformance, error) {
	query := e.db.WithContext(ctx).Model(&model.Zone{}).
		Select("zones.*").
		Joins("JOIN facilities ON facilities.id = zones.facility_id").
		Preload("Facility")

	if f.FacilityID != 0 {
		query = query.Where("zones.facility_id = ?", f.FacilityID)
	}
	if f.ZoneID != 0 {
		query = query.Where("zones.id = ?", f.ZoneID)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("zones.name LIKE ? OR facilities.name LIKE ?", pattern, pattern)
	}

	var zones []model.Zone
	if err := query.Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("failed to load zones: %w", err)
	}

	perf := make([]ZonePerformance, 0, len(zones))
	for _, zone := range zones {
		var devices []model.Device
		err := e.db.WithContext(ctx).
			Where("zone_id = ? AND is_active = ?", zone.ID, true).
			Find(&devices).Error
		if err != nil {
			return nil, fmt.Errorf("failed to load devices for zone %d: %w", zone.ID, err)
		}

		latest, err := e.latestOccupancy(ctx, deviceIDs(devices))
		if err != nil {
			return nil, err
		}
		occupied := 0
		for _, ev := range latest {
			if ev.IsOccupied {
				occupied++
			}
		}

		var activeAlerts int64
		err = e.db.WithContext(ctx).Model(&model.Alert{}).
			Joins("JOIN devices ON devices.id = alerts.device_id").
			Where("devices.zone_id = ? AND alerts.is_active = ?", zone.ID, true).
			Count(&activeAlerts).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count alerts for zone %d: %w", zone.ID, err)
		}

		utilization := 0.0
		if zone.DailyCapacity > 0 {
			utilization = round2(float64(occupied) / float64(zone.DailyCapacity) * 100)
		}

		perf = append(perf, ZonePerformance{
			ID:                    zone.ID,
			Name:                  zone.Name,
			Facility:              zone.Facility.Name,
			FacilityID:            zone.FacilityID,
			TotalDevices:          len(devices),
			OccupiedSlots:         occupied,
			DailyCapacity:         zone.DailyCapacity,
			UtilizationPercentage: utilization,
			ActiveAlerts:          int(activeAlerts),
		})
	}

	sortZones(perf, f.SortBy, f.Order)
	return perf, nil
}

// sortZones orders the snapshot by an enumerated sort key; unknown keys fall
// back to zone name.
func sortZones(zones []ZonePerformance, sortBy, order string) {
	less := func(a, b ZonePerformance) bool { return a.Name < b.Name }
	switch sortBy {
	case "utilization":
		less = func(a, b ZonePerformance) bool { return a.UtilizationPercentage < b.UtilizationPercentage }
	case "alerts":
		less = func(a, b ZonePerformance) bool { return a.ActiveAlerts < b.ActiveAlerts }
	case "facility":
		less = func(a, b ZonePerformance) bool { return a.Facility < b.Facility }
	}

	sort.SliceStable(zones, func(i, j int) bool {
		if order == "desc" {
			return less(zones[j], zones[i])
		}
		return less(zones[i], zones[j])
	})
}

// DeviceHeartbeat is one device's row in the heartbeat view, classified by
// the live seconds-tiered status policy.
type DeviceHeartbeat struct {
	ID            int64        `json:"id"`
	Code          string       `json:"code"`
	Zone          string       `json:"zone"`
	ZoneID        int64        `json:"zone_id"`
	Facility      string       `json:"facility"`
	FacilityID    int64        `json:"facility_id"`
	IsActive      bool         `json:"is_active"`
	LastSeen      *time.Time   `json:"last_seen"`
	Status        string       `json:"status"`
	StatusMessage string       `json:"status_message"`
	HealthScore   int          `json:"health_score"`
	ActiveAlerts  []AlertBrief `json:"active_alerts"`
	AlertsCount   int          `json:"alerts_count"`
}

// DevicesHeartbeat builds the per-device heartbeat view. The status filter is
// applied after classification since status is derived, not stored.
func (e *Engine) DevicesHeartbeat(ctx context.Context, f Filters) ([]DeviceHeartbeat, error) {
	devices, err := e.devices(ctx, f, false)
	if err != nil {
		return nil, err
	}

	alerts, err := e.activeAlertsByDevice(ctx, deviceIDs(devices))
	if err != nil {
		return nil, err
	}

	now := e.now()
	heartbeats := make([]DeviceHeartbeat, 0, len(devices))
	for _, d := range devices {
		info := health.LiveStatus(d.LastSeen, now)
		if f.Status != "" && info.Status != f.Status {
			continue
		}

		deviceAlerts := alerts[d.ID]
		heartbeats = append(heartbeats, DeviceHeartbeat{
			ID:            d.ID,
			Code:          d.Code,
			Zone:          d.Zone.Name,
			ZoneID:        d.ZoneID,
			Facility:      d.Zone.Facility.Name,
			FacilityID:    d.Zone.FacilityID,
			IsActive:      d.IsActive,
			LastSeen:      d.LastSeen,
			Status:        info.Status,
			StatusMessage: info.Message,
			HealthScore:   health.Score(d.LastSeen, len(deviceAlerts)),
			ActiveAlerts:  briefs(deviceAlerts),
			AlertsCount:   len(deviceAlerts),
		})
	}

	sortHeartbeats(heartbeats, f.SortBy, f.Order)
	return heartbeats, nil
}

// sortHeartbeats orders the heartbeat view by an enumerated sort key;
// unknown keys fall back to device code.
func sortHeartbeats(devices []DeviceHeartbeat, sortBy, order string) {
	less := func(a, b DeviceHeartbeat) bool { return a.Code < b.Code }
	switch sortBy {
	case "health":
		less = func(a, b DeviceHeartbeat) bool { return a.HealthScore < b.HealthScore }
	case "status":
		less = func(a, b DeviceHeartbeat) bool { return a.Status < b.Status }
	case "zone":
		less = func(a, b DeviceHeartbeat) bool { return a.Zone < b.Zone }
	case "facility":
		less = func(a, b DeviceHeartbeat) bool { return a.Facility < b.Facility }
	}

	sort.SliceStable(devices, func(i, j int) bool {
		if order == "desc" {
			return less(devices[j], devices[i])
		}
		return less(devices[i], devices[j])
	})
}
