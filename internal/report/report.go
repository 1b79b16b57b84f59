// Package report implements the read-side aggregation engine: time-bucketed
// occupancy rollups, zone utilization, device heartbeat/live views and the
// dashboard summary. Every computation is a pure read over persisted rows and
// can be recomputed at any time; no materialized state is kept.
package report

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"parking-monitor-backend/internal/model"
)

// Filters narrows an aggregation to a facility, zone, status or search term.
// Zero values mean "no filter".
type Filters struct {
	FacilityID int64
	ZoneID     int64
	Status     string
	Search     string
	SortBy     string
	Order      string
}

// Engine computes aggregations over the persisted telemetry, occupancy and
// alert rows.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEngine creates an aggregation engine backed by the given database.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// rate returns occupied/(occupied+vacant) as a percentage, 0 when there are
// no events in the bucket.
func rate(occupied, vacant int) float64 {
	total := occupied + vacant
	if total == 0 {
		return 0
	}
	return round2(float64(occupied) / float64(total) * 100)
}

// latestOccupancy folds the occupancy events of the given devices, sorted by
// timestamp, into the most recent event per device. A nil id slice means all
// devices.
func (e *Engine) latestOccupancy(ctx context.Context, deviceIDs []int64) (map[int64]model.OccupancyEvent, error) {
	query := e.db.WithContext(ctx).Model(&model.OccupancyEvent{})
	if deviceIDs != nil {
		if len(deviceIDs) == 0 {
			return map[int64]model.OccupancyEvent{}, nil
		}
		query = query.Where("device_id IN ?", deviceIDs)
	}

	var events []model.OccupancyEvent
	if err := query.Order("timestamp ASC, id ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load occupancy events: %w", err)
	}

	latest := make(map[int64]model.OccupancyEvent)
	for _, ev := range events {
		latest[ev.DeviceID] = ev
	}
	return latest, nil
}

// latestTelemetry returns the most recent reading per device.
func (e *Engine) latestTelemetry(ctx context.Context, deviceIDs []int64) (map[int64]model.TelemetryReading, error) {
	if len(deviceIDs) == 0 {
		return map[int64]model.TelemetryReading{}, nil
	}

	var readings []model.TelemetryReading
	err := e.db.WithContext(ctx).
		Where("device_id IN ?", deviceIDs).
		Order("timestamp ASC, id ASC").
		Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load telemetry readings: %w", err)
	}

	latest := make(map[int64]model.TelemetryReading)
	for _, r := range readings {
		latest[r.DeviceID] = r
	}
	return latest, nil
}

// activeAlertsByDevice groups the active alerts of the given devices.
func (e *Engine) activeAlertsByDevice(ctx context.Context, deviceIDs []int64) (map[int64][]model.Alert, error) {
	grouped := make(map[int64][]model.Alert)
	if len(deviceIDs) == 0 {
		return grouped, nil
	}

	var alerts []model.Alert
	err := e.db.WithContext(ctx).
		Where("device_id IN ? AND is_active = ?", deviceIDs, true).
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}

	for _, a := range alerts {
		grouped[a.DeviceID] = append(grouped[a.DeviceID], a)
	}
	return grouped, nil
}

// devices loads the device set matching the filters, with zone and facility
// associations populated.
func (e *Engine) devices(ctx context.Context, f Filters, activeOnly bool) ([]model.Device, error) {
	query := e.db.WithContext(ctx).Model(&model.Device{}).
		Select("devices.*").
		Joins("JOIN zones ON zones.id = devices.zone_id").
		Preload("Zone").Preload("Zone.Facility")

	if activeOnly {
		query = query.Where("devices.is_active = ?", true)
	}
	if f.FacilityID != 0 {
		query = query.Where("zones.facility_id = ?", f.FacilityID)
	}
	if f.ZoneID != 0 {
		query = query.Where("devices.zone_id = ?", f.ZoneID)
	}
	if f.Search != "" {
		query = query.Where("devices.code LIKE ?", "%"+f.Search+"%")
	}

	var devices []model.Device
	if err := query.Find(&devices).Error; err != nil {
		return nil, fmt.Errorf("failed to load devices: %w", err)
	}
	return devices, nil
}

func deviceIDs(devices []model.Device) []int64 {
	ids := make([]int64, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	return ids
}

// AlertBrief is the severity/message pair embedded in device views.
type AlertBrief struct {
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func briefs(alerts []model.Alert) []AlertBrief {
	out := make([]AlertBrief, len(alerts))
	for i, a := range alerts {
		out[i] = AlertBrief{Severity: a.Severity, Message: a.Message}
	}
	return out
}
