package report

import (
	"context"
	"time"

	"parking-monitor-backend/internal/health"
)

// ZoneRef and FacilityRef identify the owning zone/facility in live views.
type ZoneRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// FacilityRef identifies the owning facility in live views.
type FacilityRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TelemetrySnapshot is the most recent reading of a device with its derived
// instantaneous power.
type TelemetrySnapshot struct {
	Voltage     float64   `json:"voltage"`
	Current     float64   `json:"current"`
	Power       float64   `json:"power"`
	PowerFactor float64   `json:"power_factor"`
	Timestamp   time.Time `json:"timestamp"`
}

// OccupancySnapshot is the most recent occupancy observation of a device.
type OccupancySnapshot struct {
	IsOccupied bool      `json:"is_occupied"`
	Timestamp  time.Time `json:"timestamp"`
}

// DeviceLiveStatus is the full live view of one device.
type DeviceLiveStatus struct {
	ID            int64              `json:"id"`
	Code          string             `json:"code"`
	Zone          ZoneRef            `json:"zone"`
	Facility      FacilityRef        `json:"facility"`
	Status        string             `json:"status"`
	HealthScore   int                `json:"health_score"`
	LastSeen      *time.Time         `json:"last_seen"`
	TimeSinceSeen *int               `json:"time_since_seen"`
	Telemetry     *TelemetrySnapshot `json:"telemetry"`
	Occupancy     *OccupancySnapshot `json:"parking"`
	Alerts        []AlertBrief       `json:"alerts"`
	AlertsCount   int                `json:"alerts_count"`
}

// LiveSnapshot wraps the live view of every matching active device.
type LiveSnapshot struct {
	Timestamp    time.Time          `json:"timestamp"`
	Devices      []DeviceLiveStatus `json:"devices"`
	TotalDevices int                `json:"total_devices"`
}

// LiveStatus builds the live view: per active device the seconds-tiered
// connectivity status, health score, latest telemetry with derived power,
// latest occupancy observation and the active alert list.
func (e *Engine) LiveStatus(ctx context.Context, f Filters) (*LiveSnapshot, error) {
	devices, err := e.devices(ctx, f, true)
	if err != nil {
		return nil, err
	}

	ids := deviceIDs(devices)
	readings, err := e.latestTelemetry(ctx, ids)
	if err != nil {
		return nil, err
	}
	occupancy, err := e.latestOccupancy(ctx, ids)
	if err != nil {
		return nil, err
	}
	alerts, err := e.activeAlertsByDevice(ctx, ids)
	if err != nil {
		return nil, err
	}

	now := e.now()
	live := make([]DeviceLiveStatus, 0, len(devices))
	for _, d := range devices {
		info := health.LiveStatus(d.LastSeen, now)
		deviceAlerts := alerts[d.ID]

		status := DeviceLiveStatus{
			ID:            d.ID,
			Code:          d.Code,
			Zone:          ZoneRef{ID: d.Zone.ID, Name: d.Zone.Name},
			Facility:      FacilityRef{ID: d.Zone.Facility.ID, Name: d.Zone.Facility.Name},
			Status:        info.Status,
			HealthScore:   health.Score(d.LastSeen, len(deviceAlerts)),
			LastSeen:      d.LastSeen,
			TimeSinceSeen: info.TimeSinceSeen,
			Alerts:        briefs(deviceAlerts),
			AlertsCount:   len(deviceAlerts),
		}

		if r, ok := readings[d.ID]; ok {
			status.Telemetry = &TelemetrySnapshot{
				Voltage:     r.Voltage,
				Current:     r.Current,
				Power:       round2(r.Power()),
				PowerFactor: r.PowerFactor,
				Timestamp:   r.Timestamp,
			}
		}
		if ev, ok := occupancy[d.ID]; ok {
			status.Occupancy = &OccupancySnapshot{
				IsOccupied: ev.IsOccupied,
				Timestamp:  ev.Timestamp,
			}
		}

		live = append(live, status)
	}

	return &LiveSnapshot{
		Timestamp:    now,
		Devices:      live,
		TotalDevices: len(live),
	}, nil
}
