package report

import (
	"context"
	"fmt"
	"time"

	"parking-monitor-backend/internal/health"
	"parking-monitor-backend/internal/model"
)

// Period bounds a report window.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days,omitempty"`
}

// HourBucket is one fixed 1-hour slot of the hourly usage report. Buckets are
// aligned to the window start, not to wall-clock hour boundaries.
type HourBucket struct {
	Hour          string  `json:"hour"`
	HourLabel     string  `json:"hour_label"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	TotalEvents   int     `json:"total_events"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// UsageSummary aggregates the hourly report. AvgOccupancyRate is the
// arithmetic mean of the per-bucket rates, not a global rate.
type UsageSummary struct {
	TotalEvents      int     `json:"total_events"`
	AvgOccupancyRate float64 `json:"avg_occupancy_rate"`
}

// UsageReport is the hourly usage rollup.
type UsageReport struct {
	Period     Period       `json:"period"`
	HourlyData []HourBucket `json:"hourly_data"`
	Summary    UsageSummary `json:"summary"`
}

// HourlyUsage buckets the occupancy events of the last `hours` hours into
// fixed 1-hour slots. Events are scanned once in timestamp order and folded
// into per-bucket accumulators.
func (e *Engine) HourlyUsage(ctx context.Context, f Filters, hours int) (*UsageReport, error) {
	if hours <= 0 {
		hours = 24
	}
	end := e.now()
	start := end.Add(-time.Duration(hours) * time.Hour)

	events, err := e.eventsInWindow(ctx, f, start, end)
	if err != nil {
		return nil, err
	}

	type acc struct{ occupied, vacant int }
	buckets := make([]acc, hours)
	for _, ev := range events {
		idx := int(ev.Timestamp.Sub(start) / time.Hour)
		if idx < 0 || idx >= hours {
			continue
		}
		if ev.IsOccupied {
			buckets[idx].occupied++
		} else {
			buckets[idx].vacant++
		}
	}

	hourly := make([]HourBucket, hours)
	totalEvents := 0
	rateSum := 0.0
	for i, b := range buckets {
		bucketStart := start.Add(time.Duration(i) * time.Hour)
		bucket := HourBucket{
			Hour:          bucketStart.Format("2006-01-02 15:00"),
			HourLabel:     bucketStart.Format("15:00"),
			Occupied:      b.occupied,
			Vacant:        b.vacant,
			TotalEvents:   b.occupied + b.vacant,
			OccupancyRate: rate(b.occupied, b.vacant),
		}
		hourly[i] = bucket
		totalEvents += bucket.TotalEvents
		rateSum += bucket.OccupancyRate
	}

	return &UsageReport{
		Period:     Period{Start: start, End: end},
		HourlyData: hourly,
		Summary: UsageSummary{
			TotalEvents:      totalEvents,
			AvgOccupancyRate: round2(rateSum / float64(hours)),
		},
	}, nil
}

// DayBucket is one calendar-day slot of the occupancy trend.
type DayBucket struct {
	Date          string  `json:"date"`
	DateLabel     string  `json:"date_label"`
	TotalEvents   int     `json:"total_parking"`
	Occupied      int     `json:"occupied"`
	Vacant        int     `json:"vacant"`
	AvgOccupancy  float64 `json:"avg_occupancy"`
	PeakOccupancy float64 `json:"peak_occupancy"`
}

// TrendSummary aggregates the daily trend.
type TrendSummary struct {
	TotalEvents  int     `json:"total_events"`
	AvgOccupancy float64 `json:"avg_occupancy"`
}

// TrendReport is the multi-day occupancy trend.
type TrendReport struct {
	Period    Period       `json:"period"`
	DailyData []DayBucket  `json:"daily_data"`
	Summary   TrendSummary `json:"summary"`
}

// OccupancyTrend buckets occupancy events by calendar day over the last
// `days` days. Start and end dates are both included, so the report carries
// days+1 buckets.
func (e *Engine) OccupancyTrend(ctx context.Context, f Filters, days int) (*TrendReport, error) {
	if days <= 0 {
		days = 7
	}
	now := e.now()
	endDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startDate := endDate.AddDate(0, 0, -days)

	events, err := e.eventsInWindow(ctx, f, startDate, endDate.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	type acc struct{ occupied, vacant int }
	byDay := make(map[string]acc)
	for _, ev := range events {
		key := ev.Timestamp.In(now.Location()).Format("2006-01-02")
		a := byDay[key]
		if ev.IsOccupied {
			a.occupied++
		} else {
			a.vacant++
		}
		byDay[key] = a
	}

	var daily []DayBucket
	totalEvents := 0
	rateSum := 0.0
	for d := startDate; !d.After(endDate); d = d.AddDate(0, 0, 1) {
		a := byDay[d.Format("2006-01-02")]
		dayRate := rate(a.occupied, a.vacant)
		daily = append(daily, DayBucket{
			Date:          d.Format("2006-01-02"),
			DateLabel:     d.Format("Jan 02"),
			TotalEvents:   a.occupied + a.vacant,
			Occupied:      a.occupied,
			Vacant:        a.vacant,
			AvgOccupancy:  dayRate,
			PeakOccupancy: dayRate,
		})
		totalEvents += a.occupied + a.vacant
		rateSum += dayRate
	}

	return &TrendReport{
		Period:    Period{Start: startDate, End: endDate, Days: days},
		DailyData: daily,
		Summary: TrendSummary{
			TotalEvents:  totalEvents,
			AvgOccupancy: round2(rateSum / float64(len(daily))),
		},
	}, nil
}

// eventsInWindow loads occupancy events inside [start, end) sorted by
// timestamp, honoring the facility/zone filters.
func (e *Engine) eventsInWindow(ctx context.Context, f Filters, start, end time.Time) ([]model.OccupancyEvent, error) {
	query := e.db.WithContext(ctx).Model(&model.OccupancyEvent{}).
		Select("occupancy_events.*").
		Joins("JOIN devices ON devices.id = occupancy_events.device_id").
		Joins("JOIN zones ON zones.id = devices.zone_id").
		Where("occupancy_events.timestamp >= ? AND occupancy_events.timestamp < ?", start, end)

	if f.FacilityID != 0 {
		query = query.Where("zones.facility_id = ?", f.FacilityID)
	}
	if f.ZoneID != 0 {
		query = query.Where("devices.zone_id = ?", f.ZoneID)
	}

	var events []model.OccupancyEvent
	if err := query.Order("occupancy_events.timestamp ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to load occupancy events: %w", err)
	}
	return events, nil
}

// DeviceHealthEntry is one device's row in the health report, classified by
// the minutes-tiered report policy (distinct from the live seconds-tiered
// status view).
type DeviceHealthEntry struct {
	DeviceCode  string     `json:"device_code"`
	Facility    string     `json:"facility"`
	Zone        string     `json:"zone"`
	HealthScore int        `json:"health_score"`
	Status      string     `json:"status"`
	LastSeen    *time.Time `json:"last_seen"`
}

// HealthMetrics aggregates the health report.
type HealthMetrics struct {
	TotalDevices      int     `json:"total_devices"`
	AverageHealth     float64 `json:"average_health"`
	HealthyPercentage float64 `json:"healthy_percentage"`
}

// HealthReport is the device health categorization.
type HealthReport struct {
	DeviceCategories map[string]int      `json:"device_categories"`
	Metrics          HealthMetrics       `json:"metrics"`
	Devices          []DeviceHealthEntry `json:"devices"`
}

// DeviceHealth classifies every active device with the report health policy
// and aggregates category counts and the mean health score.
func (e *Engine) DeviceHealth(ctx context.Context, f Filters) (*HealthReport, error) {
	devices, err := e.devices(ctx, f, true)
	if err != nil {
		return nil, err
	}

	now := e.now()
	categories := map[string]int{
		health.CategoryHealthy:  0,
		health.CategoryWarning:  0,
		health.CategoryCritical: 0,
		health.CategoryOffline:  0,
	}

	entries := make([]DeviceHealthEntry, 0, len(devices))
	scoreSum := 0
	for _, d := range devices {
		category, score := health.ReportCategory(d.LastSeen, now)
		categories[category]++
		scoreSum += score
		entries = append(entries, DeviceHealthEntry{
			DeviceCode:  d.Code,
			Facility:    d.Zone.Facility.Name,
			Zone:        d.Zone.Name,
			HealthScore: score,
			Status:      category,
			LastSeen:    d.LastSeen,
		})
	}

	metrics := HealthMetrics{TotalDevices: len(entries)}
	if len(entries) > 0 {
		metrics.AverageHealth = round2(float64(scoreSum) / float64(len(entries)))
		metrics.HealthyPercentage = round2(float64(categories[health.CategoryHealthy]) / float64(len(entries)) * 100)
	}

	return &HealthReport{
		DeviceCategories: categories,
		Metrics:          metrics,
		Devices:          entries,
	}, nil
}
