package alerting

import (
	"context"
	"fmt"
	"strings"

	"parking-monitor-backend/internal/model"
)

// Filter narrows and orders the alert read path. Zero values mean "no
// filter"; Active defaults to active-only when nil.
type Filter struct {
	FacilityID   int64
	ZoneID       int64
	Severity     string
	Acknowledged *bool
	Active       *bool
	Search       string
	SortBy       string
	Order        string
}

// Stats summarizes a filtered alert set.
type Stats struct {
	Total          int            `json:"total"`
	Acknowledged   int            `json:"acknowledged"`
	Unacknowledged int            `json:"unacknowledged"`
	SeverityCounts map[string]int `json:"severity_counts"`
}

// List returns the alerts matching the filter together with summary
// statistics over the same set. Unknown sort keys silently fall back to
// created_at descending.
func (e *Engine) List(ctx context.Context, f Filter) ([]model.Alert, *Stats, error) {
	query := e.db.WithContext(ctx).Model(&model.Alert{}).
		Select("alerts.*").
		Joins("JOIN devices ON devices.id = alerts.device_id").
		Joins("JOIN zones ON zones.id = devices.zone_id")

	if f.FacilityID != 0 {
		query = query.Where("zones.facility_id = ?", f.FacilityID)
	}
	if f.ZoneID != 0 {
		query = query.Where("devices.zone_id = ?", f.ZoneID)
	}
	if f.Severity != "" {
		query = query.Where("alerts.severity = ?", strings.ToUpper(f.Severity))
	}
	if f.Acknowledged != nil {
		query = query.Where("alerts.acknowledged = ?", *f.Acknowledged)
	}
	if f.Active != nil {
		query = query.Where("alerts.is_active = ?", *f.Active)
	} else {
		// Default view is active alerts only.
		query = query.Where("alerts.is_active = ?", true)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("alerts.message LIKE ? OR devices.code LIKE ?", pattern, pattern)
	}

	query = query.Order(orderClause(f.SortBy, f.Order))

	var alerts []model.Alert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to list alerts: %w", err)
	}

	return alerts, summarize(alerts), nil
}

// orderClause maps the caller's sort key onto a column through an enumerated
// switch. Only created_at and severity are sortable; anything else falls back
// to the default rather than erroring.
func orderClause(sortBy, order string) string {
	var column string
	switch sortBy {
	case "severity":
		column = "alerts.severity"
	case "created_at":
		column = "alerts.created_at"
	default:
		column = "alerts.created_at"
	}

	if order == "asc" {
		return column + " ASC"
	}
	return column + " DESC"
}

func summarize(alerts []model.Alert) *Stats {
	stats := &Stats{
		SeverityCounts: map[string]int{
			model.SeverityInfo:     0,
			model.SeverityWarning:  0,
			model.SeverityCritical: 0,
		},
	}
	for _, a := range alerts {
		stats.Total++
		if a.Acknowledged {
			stats.Acknowledged++
		}
		stats.SeverityCounts[a.Severity]++
	}
	stats.Unacknowledged = stats.Total - stats.Acknowledged
	return stats
}
