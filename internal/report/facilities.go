package report

import (
	"context"
	"fmt"

	"parking-monitor-backend/internal/model"
)

// FacilityZones is a facility with its zones, used to populate filter UIs.
type FacilityZones struct {
	ID         int64       `json:"id"`
	Name       string      `json:"name"`
	Zones      []ZoneEntry `json:"zones"`
	ZonesCount int         `json:"zones_count"`
}

// ZoneEntry is a zone row nested under its facility.
type ZoneEntry struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	DailyCapacity uint   `json:"daily_capacity"`
}

// FacilitiesList returns every facility with its zones nested.
func (e *Engine) FacilitiesList(ctx context.Context) ([]FacilityZones, error) {
	var facilities []model.Facility
	err := e.db.WithContext(ctx).Preload("Zones").Find(&facilities).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load facilities: %w", err)
	}

	out := make([]FacilityZones, 0, len(facilities))
	for _, facility := range facilities {
		zones := make([]ZoneEntry, 0, len(facility.Zones))
		for _, z := range facility.Zones {
			zones = append(zones, ZoneEntry{ID: z.ID, Name: z.Name, DailyCapacity: z.DailyCapacity})
		}
		out = append(out, FacilityZones{
			ID:         facility.ID,
			Name:       facility.Name,
			Zones:      zones,
			ZonesCount: len(zones),
		})
	}
	return out, nil
}
