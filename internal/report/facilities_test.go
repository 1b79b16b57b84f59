package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacilitiesList(t *testing.T) {
	engine, gormDB := newTestEngine(t)
	central := seedFacility(t, gormDB, "Central Garage")
	seedZone(t, gormDB, central.ID, "Level 1", 50)
	seedZone(t, gormDB, central.ID, "Level 2", 30)
	seedFacility(t, gormDB, "Empty Lot")

	facilities, err := engine.FacilitiesList(context.Background())
	require.NoError(t, err)
	require.Len(t, facilities, 2)

	byName := make(map[string]FacilityZones)
	for _, f := range facilities {
		byName[f.Name] = f
	}

	garage := byName["Central Garage"]
	assert.Equal(t, 2, garage.ZonesCount)
	require.Len(t, garage.Zones, 2)
	assert.Equal(t, uint(50), garage.Zones[0].DailyCapacity)

	empty := byName["Empty Lot"]
	assert.Equal(t, 0, empty.ZonesCount)
	assert.Empty(t, empty.Zones)
}
