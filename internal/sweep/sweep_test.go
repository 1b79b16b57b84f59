package sweep

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-monitor-backend/config"
	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/db"
	"parking-monitor-backend/internal/model"
)

func TestSweepOnce(t *testing.T) {
	gormDB, err := gorm.Open(sqlite.Open("file:sweeponce?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := gormDB.DB()
	defer sqlDB.Close()
	require.NoError(t, db.Migrate(gormDB))

	facility := model.Facility{Name: "Central Garage"}
	require.NoError(t, gormDB.Create(&facility).Error)
	zone := model.Zone{FacilityID: facility.ID, Name: "Level 1", DailyCapacity: 50}
	require.NoError(t, gormDB.Create(&zone).Error)
	device := model.Device{ZoneID: zone.ID, Code: "PM-001", IsActive: true}
	require.NoError(t, gormDB.Create(&device).Error)

	cfg := &config.Config{}
	cfg.Sweep.Enabled = true
	cfg.Sweep.Interval = time.Minute

	svc := NewService(cfg, alerting.NewEngine(gormDB))
	svc.SweepOnce(context.Background())

	var alert model.Alert
	require.NoError(t, gormDB.Where("device_id = ?", device.ID).First(&alert).Error)
	assert.Equal(t, alerting.OfflineMessage, alert.Message)
}

func TestRunDisabledReturnsImmediately(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sweep.Enabled = false

	svc := NewService(cfg, nil)

	done := make(chan struct{})
	go func() {
		svc.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return for a disabled sweep")
	}
}
