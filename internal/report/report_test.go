package report

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-monitor-backend/internal/db"
	"parking-monitor-backend/internal/model"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))

	engine := NewEngine(gormDB).WithClock(func() time.Time { return testNow })
	return engine, gormDB
}

func seedFacility(t *testing.T, gormDB *gorm.DB, name string) model.Facility {
	t.Helper()
	facility := model.Facility{Name: name}
	require.NoError(t, gormDB.Create(&facility).Error)
	return facility
}

func seedZone(t *testing.T, gormDB *gorm.DB, facilityID int64, name string, capacity uint) model.Zone {
	t.Helper()
	zone := model.Zone{FacilityID: facilityID, Name: name, DailyCapacity: capacity}
	require.NoError(t, gormDB.Create(&zone).Error)
	return zone
}

func seedDevice(t *testing.T, gormDB *gorm.DB, zoneID int64, code string, active bool, lastSeen *time.Time) model.Device {
	t.Helper()
	device := model.Device{ZoneID: zoneID, Code: code, IsActive: active, LastSeen: lastSeen}
	require.NoError(t, gormDB.Create(&device).Error)
	return device
}

func seedOccupancy(t *testing.T, gormDB *gorm.DB, deviceID int64, occupied bool, ts time.Time) {
	t.Helper()
	event := model.OccupancyEvent{DeviceID: deviceID, IsOccupied: occupied, Timestamp: ts}
	require.NoError(t, gormDB.Create(&event).Error)
}

func seedReading(t *testing.T, gormDB *gorm.DB, deviceID int64, voltage, current, pf float64, ts time.Time) {
	t.Helper()
	reading := model.TelemetryReading{
		DeviceID: deviceID, Voltage: voltage, Current: current, PowerFactor: pf, Timestamp: ts,
	}
	require.NoError(t, gormDB.Create(&reading).Error)
}

func seedAlert(t *testing.T, gormDB *gorm.DB, deviceID int64, message, severity string, active bool) model.Alert {
	t.Helper()
	alert := model.Alert{
		DeviceID: deviceID, Message: message, Severity: severity,
		IsActive: active, CreatedAt: testNow,
	}
	require.NoError(t, gormDB.Create(&alert).Error)
	return alert
}

func timePtr(ts time.Time) *time.Time { return &ts }
