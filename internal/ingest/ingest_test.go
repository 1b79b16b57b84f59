package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/db"
	"parking-monitor-backend/internal/model"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

func newTestPipeline(t *testing.T) (*Pipeline, *gorm.DB) {
	t.Helper()
	gormDB := newTestDB(t)
	clock := func() time.Time { return testNow }
	alerts := alerting.NewEngine(gormDB).WithClock(clock)
	pipeline := NewPipeline(gormDB, alerts, 0).WithClock(clock)
	return pipeline, gormDB
}

func seedDevice(t *testing.T, gormDB *gorm.DB, code string, active bool) model.Device {
	t.Helper()

	facility := model.Facility{Name: "Facility for " + code}
	require.NoError(t, gormDB.Create(&facility).Error)

	zone := model.Zone{FacilityID: facility.ID, Name: "Zone for " + code, DailyCapacity: 50}
	require.NoError(t, gormDB.Create(&zone).Error)

	device := model.Device{ZoneID: zone.ID, Code: code, IsActive: active}
	require.NoError(t, gormDB.Create(&device).Error)
	return device
}

func ptr(v float64) *float64 { return &v }

func validReading(code string, ts time.Time) Reading {
	return Reading{
		DeviceCode:  code,
		Voltage:     ptr(230),
		Current:     ptr(5),
		PowerFactor: ptr(0.9),
		Timestamp:   ts,
	}
}

func TestIngestOneValidation(t *testing.T) {
	pipeline, _ := newTestPipeline(t)
	ts := testNow.Add(-time.Minute)

	testCases := []struct {
		name    string
		mutate  func(r *Reading)
		field   string
		message string
	}{
		{
			name:    "missing device code",
			mutate:  func(r *Reading) { r.DeviceCode = "" },
			field:   "device_code",
			message: "missing required field: device_code",
		},
		{
			name:    "missing voltage",
			mutate:  func(r *Reading) { r.Voltage = nil },
			field:   "voltage",
			message: "missing required field: voltage",
		},
		{
			name:    "missing current",
			mutate:  func(r *Reading) { r.Current = nil },
			field:   "current",
			message: "missing required field: current",
		},
		{
			name:    "missing power factor",
			mutate:  func(r *Reading) { r.PowerFactor = nil },
			field:   "power_factor",
			message: "missing required field: power_factor",
		},
		{
			name:    "negative voltage",
			mutate:  func(r *Reading) { r.Voltage = ptr(-1) },
			field:   "voltage",
			message: "voltage must be non-negative",
		},
		{
			name:    "negative current",
			mutate:  func(r *Reading) { r.Current = ptr(-0.5) },
			field:   "current",
			message: "current must be non-negative",
		},
		{
			name:    "power factor above one",
			mutate:  func(r *Reading) { r.PowerFactor = ptr(1.2) },
			field:   "power_factor",
			message: "power factor must be between 0 and 1",
		},
		{
			name:    "future timestamp",
			mutate:  func(r *Reading) { r.Timestamp = testNow.Add(time.Hour) },
			field:   "timestamp",
			message: "timestamp cannot be in the future",
		},
		{
			// The first violated field wins when several are invalid.
			name: "missing code beats missing voltage",
			mutate: func(r *Reading) {
				r.DeviceCode = ""
				r.Voltage = nil
			},
			field:   "device_code",
			message: "missing required field: device_code",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			reading := validReading("PM-001", ts)
			tc.mutate(&reading)

			err := pipeline.IngestOne(context.Background(), reading)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
			assert.Equal(t, tc.message, vErr.Reason)
		})
	}
}

func TestIngestOneUnknownOrInactiveDevice(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	seedDevice(t, gormDB, "PM-OFF", false)
	ts := testNow.Add(-time.Minute)

	err := pipeline.IngestOne(context.Background(), validReading("PM-GHOST", ts))
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	// An inactive device is indistinguishable from a missing one.
	err = pipeline.IngestOne(context.Background(), validReading("PM-OFF", ts))
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestIngestOnePersistsAndAdvancesHeartbeat(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	device := seedDevice(t, gormDB, "PM-001", true)
	ts := testNow.Add(-time.Minute)

	err := pipeline.IngestOne(context.Background(), validReading("PM-001", ts))
	require.NoError(t, err)

	var reading model.TelemetryReading
	require.NoError(t, gormDB.Where("device_id = ?", device.ID).First(&reading).Error)
	assert.Equal(t, 230.0, reading.Voltage)
	assert.Equal(t, 5.0, reading.Current)
	assert.Equal(t, 0.9, reading.PowerFactor)

	var updated model.Device
	require.NoError(t, gormDB.First(&updated, device.ID).Error)
	require.NotNil(t, updated.LastSeen)
	assert.WithinDuration(t, ts, *updated.LastSeen, time.Second)
}

func TestIngestOneDuplicateIsSilentlyAbsorbed(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	device := seedDevice(t, gormDB, "PM-001", true)
	ts := testNow.Add(-time.Minute)

	require.NoError(t, pipeline.IngestOne(context.Background(), validReading("PM-001", ts)))

	// Reset the heartbeat to a sentinel so a moved heartbeat is detectable.
	sentinel := testNow.Add(-time.Hour)
	require.NoError(t, gormDB.Model(&device).Update("last_seen", sentinel).Error)

	// Replaying the same (device, timestamp) pair succeeds but must neither
	// add a row nor move the heartbeat.
	require.NoError(t, pipeline.IngestOne(context.Background(), validReading("PM-001", ts)))

	var count int64
	require.NoError(t, gormDB.Model(&model.TelemetryReading{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var updated model.Device
	require.NoError(t, gormDB.First(&updated, device.ID).Error)
	require.NotNil(t, updated.LastSeen)
	assert.WithinDuration(t, sentinel, *updated.LastSeen, time.Second)
}

func TestIngestOneRaisesHighPowerAlert(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	device := seedDevice(t, gormDB, "PM-001", true)

	reading := validReading("PM-001", testNow.Add(-time.Minute))
	reading.Current = ptr(10) // 230 * 10 * 0.9 = 2070W

	require.NoError(t, pipeline.IngestOne(context.Background(), reading))

	var alert model.Alert
	require.NoError(t, gormDB.Where("device_id = ?", device.ID).First(&alert).Error)
	assert.Equal(t, "Abnormally high power usage: 2070.00W", alert.Message)
	assert.Equal(t, model.SeverityCritical, alert.Severity)
	assert.True(t, alert.IsActive)
}

func TestIngestBatchMixedOutcome(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	seedDevice(t, gormDB, "PM-001", true)
	ts := testNow.Add(-time.Minute)

	bad := validReading("PM-001", ts.Add(time.Second))
	bad.Voltage = nil

	items := []Reading{
		validReading("PM-001", ts),
		bad,
		validReading("PM-GHOST", ts),
		{Timestamp: ts}, // no device code at all
	}

	result, err := pipeline.IngestBatch(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ProcessedCount)
	assert.Equal(t, 3, result.FailedCount)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "PM-001: missing required field: voltage", result.Errors[0])
	assert.Equal(t, "PM-GHOST: device not found or inactive", result.Errors[1])
	assert.Equal(t, "missing device_code in batch item", result.Errors[2])

	// The good item was committed despite its failing siblings.
	var count int64
	require.NoError(t, gormDB.Model(&model.TelemetryReading{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestIngestBatchAllValid(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	seedDevice(t, gormDB, "PM-001", true)
	ts := testNow.Add(-time.Hour)

	items := []Reading{
		validReading("PM-001", ts),
		validReading("PM-001", ts.Add(time.Minute)),
		validReading("PM-001", ts.Add(2*time.Minute)),
	}

	result, err := pipeline.IngestBatch(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 3, result.ProcessedCount)
	assert.Equal(t, 0, result.FailedCount)
	assert.Empty(t, result.Errors)

	var count int64
	require.NoError(t, gormDB.Model(&model.TelemetryReading{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestIngestBatchInfrastructureFailureAborts(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	clock := func() time.Time { return testNow }
	alerts := alerting.NewEngine(gormDB).WithClock(clock)
	pipeline := NewPipeline(gormDB, alerts, 0).WithClock(clock)

	// The device lookup fails with a non-domain error, which must roll the
	// whole batch back rather than being collected as an item failure.
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "devices"`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	items := []Reading{validReading("PM-001", testNow.Add(-time.Minute))}
	result, err := pipeline.IngestBatch(context.Background(), items)
	require.Error(t, err)
	assert.Equal(t, 0, result.ProcessedCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "transaction failed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordOccupancy(t *testing.T) {
	pipeline, gormDB := newTestPipeline(t)
	device := seedDevice(t, gormDB, "PM-001", true)
	ts := testNow.Add(-time.Minute)

	err := pipeline.RecordOccupancy(context.Background(), "PM-001", true, ts)
	require.NoError(t, err)

	var event model.OccupancyEvent
	require.NoError(t, gormDB.Where("device_id = ?", device.ID).First(&event).Error)
	assert.True(t, event.IsOccupied)
	assert.WithinDuration(t, ts, event.Timestamp, time.Second)

	// Occupancy events never touch the heartbeat.
	var updated model.Device
	require.NoError(t, gormDB.First(&updated, device.ID).Error)
	assert.Nil(t, updated.LastSeen)

	err = pipeline.RecordOccupancy(context.Background(), "PM-GHOST", true, ts)
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}
