// Package ingest implements the telemetry and occupancy ingestion pipeline:
// validation, device resolution, idempotent persistence, heartbeat
// advancement and threshold evaluation.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-monitor-backend/internal/alerting"
	"parking-monitor-backend/internal/model"
)

// ErrDeviceNotFound is reported when a reading references a device code that
// does not exist or is inactive. In batches it is an item-level failure, not
// an abort.
var ErrDeviceNotFound = errors.New("device not found or inactive")

// ValidationError describes the first violated field of a malformed reading.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Reading is a single telemetry submission. The measurements are pointers so
// that absent fields are distinguishable from zero values.
type Reading struct {
	DeviceCode  string    `json:"device_code"`
	Voltage     *float64  `json:"voltage"`
	Current     *float64  `json:"current"`
	PowerFactor *float64  `json:"power_factor"`
	Timestamp   time.Time `json:"timestamp"`
}

// BatchResult reports the outcome of a batch ingestion.
type BatchResult struct {
	ProcessedCount int      `json:"processed_count"`
	FailedCount    int      `json:"failed_count"`
	Errors         []string `json:"errors"`
}

// Pipeline ingests readings and occupancy events.
type Pipeline struct {
	db             *gorm.DB
	alerts         *alerting.Engine
	thresholdWatts float64
	now            func() time.Time
}

// NewPipeline creates an ingestion pipeline. A non-positive threshold falls
// back to the default high-power threshold.
func NewPipeline(db *gorm.DB, alerts *alerting.Engine, thresholdWatts float64) *Pipeline {
	if thresholdWatts <= 0 {
		thresholdWatts = alerting.DefaultHighPowerThreshold
	}
	return &Pipeline{
		db:             db,
		alerts:         alerts,
		thresholdWatts: thresholdWatts,
		now:            time.Now,
	}
}

// WithClock overrides the pipeline's clock. Intended for tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// IngestOne validates and persists a single reading, advances the device
// heartbeat and evaluates the high-power rule. A duplicate (device, timestamp)
// submission is silently absorbed without touching the heartbeat.
func (p *Pipeline) IngestOne(ctx context.Context, r Reading) error {
	return p.ingestOne(ctx, p.db, r)
}

func (p *Pipeline) ingestOne(ctx context.Context, db *gorm.DB, r Reading) error {
	if err := validate(r, p.now()); err != nil {
		return err
	}

	var device model.Device
	err := db.WithContext(ctx).
		Where("code = ? AND is_active = ?", r.DeviceCode, true).
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", r.DeviceCode, err)
	}

	reading := model.TelemetryReading{
		DeviceID:    device.ID,
		Voltage:     *r.Voltage,
		Current:     *r.Current,
		PowerFactor: *r.PowerFactor,
		Timestamp:   r.Timestamp,
	}
	res := db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&reading)
	if res.Error != nil {
		return fmt.Errorf("failed to persist reading for %s: %w", r.DeviceCode, res.Error)
	}

	// Only an actually-inserted row advances the heartbeat; a replayed
	// duplicate counts as processed but must not move last_seen.
	if res.RowsAffected > 0 {
		err := db.WithContext(ctx).Model(&device).Update("last_seen", r.Timestamp).Error
		if err != nil {
			return fmt.Errorf("failed to advance heartbeat for %s: %w", r.DeviceCode, err)
		}
	}

	_, err = p.alerts.Tx(db).EvaluateHighPower(ctx, device.ID, &reading, p.thresholdWatts)
	return err
}

// IngestBatch runs the full pipeline for every item inside one transaction.
// Item-level validation and not-found failures are collected without aborting
// sibling items; any other failure rolls the whole batch back, reports zero
// processed and returns the failure.
func (p *Pipeline) IngestBatch(ctx context.Context, items []Reading) (*BatchResult, error) {
	result := &BatchResult{Errors: []string{}}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			err := p.ingestOne(ctx, tx, item)
			if err == nil {
				result.ProcessedCount++
				continue
			}

			var vErr *ValidationError
			if errors.As(err, &vErr) || errors.Is(err, ErrDeviceNotFound) {
				result.FailedCount++
				result.Errors = append(result.Errors, itemError(item.DeviceCode, err))
				continue
			}
			// Infrastructure failure: abort the batch.
			return err
		}
		return nil
	})
	if err != nil {
		return &BatchResult{
			ProcessedCount: 0,
			FailedCount:    len(items),
			Errors:         []string{fmt.Sprintf("transaction failed: %v", err)},
		}, fmt.Errorf("batch ingestion failed: %w", err)
	}
	return result, nil
}

func itemError(deviceCode string, err error) string {
	if deviceCode == "" {
		return "missing device_code in batch item"
	}
	return fmt.Sprintf("%s: %v", deviceCode, err)
}

// RecordOccupancy appends a point-in-time occupancy observation for the
// device with the given code. The heartbeat is advanced only by telemetry,
// never by occupancy events.
func (p *Pipeline) RecordOccupancy(ctx context.Context, deviceCode string, isOccupied bool, timestamp time.Time) error {
	var device model.Device
	err := p.db.WithContext(ctx).Where("code = ?", deviceCode).First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDeviceNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve device %s: %w", deviceCode, err)
	}

	event := model.OccupancyEvent{
		DeviceID:   device.ID,
		IsOccupied: isOccupied,
		Timestamp:  timestamp,
	}
	if err := p.db.WithContext(ctx).Create(&event).Error; err != nil {
		return fmt.Errorf("failed to record occupancy for %s: %w", deviceCode, err)
	}
	return nil
}

// validate checks a reading and reports the first violated field.
func validate(r Reading, now time.Time) error {
	if r.DeviceCode == "" {
		return &ValidationError{Field: "device_code", Reason: "missing required field: device_code"}
	}
	if r.Voltage == nil {
		return &ValidationError{Field: "voltage", Reason: "missing required field: voltage"}
	}
	if r.Current == nil {
		return &ValidationError{Field: "current", Reason: "missing required field: current"}
	}
	if r.PowerFactor == nil {
		return &ValidationError{Field: "power_factor", Reason: "missing required field: power_factor"}
	}
	if *r.Voltage < 0 {
		return &ValidationError{Field: "voltage", Reason: "voltage must be non-negative"}
	}
	if *r.Current < 0 {
		return &ValidationError{Field: "current", Reason: "current must be non-negative"}
	}
	if *r.PowerFactor < 0 || *r.PowerFactor > 1 {
		return &ValidationError{Field: "power_factor", Reason: "power factor must be between 0 and 1"}
	}
	if r.Timestamp.After(now) {
		return &ValidationError{Field: "timestamp", Reason: "timestamp cannot be in the future"}
	}
	return nil
}
