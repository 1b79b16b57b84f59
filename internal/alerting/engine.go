// Package alerting implements the alert lifecycle: creation with
// storage-enforced deduplication, acknowledgment, the offline sweep, and the
// filtered read path.
package alerting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parking-monitor-backend/internal/model"
)

// DefaultHighPowerThreshold is the power threshold in watts above which a
// reading raises a critical alert.
const DefaultHighPowerThreshold = 2000.0

// OfflineMessage is the deduplication key used by the offline sweep.
const OfflineMessage = "Device offline"

var (
	// ErrAlertNotFound is returned when an alert id does not exist.
	ErrAlertNotFound = errors.New("alert not found")
	// ErrNoAlertIDs is returned when a bulk acknowledge carries no ids.
	ErrNoAlertIDs = errors.New("no alert IDs provided")
)

// Engine owns all alert writes. The active-alert dedup invariant is enforced
// by a partial unique index on (device_id, message) WHERE is_active, so
// concurrent Raise calls for the same pair cannot race into duplicates.
type Engine struct {
	db  *gorm.DB
	now func() time.Time
}

// NewEngine creates an alert engine backed by the given database.
func NewEngine(db *gorm.DB) *Engine {
	return &Engine{db: db, now: time.Now}
}

// WithClock overrides the engine's clock. Intended for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Tx returns a copy of the engine bound to the given transaction handle, so
// alert writes join the caller's transaction boundary.
func (e *Engine) Tx(tx *gorm.DB) *Engine {
	return &Engine{db: tx, now: e.now}
}

// Raise creates an active, unacknowledged alert unless an active alert with
// the same (device, message) already exists, in which case the existing alert
// is returned and created is false. Re-raising while active is idempotent.
func (e *Engine) Raise(ctx context.Context, deviceID int64, message, severity string) (*model.Alert, bool, error) {
	alert := &model.Alert{
		DeviceID:  deviceID,
		Message:   message,
		Severity:  severity,
		IsActive:  true,
		CreatedAt: e.now(),
	}

	res := e.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(alert)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create alert for device %d: %w", deviceID, res.Error)
	}
	if res.RowsAffected == 0 {
		// The partial unique index rejected the insert: an active duplicate
		// exists. Return it instead.
		var existing model.Alert
		err := e.db.WithContext(ctx).
			Where("device_id = ? AND message = ? AND is_active = ?", deviceID, message, true).
			First(&existing).Error
		if err != nil {
			return nil, false, fmt.Errorf("failed to load existing active alert for device %d: %w", deviceID, err)
		}
		return &existing, false, nil
	}
	return alert, true, nil
}

// Acknowledge marks a single alert as acknowledged. An already-acknowledged
// alert is a benign no-op: the alert is returned with updated=false. A missing
// id yields ErrAlertNotFound.
func (e *Engine) Acknowledge(ctx context.Context, alertID int64) (*model.Alert, bool, error) {
	var alert model.Alert
	err := e.db.WithContext(ctx).First(&alert, alertID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, ErrAlertNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load alert %d: %w", alertID, err)
	}

	if alert.Acknowledged {
		return &alert, false, nil
	}

	if err := e.db.WithContext(ctx).Model(&alert).Update("acknowledged", true).Error; err != nil {
		return nil, false, fmt.Errorf("failed to acknowledge alert %d: %w", alertID, err)
	}
	return &alert, true, nil
}

// BulkAckResult reports how a bulk acknowledge partitioned its input.
type BulkAckResult struct {
	AcknowledgedCount int `json:"acknowledged_count"`
	SkippedCount      int `json:"skipped_count"`
	NotFoundCount     int `json:"not_found_count"`
}

// BulkAcknowledge acknowledges every not-yet-acknowledged alert in ids inside
// one transaction and reports counts for the acknowledged, already-acknowledged
// and nonexistent groups. An empty id list is a caller error.
func (e *Engine) BulkAcknowledge(ctx context.Context, ids []int64) (*BulkAckResult, error) {
	if len(ids) == 0 {
		return nil, ErrNoAlertIDs
	}

	var result BulkAckResult
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var already int64
		if err := tx.Model(&model.Alert{}).
			Where("id IN ? AND acknowledged = ?", ids, true).
			Count(&already).Error; err != nil {
			return err
		}

		res := tx.Model(&model.Alert{}).
			Where("id IN ? AND acknowledged = ?", ids, false).
			Update("acknowledged", true)
		if res.Error != nil {
			return res.Error
		}

		result.AcknowledgedCount = int(res.RowsAffected)
		result.SkippedCount = int(already)
		result.NotFoundCount = len(ids) - result.AcknowledgedCount - result.SkippedCount
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("bulk acknowledge failed: %w", err)
	}
	return &result, nil
}

// EvaluateHighPower raises a critical alert when the reading's derived power
// exceeds thresholdWatts. The message embeds the computed wattage, so each
// distinct wattage forms its own dedup key; callers wanting coarse dedup must
// normalize the message themselves.
func (e *Engine) EvaluateHighPower(ctx context.Context, deviceID int64, reading *model.TelemetryReading, thresholdWatts float64) (*model.Alert, error) {
	power := reading.Power()
	if power <= thresholdWatts {
		return nil, nil
	}

	message := fmt.Sprintf("Abnormally high power usage: %.2fW", power)
	alert, _, err := e.Raise(ctx, deviceID, message, model.SeverityCritical)
	return alert, err
}

// SweepOffline raises a warning alert for every active device whose heartbeat
// is absent or older than two minutes, and returns the number of alerts that
// were newly created (pre-existing active ones do not count). It is safe to
// run concurrently from multiple callers.
func (e *Engine) SweepOffline(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-2 * time.Minute)

	var devices []model.Device
	err := e.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("last_seen IS NULL OR last_seen < ?", cutoff).
		Find(&devices).Error
	if err != nil {
		return 0, fmt.Errorf("failed to list offline candidates: %w", err)
	}

	created := 0
	for _, device := range devices {
		_, wasCreated, err := e.Raise(ctx, device.ID, OfflineMessage, model.SeverityWarning)
		if err != nil {
			return created, err
		}
		if wasCreated {
			created++
		}
	}
	return created, nil
}
