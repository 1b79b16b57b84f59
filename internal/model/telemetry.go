package model

import "time"

// TelemetryReading is a single electrical measurement reported by a device.
// Readings are append-only; at most one reading may exist per
// (device, timestamp) pair, duplicates are ignored at insert time.
type TelemetryReading struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	DeviceID    int64     `gorm:"uniqueIndex:idx_telemetry_device_timestamp;not null" json:"device_id"`
	Voltage     float64   `gorm:"not null" json:"voltage"`
	Current     float64   `gorm:"not null" json:"current"`
	PowerFactor float64   `gorm:"not null" json:"power_factor"`
	Timestamp   time.Time `gorm:"uniqueIndex:idx_telemetry_device_timestamp;index;not null" json:"timestamp"`

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

// Power returns the instantaneous power draw in watts.
func (r *TelemetryReading) Power() float64 {
	return r.Voltage * r.Current * r.PowerFactor
}
