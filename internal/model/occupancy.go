package model

import "time"

// OccupancyEvent is a point-in-time observation of whether a device's slot
// is occupied. It records an observation, not a span; current occupancy is
// derived from the most recent event per device.
type OccupancyEvent struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	DeviceID   int64     `gorm:"index;not null" json:"device_id"`
	IsOccupied bool      `gorm:"not null" json:"is_occupied"`
	Timestamp  time.Time `gorm:"index;not null" json:"timestamp"`

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
