package model

import "time"

// Device is a field sensor unit identified by a stable external code.
// LastSeen is advanced only by successful telemetry ingestion.
type Device struct {
	ID        int64      `gorm:"primaryKey" json:"id"`
	ZoneID    int64      `gorm:"index;not null" json:"zone_id"`
	Code      string     `gorm:"uniqueIndex;size:50;not null" json:"code"`
	IsActive  bool       `gorm:"not null;default:true" json:"is_active"`
	LastSeen  *time.Time `json:"last_seen"`
	CreatedAt time.Time  `gorm:"not null" json:"-"`
	UpdatedAt time.Time  `gorm:"not null" json:"-"`

	// Associations
	Zone Zone `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
