package model

import "time"

// Severity levels for alerts.
const (
	SeverityInfo     = "INFO"
	SeverityWarning  = "WARNING"
	SeverityCritical = "CRITICAL"
)

// Alert is raised on threshold violations and connectivity loss. For a given
// device at most one alert with the same message may be active at a time;
// the constraint lives in a partial unique index created by db.Init because
// gorm tags cannot express conditional uniqueness. Alerts are never deleted.
type Alert struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	DeviceID     int64     `gorm:"index;not null" json:"device_id"`
	Message      string    `gorm:"size:255;not null" json:"message"`
	Severity     string    `gorm:"size:10;not null" json:"severity"`
	IsActive     bool      `gorm:"not null;default:true" json:"is_active"`
	Acknowledged bool      `gorm:"not null;default:false" json:"acknowledged"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`

	// Associations
	Device Device `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
