package model

import "time"

// Facility represents a top-level parking site containing zones.
type Facility struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:120;not null" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`

	// Associations
	Zones []Zone `gorm:"foreignKey:FacilityID" json:"zones,omitempty"`
}
