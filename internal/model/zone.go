package model

import "time"

// Zone is a capacity-bounded subdivision of a facility.
// Zone names are unique within their facility, not globally.
type Zone struct {
	ID            int64     `gorm:"primaryKey" json:"id"`
	FacilityID    int64     `gorm:"uniqueIndex:idx_zone_facility_name;not null" json:"facility_id"`
	Name          string    `gorm:"uniqueIndex:idx_zone_facility_name;size:100;not null" json:"name"`
	DailyCapacity uint      `gorm:"not null;default:100" json:"daily_capacity"`
	CreatedAt     time.Time `gorm:"not null" json:"-"`
	UpdatedAt     time.Time `gorm:"not null" json:"-"`

	// Associations
	Facility Facility `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Devices  []Device `gorm:"foreignKey:ZoneID" json:"devices,omitempty"`
}
