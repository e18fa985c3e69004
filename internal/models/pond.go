package models

import "time"

// Pond represents a monitored aquaculture pond
type Pond struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Species   string    `json:"species"`
	CreatedAt time.Time `json:"created_at"`

	Readings []SensorReading `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Alerts   []Alert         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}
