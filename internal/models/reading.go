package models

import "time"

// SensorReading is a single water-quality sample for a pond.
// Readings are append-only: rows are never updated after creation.
type SensorReading struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	PondID uint `gorm:"index;not null" json:"pond_id"`

	// Raw measurements
	DissolvedOxygen float64 `json:"dissolved_oxygen"` // mg/L
	Temperature     float64 `json:"temperature"`      // °C
	Ammonia         float64 `json:"ammonia"`          // mg/L total ammonia
	PH              float64 `json:"ph"`
	Turbidity       float64 `json:"turbidity"` // NTU, optional

	// Derived at ingest time, all in [0,100]
	HealthScore float64 `json:"health_score"`
	DORisk      float64 `json:"do_risk"`
	NH3Risk     float64 `json:"nh3_risk"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
