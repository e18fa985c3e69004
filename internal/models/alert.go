package models

import "time"

type Severity string

const (
	SeverityLow    Severity = "LOW"
	SeverityMedium Severity = "MEDIUM"
	SeverityHigh   Severity = "HIGH"
)

// Alert is a condition raised against a pond. Its only lifecycle
// transition is resolved false -> true, which sets ResolvedAt.
type Alert struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PondID     uint       `gorm:"index;not null" json:"pond_id"`
	Message    string     `gorm:"not null" json:"message"`
	Severity   Severity   `gorm:"not null" json:"severity"`
	Resolved   bool       `gorm:"default:false" json:"resolved"`
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}
