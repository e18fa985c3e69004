package ingest

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/alert"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/risk"
)

var ErrPondNotFound = errors.New("pond not found")

// Measurements are the raw fields accepted from a sensor or the
// simulator for one reading.
type Measurements struct {
	DissolvedOxygen float64 `json:"dissolved_oxygen"`
	Temperature     float64 `json:"temperature"`
	Ammonia         float64 `json:"ammonia"`
	PH              float64 `json:"ph"`
	Turbidity       float64 `json:"turbidity"`
}

// Validate rejects physically impossible values before anything is
// persisted.
func (m Measurements) Validate() error {
	if m.DissolvedOxygen < 0 {
		return fmt.Errorf("dissolved_oxygen must be >= 0, got %v", m.DissolvedOxygen)
	}
	if m.Temperature < -5 || m.Temperature > 60 {
		return fmt.Errorf("temperature must be between -5 and 60, got %v", m.Temperature)
	}
	if m.Ammonia < 0 {
		return fmt.Errorf("ammonia must be >= 0, got %v", m.Ammonia)
	}
	if m.PH < 0 || m.PH > 14 {
		return fmt.Errorf("ph must be between 0 and 14, got %v", m.PH)
	}
	if m.Turbidity < 0 {
		return fmt.Errorf("turbidity must be >= 0, got %v", m.Turbidity)
	}
	return nil
}

type Result struct {
	ReadingID   uint        `json:"reading_id"`
	HealthScore float64     `json:"health_score"`
	Status      risk.Status `json:"status"`
}

type Service struct {
	db     *gorm.DB
	alerts *alert.Manager
}

func NewService(db *gorm.DB, alerts *alert.Manager) *Service {
	return &Service{db: db, alerts: alerts}
}

// Ingest scores a reading, persists it and raises any deduplicated
// alerts the evaluator emitted. The reading and its alerts share one
// transaction.
func (s *Service) Ingest(pondID uint, m Measurements) (*Result, error) {
	var pond models.Pond
	if err := s.db.First(&pond, pondID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPondNotFound
		}
		return nil, fmt.Errorf("failed to load pond: %w", err)
	}

	assessment := risk.Evaluate(m.DissolvedOxygen, m.Temperature, m.Ammonia, m.PH)
	now := time.Now().UTC()

	reading := models.SensorReading{
		PondID:          pond.ID,
		DissolvedOxygen: m.DissolvedOxygen,
		Temperature:     m.Temperature,
		Ammonia:         m.Ammonia,
		PH:              m.PH,
		Turbidity:       m.Turbidity,
		HealthScore:     assessment.HealthScore,
		DORisk:          assessment.DORisk,
		NH3Risk:         assessment.NH3Risk,
		CreatedAt:       now,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&reading).Error; err != nil {
			return fmt.Errorf("failed to create reading: %w", err)
		}
		for _, msg := range assessment.Messages {
			if _, err := s.alerts.Raise(tx, pond.ID, msg.Severity, msg.Text, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &Result{
		ReadingID:   reading.ID,
		HealthScore: assessment.HealthScore,
		Status:      risk.StatusFromHealth(assessment.HealthScore),
	}, nil
}
