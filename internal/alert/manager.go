package alert

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
)

// DedupWindow is the de-spam lookback: an unresolved alert with the
// same message for the same pond suppresses re-creation within it.
const DedupWindow = 10 * time.Minute

var ErrAlertNotFound = errors.New("alert not found")

type Manager struct {
	db *gorm.DB
}

func NewManager(db *gorm.DB) *Manager {
	return &Manager{db: db}
}

// Raise creates an alert unless an unresolved alert with the same
// message exists for the pond within the dedup window. It returns
// whether a new row was created. The check-then-insert is best
// effort: two concurrent ingests can both pass the check before
// either commits.
func (m *Manager) Raise(tx *gorm.DB, pondID uint, severity models.Severity, message string, now time.Time) (bool, error) {
	var count int64
	err := tx.Model(&models.Alert{}).
		Where("pond_id = ? AND message = ? AND resolved = ? AND created_at >= ?",
			pondID, message, false, now.Add(-DedupWindow)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check recent alerts: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	a := models.Alert{
		PondID:    pondID,
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
	}
	if err := tx.Create(&a).Error; err != nil {
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	return true, nil
}

// Resolve marks an alert resolved. Resolving an already-resolved
// alert is a no-op that returns the stored state unchanged.
func (m *Manager) Resolve(id uint) (*models.Alert, error) {
	var a models.Alert
	if err := m.db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlertNotFound
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	if a.Resolved {
		return &a, nil
	}

	now := time.Now().UTC()
	a.Resolved = true
	a.ResolvedAt = &now
	if err := m.db.Save(&a).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	return &a, nil
}

// List returns a pond's alerts newest first. Resolved alerts are
// excluded unless includeResolved is set.
func (m *Manager) List(pondID uint, includeResolved bool, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 100
	}

	query := m.db.Where("pond_id = ?", pondID)
	if !includeResolved {
		query = query.Where("resolved = ?", false)
	}

	var alerts []models.Alert
	if err := query.Order("created_at desc").Limit(limit).Find(&alerts).Error; err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	return alerts, nil
}
