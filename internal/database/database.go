package database

import (
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
)

// Open connects to the database named by url and migrates the
// schema. Postgres URLs get the postgres driver; anything else is
// treated as a sqlite DSN.
func Open(url string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		dialector = postgres.Open(url)
	} else {
		dialector = sqlite.Open(url)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Pond{},
		&models.SensorReading{},
		&models.Alert{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// SeedPonds inserts the demo ponds when the table is empty.
func SeedPonds(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Pond{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count ponds: %w", err)
	}
	if count > 0 {
		return nil
	}

	ponds := []models.Pond{
		{Name: "Pond A", Species: "fish"},
		{Name: "Pond B", Species: "shrimp"},
		{Name: "Pond C", Species: "tilapia"},
	}
	if err := db.Create(&ponds).Error; err != nil {
		return fmt.Errorf("failed to seed ponds: %w", err)
	}
	log.Printf("Seeded %d demo ponds", len(ponds))
	return nil
}

// DeletePond removes a pond and all of its readings and alerts in a
// single transaction.
func DeletePond(db *gorm.DB, pondID uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var pond models.Pond
		if err := tx.First(&pond, pondID).Error; err != nil {
			return err
		}
		if err := tx.Where("pond_id = ?", pondID).Delete(&models.SensorReading{}).Error; err != nil {
			return fmt.Errorf("failed to delete readings: %w", err)
		}
		if err := tx.Where("pond_id = ?", pondID).Delete(&models.Alert{}).Error; err != nil {
			return fmt.Errorf("failed to delete alerts: %w", err)
		}
		return tx.Delete(&pond).Error
	})
}

// PruneReadings deletes readings older than the retention window.
// Alerts are never pruned: their only exit is the pond cascade.
func PruneReadings(db *gorm.DB, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res := db.Where("created_at < ?", cutoff).Delete(&models.SensorReading{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune readings: %w", res.Error)
	}
	return res.RowsAffected, nil
}
