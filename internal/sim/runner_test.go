package sim

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/alert"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
)

func newTestRunner(t *testing.T) (*Runner, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Pond{}, &models.SensorReading{}, &models.Alert{}))
	require.NoError(t, db.Create(&models.Pond{Name: "Pond A", Species: "fish"}).Error)

	return NewRunner(ingest.NewService(db, alert.NewManager(db))), db
}

func TestRunnerStartStopSemantics(t *testing.T) {
	r, _ := newTestRunner(t)

	assert.False(t, r.Status(1))
	assert.False(t, r.Stop(1), "stopping a non-running pond reports false")

	assert.True(t, r.Start(1, time.Second, false))
	assert.True(t, r.Status(1))
	assert.False(t, r.Start(1, time.Second, false), "second start is a no-op")

	assert.True(t, r.Stop(1))
	assert.False(t, r.Status(1))
	assert.False(t, r.Stop(1))
}

func TestRunnerIngestsReadings(t *testing.T) {
	r, db := newTestRunner(t)

	require.True(t, r.Start(1, time.Second, false))
	defer r.Stop(1)

	// The loop ingests once before its first sleep
	require.Eventually(t, func() bool {
		var count int64
		if err := db.Model(&models.SensorReading{}).Where("pond_id = ?", 1).Count(&count).Error; err != nil {
			return false
		}
		return count >= 1
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRunnerIndependentPonds(t *testing.T) {
	r, db := newTestRunner(t)
	require.NoError(t, db.Create(&models.Pond{Name: "Pond B", Species: "shrimp"}).Error)

	assert.True(t, r.Start(1, time.Second, false))
	assert.True(t, r.Start(2, time.Second, true), "other ponds start independently")

	assert.True(t, r.Stop(1))
	assert.True(t, r.Status(2), "stopping one pond leaves the other running")
	assert.True(t, r.Stop(2))
}

func TestGeneratorClampsAndDrift(t *testing.T) {
	gen := NewGenerator(false, 1)
	for i := 0; i < 200; i++ {
		m := gen.Next()
		assert.GreaterOrEqual(t, m.DissolvedOxygen, 0.5)
		assert.LessOrEqual(t, m.DissolvedOxygen, 12.0)
		assert.GreaterOrEqual(t, m.Ammonia, 0.0)
		assert.LessOrEqual(t, m.Ammonia, 2.0)
		assert.GreaterOrEqual(t, m.Temperature, 10.0)
		assert.LessOrEqual(t, m.Temperature, 40.0)
		assert.GreaterOrEqual(t, m.PH, 6.0)
		assert.LessOrEqual(t, m.PH, 9.5)
		assert.GreaterOrEqual(t, m.Turbidity, 0.0)
	}

	// Incident mode drifts DO down and ammonia up past the noise band
	incident := NewGenerator(true, 1)
	var first, last ingest.Measurements
	for i := 0; i < 100; i++ {
		m := incident.Next()
		if i == 0 {
			first = m
		}
		last = m
	}
	assert.Less(t, last.DissolvedOxygen, first.DissolvedOxygen-1.0)
	assert.Greater(t, last.Ammonia, first.Ammonia+0.1)
}
