package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/alert"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/database"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/sim"
)

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedPonds(db))

	alerts := alert.NewManager(db)
	svc := ingest.NewService(db, alerts)
	return NewServer(db, svc, alerts, sim.NewRunner(svc), ""), db
}

func doJSON(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListPonds(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodGet, "/api/v1/ponds", "")
	require.Equal(t, http.StatusOK, w.Code)

	var ponds []models.Pond
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ponds))
	require.Len(t, ponds, 3)
	assert.Equal(t, "Pond A", ponds[0].Name)
}

func TestIngestForPond(t *testing.T) {
	s, db := newTestServer(t)

	body := `{"dissolved_oxygen": 3.0, "temperature": 29, "ammonia": 0.1, "ph": 7.0, "turbidity": 12}`
	w := doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", body)
	require.Equal(t, http.StatusOK, w.Code)

	var result ingest.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.NotZero(t, result.ReadingID)
	assert.Equal(t, "WATCH", string(result.Status))

	var count int64
	require.NoError(t, db.Model(&models.SensorReading{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestIngestUnknownPondReturns404(t *testing.T) {
	s, _ := newTestServer(t)

	body := `{"pond_id": 42, "dissolved_oxygen": 7.0, "temperature": 29, "ammonia": 0.1, "ph": 7.5}`
	w := doJSON(t, s, http.MethodPost, "/api/v1/ingest/reading", body)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIngestRejectsInvalidMeasurements(t *testing.T) {
	s, db := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"negative DO", `{"dissolved_oxygen": -1, "temperature": 29, "ammonia": 0.1, "ph": 7.5}`},
		{"ph out of range", `{"dissolved_oxygen": 7, "temperature": 29, "ammonia": 0.1, "ph": 15}`},
		{"temperature out of range", `{"dissolved_oxygen": 7, "temperature": 70, "ammonia": 0.1, "ph": 7.5}`},
		{"malformed json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}

	// Nothing was persisted
	var count int64
	require.NoError(t, db.Model(&models.SensorReading{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLatestAndHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/latest", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "no readings yet")

	body := `{"dissolved_oxygen": 7.0, "temperature": 29, "ammonia": 0.1, "ph": 7.5}`
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", body).Code)

	w = doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var health struct {
		HealthScore float64 `json:"health_score"`
		DORisk      float64 `json:"do_risk"`
		NH3Risk     float64 `json:"nh3_risk"`
		Status      string  `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "GOOD", health.Status)
	assert.Zero(t, health.DORisk)
}

func TestTimeseriesOrderedOldestFirst(t *testing.T) {
	s, db := newTestServer(t)

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.SensorReading{
			PondID:          1,
			DissolvedOxygen: 6.0 + float64(i),
			Temperature:     29,
			PH:              7.5,
			CreatedAt:       now.Add(time.Duration(i-3) * time.Minute),
		}).Error)
	}

	w := doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/timeseries?range_hours=1&limit=10", "")
	require.Equal(t, http.StatusOK, w.Code)

	var readings []models.SensorReading
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &readings))
	require.Len(t, readings, 3)
	assert.True(t, readings[0].CreatedAt.Before(readings[2].CreatedAt))
}

func TestAlertLifecycleOverHTTP(t *testing.T) {
	s, _ := newTestServer(t)

	// Two identical alert-triggering ingests within the window
	body := `{"dissolved_oxygen": 3.0, "temperature": 29, "ammonia": 0.1, "ph": 7.0}`
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", body).Code)
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", body).Code)

	w := doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/alerts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1, "dedup leaves exactly one unresolved alert")

	resolveURL := fmt.Sprintf("/api/v1/alerts/%d/resolve", alerts[0].ID)
	w = doJSON(t, s, http.MethodPost, resolveURL, "")
	require.Equal(t, http.StatusOK, w.Code)

	var resolved models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.True(t, resolved.Resolved)
	require.NotNil(t, resolved.ResolvedAt)

	// Idempotent second resolve
	w = doJSON(t, s, http.MethodPost, resolveURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	var again models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &again))
	assert.True(t, again.ResolvedAt.Equal(*resolved.ResolvedAt))

	// Resolved alerts are hidden unless requested
	w = doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/alerts", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	assert.Empty(t, alerts)

	w = doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/alerts?include_resolved=true", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alerts))
	assert.Len(t, alerts, 1)
}

func TestResolveUnknownAlert(t *testing.T) {
	s, _ := newTestServer(t)
	w := doJSON(t, s, http.MethodPost, "/api/v1/alerts/999/resolve", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForecastEndpoint(t *testing.T) {
	s, db := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/forecast", "")
	require.Equal(t, http.StatusOK, w.Code)

	var empty map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &empty))
	assert.Empty(t, empty["points"])

	now := time.Now().UTC()
	for i := 0; i < 10; i++ {
		require.NoError(t, db.Create(&models.SensorReading{
			PondID:          1,
			DissolvedOxygen: 7.0,
			Ammonia:         0.15,
			Temperature:     29,
			PH:              7.5,
			CreatedAt:       now.Add(time.Duration(i-10) * time.Minute),
		}).Error)
	}

	w = doJSON(t, s, http.MethodGet, "/api/v1/ponds/1/forecast?hours=4&step_minutes=60", "")
	require.Equal(t, http.StatusOK, w.Code)

	var fc struct {
		Points  []map[string]interface{} `json:"points"`
		Summary map[string]interface{}   `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Len(t, fc.Points, 4)
}

func TestSimControl(t *testing.T) {
	s, _ := newTestServer(t)

	w := doJSON(t, s, http.MethodGet, "/api/v1/sim/status/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state struct {
		Running bool `json:"running"`
		Started bool `json:"started"`
		Stopped bool `json:"stopped"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Running)

	w = doJSON(t, s, http.MethodPost, "/api/v1/sim/start/1?interval_sec=1&incident_mode=false", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Started)
	assert.True(t, state.Running)

	// Second start is a no-op
	w = doJSON(t, s, http.MethodPost, "/api/v1/sim/start/1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Started)
	assert.True(t, state.Running)

	w = doJSON(t, s, http.MethodPost, "/api/v1/sim/stop/1", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.True(t, state.Stopped)
	assert.False(t, state.Running)

	// Starting an unknown pond is a 404
	w = doJSON(t, s, http.MethodPost, "/api/v1/sim/start/42", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePondCascadesOverHTTP(t *testing.T) {
	s, db := newTestServer(t)

	body := `{"dissolved_oxygen": 3.0, "temperature": 29, "ammonia": 0.1, "ph": 7.0}`
	require.Equal(t, http.StatusOK, doJSON(t, s, http.MethodPost, "/api/v1/ponds/1/ingest", body).Code)

	w := doJSON(t, s, http.MethodDelete, "/api/v1/ponds/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var readings, alerts int64
	require.NoError(t, db.Model(&models.SensorReading{}).Where("pond_id = ?", 1).Count(&readings).Error)
	require.NoError(t, db.Model(&models.Alert{}).Where("pond_id = ?", 1).Count(&alerts).Error)
	assert.Zero(t, readings)
	assert.Zero(t, alerts)

	w = doJSON(t, s, http.MethodDelete, "/api/v1/ponds/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
