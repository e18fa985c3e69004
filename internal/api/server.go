package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/alert"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/database"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/forecast"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/risk"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/sim"
)

type Server struct {
	db     *gorm.DB
	ingest *ingest.Service
	alerts *alert.Manager
	sim    *sim.Runner
	router *gin.Engine
}

func NewServer(db *gorm.DB, ingestSvc *ingest.Service, alerts *alert.Manager, runner *sim.Runner, corsOrigins string) *Server {
	server := &Server{
		db:     db,
		ingest: ingestSvc,
		alerts: alerts,
		sim:    runner,
		router: gin.Default(),
	}

	server.router.Use(corsMiddleware(corsOrigins))
	server.setupRoutes()
	return server
}

func corsMiddleware(origins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	cfg.AllowCredentials = true

	parsed := parseOrigins(origins)
	if len(parsed) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = parsed
	}
	return cors.New(cfg)
}

func parseOrigins(raw string) []string {
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" && p != "*" {
			origins = append(origins, p)
		}
	}
	return origins
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthz)

	api := s.router.Group("/api/v1")

	api.GET("/ponds", s.listPonds)
	api.POST("/ponds", s.createPond)
	api.DELETE("/ponds/:id", s.deletePond)
	api.POST("/ponds/:id/ingest", s.ingestForPond)
	api.GET("/ponds/:id/latest", s.latestReading)
	api.GET("/ponds/:id/health", s.pondHealth)
	api.GET("/ponds/:id/timeseries", s.timeseries)
	api.GET("/ponds/:id/alerts", s.listAlerts)
	api.GET("/ponds/:id/forecast", s.pondForecast)

	// Body-addressed ingest used by the external simulator client
	api.POST("/ingest/reading", s.ingestReading)

	api.POST("/alerts/:id/resolve", s.resolveAlert)

	api.GET("/sim/status/:pond_id", s.simStatus)
	api.POST("/sim/start/:pond_id", s.simStart)
	api.POST("/sim/stop/:pond_id", s.simStop)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Start(port int) error {
	return s.router.Run(fmt.Sprintf(":%d", port))
}

func (s *Server) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func pondIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid pond ID"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) listPonds(c *gin.Context) {
	var ponds []models.Pond
	if err := s.db.Order("id").Find(&ponds).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch ponds"})
		return
	}
	c.JSON(http.StatusOK, ponds)
}

func (s *Server) createPond(c *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required"`
		Species string `json:"species"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pond := models.Pond{Name: req.Name, Species: req.Species}
	if err := s.db.Create(&pond).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create pond"})
		return
	}
	c.JSON(http.StatusCreated, pond)
}

func (s *Server) deletePond(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	if err := database.DeletePond(s.db, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pond not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "pond deleted"})
}

func (s *Server) ingestForPond(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	var m ingest.Measurements
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.doIngest(c, id, m)
}

func (s *Server) ingestReading(c *gin.Context) {
	var req struct {
		PondID uint `json:"pond_id" binding:"required"`
		ingest.Measurements
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.doIngest(c, req.PondID, req.Measurements)
}

func (s *Server) doIngest(c *gin.Context, pondID uint, m ingest.Measurements) {
	if err := m.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.ingest.Ingest(pondID, m)
	if err != nil {
		if errors.Is(err, ingest.ErrPondNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Pond not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) latestReading(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	var reading models.SensorReading
	err := s.db.Where("pond_id = ?", id).Order("created_at desc").First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no readings for pond"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reading"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reading": reading,
		"status":  risk.StatusFromHealth(reading.HealthScore),
	})
}

func (s *Server) pondHealth(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	var reading models.SensorReading
	err := s.db.Where("pond_id = ?", id).Order("created_at desc").First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no readings for pond"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch reading"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"health_score": reading.HealthScore,
		"do_risk":      reading.DORisk,
		"nh3_risk":     reading.NH3Risk,
		"status":       risk.StatusFromHealth(reading.HealthScore),
	})
}

func (s *Server) timeseries(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	rangeHours := 24
	if v := c.Query("range_hours"); v != "" {
		if h, err := strconv.Atoi(v); err == nil && h > 0 {
			rangeHours = h
		}
	}
	limit := 500
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}

	since := time.Now().UTC().Add(-time.Duration(rangeHours) * time.Hour)
	var readings []models.SensorReading
	err := s.db.Where("pond_id = ? AND created_at >= ?", id, since).
		Order("created_at desc").
		Limit(limit).
		Find(&readings).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch readings"})
		return
	}

	// Oldest first for charting
	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}
	c.JSON(http.StatusOK, readings)
}

func (s *Server) listAlerts(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	includeResolved := c.Query("include_resolved") == "true"
	limit := 0
	if v := c.Query("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}

	alerts, err := s.alerts.List(id, includeResolved, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) resolveAlert(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert ID"})
		return
	}

	resolved, err := s.alerts.Resolve(uint(id))
	if err != nil {
		if errors.Is(err, alert.ErrAlertNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, resolved)
}

func (s *Server) pondForecast(c *gin.Context) {
	id, ok := pondIDParam(c, "id")
	if !ok {
		return
	}

	opts := forecast.Options{}
	if v := c.Query("hours"); v != "" {
		if h, err := strconv.Atoi(v); err == nil {
			opts.Hours = h
		}
	}
	if v := c.Query("step_minutes"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			opts.StepMinutes = m
		}
	}

	fc, err := forecast.Build(s.db, id, opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, fc)
}

func (s *Server) simStatus(c *gin.Context) {
	id, ok := pondIDParam(c, "pond_id")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"pond_id": id, "running": s.sim.Status(id)})
}

func (s *Server) simStart(c *gin.Context) {
	id, ok := pondIDParam(c, "pond_id")
	if !ok {
		return
	}

	var pond models.Pond
	if err := s.db.First(&pond, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Pond not found"})
		return
	}

	intervalSec := 5
	if v := c.Query("interval_sec"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			intervalSec = n
		}
	}
	incident := true
	if v := c.Query("incident_mode"); v != "" {
		incident = v == "true" || v == "1"
	}

	started := s.sim.Start(id, time.Duration(intervalSec)*time.Second, incident)
	c.JSON(http.StatusOK, gin.H{"pond_id": id, "running": s.sim.Status(id), "started": started})
}

func (s *Server) simStop(c *gin.Context) {
	id, ok := pondIDParam(c, "pond_id")
	if !ok {
		return
	}

	stopped := s.sim.Stop(id)
	c.JSON(http.StatusOK, gin.H{"pond_id": id, "running": s.sim.Status(id), "stopped": stopped})
}
