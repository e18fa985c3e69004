package forecast

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/risk"
)

// Slope damping factors. DO and ammonia carry most of the fitted
// trend; temperature and pH are kept near their recent values to
// avoid runaway extrapolation.
const (
	doDamping   = 0.7
	nh3Damping  = 0.7
	tempDamping = 0.3
	phDamping   = 0.2
)

// Plausibility clamps for projected values.
const (
	doMin, doMax     = 0.2, 12.0
	nh3Min, nh3Max   = 0.0, 3.0
	tempMin, tempMax = 10.0, 40.0
	phMin, phMax     = 6.0, 9.5
)

type Options struct {
	Hours         int
	StepMinutes   int
	LookbackHours int
	MaxPoints     int
}

func (o *Options) applyDefaults() {
	if o.Hours <= 0 {
		o.Hours = 24
	}
	if o.Hours > 168 {
		o.Hours = 168
	}
	if o.StepMinutes <= 0 {
		o.StepMinutes = 60
	}
	if o.StepMinutes > 240 {
		o.StepMinutes = 240
	}
	if o.LookbackHours <= 0 {
		o.LookbackHours = 6
	}
	if o.MaxPoints <= 0 {
		o.MaxPoints = 360
	}
}

// Point is one projected future sample with its re-derived scores.
type Point struct {
	T               time.Time   `json:"t"`
	DissolvedOxygen float64     `json:"dissolved_oxygen"`
	Ammonia         float64     `json:"ammonia"`
	Temperature     float64     `json:"temperature"`
	PH              float64     `json:"ph"`
	HealthScore     float64     `json:"health_score"`
	DORisk          float64     `json:"do_risk"`
	NH3Risk         float64     `json:"nh3_risk"`
	Status          risk.Status `json:"status"`
}

type Summary struct {
	Message          string  `json:"message,omitempty"`
	CriticalHours    float64 `json:"critical_hours"`
	WatchHours       float64 `json:"watch_hours"`
	GoodHours        float64 `json:"good_hours"`
	DOSlopePerHour   float64 `json:"do_slope_per_hour"`
	NH3SlopePerHour  float64 `json:"nh3_slope_per_hour"`
	TempSlopePerHour float64 `json:"temp_slope_per_hour"`
	PHSlopePerHour   float64 `json:"ph_slope_per_hour"`
}

type Forecast struct {
	PondID      uint      `json:"pond_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Hours       int       `json:"hours"`
	StepMinutes int       `json:"step_minutes"`
	Points      []Point   `json:"points"`
	Summary     Summary   `json:"summary"`
}

// Build extrapolates recent per-metric trends for a pond. It is pure
// trend projection: no confidence intervals, no seasonality.
func Build(db *gorm.DB, pondID uint, opts Options) (*Forecast, error) {
	opts.applyDefaults()
	now := time.Now().UTC()
	since := now.Add(-time.Duration(opts.LookbackHours) * time.Hour)

	var rows []models.SensorReading
	err := db.Where("pond_id = ? AND created_at >= ?", pondID, since).
		Order("created_at desc").
		Limit(opts.MaxPoints).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch readings: %w", err)
	}

	fc := &Forecast{
		PondID:      pondID,
		GeneratedAt: now,
		Hours:       opts.Hours,
		StepMinutes: opts.StepMinutes,
		Points:      []Point{},
	}

	// Empty history is a defined terminal case, not an error.
	if len(rows) == 0 {
		fc.Summary.Message = "No readings available yet. Start simulation to generate forecast."
		return fc, nil
	}

	// Oldest first for the fit
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}

	t0 := rows[0].CreatedAt
	xs := make([]float64, len(rows))
	doYs := make([]float64, len(rows))
	nh3Ys := make([]float64, len(rows))
	tempYs := make([]float64, len(rows))
	phYs := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = r.CreatedAt.Sub(t0).Minutes()
		doYs[i] = r.DissolvedOxygen
		nh3Ys[i] = r.Ammonia
		tempYs[i] = r.Temperature
		phYs[i] = r.PH
	}

	doSlope := olsSlope(xs, doYs) * doDamping
	nh3Slope := olsSlope(xs, nh3Ys) * nh3Damping
	tempSlope := olsSlope(xs, tempYs) * tempDamping
	phSlope := olsSlope(xs, phYs) * phDamping

	last := rows[len(rows)-1]
	steps := (opts.Hours * 60) / opts.StepMinutes
	stepHours := float64(opts.StepMinutes) / 60.0

	var criticalHours, watchHours, goodHours float64
	for i := 1; i <= steps; i++ {
		minutesAhead := float64(i * opts.StepMinutes)

		predDO := clamp(last.DissolvedOxygen+doSlope*minutesAhead, doMin, doMax)
		predNH3 := clamp(last.Ammonia+nh3Slope*minutesAhead, nh3Min, nh3Max)
		predTemp := clamp(last.Temperature+tempSlope*minutesAhead, tempMin, tempMax)
		predPH := clamp(last.PH+phSlope*minutesAhead, phMin, phMax)

		assessment := risk.Evaluate(predDO, predTemp, predNH3, predPH)
		status := risk.StatusFromHealth(assessment.HealthScore)

		switch status {
		case risk.StatusCritical:
			criticalHours += stepHours
		case risk.StatusWatch:
			watchHours += stepHours
		default:
			goodHours += stepHours
		}

		fc.Points = append(fc.Points, Point{
			T:               now.Add(time.Duration(minutesAhead) * time.Minute),
			DissolvedOxygen: round(predDO, 3),
			Ammonia:         round(predNH3, 4),
			Temperature:     round(predTemp, 2),
			PH:              round(predPH, 2),
			HealthScore:     round(assessment.HealthScore, 2),
			DORisk:          round(assessment.DORisk, 2),
			NH3Risk:         round(assessment.NH3Risk, 2),
			Status:          status,
		})
	}

	fc.Summary = Summary{
		CriticalHours:    round(criticalHours, 1),
		WatchHours:       round(watchHours, 1),
		GoodHours:        round(goodHours, 1),
		DOSlopePerHour:   round(doSlope*60.0, 4),
		NH3SlopePerHour:  round(nh3Slope*60.0, 5),
		TempSlopePerHour: round(tempSlope*60.0, 4),
		PHSlopePerHour:   round(phSlope*60.0, 5),
	}
	return fc, nil
}

// olsSlope returns the ordinary-least-squares slope of y against x.
// Fewer than two points or zero x-variance yields 0 (degenerate fit).
func olsSlope(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var xMean, yMean float64
	for i := 0; i < n; i++ {
		xMean += xs[i]
		yMean += ys[i]
	}
	xMean /= float64(n)
	yMean /= float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		num += (xs[i] - xMean) * (ys[i] - yMean)
		den += (xs[i] - xMean) * (xs[i] - xMean)
	}
	if den == 0 {
		return 0
	}
	return num / den
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func round(x float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(x*pow) / pow
}
