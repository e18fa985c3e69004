package risk

import (
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/models"
)

type Status string

const (
	StatusGood     Status = "GOOD"
	StatusWatch    Status = "WATCH"
	StatusCritical Status = "CRITICAL"
)

// Message is an alert candidate emitted by the evaluator.
type Message struct {
	Severity models.Severity
	Text     string
}

// Assessment holds the derived scores for one reading. All scores
// are clamped to [0,100]; higher HealthScore is healthier.
type Assessment struct {
	HealthScore float64
	DORisk      float64
	NH3Risk     float64
	NH3Proxy    float64
	Messages    []Message
}

// Evaluate scores a single reading. It is deterministic and has no
// side effects; callers are responsible for physically plausible
// input ranges.
func Evaluate(do, temp, ammonia, ph float64) Assessment {
	var doRisk float64
	if do < 5.0 {
		// Sharper penalty as oxygen falls below 5 mg/L
		doRisk = clamp((5.0-do)/1.5*60.0, 0, 100)
	}

	// Heuristic interaction proxy for un-ionized ammonia stress:
	// ammonia toxicity rises with pH and temperature.
	nh3Proxy := ammonia * (1 + (ph-7.0)*0.35) * (1 + (temp-28.0)*0.04)
	if nh3Proxy < 0 {
		nh3Proxy = 0
	}
	nh3Risk := clamp(nh3Proxy*40.0, 0, 100)

	health := clamp(100-(0.6*doRisk+0.4*nh3Risk), 0, 100)

	var messages []Message
	if do < 3.5 {
		messages = append(messages, Message{models.SeverityHigh, "Critical: Dissolved Oxygen dangerously low"})
	} else if do < 4.5 {
		messages = append(messages, Message{models.SeverityMedium, "Warning: Dissolved Oxygen low"})
	}
	if nh3Proxy > 0.8 {
		messages = append(messages, Message{models.SeverityHigh, "Critical: Ammonia stress risk high"})
	} else if nh3Proxy > 0.4 {
		messages = append(messages, Message{models.SeverityMedium, "Warning: Ammonia stress risk rising"})
	}

	return Assessment{
		HealthScore: health,
		DORisk:      doRisk,
		NH3Risk:     nh3Risk,
		NH3Proxy:    nh3Proxy,
		Messages:    messages,
	}
}

// StatusFromHealth buckets a health score into the three ordinal
// categories: GOOD > WATCH > CRITICAL.
func StatusFromHealth(score float64) Status {
	switch {
	case score >= 75:
		return StatusGood
	case score >= 50:
		return StatusWatch
	default:
		return StatusCritical
	}
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
