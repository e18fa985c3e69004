package sim

import (
	"math/rand"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
)

const (
	doBaseline      = 6.8
	ammoniaBaseline = 0.15
)

// Generator synthesizes plausible readings. In incident mode it
// scripts a gradual oxygen depletion and ammonia rise on top of the
// noise; otherwise values wander around the baselines.
type Generator struct {
	incident bool
	tick     int
	rng      *rand.Rand
}

func NewGenerator(incident bool, seed int64) *Generator {
	return &Generator{
		incident: incident,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Next produces the next synthetic reading.
func (g *Generator) Next() ingest.Measurements {
	g.tick++
	t := float64(g.tick)

	var do, ammonia float64
	if g.incident {
		do = doBaseline - t*0.03 + g.uniform(-0.15, 0.15)
		ammonia = ammoniaBaseline + t*0.003 + g.uniform(-0.02, 0.02)
	} else {
		do = doBaseline + g.uniform(-0.4, 0.4)
		ammonia = ammoniaBaseline + g.uniform(-0.05, 0.05)
	}

	return ingest.Measurements{
		DissolvedOxygen: clamp(do, 0.5, 12.0),
		Ammonia:         clamp(ammonia, 0.0, 2.0),
		Temperature:     clamp(29.0+g.uniform(-1.2, 1.2), 10.0, 40.0),
		PH:              clamp(7.6+g.uniform(-0.25, 0.25), 6.0, 9.5),
		Turbidity:       clamp(12.0+g.uniform(-3.0, 3.0), 0.0, 200.0),
	}
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
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
