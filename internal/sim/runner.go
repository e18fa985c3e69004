package sim

import (
	"log"
	"sync"
	"time"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
)

// Runner keeps at most one background simulation loop per pond. The
// mutex guards only the running set; database writes happen outside
// the lock.
type Runner struct {
	ingest *ingest.Service

	mu      sync.Mutex
	running map[uint]bool
}

func NewRunner(svc *ingest.Service) *Runner {
	return &Runner{
		ingest:  svc,
		running: make(map[uint]bool),
	}
}

// Start launches a simulation loop for the pond. Starting a pond
// that is already simulating is a no-op returning false.
func (r *Runner) Start(pondID uint, interval time.Duration, incident bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running[pondID] {
		return false
	}
	r.running[pondID] = true

	go r.loop(pondID, interval, incident)
	return true
}

// Stop asks the pond's loop to exit at its next iteration boundary.
// Stop is cooperative: in-flight writes always complete. Stopping a
// pond that is not simulating returns false.
func (r *Runner) Stop(pondID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running[pondID] {
		return false
	}
	r.running[pondID] = false
	return true
}

func (r *Runner) Status(pondID uint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running[pondID]
}

func (r *Runner) loop(pondID uint, interval time.Duration, incident bool) {
	if interval < time.Second {
		interval = time.Second
	}
	gen := NewGenerator(incident, time.Now().UnixNano())

	for {
		r.mu.Lock()
		running := r.running[pondID]
		r.mu.Unlock()
		if !running {
			return
		}

		if _, err := r.ingest.Ingest(pondID, gen.Next()); err != nil {
			// A failed iteration is not fatal to the simulation
			log.Printf("sim: ingest for pond %d failed: %v", pondID, err)
		}

		time.Sleep(interval)
	}
}
