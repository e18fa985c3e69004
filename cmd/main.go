package main

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/alert"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/api"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/config"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/database"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/ingest"
	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/sim"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if err := database.SeedPonds(db); err != nil {
		log.Printf("Warning: failed to seed ponds: %v", err)
	}

	alertManager := alert.NewManager(db)
	ingestSvc := ingest.NewService(db, alertManager)
	runner := sim.NewRunner(ingestSvc)

	// Nightly retention sweep keeps the append-only tables bounded
	c := cron.New()
	_, err = c.AddFunc("@daily", func() {
		readingAge := time.Duration(cfg.Retention.ReadingDays) * 24 * time.Hour
		if n, err := database.PruneReadings(db, readingAge); err != nil {
			log.Printf("retention: failed to prune readings: %v", err)
		} else if n > 0 {
			log.Printf("retention: pruned %d readings", n)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule retention sweep: %v", err)
	}
	c.Start()
	defer c.Stop()

	server := api.NewServer(db, ingestSvc, alertManager, runner, cfg.Server.CORSOrigins)
	if err := server.Start(cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
