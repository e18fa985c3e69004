package commands

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/sim"
)

func NewSimCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Server-side simulator control",
	}

	cmd.AddCommand(newSimStatusCommand())
	cmd.AddCommand(newSimStartCommand())
	cmd.AddCommand(newSimStopCommand())

	return cmd
}

func newSimStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status [pond_id]",
		Short: "Show whether a pond is simulating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			state, err := newAPIClient().SimStatus(id)
			if err != nil {
				return fmt.Errorf("failed to get sim status: %w", err)
			}
			fmt.Printf("Pond %d running: %t\n", state.PondID, state.Running)
			return nil
		},
	}
}

func newSimStartCommand() *cobra.Command {
	var (
		intervalSec int
		incident    bool
	)

	cmd := &cobra.Command{
		Use:   "start [pond_id]",
		Short: "Start the in-process simulator for a pond",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			state, err := newAPIClient().SimStart(id, intervalSec, incident)
			if err != nil {
				return fmt.Errorf("failed to start simulation: %w", err)
			}
			if !state.Started {
				fmt.Printf("Pond %d is already simulating\n", state.PondID)
				return nil
			}
			fmt.Printf("Simulation started for pond %d\n", state.PondID)
			return nil
		},
	}

	cmd.Flags().IntVar(&intervalSec, "interval", 5, "Seconds between synthetic readings")
	cmd.Flags().BoolVar(&incident, "incident", true, "Script a gradual DO drop and ammonia rise")

	return cmd
}

func newSimStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop [pond_id]",
		Short: "Stop the simulator for a pond",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			state, err := newAPIClient().SimStop(id)
			if err != nil {
				return fmt.Errorf("failed to stop simulation: %w", err)
			}
			if !state.Stopped {
				fmt.Printf("Pond %d was not simulating\n", state.PondID)
				return nil
			}
			fmt.Printf("Simulation stopped for pond %d\n", state.PondID)
			return nil
		},
	}
}

// NewSimulateCommand is the external simulator variant: it generates
// readings locally and POSTs them through the ingest endpoint at a
// fixed interval until interrupted.
func NewSimulateCommand() *cobra.Command {
	var (
		pondID      uint
		intervalSec int
		incident    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run an external simulator client against the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()
			gen := sim.NewGenerator(incident, time.Now().UnixNano())

			ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
			defer ticker.Stop()

			log.Printf("simulating pond %d every %ds (incident=%t)", pondID, intervalSec, incident)
			for {
				result, err := c.IngestReading(pondID, gen.Next())
				if err != nil {
					// Single-iteration failures are non-fatal
					log.Printf("ingest error: %v", err)
				} else {
					log.Printf("ingest: reading=%d health=%.2f status=%s",
						result.ReadingID, result.HealthScore, result.Status)
				}
				<-ticker.C
			}
		},
	}

	// Flag defaults follow the environment (POND_ID, INTERVAL_SEC,
	// INCIDENT_MODE) so the command can run unattended from a .env.
	cmd.Flags().UintVar(&pondID, "pond", uintEnv("POND_ID", 1), "Pond to feed")
	cmd.Flags().IntVar(&intervalSec, "interval", intEnv("INTERVAL_SEC", 5), "Seconds between readings")
	cmd.Flags().BoolVar(&incident, "incident", os.Getenv("INCIDENT_MODE") != "0", "Script a gradual DO drop and ammonia rise")

	return cmd
}

func uintEnv(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
