package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func NewForecastCommand() *cobra.Command {
	var (
		hours       int
		stepMinutes int
	)

	cmd := &cobra.Command{
		Use:   "forecast [pond_id]",
		Short: "Show the trend forecast for a pond",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			fc, err := newAPIClient().Forecast(id, hours, stepMinutes)
			if err != nil {
				return fmt.Errorf("failed to fetch forecast: %w", err)
			}

			if len(fc.Points) == 0 {
				fmt.Println(fc.Summary.Message)
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "TIME\tDO\tNH3\tTEMP\tPH\tHEALTH\tSTATUS")
			for _, p := range fc.Points {
				fmt.Fprintf(w, "%s\t%.2f\t%.3f\t%.1f\t%.2f\t%.1f\t%s\n",
					p.T.Format(time.RFC3339), p.DissolvedOxygen, p.Ammonia,
					p.Temperature, p.PH, p.HealthScore, p.Status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			fmt.Printf("\nhours at status: critical=%.1f watch=%.1f good=%.1f\n",
				fc.Summary.CriticalHours, fc.Summary.WatchHours, fc.Summary.GoodHours)
			fmt.Printf("slopes per hour: do=%.4f nh3=%.5f temp=%.4f ph=%.5f\n",
				fc.Summary.DOSlopePerHour, fc.Summary.NH3SlopePerHour,
				fc.Summary.TempSlopePerHour, fc.Summary.PHSlopePerHour)
			return nil
		},
	}

	cmd.Flags().IntVar(&hours, "hours", 24, "Forecast horizon in hours")
	cmd.Flags().IntVar(&stepMinutes, "step", 60, "Step size in minutes")

	return cmd
}
