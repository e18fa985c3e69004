package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func NewAlertCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alert",
		Short:   "Alert management commands",
		Aliases: []string{"alerts", "a"},
	}

	cmd.AddCommand(newAlertListCommand())
	cmd.AddCommand(newAlertResolveCommand())

	return cmd
}

func newAlertListCommand() *cobra.Command {
	var (
		includeResolved bool
		limit           int
	)

	cmd := &cobra.Command{
		Use:     "list [pond_id]",
		Short:   "List a pond's alerts, newest first",
		Aliases: []string{"ls"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			alerts, err := newAPIClient().ListAlerts(id, includeResolved, limit)
			if err != nil {
				return fmt.Errorf("failed to list alerts: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tSEVERITY\tMESSAGE\tRESOLVED\tCREATED")
			for _, a := range alerts {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n",
					a.ID, a.Severity, a.Message, a.Resolved,
					a.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&includeResolved, "include-resolved", false, "Include resolved alerts")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of alerts to show")

	return cmd
}

func newAlertResolveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [alert_id]",
		Short: "Resolve an alert (no-op if already resolved)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return fmt.Errorf("invalid alert id %q", args[0])
			}

			resolved, err := newAPIClient().ResolveAlert(id)
			if err != nil {
				return fmt.Errorf("failed to resolve alert: %w", err)
			}

			fmt.Printf("Alert %d resolved (resolved_at: %s)\n", resolved.ID,
				resolved.ResolvedAt.Format(time.RFC3339))
			return nil
		},
	}
}
