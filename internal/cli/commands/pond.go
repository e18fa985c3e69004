package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssaatdesigns-web/aquahealthos-demo/internal/api/client"
)

var apiURL string

// RegisterGlobalFlags wires the flags shared by every command.
func RegisterGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL (default $API_BASE_URL or http://localhost:8080)")
}

func newAPIClient() *client.Client {
	return client.NewClient(apiURL)
}

func NewPondCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pond",
		Short:   "Pond commands",
		Aliases: []string{"ponds", "p"},
	}

	cmd.AddCommand(newPondListCommand())
	cmd.AddCommand(newPondHealthCommand())

	return cmd
}

func newPondListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List ponds",
		Aliases: []string{"ls"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ponds, err := newAPIClient().ListPonds()
			if err != nil {
				return fmt.Errorf("failed to list ponds: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSPECIES\tCREATED")
			for _, p := range ponds {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					p.ID, p.Name, p.Species, p.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}
}

func newPondHealthCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "health [pond_id]",
		Short: "Show a pond's latest health assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePondID(args[0])
			if err != nil {
				return err
			}

			health, err := newAPIClient().PondHealth(id)
			if err != nil {
				return fmt.Errorf("failed to fetch pond health: %w", err)
			}

			fmt.Printf("Health score: %v\n", health["health_score"])
			fmt.Printf("DO risk:      %v\n", health["do_risk"])
			fmt.Printf("NH3 risk:     %v\n", health["nh3_risk"])
			fmt.Printf("Status:       %v\n", health["status"])
			return nil
		},
	}
}

func parsePondID(arg string) (uint, error) {
	var id uint
	if _, err := fmt.Sscanf(arg, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid pond id %q", arg)
	}
	return id, nil
}
