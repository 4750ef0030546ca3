package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scorecard/internal/adapters/repository"
	"github.com/okian/scorecard/internal/domain/dates"
	"github.com/okian/scorecard/internal/fixtures"
)

func generateCmd(g *globals) *cobra.Command {
	var out, end string
	cfg := fixtures.Config{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic snapshot",
		Long: `generate writes a deterministic synthetic snapshot. The same seed and
sizes always produce the same file. Use "-" to print JSON to stdout.`,
		Example: `  scorecard generate --out snapshot.yaml --users 20 --seed 42`,
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := g.location()
			if err != nil {
				return err
			}
			cfg.Location = loc
			if end != "" {
				t, ok := dates.ParseDateString(loc)(end)
				if !ok {
					return fmt.Errorf("--end %q is not a date", end)
				}
				cfg.End = t
			} else {
				cfg.End = time.Now().In(loc)
			}

			snap, err := fixtures.Generate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if out == "-" {
				data, err := repository.Encode(snap, "snapshot.json")
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := repository.Save(out, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s: %d users, %d delegations, %d checklist items, %d orders\n",
				out, len(snap.Users), len(snap.Delegations), len(snap.Checklists), len(snap.Orders))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "snapshot.json", "Output file (.json, .yaml) or - for stdout")
	cmd.Flags().StringVar(&end, "end", "", "Last day covered (default today)")
	cmd.Flags().Uint64Var(&cfg.Seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&cfg.Days, "days", fixtures.DefaultDays, "Days of history")
	cmd.Flags().IntVar(&cfg.Users, "users", fixtures.DefaultUsers, "Number of users")
	cmd.Flags().IntVar(&cfg.Delegations, "delegations", fixtures.DefaultDelegations, "Delegations per user")
	cmd.Flags().IntVar(&cfg.Checklists, "checklists", fixtures.DefaultChecklists, "Checklist items per user")
	cmd.Flags().IntVar(&cfg.Orders, "orders", fixtures.DefaultOrders, "Number of orders")
	cmd.Flags().IntVar(&cfg.ItemsPerOrder, "items", fixtures.DefaultItemsPerOrder, "Items per order")
	cmd.Flags().IntVar(&cfg.Steps, "steps", fixtures.DefaultSteps, "Pipeline steps")
	return cmd
}
