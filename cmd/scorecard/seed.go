package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/scorecard/internal/adapters/repository"
	"github.com/okian/scorecard/internal/config"
)

func seedCmd(_ *globals) *cobra.Command {
	var snapshot, url, schema string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a snapshot file into postgres",
		Long: `seed creates the scorecard tables if needed and replaces their
contents with the given snapshot.`,
		Example: `  scorecard seed --snapshot snapshot.yaml --database-url postgres://localhost/scorecard`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if url == "" {
				url = os.Getenv(config.EnvPrefix + "DATABASE_URL")
			}
			if url == "" {
				return fmt.Errorf("--database-url or %sDATABASE_URL is required", config.EnvPrefix)
			}

			snap, err := repository.NewFileSource(snapshot).Load(ctx)
			if err != nil {
				return err
			}
			pg, err := repository.NewPostgresSource(ctx, url, repository.WithSchema(schema))
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := pg.EnsureSchema(ctx); err != nil {
				return err
			}
			if err := pg.Replace(ctx, snap); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s: %d users, %d orders\n", schema, len(snap.Users), len(snap.Orders))
			return nil
		},
	}
	cmd.Flags().StringVarP(&snapshot, "snapshot", "s", "", "Snapshot file (JSON or YAML)")
	cmd.Flags().StringVar(&url, "database-url", "", "Postgres connection URL")
	cmd.Flags().StringVar(&schema, "schema", "public", "Postgres schema")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}
