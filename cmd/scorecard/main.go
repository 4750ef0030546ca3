// Package main provides the scorecard command line tool. It computes
// scorecards from snapshot files offline, lists trend buckets, generates
// synthetic snapshots and seeds the postgres source.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/scorecard/pkg/logger"
)

const (
	Version = "0.1.0"
	appName = "scorecard"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globals are flags shared by every subcommand.
type globals struct {
	timezone  string
	logLevel  string
	logFormat string
}

func (g *globals) location() (*time.Location, error) {
	loc, err := time.LoadLocation(g.timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", g.timezone, err)
	}
	return loc, nil
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Performance scorecards from task snapshots",
		Long: `scorecard computes per-user performance scorecards from delegations,
checklist items and order pipeline steps.

It works on JSON or YAML snapshot files, so results can be inspected
without running the server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), logger.Format(g.logFormat)); err != nil {
				return err
			}
			return logger.SetLevelString(g.logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&g.timezone, "timezone", "UTC", "IANA timezone used to read dates")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")

	cmd.AddCommand(
		reportCmd(g),
		periodsCmd(g),
		generateCmd(g),
		seedCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}
