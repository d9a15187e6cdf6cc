package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	service "github.com/okian/teamsite/internal/app"
	"github.com/okian/teamsite/internal/domain/sponsors"
)

// errSyncDisabled is returned by sync when no results API is configured.
var errSyncDisabled = errors.New("results sync is not configured; set TEAMSITE_RESULTS_API_KEY and TEAMSITE_TEAM_KEY")

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.open(cmd, true)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "migrated %s store\n", s.cfg.DatabaseDriver)
			return err
		},
	}
}

func newSyncCmd(e *env) *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import one season's events and awards from the results API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.open(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()

			importer := e.newImporter(s.cfg, s.store, s.log)
			if importer == nil {
				return errSyncDisabled
			}
			if year == 0 {
				year = time.Now().Year()
			}

			report, err := importer.Sync(cmd.Context(), year)
			if err != nil {
				return fmt.Errorf("sync %d: %w", year, err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "season %d: %d events, %d awards in %s\n",
				report.Year, report.Events, report.Awards, report.Duration.Round(time.Millisecond))
			for _, key := range report.Failed {
				fmt.Fprintf(out, "  failed: %s\n", key)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Season to import (default: current year)")
	return cmd
}

func newAchievementsCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "achievements",
		Short: "Print the merged achievements list as the site shows it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := e.open(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()

			list, err := service.LoadAchievements(cmd.Context(), s.store)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(list)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "YEAR\tSOURCE\tDESCRIPTION\tID")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Year, r.Source, r.Description, r.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

func newClassifyCmd(e *env) *cobra.Command {
	var amount string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Show which sponsor tier a contribution amount falls into",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount %q: %w", amount, err)
			}

			s, err := e.open(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = s.store.Close() }()

			tiers, err := s.store.Tiers().List(cmd.Context())
			if err != nil {
				return err
			}
			sponsors.SortTiers(tiers)

			out := cmd.OutOrStdout()
			id := sponsors.Classify(value, tiers)
			if id == "" {
				_, err = fmt.Fprintf(out, "%s: unclassified\n", value)
				return err
			}
			for _, t := range tiers {
				if t.TierID == id {
					_, err = fmt.Fprintf(out, "%s: %s (%s)\n", value, t.Name, t.TierID)
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&amount, "amount", "", "Contribution amount, e.g. 1500 or 999.99")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}
