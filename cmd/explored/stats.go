package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index and store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := setup(ctx)
		if err != nil {
			return err
		}
		defer a.close(ctx)

		if err := a.index.Hydrate(ctx); err != nil {
			return err
		}
		stats := a.index.Stats()

		fmt.Fprintln(cmd.OutOrStdout(), summary("Explored index", [][2]string{
			{"Store", a.cfg.Store.Driver},
			{"Backend", a.cfg.Index.Backend},
			{"Points", count(stats.Points)},
			{"Pending", count(stats.Pending)},
			{"Flush interval", a.cfg.Flush.Interval.String()},
		}))
		return nil
	},
}
