package main

import (
	"fmt"
	"os"

	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	queryBBox  string
	queryLat   float64
	queryLon   float64
	queryLimit int
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query explored points",
	Long: `List explored points inside --bbox, or with --lat and --lon check whether
that spot has already been explored.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryBBox, "bbox", "", "Viewport as south,west,north,east")
	queryCmd.Flags().Float64Var(&queryLat, "lat", 0, "Latitude to check")
	queryCmd.Flags().Float64Var(&queryLon, "lon", 0, "Longitude to check")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", 20, "Maximum points to print")
	queryCmd.MarkFlagsRequiredTogether("lat", "lon")
	queryCmd.MarkFlagsMutuallyExclusive("bbox", "lat")
	queryCmd.MarkFlagsOneRequired("bbox", "lat")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	out := cmd.OutOrStdout()

	if queryBBox == "" {
		p := models.NewGeoPoint(queryLat, queryLon)
		seen, err := a.index.IsExplored(ctx, p)
		if err != nil {
			return err
		}
		answer := errorStyle.Render("not explored")
		if seen {
			answer = successStyle.Render("explored")
		}
		fmt.Fprintf(out, "(%.6f, %.6f) %s\n", p.Lat, p.Lon, answer)
		return nil
	}

	box, err := parseBBox(queryBBox)
	if err != nil {
		return err
	}
	points, err := a.index.Query(ctx, box)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%d explored points in %s", len(points), box)))
	for i, p := range points {
		if i == queryLimit {
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("... %d more", len(points)-queryLimit)))
			break
		}
		fmt.Fprintln(out, formatPoint(p))
	}
	return nil
}

func formatPoint(p models.GeoPoint) string {
	line := fmt.Sprintf("%11.6f %11.6f", p.Lat, p.Lon)
	var extra string
	if p.Accuracy > 0 {
		extra += fmt.Sprintf("  ±%.1fm", p.Accuracy)
	}
	if !p.RecordedAt.IsZero() {
		extra += "  " + p.RecordedAt.Format("2006-01-02 15:04:05")
	}
	if extra == "" || !isTerminal(os.Stdout) {
		return line + extra
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, line, dimStyle.Render(extra))
}
