package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1F47E/geo-explored/pkg/codec"
	"github.com/1F47E/geo-explored/pkg/explored"
	"github.com/spf13/cobra"
)

var importFormat string

var importCmd = &cobra.Command{
	Use:   "import [file...]",
	Short: "Import fixes from files or stdin",
	Long: `Insert fixes into the index and flush them to the store. Points equivalent
to already explored ones, including stored ones, are skipped. Use "-" or no
arguments to read newline-delimited JSON from stdin.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFormat, "format", "F", "", "Input format: json|jsonl|yaml|geojson (default from file extension)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}

	if err := a.index.Hydrate(ctx); err != nil {
		a.store.Close()
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	start := time.Now()
	var total explored.BatchResult
	for _, path := range args {
		res, err := importFile(cmd, a, path)
		if err != nil {
			a.close(ctx)
			return err
		}
		total.Added += res.Added
		total.AlreadyExplored += res.AlreadyExplored
		total.Rejected += res.Rejected

		a.log.Info().
			Str("file", path).
			Int("added", res.Added).
			Int("already_explored", res.AlreadyExplored).
			Int("rejected", res.Rejected).
			Msg("imported")
	}

	if err := a.close(ctx); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), summary("Import complete", [][2]string{
		{"Files", count(len(args))},
		{"Added", count(total.Added)},
		{"Already explored", count(total.AlreadyExplored)},
		{"Rejected", count(total.Rejected)},
		{"Took", time.Since(start).Round(time.Millisecond).String()},
	}))
	return nil
}

func importFile(cmd *cobra.Command, a *app, path string) (explored.BatchResult, error) {
	var (
		r      io.Reader
		format = importFormat
	)
	if path == "-" {
		r = cmd.InOrStdin()
		if format == "" {
			format = codec.FormatJSONL
		}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return explored.BatchResult{}, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
		if format == "" {
			format = codec.FormatFromPath(path)
		}
	}

	points, err := codec.Decode(cmd.Context(), r, format)
	if err != nil && len(points) == 0 {
		return explored.BatchResult{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err != nil {
		a.log.Warn().Err(err).Str("file", path).Msg("some fixes could not be decoded")
	}
	return a.index.InsertBatch(points), nil
}
