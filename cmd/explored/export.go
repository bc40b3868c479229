package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/1F47E/geo-explored/pkg/codec"
	"github.com/1F47E/geo-explored/pkg/models"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportBBox   string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export explored points",
	Long:  `Write explored points, all of them or those inside --bbox, as JSON, JSON lines, YAML or GeoJSON.`,
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "F", "", "Output format: json|jsonl|yaml|geojson (default from --output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "-", "Output file, - for stdout")
	exportCmd.Flags().StringVar(&exportBBox, "bbox", "", "Only points inside south,west,north,east")
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	var points []models.GeoPoint
	if exportBBox != "" {
		box, err := parseBBox(exportBBox)
		if err != nil {
			return err
		}
		points, err = a.index.Query(ctx, box)
		if err != nil {
			return err
		}
	} else {
		points, err = a.index.All(ctx)
		if err != nil {
			return err
		}
	}

	format := exportFormat
	if format == "" {
		format = codec.FormatJSON
		if exportOutput != "-" {
			format = codec.FormatFromPath(exportOutput)
		}
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "-" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}

	if err := codec.Encode(w, format, points); err != nil {
		return err
	}
	a.log.Info().Int("points", len(points)).Str("format", format).Str("output", exportOutput).Msg("exported")
	return nil
}

// parseBBox parses "south,west,north,east"
func parseBBox(s string) (models.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.BoundingBox{}, fmt.Errorf("%w: want south,west,north,east, got %q", models.ErrInvalidBoundingBox, s)
	}
	var edges [4]float64
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return models.BoundingBox{}, fmt.Errorf("%w: %q is not a number", models.ErrInvalidBoundingBox, part)
		}
		edges[i] = v
	}
	box := models.NewBoundingBox(edges[0], edges[1], edges[2], edges[3])
	return box, box.Validate()
}
