package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/1F47E/geo-explored/pkg/codec"
	"github.com/1F47E/geo-explored/pkg/config"
	"github.com/1F47E/geo-explored/pkg/feed/natsfeed"
	"github.com/1F47E/geo-explored/pkg/logging"
	"github.com/spf13/cobra"
)

var (
	publishDevice string
	publishFormat string
	publishBatch  int
	publishDelay  time.Duration
)

var publishCmd = &cobra.Command{
	Use:   "publish [file]",
	Short: "Publish fixes to the NATS feed",
	Long:  `Replay fixes from a file or stdin onto the configured NATS subject, as a device would.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVarP(&publishDevice, "device", "d", "cli", "Device name, appended to the subject")
	publishCmd.Flags().StringVarP(&publishFormat, "format", "F", "", "Input format: json|jsonl|yaml|geojson (default from file extension)")
	publishCmd.Flags().IntVar(&publishBatch, "batch", 1, "Fixes per message")
	publishCmd.Flags().DurationVar(&publishDelay, "delay", 0, "Pause between messages")
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	var (
		r      io.Reader = cmd.InOrStdin()
		format           = publishFormat
	)
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
		if format == "" {
			format = codec.FormatFromPath(args[0])
		}
	}
	if format == "" {
		format = codec.FormatJSONL
	}

	points, err := codec.Decode(cmd.Context(), r, format)
	if err != nil && len(points) == 0 {
		return err
	}

	conn, err := natsfeed.Connect(cfg.Feed.NATSURL)
	if err != nil {
		return err
	}
	pub := natsfeed.NewPublisher(conn, cfg.Feed.Subject)
	defer pub.Close()

	batch := max(publishBatch, 1)
	messages := 0
	for start := 0; start < len(points); start += batch {
		end := min(start+batch, len(points))
		if err := pub.Publish(publishDevice, points[start:end]...); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
		messages++
		if publishDelay > 0 {
			time.Sleep(publishDelay)
		}
	}
	if err := pub.Flush(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	log.Info().
		Str("subject", pub.Subject(publishDevice)).
		Int("fixes", len(points)).
		Int("messages", messages).
		Msg("published")
	return nil
}
