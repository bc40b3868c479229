// Package feed turns location fix payloads into points for the index.
package feed

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/1F47E/geo-explored/pkg/metrics"
	"github.com/1F47E/geo-explored/pkg/models"
)

// Handler receives decoded fixes, in order
type Handler func(models.GeoPoint)

// ErrBadFix is returned for payloads that are not a fix
var ErrBadFix = errors.New("bad fix payload")

const maxLineSize = 1 << 20

// fix mirrors models.GeoPoint with required coordinates
type fix struct {
	Lat        *float64  `json:"lat"`
	Lon        *float64  `json:"lon"`
	Accuracy   float64   `json:"accuracy"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DecodeFix parses one JSON fix. Range checks are left to the index.
func DecodeFix(data []byte) (models.GeoPoint, error) {
	var f fix
	if err := json.Unmarshal(data, &f); err != nil {
		return models.GeoPoint{}, fmt.Errorf("%w: %w", ErrBadFix, err)
	}
	if f.Lat == nil || f.Lon == nil {
		return models.GeoPoint{}, fmt.Errorf("%w: lat and lon are required", ErrBadFix)
	}
	return models.GeoPoint{
		Lat:        *f.Lat,
		Lon:        *f.Lon,
		Accuracy:   f.Accuracy,
		RecordedAt: f.RecordedAt,
	}, nil
}

// DecodeFixes parses either a single fix object or an array of fixes
func DecodeFixes(data []byte) ([]models.GeoPoint, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		p, err := DecodeFix(data)
		if err != nil {
			return nil, err
		}
		return []models.GeoPoint{p}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFix, err)
	}
	points := make([]models.GeoPoint, 0, len(raw))
	for i, r := range raw {
		p, err := DecodeFix(r)
		if err != nil {
			return nil, fmt.Errorf("fix %d: %w", i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// ReadStats counts what ReadLines saw
type ReadStats struct {
	Lines   int
	Decoded int
	Failed  int
}

// ReadLines reads newline-delimited JSON fixes from r and passes each one to
// h. Blank lines are ignored and undecodable lines are counted and skipped.
// It stops at EOF, on a read error or when ctx is done.
func ReadLines(ctx context.Context, r io.Reader, h Handler) (ReadStats, error) {
	var stats ReadStats

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		stats.Lines++

		p, err := DecodeFix(line)
		if err != nil {
			stats.Failed++
			metrics.FixDecodeErrors.WithLabelValues("reader").Inc()
			continue
		}
		stats.Decoded++
		metrics.FixesReceived.WithLabelValues("reader").Inc()
		h(p)
	}
	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read fixes: %w", err)
	}
	return stats, nil
}
