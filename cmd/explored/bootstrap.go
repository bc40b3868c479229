package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/1F47E/geo-explored/pkg/config"
	"github.com/1F47E/geo-explored/pkg/explored"
	"github.com/1F47E/geo-explored/pkg/logging"
	"github.com/1F47E/geo-explored/pkg/store"
	"github.com/rs/zerolog"
)

// app bundles what every command needs
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store store.Store
	index *explored.Index
}

func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	log := logging.Setup(level, cfg.Log.Format)

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}

	set, err := explored.NewSet(cfg.Index.Backend)
	if err != nil {
		st.Close()
		return nil, err
	}

	index := explored.New(st,
		explored.WithSet(set),
		explored.WithFlushInterval(cfg.Flush.Interval),
		explored.WithLogger(log),
	)

	log.Debug().
		Str("store", cfg.Store.Driver).
		Str("backend", cfg.Index.Backend).
		Dur("flush_interval", cfg.Flush.Interval).
		Msg("index ready")

	return &app{cfg: cfg, log: log, store: st, index: index}, nil
}

// close flushes the index and releases the store
func (a *app) close(ctx context.Context) error {
	return errors.Join(a.index.Shutdown(ctx), a.store.Close())
}
