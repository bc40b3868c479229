package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1F47E/geo-explored/pkg/api"
	"github.com/1F47E/geo-explored/pkg/feed/natsfeed"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	hydrateRetry    = 5 * time.Second
	shutdownTimeout = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the location feed",
	Long:  `Serve the explored index over HTTP, optionally consuming fixes from NATS, flushing new points to the store in the background.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx)
	if err != nil {
		return err
	}
	log := a.log

	a.index.Start(ctx)

	var (
		natsConn *nats.Conn
		sub      *natsfeed.Subscriber
	)
	if a.cfg.Feed.Enabled {
		natsConn, err = natsfeed.Connect(a.cfg.Feed.NATSURL)
		if err != nil {
			a.close(context.Background())
			return err
		}
		sub, err = natsfeed.Subscribe(natsConn, a.cfg.Feed.Subject, a.index.OnFix, log)
		if err != nil {
			natsConn.Close()
			a.close(context.Background())
			return err
		}
	}

	server := api.NewApp(&api.Dependencies{
		Index:   a.index,
		NATS:    natsConn,
		Log:     log,
		Version: version,
	})

	g, gctx := errgroup.WithContext(ctx)

	// Warm the index so the first viewport query does not pay for the full scan
	g.Go(func() error {
		for {
			err := a.index.Hydrate(gctx)
			if err == nil {
				return nil
			}
			log.Warn().Err(err).Dur("retry_in", hydrateRetry).Msg("hydration failed")
			select {
			case <-gctx.Done():
				return nil
			case <-time.After(hydrateRetry):
			}
		}
	})

	g.Go(func() error {
		addr := a.cfg.Server.ListenAddr()
		log.Info().Str("addr", addr).Str("version", version).Msg("listening")
		if err := server.Listen(addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		return server.ShutdownWithTimeout(10 * time.Second)
	})

	runErr := g.Wait()

	// stop taking fixes before the final flush
	if sub != nil {
		if err := sub.Close(); err != nil {
			log.Warn().Err(err).Msg("nats drain failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := a.close(shutdownCtx)
	if closeErr == nil {
		log.Info().Msg("pending points flushed, bye")
	}
	return errors.Join(runErr, closeErr)
}
