package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	cfg := mustLoadConfig()
	initLogger(cfg)
	log.Info().
		Str("env", cfg.Env).
		Str("store", cfg.StoreDriver).
		Bool("fast_mode", cfg.FastMode).
		Msg("starting draftd")

	injector := setupDI(cfg)
	if err := run(cfg, injector); err != nil {
		log.Fatal().Err(err).Msg("draftd failed")
	}
}

func run(cfg *config.Config, injector *do.RootScope) error {
	eng, err := do.Invoke[*engine.Engine](injector)
	if err != nil {
		return err
	}
	hub := do.MustInvoke[*gateway.Hub](injector)
	dispatcher := do.MustInvoke[*broadcast.Dispatcher](injector)
	reg := do.MustInvoke[*prometheus.Registry](injector)
	js := do.MustInvoke[*broadcast.JetStreamBroadcaster](injector)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatched := make(chan struct{})
	go func() {
		dispatcher.Run(dispatchCtx)
		close(dispatched)
	}()

	recovered, err := eng.Recover(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to recover drafts")
	}
	log.Info().Int("drafts", recovered).Msg("recovered drafts")

	server := setupServer(cfg, eng, hub, reg)
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case runErr = <-serveErr:
		log.Error().Err(runErr).Msg("HTTP server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	// Stop clocks before draining so no new events are produced.
	eng.Shutdown()
	stopDispatch()
	<-dispatched
	hub.Close()
	if js != nil {
		if err := js.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close JetStream connection")
		}
	}

	if report := injector.ShutdownWithContext(shutdownCtx); report != nil && !report.Succeed {
		log.Error().Str("report", report.Error()).Msg("service shutdown failed")
	}

	log.Info().Msg("draftd shutdown complete")
	return runErr
}
