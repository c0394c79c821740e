package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/metrics"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"
)

const storeInitTimeout = 15 * time.Second

// storeHandle pairs the durable store with whatever releases its connections.
type storeHandle struct {
	store.Store
	close func() error
}

func (h *storeHandle) Shutdown() error {
	return h.close()
}

func setupDI(cfg *config.Config) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.Provide(injector, provideRegistry)
	do.Provide(injector, provideMetrics)
	do.Provide(injector, provideStore)
	do.Provide(injector, providePools)
	do.Provide(injector, provideHub)
	do.Provide(injector, provideJetStream)
	do.Provide(injector, provideDispatcher)
	do.Provide(injector, provideEngine)

	return injector
}

func provideRegistry(i do.Injector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, nil
}

func provideMetrics(i do.Injector) (metrics.Collector, error) {
	reg := do.MustInvoke[*prometheus.Registry](i)
	m, err := metrics.NewPrometheusMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

func provideStore(i do.Injector) (*storeHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreSQLite:
		s, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", cfg.SQLitePath).Msg("using sqlite store")
		return &storeHandle{Store: s, close: s.Close}, nil

	case config.StorePostgres:
		s, err := store.OpenPostgres(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, err
		}
		log.Info().
			Str("host", cfg.Database.Host).
			Str("database", cfg.Database.Name).
			Msg("using postgres store")
		return &storeHandle{Store: s, close: func() error { s.Close(); return nil }}, nil

	default:
		log.Warn().Msg("using in-memory store; drafts will not survive a restart")
		return &storeHandle{Store: store.NewMemoryStore(), close: func() error { return nil }}, nil
	}
}

func providePools(i do.Injector) (pool.Source, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.PoolURL != "" {
		log.Info().Str("url", cfg.PoolURL).Msg("loading player pools over HTTP")
		return pool.NewHTTPSource(cfg.PoolURL), nil
	}
	return pool.NewCSVSource(cfg.PoolDir), nil
}

func provideHub(i do.Injector) (*gateway.Hub, error) {
	return gateway.NewHub(gateway.DefaultConnectionConfig()), nil
}

// provideJetStream returns nil when NATS_URL is unset.
func provideJetStream(i do.Injector) (*broadcast.JetStreamBroadcaster, error) {
	cfg := do.MustInvoke[*config.Config](i)
	if cfg.NATSURL == "" {
		log.Info().Msg("NATS_URL not set, JetStream sink disabled")
		return nil, nil
	}

	jsCfg := broadcast.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATSURL
	jsCfg.StreamName = cfg.NATSStream
	jsCfg.SubjectPrefix = cfg.NATSSubjectPrefix

	ctx, cancel := context.WithTimeout(context.Background(), storeInitTimeout)
	defer cancel()
	js, err := broadcast.NewJetStreamBroadcaster(ctx, jsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream sink: %w", err)
	}
	return js, nil
}

func provideDispatcher(i do.Injector) (*broadcast.Dispatcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	collector := do.MustInvoke[metrics.Collector](i)

	sinks := []broadcast.Broadcaster{broadcast.LogBroadcaster{}, do.MustInvoke[*gateway.Hub](i)}
	js, err := do.Invoke[*broadcast.JetStreamBroadcaster](i)
	if err != nil {
		return nil, err
	}
	if js != nil {
		sinks = append(sinks, js)
	}
	return broadcast.NewDispatcher(cfg.EventBuffer, collector, sinks...), nil
}

func provideEngine(i do.Injector) (*engine.Engine, error) {
	cfg := do.MustInvoke[*config.Config](i)

	presets, err := config.LoadPresets(cfg.PresetsFile)
	if err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		Store:            do.MustInvoke[*storeHandle](i),
		Pools:            do.MustInvoke[pool.Source](i),
		Publisher:        do.MustInvoke[*broadcast.Dispatcher](i),
		Metrics:          do.MustInvoke[metrics.Collector](i),
		Clock:            clockwork.NewRealClock(),
		Presets:          presets,
		FastModePickTime: cfg.PickTimeOverride(),
		CommitTimeout:    cfg.CommitTimeout,
	})
}
