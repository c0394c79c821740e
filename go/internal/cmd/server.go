package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/gateway"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/time/rate"
)

func setupServer(cfg *config.Config, e *engine.Engine, hub *gateway.Hub, reg prometheus.Gatherer) *http.Server {
	handler := gateway.NewRouter(e, hub, gateway.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      rate.Limit(cfg.RateLimitRPS),
		RateBurst:      cfg.RateLimitBurst,
		Gatherer:       reg,
	})

	// HTTP/2 without TLS so Connect clients can use h2c; websockets stay on HTTP/1.1.
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
