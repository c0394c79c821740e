package main

import (
	"os"

	"github.com/mcdev12/dynasty-draft/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config validation failed")
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	if cfg.IsDevelopment() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "draftd").Logger()
	}
	zerolog.SetGlobalLevel(cfg.Level())
}
