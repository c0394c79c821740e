package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/broadcast"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func tailCommand() *cli.Command {
	defaults := broadcast.DefaultJetStreamConfig()
	return &cli.Command{
		Name:  "tail",
		Usage: "replay and follow a draft's events from JetStream",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "nats", Value: defaults.URL, EnvVars: []string{"NATS_URL"}},
			&cli.StringFlag{Name: "stream", Value: defaults.StreamName, EnvVars: []string{"NATS_STREAM"}},
			&cli.StringFlag{Name: "prefix", Value: defaults.SubjectPrefix, EnvVars: []string{"NATS_SUBJECT_PREFIX"}},
			&cli.StringFlag{Name: "draft", Required: true},
		},
		Action: func(c *cli.Context) error {
			draftID, err := uuid.Parse(c.String("draft"))
			if err != nil {
				return fmt.Errorf("invalid draft id: %w", err)
			}

			cfg := defaults
			cfg.URL = c.String("nats")
			cfg.StreamName = c.String("stream")
			cfg.SubjectPrefix = c.String("prefix")

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			enc := json.NewEncoder(c.App.Writer)
			return broadcast.Tail(ctx, cfg, draftID, func(event events.Event) {
				if err := enc.Encode(event); err != nil {
					log.Error().Err(err).Str("event_id", event.ID.String()).Msg("failed to print event")
				}
			})
		},
	}
}
