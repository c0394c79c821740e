// Command draftctl seeds player pools, simulates drafts and exports draft boards.
package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		log.Fatal().Err(err).Msg("draftctl failed")
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "draftctl",
		Usage: "draft session tooling",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log engine activity"},
		},
		Before: func(c *cli.Context) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: c.App.ErrWriter})
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return nil
		},
		Commands: []*cli.Command{
			seedPoolCommand(),
			simulateCommand(),
			exportCommand(),
			tailCommand(),
		},
	}
}
