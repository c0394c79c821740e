package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/export"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/urfave/cli/v2"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "export a stored draft board to XLSX",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sqlite", Value: "draft.db", EnvVars: []string{"SQLITE_PATH"}},
			&cli.StringFlag{Name: "pool-dir", Value: "pools", EnvVars: []string{"POOL_DIR"}},
			&cli.StringFlag{Name: "draft", Required: true},
			&cli.StringFlag{Name: "out", Value: "board.xlsx"},
		},
		Action: func(c *cli.Context) error {
			draftID, err := uuid.Parse(c.String("draft"))
			if err != nil {
				return fmt.Errorf("invalid draft id: %w", err)
			}

			st, err := store.OpenSQLite(c.Context, c.String("sqlite"))
			if err != nil {
				return err
			}
			defer st.Close()

			board, err := export.Load(c.Context, st, pool.NewCSVSource(c.String("pool-dir")), draftID)
			if err != nil {
				return err
			}
			if err := writeWorkbook(c.String("out"), board); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "exported %d picks to %s\n", len(board.Picks), c.String("out"))
			return nil
		},
	}
}
