package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/events"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/export"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/urfave/cli/v2"
)

const simulationPoolID = "simulation"

type simulation struct {
	Teams              int
	Rounds             int
	ThirdRoundReversal bool
	Players            []models.Player
	Timeout            time.Duration
}

// finishWatcher closes done on the first terminal draft event.
type finishWatcher struct {
	once sync.Once
	done chan struct{}
	last events.Type
}

func (w *finishWatcher) Publish(event events.Event) bool {
	if event.Type == events.TypeDraftCompleted || event.Type == events.TypeDraftAbandoned {
		w.once.Do(func() {
			w.last = event.Type
			close(w.done)
		})
	}
	return true
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "run a full draft where every seat auto-picks",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "teams", Value: 12},
			&cli.IntFlag{Name: "rounds", Value: 18},
			&cli.StringFlag{Name: "pool", Usage: "rankings CSV; a fake pool is generated when empty"},
			&cli.Int64Flag{Name: "seed", Value: 7, Usage: "seed for the generated pool"},
			&cli.BoolFlag{Name: "third-round-reversal"},
			&cli.StringFlag{Name: "xlsx", Usage: "also write the board to this workbook"},
			&cli.DurationFlag{Name: "timeout", Value: time.Minute},
		},
		Action: func(c *cli.Context) error {
			sim := simulation{
				Teams:              c.Int("teams"),
				Rounds:             c.Int("rounds"),
				ThirdRoundReversal: c.Bool("third-round-reversal"),
				Timeout:            c.Duration("timeout"),
			}
			if path := c.String("pool"); path != "" {
				players, err := readPool(path)
				if err != nil {
					return err
				}
				sim.Players = players
			} else {
				sim.Players = generatePool(gofakeit.New(uint64(c.Int64("seed"))), sim.Teams*sim.Rounds*2)
			}

			board, err := sim.Run(c.Context)
			if err != nil {
				return err
			}
			if err := printBoard(c.App.Writer, board); err != nil {
				return err
			}

			if out := c.String("xlsx"); out != "" {
				if err := writeWorkbook(out, board); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "wrote board to %s\n", out)
			}
			return nil
		},
	}
}

// Run drives a draft to completion on an in-memory engine with every seat on auto-pick.
func (s simulation) Run(ctx context.Context) (export.Board, error) {
	src := pool.NewStaticSource()
	src.Put(simulationPoolID, s.Players)

	st := store.NewMemoryStore()
	watcher := &finishWatcher{done: make(chan struct{})}
	eng, err := engine.New(engine.Config{
		Store:     st,
		Pools:     src,
		Publisher: watcher,
		Clock:     clockwork.NewRealClock(),
	})
	if err != nil {
		return export.Board{}, err
	}
	defer eng.Shutdown()

	participants := make([]engine.ParticipantInput, s.Teams)
	for i := range participants {
		participants[i] = engine.ParticipantInput{
			UserID:   fmt.Sprintf("sim-%d", i+1),
			Name:     fmt.Sprintf("Team %d", i+1),
			AutoPick: true,
		}
	}

	d, err := eng.StartDraft(ctx, engine.StartDraftRequest{
		Name: "Simulation",
		Settings: models.DraftSettings{
			Rounds:             s.Rounds,
			TimePerPickMs:      time.Minute.Milliseconds(),
			ThirdRoundReversal: s.ThirdRoundReversal,
			PoolID:             simulationPoolID,
		},
		Participants: participants,
	})
	if err != nil {
		return export.Board{}, err
	}
	if _, err := eng.BeginLive(ctx, d.ID); err != nil {
		return export.Board{}, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	select {
	case <-watcher.done:
	case <-time.After(timeout):
		return export.Board{}, fmt.Errorf("draft %s did not finish within %s", d.ID, timeout)
	case <-ctx.Done():
		return export.Board{}, ctx.Err()
	}
	if watcher.last != events.TypeDraftCompleted {
		return export.Board{}, fmt.Errorf("draft %s ended with %s", d.ID, watcher.last)
	}

	return export.Load(ctx, st, src, d.ID)
}

func readPool(path string) ([]models.Player, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pool: %w", err)
	}
	defer f.Close()
	return pool.ParseRankingsCSV(f)
}

func printBoard(w io.Writer, board export.Board) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range board.Grid() {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func writeWorkbook(path string, board export.Board) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := board.WriteXLSX(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
