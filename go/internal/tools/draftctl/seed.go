package main

import (
	"fmt"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/urfave/cli/v2"
)

var nflTeams = []string{
	"ARI", "ATL", "BAL", "BUF", "CAR", "CHI", "CIN", "CLE", "DAL", "DEN", "DET", "GB", "HOU", "IND",
	"JAX", "KC", "LAC", "LAR", "LV", "MIA", "MIN", "NE", "NO", "NYG", "NYJ", "PHI", "PIT", "SEA",
	"SF", "TB", "TEN", "WAS",
}

// positionMix weights positions roughly like a dynasty superflex rankings sheet.
var positionMix = []string{
	"QB", "QB", "QB",
	"RB", "RB", "RB", "RB",
	"WR", "WR", "WR", "WR", "WR",
	"TE", "TE",
}

func seedPoolCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed-pool",
		Usage: "write a fake rankings CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "pool.csv", Usage: "output file, - for stdout"},
			&cli.IntFlag{Name: "size", Value: 300, Usage: "number of players"},
			&cli.Int64Flag{Name: "seed", Value: 7, Usage: "random seed"},
		},
		Action: func(c *cli.Context) error {
			size := c.Int("size")
			if size <= 0 {
				return fmt.Errorf("size must be positive, got %d", size)
			}
			players := generatePool(gofakeit.New(uint64(c.Int64("seed"))), size)

			out := c.String("out")
			if out == "-" {
				return pool.WriteRankingsCSV(c.App.Writer, players)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := pool.WriteRankingsCSV(f, players); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %d players to %s\n", len(players), out)
			return nil
		},
	}
}

// generatePool returns size ranked players with unique names. The same faker seed yields the same
// pool, ids included.
func generatePool(faker *gofakeit.Faker, size int) []models.Player {
	players := make([]models.Player, 0, size)
	seen := make(map[string]struct{}, size)
	for rank := 1; len(players) < size; {
		name := faker.FirstName() + " " + faker.LastName()
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}

		team := faker.RandomString(nflTeams)
		position := faker.RandomString(positionMix)
		players = append(players, models.Player{
			ID:       uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s|%s|%s", name, team, position))),
			FullName: name,
			Team:     team,
			Position: position,
			Rank:     rank,
		})
		rank++
	}
	return players
}
