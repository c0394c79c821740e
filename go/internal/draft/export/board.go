// Package export renders a draft board as a grid of picks and writes it as an XLSX workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/pool"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/store"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	BoardSheet   = "Board"
	PickLogSheet = "Picks"
)

// Board is a draft together with its committed picks and the players they refer to.
type Board struct {
	Draft   models.Draft
	Picks   []models.DraftPick
	Players map[uuid.UUID]models.Player
}

func NewBoard(d models.Draft, picks []models.DraftPick, players []models.Player) Board {
	byID := make(map[uuid.UUID]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return Board{Draft: d, Picks: picks, Players: byID}
}

// Load reads a stored draft and resolves its players through the pool source.
func Load(ctx context.Context, st store.Store, src pool.Source, draftID uuid.UUID) (Board, error) {
	d, err := st.GetDraft(ctx, draftID)
	if err != nil {
		return Board{}, err
	}
	picks, err := st.ListPicks(ctx, draftID)
	if err != nil {
		return Board{}, fmt.Errorf("failed to list picks: %w", err)
	}
	players, err := src.LoadPool(ctx, d.Settings.PoolID)
	if err != nil {
		return Board{}, fmt.Errorf("failed to load pool %s: %w", d.Settings.PoolID, err)
	}
	return NewBoard(d, picks, players), nil
}

// Label renders a pick cell; unknown players fall back to their id.
func (b Board) Label(pick models.DraftPick) string {
	p, ok := b.Players[pick.PlayerID]
	if !ok {
		return pick.PlayerID.String()
	}
	if p.Position == "" {
		return p.FullName
	}
	return fmt.Sprintf("%s (%s)", p.FullName, p.Position)
}

// Grid returns one header row of participant names followed by one row per round, indexed by seat.
// Picks not yet made are empty.
func (b Board) Grid() [][]string {
	teams := len(b.Draft.Participants)
	header := make([]string, teams+1)
	header[0] = "Round"
	for seat := 1; seat <= teams; seat++ {
		header[seat] = strconv.Itoa(seat)
		if p, ok := b.Draft.ParticipantForSeat(seat); ok && p.Name != "" {
			header[seat] = p.Name
		}
	}

	grid := [][]string{header}
	for round := 1; round <= b.Draft.Settings.Rounds; round++ {
		row := make([]string, teams+1)
		row[0] = strconv.Itoa(round)
		grid = append(grid, row)
	}
	for _, pick := range b.Picks {
		if pick.Round < 1 || pick.Round >= len(grid) || pick.Seat < 1 || pick.Seat > teams {
			continue
		}
		grid[pick.Round][pick.Seat] = b.Label(pick)
	}
	return grid
}

// Workbook builds the board sheet and the chronological pick log sheet. Callers must Close it.
func (b Board) Workbook() (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), BoardSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(PickLogSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := writeRows(f, BoardSheet, b.Grid()); err != nil {
		f.Close()
		return nil, err
	}

	pickLog := [][]string{{"Overall", "Round", "Pick", "Seat", "Participant", "Player", "Position", "Team", "Origin", "Picked At"}}
	for _, pick := range b.Picks {
		participant, _ := b.Draft.ParticipantForSeat(pick.Seat)
		player := b.Players[pick.PlayerID]
		name := player.FullName
		if name == "" {
			name = pick.PlayerID.String()
		}
		pickLog = append(pickLog, []string{
			strconv.Itoa(pick.OverallPick),
			strconv.Itoa(pick.Round),
			strconv.Itoa(pick.Pick),
			strconv.Itoa(pick.Seat),
			participant.Name,
			name,
			player.Position,
			player.Team,
			string(pick.Origin),
			pick.PickedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	if err := writeRows(f, PickLogSheet, pickLog); err != nil {
		f.Close()
		return nil, err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	for _, sheet := range []string{BoardSheet, PickLogSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
	}
	return f, nil
}

// WriteXLSX writes the workbook to w.
func (b Board) WriteXLSX(w io.Writer) error {
	f, err := b.Workbook()
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", idx+1, err)
		}
		cells := make([]interface{}, len(row))
		for i, val := range row {
			cells[i] = val
		}
		if err := f.SetSheetRow(sheet, axis, &cells); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, idx+1, err)
		}
	}
	return nil
}
