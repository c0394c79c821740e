package pool

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

var (
	// playerNamespace derives stable ids for rows that do not carry one.
	playerNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/mcdev12/dynasty-draft/players"))

	nameWithTeam = regexp.MustCompile(`^(.*?)\s*\(([A-Za-z]{2,4})\)\s*$`)
	positionRank = regexp.MustCompile(`^([A-Za-z]+)\d*$`)
)

var rankingsHeader = []string{"rank", "name", "team", "position", "id"}

// ParseRankingsCSV reads a rankings file with a header row. Required columns are rank, name and
// position; team and id are optional. Names may embed the team as "Name (TEAM)" and positions may
// carry a positional rank such as "WR12".
func ParseRankingsCSV(r io.Reader) ([]models.Player, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("rankings file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"rank", "name", "position"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("rankings file is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var players []models.Player
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}
		if len(record) == 0 || (len(record) == 1 && strings.TrimSpace(record[0]) == "") {
			continue
		}

		p, err := parseRow(field(record, "rank"), field(record, "name"), field(record, "team"),
			field(record, "position"), field(record, "id"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		players = append(players, p)
	}
	return players, nil
}

func parseRow(rank, name, team, position, id string) (models.Player, error) {
	p := models.Player{FullName: name, Team: strings.ToUpper(team)}

	if rank != "" {
		n, err := strconv.Atoi(rank)
		if err != nil {
			return p, fmt.Errorf("invalid rank %q", rank)
		}
		p.Rank = n
	}

	if m := nameWithTeam.FindStringSubmatch(name); m != nil {
		p.FullName = m[1]
		if p.Team == "" {
			p.Team = strings.ToUpper(m[2])
		}
	}
	if p.FullName == "" {
		return p, fmt.Errorf("missing player name")
	}

	m := positionRank.FindStringSubmatch(position)
	if m == nil {
		return p, fmt.Errorf("invalid position %q", position)
	}
	p.Position = strings.ToUpper(m[1])

	if id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			p.ExternalID = id
		} else {
			p.ID = parsed
		}
	}
	if p.ID == uuid.Nil {
		key := strings.ToLower(strings.Join([]string{p.FullName, p.Team, p.Position, p.ExternalID}, "|"))
		p.ID = uuid.NewSHA1(playerNamespace, []byte(key))
	}
	return p, nil
}

// WriteRankingsCSV writes players in the format ParseRankingsCSV reads.
func WriteRankingsCSV(w io.Writer, players []models.Player) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rankingsHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, p := range players {
		record := []string{strconv.Itoa(p.Rank), p.FullName, p.Team, p.Position, p.ID.String()}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write player %s: %w", p.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
