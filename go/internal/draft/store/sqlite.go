package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
	"github.com/mcdev12/dynasty-draft/go/internal/sqlutil"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql
var sqliteMigrations embed.FS

// SQLiteStore persists drafts in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One writer keeps appends serialized and in-memory databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if err := sqlutil.ApplyMigrations(ctx, db, sqliteMigrations, "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) CreateDraft(ctx context.Context, d models.Draft) error {
	settings, participants, err := marshalDraft(d)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, name, status, settings, participants, pick_count, clock_remaining_ms,
			started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID.String(), d.Name, string(d.Status), settings, participants, d.PickCount,
		sqlutil.ToSqlInt64(d.ClockRemainingMs), sqlutil.ToNullMillis(d.StartedAt), sqlutil.ToNullMillis(d.CompletedAt),
		sqlutil.ToMillis(d.CreatedAt), sqlutil.ToMillis(d.UpdatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create draft: %w", errDraftExists(d.ID))
		}
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateDraft(ctx context.Context, d models.Draft) error {
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		res, err := updateDraftTx(ctx, tx, d, "")
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return notFound(d.ID)
		}
		return nil
	})
}

func (s *SQLiteStore) AppendPick(ctx context.Context, d models.Draft, pick models.DraftPick) error {
	if err := validateAppend(d, pick); err != nil {
		return err
	}
	return sqlutil.Run(ctx, s.db, func(tx *sql.Tx) error {
		res, err := updateDraftTx(ctx, tx, d, " AND pick_count = ?", pick.OverallPick-1)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := s.getDraftTx(ctx, tx, d.ID); err != nil {
				return err
			}
			return conflict(d, pick)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO draft_picks (id, draft_id, overall_pick, round, pick, seat, participant_id,
				player_id, origin, picked_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			pick.ID.String(), pick.DraftID.String(), pick.OverallPick, pick.Round, pick.Pick, pick.Seat,
			pick.ParticipantID.String(), pick.PlayerID.String(), string(pick.Origin), sqlutil.ToMillis(pick.PickedAt))
		if err != nil {
			if isUniqueViolation(err) {
				return conflict(d, pick)
			}
			return fmt.Errorf("failed to insert pick: %w", err)
		}
		return nil
	})
}

func (s *SQLiteStore) SaveQueue(ctx context.Context, draftID uuid.UUID, seat int, players []uuid.UUID) error {
	if len(players) == 0 {
		_, err := s.db.ExecContext(ctx, `DELETE FROM draft_queues WHERE draft_id = ? AND seat = ?`, draftID.String(), seat)
		if err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal queue: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO draft_queues (draft_id, seat, player_ids, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (draft_id, seat) DO UPDATE SET player_ids = excluded.player_ids, updated_at = excluded.updated_at`,
		draftID.String(), seat, string(data), sqlutil.ToMillis(time.Now()))
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return notFound(draftID)
		}
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetDraft(ctx context.Context, id uuid.UUID) (models.Draft, error) {
	return s.getDraftTx(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) getDraftTx(ctx context.Context, q queryer, id uuid.UUID) (models.Draft, error) {
	var (
		d                      models.Draft
		rawID, status          string
		settings, participants string
		remaining              sql.NullInt64
		startedAt, completedAt sql.NullInt64
		createdAt, updatedAt   int64
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, name, status, settings, participants, pick_count, clock_remaining_ms,
			started_at, completed_at, created_at, updated_at
		FROM drafts WHERE id = ?`, id.String()).
		Scan(&rawID, &d.Name, &status, &settings, &participants, &d.PickCount, &remaining,
			&startedAt, &completedAt, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Draft{}, notFound(id)
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}

	if d.ID, err = uuid.Parse(rawID); err != nil {
		return models.Draft{}, fmt.Errorf("failed to parse draft id: %w", err)
	}
	if err := unmarshalDraft(&d, []byte(settings), []byte(participants)); err != nil {
		return models.Draft{}, err
	}
	d.Status = models.DraftStatus(status)
	d.ClockRemainingMs = sqlutil.FromSqlInt64(remaining)
	d.StartedAt = sqlutil.FromNullMillis(startedAt)
	d.CompletedAt = sqlutil.FromNullMillis(completedAt)
	d.CreatedAt = sqlutil.FromMillis(createdAt)
	d.UpdatedAt = sqlutil.FromMillis(updatedAt)
	return d, nil
}

func (s *SQLiteStore) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, draft_id, overall_pick, round, pick, seat, participant_id, player_id, origin, picked_at
		FROM draft_picks WHERE draft_id = ? ORDER BY overall_pick`, draftID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var (
			p                                    models.DraftPick
			id, draft, participant, player, orig string
			pickedAt                             int64
		)
		if err := rows.Scan(&id, &draft, &p.OverallPick, &p.Round, &p.Pick, &p.Seat, &participant, &player,
			&orig, &pickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		for _, f := range []struct {
			dst *uuid.UUID
			raw string
		}{{&p.ID, id}, {&p.DraftID, draft}, {&p.ParticipantID, participant}, {&p.PlayerID, player}} {
			if *f.dst, err = uuid.Parse(f.raw); err != nil {
				return nil, fmt.Errorf("failed to parse pick ids: %w", err)
			}
		}
		p.Origin = models.PickOrigin(orig)
		p.PickedAt = sqlutil.FromMillis(pickedAt)
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (s *SQLiteStore) ListQueues(ctx context.Context, draftID uuid.UUID) (map[int][]uuid.UUID, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT seat, player_ids FROM draft_queues WHERE draft_id = ?`, draftID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	queues := make(map[int][]uuid.UUID)
	for rows.Next() {
		var (
			seat int
			raw  string
		)
		if err := rows.Scan(&seat, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		var ids []uuid.UUID
		if err := json.Unmarshal([]byte(raw), &ids); err != nil {
			return nil, fmt.Errorf("failed to unmarshal queue: %w", err)
		}
		queues[seat] = ids
	}
	return queues, rows.Err()
}

func (s *SQLiteStore) ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM drafts WHERE status NOT IN (?, ?) ORDER BY created_at, id`,
		string(models.DraftStatusComplete), string(models.DraftStatusAbandoned))
	if err != nil {
		return nil, fmt.Errorf("failed to list active drafts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan draft id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse draft id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func updateDraftTx(ctx context.Context, tx *sql.Tx, d models.Draft, guard string, guardArgs ...any) (sql.Result, error) {
	settings, participants, err := marshalDraft(d)
	if err != nil {
		return nil, err
	}

	pickCount := "pick_count"
	args := []any{d.Name, string(d.Status), settings, participants}
	if guard != "" {
		pickCount = "?"
		args = append(args, d.PickCount)
	}
	args = append(args, sqlutil.ToSqlInt64(d.ClockRemainingMs), sqlutil.ToNullMillis(d.StartedAt),
		sqlutil.ToNullMillis(d.CompletedAt), sqlutil.ToMillis(d.UpdatedAt), d.ID.String())
	args = append(args, guardArgs...)

	res, err := tx.ExecContext(ctx, `
		UPDATE drafts SET name = ?, status = ?, settings = ?, participants = ?, pick_count = `+pickCount+`,
			clock_remaining_ms = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`+guard, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return res, nil
}

func marshalDraft(d models.Draft) (string, string, error) {
	settings, err := json.Marshal(d.Settings)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal settings: %w", err)
	}
	participants, err := json.Marshal(d.Participants)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal participants: %w", err)
	}
	return string(settings), string(participants), nil
}

func unmarshalDraft(d *models.Draft, settings, participants []byte) error {
	if err := json.Unmarshal(settings, &d.Settings); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if err := json.Unmarshal(participants, &d.Participants); err != nil {
		return fmt.Errorf("failed to unmarshal participants: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "constraint failed: UNIQUE")
}
