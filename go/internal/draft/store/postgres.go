package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

const uniqueViolation = "23505"

var postgresMigrationStatements = []string{
	`CREATE TABLE IF NOT EXISTS drafts (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		status TEXT NOT NULL,
		settings JSONB NOT NULL,
		participants JSONB NOT NULL,
		pick_count INTEGER NOT NULL DEFAULT 0,
		clock_remaining_ms BIGINT,
		started_at TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drafts_active ON drafts (created_at) WHERE status NOT IN ('COMPLETE', 'ABANDONED')`,
	`CREATE TABLE IF NOT EXISTS draft_picks (
		id UUID PRIMARY KEY,
		draft_id UUID NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
		overall_pick INTEGER NOT NULL,
		round INTEGER NOT NULL,
		pick INTEGER NOT NULL,
		seat INTEGER NOT NULL,
		participant_id UUID NOT NULL,
		player_id UUID NOT NULL,
		origin TEXT NOT NULL,
		picked_at TIMESTAMPTZ NOT NULL,
		UNIQUE(draft_id, overall_pick),
		UNIQUE(draft_id, player_id)
	)`,
	`CREATE TABLE IF NOT EXISTS draft_queues (
		draft_id UUID NOT NULL REFERENCES drafts(id) ON DELETE CASCADE,
		seat INTEGER NOT NULL,
		player_ids UUID[] NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (draft_id, seat)
	)`,
}

// RunPostgresMigration creates the draft tables if they do not exist.
func RunPostgresMigration(ctx context.Context, pool *pgxpool.Pool) error {
	for _, s := range postgresMigrationStatements {
		stmt := strings.TrimSpace(s)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// OpenPostgres connects to dsn, pings the server and applies migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := RunPostgresMigration(ctx, p); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to run migration: %w", err)
	}
	return NewPostgresStore(p), nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) CreateDraft(ctx context.Context, d models.Draft) error {
	settings, participants, err := marshalDraft(d)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO drafts (id, name, status, settings, participants, pick_count, clock_remaining_ms,
			started_at, completed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.Name, string(d.Status), settings, participants, d.PickCount, d.ClockRemainingMs,
		d.StartedAt, d.CompletedAt, d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		if isPgUniqueViolation(err) {
			return errDraftExists(d.ID)
		}
		return fmt.Errorf("failed to create draft: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateDraft(ctx context.Context, d models.Draft) error {
	settings, participants, err := marshalDraft(d)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE drafts SET name = $2, status = $3, settings = $4, participants = $5, clock_remaining_ms = $6,
			started_at = $7, completed_at = $8, updated_at = $9
		 WHERE id = $1`,
		d.ID, d.Name, string(d.Status), settings, participants, d.ClockRemainingMs,
		d.StartedAt, d.CompletedAt, d.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notFound(d.ID)
	}
	return nil
}

func (s *PostgresStore) AppendPick(ctx context.Context, d models.Draft, pick models.DraftPick) error {
	if err := validateAppend(d, pick); err != nil {
		return err
	}
	settings, participants, err := marshalDraft(d)
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE drafts SET name = $2, status = $3, settings = $4, participants = $5, pick_count = $6,
				clock_remaining_ms = $7, started_at = $8, completed_at = $9, updated_at = $10
			 WHERE id = $1 AND pick_count = $11`,
			d.ID, d.Name, string(d.Status), settings, participants, d.PickCount, d.ClockRemainingMs,
			d.StartedAt, d.CompletedAt, d.UpdatedAt.UTC(), pick.OverallPick-1)
		if err != nil {
			return fmt.Errorf("failed to update draft: %w", err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drafts WHERE id = $1)`, d.ID).Scan(&exists); err != nil {
				return fmt.Errorf("failed to check draft: %w", err)
			}
			if !exists {
				return notFound(d.ID)
			}
			return conflict(d, pick)
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO draft_picks (id, draft_id, overall_pick, round, pick, seat, participant_id,
				player_id, origin, picked_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			pick.ID, pick.DraftID, pick.OverallPick, pick.Round, pick.Pick, pick.Seat,
			pick.ParticipantID, pick.PlayerID, string(pick.Origin), pick.PickedAt.UTC())
		if err != nil {
			if isPgUniqueViolation(err) {
				return conflict(d, pick)
			}
			return fmt.Errorf("failed to insert pick: %w", err)
		}
		return nil
	})
}

func (s *PostgresStore) SaveQueue(ctx context.Context, draftID uuid.UUID, seat int, players []uuid.UUID) error {
	if len(players) == 0 {
		_, err := s.pool.Exec(ctx, `DELETE FROM draft_queues WHERE draft_id = $1 AND seat = $2`, draftID, seat)
		if err != nil {
			return fmt.Errorf("failed to clear queue: %w", err)
		}
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO draft_queues (draft_id, seat, player_ids, updated_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (draft_id, seat) DO UPDATE SET player_ids = EXCLUDED.player_ids, updated_at = EXCLUDED.updated_at`,
		draftID, seat, players, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return notFound(draftID)
		}
		return fmt.Errorf("failed to save queue: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id uuid.UUID) (models.Draft, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, status, settings, participants, pick_count, clock_remaining_ms,
			started_at, completed_at, created_at, updated_at
		 FROM drafts WHERE id = $1`, id)

	var (
		d                      models.Draft
		status                 string
		settings, participants []byte
	)
	err := row.Scan(&d.ID, &d.Name, &status, &settings, &participants, &d.PickCount, &d.ClockRemainingMs,
		&d.StartedAt, &d.CompletedAt, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Draft{}, notFound(id)
	}
	if err != nil {
		return models.Draft{}, fmt.Errorf("failed to get draft: %w", err)
	}
	if err := unmarshalDraft(&d, settings, participants); err != nil {
		return models.Draft{}, err
	}
	d.Status = models.DraftStatus(status)
	d.CreatedAt = d.CreatedAt.UTC()
	d.UpdatedAt = d.UpdatedAt.UTC()
	if d.StartedAt != nil {
		t := d.StartedAt.UTC()
		d.StartedAt = &t
	}
	if d.CompletedAt != nil {
		t := d.CompletedAt.UTC()
		d.CompletedAt = &t
	}
	return d, nil
}

func (s *PostgresStore) ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, draft_id, overall_pick, round, pick, seat, participant_id, player_id, origin, picked_at
		 FROM draft_picks WHERE draft_id = $1 ORDER BY overall_pick ASC`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list picks: %w", err)
	}
	defer rows.Close()

	var picks []models.DraftPick
	for rows.Next() {
		var (
			p      models.DraftPick
			origin string
		)
		if err := rows.Scan(&p.ID, &p.DraftID, &p.OverallPick, &p.Round, &p.Pick, &p.Seat,
			&p.ParticipantID, &p.PlayerID, &origin, &p.PickedAt); err != nil {
			return nil, fmt.Errorf("failed to scan pick: %w", err)
		}
		p.Origin = models.PickOrigin(origin)
		p.PickedAt = p.PickedAt.UTC()
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (s *PostgresStore) ListQueues(ctx context.Context, draftID uuid.UUID) (map[int][]uuid.UUID, error) {
	if _, err := s.GetDraft(ctx, draftID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `SELECT seat, player_ids FROM draft_queues WHERE draft_id = $1`, draftID)
	if err != nil {
		return nil, fmt.Errorf("failed to list queues: %w", err)
	}
	defer rows.Close()

	queues := make(map[int][]uuid.UUID)
	for rows.Next() {
		var (
			seat int
			ids  []uuid.UUID
		)
		if err := rows.Scan(&seat, &ids); err != nil {
			return nil, fmt.Errorf("failed to scan queue: %w", err)
		}
		queues[seat] = ids
	}
	return queues, rows.Err()
}

func (s *PostgresStore) ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id FROM drafts WHERE status NOT IN ($1, $2) ORDER BY created_at, id`,
		string(models.DraftStatusComplete), string(models.DraftStatusAbandoned))
	if err != nil {
		return nil, fmt.Errorf("failed to list active drafts: %w", err)
	}
	defer rows.Close()
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
