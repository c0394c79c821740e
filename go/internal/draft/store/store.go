// Package store persists draft sessions: one record per draft, an append-only pick log and one
// queue per seat.
package store

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Store is the durable backing of the engine. Writes for one draft must be strongly consistent.
type Store interface {
	CreateDraft(ctx context.Context, d models.Draft) error
	// UpdateDraft saves the draft record. It never changes the pick count.
	UpdateDraft(ctx context.Context, d models.Draft) error
	// AppendPick atomically appends pick and saves d, whose PickCount must equal pick.OverallPick.
	// It fails with a conflict unless the stored pick count is exactly one less.
	AppendPick(ctx context.Context, d models.Draft, pick models.DraftPick) error
	SaveQueue(ctx context.Context, draftID uuid.UUID, seat int, players []uuid.UUID) error

	GetDraft(ctx context.Context, id uuid.UUID) (models.Draft, error)
	ListPicks(ctx context.Context, draftID uuid.UUID) ([]models.DraftPick, error)
	ListQueues(ctx context.Context, draftID uuid.UUID) (map[int][]uuid.UUID, error)
	// ListActiveDrafts returns ids of drafts that are not complete or abandoned.
	ListActiveDrafts(ctx context.Context) ([]uuid.UUID, error)
}

func validateAppend(d models.Draft, pick models.DraftPick) error {
	if pick.DraftID != d.ID || pick.OverallPick != d.PickCount || pick.OverallPick < 1 {
		return drafterr.WithMetadata(drafterr.CodeInvalidArgument, "pick does not match draft record",
			map[string]string{
				"overall_pick": strconv.Itoa(pick.OverallPick),
				"pick_count":   strconv.Itoa(d.PickCount),
			})
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return drafterr.WithMetadata(drafterr.CodeNotFound, "draft not found", map[string]string{"draft_id": id.String()})
}

func conflict(d models.Draft, pick models.DraftPick) error {
	return drafterr.WithMetadata(drafterr.CodeConflict, "pick log changed concurrently",
		map[string]string{
			"draft_id":     d.ID.String(),
			"overall_pick": strconv.Itoa(pick.OverallPick),
		})
}

func errDraftExists(id uuid.UUID) error {
	return drafterr.WithMetadata(drafterr.CodeConflict, "draft already exists", map[string]string{"draft_id": id.String()})
}
