package gateway

import (
	"context"
	"errors"
	"strings"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// Client calls draft.v1.DraftService. Failed calls return *drafterr.Error when the server tagged
// the failure with a draft error code, so errors.Is works across the wire.
type Client struct {
	startDraft   *connect.Client[StartDraftRequest, DraftResponse]
	beginLive    *connect.Client[DraftRequest, DraftResponse]
	submitPick   *connect.Client[SubmitPickRequest, SubmitPickResponse]
	pauseDraft   *connect.Client[DraftRequest, DraftResponse]
	resumeDraft  *connect.Client[DraftRequest, DraftResponse]
	abandonDraft *connect.Client[AbandonDraftRequest, DraftResponse]
	enqueue      *connect.Client[EnqueuePreferenceRequest, QueueResponse]
	remove       *connect.Client[RemovePreferenceRequest, QueueResponse]
	setAutoPick  *connect.Client[SetAutoPickRequest, ParticipantResponse]
	getSnapshot  *connect.Client[DraftRequest, SnapshotResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &Client{
		startDraft:   connect.NewClient[StartDraftRequest, DraftResponse](httpClient, baseURL+DraftServiceStartDraftProcedure, opts...),
		beginLive:    connect.NewClient[DraftRequest, DraftResponse](httpClient, baseURL+DraftServiceBeginLiveProcedure, opts...),
		submitPick:   connect.NewClient[SubmitPickRequest, SubmitPickResponse](httpClient, baseURL+DraftServiceSubmitPickProcedure, opts...),
		pauseDraft:   connect.NewClient[DraftRequest, DraftResponse](httpClient, baseURL+DraftServicePauseDraftProcedure, opts...),
		resumeDraft:  connect.NewClient[DraftRequest, DraftResponse](httpClient, baseURL+DraftServiceResumeDraftProcedure, opts...),
		abandonDraft: connect.NewClient[AbandonDraftRequest, DraftResponse](httpClient, baseURL+DraftServiceAbandonDraftProcedure, opts...),
		enqueue:      connect.NewClient[EnqueuePreferenceRequest, QueueResponse](httpClient, baseURL+DraftServiceEnqueuePreferenceProcedure, opts...),
		remove:       connect.NewClient[RemovePreferenceRequest, QueueResponse](httpClient, baseURL+DraftServiceRemovePreferenceProcedure, opts...),
		setAutoPick:  connect.NewClient[SetAutoPickRequest, ParticipantResponse](httpClient, baseURL+DraftServiceSetAutoPickProcedure, opts...),
		getSnapshot:  connect.NewClient[DraftRequest, SnapshotResponse](httpClient, baseURL+DraftServiceGetSnapshotProcedure, opts...),
	}
}

func (c *Client) StartDraft(ctx context.Context, req engine.StartDraftRequest) (models.Draft, error) {
	res, err := c.startDraft.CallUnary(ctx, connect.NewRequest(&req))
	if err != nil {
		return models.Draft{}, fromConnectError(err)
	}
	return res.Msg.Draft, nil
}

func (c *Client) BeginLive(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	res, err := c.beginLive.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return models.Draft{}, fromConnectError(err)
	}
	return res.Msg.Draft, nil
}

func (c *Client) SubmitPick(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) (models.DraftPick, error) {
	res, err := c.submitPick.CallUnary(ctx, connect.NewRequest(&SubmitPickRequest{DraftID: draftID, Seat: seat, PlayerID: playerID}))
	if err != nil {
		return models.DraftPick{}, fromConnectError(err)
	}
	return res.Msg.Pick, nil
}

func (c *Client) PauseDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	res, err := c.pauseDraft.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return models.Draft{}, fromConnectError(err)
	}
	return res.Msg.Draft, nil
}

func (c *Client) ResumeDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error) {
	res, err := c.resumeDraft.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return models.Draft{}, fromConnectError(err)
	}
	return res.Msg.Draft, nil
}

func (c *Client) AbandonDraft(ctx context.Context, draftID uuid.UUID, reason string) (models.Draft, error) {
	res, err := c.abandonDraft.CallUnary(ctx, connect.NewRequest(&AbandonDraftRequest{DraftID: draftID, Reason: reason}))
	if err != nil {
		return models.Draft{}, fromConnectError(err)
	}
	return res.Msg.Draft, nil
}

func (c *Client) EnqueuePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID, position *int) ([]uuid.UUID, error) {
	res, err := c.enqueue.CallUnary(ctx, connect.NewRequest(&EnqueuePreferenceRequest{
		DraftID:  draftID,
		Seat:     seat,
		PlayerID: playerID,
		Position: position,
	}))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg.Queue, nil
}

func (c *Client) RemovePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) ([]uuid.UUID, error) {
	res, err := c.remove.CallUnary(ctx, connect.NewRequest(&RemovePreferenceRequest{DraftID: draftID, Seat: seat, PlayerID: playerID}))
	if err != nil {
		return nil, fromConnectError(err)
	}
	return res.Msg.Queue, nil
}

func (c *Client) SetAutoPick(ctx context.Context, draftID uuid.UUID, seat int, enabled bool) (models.Participant, error) {
	res, err := c.setAutoPick.CallUnary(ctx, connect.NewRequest(&SetAutoPickRequest{DraftID: draftID, Seat: seat, Enabled: enabled}))
	if err != nil {
		return models.Participant{}, fromConnectError(err)
	}
	return res.Msg.Participant, nil
}

func (c *Client) GetSnapshot(ctx context.Context, draftID uuid.UUID) (engine.Snapshot, error) {
	res, err := c.getSnapshot.CallUnary(ctx, connect.NewRequest(&DraftRequest{DraftID: draftID}))
	if err != nil {
		return engine.Snapshot{}, fromConnectError(err)
	}
	return res.Msg.Snapshot, nil
}

func fromConnectError(err error) error {
	var cerr *connect.Error
	if !errors.As(err, &cerr) {
		return err
	}
	code := drafterr.Code(cerr.Meta().Get(ErrorCodeHeader))
	if code == "" {
		return err
	}
	return drafterr.New(code, cerr.Message())
}
