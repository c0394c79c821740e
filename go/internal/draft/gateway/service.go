package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/mcdev12/dynasty-draft/go/internal/models"
)

// DraftServiceName is the fully-qualified name of the draft command service.
const DraftServiceName = "draft.v1.DraftService"

// Procedure paths of draft.v1.DraftService.
const (
	DraftServiceStartDraftProcedure        = "/draft.v1.DraftService/StartDraft"
	DraftServiceBeginLiveProcedure         = "/draft.v1.DraftService/BeginLive"
	DraftServiceSubmitPickProcedure        = "/draft.v1.DraftService/SubmitPick"
	DraftServicePauseDraftProcedure        = "/draft.v1.DraftService/PauseDraft"
	DraftServiceResumeDraftProcedure       = "/draft.v1.DraftService/ResumeDraft"
	DraftServiceAbandonDraftProcedure      = "/draft.v1.DraftService/AbandonDraft"
	DraftServiceEnqueuePreferenceProcedure = "/draft.v1.DraftService/EnqueuePreference"
	DraftServiceRemovePreferenceProcedure  = "/draft.v1.DraftService/RemovePreference"
	DraftServiceSetAutoPickProcedure       = "/draft.v1.DraftService/SetAutoPick"
	DraftServiceGetSnapshotProcedure       = "/draft.v1.DraftService/GetSnapshot"
)

// ErrorCodeHeader carries the machine-readable drafterr code of a failed command.
const ErrorCodeHeader = "Draft-Error-Code"

// Engine is the command surface served over RPC.
type Engine interface {
	StartDraft(ctx context.Context, req engine.StartDraftRequest) (models.Draft, error)
	BeginLive(ctx context.Context, draftID uuid.UUID) (models.Draft, error)
	SubmitPick(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) (models.DraftPick, error)
	PauseDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error)
	ResumeDraft(ctx context.Context, draftID uuid.UUID) (models.Draft, error)
	AbandonDraft(ctx context.Context, draftID uuid.UUID, reason string) (models.Draft, error)
	EnqueuePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID, position *int) ([]uuid.UUID, error)
	RemovePreference(ctx context.Context, draftID uuid.UUID, seat int, playerID uuid.UUID) ([]uuid.UUID, error)
	SetAutoPick(ctx context.Context, draftID uuid.UUID, seat int, enabled bool) (models.Participant, error)
	GetSnapshot(ctx context.Context, draftID uuid.UUID) (engine.Snapshot, error)
}

// jsonCodec replaces connect's protobuf JSON codec so plain Go structs can be used as messages.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// DraftService implements draft.v1.DraftService on top of the engine.
type DraftService struct {
	engine Engine
}

func NewDraftService(e Engine) *DraftService {
	return &DraftService{engine: e}
}

func (s *DraftService) StartDraft(ctx context.Context, req *connect.Request[StartDraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.engine.StartDraft(ctx, *req.Msg)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *DraftService) BeginLive(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.engine.BeginLive(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *DraftService) SubmitPick(ctx context.Context, req *connect.Request[SubmitPickRequest]) (*connect.Response[SubmitPickResponse], error) {
	pick, err := s.engine.SubmitPick(ctx, req.Msg.DraftID, req.Msg.Seat, req.Msg.PlayerID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&SubmitPickResponse{Pick: pick}), nil
}

func (s *DraftService) PauseDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.engine.PauseDraft(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *DraftService) ResumeDraft(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.engine.ResumeDraft(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *DraftService) AbandonDraft(ctx context.Context, req *connect.Request[AbandonDraftRequest]) (*connect.Response[DraftResponse], error) {
	d, err := s.engine.AbandonDraft(ctx, req.Msg.DraftID, req.Msg.Reason)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&DraftResponse{Draft: d}), nil
}

func (s *DraftService) EnqueuePreference(ctx context.Context, req *connect.Request[EnqueuePreferenceRequest]) (*connect.Response[QueueResponse], error) {
	queue, err := s.engine.EnqueuePreference(ctx, req.Msg.DraftID, req.Msg.Seat, req.Msg.PlayerID, req.Msg.Position)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&QueueResponse{Seat: req.Msg.Seat, Queue: queue}), nil
}

func (s *DraftService) RemovePreference(ctx context.Context, req *connect.Request[RemovePreferenceRequest]) (*connect.Response[QueueResponse], error) {
	queue, err := s.engine.RemovePreference(ctx, req.Msg.DraftID, req.Msg.Seat, req.Msg.PlayerID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&QueueResponse{Seat: req.Msg.Seat, Queue: queue}), nil
}

func (s *DraftService) SetAutoPick(ctx context.Context, req *connect.Request[SetAutoPickRequest]) (*connect.Response[ParticipantResponse], error) {
	p, err := s.engine.SetAutoPick(ctx, req.Msg.DraftID, req.Msg.Seat, req.Msg.Enabled)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&ParticipantResponse{Participant: p}), nil
}

func (s *DraftService) GetSnapshot(ctx context.Context, req *connect.Request[DraftRequest]) (*connect.Response[SnapshotResponse], error) {
	snap, err := s.engine.GetSnapshot(ctx, req.Msg.DraftID)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&SnapshotResponse{Snapshot: snap}), nil
}

// NewDraftServiceHandler builds an HTTP handler serving every procedure of the service. It
// returns the path prefix to mount the handler on.
func NewDraftServiceHandler(svc *DraftService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	startDraft := connect.NewUnaryHandler(DraftServiceStartDraftProcedure, svc.StartDraft, opts...)
	beginLive := connect.NewUnaryHandler(DraftServiceBeginLiveProcedure, svc.BeginLive, opts...)
	submitPick := connect.NewUnaryHandler(DraftServiceSubmitPickProcedure, svc.SubmitPick, opts...)
	pauseDraft := connect.NewUnaryHandler(DraftServicePauseDraftProcedure, svc.PauseDraft, opts...)
	resumeDraft := connect.NewUnaryHandler(DraftServiceResumeDraftProcedure, svc.ResumeDraft, opts...)
	abandonDraft := connect.NewUnaryHandler(DraftServiceAbandonDraftProcedure, svc.AbandonDraft, opts...)
	enqueue := connect.NewUnaryHandler(DraftServiceEnqueuePreferenceProcedure, svc.EnqueuePreference, opts...)
	remove := connect.NewUnaryHandler(DraftServiceRemovePreferenceProcedure, svc.RemovePreference, opts...)
	setAutoPick := connect.NewUnaryHandler(DraftServiceSetAutoPickProcedure, svc.SetAutoPick, opts...)
	getSnapshot := connect.NewUnaryHandler(DraftServiceGetSnapshotProcedure, svc.GetSnapshot, opts...)

	return "/" + DraftServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case DraftServiceStartDraftProcedure:
			startDraft.ServeHTTP(w, r)
		case DraftServiceBeginLiveProcedure:
			beginLive.ServeHTTP(w, r)
		case DraftServiceSubmitPickProcedure:
			submitPick.ServeHTTP(w, r)
		case DraftServicePauseDraftProcedure:
			pauseDraft.ServeHTTP(w, r)
		case DraftServiceResumeDraftProcedure:
			resumeDraft.ServeHTTP(w, r)
		case DraftServiceAbandonDraftProcedure:
			abandonDraft.ServeHTTP(w, r)
		case DraftServiceEnqueuePreferenceProcedure:
			enqueue.ServeHTTP(w, r)
		case DraftServiceRemovePreferenceProcedure:
			remove.ServeHTTP(w, r)
		case DraftServiceSetAutoPickProcedure:
			setAutoPick.ServeHTTP(w, r)
		case DraftServiceGetSnapshotProcedure:
			getSnapshot.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// connectError maps a domain error onto an RPC status and tags it with its drafterr code.
func connectError(err error) error {
	code := drafterr.CodeOf(err)
	cerr := connect.NewError(code.ConnectCode(), err)
	cerr.Meta().Set(ErrorCodeHeader, string(code))
	return cerr
}
