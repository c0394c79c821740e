package gateway

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/mcdev12/dynasty-draft/go/internal/draft/engine"
	"github.com/mcdev12/dynasty-draft/go/internal/drafterr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// RouterConfig controls the HTTP surface in front of the engine.
type RouterConfig struct {
	AllowedOrigins []string
	// RateLimit is the per-IP request rate for command procedures; zero disables limiting.
	RateLimit rate.Limit
	RateBurst int
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
}

// NewRouter serves the command RPC service, the REST snapshot, observer websockets, health and
// metrics.
func NewRouter(e Engine, hub *Hub, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	h := &httpHandler{engine: e, hub: hub}
	r.Get("/health", h.health)
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/api/connections", h.connections)
	r.Get("/api/drafts/{draftID}/snapshot", h.snapshot)
	r.Get("/ws/drafts/{draftID}", h.websocket)

	path, rpc := NewDraftServiceHandler(NewDraftService(e))
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		rpc = RateLimit(NewIPRateLimiter(cfg.RateLimit, burst))(rpc)
	}
	r.Handle(path+"*", rpc)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowedOrigins: origins,
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{ErrorCodeHeader},
	})
	return c.Handler(r)
}

type httpHandler struct {
	engine Engine
	hub    *Hub
}

func (h *httpHandler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

func (h *httpHandler) connections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Stats())
}

func (h *httpHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	draftID, ok := parseDraftID(w, r)
	if !ok {
		return
	}
	snap, err := h.engine.GetSnapshot(r.Context(), draftID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *httpHandler) websocket(w http.ResponseWriter, r *http.Request) {
	draftID, ok := parseDraftID(w, r)
	if !ok {
		return
	}
	if _, err := h.engine.GetSnapshot(r.Context(), draftID); err != nil {
		writeError(w, err)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	if err := h.hub.Serve(w, r, userID, draftID, func(ctx context.Context) (engine.Snapshot, error) {
		return h.engine.GetSnapshot(ctx, draftID)
	}); err != nil {
		// The upgrader has already answered the request.
		log.Error().
			Err(err).
			Str("draft_id", draftID.String()).
			Str("user_id", userID).
			Msg("failed to serve WebSocket connection")
	}
}

func parseDraftID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	draftID, err := uuid.Parse(chi.URLParam(r, "draftID"))
	if err != nil {
		writeError(w, drafterr.New(drafterr.CodeInvalidArgument, "invalid draft id"))
		return uuid.Nil, false
	}
	return draftID, true
}

type errorBody struct {
	Code     drafterr.Code     `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	code := drafterr.CodeOf(err)
	w.Header().Set(ErrorCodeHeader, string(code))
	writeJSON(w, code.HTTPStatus(), errorBody{
		Code:     code,
		Message:  err.Error(),
		Metadata: drafterr.MetadataOf(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}
