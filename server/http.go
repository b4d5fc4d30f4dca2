package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cnosuke/mcp-wayback/archive"
	"github.com/cnosuke/mcp-wayback/internal/tracelog"
	"github.com/cnosuke/mcp-wayback/types"
	"github.com/cnosuke/mcp-wayback/wayback"
)

const (
	msgInvalidBody   = "Invalid request body"
	msgInvalidTarget = "Target is required and must be a non-empty string"
	maxRequestBytes  = 64 * 1024
)

// API serves the wayback HTTP endpoints.
type API struct {
	registry *archive.Registry
	wayback  *wayback.Adapter
	logLevel zapcore.LevelEnabler
}

// NewAPI creates the HTTP API. Trace logs returned to callers include entries
// at or above logLevel.
func NewAPI(registry *archive.Registry, wb *wayback.Adapter, logLevel zapcore.LevelEnabler) *API {
	return &API{registry: registry, wayback: wb, logLevel: logLevel}
}

// Router builds the chi router.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/adapters", a.handleAdapters)
		r.Post("/test", a.handleTest)
		r.Post("/wayback", a.handleWayback)
		r.Get("/wayback/snapshots", a.handleSnapshots)
	})
	return r
}

// requestLogger logs each request with zap once it has been served.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.S().Infow("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()))
		}()
		next.ServeHTTP(ww, r)
	})
}

type testRequest struct {
	Target  json.RawMessage `json:"target"`
	Adapter string          `json:"adapter,omitempty"`
}

// targetFromJSON accepts only JSON strings with non-blank content.
func targetFromJSON(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// startTrace attaches a trace recorder and a run id to the request context.
func (a *API) startTrace(r *http.Request) (context.Context, *tracelog.Recorder) {
	ctx, rec := tracelog.Start(r.Context(), a.logLevel)
	runID := uuid.NewString()
	log := tracelog.FromContext(ctx).With("run_id", runID)
	return tracelog.WithLogger(ctx, log), rec
}

func (a *API) handleWayback(w http.ResponseWriter, r *http.Request) {
	ctx, rec := a.startTrace(r)
	a.runTest(ctx, w, r, rec, func(target string) (archive.Adapter, error) {
		return a.wayback, nil
	})
}

// handleTest routes the target through the registry, or to the adapter named
// in the request.
func (a *API) handleTest(w http.ResponseWriter, r *http.Request) {
	ctx, rec := a.startTrace(r)
	a.runTest(ctx, w, r, rec, nil)
}

func (a *API) runTest(ctx context.Context, w http.ResponseWriter, r *http.Request, rec *tracelog.Recorder, pick func(string) (archive.Adapter, error)) {
	log := tracelog.FromContext(ctx)

	var req testRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		log.Warnw("invalid request body", "error", err)
		writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: msgInvalidBody, Error: err.Error(), Logs: rec.Lines()})
		return
	}

	target, ok := targetFromJSON(req.Target)
	if !ok {
		log.Warnw("invalid target", "target", string(req.Target))
		writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: msgInvalidTarget, Logs: rec.Lines()})
		return
	}

	if pick == nil {
		pick = func(target string) (archive.Adapter, error) {
			if req.Adapter != "" {
				ad, found := a.registry.Get(req.Adapter)
				if !found {
					return nil, errors.Wrapf(archive.ErrNoAdapter, "unknown adapter %q", req.Adapter)
				}
				return ad, nil
			}
			return a.registry.Route(target)
		}
	}
	adapter, err := pick(target)
	if err != nil {
		log.Warnw("no adapter for target", "target", target, "error", err)
		writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: err.Error(), Logs: rec.Lines()})
		return
	}
	if !adapter.CanHandle(target) {
		writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: msgInvalidTarget, Logs: rec.Lines()})
		return
	}

	log.Infow("received test request", "target", target, "adapter", adapter.Name())
	outcome, err := adapter.Test(ctx, target)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, &types.APIResponse{
			Message: err.Error(),
			Error:   cause(err).Error(),
			Logs:    rec.Lines(),
		})
		return
	}

	writeJSON(w, http.StatusOK, &types.APIResponse{
		Success: true,
		Data:    []*types.TestOutcome{outcome},
		Logs:    rec.Lines(),
	})
}

func (a *API) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	ctx, rec := a.startTrace(r)

	target := r.URL.Query().Get("target")
	if !a.wayback.CanHandle(target) {
		writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: msgInvalidTarget, Logs: rec.Lines()})
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, &types.APIResponse{Message: "limit must be a non-negative integer", Logs: rec.Lines()})
			return
		}
		limit = n
	}

	snapshots, err := a.wayback.GetSnapshots(ctx, target, limit)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, &types.APIResponse{Message: err.Error(), Logs: rec.Lines()})
		return
	}
	writeJSON(w, http.StatusOK, &types.SnapshotsResponse{
		Target:    target,
		Count:     len(snapshots),
		Snapshots: snapshots,
	})
}

func (a *API) handleAdapters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"adapters": a.registry.Names()})
}

// cause strips the adapter-level wrapper, leaving the underlying failure.
func cause(err error) error {
	if inner := errors.UnwrapOnce(err); inner != nil {
		return inner
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("failed to write JSON response", "error", err)
	}
}
