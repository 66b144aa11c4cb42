// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/okian/hotlap/internal/adapters/blob"
	"github.com/okian/hotlap/internal/adapters/repository"
	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitTime(ctx context.Context, sub model.Submission) (types.SubmitResult, error)
	AttachGhost(ctx context.Context, up model.GhostUpload, payload []byte) (types.UploadReceipt, error)
	Leaderboard(ctx context.Context, f repository.Filter) []types.Row
	BestGhost(ctx context.Context, f repository.Filter, driverID string) (io.ReadCloser, int64, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	timesHandler       *TimesHandler
	ghostsHandler      *GhostsHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxUploadBytes int64) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		timesHandler:       NewTimesHandler(deps),
		ghostsHandler:      NewGhostsHandler(deps, maxUploadBytes),
		leaderboardHandler: NewLeaderboardHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/times", MetricsMiddleware(s.timesHandler.HandlePostTime, "times"))
	mux.HandleFunc("/ghosts", MetricsMiddleware(s.ghostsHandler.HandlePostGhost, "ghosts"))
	mux.HandleFunc("/ghost", MetricsMiddleware(s.ghostsHandler.HandleGetGhost, "ghost"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, blob.ErrNotFound)
}
