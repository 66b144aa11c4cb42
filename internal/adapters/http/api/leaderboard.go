// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/okian/hotlap/internal/adapters/repository"
	"github.com/okian/hotlap/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard listings.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, f repository.Filter) []types.Row
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// filterFromQuery reads the five category filters from the query string.
// An omitted parameter means "match any", the same as passing -1.
func filterFromQuery(r *http.Request) (repository.Filter, error) {
	f := repository.NewFilter()
	q := r.URL.Query()
	for name, dst := range map[string]*int{
		"car":       &f.Car,
		"track":     &f.Track,
		"layout":    &f.Layout,
		"condition": &f.Condition,
		"weather":   &f.Weather,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return repository.Filter{}, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
		}
		*dst = n
	}
	return f, nil
}

// HandleGetLeaderboard handles GET /leaderboard requests.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	rows := h.deps.Leaderboard(r.Context(), f)
	writeJSON(w, http.StatusOK, rows)
}
