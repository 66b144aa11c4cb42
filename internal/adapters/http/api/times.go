// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/internal/domain/types"
)

// TimesDependencies defines the interface for lap-time submissions.
type TimesDependencies interface {
	SubmitTime(ctx context.Context, sub model.Submission) (types.SubmitResult, error)
}

// TimesHandler handles lap-time submission requests.
type TimesHandler struct {
	deps TimesDependencies
}

// NewTimesHandler creates a new times handler.
func NewTimesHandler(deps TimesDependencies) *TimesHandler {
	return &TimesHandler{deps: deps}
}

// timeRequest mirrors the JSON schema for POST /times.
type timeRequest struct {
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	Car         int     `json:"car"`
	Track       int     `json:"track"`
	Layout      int     `json:"layout"`
	Condition   int     `json:"condition"`
	Weather     int     `json:"weather"`
	Timing      float64 `json:"timing"`
	GhostLength int     `json:"ghost_length"`
}

func (t timeRequest) validate() error {
	switch {
	case strings.TrimSpace(t.DriverID) == "":
		return fmt.Errorf("%w: missing driver_id", ErrValidation)
	case t.Car < 0 || t.Track < 0 || t.Layout < 0 || t.Condition < 0 || t.Weather < 0:
		return fmt.Errorf("%w: category codes must be non-negative", ErrValidation)
	case t.Timing <= 0:
		return fmt.Errorf("%w: timing must be positive", ErrValidation)
	case t.GhostLength < 0:
		return fmt.Errorf("%w: ghost_length must be non-negative", ErrValidation)
	}
	return nil
}

func (t timeRequest) submission() model.Submission {
	return model.Submission{
		DriverID: t.DriverID,
		Name:     t.Name,
		Combo: model.Combo{
			Car:       t.Car,
			Track:     t.Track,
			Layout:    t.Layout,
			Condition: t.Condition,
			Weather:   t.Weather,
		},
		Timing:      t.Timing,
		GhostLength: t.GhostLength,
	}
}

// HandlePostTime handles POST /times requests.
func (h *TimesHandler) HandlePostTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req timeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}

	res, err := h.deps.SubmitTime(r.Context(), req.submission())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}

	status := http.StatusOK
	if res.Status == string(model.OutcomeCreated) {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
