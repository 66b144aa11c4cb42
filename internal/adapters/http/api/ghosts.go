// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/hotlap/internal/adapters/repository"
	"github.com/okian/hotlap/internal/app"
	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/internal/domain/types"
)

// defaultMaxUploadBytes caps ghost payloads when no limit is configured.
const defaultMaxUploadBytes = 32 << 20

// GhostsDependencies defines the interface for ghost upload and download.
type GhostsDependencies interface {
	AttachGhost(ctx context.Context, up model.GhostUpload, payload []byte) (types.UploadReceipt, error)
	BestGhost(ctx context.Context, f repository.Filter, driverID string) (io.ReadCloser, int64, error)
}

// GhostsHandler handles ghost requests.
type GhostsHandler struct {
	deps     GhostsDependencies
	maxBytes int64
}

// NewGhostsHandler creates a new ghosts handler.
func NewGhostsHandler(deps GhostsDependencies, maxBytes int64) *GhostsHandler {
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &GhostsHandler{deps: deps, maxBytes: maxBytes}
}

// uploadRequest is the typed form of the multipart field map. Every field
// is validated before any business logic runs.
type uploadRequest struct {
	DriverID     string
	Name         string
	Car          int
	Track        int
	Layout       int
	Condition    int
	Weather      int
	Timing       float64
	GhostLength  int
	SHA256       string
	DeclaredSize int64
}

func (u uploadRequest) validate() error {
	switch {
	case strings.TrimSpace(u.DriverID) == "":
		return fmt.Errorf("%w: missing driver_id", ErrValidation)
	case u.Car < 0 || u.Track < 0 || u.Layout < 0 || u.Condition < 0 || u.Weather < 0:
		return fmt.Errorf("%w: category codes must be non-negative", ErrValidation)
	case u.Timing <= 0:
		return fmt.Errorf("%w: timing must be positive", ErrValidation)
	case u.GhostLength < 0:
		return fmt.Errorf("%w: ghost_length must be non-negative", ErrValidation)
	case len(u.SHA256) != 64:
		return fmt.Errorf("%w: sha256 must be 64 hex characters", ErrValidation)
	}
	for _, c := range strings.ToLower(u.SHA256) {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return fmt.Errorf("%w: sha256 must be 64 hex characters", ErrValidation)
		}
	}
	return nil
}

func (u uploadRequest) upload() model.GhostUpload {
	return model.GhostUpload{
		Submission: model.Submission{
			DriverID: u.DriverID,
			Name:     u.Name,
			Combo: model.Combo{
				Car:       u.Car,
				Track:     u.Track,
				Layout:    u.Layout,
				Condition: u.Condition,
				Weather:   u.Weather,
			},
			Timing:      u.Timing,
			GhostLength: u.GhostLength,
		},
		SHA256:       u.SHA256,
		DeclaredSize: u.DeclaredSize,
	}
}

func formInt(r *http.Request, field string) (int, error) {
	v := r.FormValue(field)
	if v == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrValidation, field)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", ErrValidation, field)
	}
	return n, nil
}

// parseUploadForm turns the multipart field map into a typed request plus
// the raw replay payload.
func (h *GhostsHandler) parseUploadForm(r *http.Request) (uploadRequest, []byte, error) {
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return uploadRequest{}, nil, fmt.Errorf("%w: invalid multipart body", ErrValidation)
	}

	var (
		req uploadRequest
		err error
	)
	req.DriverID = r.FormValue("driver_id")
	req.Name = r.FormValue("name")
	if req.Car, err = formInt(r, "car"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.Track, err = formInt(r, "track"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.Layout, err = formInt(r, "layout"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.Condition, err = formInt(r, "condition"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.Weather, err = formInt(r, "weather"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.GhostLength, err = formInt(r, "ghost_length"); err != nil {
		return uploadRequest{}, nil, err
	}
	if req.Timing, err = strconv.ParseFloat(r.FormValue("timing"), 64); err != nil {
		return uploadRequest{}, nil, fmt.Errorf("%w: invalid timing", ErrValidation)
	}
	req.SHA256 = r.FormValue("sha256")
	// The declared size is diagnostic only; the payload is measured.
	req.DeclaredSize, _ = strconv.ParseInt(r.FormValue("size"), 10, 64)

	if err := req.validate(); err != nil {
		return uploadRequest{}, nil, err
	}

	file, _, err := r.FormFile("ghost")
	if err != nil {
		return uploadRequest{}, nil, fmt.Errorf("%w: missing ghost file part", ErrValidation)
	}
	defer func() { _ = file.Close() }()

	payload, err := io.ReadAll(file)
	if err != nil {
		return uploadRequest{}, nil, fmt.Errorf("%w: unreadable ghost payload", ErrValidation)
	}
	return req, payload, nil
}

// HandlePostGhost handles POST /ghosts multipart requests.
func (h *GhostsHandler) HandlePostGhost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	req, payload, err := h.parseUploadForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_error", err)
		return
	}

	receipt, err := h.deps.AttachGhost(r.Context(), req.upload(), payload)
	if err != nil {
		var integrity *app.IntegrityError
		if errors.As(err, &integrity) {
			writeError(w, http.StatusUnprocessableEntity, "integrity_error", integrity)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// HandleGetGhost handles GET /ghost requests: it streams the fastest
// matching replay.
func (h *GhostsHandler) HandleGetGhost(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	stream, length, err := h.deps.BestGhost(r.Context(), f, r.URL.Query().Get("driver_id"))
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	defer func() { _ = stream.Close() }()

	w.Header().Set("Content-Type", "application/octet-stream")
	if length > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, stream)
}
