// Package app provides the core business service that implements the
// dependencies required by the HTTP API.
package app

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"time"

	"github.com/okian/hotlap/internal/adapters/blob"
	"github.com/okian/hotlap/internal/adapters/repository"
	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/internal/domain/types"
	"github.com/okian/hotlap/pkg/logger"
	"github.com/okian/hotlap/pkg/metrics"
)

// Service implements the API dependencies for the time-trial leaderboard.
//
// One mutex serializes every read-modify-write-persist sequence on the
// record store: a mutation and the save it triggers are a single unit with
// respect to other mutations. Reads take the same lock only long enough to
// snapshot from the store.
type Service struct {
	mu sync.Mutex

	// Core components
	records repository.Store
	blobs   blob.Store

	// Configuration
	recordsPath string
	ghostDir    string
	ghostExt    string
	s3          *blob.S3Config

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithRecordsPath sets the path of the persisted record document.
func WithRecordsPath(path string) Option {
	return func(s *Service) {
		if path != "" {
			s.recordsPath = path
		}
	}
}

// WithGhostDir sets the local ghost directory for the disk backend.
func WithGhostDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.ghostDir = dir
		}
	}
}

// WithGhostExt sets the stored replay file extension.
func WithGhostExt(ext string) Option {
	return func(s *Service) {
		if ext != "" {
			s.ghostExt = ext
		}
	}
}

// WithS3 selects the remote blob backend. When unset the disk backend is
// used; the choice is made once in Start and never revisited.
func WithS3(cfg blob.S3Config) Option {
	return func(s *Service) {
		s.s3 = &cfg
	}
}

// WithRecordStore injects a pre-built record store, mainly for tests.
func WithRecordStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.records = store
		}
	}
}

// WithBlobStore injects a pre-built blob store, mainly for tests.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.blobs = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		recordsPath: "data/records.json",
		ghostDir:    "data/ghosts",
		ghostExt:    blob.DefaultExt,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start builds the record and blob stores and loads persisted state.
// Corrupted record documents are quarantined inside Load; Start fails only
// on real I/O or backend errors.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting leaderboard service...")

	if s.records == nil {
		s.records = repository.NewFileStore(s.recordsPath,
			repository.WithLogger(s.logger.Named("repository")),
		)
	}
	if err := s.records.Load(ctx); err != nil {
		return err
	}

	if s.blobs == nil {
		var err error
		if s.s3 != nil {
			s.blobs, err = blob.NewS3Store(ctx, *s.s3,
				blob.WithS3Extension(s.ghostExt),
				blob.WithS3Logger(s.logger.Named("blob")),
			)
		} else {
			s.blobs, err = blob.NewDiskStore(s.ghostDir,
				blob.WithDiskExtension(s.ghostExt),
				blob.WithDiskLogger(s.logger.Named("blob")),
			)
		}
		if err != nil {
			return err
		}
	}

	s.started = true
	s.logger.Info(ctx, "leaderboard service started",
		logger.String("backend", s.blobs.Backend()),
		logger.Int("records", s.records.Count(ctx)),
	)

	return nil
}

// Stop shuts down the service. State is persisted after every mutation, so
// there is nothing to flush here.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.started = false
	s.logger.Info(context.Background(), "leaderboard service stopped")
}

// SubmitTime records a lap time for a (driver, combo) key: first submission
// creates a record, a strictly faster one updates it, anything else is
// ignored. The store is persisted on created and updated_best only;
// persistence failure aborts the operation and surfaces to the caller.
func (s *Service) SubmitTime(ctx context.Context, sub model.Submission) (types.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return types.SubmitResult{}, ErrNotStarted
	}

	rec, outcome, err := s.upsertLocked(ctx, sub, nil)
	if err != nil {
		return types.SubmitResult{}, err
	}

	metrics.RecordSubmission(string(outcome))
	s.logger.Debug(ctx, "lap time submitted",
		logger.String("driver", sub.DriverID),
		logger.Float64("timing", sub.Timing),
		logger.String("outcome", string(outcome)),
	)
	return types.SubmitResult{Status: string(outcome), ID: rec.ID, Timing: rec.Timing}, nil
}

// ghostRef carries the verified blob reference attached during an upload.
type ghostRef struct {
	locator  string
	remote   bool
	sha256   string
	byteSize int64
}

// upsertLocked implements the best-time merge. ghost, when non-nil, is
// attached to the record on created and updated_best. Caller holds s.mu.
func (s *Service) upsertLocked(ctx context.Context, sub model.Submission, ghost *ghostRef) (model.Record, model.SubmitOutcome, error) {
	key := model.Key{DriverID: sub.DriverID, Combo: sub.Combo}

	existing, err := s.records.Find(ctx, key)
	switch {
	case err == nil && sub.Timing >= existing.Timing:
		// An equal-timing upload is the submit-then-upload flow for the
		// lap already on the board: attach the blob to the record instead
		// of dropping the reference.
		if ghost != nil && sub.Timing == existing.Timing && existing.SHA256 != ghost.sha256 {
			applyGhost(&existing, ghost)
			existing.UpdatedAt = time.Now().UTC()
			if err := s.records.Update(ctx, existing); err != nil {
				return model.Record{}, "", err
			}
			if err := s.records.Save(ctx); err != nil {
				return model.Record{}, "", err
			}
			return existing, model.OutcomeUpdatedBest, nil
		}
		return existing, model.OutcomeIgnoredSlower, nil

	case err == nil:
		existing.Timing = sub.Timing
		existing.GhostLength = sub.GhostLength
		existing.Name = sub.Name
		existing.UpdatedAt = time.Now().UTC()
		applyGhost(&existing, ghost)
		if err := s.records.Update(ctx, existing); err != nil {
			return model.Record{}, "", err
		}
		if err := s.records.Save(ctx); err != nil {
			return model.Record{}, "", err
		}
		return existing, model.OutcomeUpdatedBest, nil

	default:
		rec := model.Record{
			ID:          s.records.NextID(),
			DriverID:    sub.DriverID,
			Name:        sub.Name,
			Car:         sub.Combo.Car,
			Track:       sub.Combo.Track,
			Layout:      sub.Combo.Layout,
			Condition:   sub.Combo.Condition,
			Weather:     sub.Combo.Weather,
			Timing:      sub.Timing,
			GhostLength: sub.GhostLength,
			UpdatedAt:   time.Now().UTC(),
		}
		applyGhost(&rec, ghost)
		if err := s.records.Insert(ctx, rec); err != nil {
			return model.Record{}, "", err
		}
		if err := s.records.Save(ctx); err != nil {
			return model.Record{}, "", err
		}
		return rec, model.OutcomeCreated, nil
	}
}

func applyGhost(rec *model.Record, ghost *ghostRef) {
	if ghost == nil {
		return
	}
	if ghost.remote {
		rec.ObjectKey = ghost.locator
		rec.LocalPath = ""
	} else {
		rec.LocalPath = ghost.locator
		rec.ObjectKey = ""
	}
	rec.SHA256 = ghost.sha256
	rec.ByteSize = ghost.byteSize
}

// AttachGhost verifies the payload digest, stores the blob, and runs the
// best-time merge with the blob reference attached. An upload matching the
// stored best timing attaches the blob to that record.
//
// Ordering is fixed: verify integrity, write blob, update record, persist.
// The declared size is never trusted; the verified byte length is recorded.
// A blob written for a slower-than-best upload stays orphaned, which is
// accepted; any persistence failure after the blob write still surfaces.
func (s *Service) AttachGhost(ctx context.Context, up model.GhostUpload, payload []byte) (types.UploadReceipt, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return types.UploadReceipt{}, ErrNotStarted
	}
	blobs := s.blobs
	s.mu.Unlock()

	declared := blob.NormalizeDigest(up.SHA256)
	sum := sha256.Sum256(payload)
	computed := hex.EncodeToString(sum[:])
	if computed != declared {
		metrics.RecordIntegrityRejection()
		return types.UploadReceipt{}, &IntegrityError{Declared: declared, Computed: computed}
	}

	size := int64(len(payload))
	locator, err := blobs.Put(ctx, computed, bytes.NewReader(payload), size)
	if err != nil {
		return types.UploadReceipt{}, err
	}

	s.mu.Lock()
	_, outcome, err := s.upsertLocked(ctx, up.Submission, &ghostRef{
		locator:  locator,
		remote:   blobs.Backend() == blob.BackendS3,
		sha256:   computed,
		byteSize: size,
	})
	s.mu.Unlock()
	if err != nil {
		return types.UploadReceipt{}, err
	}

	metrics.RecordGhostUpload()
	metrics.AddGhostBytes(size)
	metrics.RecordSubmission(string(outcome))
	s.logger.Info(ctx, "ghost stored",
		logger.String("driver", up.DriverID),
		logger.String("backend", blobs.Backend()),
		logger.String("locator", locator),
		logger.Int64("size", size),
		logger.String("outcome", string(outcome)),
	)
	return types.UploadReceipt{Backend: blobs.Backend(), Key: locator, Size: size}, nil
}

// Leaderboard returns matching records as public projections, ascending by
// timing. A service that was never started has nothing to list.
func (s *Service) Leaderboard(ctx context.Context, f repository.Filter) []types.Row {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	records := s.records
	s.mu.Unlock()

	recs := records.List(ctx, f)

	rows := make([]types.Row, len(recs))
	for i := range recs {
		rows[i] = types.Row{
			ID:        recs[i].ID,
			DriverID:  recs[i].DriverID,
			Name:      recs[i].Name,
			Car:       recs[i].Car,
			Track:     recs[i].Track,
			Layout:    recs[i].Layout,
			Condition: recs[i].Condition,
			Weather:   recs[i].Weather,
			Timing:    recs[i].Timing,
		}
	}
	return rows
}

// BestGhost streams the replay of the fastest matching record that has one.
// Returns repository.ErrNotFound when no record qualifies and
// blob.ErrNotFound when the referenced blob is gone.
func (s *Service) BestGhost(ctx context.Context, f repository.Filter, driverID string) (io.ReadCloser, int64, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, 0, ErrNotStarted
	}
	records, blobs := s.records, s.blobs
	s.mu.Unlock()

	rec, err := records.BestGhost(ctx, f, driverID)
	if err != nil {
		return nil, 0, err
	}
	return blobs.Open(ctx, rec.Locator())
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]interface{}{
		"started": s.started,
	}
	if s.started {
		count := s.records.Count(context.Background())
		stats["records"] = count
		stats["backend"] = s.blobs.Backend()
		metrics.UpdateRecordCount(count)
	}
	return stats
}
