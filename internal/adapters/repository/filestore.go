package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/pkg/logger"
	"github.com/okian/hotlap/pkg/metrics"
)

// quarantineStamp formats the collection timestamp embedded in the name a
// corrupted document is renamed to.
const quarantineStamp = "20060102T150405"

// FileStore keeps the full record collection in memory and persists it as
// one JSON array, rewritten wholesale on every save.
type FileStore struct {
	mu   sync.RWMutex
	path string

	records []model.Record
	byKey   map[model.Key]int // key -> index into records

	indent bool
	logger logger.Logger
}

// NewFileStore creates a store backed by the document at path.
// Call Load before anything else.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{
		path:   path,
		byKey:  make(map[model.Key]int),
		indent: true,
		logger: logger.Get().Named("repository"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Load reads the persisted document at process start.
//
// Missing file: start empty and persist immediately. Empty or whitespace
// content: start empty without rewriting. Valid JSON that is not an array
// of records: reset to empty. Invalid JSON: quarantine the file under a
// timestamped recovery name and write a fresh empty document. Only I/O
// failures surface as errors; corrupted content never aborts boot.
func (s *FileStore) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.reset(nil)
		if err := s.saveLocked(ctx); err != nil {
			return err
		}
		s.logger.Info(ctx, "initialized empty record document", logger.String("path", s.path))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		s.reset(nil)
		return nil
	}

	if !json.Valid(data) {
		if err := s.quarantine(ctx, data); err != nil {
			// Quarantine is best effort: keep booting with an empty
			// collection even when the rename itself fails.
			s.logger.Error(ctx, "quarantine failed", logger.Error(err))
		}
		s.reset(nil)
		return nil
	}

	var recs []model.Record
	if err := json.Unmarshal(data, &recs); err != nil {
		// Parses as JSON but not as a record array: reset.
		s.logger.Warn(ctx, "record document is not a record array; resetting",
			logger.String("path", s.path))
		s.reset(nil)
		return nil
	}

	s.reset(recs)
	metrics.UpdateRecordCount(len(s.records))
	s.logger.Info(ctx, "record document loaded",
		logger.String("path", s.path),
		logger.Int("records", len(s.records)),
	)
	return nil
}

// Save serializes the full collection and atomically replaces the backing
// document via a temp file and rename.
func (s *FileStore) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(ctx)
}

func (s *FileStore) saveLocked(_ context.Context) error {
	start := time.Now()

	var (
		data []byte
		err  error
	)
	if s.indent {
		data, err = json.MarshalIndent(s.records, "", "  ")
	} else {
		data, err = json.Marshal(s.records)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if s.records == nil {
		data = []byte("[]")
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: %w", ErrSave, err)
	}

	metrics.RecordStoreSaveLatency(float64(time.Since(start).Milliseconds()))
	metrics.UpdateRecordCount(len(s.records))
	return nil
}

// quarantine renames the corrupted document to a unique recovery name and
// writes a fresh empty document in its place.
func (s *FileStore) quarantine(ctx context.Context, _ []byte) error {
	stamp := time.Now().UTC().Format(quarantineStamp)
	recovery := fmt.Sprintf("%s.corrupt-%s-%s", s.path, stamp, uuid.NewString()[:8])
	if err := os.Rename(s.path, recovery); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	metrics.RecordStoreQuarantine()
	s.logger.Warn(ctx, "corrupted record document quarantined",
		logger.String("path", s.path),
		logger.String("recovery", recovery),
	)
	if err := os.WriteFile(s.path, []byte("[]"), 0o644); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return nil
}

// reset replaces the in-memory collection and rebuilds the key index.
func (s *FileStore) reset(recs []model.Record) {
	s.records = recs
	s.byKey = make(map[model.Key]int, len(recs))
	for i := range s.records {
		s.byKey[s.records[i].Key()] = i
	}
}

// NextID returns one greater than the maximum id currently present.
// The first allocated id is 1. Callers must serialize allocation with the
// insert that consumes it.
func (s *FileStore) NextID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var maxID int64
	for i := range s.records {
		if s.records[i].ID > maxID {
			maxID = s.records[i].ID
		}
	}
	return maxID + 1
}

// Find returns the record stored for a key.
func (s *FileStore) Find(_ context.Context, key model.Key) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byKey[key]
	if !ok {
		return model.Record{}, ErrNotFound
	}
	return s.records[i], nil
}

// Insert adds a new record for a key not present yet.
func (s *FileStore) Insert(_ context.Context, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byKey[rec.Key()]; ok {
		return ErrDuplicate
	}
	s.records = append(s.records, rec)
	s.byKey[rec.Key()] = len(s.records) - 1
	metrics.UpdateRecordCount(len(s.records))
	return nil
}

// Update replaces the record carrying the same id, keeping its slot so
// insertion order is preserved for tie-breaking.
func (s *FileStore) Update(_ context.Context, rec model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == rec.ID {
			delete(s.byKey, s.records[i].Key())
			s.records[i] = rec
			s.byKey[rec.Key()] = i
			return nil
		}
	}
	return ErrNotFound
}

// List returns matching records sorted ascending by timing. The sort is
// stable: equal timings keep insertion order.
func (s *FileStore) List(_ context.Context, f Filter) []model.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Record, 0, len(s.records))
	for i := range s.records {
		if f.Matches(&s.records[i]) {
			out = append(out, s.records[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timing < out[j].Timing
	})
	return out
}

// BestGhost returns the fastest matching record that has a ghost attached.
func (s *FileStore) BestGhost(_ context.Context, f Filter, driverID string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		best  model.Record
		found bool
	)
	for i := range s.records {
		r := &s.records[i]
		if !f.Matches(r) || !r.HasGhost() {
			continue
		}
		if driverID != "" && r.DriverID != driverID {
			continue
		}
		if !found || r.Timing < best.Timing {
			best = *r
			found = true
		}
	}
	if !found {
		return model.Record{}, ErrNotFound
	}
	return best, nil
}

// Count returns the number of records tracked.
func (s *FileStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
