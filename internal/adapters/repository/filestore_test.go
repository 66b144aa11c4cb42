package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/hotlap/internal/domain/model"
	"github.com/okian/hotlap/pkg/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "records.json")
	return NewFileStore(path), path
}

func record(id int64, driver string, track int, timing float64) model.Record {
	return model.Record{
		ID:        id,
		DriverID:  driver,
		Name:      driver,
		Track:     track,
		Timing:    timing,
		UpdatedAt: time.Now().UTC(),
	}
}

func TestFileStore_LoadMissingFile(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if err := store.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	// The document must be written immediately.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("document not created: %v", err)
	}
	if !json.Valid(data) {
		t.Errorf("document is not valid JSON: %q", data)
	}
}

func TestFileStore_LoadEmptyFile(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if err := os.WriteFile(path, []byte("  \n\t "), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	// Whitespace-only content must not be rewritten.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "  \n\t " {
		t.Errorf("empty document was rewritten: %q", data)
	}
}

func TestFileStore_LoadNonArray(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if err := os.WriteFile(path, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := store.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected reset to empty, got %d records", count)
	}
}

func TestFileStore_LoadCorruptQuarantines(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	corrupt := `[{"id": 1, "driverId": "a", truncated`
	if err := os.WriteFile(path, []byte(corrupt), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Load(ctx); err != nil {
		t.Fatalf("load over corrupt content must not fail: %v", err)
	}
	if count := store.Count(ctx); count != 0 {
		t.Errorf("expected count 0, got %d", count)
	}

	// Original content must survive under a recovery name.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	var recovered string
	for _, e := range entries {
		if strings.Contains(e.Name(), ".corrupt-") {
			recovered = filepath.Join(filepath.Dir(path), e.Name())
		}
	}
	if recovered == "" {
		t.Fatal("no recovery file found")
	}
	data, err := os.ReadFile(recovered)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != corrupt {
		t.Errorf("recovery file content changed: %q", data)
	}

	// The fresh document must be an empty array.
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("expected fresh empty document, got %q", data)
	}

	// A subsequent save starts from the empty collection.
	if err := store.Save(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFileStore_SaveLoadRoundtrip(t *testing.T) {
	ctx := context.Background()
	store, path := newTestStore(t)

	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}
	rec := record(1, "driver-a", 2, 90.5)
	rec.LocalPath = "abc.tsreplay"
	rec.SHA256 = strings.Repeat("ab", 32)
	rec.ByteSize = 4096
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(ctx); err != nil {
		t.Fatal(err)
	}

	reloaded := NewFileStore(path)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Find(ctx, rec.Key())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != 1 || got.Timing != 90.5 || got.SHA256 != rec.SHA256 || got.ByteSize != 4096 {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
}

func TestFileStore_NextID(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if id := store.NextID(); id != 1 {
		t.Errorf("expected first id 1, got %d", id)
	}
	if err := store.Insert(ctx, record(7, "driver-a", 0, 80)); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(ctx, record(3, "driver-b", 0, 81)); err != nil {
		t.Fatal(err)
	}
	if id := store.NextID(); id != 8 {
		t.Errorf("expected id 8, got %d", id)
	}
}

func TestFileStore_InsertDuplicateKey(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	if err := store.Insert(ctx, record(1, "driver-a", 2, 90)); err != nil {
		t.Fatal(err)
	}
	err := store.Insert(ctx, record(2, "driver-a", 2, 85))
	if err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestFileStore_ListSortedAndFiltered(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	for _, r := range []model.Record{
		record(1, "driver-a", 2, 92.0),
		record(2, "driver-b", 2, 88.5),
		record(3, "driver-c", 5, 85.0),
		record(4, "driver-d", 2, 90.1),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	all := store.List(ctx, NewFilter())
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timing > all[i].Timing {
			t.Errorf("listing not sorted ascending by timing at %d", i)
		}
	}

	f := NewFilter()
	f.Track = 2
	track2 := store.List(ctx, f)
	if len(track2) != 3 {
		t.Fatalf("expected 3 records for track 2, got %d", len(track2))
	}
	for _, r := range track2 {
		if r.Track != 2 {
			t.Errorf("filter leak: got track %d", r.Track)
		}
	}
}

func TestFileStore_ListStableTies(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	for _, r := range []model.Record{
		record(1, "driver-a", 0, 90.0),
		record(2, "driver-b", 0, 90.0),
		record(3, "driver-c", 0, 90.0),
	} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	got := store.List(ctx, NewFilter())
	for i, want := range []int64{1, 2, 3} {
		if got[i].ID != want {
			t.Errorf("tie order broken at %d: got id %d, want %d", i, got[i].ID, want)
		}
	}
}

func TestFileStore_BestGhost(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if err := store.Load(ctx); err != nil {
		t.Fatal(err)
	}

	fast := record(1, "driver-a", 2, 85.0) // fastest but no ghost
	withGhost := record(2, "driver-b", 2, 88.0)
	withGhost.LocalPath = "x.tsreplay"
	withGhost.SHA256 = strings.Repeat("cd", 32)
	slower := record(3, "driver-c", 2, 95.0)
	slower.LocalPath = "y.tsreplay"
	slower.SHA256 = strings.Repeat("ef", 32)

	for _, r := range []model.Record{fast, withGhost, slower} {
		if err := store.Insert(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	f := NewFilter()
	f.Track = 2
	best, err := store.BestGhost(ctx, f, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != 2 {
		t.Errorf("expected record 2 (fastest with ghost), got %d", best.ID)
	}

	best, err = store.BestGhost(ctx, f, "driver-c")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.ID != 3 {
		t.Errorf("driver filter ignored: got %d", best.ID)
	}

	f.Track = 9
	if _, err := store.BestGhost(ctx, f, ""); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFilter_WildcardMatchesAny(t *testing.T) {
	r := record(1, "driver-a", 4, 90)
	r.Car = 3

	f := NewFilter()
	if !f.Matches(&r) {
		t.Error("all-wildcard filter must match everything")
	}
	f.Car = 3
	if !f.Matches(&r) {
		t.Error("exact car must match")
	}
	f.Car = 5
	if f.Matches(&r) {
		t.Error("mismatched car must not match")
	}
}
