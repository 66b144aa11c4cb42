package logger

import (
	"context"
	"testing"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
}

func TestLoggerBasic(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	log := Get()
	ctx := context.Background()
	log.Info(ctx, "test message", String("k", "v"))
	log.Debug(ctx, "debug message", Int("n", 1))
	log.Warn(ctx, "warn message", Float64("f", 1.5))
	log.Error(ctx, "error message", Int64("b", 42))

	named := log.Named("sub")
	if named == nil {
		t.Fatal("named logger is nil")
	}
	named.Info(ctx, "named message")
}

func TestSetLevelString(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	for _, lvl := range []string{"debug", "info", "warn", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", lvl, err)
		}
	}
	if err := SetLevelString("bogus"); err == nil {
		t.Error("expected error for unknown level")
	}
}
