package logging

import (
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_CreatesDirAndLogger(t *testing.T) {
	dir := t.TempDir()
	log, err := New("checker", dir, "debug")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = log.Sync() }()

	// Directory should exist
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("log dir missing: %v", err)
	}

	log.Info("test_message_from_logging_test")

	// Best-effort: a file might not be flushed immediately; don't fail on it.
	if entries, _ := os.ReadDir(dir); len(entries) == 0 {
		t.Logf("no files yet in %s (ok; async writers may delay)", dir)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("api", t.TempDir(), "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestCronLogger_ForwardsErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	cl := CronLogger(zap.New(core))

	cl.Info("schedule", "entry", 1)
	cl.Error(errors.New("boom"), "panic", "entry", 1)

	if logs.Len() != 2 {
		t.Fatalf("want 2 entries, got %d", logs.Len())
	}
	e := logs.All()[1]
	if e.Message != "cron_panic" || e.Level != zap.ErrorLevel {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.ContextMap()["error"] != "boom" {
		t.Fatalf("error field missing: %+v", e.ContextMap())
	}
}
