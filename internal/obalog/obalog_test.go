package obalog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewWritesJSONToFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "obad.log")

	log, err := New("info", "json", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	log.Info("directory core ready", String("base_dn", "dc=example,dc=com"))
	if err := log.Sync(); err != nil {
		t.Fatalf("unexpected sync error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected a non-empty log file")
	}
}

func TestNewConsoleFormat(t *testing.T) {
	if _, err := New("debug", "console", "stdout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewUnknownLevelDefaultsToInfo(t *testing.T) {
	// UnmarshalText rejects an unrecognized level; New should fall back to
	// info rather than error out.
	if _, err := New("not-a-level", "json", "stdout"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewOpenFailureReturnsError(t *testing.T) {
	if _, err := New("info", "json", "/nonexistent/directory/obad.log"); err == nil {
		t.Error("expected an error opening an unwritable path")
	}
}

func TestNopDiscardsOutput(t *testing.T) {
	log := Nop()
	log.Debug("ignored")
	log.Info("ignored")
	log.Warn("ignored")
	log.Error("ignored")
	if err := log.Sync(); err != nil {
		t.Errorf("unexpected sync error from Nop logger: %v", err)
	}
}

func TestWithReturnsIndependentLogger(t *testing.T) {
	base := Nop()
	scoped := base.With(String("op", "bind"))
	if scoped == nil {
		t.Fatal("expected With to return a non-nil Logger")
	}
	scoped.Info("bind attempt")
}
