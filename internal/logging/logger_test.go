package logging

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, ws, body string) {
	t.Helper()
	dir := filepath.Join(ws, ".aura")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func resetState() {
	loggersMu.Lock()
	loggers = make(map[Category]*Logger)
	loggersMu.Unlock()
	configMu.Lock()
	config = loggingConfig{}
	configLoaded = false
	configMu.Unlock()
	logsDir = ""
	workspace = ""
}

func TestInitializeWithoutConfigIsNoOp(t *testing.T) {
	resetState()
	defer CloseAll()

	ws := t.TempDir()
	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if IsDebugMode() {
		t.Fatalf("expected production mode without config")
	}
	if _, err := os.Stat(filepath.Join(ws, ".aura", "logs")); !os.IsNotExist(err) {
		t.Fatalf("expected no logs directory in production mode")
	}
}

func TestDebugModeWritesCategoryFile(t *testing.T) {
	resetState()
	defer CloseAll()

	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: debug\n")

	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if !IsDebugMode() {
		t.Fatalf("expected debug mode")
	}

	NLU("parsed %q", "hola")
	CloseAll()

	entries, err := os.ReadDir(filepath.Join(ws, ".aura", "logs"))
	if err != nil {
		t.Fatalf("read logs dir: %v", err)
	}
	found := false
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".log" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected at least one log file, got %v", entries)
	}
}

func TestCategoryFilter(t *testing.T) {
	resetState()
	defer CloseAll()

	ws := t.TempDir()
	writeConfig(t, ws, "logging:\n  debug_mode: true\n  level: info\n  categories:\n    scheduler: false\n")

	if err := Initialize(ws); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if IsCategoryEnabled(CategoryScheduler) {
		t.Fatalf("expected scheduler category to be disabled")
	}
	if !IsCategoryEnabled(CategoryNLU) {
		t.Fatalf("expected unlisted category to default to enabled")
	}
}
