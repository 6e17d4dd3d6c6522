package nlu

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLexiconWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("fillers: [porfa]\n"), 0644); err != nil {
		t.Fatalf("seed lexicon: %v", err)
	}

	var mu sync.Mutex
	var reloaded *Lexicon
	w, err := NewLexiconWatcher(path, func(lex *Lexicon) {
		mu.Lock()
		reloaded = lex
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewLexiconWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	body := "fillers: [porfa]\napps:\n  - name: slack\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("rewrite lexicon: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		done := reloaded != nil
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected reload within deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reloaded.Apps) != 1 || reloaded.Apps[0].Name != "slack" {
		t.Fatalf("expected reloaded lexicon with slack, got %+v", reloaded)
	}
}

func TestLexiconWatcherRapidWritesKeepFinalContent(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	if err := os.WriteFile(path, []byte("fillers: [porfa]\n"), 0644); err != nil {
		t.Fatalf("seed lexicon: %v", err)
	}

	var mu sync.Mutex
	var reloaded *Lexicon
	w, err := NewLexiconWatcher(path, func(lex *Lexicon) {
		mu.Lock()
		reloaded = lex
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewLexiconWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	// Two writes inside one debounce window, as an editor save does
	// (truncate then write). The reload must pick up the second write.
	if err := os.WriteFile(path, []byte("fillers: [porfa]\napps:\n  - name: slack\n"), 0644); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := os.WriteFile(path, []byte("fillers: [porfa]\napps:\n  - name: spotify\n"), 0644); err != nil {
		t.Fatalf("second write: %v", err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		done := reloaded != nil
		mu.Unlock()
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("expected reload within deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if len(reloaded.Apps) != 1 || reloaded.Apps[0].Name != "spotify" {
		t.Fatalf("expected final write to win, got %+v", reloaded)
	}
}

func TestLexiconWatcherKeepsLastGoodOnMalformedWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "lexicon.yaml")
	os.WriteFile(path, []byte("fillers: [porfa]\n"), 0644)

	var calls int
	var mu sync.Mutex
	w, err := NewLexiconWatcher(path, func(*Lexicon) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("NewLexiconWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("fillers: ["), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	time.Sleep(700 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if calls != 0 {
		t.Fatalf("expected malformed lexicon to be rejected, got %d reloads", calls)
	}
}

func TestLexiconWatcherStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	w, err := NewLexiconWatcher(path, func(*Lexicon) {})
	if err != nil {
		t.Fatalf("NewLexiconWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	w.Stop()
	w.Stop() // Second call must not panic or block.
}
