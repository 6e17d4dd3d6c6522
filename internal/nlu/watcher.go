package nlu

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"aura/internal/logging"
)

// LexiconWatcher watches the lexicon YAML file and hot-reloads it into the
// pipeline, so vocabulary edits take effect without a restart. Reloads are
// debounced because editors fire several events per save; a malformed file is
// logged and skipped, keeping the last good lexicon active.
type LexiconWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	onReload    func(*Lexicon)
	lastEvent   time.Time
	pending     bool
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool

	// Stats for tests and debugging.
	reloads  int
	rejected int
}

// NewLexiconWatcher creates a watcher for the given lexicon path.
// onReload receives each successfully parsed lexicon.
func NewLexiconWatcher(path string, onReload func(*Lexicon)) (*LexiconWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &LexiconWatcher{
		watcher:     watcher,
		path:        filepath.Clean(path),
		onReload:    onReload,
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; the loop runs in its own goroutine.
func (w *LexiconWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors replace files on save and
	// a file watch dies with the old inode.
	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		logging.Get(logging.CategoryLexicon).Warn("watch failed for %s: %v", dir, err)
	} else {
		logging.Lexicon("watching %s for lexicon changes", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the loop to exit.
func (w *LexiconWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	w.watcher.Close()
}

// Reloads returns how many successful reloads have happened.
func (w *LexiconWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *LexiconWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// Debounce ticker for batching rapid save sequences.
	debounceTicker := time.NewTicker(50 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Editors fire several events per save (truncate, write,
			// rename-over). Record the event and reload only once the
			// file has settled past the debounce window, so the final
			// contents always win.
			w.mu.Lock()
			w.lastEvent = time.Now()
			w.pending = true
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.mu.Lock()
			settled := w.pending && time.Since(w.lastEvent) >= w.debounceDur
			if settled {
				w.pending = false
			}
			w.mu.Unlock()
			if settled {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryLexicon).Warn("watcher error: %v", err)
		}
	}
}

func (w *LexiconWatcher) reload() {
	lex, err := LoadLexicon(w.path)
	if err != nil {
		w.mu.Lock()
		w.rejected++
		w.mu.Unlock()
		logging.Get(logging.CategoryLexicon).Warn("reload rejected, keeping previous lexicon: %v", err)
		return
	}

	w.onReload(lex)

	w.mu.Lock()
	w.reloads++
	count := w.reloads
	w.mu.Unlock()
	logging.Lexicon("lexicon reloaded (#%d) from %s", count, w.path)
}
