// Package engine assembles the full command pipeline: normalization,
// entity extraction, intent parsing, skill dispatch, low-confidence
// parallel attempts, background scheduling, and the reflection journal.
// Hosts (the CLI, tests) talk to the Engine; the parts stay decoupled
// behind the event bus.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"aura/internal/bus"
	"aura/internal/config"
	"aura/internal/executor"
	"aura/internal/logging"
	"aura/internal/nlu"
	"aura/internal/present"
	"aura/internal/reflection"
	"aura/internal/scheduler"
	"aura/internal/skills"
)

// Response is what one processed utterance produces.
type Response struct {
	// Text is the user-facing reply.
	Text string

	// Resolution is the NLU outcome, nil for feedback commands.
	Resolution *nlu.IntentResolution

	// Result is the dispatch outcome, nil when nothing was dispatched.
	Result *skills.DispatchResult
}

// Engine owns the wired components and their lifecycle.
type Engine struct {
	cfg       *config.Config
	bus       *bus.Bus
	pipeline  *nlu.Pipeline
	registry  *skills.Registry
	dispatch  *skills.Dispatcher
	executor  *executor.ParallelExecutor
	scheduler *scheduler.Scheduler
	observer  *reflection.Observer
	presenter *present.Presenter
	watcher   *nlu.LexiconWatcher

	mu       sync.Mutex
	skillCtx *skills.Context

	closeOnce sync.Once
	closeErr  error
}

// New builds and starts an engine from configuration. The returned engine
// has a running scheduler; callers own Close.
func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := logging.Initialize(cfg.Workspace); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	lex, err := loadLexicon(cfg)
	if err != nil {
		return nil, err
	}

	b := bus.New()

	registry := skills.NewRegistry()
	skills.RegisterBuiltins(registry)

	parserCfg := nlu.ParserConfig{
		EntityRuleConfidence: cfg.NLU.EntityRuleConfidence,
		PatternConfidence:    cfg.NLU.PatternConfidence,
		FallbackConfidence:   cfg.NLU.FallbackConfidence,
	}
	pipeline := nlu.NewPipeline(
		nlu.NewNormalizer(lex),
		nlu.NewExtractor(lex, cfg.NLU.MaxFuzzyDistance),
		nlu.NewParser(parserCfg, registry),
		b,
		parserCfg,
	)

	dispatch := skills.NewDispatcher(registry, b)

	exec := executor.New(dispatch, executor.Config{
		ConfidenceThreshold: cfg.Executor.ConfidenceThreshold,
		MaxAlternatives:     cfg.Executor.MaxAlternatives,
		Timeout:             parseDur(cfg.Executor.Timeout, 3*time.Second),
	})

	sched := scheduler.New(
		parseDur(cfg.Scheduler.PollInterval, 250*time.Millisecond),
		parseDur(cfg.Scheduler.StopTimeout, 2*time.Second),
	)
	sched.Start()

	e := &Engine{
		cfg:       cfg,
		bus:       b,
		pipeline:  pipeline,
		registry:  registry,
		dispatch:  dispatch,
		executor:  exec,
		scheduler: sched,
		presenter: present.New(),
	}

	if cfg.Reflection.Enabled {
		store, err := reflection.OpenStore(journalPath(cfg))
		if err != nil {
			sched.Stop()
			return nil, err
		}
		e.observer = reflection.NewObserver(store, b, cfg.Reflection.MaxBuffered)
		sched.ScheduleEvery("reflection.flush",
			parseDur(cfg.Reflection.FlushInterval, 30*time.Second),
			func() {
				if err := e.observer.Flush(); err != nil {
					logging.Get(logging.CategoryReflection).Error("periodic flush failed: %v", err)
				}
			})
	}

	sctx := skills.NewContext(cfg, lex)
	sctx.Scheduler = sched
	sctx.Set("skill_count", registry.Count())
	e.skillCtx = sctx

	if cfg.NLU.WatchLexicon && cfg.NLU.LexiconPath != "" {
		watcher, err := nlu.NewLexiconWatcher(cfg.NLU.LexiconPath, e.onLexiconReload)
		if err != nil {
			logging.Get(logging.CategoryLexicon).Warn("lexicon watch unavailable: %v", err)
		} else {
			e.watcher = watcher
			if err := watcher.Start(context.Background()); err != nil {
				logging.Get(logging.CategoryLexicon).Warn("lexicon watch failed to start: %v", err)
			}
		}
	}

	logging.Boot("engine up: %d skills, reflection=%v, watch_lexicon=%v",
		registry.Count(), cfg.Reflection.Enabled, e.watcher != nil)
	return e, nil
}

func loadLexicon(cfg *config.Config) (*nlu.Lexicon, error) {
	if cfg.NLU.LexiconPath == "" {
		return nlu.DefaultLexicon(), nil
	}
	return nlu.LoadLexicon(cfg.NLU.LexiconPath)
}

func journalPath(cfg *config.Config) string {
	path := cfg.Reflection.DatabasePath
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.Workspace, path)
}

func (e *Engine) onLexiconReload(lex *nlu.Lexicon) {
	e.pipeline.SetLexicon(lex)
	e.mu.Lock()
	e.skillCtx.Lexicon = lex
	e.mu.Unlock()
	logging.Lexicon("lexicon reloaded: %d apps", len(lex.Apps))
}

// SetNotifier wires deferred output (reminders firing later) back to the host.
func (e *Engine) SetNotifier(n skills.Notifier) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skillCtx.Notify = n
}

// SetLauncher wires real process launching. Without it skills resolve
// executables but do not start anything.
func (e *Engine) SetLauncher(launch func(executable string) error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.skillCtx.Launcher = launch
}

// Bus exposes the event bus for host subscriptions.
func (e *Engine) Bus() *bus.Bus { return e.bus }

// Registry exposes the skill registry.
func (e *Engine) Registry() *skills.Registry { return e.registry }

// Observer exposes the reflection journal, nil when disabled.
func (e *Engine) Observer() *reflection.Observer { return e.observer }

// Config exposes the effective configuration.
func (e *Engine) Config() *config.Config { return e.cfg }

// Process handles one utterance end to end and returns the reply.
func (e *Engine) Process(ctx context.Context, text, sender string) Response {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Response{}
	}

	if cmd, ok := reflection.ParseFeedback(trimmed); ok {
		return e.processFeedback(cmd)
	}

	res := e.pipeline.Process(trimmed)
	if res.Intent == nlu.IntentUnknown {
		return Response{
			Text:       e.presenter.UnknownCommand(trimmed),
			Resolution: res,
		}
	}

	e.mu.Lock()
	sctx := e.skillCtx.WithSender(sender)
	e.mu.Unlock()

	var recordID string
	if e.observer != nil {
		recordID = e.observer.StartRecording(res, sender)
	}

	var result skills.DispatchResult
	var text2 string
	if e.executor.ShouldAttempt(res) {
		att := e.executor.AttemptAlternatives(ctx, res, sctx)
		result = att.Result
		text2 = e.presenter.Attempt(att)
		if result.Success {
			if note := e.presenter.LowConfidenceNote(res, att.Selected.Intent); note != "" {
				text2 = text2 + " " + note
			}
		}
	} else {
		result = e.dispatch.Dispatch(res.Intent, res.Entities, sctx)
		text2 = e.presenter.Result(result)
	}

	if e.observer != nil {
		e.observer.RecordExecution(recordID, result)
	}

	return Response{Text: text2, Resolution: res, Result: &result}
}

func (e *Engine) processFeedback(cmd reflection.FeedbackCommand) Response {
	if e.observer == nil {
		return Response{Text: "Reflection is disabled; feedback is not recorded."}
	}

	rec, err := e.observer.ApplyFeedback(cmd, e.registry.Intents())
	if err != nil {
		return Response{Text: fmt.Sprintf("Could not record feedback: %v.", err)}
	}

	if rec.CorrectedIntent != "" && rec.CorrectedIntent != rec.Intent {
		return Response{Text: fmt.Sprintf("Noted: that should have been %s, not %s.",
			rec.CorrectedIntent, rec.Intent)}
	}
	return Response{Text: fmt.Sprintf("Noted, thanks. Marked the last command as %s.", rec.Feedback)}
}

// Close stops background work and flushes the journal. It is idempotent.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.watcher != nil {
			e.watcher.Stop()
		}
		e.scheduler.Stop()
		if e.observer != nil {
			e.closeErr = e.observer.Close()
		}
		logging.CloseAll()
	})
	return e.closeErr
}

// parseDur parses a configured duration, falling back on bad input.
func parseDur(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
