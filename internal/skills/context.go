package skills

import (
	"runtime"
	"sync"
	"time"

	"aura/internal/config"
	"aura/internal/nlu"
)

// TaskScheduler is the slice of the scheduler surface skills may use to
// register one-shot follow-ups (reminders, scheduled actions).
type TaskScheduler interface {
	ScheduleOnce(name string, delay time.Duration, action func())
}

// Notifier delivers a deferred message back to the host (REPL print, toast,
// TTS - the core does not care).
type Notifier func(message string)

// Context is the capability bag passed into every skill Run call. The
// dispatcher treats it as opaque; skills pick the capabilities they need.
type Context struct {
	// Sender identifies who issued the utterance.
	Sender string

	// GOOS selects platform executables; defaults to runtime.GOOS.
	GOOS string

	// Config gives skills access to dispatch-level settings.
	Config *config.Config

	// Lexicon resolves app names to platform executables.
	Lexicon *nlu.Lexicon

	// Scheduler registers deferred actions. May be nil in bare hosts.
	Scheduler TaskScheduler

	// Notify delivers deferred output. May be nil; skills must tolerate it.
	Notify Notifier

	// Launcher starts a platform executable. Nil means dry run: skills
	// resolve and report the target without side effects.
	Launcher func(executable string) error

	// StartedAt is engine boot time, for uptime reporting.
	StartedAt time.Time

	values *valueBag
}

// valueBag is the shared, lock-guarded capability map. Sender-bound context
// copies all point at the same bag.
type valueBag struct {
	mu sync.RWMutex
	m  map[string]interface{}
}

// NewContext builds a context with platform defaults.
func NewContext(cfg *config.Config, lex *nlu.Lexicon) *Context {
	return &Context{
		GOOS:      runtime.GOOS,
		Config:    cfg,
		Lexicon:   lex,
		StartedAt: time.Now(),
		values:    &valueBag{m: make(map[string]interface{})},
	}
}

// Set stores an arbitrary capability value.
func (c *Context) Set(key string, value interface{}) {
	c.values.mu.Lock()
	defer c.values.mu.Unlock()
	c.values.m[key] = value
}

// Value retrieves a capability value.
func (c *Context) Value(key string) (interface{}, bool) {
	c.values.mu.RLock()
	defer c.values.mu.RUnlock()
	v, ok := c.values.m[key]
	return v, ok
}

// WithSender returns a shallow copy bound to a sender. The value bag is
// shared; per-call state belongs in the skill, not the context.
func (c *Context) WithSender(sender string) *Context {
	clone := &Context{
		Sender:    sender,
		GOOS:      c.GOOS,
		Config:    c.Config,
		Lexicon:   c.Lexicon,
		Scheduler: c.Scheduler,
		Notify:    c.Notify,
		Launcher:  c.Launcher,
		StartedAt: c.StartedAt,
		values:    c.values,
	}
	return clone
}
