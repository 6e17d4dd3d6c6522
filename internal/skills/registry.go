package skills

import (
	"fmt"
	"regexp"
	"sort"
	"sync"

	"aura/internal/logging"
	"aura/internal/nlu"
)

// descriptor is the registry's record for one intent. Created at registration
// and never mutated afterwards; re-registration replaces the whole record.
type descriptor struct {
	intent   string
	factory  Factory
	patterns []*regexp.Regexp
	order    int // registration order for the parser fallback stage
}

// Registry maps intent names to skill factories. It is thread-safe:
// writes happen at boot, reads on every dispatch.
//
// Registration is last-write-wins: re-registering an intent overwrites the
// previous handler with a warning, which lets a host shadow a built-in.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*descriptor
	nextID int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*descriptor),
	}
}

// Register adds a skill factory under the intent name its instances report.
// Invalid patterns are an error: a skill that cannot express its own grammar
// is a programming bug worth failing loudly at boot.
func (r *Registry) Register(factory Factory) error {
	if factory == nil {
		return fmt.Errorf("nil skill factory")
	}
	probe := factory()
	if probe == nil {
		return fmt.Errorf("skill factory returned nil")
	}
	intent := probe.Intent()
	if intent == "" {
		return fmt.Errorf("skill has empty intent name")
	}

	compiled := make([]*regexp.Regexp, 0, len(probe.Patterns()))
	for _, p := range probe.Patterns() {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("invalid pattern %q for intent %s: %w", p, intent, err)
		}
		compiled = append(compiled, re)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[intent]; exists {
		logging.Get(logging.CategoryDispatch).Warn(
			"duplicate registration for intent %s, last write wins", intent)
	}

	r.byName[intent] = &descriptor{
		intent:   intent,
		factory:  factory,
		patterns: compiled,
		order:    r.nextID,
	}
	r.nextID++

	logging.DispatchDebug("registered skill %s (patterns=%d)", intent, len(compiled))
	return nil
}

// MustRegister registers a skill and panics on error.
// Use for the static built-in set at boot.
func (r *Registry) MustRegister(factory Factory) {
	if err := r.Register(factory); err != nil {
		panic(fmt.Sprintf("failed to register skill: %v", err))
	}
}

// Lookup returns the factory for an intent, or nil if unregistered.
func (r *Registry) Lookup(intent string) Factory {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.byName[intent]; ok {
		return d.factory
	}
	return nil
}

// Has reports whether the intent is registered.
func (r *Registry) Has(intent string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byName[intent]
	return ok
}

// Intents returns all registered intent names, sorted.
func (r *Registry) Intents() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of registered skills.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}

// IntentPatterns implements nlu.PatternSource: every skill's compiled
// patterns in registration order, so the parser's fallback stage iterates
// skills exactly as they were registered.
func (r *Registry) IntentPatterns() []nlu.IntentPatterns {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		ordered = append(ordered, d)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].order < ordered[j].order
	})

	out := make([]nlu.IntentPatterns, 0, len(ordered))
	for _, d := range ordered {
		out = append(out, nlu.IntentPatterns{Intent: d.intent, Patterns: d.patterns})
	}
	return out
}
