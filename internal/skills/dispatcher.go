package skills

import (
	"fmt"
	"runtime/debug"
	"time"

	"aura/internal/bus"
	"aura/internal/logging"
	"aura/internal/nlu"
)

// Dispatcher executes a resolved intent against the registry and normalizes
// every outcome - missing skill, handler error, handler panic - into a
// DispatchResult. Nothing a skill does can crash the dispatch loop.
type Dispatcher struct {
	registry *Registry
	bus      *bus.Bus // optional; publishes dispatch.result when present
}

// NewDispatcher creates a dispatcher over the registry.
func NewDispatcher(registry *Registry, b *bus.Bus) *Dispatcher {
	return &Dispatcher{registry: registry, bus: b}
}

// Dispatch runs the skill registered for intent with the given entities and
// context. An unregistered intent is a normal, non-fatal outcome.
func (d *Dispatcher) Dispatch(intent string, entities nlu.EntitySet, ctx *Context) DispatchResult {
	start := time.Now()

	factory := d.registry.Lookup(intent)
	if factory == nil {
		result := DispatchResult{
			Success:  false,
			Intent:   intent,
			Error:    NotImplementedError(intent),
			Duration: time.Since(start),
		}
		logging.Dispatch("no skill for intent %s", intent)
		d.publish(result)
		return result
	}

	// Fresh instance per call; skills must not rely on instance reuse.
	payload, err := d.runContained(factory, intent, entities, ctx)

	result := DispatchResult{
		Success:  err == nil,
		Intent:   intent,
		Payload:  payload,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		logging.Dispatch("skill %s failed in %v: %v", intent, result.Duration, err)
	} else {
		logging.DispatchDebug("skill %s succeeded in %v", intent, result.Duration)
	}

	d.publish(result)
	return result
}

// runContained invokes the skill with panic containment. A panicking handler
// is a bug, but it degrades to a failed result with the panic message, never
// a crashed loop.
func (d *Dispatcher) runContained(factory Factory, intent string, entities nlu.EntitySet, ctx *Context) (payload Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategoryDispatch).Error(
				"skill %s panicked: %v\n%s", intent, r, debug.Stack())
			payload = nil
			err = fmt.Errorf("skill %s panicked: %v", intent, r)
		}
	}()

	skill := factory()
	return skill.Run(entities, ctx)
}

func (d *Dispatcher) publish(result DispatchResult) {
	if d.bus != nil {
		d.bus.Publish(bus.TopicDispatchResult, result)
	}
}
