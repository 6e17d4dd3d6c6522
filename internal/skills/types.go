// Package skills holds the skill capability interface, the intent registry,
// and the dispatcher that executes a resolved intent.
package skills

import (
	"errors"
	"fmt"
	"time"

	"aura/internal/nlu"
)

// Result is the arbitrary structured payload a skill produces.
// By convention "message" carries the human-readable response line.
type Result map[string]interface{}

// Message returns the conventional human-readable line, if present.
func (r Result) Message() string {
	if r == nil {
		return ""
	}
	if msg, ok := r["message"].(string); ok {
		return msg
	}
	return ""
}

// Skill is the fixed capability contract every handler implements.
// Instances are created fresh per dispatch; implementations must be
// stateless or manage their own persistence.
type Skill interface {
	// Intent returns the unique intent name this skill handles.
	Intent() string

	// Patterns returns the regex sources used by the parser's fallback
	// stage, in priority order.
	Patterns() []string

	// Run executes the skill. Expected failures are returned as errors;
	// panics are treated as bugs but still contained by the dispatcher.
	Run(entities nlu.EntitySet, ctx *Context) (Result, error)
}

// Factory produces a fresh skill instance per dispatch.
type Factory func() Skill

// DispatchResult is the normalized outcome of one dispatch call.
type DispatchResult struct {
	Success  bool
	Intent   string
	Payload  Result
	Error    string
	Duration time.Duration
}

// ErrSkillNotImplemented marks dispatch of an unregistered intent.
// This is a normal, non-fatal outcome.
var ErrSkillNotImplemented = errors.New("skill_not_implemented")

// NotImplementedError formats the canonical error string for an
// unregistered intent.
func NotImplementedError(intent string) string {
	return fmt.Sprintf("%s:%s", ErrSkillNotImplemented.Error(), intent)
}
