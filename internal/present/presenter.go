// Package present turns internal failures into messages a person can act
// on. Raw errors and stack traces never reach the user; every failure is
// classified and paired with remediation steps.
package present

import (
	"fmt"
	"strings"

	"aura/internal/executor"
	"aura/internal/nlu"
	"aura/internal/skills"
)

// ErrorCategory classifies failures for user guidance.
type ErrorCategory int

const (
	// ErrorCategoryUnderstanding indicates the input could not be resolved
	// to a known intent.
	ErrorCategoryUnderstanding ErrorCategory = iota

	// ErrorCategoryMissingSkill indicates the intent resolved but no skill
	// implements it.
	ErrorCategoryMissingSkill

	// ErrorCategoryExecution indicates a skill ran and failed.
	ErrorCategoryExecution

	// ErrorCategoryTimeout indicates an attempt overran its deadline.
	ErrorCategoryTimeout

	// ErrorCategoryFilesystem indicates a file/directory issue.
	ErrorCategoryFilesystem

	// ErrorCategoryScheduling indicates a deferred task could not be set up.
	ErrorCategoryScheduling

	// ErrorCategoryUnknown is the fallback for unclassified failures.
	ErrorCategoryUnknown
)

// Prefix returns the display prefix for this category.
func (c ErrorCategory) Prefix() string {
	prefixes := []string{
		"[NLU]",
		"[SKILL]",
		"[EXEC]",
		"[TIMEOUT]",
		"[FS]",
		"[SCHED]",
		"[ERROR]",
	}
	if int(c) < len(prefixes) {
		return prefixes[c]
	}
	return "[ERROR]"
}

// String returns the category name.
func (c ErrorCategory) String() string {
	names := []string{
		"understanding",
		"missing_skill",
		"execution",
		"timeout",
		"filesystem",
		"scheduling",
		"unknown",
	}
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// ClassifiedError pairs a failure with its category and remediation.
type ClassifiedError struct {
	Detail      string
	Category    ErrorCategory
	Summary     string
	Remediation []string
}

// Format renders the user-facing message.
func (ce *ClassifiedError) Format() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s %s\n", ce.Category.Prefix(), ce.Summary))
	if ce.Detail != "" {
		sb.WriteString(fmt.Sprintf("Details: %s\n", ce.Detail))
	}
	if len(ce.Remediation) > 0 {
		sb.WriteString("Suggestions:\n")
		for _, r := range ce.Remediation {
			sb.WriteString(fmt.Sprintf("  - %s\n", r))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// Classify maps a failure message to a category with remediation. Dispatch
// failures travel as strings, so classification works on the message.
func Classify(message string) *ClassifiedError {
	classified := &ClassifiedError{
		Detail:   message,
		Category: ErrorCategoryUnknown,
		Summary:  "Something went wrong",
		Remediation: []string{
			"Try rephrasing the command",
			"Check the logs under .aura/logs for details",
		},
	}

	lower := strings.ToLower(message)

	switch {
	case strings.HasPrefix(message, skills.ErrSkillNotImplemented.Error()+":"):
		intent := strings.TrimPrefix(message, skills.ErrSkillNotImplemented.Error()+":")
		classified.Category = ErrorCategoryMissingSkill
		classified.Summary = fmt.Sprintf("No skill handles %q yet", intent)
		classified.Detail = ""
		classified.Remediation = []string{
			"Run 'aura skills' to see what is available",
			"Register a skill for this intent before using it",
		}

	case containsAny(lower, "panicked", "panic"):
		classified.Category = ErrorCategoryExecution
		classified.Summary = "A skill crashed while handling the command"
		classified.Remediation = []string{
			"The rest of the system is unaffected; try again",
			"Check the dispatch log under .aura/logs",
		}

	case containsAny(lower, "timed out", "timeout", "deadline"):
		classified.Category = ErrorCategoryTimeout
		classified.Summary = "The command took too long"
		classified.Remediation = []string{
			"Try again",
			"Raise executor.timeout in .aura/config.yaml if this keeps happening",
		}

	case containsAny(lower, "file", "directory", "path", "no such", "permission denied"):
		classified.Category = ErrorCategoryFilesystem
		classified.Summary = "File or directory problem"
		classified.Remediation = []string{
			"Check the path exists and is readable",
			"Adjust dispatch.search_root in .aura/config.yaml",
		}

	case containsAny(lower, "schedule", "scheduler", "task"):
		classified.Category = ErrorCategoryScheduling
		classified.Summary = "Could not set up the scheduled task"
		classified.Remediation = []string{
			"Include a time like '10:30' or a delay like '5 minutos'",
		}

	case containsAny(lower, "missing", "required", "entity", "need"):
		classified.Category = ErrorCategoryUnderstanding
		classified.Summary = "The command was understood but is missing details"
		classified.Remediation = []string{
			"Name the thing to act on, e.g. 'abre chrome' or 'busca informe.pdf'",
		}
	}

	return classified
}

// Presenter renders resolutions, results, and attempts for the user.
type Presenter struct{}

// New creates a Presenter.
func New() *Presenter {
	return &Presenter{}
}

// UnknownCommand is the response for input that resolved to no intent.
func (p *Presenter) UnknownCommand(raw string) string {
	ce := &ClassifiedError{
		Category: ErrorCategoryUnderstanding,
		Summary:  fmt.Sprintf("I did not understand %q", raw),
		Remediation: []string{
			"Try 'abre <app>', 'busca <file>', or 'recuerdame en <n> minutos'",
			"Run 'aura skills' to see everything I can do",
		},
	}
	return ce.Format()
}

// Result renders one dispatch outcome.
func (p *Presenter) Result(res skills.DispatchResult) string {
	if res.Success {
		if msg := res.Payload.Message(); msg != "" {
			return msg
		}
		return fmt.Sprintf("Done (%s).", res.Intent)
	}
	return Classify(res.Error).Format()
}

// Attempt renders a parallel execution outcome. On aggregate failure every
// candidate's fate is listed so the user sees what was tried.
func (p *Presenter) Attempt(att executor.Attempt) string {
	if att.Result.Success {
		return p.Result(att.Result)
	}

	var sb strings.Builder
	sb.WriteString(Classify(att.Result.Error).Format())
	if len(att.Outcomes) > 1 {
		sb.WriteString("\nTried:\n")
		for _, o := range att.Outcomes {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", o.Candidate.Intent, outcomeWord(o)))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// LowConfidenceNote annotates a response produced by trying alternatives.
func (p *Presenter) LowConfidenceNote(res *nlu.IntentResolution, selected string) string {
	if selected == res.Intent {
		return ""
	}
	return fmt.Sprintf("(interpreted as %s instead of %s)", selected, res.Intent)
}

func outcomeWord(o executor.Outcome) string {
	switch {
	case o.TimedOut:
		return "timed out"
	case o.Result.Success:
		return "succeeded"
	case o.Result.Error != "":
		return o.Result.Error
	default:
		return "failed"
	}
}

func containsAny(s string, patterns ...string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
