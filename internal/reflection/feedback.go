package reflection

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Feedback verdicts.
const (
	VerdictCorrect = "correct"
	VerdictWrong   = "wrong"
)

// FeedbackCommand is a parsed user grading, e.g. "!wrong" or
// "!correct open_app".
type FeedbackCommand struct {
	Verdict string
	Intent  string
}

// ParseFeedback recognizes the feedback grammar. Anything that does not
// start with '!' is not feedback and returns ok=false.
func ParseFeedback(text string) (FeedbackCommand, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "!") {
		return FeedbackCommand{}, false
	}

	fields := strings.Fields(strings.TrimPrefix(trimmed, "!"))
	if len(fields) == 0 {
		return FeedbackCommand{}, false
	}

	switch strings.ToLower(fields[0]) {
	case VerdictCorrect:
		cmd := FeedbackCommand{Verdict: VerdictCorrect}
		if len(fields) > 1 {
			cmd.Intent = strings.ToLower(fields[1])
		}
		return cmd, true
	case VerdictWrong:
		cmd := FeedbackCommand{Verdict: VerdictWrong}
		if len(fields) > 1 {
			cmd.Intent = strings.ToLower(fields[1])
		}
		return cmd, true
	default:
		return FeedbackCommand{}, false
	}
}

// closestIntent resolves a possibly misspelled intent name against the
// known set. Exact match wins; otherwise the nearest name within edit
// distance 2 is accepted. Empty return means no plausible match.
func closestIntent(name string, known []string) string {
	name = strings.ToLower(name)
	best := ""
	bestDist := 3
	for _, k := range known {
		if k == name {
			return k
		}
		if d := levenshtein.ComputeDistance(name, k); d < bestDist {
			best = k
			bestDist = d
		}
	}
	return best
}
