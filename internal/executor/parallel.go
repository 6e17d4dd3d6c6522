// Package executor implements confidence-gated parallel execution of intent
// alternatives: when the NLU pipeline is unsure, the primary intent and its
// ranked runners-up are dispatched concurrently and the best outcome wins.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aura/internal/logging"
	"aura/internal/nlu"
	"aura/internal/skills"
)

// Dispatcher is the slice of the dispatch surface the executor needs.
type Dispatcher interface {
	Dispatch(intent string, entities nlu.EntitySet, ctx *skills.Context) skills.DispatchResult
}

// Config carries the executor's tunables. The defaults come from
// config.ExecutorConfig; they are inherited behavior, not derived truth.
type Config struct {
	// ConfidenceThreshold gates parallel attempts; resolutions at or above
	// it should be dispatched directly by the caller.
	ConfidenceThreshold float64

	// MaxAlternatives bounds how many runners-up join the primary.
	MaxAlternatives int

	// Timeout is the overall wall-clock deadline for one attempt batch.
	Timeout time.Duration
}

// Candidate is one intent the executor will try.
type Candidate struct {
	Intent     string
	Confidence float64
}

// Outcome is one candidate's fate within a batch.
type Outcome struct {
	Candidate Candidate
	Result    skills.DispatchResult
	TimedOut  bool
}

// Attempt is the aggregate of one parallel batch. Result is the selected
// (or synthesized) outcome handed back to the caller; Outcomes carries every
// candidate's fate for diagnostics and failure presentation.
type Attempt struct {
	Result   skills.DispatchResult
	Selected Candidate
	Outcomes []Outcome
}

// ParallelExecutor runs candidate intents concurrently with a shared
// deadline. Results arriving after the deadline are discarded, never applied.
type ParallelExecutor struct {
	dispatcher Dispatcher
	cfg        Config
}

// New creates an executor over the dispatcher.
func New(dispatcher Dispatcher, cfg Config) *ParallelExecutor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	return &ParallelExecutor{dispatcher: dispatcher, cfg: cfg}
}

// ShouldAttempt reports whether the resolution's confidence is low enough to
// warrant trying alternatives in parallel.
func (e *ParallelExecutor) ShouldAttempt(res *nlu.IntentResolution) bool {
	return res.Confidence < e.cfg.ConfidenceThreshold
}

// Candidates builds the bounded attempt list: the primary at forced
// confidence 1.0, then up to MaxAlternatives ranked runners-up.
func (e *ParallelExecutor) Candidates(res *nlu.IntentResolution) []Candidate {
	candidates := []Candidate{{Intent: res.Intent, Confidence: 1.0}}
	for _, alt := range res.Alternatives {
		if len(candidates) > e.cfg.MaxAlternatives {
			break
		}
		candidates = append(candidates, Candidate{Intent: alt.Intent, Confidence: alt.Confidence})
	}
	return candidates
}

// AttemptAlternatives dispatches every candidate concurrently and selects
// the best successful outcome. A candidate that fails, panics (contained by
// the dispatcher), or overruns the deadline never aborts its siblings.
func (e *ParallelExecutor) AttemptAlternatives(ctx context.Context, res *nlu.IntentResolution, sctx *skills.Context) Attempt {
	candidates := e.Candidates(res)

	if len(candidates) == 0 || candidates[0].Intent == "" {
		return Attempt{
			Result: skills.DispatchResult{
				Success: false,
				Error:   "no candidates to attempt",
			},
		}
	}

	deadline, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	logging.Executor("attempting %d candidates for low-confidence intent %s (%.2f)",
		len(candidates), res.Intent, res.Confidence)

	var mu sync.Mutex
	outcomes := make([]Outcome, len(candidates))
	for i, c := range candidates {
		outcomes[i] = Outcome{Candidate: c, TimedOut: true}
	}

	g, _ := errgroup.WithContext(deadline)
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			// The dispatch itself runs in a child goroutine so a hung
			// handler abandons the slot instead of wedging the batch.
			done := make(chan skills.DispatchResult, 1)
			go func() {
				done <- e.dispatcher.Dispatch(c.Intent, res.Entities.Clone(), sctx)
			}()

			select {
			case result := <-done:
				mu.Lock()
				outcomes[i] = Outcome{Candidate: c, Result: result}
				mu.Unlock()
			case <-deadline.Done():
				// Result, if it ever arrives, is discarded.
				logging.Executor("candidate %s abandoned at deadline", c.Intent)
			}
			return nil
		})
	}
	_ = g.Wait()

	return e.selectOutcome(candidates, outcomes)
}

// selectOutcome applies the selection policy: highest declared confidence
// among successes, ties broken by lowest execution duration.
func (e *ParallelExecutor) selectOutcome(candidates []Candidate, outcomes []Outcome) Attempt {
	best := -1
	for i, o := range outcomes {
		if o.TimedOut || !o.Result.Success {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		switch {
		case o.Candidate.Confidence > outcomes[best].Candidate.Confidence:
			best = i
		case o.Candidate.Confidence == outcomes[best].Candidate.Confidence &&
			o.Result.Duration < outcomes[best].Result.Duration:
			best = i
		}
	}

	if best >= 0 {
		logging.Executor("selected %s (confidence=%.2f)",
			outcomes[best].Candidate.Intent, outcomes[best].Candidate.Confidence)
		return Attempt{
			Result:   outcomes[best].Result,
			Selected: outcomes[best].Candidate,
			Outcomes: outcomes,
		}
	}

	// Nothing succeeded: surface the primary's failure annotated with every
	// candidate's fate so the caller can say "tried X, Y, Z; none worked".
	primary := outcomes[0]
	result := primary.Result
	if primary.TimedOut {
		result = skills.DispatchResult{
			Success: false,
			Intent:  candidates[0].Intent,
			Error:   fmt.Sprintf("candidate %s timed out", candidates[0].Intent),
		}
	}
	if result.Error == "" {
		result.Error = "all candidates failed"
	}

	tried := make([]string, 0, len(candidates))
	for _, c := range candidates {
		tried = append(tried, c.Intent)
	}
	logging.Executor("no candidate succeeded (tried %v)", tried)

	return Attempt{
		Result:   result,
		Selected: candidates[0],
		Outcomes: outcomes,
	}
}
