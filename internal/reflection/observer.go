package reflection

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aura/internal/bus"
	"aura/internal/logging"
	"aura/internal/nlu"
	"aura/internal/skills"
)

// Observer journals each resolved command and applies user feedback. Records
// are buffered in memory and flushed to the store in batches, either when
// the buffer fills or when Flush is driven externally (a periodic task).
type Observer struct {
	store       *Store
	bus         *bus.Bus
	maxBuffered int

	mu      sync.Mutex
	pending map[string]*Record
	buffer  []Record

	// last is the most recently completed record, the implicit target of
	// bare "!correct" / "!wrong" feedback.
	last *Record
}

// NewObserver builds an observer over the journal store. The bus is optional;
// when present every completed record is announced on it.
func NewObserver(store *Store, b *bus.Bus, maxBuffered int) *Observer {
	if maxBuffered <= 0 {
		maxBuffered = 64
	}
	return &Observer{
		store:       store,
		bus:         b,
		maxBuffered: maxBuffered,
		pending:     make(map[string]*Record),
	}
}

// StartRecording opens a record for a resolved input and returns its ID.
func (o *Observer) StartRecording(res *nlu.IntentResolution, sender string) string {
	rec := &Record{
		ID:           uuid.NewString(),
		Timestamp:    time.Now(),
		Sender:       sender,
		RawText:      res.RawText,
		Normalized:   res.Normalized,
		Intent:       res.Intent,
		Confidence:   res.Confidence,
		Alternatives: formatAlternatives(res.Alternatives),
	}

	o.mu.Lock()
	o.pending[rec.ID] = rec
	o.mu.Unlock()
	return rec.ID
}

// RecordExecution completes a record with its dispatch outcome and buffers
// it for persistence. The executed intent may differ from the resolved one
// when an alternative won.
func (o *Observer) RecordExecution(id string, result skills.DispatchResult) {
	o.mu.Lock()
	rec, ok := o.pending[id]
	if !ok {
		o.mu.Unlock()
		logging.Reflection("dropping execution for unknown record %s", id)
		return
	}
	delete(o.pending, id)

	rec.Success = result.Success
	rec.Error = result.Error
	rec.Duration = result.Duration
	// The resolved intent stays untouched; what actually ran may be an
	// alternative that won the parallel attempt.
	rec.SkillName = result.Intent

	o.buffer = append(o.buffer, *rec)
	o.last = rec
	full := len(o.buffer) >= o.maxBuffered
	o.mu.Unlock()

	logging.ReflectionDebug("recorded %s intent=%s ran=%s success=%v",
		rec.ID, rec.Intent, rec.SkillName, rec.Success)
	if o.bus != nil {
		o.bus.Publish(bus.TopicReflectionRecorded, *rec)
	}
	if full {
		if err := o.Flush(); err != nil {
			logging.Get(logging.CategoryReflection).Error("flush failed: %v", err)
		}
	}
}

// ApplyFeedback grades the most recent record. Feedback only annotates the
// journal; it never rewrites what actually happened. A corrected intent is
// matched against knownIntents so small typos still land.
func (o *Observer) ApplyFeedback(cmd FeedbackCommand, knownIntents []string) (Record, error) {
	o.mu.Lock()
	if o.last == nil {
		o.mu.Unlock()
		return Record{}, fmt.Errorf("no command to grade yet")
	}
	id := o.last.ID
	o.mu.Unlock()

	return o.ApplyFeedbackTo(id, cmd, knownIntents)
}

// ApplyFeedbackTo grades an explicitly referenced record, which may still be
// buffered or already persisted.
func (o *Observer) ApplyFeedbackTo(id string, cmd FeedbackCommand, knownIntents []string) (Record, error) {
	corrected := ""
	if cmd.Intent != "" {
		corrected = closestIntent(cmd.Intent, knownIntents)
		if corrected == "" {
			return Record{}, fmt.Errorf("unknown intent %q in feedback", cmd.Intent)
		}
	}

	o.mu.Lock()
	var graded *Record
	if o.last != nil && o.last.ID == id {
		o.last.Feedback = cmd.Verdict
		o.last.CorrectedIntent = corrected
		copied := *o.last
		graded = &copied
	}
	inBuffer := false
	for i := range o.buffer {
		if o.buffer[i].ID == id {
			o.buffer[i].Feedback = cmd.Verdict
			o.buffer[i].CorrectedIntent = corrected
			inBuffer = true
			if graded == nil {
				copied := o.buffer[i]
				graded = &copied
			}
		}
	}
	o.mu.Unlock()

	if !inBuffer {
		if err := o.store.UpdateFeedback(id, cmd.Verdict, corrected); err != nil {
			return Record{}, err
		}
		if graded == nil {
			recs, err := o.store.Recent(1)
			if err == nil && len(recs) > 0 && recs[0].ID == id {
				graded = &recs[0]
			} else {
				graded = &Record{ID: id, Feedback: cmd.Verdict, CorrectedIntent: corrected}
			}
		}
	} else if graded == nil {
		graded = &Record{ID: id, Feedback: cmd.Verdict, CorrectedIntent: corrected}
	}

	logging.Reflection("feedback %s on %s (corrected=%q)", cmd.Verdict, id, corrected)
	return *graded, nil
}

// Flush persists the buffered records.
func (o *Observer) Flush() error {
	o.mu.Lock()
	batch := o.buffer
	o.buffer = nil
	o.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}
	if err := o.store.WriteBatch(batch); err != nil {
		// Put the batch back so nothing is lost on a transient failure.
		o.mu.Lock()
		o.buffer = append(batch, o.buffer...)
		o.mu.Unlock()
		return err
	}
	logging.ReflectionDebug("flushed %d records", len(batch))
	return nil
}

// Buffered reports how many records await persistence.
func (o *Observer) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.buffer)
}

// Recent returns the newest records, merging the unflushed buffer with the
// store so callers see a consistent timeline.
func (o *Observer) Recent(limit int) ([]Record, error) {
	if err := o.Flush(); err != nil {
		return nil, err
	}
	return o.store.Recent(limit)
}

// Stats flushes and aggregates the journal.
func (o *Observer) Stats() ([]IntentStat, error) {
	if err := o.Flush(); err != nil {
		return nil, err
	}
	return o.store.Stats()
}

// formatAlternatives renders the ranked runners-up as a compact journal
// string, e.g. "search_file:0.65 unknown:0.20".
func formatAlternatives(alts []nlu.Alternative) string {
	if len(alts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(alts))
	for _, a := range alts {
		parts = append(parts, fmt.Sprintf("%s:%.2f", a.Intent, a.Confidence))
	}
	return strings.Join(parts, " ")
}

// Close flushes and closes the journal.
func (o *Observer) Close() error {
	if err := o.Flush(); err != nil {
		return err
	}
	return o.store.Close()
}
