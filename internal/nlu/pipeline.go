package nlu

import (
	"fmt"

	"aura/internal/bus"
	"aura/internal/logging"
)

// EntitiesDetected is the payload published on bus.TopicEntitiesDetected.
type EntitiesDetected struct {
	RawText    string
	Normalized string
	Entities   EntitySet
}

// PipelineError is the payload published on bus.TopicNLUError.
type PipelineError struct {
	RawText string
	Message string
}

// Pipeline sequences Normalizer -> Extractor -> Parser and publishes the
// intermediate and final results on the event bus.
//
// The pipeline is a hard error boundary: whatever goes wrong inside a stage
// is recovered here, logged, and surfaced as an nlu.error event. A malformed
// utterance must never crash the host loop.
type Pipeline struct {
	normalizer *Normalizer
	extractor  *Extractor
	parser     *Parser
	bus        *bus.Bus
	cfg        ParserConfig
}

// NewPipeline wires the three stages to the bus. The bus may be nil for
// hosts that only want the returned resolution.
func NewPipeline(normalizer *Normalizer, extractor *Extractor, parser *Parser, b *bus.Bus, cfg ParserConfig) *Pipeline {
	return &Pipeline{
		normalizer: normalizer,
		extractor:  extractor,
		parser:     parser,
		bus:        b,
		cfg:        cfg,
	}
}

// SetLexicon propagates a reloaded lexicon to the stages that hold vocabulary.
func (p *Pipeline) SetLexicon(lex *Lexicon) {
	p.normalizer.SetLexicon(lex)
	p.extractor.SetLexicon(lex)
}

// Process runs the full pipeline. It always returns a usable resolution:
// internal failures produce the unknown intent with zero confidence plus an
// nlu.error event, never a panic or error to the caller.
func (p *Pipeline) Process(text string) (resolution *IntentResolution) {
	resolution = &IntentResolution{
		Intent:   IntentUnknown,
		Entities: NewEntitySet(),
		RawText:  text,
	}

	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("nlu pipeline failure: %v", r)
			logging.Get(logging.CategoryNLU).Error("%s (input=%q)", msg, text)
			resolution.Intent = IntentUnknown
			resolution.Confidence = 0
			resolution.Alternatives = nil
			p.publish(bus.TopicNLUError, PipelineError{RawText: text, Message: msg})
		}
	}()

	normalized := p.normalizer.Run(text)
	resolution.Normalized = normalized

	entities := p.extractor.Extract(normalized)
	resolution.Entities = entities

	p.publish(bus.TopicEntitiesDetected, EntitiesDetected{
		RawText:    text,
		Normalized: normalized,
		Entities:   entities.Clone(),
	})

	candidates := p.parser.Candidates(normalized, entities)
	resolution.Intent = candidates[0].Intent
	resolution.Confidence = candidates[0].Confidence
	resolution.Alternatives = candidates[1:]

	logging.NLU("resolved %q -> %s (confidence=%.2f, alternatives=%d)",
		text, resolution.Intent, resolution.Confidence, len(resolution.Alternatives))

	p.publish(bus.TopicIntentResolved, resolution)

	return resolution
}

func (p *Pipeline) publish(topic string, data interface{}) {
	if p.bus != nil {
		p.bus.Publish(topic, data)
	}
}
