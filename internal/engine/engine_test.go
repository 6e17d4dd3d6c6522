package engine

import (
	"context"
	"runtime"
	"strings"
	"testing"

	"go.uber.org/goleak"

	"aura/internal/bus"
	"aura/internal/config"
	"aura/internal/nlu"
	"aura/internal/reflection"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Workspace = t.TempDir()
	cfg.Reflection.DatabasePath = "" // in-memory journal

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func TestProcessRoundTrip(t *testing.T) {
	e := testEngine(t)

	resp := e.Process(context.Background(), "abrí chrome", "vale")

	if resp.Resolution == nil || resp.Resolution.Intent != nlu.IntentOpenApp {
		t.Fatalf("unexpected resolution %+v", resp.Resolution)
	}
	if resp.Resolution.Confidence != 0.9 {
		t.Fatalf("expected entity-rule confidence, got %v", resp.Resolution.Confidence)
	}
	if resp.Result == nil || !resp.Result.Success {
		t.Fatalf("expected successful dispatch, got %+v", resp.Result)
	}

	want := nlu.DefaultLexicon().ExecutableFor("chrome", runtime.GOOS)
	if got := resp.Result.Payload["executable"]; got != want {
		t.Fatalf("expected executable %q, got %v", want, got)
	}
	if resp.Text == "" {
		t.Fatalf("expected user-facing reply")
	}
}

func TestProcessUnknownInput(t *testing.T) {
	e := testEngine(t)

	resp := e.Process(context.Background(), "fsdkjfh qwerty", "")

	if resp.Result != nil {
		t.Fatalf("nothing should be dispatched for unknown input")
	}
	if !strings.Contains(resp.Text, "fsdkjfh qwerty") {
		t.Fatalf("expected raw input echoed, got %q", resp.Text)
	}
	if resp.Resolution.Intent != nlu.IntentUnknown {
		t.Fatalf("unexpected intent %q", resp.Resolution.Intent)
	}
}

func TestProcessEmptyInput(t *testing.T) {
	e := testEngine(t)

	resp := e.Process(context.Background(), "   ", "")
	if resp.Text != "" || resp.Resolution != nil || resp.Result != nil {
		t.Fatalf("expected empty response, got %+v", resp)
	}
}

func TestLowConfidencePatternStillExecutes(t *testing.T) {
	e := testEngine(t)

	// "hola" resolves via skill pattern at 0.65, below the 0.8 threshold,
	// so it goes through the parallel attempt path.
	resp := e.Process(context.Background(), "hola", "vale")

	if resp.Resolution.Confidence >= e.Config().Executor.ConfidenceThreshold {
		t.Fatalf("test premise broken: confidence %v not below threshold",
			resp.Resolution.Confidence)
	}
	if resp.Result == nil || !resp.Result.Success {
		t.Fatalf("expected greeting to win the attempt, got %+v", resp.Result)
	}
	if !strings.Contains(resp.Text, "vale") {
		t.Fatalf("expected sender in greeting, got %q", resp.Text)
	}
}

func TestFeedbackRoundTrip(t *testing.T) {
	e := testEngine(t)

	e.Process(context.Background(), "abrí chrome", "vale")
	resp := e.Process(context.Background(), "!wrong", "vale")

	if !strings.Contains(resp.Text, "wrong") {
		t.Fatalf("expected acknowledgement, got %q", resp.Text)
	}

	recent, err := e.Observer().Recent(1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Feedback != reflection.VerdictWrong {
		t.Fatalf("expected graded record, got %+v", recent)
	}
}

func TestFeedbackWithCorrectedIntent(t *testing.T) {
	e := testEngine(t)

	e.Process(context.Background(), "abrí chrome", "")
	resp := e.Process(context.Background(), "!correct serch_file", "")

	if !strings.Contains(resp.Text, "search_file") {
		t.Fatalf("expected fuzzy-matched intent in reply, got %q", resp.Text)
	}
}

func TestFeedbackBeforeAnyCommand(t *testing.T) {
	e := testEngine(t)

	resp := e.Process(context.Background(), "!correct", "")
	if !strings.Contains(resp.Text, "Could not record feedback") {
		t.Fatalf("expected graceful error, got %q", resp.Text)
	}
}

func TestEventsFlowDuringProcess(t *testing.T) {
	e := testEngine(t)

	var topics []string
	for _, topic := range []string{
		bus.TopicEntitiesDetected, bus.TopicIntentResolved,
		bus.TopicDispatchResult, bus.TopicReflectionRecorded,
	} {
		topic := topic
		e.Bus().Subscribe(topic, func(bus.Event) { topics = append(topics, topic) })
	}

	e.Process(context.Background(), "abrí chrome", "")

	want := []string{
		bus.TopicEntitiesDetected, bus.TopicIntentResolved,
		bus.TopicDispatchResult, bus.TopicReflectionRecorded,
	}
	if len(topics) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Fatalf("expected event order %v, got %v", want, topics)
		}
	}
}

func TestReflectionDisabled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Workspace = t.TempDir()
	cfg.Reflection.Enabled = false

	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer e.Close()

	if e.Observer() != nil {
		t.Fatalf("expected nil observer when reflection disabled")
	}
	resp := e.Process(context.Background(), "!wrong", "")
	if !strings.Contains(resp.Text, "disabled") {
		t.Fatalf("expected disabled notice, got %q", resp.Text)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	e := testEngine(t)
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
