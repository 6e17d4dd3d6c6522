package skills

import (
	"fmt"
	"strings"
	"testing"

	"aura/internal/bus"
	"aura/internal/config"
	"aura/internal/nlu"
)

func testContext() *Context {
	return NewContext(config.DefaultConfig(), nlu.DefaultLexicon())
}

func TestDispatchUnregisteredIntent(t *testing.T) {
	d := NewDispatcher(NewRegistry(), nil)

	res := d.Dispatch("no_such_skill", nlu.NewEntitySet(), testContext())

	if res.Success {
		t.Fatalf("expected failure")
	}
	if res.Error != "skill_not_implemented:no_such_skill" {
		t.Fatalf("unexpected error string %q", res.Error)
	}
	if res.Intent != "no_such_skill" {
		t.Fatalf("unexpected intent %q", res.Intent)
	}
}

func TestDispatchSuccess(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(fakeFactory("ping", nil, func(nlu.EntitySet, *Context) (Result, error) {
		return Result{"message": "pong"}, nil
	}))
	d := NewDispatcher(r, nil)

	res := d.Dispatch("ping", nlu.NewEntitySet(), testContext())

	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Payload.Message() != "pong" {
		t.Fatalf("unexpected payload %v", res.Payload)
	}
	if res.Duration <= 0 {
		t.Fatalf("expected measured duration")
	}
}

func TestDispatchHandlerErrorIsContained(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(fakeFactory("fail", nil, func(nlu.EntitySet, *Context) (Result, error) {
		return nil, fmt.Errorf("disk on fire")
	}))
	d := NewDispatcher(r, nil)

	res := d.Dispatch("fail", nlu.NewEntitySet(), testContext())
	if res.Success || res.Error != "disk on fire" {
		t.Fatalf("expected contained failure, got %+v", res)
	}
}

func TestDispatchHandlerPanicIsContained(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(fakeFactory("boom", nil, func(nlu.EntitySet, *Context) (Result, error) {
		panic("handler bug")
	}))
	r.MustRegister(fakeFactory("ok", nil, nil))
	d := NewDispatcher(r, nil)

	res := d.Dispatch("boom", nlu.NewEntitySet(), testContext())
	if res.Success {
		t.Fatalf("expected failure from panicking handler")
	}
	if !strings.Contains(res.Error, "handler bug") {
		t.Fatalf("expected panic message in error, got %q", res.Error)
	}

	// The dispatch loop must survive: subsequent calls still work.
	if after := d.Dispatch("ok", nlu.NewEntitySet(), testContext()); !after.Success {
		t.Fatalf("expected dispatcher to keep working after panic, got %+v", after)
	}
}

func TestDispatchFreshInstancePerCall(t *testing.T) {
	var instances int
	r := NewRegistry()
	r.MustRegister(func() Skill {
		instances++
		return &fakeSkill{intent: "counted"}
	})
	d := NewDispatcher(r, nil)

	// One instantiation happens at registration to read the contract.
	instances = 0
	d.Dispatch("counted", nlu.NewEntitySet(), testContext())
	d.Dispatch("counted", nlu.NewEntitySet(), testContext())

	if instances != 2 {
		t.Fatalf("expected a fresh instance per dispatch, got %d", instances)
	}
}

func TestDispatchPublishesResult(t *testing.T) {
	b := bus.New()
	r := NewRegistry()
	r.MustRegister(fakeFactory("ping", nil, nil))
	d := NewDispatcher(r, b)

	var got []DispatchResult
	b.Subscribe(bus.TopicDispatchResult, func(e bus.Event) {
		got = append(got, e.Data.(DispatchResult))
	})

	d.Dispatch("ping", nlu.NewEntitySet(), testContext())
	d.Dispatch("missing", nlu.NewEntitySet(), testContext())

	if len(got) != 2 {
		t.Fatalf("expected 2 dispatch.result events, got %d", len(got))
	}
	if !got[0].Success || got[1].Success {
		t.Fatalf("unexpected outcomes %v", got)
	}
}
