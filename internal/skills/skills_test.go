package skills

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"aura/internal/nlu"
)

func TestOpenAppResolvesExecutable(t *testing.T) {
	ctx := testContext()
	ctx.GOOS = "windows"

	entities := nlu.NewEntitySet()
	entities.Add(nlu.SlotApp, "chrome")

	res, err := NewOpenAppSkill().Run(entities, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["app"] != "chrome" || res["executable"] != "chrome.exe" {
		t.Fatalf("unexpected payload %v", res)
	}
}

func TestOpenAppUsesLauncher(t *testing.T) {
	ctx := testContext()
	ctx.GOOS = "linux"
	var launched string
	ctx.Launcher = func(exe string) error {
		launched = exe
		return nil
	}

	entities := nlu.NewEntitySet()
	entities.Add(nlu.SlotApp, "chrome")

	if _, err := NewOpenAppSkill().Run(entities, ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if launched != "google-chrome" {
		t.Fatalf("expected launcher called with google-chrome, got %q", launched)
	}
}

func TestOpenAppWithoutEntityFails(t *testing.T) {
	if _, err := NewOpenAppSkill().Run(nlu.NewEntitySet(), testContext()); err == nil {
		t.Fatalf("expected error without app entity")
	}
}

// recordingScheduler captures ScheduleOnce calls.
type recordingScheduler struct {
	mu    sync.Mutex
	names []string
	delay []time.Duration
}

func (r *recordingScheduler) ScheduleOnce(name string, delay time.Duration, action func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, name)
	r.delay = append(r.delay, delay)
}

func TestReminderSchedulesOnce(t *testing.T) {
	sched := &recordingScheduler{}
	ctx := testContext()
	ctx.Scheduler = sched

	entities := nlu.NewEntitySet()
	entities.Add(nlu.SlotNumber, "5")
	entities.Add(nlu.SlotDuration, "5 minutos")

	res, err := NewReminderSkill().Run(entities, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["duration"] != "5m0s" {
		t.Fatalf("unexpected duration %v", res["duration"])
	}
	if len(sched.names) != 1 || sched.delay[0] != 5*time.Minute {
		t.Fatalf("expected one 5m task, got %v %v", sched.names, sched.delay)
	}
}

func TestScheduleFromClockTime(t *testing.T) {
	sched := &recordingScheduler{}
	ctx := testContext()
	ctx.Scheduler = sched

	entities := nlu.NewEntitySet()
	entities.Add(nlu.SlotTime, "a las 23:59")

	res, err := NewScheduleSkill().Run(entities, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["when"] == "" || len(sched.names) != 1 {
		t.Fatalf("expected scheduled task, got %v / %v", res, sched.names)
	}
}

func TestScheduleWithoutEvidenceFails(t *testing.T) {
	if _, err := NewScheduleSkill().Run(nlu.NewEntitySet(), testContext()); err == nil {
		t.Fatalf("expected error without time/date")
	}
}

func TestSearchFileFindsMatches(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "informe.pdf"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "otro.txt"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(dir, ".hidden"), 0755)
	os.WriteFile(filepath.Join(dir, ".hidden", "informe.pdf"), []byte("x"), 0644)

	ctx := testContext()
	ctx.Config.Dispatch.SearchRoot = dir

	entities := nlu.NewEntitySet()
	entities.Add(nlu.SlotFile, "informe.pdf")

	res, err := NewSearchFileSkill().Run(entities, ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	matches := res["matches"].([]string)
	if len(matches) != 1 {
		t.Fatalf("expected one visible match, got %v", matches)
	}
}

func TestResolveWhen(t *testing.T) {
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) // a Tuesday

	cases := []struct {
		name string
		fill func(nlu.EntitySet)
		want time.Time
	}{
		{
			"clock later today",
			func(e nlu.EntitySet) { e.Add(nlu.SlotTime, "15:30") },
			time.Date(2026, 9, 1, 15, 30, 0, 0, time.UTC),
		},
		{
			"clock already passed rolls to tomorrow",
			func(e nlu.EntitySet) { e.Add(nlu.SlotTime, "08:00") },
			time.Date(2026, 9, 2, 8, 0, 0, 0, time.UTC),
		},
		{
			"tomorrow defaults to nine",
			func(e nlu.EntitySet) { e.Add(nlu.SlotDate, "manana") },
			time.Date(2026, 9, 2, 9, 0, 0, 0, time.UTC),
		},
		{
			"weekday plus clock",
			func(e nlu.EntitySet) {
				e.Add(nlu.SlotDate, "viernes")
				e.Add(nlu.SlotTime, "10:00")
			},
			time.Date(2026, 9, 4, 10, 0, 0, 0, time.UTC),
		},
		{
			"bare hour phrase",
			func(e nlu.EntitySet) { e.Add(nlu.SlotTime, "a las 5") },
			time.Date(2026, 9, 2, 5, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		entities := nlu.NewEntitySet()
		tc.fill(entities)
		got, err := resolveWhen(entities, now)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestParseSpan(t *testing.T) {
	cases := map[string]time.Duration{
		"5 minutos":  5 * time.Minute,
		"30 seconds": 30 * time.Second,
		"2 horas":    2 * time.Hour,
		"10 min":     10 * time.Minute,
	}
	for in, want := range cases {
		got, err := parseSpan(in)
		if err != nil {
			t.Fatalf("parseSpan(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("parseSpan(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := parseSpan("muchos ratos"); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}

func TestSystemStatus(t *testing.T) {
	ctx := testContext()
	ctx.Set("skill_count", 6)

	res, err := NewSystemStatusSkill().Run(nlu.NewEntitySet(), ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res["skills"] != 6 {
		t.Fatalf("expected capability bag value, got %v", res)
	}
	if res.Message() == "" {
		t.Fatalf("expected message")
	}
}

func TestGreetingUsesSender(t *testing.T) {
	ctx := testContext().WithSender("vale")
	res, err := NewGreetingSkill().Run(nlu.NewEntitySet(), ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Message() != "Hola, vale!" {
		t.Fatalf("unexpected greeting %q", res.Message())
	}
}
