package nlu

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newTestExtractor() *Extractor {
	return NewExtractor(DefaultLexicon(), 1)
}

func TestExtractKnownApp(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("abri chrome")
	if diff := cmp.Diff([]string{"chrome"}, entities[SlotApp]); diff != "" {
		t.Fatalf("app slot mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractAppAlias(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("abre el bloc de notas")
	if got := entities.First(SlotApp); got != "notepad" {
		t.Fatalf("expected alias to resolve to notepad, got %q", got)
	}
}

func TestExtractAppFromOpenPattern(t *testing.T) {
	e := newTestExtractor()

	// "chrme" is not in the vocabulary; the open-pattern stage plus fuzzy
	// matching should still land on chrome.
	entities := e.Extract("open chrme")
	if got := entities.First(SlotApp); got != "chrome" {
		t.Fatalf("expected fuzzy match to chrome, got %q", got)
	}
}

func TestExtractLongestSurfaceFirst(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("open google chrome now")
	if got := entities.First(SlotApp); got != "chrome" {
		t.Fatalf("expected google chrome -> chrome, got %q", got)
	}
	if len(entities[SlotApp]) != 1 {
		t.Fatalf("expected a single app value, got %v", entities[SlotApp])
	}
}

func TestExtractTimeDateDurationNumber(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("recuerdame manana a las 10:30 en 5 minutos")

	if !entities.Has(SlotDate) {
		t.Fatalf("expected date match, got %v", entities)
	}
	if !entities.Has(SlotTime) {
		t.Fatalf("expected time match, got %v", entities)
	}
	if diff := cmp.Diff([]string{"5 minutos"}, entities[SlotDuration]); diff != "" {
		t.Fatalf("duration mismatch (-want +got):\n%s", diff)
	}
	if !entities.Has(SlotNumber) {
		t.Fatalf("expected number match, got %v", entities)
	}
}

func TestExtractFileName(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("busca informe-final.pdf en descargas")
	if diff := cmp.Diff([]string{"informe-final.pdf"}, entities[SlotFile]); diff != "" {
		t.Fatalf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestExtractOrderedMatches(t *testing.T) {
	e := newTestExtractor()

	entities := e.Extract("del 12 al 25 y luego 7")
	if diff := cmp.Diff([]string{"12", "25", "7"}, entities[SlotNumber]); diff != "" {
		t.Fatalf("expected left-to-right numbers (-want +got):\n%s", diff)
	}
}

func TestExtractEmptyAndMalformedInput(t *testing.T) {
	e := newTestExtractor()

	for _, in := range []string{"", "   ", "???", "\x00"} {
		entities := e.Extract(in)
		for _, slot := range []string{SlotApp, SlotFile, SlotTime, SlotDate, SlotDuration, SlotNumber} {
			vals, ok := entities[slot]
			if !ok {
				t.Fatalf("slot %s missing for input %q; empty slots must be present", slot, in)
			}
			if len(vals) != 0 {
				t.Fatalf("expected no matches for %q, got %s=%v", in, slot, vals)
			}
		}
	}
}

func TestExtractNoWordBoundaryFalsePositive(t *testing.T) {
	e := newTestExtractor()

	// "cmd" is a terminal alias; it must not match inside another word.
	entities := e.Extract("ejecutame el procmdump")
	if entities.Has(SlotApp) {
		t.Fatalf("expected no app from substring, got %v", entities[SlotApp])
	}
}
