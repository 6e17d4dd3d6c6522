package nlu

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLexiconMissingFileUsesDefaults(t *testing.T) {
	lex, err := LoadLexicon(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	if len(lex.Apps) == 0 || len(lex.Fillers) == 0 {
		t.Fatalf("expected default vocabulary")
	}
}

func TestLoadLexiconFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	body := `
fillers:
  - "Porfa"
apps:
  - name: Vivaldi
    aliases: ["VIVALDI BROWSER"]
    executables:
      linux: vivaldi
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	lex, err := LoadLexicon(path)
	if err != nil {
		t.Fatalf("LoadLexicon: %v", err)
	}
	// Entries are lowercased on load.
	if lex.Apps[0].Name != "vivaldi" {
		t.Fatalf("expected lowercased name, got %q", lex.Apps[0].Name)
	}
	if lex.Fillers[0] != "porfa" {
		t.Fatalf("expected lowercased filler, got %q", lex.Fillers[0])
	}
}

func TestLoadLexiconRejectsMalformedAndEmpty(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("fillers: ["), 0644)
	if _, err := LoadLexicon(bad); err == nil {
		t.Fatalf("expected error for malformed lexicon")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("{}"), 0644)
	if _, err := LoadLexicon(empty); err == nil {
		t.Fatalf("expected error for empty lexicon")
	}
}

func TestExecutableFor(t *testing.T) {
	lex := DefaultLexicon()

	if got := lex.ExecutableFor("chrome", "windows"); got != "chrome.exe" {
		t.Fatalf("expected chrome.exe, got %q", got)
	}
	if got := lex.ExecutableFor("chrome", "linux"); got != "google-chrome" {
		t.Fatalf("expected google-chrome, got %q", got)
	}
	// Unknown platform falls back to the canonical name.
	if got := lex.ExecutableFor("chrome", "plan9"); got != "chrome" {
		t.Fatalf("expected fallback to name, got %q", got)
	}
	// Unknown app echoes the requested name.
	if got := lex.ExecutableFor("emacs", "linux"); got != "emacs" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}

func TestFillersLongestFirst(t *testing.T) {
	lex := &Lexicon{Fillers: []string{"a", "abc", "ab"}}
	got := lex.FillersLongestFirst()
	if got[0] != "abc" || got[2] != "a" {
		t.Fatalf("expected longest-first ordering, got %v", got)
	}
}
