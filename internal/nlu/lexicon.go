package nlu

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"aura/internal/logging"
)

// Lexicon holds the static language knowledge the pipeline consumes: filler
// phrases the normalizer strips, and the application vocabulary the extractor
// matches against. It loads from .aura/lexicon.yaml; compiled-in defaults
// cover a fresh workspace.
type Lexicon struct {
	// Fillers are politeness/noise phrases removed during normalization.
	// Matching is longest-first so "could you please" wins over "please".
	Fillers []string `yaml:"fillers"`

	// Apps is the known application vocabulary.
	Apps []AppEntry `yaml:"apps"`
}

// AppEntry describes one launchable application.
type AppEntry struct {
	// Name is the canonical entity value (lowercase, diacritic-free).
	Name string `yaml:"name"`

	// Aliases are additional surface forms that map to Name.
	Aliases []string `yaml:"aliases,omitempty"`

	// Executables maps GOOS to the platform launch target.
	Executables map[string]string `yaml:"executables,omitempty"`
}

// DefaultLexicon returns the compiled-in vocabulary. It mirrors the word list
// the original assistant shipped with, bilingual where the assistant was.
func DefaultLexicon() *Lexicon {
	return &Lexicon{
		Fillers: []string{
			"por favor",
			"podrias",
			"puedes",
			"quiero que",
			"me gustaria",
			"could you please",
			"could you",
			"can you",
			"please",
			"hey aura",
			"aura",
		},
		Apps: []AppEntry{
			{
				Name:    "chrome",
				Aliases: []string{"google chrome", "navegador"},
				Executables: map[string]string{
					"windows": "chrome.exe",
					"linux":   "google-chrome",
					"darwin":  "Google Chrome",
				},
			},
			{
				Name:    "firefox",
				Aliases: []string{"mozilla"},
				Executables: map[string]string{
					"windows": "firefox.exe",
					"linux":   "firefox",
					"darwin":  "Firefox",
				},
			},
			{
				Name:    "spotify",
				Aliases: []string{"musica"},
				Executables: map[string]string{
					"windows": "spotify.exe",
					"linux":   "spotify",
					"darwin":  "Spotify",
				},
			},
			{
				Name:    "notepad",
				Aliases: []string{"bloc de notas", "editor"},
				Executables: map[string]string{
					"windows": "notepad.exe",
					"linux":   "gedit",
					"darwin":  "TextEdit",
				},
			},
			{
				Name:    "calculator",
				Aliases: []string{"calculadora"},
				Executables: map[string]string{
					"windows": "calc.exe",
					"linux":   "gnome-calculator",
					"darwin":  "Calculator",
				},
			},
			{
				Name:    "terminal",
				Aliases: []string{"consola", "cmd"},
				Executables: map[string]string{
					"windows": "cmd.exe",
					"linux":   "gnome-terminal",
					"darwin":  "Terminal",
				},
			},
		},
	}
}

// LoadLexicon reads a lexicon from a YAML file. A missing file returns the
// defaults; a malformed file is an error so a bad edit cannot silently wipe
// the vocabulary.
func LoadLexicon(path string) (*Lexicon, error) {
	if path == "" {
		return DefaultLexicon(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Lexicon("lexicon file %s not found, using defaults", path)
			return DefaultLexicon(), nil
		}
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}

	lex := &Lexicon{}
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("failed to parse lexicon: %w", err)
	}

	if len(lex.Fillers) == 0 && len(lex.Apps) == 0 {
		return nil, fmt.Errorf("lexicon %s is empty", path)
	}

	lex.normalize()
	logging.Lexicon("loaded lexicon from %s (fillers=%d apps=%d)", path, len(lex.Fillers), len(lex.Apps))
	return lex, nil
}

// Save writes the lexicon as YAML.
func (l *Lexicon) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("failed to marshal lexicon: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write lexicon: %w", err)
	}
	return nil
}

// normalize lowercases all entries so matching against normalized text works.
func (l *Lexicon) normalize() {
	for i, f := range l.Fillers {
		l.Fillers[i] = strings.ToLower(strings.TrimSpace(f))
	}
	for i := range l.Apps {
		l.Apps[i].Name = strings.ToLower(strings.TrimSpace(l.Apps[i].Name))
		for j, a := range l.Apps[i].Aliases {
			l.Apps[i].Aliases[j] = strings.ToLower(strings.TrimSpace(a))
		}
	}
}

// FillersLongestFirst returns fillers sorted by descending length so removal
// never leaves a partial phrase behind.
func (l *Lexicon) FillersLongestFirst() []string {
	out := make([]string, len(l.Fillers))
	copy(out, l.Fillers)
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i]) > len(out[j])
	})
	return out
}

// AppNames returns every surface form (canonical names and aliases) mapped to
// its canonical name, longest surface form first.
func (l *Lexicon) AppNames() []AppSurface {
	var out []AppSurface
	for _, app := range l.Apps {
		out = append(out, AppSurface{Surface: app.Name, Canonical: app.Name})
		for _, alias := range app.Aliases {
			out = append(out, AppSurface{Surface: alias, Canonical: app.Name})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len(out[i].Surface) > len(out[j].Surface)
	})
	return out
}

// AppSurface is one surface form of an application name.
type AppSurface struct {
	Surface   string
	Canonical string
}

// ExecutableFor returns the launch target for the named app on the given
// platform, falling back to the canonical name itself.
func (l *Lexicon) ExecutableFor(name, goos string) string {
	for _, app := range l.Apps {
		if app.Name != name {
			continue
		}
		if exe, ok := app.Executables[goos]; ok {
			return exe
		}
		return app.Name
	}
	return name
}
