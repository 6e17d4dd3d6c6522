package skills

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"aura/internal/nlu"
)

// SearchFileSkill walks the configured search root looking for the file named
// in the utterance. Matches are case-insensitive substring hits on the base
// name; hidden directories are skipped.
type SearchFileSkill struct{}

// NewSearchFileSkill is the registry factory.
func NewSearchFileSkill() Skill { return &SearchFileSkill{} }

func (s *SearchFileSkill) Intent() string { return nlu.IntentSearchFile }

func (s *SearchFileSkill) Patterns() []string {
	return []string{
		`\b(?:busca|buscar|search|find)\b.*\b(?:archivo|file)\b`,
	}
}

func (s *SearchFileSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	query := entities.First(nlu.SlotFile)
	if query == "" {
		return nil, fmt.Errorf("no file name in search request")
	}

	root := "."
	limit := 25
	if ctx.Config != nil {
		if ctx.Config.Dispatch.SearchRoot != "" {
			root = ctx.Config.Dispatch.SearchRoot
		}
		if ctx.Config.Dispatch.MaxSearchResults > 0 {
			limit = ctx.Config.Dispatch.MaxSearchResults
		}
	}

	needle := strings.ToLower(query)
	var matches []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Unreadable entries are skipped, not fatal.
		}
		name := d.Name()
		if d.IsDir() {
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.Contains(strings.ToLower(name), needle) {
			matches = append(matches, path)
			if len(matches) >= limit {
				return filepath.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search failed under %s: %w", root, err)
	}

	msg := fmt.Sprintf("Found %d file(s) matching %q", len(matches), query)
	if len(matches) == 0 {
		msg = fmt.Sprintf("No files matching %q under %s", query, root)
	}

	return Result{
		"query":   query,
		"root":    root,
		"matches": matches,
		"message": msg,
	}, nil
}
