package skills

import (
	"fmt"

	"aura/internal/nlu"
)

// OpenAppSkill launches a known application. The actual process launch is a
// host capability (Context.Launcher); without one the skill resolves the
// executable and reports what it would run, which is also what tests want.
type OpenAppSkill struct{}

// NewOpenAppSkill is the registry factory.
func NewOpenAppSkill() Skill { return &OpenAppSkill{} }

func (s *OpenAppSkill) Intent() string { return nlu.IntentOpenApp }

func (s *OpenAppSkill) Patterns() []string {
	return []string{
		`\b(?:abri|abre|open|lanza|launch)\b`,
	}
}

func (s *OpenAppSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	app := entities.First(nlu.SlotApp)
	if app == "" {
		return nil, fmt.Errorf("no application name in request")
	}

	executable := app
	if ctx.Lexicon != nil {
		executable = ctx.Lexicon.ExecutableFor(app, ctx.GOOS)
	}

	if ctx.Launcher != nil {
		if err := ctx.Launcher(executable); err != nil {
			return nil, fmt.Errorf("could not launch %s: %w", executable, err)
		}
	}

	return Result{
		"app":        app,
		"executable": executable,
		"message":    fmt.Sprintf("Opening %s", app),
	}, nil
}
