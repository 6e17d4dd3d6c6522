package skills

import (
	"fmt"
	"time"

	"aura/internal/nlu"
)

// SystemStatusSkill reports engine uptime and version. It exists mostly to
// exercise the Context capability bag from a pattern-only skill.
type SystemStatusSkill struct{}

// NewSystemStatusSkill is the registry factory.
func NewSystemStatusSkill() Skill { return &SystemStatusSkill{} }

func (s *SystemStatusSkill) Intent() string { return "system_status" }

func (s *SystemStatusSkill) Patterns() []string {
	return []string{
		`\b(?:estado|status|como estas|how are you)\b`,
	}
}

func (s *SystemStatusSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	uptime := time.Since(ctx.StartedAt).Round(time.Second)

	version := "dev"
	if ctx.Config != nil {
		version = ctx.Config.Version
	}

	result := Result{
		"uptime":  uptime.String(),
		"version": version,
		"goos":    ctx.GOOS,
		"message": fmt.Sprintf("aura %s up for %s", version, uptime),
	}

	// Hosts may stash extra probes in the capability bag.
	if v, ok := ctx.Value("skill_count"); ok {
		result["skills"] = v
	}
	return result, nil
}
