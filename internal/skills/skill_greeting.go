package skills

import (
	"fmt"

	"aura/internal/nlu"
)

// GreetingSkill answers salutations. It has no entity evidence, so it is
// reached purely through the parser's pattern fallback stage.
type GreetingSkill struct{}

// NewGreetingSkill is the registry factory.
func NewGreetingSkill() Skill { return &GreetingSkill{} }

func (s *GreetingSkill) Intent() string { return "greeting" }

func (s *GreetingSkill) Patterns() []string {
	return []string{
		`\b(?:hola|hello|hi|hey|buenos dias|buenas tardes|buenas noches)\b`,
	}
}

func (s *GreetingSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	who := ctx.Sender
	if who == "" {
		who = "there"
	}
	return Result{
		"message": fmt.Sprintf("Hola, %s!", who),
	}, nil
}
