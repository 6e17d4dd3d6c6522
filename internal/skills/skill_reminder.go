package skills

import (
	"fmt"
	"time"

	"aura/internal/nlu"
)

// ReminderSkill sets a countdown reminder from number+duration entities
// ("recuerdame en 5 minutos").
type ReminderSkill struct{}

// NewReminderSkill is the registry factory.
func NewReminderSkill() Skill { return &ReminderSkill{} }

func (s *ReminderSkill) Intent() string { return nlu.IntentReminder }

func (s *ReminderSkill) Patterns() []string {
	return []string{
		`\b(?:recuerdame|recordatorio|remind me|reminder)\b`,
	}
}

func (s *ReminderSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	durVal := entities.First(nlu.SlotDuration)
	if durVal == "" {
		return nil, fmt.Errorf("no duration in reminder request")
	}

	span, err := parseSpan(durVal)
	if err != nil {
		return nil, err
	}
	if span <= 0 {
		return nil, fmt.Errorf("reminder duration must be positive")
	}

	if ctx.Scheduler != nil {
		notify := ctx.Notify
		ctx.Scheduler.ScheduleOnce("reminder:"+durVal, span, func() {
			if notify != nil {
				notify(fmt.Sprintf("Reminder: %s elapsed", durVal))
			}
		})
	}

	return Result{
		"duration": span.String(),
		"fires_at": time.Now().Add(span).Format(time.RFC3339),
		"message":  fmt.Sprintf("Reminder set for %s from now", durVal),
	}, nil
}
