package skills

import (
	"fmt"
	"time"

	"aura/internal/nlu"
)

// ScheduleSkill registers a one-shot notification at the instant described by
// the time/date entities.
type ScheduleSkill struct{}

// NewScheduleSkill is the registry factory.
func NewScheduleSkill() Skill { return &ScheduleSkill{} }

func (s *ScheduleSkill) Intent() string { return nlu.IntentSchedule }

func (s *ScheduleSkill) Patterns() []string {
	return []string{
		`\b(?:agenda|agendar|schedule|programa)\b`,
	}
}

func (s *ScheduleSkill) Run(entities nlu.EntitySet, ctx *Context) (Result, error) {
	now := time.Now()
	when, err := resolveWhen(entities, now)
	if err != nil {
		return nil, fmt.Errorf("could not understand when: %w", err)
	}

	delay := when.Sub(now)
	if delay <= 0 {
		return nil, fmt.Errorf("requested time %s is in the past", when.Format("15:04"))
	}

	if ctx.Scheduler != nil {
		notify := ctx.Notify
		raw := entities.First(nlu.SlotTime) + " " + entities.First(nlu.SlotDate)
		ctx.Scheduler.ScheduleOnce("schedule:"+when.Format(time.RFC3339), delay, func() {
			if notify != nil {
				notify(fmt.Sprintf("Scheduled event is due (%s)", raw))
			}
		})
	}

	return Result{
		"when":    when.Format(time.RFC3339),
		"delay":   delay.String(),
		"message": fmt.Sprintf("Scheduled for %s", when.Format("Mon 15:04")),
	}, nil
}
