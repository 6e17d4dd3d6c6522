package skills

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"aura/internal/nlu"
)

// Helpers shared by the schedule and reminder skills for turning extracted
// time/date/duration slots into concrete instants.

var (
	clockRe    = regexp.MustCompile(`([01]?\d|2[0-3]):([0-5]\d)`)
	bareHourRe = regexp.MustCompile(`(?:a las|at)\s+(\d{1,2})`)
	amountRe   = regexp.MustCompile(`(\d+)\s*([a-z]+)`)
)

// resolveWhen computes the next instant described by the time/date slots.
// Time evidence wins over bare date words; a date word without a clock time
// lands on 09:00 of that day, matching the original assistant's behavior.
func resolveWhen(entities nlu.EntitySet, now time.Time) (time.Time, error) {
	hour, minute, haveClock := clockFromSlot(entities.First(nlu.SlotTime))

	dayOffset, haveDay := dayOffsetFromSlot(entities.First(nlu.SlotDate), now)

	if !haveClock && !haveDay {
		return time.Time{}, fmt.Errorf("no usable time or date")
	}

	if !haveClock {
		hour, minute = 9, 0
	}

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	target = target.AddDate(0, 0, dayOffset)

	// A clock time with no date that already passed today means tomorrow.
	if haveClock && !haveDay && !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}

	return target, nil
}

// clockFromSlot parses "10:30", "a las 10:30" or "a las 5".
func clockFromSlot(value string) (hour, minute int, ok bool) {
	if value == "" {
		return 0, 0, false
	}
	if m := clockRe.FindStringSubmatch(value); m != nil {
		h, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		return h, mm, true
	}
	if m := bareHourRe.FindStringSubmatch(value); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h <= 23 {
			return h, 0, true
		}
	}
	return 0, 0, false
}

// dayOffsetFromSlot maps date words and dd/mm forms to a day offset from now.
func dayOffsetFromSlot(value string, now time.Time) (int, bool) {
	switch value {
	case "":
		return 0, false
	case "hoy", "today":
		return 0, true
	case "manana", "tomorrow":
		return 1, true
	}

	if wd, ok := weekdays[value]; ok {
		offset := (int(wd) - int(now.Weekday()) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		return offset, true
	}

	if parts := strings.Split(value, "/"); len(parts) >= 2 {
		day, err1 := strconv.Atoi(parts[0])
		month, err2 := strconv.Atoi(parts[1])
		if err1 == nil && err2 == nil && day >= 1 && day <= 31 && month >= 1 && month <= 12 {
			year := now.Year()
			if len(parts) == 3 {
				if y, err := strconv.Atoi(parts[2]); err == nil {
					if y < 100 {
						y += 2000
					}
					year = y
				}
			}
			target := time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
			if len(parts) == 2 && target.Before(now.Truncate(24*time.Hour)) {
				target = target.AddDate(1, 0, 0)
			}
			return int(target.Sub(now.Truncate(24 * time.Hour)).Hours() / 24), true
		}
	}

	return 0, false
}

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday, "sunday": time.Sunday,
	"lunes": time.Monday, "monday": time.Monday,
	"martes": time.Tuesday, "tuesday": time.Tuesday,
	"miercoles": time.Wednesday, "wednesday": time.Wednesday,
	"jueves": time.Thursday, "thursday": time.Thursday,
	"viernes": time.Friday, "friday": time.Friday,
	"sabado": time.Saturday, "saturday": time.Saturday,
}

// parseSpan turns a duration slot value like "5 minutos" or "2 hours" into a
// time.Duration.
func parseSpan(value string) (time.Duration, error) {
	m := amountRe.FindStringSubmatch(value)
	if m == nil {
		return 0, fmt.Errorf("unparseable duration %q", value)
	}
	amount, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q", value)
	}

	unit := m[2]
	switch {
	case strings.HasPrefix(unit, "seg"), strings.HasPrefix(unit, "sec"), unit == "s":
		return time.Duration(amount) * time.Second, nil
	case strings.HasPrefix(unit, "min"):
		return time.Duration(amount) * time.Minute, nil
	case strings.HasPrefix(unit, "hora"), strings.HasPrefix(unit, "hour"), strings.HasPrefix(unit, "hr"), unit == "h":
		return time.Duration(amount) * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration unit %q", unit)
	}
}
