package skills

// RegisterBuiltins installs the static skill set. Registration order matters:
// it is the iteration order of the parser's pattern fallback stage.
func RegisterBuiltins(r *Registry) {
	r.MustRegister(NewOpenAppSkill)
	r.MustRegister(NewSearchFileSkill)
	r.MustRegister(NewScheduleSkill)
	r.MustRegister(NewReminderSkill)
	r.MustRegister(NewGreetingSkill)
	r.MustRegister(NewSystemStatusSkill)
}
