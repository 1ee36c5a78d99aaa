package plan

import (
	"fmt"
	"strings"

	"github.com/claude/courtside/internal/models"
)

// Severity of a validation problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one finding reported by Validate.
type Problem struct {
	PlanID   string   `json:"plan_id"`
	Section  string   `json:"section,omitempty"`
	Exercise string   `json:"exercise,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (p Problem) String() string {
	var loc []string
	loc = append(loc, p.PlanID)
	if p.Section != "" {
		loc = append(loc, p.Section)
	}
	if p.Exercise != "" {
		loc = append(loc, p.Exercise)
	}
	return fmt.Sprintf("%s: %s: %s", p.Severity, strings.Join(loc, " / "), p.Message)
}

// Validate checks a plan for problems that would break or degrade a
// voice-guided run. Errors make the plan unrunnable; warnings fall back to
// defaults at runtime.
func Validate(p *models.PlanDescriptor) []Problem {
	var out []Problem
	add := func(sev Severity, section, exercise, format string, args ...any) {
		out = append(out, Problem{
			PlanID:   p.ID,
			Section:  section,
			Exercise: exercise,
			Severity: sev,
			Message:  fmt.Sprintf(format, args...),
		})
	}

	if strings.TrimSpace(p.Name) == "" {
		add(SeverityError, "", "", "plan has no name")
	}
	if len(p.Exercises) == 0 {
		add(SeverityError, "", "", "plan has no exercises")
	}

	for i, sec := range p.Sections {
		name := sec.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("section %d", i+1)
			add(SeverityError, name, "", "section has no name")
		}
		if len(sec.Exercises) == 0 {
			add(SeverityWarning, name, "", "section has no exercises")
		}
	}

	for i, ex := range p.Exercises {
		label := ex.Name
		if strings.TrimSpace(label) == "" {
			label = fmt.Sprintf("exercise %d", i+1)
			add(SeverityError, ex.SectionName, label, "exercise has no name")
		}
		if ex.SectionIndex < 0 || ex.SectionIndex >= len(p.Sections) {
			add(SeverityError, ex.SectionName, label, "section index %d out of range", ex.SectionIndex)
		}
		text := ex.DurationText()
		if text == "" {
			if ex.Reps == "" && ex.Sets == "" {
				add(SeverityWarning, ex.SectionName, label, "no duration, reps or sets; defaults to %ds", models.DefaultExerciseSeconds)
			}
			continue
		}
		d := models.ParseDuration(text)
		switch {
		case d.Kind == models.DurationUnknown:
			add(SeverityWarning, ex.SectionName, label, "unparseable duration %q; defaults to %ds", text, models.DefaultExerciseSeconds)
		case d.IsRange() && d.MinSeconds > d.MaxSeconds:
			add(SeverityError, ex.SectionName, label, "range %q has min above max", text)
		}
	}
	return out
}

// HasErrors reports whether any problem is an error.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}
