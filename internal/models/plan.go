package models

import "strings"

// PlanType identifies which program a plan descriptor came from.
type PlanType string

const (
	PlanWarmup    PlanType = "warmup"
	PlanCooldown  PlanType = "cooldown"
	PlanEightWeek PlanType = "eight-week"
	PlanCustom    PlanType = "custom"
)

// Valid reports whether t is one of the known plan types.
func (t PlanType) Valid() bool {
	switch t {
	case PlanWarmup, PlanCooldown, PlanEightWeek, PlanCustom:
		return true
	}
	return false
}

// PlanDescriptor is the read-only workout handed to the coach at start.
// Exercises is the flattened list across all sections, in order.
type PlanDescriptor struct {
	Type      PlanType   `json:"type" yaml:"type"`
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Sections  []Section  `json:"sections" yaml:"sections"`
	Exercises []Exercise `json:"exercises" yaml:"-"`

	// Week and Day locate an eight-week program day; zero otherwise.
	Week int `json:"week,omitempty" yaml:"-"`
	Day  int `json:"day,omitempty" yaml:"-"`
}

// Section groups consecutive exercises under a heading such as "Dynamic Warm-Up".
type Section struct {
	Name      string     `json:"name" yaml:"name"`
	Note      string     `json:"note,omitempty" yaml:"note,omitempty"`
	TimeRange string     `json:"timeRange,omitempty" yaml:"time_range,omitempty"`
	Exercises []Exercise `json:"exercises" yaml:"exercises"`
}

// Exercise is one entry of a plan. Duration and Time are free text
// ("30 seconds", "1 minute", "20-30 seconds"); see ParseDuration.
type Exercise struct {
	Name         string `json:"name" yaml:"name"`
	Sets         string `json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps         string `json:"reps,omitempty" yaml:"reps,omitempty"`
	Duration     string `json:"duration,omitempty" yaml:"duration,omitempty"`
	Time         string `json:"time,omitempty" yaml:"time,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`

	// Set when the plan is flattened.
	SectionName  string `json:"sectionName,omitempty" yaml:"-"`
	SectionIndex int    `json:"sectionIndex" yaml:"-"`
}

// DurationText returns the free-text duration, preferring Duration over Time.
func (e Exercise) DurationText() string {
	if e.Duration != "" {
		return e.Duration
	}
	return e.Time
}

// ParsedDuration parses the exercise's duration text.
func (e Exercise) ParsedDuration() Duration {
	return ParseDuration(e.DurationText())
}

// Details joins sets, reps and duration with " • ", falling back to the
// category and then to a generic hint.
func (e Exercise) Details() string {
	var parts []string
	if e.Sets != "" {
		parts = append(parts, e.Sets)
	}
	if e.Reps != "" {
		parts = append(parts, e.Reps)
	}
	if d := e.DurationText(); d != "" {
		parts = append(parts, d)
	}
	if len(parts) == 0 && e.Category != "" {
		parts = append(parts, e.Category)
	}
	if len(parts) == 0 {
		return "Follow instructions"
	}
	return strings.Join(parts, " • ")
}

// BriefInstruction returns the explicit instructions, or the first sentence
// of the description when there are none.
func (e Exercise) BriefInstruction() string {
	if e.Instructions != "" {
		return e.Instructions
	}
	if e.Description == "" {
		return ""
	}
	first, _, _ := strings.Cut(e.Description, ".")
	return strings.TrimSpace(first)
}
