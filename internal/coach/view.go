package coach

import (
	"fmt"

	"github.com/claude/courtside/internal/models"
)

// Timeline entry states.
const (
	SectionCompleted = "completed"
	SectionActive    = "active"
	SectionUpcoming  = "upcoming"
)

// View is what a presentation layer renders for the running workout.
type View struct {
	Active         bool            `json:"active"`
	PlanName       string          `json:"planName,omitempty"`
	Progress       string          `json:"progress,omitempty"`
	ExerciseNumber int             `json:"exerciseNumber,omitempty"`
	TotalExercises int             `json:"totalExercises,omitempty"`
	Section        string          `json:"section,omitempty"`
	Exercise       string          `json:"exercise,omitempty"`
	Details        string          `json:"details,omitempty"`
	Phase          models.Phase    `json:"phase,omitempty"`
	Label          string          `json:"label,omitempty"`
	Running        bool            `json:"running"`
	Remaining      string          `json:"remaining,omitempty"`
	Fraction       float64         `json:"fraction"`
	TotalElapsed   string          `json:"totalElapsed,omitempty"`
	Nav            Navigation      `json:"nav"`
	Timeline       []TimelineEntry `json:"timeline,omitempty"`
	Range          *RangeToggle    `json:"range,omitempty"`
}

// Navigation reports which skip controls are enabled.
type Navigation struct {
	PrevSection  bool `json:"prevSection"`
	NextSection  bool `json:"nextSection"`
	PrevExercise bool `json:"prevExercise"`
	NextExercise bool `json:"nextExercise"`
}

// TimelineEntry is one section of the progress timeline.
type TimelineEntry struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// RangeToggle is shown when the current exercise has a duration range.
type RangeToggle struct {
	Min    string `json:"min"`
	Max    string `json:"max"`
	UseMax bool   `json:"useMax"`
}

// Summary is published once a workout runs to completion.
type Summary struct {
	PlanName           string `json:"planName"`
	TotalElapsed       int    `json:"totalElapsed"`
	Duration           string `json:"duration"`
	Exercises          int    `json:"exercises"`
	Sections           int    `json:"sections"`
	CompletedExercises int    `json:"completedExercises"`
}

var phaseLabels = map[models.Phase]string{
	models.PhaseReady:     "Ready",
	models.PhaseCountdown: "Get Ready",
	models.PhaseExercise:  "Exercise",
	models.PhaseRest:      "Rest",
	models.PhaseComplete:  "Complete",
}

// FormatClock renders seconds as MM:SS.
func FormatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatElapsed renders seconds as M:SS.
func FormatElapsed(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func buildView(st *models.WorkoutState, rng models.Duration, useMax bool) View {
	if st == nil {
		return View{}
	}
	ts := st.TimerState
	v := View{
		Active:         true,
		PlanName:       st.PlanName,
		ExerciseNumber: min(st.CurrentExerciseIndex+1, len(st.Exercises)),
		TotalExercises: len(st.Exercises),
		Section:        st.SectionName(st.CurrentSectionIndex),
		Phase:          ts.Type,
		Label:          phaseLabels[ts.Type],
		Running:        ts.Running,
		Remaining:      FormatClock(ts.Remaining()),
		TotalElapsed:   FormatElapsed(st.TotalElapsed) + " elapsed",
		Nav: Navigation{
			PrevSection:  st.CurrentSectionIndex > 0,
			NextSection:  st.CurrentSectionIndex < len(st.Sections)-1,
			PrevExercise: st.CurrentExerciseIndex > 0,
			NextExercise: st.CurrentExerciseIndex < len(st.Exercises)-1,
		},
	}
	v.Progress = fmt.Sprintf("Exercise %d of %d", v.ExerciseNumber, v.TotalExercises)
	if ts.Total > 0 {
		v.Fraction = float64(ts.Elapsed) / float64(ts.Total)
	}
	if ex, ok := st.CurrentExercise(); ok {
		v.Exercise = ex.Name
		v.Details = ex.Details()
	}
	for i, sec := range st.Sections {
		status := SectionUpcoming
		switch {
		case i < st.CurrentSectionIndex:
			status = SectionCompleted
		case i == st.CurrentSectionIndex:
			status = SectionActive
		}
		v.Timeline = append(v.Timeline, TimelineEntry{Name: sec.Name, Status: status})
	}
	if rng.IsRange() {
		lo, hi := rng.BoundLabels()
		v.Range = &RangeToggle{Min: lo, Max: hi, UseMax: useMax}
	}
	return v
}
