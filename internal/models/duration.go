package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultExerciseSeconds is used when a duration cannot be parsed.
const DefaultExerciseSeconds = 30

// DurationKind tags which encoding a free-text duration used.
type DurationKind int

const (
	DurationUnknown DurationKind = iota
	DurationFixed
	DurationRange
)

// Duration units for ranges.
const (
	UnitSeconds = "sec"
	UnitMinutes = "min"
)

// Duration is a parsed exercise duration. Fixed durations carry Seconds;
// ranges carry MinSeconds/MaxSeconds and the unit they were written in.
type Duration struct {
	Kind       DurationKind
	Seconds    int
	MinSeconds int
	MaxSeconds int
	Unit       string
}

var (
	rangePattern  = regexp.MustCompile(`(\d+)\s*-\s*(\d+)`)
	minutePattern = regexp.MustCompile(`(\d+)\s*minute`)
	secondPattern = regexp.MustCompile(`(\d+)\s*second`)
	numberPattern = regexp.MustCompile(`(\d+)`)
)

// ParseDuration parses texts such as "30 seconds", "1 minute",
// "2 x 30 seconds" and "20-30 seconds". A range wins over every other
// encoding; minutes are checked before seconds.
func ParseDuration(text string) Duration {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return Duration{Kind: DurationUnknown}
	}

	if m := rangePattern.FindStringSubmatch(s); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		mult, unit := 1, UnitSeconds
		if strings.Contains(s, "minute") {
			mult, unit = 60, UnitMinutes
		}
		return Duration{Kind: DurationRange, MinSeconds: lo * mult, MaxSeconds: hi * mult, Unit: unit}
	}

	if m := minutePattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Duration{Kind: DurationFixed, Seconds: n * 60}
	}
	if m := secondPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Duration{Kind: DurationFixed, Seconds: n}
	}
	if m := numberPattern.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return Duration{Kind: DurationFixed, Seconds: n}
	}
	return Duration{Kind: DurationUnknown}
}

// IsRange reports whether the duration was written as a range.
func (d Duration) IsRange() bool {
	return d.Kind == DurationRange
}

// Resolve returns the active duration in seconds. useMax only matters for ranges.
func (d Duration) Resolve(useMax bool) int {
	switch d.Kind {
	case DurationRange:
		if useMax {
			return d.MaxSeconds
		}
		return d.MinSeconds
	case DurationFixed:
		if d.Seconds > 0 {
			return d.Seconds
		}
	}
	return DefaultExerciseSeconds
}

// SameRange reports whether d and o are ranges with identical bounds.
func (d Duration) SameRange(o Duration) bool {
	return d.IsRange() && o.IsRange() &&
		d.MinSeconds == o.MinSeconds && d.MaxSeconds == o.MaxSeconds && d.Unit == o.Unit
}

// BoundLabels renders the range bounds in their original unit, e.g. "20sec"/"30sec".
func (d Duration) BoundLabels() (string, string) {
	if !d.IsRange() {
		return "", ""
	}
	if d.Unit == UnitMinutes {
		return fmt.Sprintf("%d%s", d.MinSeconds/60, d.Unit), fmt.Sprintf("%d%s", d.MaxSeconds/60, d.Unit)
	}
	return fmt.Sprintf("%d%s", d.MinSeconds, d.Unit), fmt.Sprintf("%d%s", d.MaxSeconds, d.Unit)
}
