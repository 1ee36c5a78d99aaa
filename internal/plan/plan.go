// Package plan provides the workout library: the built-in warm-up, cool-down
// and 8-week program, extra plan files and custom workouts, all flattened into
// models.PlanDescriptor values the coach can run.
package plan

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/claude/courtside/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrUnknownPlan is returned when an ID does not name a plan in the catalog.
var ErrUnknownPlan = errors.New("unknown plan")

// ProgramWeeks and ProgramDays bound the 8-week program grid.
const (
	ProgramWeeks = 8
	ProgramDays  = 4
)

// protocolFile is the on-disk layout of a single-plan YAML file.
type protocolFile struct {
	ID       string           `yaml:"id"`
	Type     models.PlanType  `yaml:"type"`
	Name     string           `yaml:"name"`
	Sections []models.Section `yaml:"sections"`
}

type programFile struct {
	Name  string        `yaml:"name"`
	Weeks []programWeek `yaml:"weeks"`
}

type programWeek struct {
	Number int          `yaml:"number"`
	Focus  string       `yaml:"focus"`
	Days   []programDay `yaml:"days"`
}

type programDay struct {
	Key      string           `yaml:"key"`
	Name     string           `yaml:"name"`
	Sections []models.Section `yaml:"sections"`
}

// Summary describes one runnable plan for listings.
type Summary struct {
	ID        string          `json:"id"`
	Type      models.PlanType `json:"type"`
	Name      string          `json:"name"`
	Week      int             `json:"week,omitempty"`
	Day       int             `json:"day,omitempty"`
	Sections  int             `json:"sections"`
	Exercises int             `json:"exercises"`
}

// Catalog holds every plan known at startup. It is read-only after Load.
type Catalog struct {
	plans []*models.PlanDescriptor
	byID  map[string]*models.PlanDescriptor
}

// Load parses the embedded library and, when dir is non-empty, every *.yaml
// file in dir. Extra files use the single-plan layout and may replace a
// built-in plan by reusing its ID.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*models.PlanDescriptor)}

	for _, name := range []string{"data/warmup.yaml", "data/cooldown.yaml"} {
		data, err := dataFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		p, err := parseProtocol(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		c.add(p)
	}

	data, err := dataFS.ReadFile("data/eight-week.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading program: %w", err)
	}
	days, err := parseProgram(data)
	if err != nil {
		return nil, fmt.Errorf("parsing program: %w", err)
	}
	for _, p := range days {
		c.add(p)
	}

	if dir != "" {
		if err := c.loadDir(dir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) loadDir(dir string) error {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return fmt.Errorf("listing plans dir: %w", err)
	}
	slices.Sort(paths)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		p, err := parseProtocol(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		if p.ID == "" {
			p.ID = strings.TrimSuffix(filepath.Base(path), ".yaml")
		}
		c.add(p)
	}
	return nil
}

func (c *Catalog) add(p *models.PlanDescriptor) {
	if _, ok := c.byID[p.ID]; ok {
		i := slices.IndexFunc(c.plans, func(q *models.PlanDescriptor) bool { return q.ID == p.ID })
		c.plans[i] = p
	} else {
		c.plans = append(c.plans, p)
	}
	c.byID[p.ID] = p
}

func parseProtocol(data []byte) (*models.PlanDescriptor, error) {
	var f protocolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Type == "" {
		f.Type = models.PlanCustom
	}
	if !f.Type.Valid() {
		return nil, fmt.Errorf("invalid plan type %q", f.Type)
	}
	return Flatten(f.Type, f.ID, f.Name, f.Sections), nil
}

func parseProgram(data []byte) ([]*models.PlanDescriptor, error) {
	var f programFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	var out []*models.PlanDescriptor
	for _, w := range f.Weeks {
		if w.Number < 1 || w.Number > ProgramWeeks {
			return nil, fmt.Errorf("week %d out of range", w.Number)
		}
		for i, d := range w.Days {
			day := i + 1
			name := fmt.Sprintf("Week %d %s: %s", w.Number, dayTitle(d.Key), d.Name)
			p := Flatten(models.PlanEightWeek, DayID(w.Number, day), name, d.Sections)
			p.Week, p.Day = w.Number, day
			out = append(out, p)
		}
	}
	return out, nil
}

func dayTitle(key string) string {
	if key == "" {
		return ""
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

// DayID returns the catalog ID of a program day, e.g. "w3d2".
func DayID(week, day int) string {
	return "w" + strconv.Itoa(week) + "d" + strconv.Itoa(day)
}

// Get returns a copy of the plan with the given ID.
func (c *Catalog) Get(id string) (*models.PlanDescriptor, error) {
	p, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, id)
	}
	return clone(p), nil
}

// Day returns the 8-week program session for week (1-8) and day (1-4).
func (c *Catalog) Day(week, day int) (*models.PlanDescriptor, error) {
	if week < 1 || week > ProgramWeeks || day < 1 || day > ProgramDays {
		return nil, fmt.Errorf("%w: week %d day %d", ErrUnknownPlan, week, day)
	}
	return c.Get(DayID(week, day))
}

// List returns summaries of every plan in load order.
func (c *Catalog) List() []Summary {
	out := make([]Summary, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, Summary{
			ID:        p.ID,
			Type:      p.Type,
			Name:      p.Name,
			Week:      p.Week,
			Day:       p.Day,
			Sections:  len(p.Sections),
			Exercises: len(p.Exercises),
		})
	}
	return out
}

// Flatten builds a plan descriptor from sections, recording the section name
// and index on each flattened exercise.
func Flatten(t models.PlanType, id, name string, sections []models.Section) *models.PlanDescriptor {
	p := &models.PlanDescriptor{
		Type:     t,
		ID:       id,
		Name:     name,
		Sections: make([]models.Section, len(sections)),
	}
	for i, sec := range sections {
		sec.Exercises = slices.Clone(sec.Exercises)
		p.Sections[i] = sec
		for _, ex := range sec.Exercises {
			ex.SectionName = sec.Name
			ex.SectionIndex = i
			p.Exercises = append(p.Exercises, ex)
		}
	}
	return p
}

// Custom builds a single-section plan from a user-built workout.
func Custom(w models.CustomWorkout) *models.PlanDescriptor {
	sections := []models.Section{{Name: w.Name, Exercises: w.Exercises}}
	return Flatten(models.PlanCustom, w.ID.String(), w.Name, sections)
}

func clone(p *models.PlanDescriptor) *models.PlanDescriptor {
	c := *p
	c.Sections = make([]models.Section, len(p.Sections))
	for i, sec := range p.Sections {
		sec.Exercises = slices.Clone(sec.Exercises)
		c.Sections[i] = sec
	}
	c.Exercises = slices.Clone(p.Exercises)
	return &c
}
