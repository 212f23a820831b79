// Package planner materializes the tasks that apply to a single app day.
package planner

import (
	"fmt"
	"time"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/recurrence"
	"github.com/joescharf/mossy/internal/weekday"
)

// Category groups tasks for scoring and display.
type Category string

const (
	CategoryBase      Category = "base"
	CategorySleep     Category = "sleep"
	CategoryMorning   Category = "morning"
	CategoryAfternoon Category = "afternoon"
	CategoryMalus     Category = "malus"
)

// Fixed sleep task ids.
const (
	SleepBedID  = "sleep-bed"
	SleepWakeID = "sleep-wake"
)

// BaseID, WeeklyID, AdHocID and MalusID build positional task ids. Ad hoc ids
// are only unique within their day key.
func BaseID(i int) string   { return fmt.Sprintf("base-%d", i) }
func WeeklyID(i int) string { return fmt.Sprintf("daily-%d", i) }
func AdHocID(j int) string  { return fmt.Sprintf("spec-%d", j) }
func MalusID(i int) string  { return fmt.Sprintf("malus-%d", i) }

// Task is one checkable item of a day.
type Task struct {
	ID         string            `json:"id"`
	Label      string            `json:"label"`
	Category   Category          `json:"category"`
	PartOfDay  weekday.PartOfDay `json:"partOfDay,omitempty"`
	IsAdHoc    bool              `json:"isAdHoc,omitempty"`
	AdHocIndex int               `json:"adHocIndex,omitempty"`
}

// Plan is the materialized task set of one day.
type Plan struct {
	DayKey    string `json:"day"`
	Weekend   bool   `json:"weekend"`
	Base      []Task `json:"base"`
	Sleep     []Task `json:"sleep"`
	Morning   []Task `json:"morning"`
	Afternoon []Task `json:"afternoon"`
	Malus     []Task `json:"malus"`
}

// All returns every task of the plan in display order.
func (p Plan) All() []Task {
	out := make([]Task, 0, len(p.Base)+len(p.Sleep)+len(p.Morning)+len(p.Afternoon)+len(p.Malus))
	out = append(out, p.Base...)
	out = append(out, p.Sleep...)
	out = append(out, p.Morning...)
	out = append(out, p.Afternoon...)
	out = append(out, p.Malus...)
	return out
}

// Lookup finds a task by id.
func (p Plan) Lookup(id string) (Task, bool) {
	for _, t := range p.All() {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// Planner builds day plans for one calendar.
type Planner struct {
	cal      calendar.Calendar
	resolver *recurrence.Resolver
}

// New returns a Planner bound to cal.
func New(cal calendar.Calendar) *Planner {
	return &Planner{cal: cal, resolver: recurrence.NewResolver(cal)}
}

// Calendar returns the calendar the planner resolves days in.
func (p *Planner) Calendar() calendar.Calendar { return p.cal }

// MaterializeDay lists the tasks that apply on day. Holes in the catalog are
// skipped but keep their index, so ids stay stable. Weekly and ad hoc tasks
// whose part of day is neither morning nor afternoon are left out.
func (p *Planner) MaterializeDay(c models.Catalog, day time.Time) Plan {
	key := p.cal.DayKey(day)
	plan := Plan{
		DayKey:    key,
		Weekend:   p.cal.IsWeekend(day),
		Base:      []Task{},
		Sleep:     []Task{},
		Morning:   []Task{},
		Afternoon: []Task{},
		Malus:     []Task{},
	}

	for i, name := range c.BaseActivities {
		plan.Base = append(plan.Base, Task{ID: BaseID(i), Label: name, Category: CategoryBase})
	}

	if c.Sleep != nil {
		plan.Sleep = append(plan.Sleep,
			Task{ID: SleepBedID, Label: sleepLabel("Bed by", c.Sleep.Bedtime), Category: CategorySleep},
			Task{ID: SleepWakeID, Label: sleepLabel("Wake by", c.Sleep.Wakeup), Category: CategorySleep},
		)
	}

	for i, w := range c.WeeklyActivities {
		if !p.resolver.IsActiveOn(w, day) {
			continue
		}
		plan.route(Task{ID: WeeklyID(i), Label: w.Name, PartOfDay: w.PartOfDay})
	}

	for j, t := range c.DaySpecific[key] {
		if t == nil {
			continue
		}
		plan.route(Task{ID: AdHocID(j), Label: t.Name, PartOfDay: t.PartOfDay, IsAdHoc: true, AdHocIndex: j})
	}

	for i, m := range c.Malus {
		if m.WeekdaysOnly && plan.Weekend {
			continue
		}
		plan.Malus = append(plan.Malus, Task{ID: MalusID(i), Label: m.Name, Category: CategoryMalus})
	}

	return plan
}

func (p *Plan) route(t Task) {
	switch weekday.ParsePartOfDay(string(t.PartOfDay)) {
	case weekday.Morning:
		t.Category = CategoryMorning
		t.PartOfDay = weekday.Morning
		p.Morning = append(p.Morning, t)
	case weekday.Afternoon:
		t.Category = CategoryAfternoon
		t.PartOfDay = weekday.Afternoon
		p.Afternoon = append(p.Afternoon, t)
	}
}

func sleepLabel(prefix, hhmm string) string {
	if hhmm == "" {
		return prefix + " --:--"
	}
	return prefix + " " + hhmm
}
