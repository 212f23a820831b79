package models

import (
	"time"

	"github.com/joescharf/mossy/internal/weekday"
)

// Catalog is a user's habit definitions in canonical form. Positions in the
// lists are task identity, so entries are never compacted: a nil entry is a hole
// left by a malformed stored record and keeps the indices after it stable.
type Catalog struct {
	BaseActivities   []string
	Sleep            *Sleep
	WeeklyActivities []*WeeklyActivity
	DaySpecific      map[string][]*AdHocTask
	Malus            []Malus
}

// Sleep holds the bedtime and wake-up targets as HH:MM text.
type Sleep struct {
	Bedtime string `json:"bedtime" yaml:"bedtime"`
	Wakeup  string `json:"wakeup" yaml:"wakeup"`
}

// WeeklyActivity recurs on some weekdays every RepeatEveryWeeks weeks, shifted by
// WeekOffset weeks, counted from the day it was created.
type WeeklyActivity struct {
	Name             string
	Weekdays         []time.Weekday
	PartOfDay        weekday.PartOfDay
	RepeatEveryWeeks int
	WeekOffset       int
	CreatedAt        time.Time // zero when unknown
}

// AdHocTask is a one-off task scoped to a single day key.
type AdHocTask struct {
	Name      string            `json:"name" yaml:"name"`
	PartOfDay weekday.PartOfDay `json:"partOfDay" yaml:"partOfDay"`
}

// Malus is a behavior to avoid; completing it costs points.
type Malus struct {
	Name         string `json:"name" yaml:"name"`
	WeekdaysOnly bool   `json:"weekdaysOnly" yaml:"weekdaysOnly"`
}

// DayCompletions maps task ids to their checked state for one day.
type DayCompletions map[string]bool

// CompletionMap maps day keys to that day's completions.
type CompletionMap map[string]DayCompletions

// Day returns the completions of one day, never nil.
func (m CompletionMap) Day(key string) DayCompletions {
	if d, ok := m[key]; ok && d != nil {
		return d
	}
	return DayCompletions{}
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := Catalog{
		BaseActivities: append([]string(nil), c.BaseActivities...),
		Malus:          append([]Malus(nil), c.Malus...),
	}
	if c.Sleep != nil {
		s := *c.Sleep
		out.Sleep = &s
	}
	for _, w := range c.WeeklyActivities {
		if w == nil {
			out.WeeklyActivities = append(out.WeeklyActivities, nil)
			continue
		}
		cp := *w
		cp.Weekdays = append([]time.Weekday(nil), w.Weekdays...)
		out.WeeklyActivities = append(out.WeeklyActivities, &cp)
	}
	if c.DaySpecific != nil {
		out.DaySpecific = make(map[string][]*AdHocTask, len(c.DaySpecific))
		for k, list := range c.DaySpecific {
			cl := make([]*AdHocTask, len(list))
			for i, t := range list {
				if t != nil {
					cp := *t
					cl[i] = &cp
				}
			}
			out.DaySpecific[k] = cl
		}
	}
	return out
}

// IsEmpty reports whether nothing has been configured yet.
func (c Catalog) IsEmpty() bool {
	return len(c.BaseActivities) == 0 && c.Sleep == nil &&
		len(c.WeeklyActivities) == 0 && len(c.Malus) == 0 && len(c.DaySpecific) == 0
}
