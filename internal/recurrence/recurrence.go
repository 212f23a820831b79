// Package recurrence decides whether a weekly habit is scheduled on a given day.
package recurrence

import (
	"slices"
	"time"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/models"
)

// Resolver evaluates weekly cadences against app days of one calendar.
type Resolver struct {
	cal calendar.Calendar
}

// NewResolver returns a Resolver bound to cal.
func NewResolver(cal calendar.Calendar) *Resolver {
	return &Resolver{cal: cal}
}

// IsActiveOn reports whether habit is due on day. A habit is due when day falls
// on one of its weekdays and the number of whole weeks since it was created,
// less its offset, is a multiple of its repeat interval. Habits without a
// creation date count from day itself, so they are never excluded retroactively.
func (r *Resolver) IsActiveOn(habit *models.WeeklyActivity, day time.Time) bool {
	if habit == nil {
		return false
	}
	civil := r.cal.Date(day)
	if !slices.Contains(habit.Weekdays, civil.Weekday()) {
		return false
	}

	created := civil
	if !habit.CreatedAt.IsZero() {
		created = r.cal.Date(habit.CreatedAt)
	}
	days := r.cal.DaysBetween(created, civil)
	if days < 0 {
		return false
	}
	return Due(days/7, habit.RepeatEveryWeeks, habit.WeekOffset)
}

// WeeksSince is the number of whole weeks from the habit's creation day to day,
// or -1 when day comes first.
func (r *Resolver) WeeksSince(habit *models.WeeklyActivity, day time.Time) int {
	if habit == nil || habit.CreatedAt.IsZero() {
		return 0
	}
	days := r.cal.DaysBetween(r.cal.Date(habit.CreatedAt), r.cal.Date(day))
	if days < 0 {
		return -1
	}
	return days / 7
}

// Due applies the cadence rule to a week count. repeat is floored at 1 and
// offset at 0.
func Due(weeks, repeat, offset int) bool {
	repeat = max(1, repeat)
	offset = max(0, offset)
	return (weeks-offset)%repeat == 0
}
