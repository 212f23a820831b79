// Package calendar turns instants into app days: calendar dates in a fixed civil
// zone with an early-morning cutoff that still counts as the previous day.
package calendar

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone database embedded so the home zone always loads
)

// HomeZoneName is the civil zone every day key is computed in.
const HomeZoneName = "Europe/Rome"

// Two cutoffs exist in the recorded history of the product. Both are kept so a
// deployment can choose explicitly; DefaultCutoffHour is the one in use.
const (
	CutoffHourEarly   = 5
	CutoffHourLate    = 6
	DefaultCutoffHour = CutoffHourEarly
)

// KeyLayout is the day-key format. It never depends on the host locale.
const KeyLayout = "2006-01-02"

var homeZone = mustLoad(HomeZoneName)

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load zone %s: %v", name, err))
	}
	return loc
}

// HomeZone returns the product's civil zone.
func HomeZone() *time.Location { return homeZone }

// Clock supplies "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T.
type FixedClock struct{ T time.Time }

func (c FixedClock) Now() time.Time { return c.T }

// Calendar resolves app days for one zone and cutoff.
type Calendar struct {
	Location   *time.Location
	CutoffHour int
}

// New returns a Calendar; a nil location means the home zone and the cutoff is
// clamped into 0..23.
func New(loc *time.Location, cutoffHour int) Calendar {
	if loc == nil {
		loc = homeZone
	}
	if cutoffHour < 0 {
		cutoffHour = 0
	}
	if cutoffHour > 23 {
		cutoffHour = 23
	}
	return Calendar{Location: loc, CutoffHour: cutoffHour}
}

// Default is the home zone with DefaultCutoffHour.
func Default() Calendar { return New(homeZone, DefaultCutoffHour) }

// LoadZone resolves a zone name, falling back to the home zone for "".
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return homeZone, nil
	}
	return time.LoadLocation(name)
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return homeZone
	}
	return c.Location
}

// CivilNow is the clock's current instant in the civil zone.
func (c Calendar) CivilNow(clock Clock) time.Time {
	if clock == nil {
		clock = SystemClock{}
	}
	return clock.Now().In(c.loc())
}

// AppDayFloor returns midnight of the app day the moment belongs to.
func (c Calendar) AppDayFloor(moment time.Time) time.Time {
	t := moment.In(c.loc())
	y, m, d := t.Date()
	if t.Hour() < c.CutoffHour {
		d--
	}
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// Today is the app day of the clock's current instant.
func (c Calendar) Today(clock Clock) time.Time {
	return c.AppDayFloor(c.CivilNow(clock))
}

// Date returns midnight of t's calendar date in the civil zone, ignoring the cutoff.
func (c Calendar) Date(t time.Time) time.Time {
	y, m, d := t.In(c.loc()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc())
}

// DayKey formats t's civil date as YYYY-MM-DD.
func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.loc()).Format(KeyLayout)
}

// ParseDayKey parses a YYYY-MM-DD key as midnight in the civil zone.
func (c Calendar) ParseDayKey(key string) (time.Time, error) {
	t, err := time.ParseInLocation(KeyLayout, key, c.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", key, err)
	}
	return t, nil
}

// AddAppDays moves date by delta calendar days. The date is pinned to noon first
// so the cutoff can never pull the result back a day.
func (c Calendar) AddAppDays(date time.Time, delta int) time.Time {
	y, m, d := date.In(c.loc()).Date()
	noon := time.Date(y, m, d+delta, 12, 0, 0, 0, c.loc())
	return c.AppDayFloor(noon)
}

// DaysBetween counts calendar days from a to b (negative when b is earlier).
func (c Calendar) DaysBetween(a, b time.Time) int {
	ay, am, ad := a.In(c.loc()).Date()
	by, bm, bd := b.In(c.loc()).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// IsWeekend reports whether t falls on Saturday or Sunday in the civil zone.
func (c Calendar) IsWeekend(t time.Time) bool {
	wd := t.In(c.loc()).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
