// Package streaks derives streak counts from a trailing window of day scores.
package streaks

import (
	"time"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/scoring"
)

// Defaults for the streak window.
const (
	DefaultWindowDays = 30
	DefaultThreshold  = 80
)

// Options tune a streak scan.
type Options struct {
	WindowDays int
	Threshold  int
	// AccountCreated stops the scan at the app day the account was created.
	// Zero scans the whole window.
	AccountCreated time.Time
}

// DefaultOptions returns the standard 30-day window with an 80-point threshold.
func DefaultOptions() Options {
	return Options{WindowDays: DefaultWindowDays, Threshold: DefaultThreshold}
}

// DayScore is one scored day.
type DayScore struct {
	DayKey    string             `json:"day"`
	Date      time.Time          `json:"-"`
	Score     int                `json:"score"`
	Band      scoring.Band       `json:"band"`
	Breakdown *scoring.Breakdown `json:"breakdown,omitempty"`
	Qualified bool               `json:"qualified"`
}

// Result holds the streak counts and the scored days, oldest first.
type Result struct {
	Current int        `json:"current"`
	Best    int        `json:"best"`
	Days    []DayScore `json:"days"`
}

// Aggregator scans day scores.
type Aggregator struct {
	scorer *scoring.Scorer
}

// NewAggregator returns an Aggregator scoring days with s.
func NewAggregator(s *scoring.Scorer) *Aggregator {
	return &Aggregator{scorer: s}
}

// History scores up to n days ending at today, oldest first. Days before the
// account's creation day are not scored.
func (a *Aggregator) History(c models.Catalog, comps models.CompletionMap, today time.Time, n int, accountCreated time.Time) []DayScore {
	cal := a.scorer.Planner().Calendar()
	createdKey := ""
	if !accountCreated.IsZero() {
		createdKey = cal.DayKey(cal.AppDayFloor(accountCreated))
	}

	var newestFirst []DayScore
	for i := 0; i < n; i++ {
		d := cal.AddAppDays(today, -i)
		key := cal.DayKey(d)
		if createdKey != "" && key < createdKey {
			break
		}
		b := a.scorer.Score(c, comps.Day(key), d)
		newestFirst = append(newestFirst, DayScore{
			DayKey:    key,
			Date:      d,
			Score:     b.Total,
			Band:      scoring.ProgressBand(b.Total),
			Breakdown: b,
		})
	}

	out := make([]DayScore, len(newestFirst))
	for i, ds := range newestFirst {
		out[len(out)-1-i] = ds
	}
	return out
}

// Streaks walks back from today. Current is the run of qualifying days ending
// today; Best is the longest run anywhere in the window.
func (a *Aggregator) Streaks(c models.Catalog, comps models.CompletionMap, today time.Time, opts Options) Result {
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	days := a.History(c, comps, today, opts.WindowDays, opts.AccountCreated)

	res := Result{Days: days}
	run := 0
	currentOpen := true
	for i := len(days) - 1; i >= 0; i-- {
		days[i].Qualified = days[i].Score >= opts.Threshold
		if days[i].Qualified {
			run++
			res.Best = max(res.Best, run)
			continue
		}
		if currentOpen {
			res.Current = run
			currentOpen = false
		}
		run = 0
	}
	if currentOpen {
		res.Current = run
	}
	return res
}
