// Package scoring computes the 0-100 score of a single app day.
package scoring

import (
	"time"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/planner"
)

// Point values. Two base weights and two top-off thresholds exist in the
// product's history; the Current values are the ones in use.
const (
	BasePointsCurrent      = 5
	BasePointsLegacy       = 10
	SleepPoints            = 15
	PartCompleteBonus      = 20
	SubstituteBasePoints   = 2
	SubstituteSleepPoints  = 5
	MalusPenalty           = 10
	TopOffThresholdCurrent = 90
	TopOffThresholdLegacy  = 95

	MinScore = 0
	MaxScore = 100
)

// Rules bundles the point values a Scorer applies.
type Rules struct {
	BasePoints            int
	SleepPoints           int
	PartCompleteBonus     int
	SubstituteBasePoints  int
	SubstituteSleepPoints int
	MalusPenalty          int
	TopOffThreshold       int
}

// DefaultRules returns the rules in use.
func DefaultRules() Rules {
	return Rules{
		BasePoints:            BasePointsCurrent,
		SleepPoints:           SleepPoints,
		PartCompleteBonus:     PartCompleteBonus,
		SubstituteBasePoints:  SubstituteBasePoints,
		SubstituteSleepPoints: SubstituteSleepPoints,
		MalusPenalty:          MalusPenalty,
		TopOffThreshold:       TopOffThresholdCurrent,
	}
}

// PartStatus describes a morning or afternoon task set.
type PartStatus string

const (
	PartEmpty      PartStatus = "empty"
	PartComplete   PartStatus = "complete"
	PartIncomplete PartStatus = "incomplete"
)

// Breakdown is a day's score with the points behind it.
type Breakdown struct {
	Total     int `json:"total"`
	Raw       int `json:"raw"` // before clamping and top-off
	Base      int `json:"base"`
	Sleep     int `json:"sleep"`
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Malus     int `json:"malus"` // zero or negative

	BaseDone  int `json:"baseDone"`
	SleepDone int `json:"sleepDone"`
	MalusDone int `json:"malusDone"`

	MorningStatus   PartStatus `json:"morningStatus"`
	AfternoonStatus PartStatus `json:"afternoonStatus"`
	ToppedOff       bool       `json:"toppedOff"`
}

// Scorer computes day scores.
type Scorer struct {
	planner *planner.Planner
	rules   Rules
}

// NewScorer returns a Scorer that materializes days with p and applies rules.
func NewScorer(p *planner.Planner, rules Rules) *Scorer {
	return &Scorer{planner: p, rules: rules}
}

// Rules returns the scorer's rules.
func (s *Scorer) Rules() Rules { return s.rules }

// Planner returns the planner used to materialize days.
func (s *Scorer) Planner() *planner.Planner { return s.planner }

// Score materializes day from the catalog and scores it against done, the
// completions of that day.
func (s *Scorer) Score(c models.Catalog, done models.DayCompletions, day time.Time) *Breakdown {
	return s.ScorePlan(s.planner.MaterializeDay(c, day), done)
}

// ScorePlan scores an already materialized day.
func (s *Scorer) ScorePlan(plan planner.Plan, done models.DayCompletions) *Breakdown {
	r := s.rules
	b := &Breakdown{}

	b.BaseDone = countDone(plan.Base, done)
	b.Base = b.BaseDone * r.BasePoints

	b.SleepDone = countDone(plan.Sleep, done)
	b.Sleep = b.SleepDone * r.SleepPoints

	b.MorningStatus, b.Morning = s.scorePart(plan.Morning, done, b.BaseDone, b.SleepDone)
	b.AfternoonStatus, b.Afternoon = s.scorePart(plan.Afternoon, done, b.BaseDone, b.SleepDone)

	// plan.Malus already excludes weekday-only malus on weekends.
	b.MalusDone = countDone(plan.Malus, done)
	b.Malus = -b.MalusDone * r.MalusPenalty

	b.Raw = b.Base + b.Sleep + b.Morning + b.Afternoon + b.Malus

	total := max(MinScore, b.Raw)
	if total >= r.TopOffThreshold && b.MorningStatus != PartIncomplete && b.AfternoonStatus != PartIncomplete {
		total = MaxScore
		b.ToppedOff = b.Raw != MaxScore
	}
	b.Total = min(MaxScore, total)
	return b
}

// scorePart awards the completion bonus to a non-empty set that is fully done,
// and the substitute bonus to an empty set.
func (s *Scorer) scorePart(tasks []planner.Task, done models.DayCompletions, baseDone, sleepDone int) (PartStatus, int) {
	if len(tasks) == 0 {
		return PartEmpty, baseDone*s.rules.SubstituteBasePoints + sleepDone*s.rules.SubstituteSleepPoints
	}
	if countDone(tasks, done) == len(tasks) {
		return PartComplete, s.rules.PartCompleteBonus
	}
	return PartIncomplete, 0
}

func countDone(tasks []planner.Task, done models.DayCompletions) int {
	n := 0
	for _, t := range tasks {
		if done[t.ID] {
			n++
		}
	}
	return n
}

// Band is a coarse rating of a day's score used for coloring.
type Band string

const (
	BandPerfect   Band = "perfect"
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
)

// ProgressBand maps a score to its band.
func ProgressBand(total int) Band {
	switch {
	case total >= 100:
		return BandPerfect
	case total > 95:
		return BandExcellent
	case total > 70:
		return BandGood
	case total > 50:
		return BandFair
	default:
		return BandPoor
	}
}
