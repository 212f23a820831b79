package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/weekday"
)

func mustDay(t *testing.T, key string) time.Time {
	t.Helper()
	d, err := calendar.Default().ParseDayKey(key)
	require.NoError(t, err)
	return d
}

func ids(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func fixture() models.Catalog {
	created := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	return models.Catalog{
		BaseActivities: []string{"Water", "Stretch", "Read"},
		Sleep:          &models.Sleep{Bedtime: "22:30", Wakeup: "07:00"},
		WeeklyActivities: []*models.WeeklyActivity{
			{Name: "Run", Weekdays: []time.Weekday{time.Monday}, PartOfDay: weekday.Morning, RepeatEveryWeeks: 1, CreatedAt: created},
			nil,
			{Name: "Gym", Weekdays: []time.Weekday{time.Monday}, PartOfDay: weekday.Afternoon, RepeatEveryWeeks: 1, CreatedAt: created},
			{Name: "Choir", Weekdays: []time.Weekday{time.Monday}, PartOfDay: "sera", RepeatEveryWeeks: 1},
			{Name: "Piano", Weekdays: []time.Weekday{time.Tuesday}, PartOfDay: weekday.Morning, RepeatEveryWeeks: 1},
		},
		DaySpecific: map[string][]*models.AdHocTask{
			"2023-06-05": {nil, {Name: "Dentist", PartOfDay: weekday.Afternoon}},
		},
		Malus: []models.Malus{
			{Name: "Sugar", WeekdaysOnly: true},
			{Name: "Doomscroll"},
		},
	}
}

func TestMaterializeDay_Monday(t *testing.T) {
	p := New(calendar.Default())
	plan := p.MaterializeDay(fixture(), mustDay(t, "2023-06-05"))

	assert.Equal(t, "2023-06-05", plan.DayKey)
	assert.False(t, plan.Weekend)
	assert.Equal(t, []string{"base-0", "base-1", "base-2"}, ids(plan.Base))
	assert.Equal(t, []string{"sleep-bed", "sleep-wake"}, ids(plan.Sleep))
	assert.Equal(t, []string{"daily-0"}, ids(plan.Morning))
	assert.Equal(t, []string{"daily-2", "spec-1"}, ids(plan.Afternoon))
	assert.Equal(t, []string{"malus-0", "malus-1"}, ids(plan.Malus))

	assert.Equal(t, "Bed by 22:30", plan.Sleep[0].Label)
	assert.Equal(t, "Wake by 07:00", plan.Sleep[1].Label)

	adhoc := plan.Afternoon[1]
	assert.True(t, adhoc.IsAdHoc)
	assert.Equal(t, 1, adhoc.AdHocIndex)
	assert.Equal(t, CategoryAfternoon, adhoc.Category)
}

func TestMaterializeDay_Tuesday(t *testing.T) {
	plan := New(calendar.Default()).MaterializeDay(fixture(), mustDay(t, "2023-06-06"))
	assert.Equal(t, []string{"daily-4"}, ids(plan.Morning))
	assert.Empty(t, plan.Afternoon, "ad hoc tasks belong to their own day only")
}

func TestMaterializeDay_WeekendMalus(t *testing.T) {
	plan := New(calendar.Default()).MaterializeDay(fixture(), mustDay(t, "2023-06-11"))
	assert.True(t, plan.Weekend)
	assert.Equal(t, []string{"malus-1"}, ids(plan.Malus))
}

func TestMaterializeDay_EmptyCatalog(t *testing.T) {
	plan := New(calendar.Default()).MaterializeDay(models.Catalog{}, mustDay(t, "2023-06-05"))
	assert.Empty(t, plan.All())
	assert.NotNil(t, plan.Morning)
}

func TestMaterializeDay_DoesNotMutate(t *testing.T) {
	c := fixture()
	before := c.Clone()
	New(calendar.Default()).MaterializeDay(c, mustDay(t, "2023-06-05"))
	assert.Equal(t, before, c)
}

func TestPlanLookup(t *testing.T) {
	plan := New(calendar.Default()).MaterializeDay(fixture(), mustDay(t, "2023-06-05"))

	task, ok := plan.Lookup("daily-2")
	require.True(t, ok)
	assert.Equal(t, "Gym", task.Label)

	_, ok = plan.Lookup("daily-1")
	assert.False(t, ok, "holes produce no task")
	_, ok = plan.Lookup("daily-3")
	assert.False(t, ok, "unrouted parts of day produce no task")

	assert.Len(t, plan.All(), 3+2+1+2+2)
}

func TestIDs(t *testing.T) {
	assert.Equal(t, "base-3", BaseID(3))
	assert.Equal(t, "daily-0", WeeklyID(0))
	assert.Equal(t, "spec-2", AdHocID(2))
	assert.Equal(t, "malus-1", MalusID(1))
}
