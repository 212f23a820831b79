package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mossy/internal/weekday"
)

func TestDecodeCatalog_CurrentShape(t *testing.T) {
	c := DecodeCatalog([]byte(`{
		"baseActivities": ["Water", "Stretch"],
		"sleep": {"bedtime": "22:30", "wakeup": "07:00"},
		"weeklyActivities": [
			{"name": "Run", "weekday": "Lunedì", "partOfDay": "Mattina", "repeatEveryWeeks": 2, "weekOffset": 1, "createdAt": "2023-06-05"}
		],
		"daySpecific": {"2023-06-05": [{"name": "Dentist", "partOfDay": "pm"}]},
		"malus": [{"name": "Sugar", "weekdaysOnly": false}]
	}`))

	assert.Equal(t, []string{"Water", "Stretch"}, c.BaseActivities)
	require.NotNil(t, c.Sleep)
	assert.Equal(t, "07:00", c.Sleep.Wakeup)

	require.Len(t, c.WeeklyActivities, 1)
	w := c.WeeklyActivities[0]
	assert.Equal(t, "Run", w.Name)
	assert.Equal(t, []time.Weekday{time.Monday}, w.Weekdays)
	assert.Equal(t, weekday.Morning, w.PartOfDay)
	assert.Equal(t, 2, w.RepeatEveryWeeks)
	assert.Equal(t, 1, w.WeekOffset)
	assert.Equal(t, "2023-06-05", w.CreatedAt.Format("2006-01-02"))

	require.Len(t, c.DaySpecific["2023-06-05"], 1)
	assert.Equal(t, weekday.Afternoon, c.DaySpecific["2023-06-05"][0].PartOfDay)
	assert.Equal(t, []Malus{{Name: "Sugar"}}, c.Malus)
}

func TestDecodeCatalog_LegacyShapes(t *testing.T) {
	c := DecodeCatalog([]byte(`{
		"baseActivities": ["A"],
		"sleep": {"bedtime": "23:00", "wakeTime": "06:30"},
		"dailyActivities": [
			{"name": "Gym", "days": ["Mon", "Thu"], "partOfDay": "afternoon", "repeat": "3", "offset": "-2"},
			null,
			{"name": "Read", "weekday": "Ven", "repeat": null}
		],
		"dailySpecific": {"2023-06-09": [null, {"name": "Call"}]},
		"malus": ["Smoking", {"name": "Late", "weekdaysOnly": "true"}, 42]
	}`))

	require.NotNil(t, c.Sleep)
	assert.Equal(t, "06:30", c.Sleep.Wakeup)

	require.Len(t, c.WeeklyActivities, 3)
	gym := c.WeeklyActivities[0]
	assert.Equal(t, []time.Weekday{time.Monday, time.Thursday}, gym.Weekdays)
	assert.Equal(t, weekday.Afternoon, gym.PartOfDay)
	assert.Equal(t, 3, gym.RepeatEveryWeeks)
	assert.Equal(t, 0, gym.WeekOffset, "negative offsets clamp to zero")
	assert.True(t, gym.CreatedAt.IsZero())

	assert.Nil(t, c.WeeklyActivities[1], "holes keep their index")

	read := c.WeeklyActivities[2]
	assert.Equal(t, 1, read.RepeatEveryWeeks)
	assert.Equal(t, weekday.Morning, read.PartOfDay)

	adhoc := c.DaySpecific["2023-06-09"]
	require.Len(t, adhoc, 2)
	assert.Nil(t, adhoc[0])
	assert.Equal(t, "Call", adhoc[1].Name)

	require.Len(t, c.Malus, 3)
	assert.Equal(t, Malus{Name: "Smoking", WeekdaysOnly: true}, c.Malus[0])
	assert.Equal(t, Malus{Name: "Late", WeekdaysOnly: true}, c.Malus[1])
	assert.Equal(t, Malus{}, c.Malus[2])
}

func TestDecodeCatalog_Garbage(t *testing.T) {
	assert.True(t, DecodeCatalog(nil).IsEmpty())
	assert.True(t, DecodeCatalog([]byte(`not json`)).IsEmpty())
	assert.True(t, DecodeCatalog([]byte(`[1,2]`)).IsEmpty())

	c := DecodeCatalog([]byte(`{"baseActivities": "oops", "sleep": "yes", "weeklyActivities": {"a": 1}, "malus": 7}`))
	assert.True(t, c.IsEmpty())
}

func TestDecodeCatalog_CreatedAtForms(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"rfc3339", `"2023-06-01T00:00:00Z"`, "2023-06-01T00:00:00Z"},
		{"date only", `"2023-06-01"`, "2023-05-31T22:00:00Z"},
		{"epoch millis", `1685577600000`, "2023-06-01T00:00:00Z"},
		{"timestamp object", `{"seconds": 1685577600, "nanoseconds": 0}`, "2023-06-01T00:00:00Z"},
		{"garbage", `"yesterday"`, ""},
		{"bool", `true`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DecodeCatalog([]byte(`{"weeklyActivities": [{"name": "x", "weekday": "Mon", "createdAt": ` + tt.raw + `}]}`))
			require.Len(t, c.WeeklyActivities, 1)
			got := c.WeeklyActivities[0].CreatedAt
			if tt.want == "" {
				assert.True(t, got.IsZero())
				return
			}
			assert.Equal(t, tt.want, got.UTC().Format(time.RFC3339))
		})
	}
}

func TestCatalogDocument_RoundTrip(t *testing.T) {
	created := time.Date(2023, 6, 5, 8, 0, 0, 0, time.UTC)
	c := Catalog{
		BaseActivities: []string{"Water"},
		Sleep:          &Sleep{Bedtime: "22:30", Wakeup: "07:00"},
		WeeklyActivities: []*WeeklyActivity{
			{Name: "Run", Weekdays: []time.Weekday{time.Monday}, PartOfDay: weekday.Morning, RepeatEveryWeeks: 2, CreatedAt: created},
			nil,
			{Name: "Gym", Weekdays: []time.Weekday{time.Tuesday, time.Friday}, PartOfDay: weekday.Afternoon, RepeatEveryWeeks: 1, WeekOffset: 1},
		},
		DaySpecific: map[string][]*AdHocTask{"2023-06-05": {{Name: "Dentist", PartOfDay: weekday.Afternoon}}},
		Malus:       []Malus{{Name: "Sugar", WeekdaysOnly: true}},
	}

	doc, err := c.Document()
	require.NoError(t, err)
	assert.Equal(t, []string{"baseActivities", "daySpecific", "malus", "sleep", "weeklyActivities"}, doc.Keys())

	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	back := DecodeCatalog(raw)

	assert.Equal(t, c.BaseActivities, back.BaseActivities)
	assert.Equal(t, c.Sleep, back.Sleep)
	require.Len(t, back.WeeklyActivities, 3)
	assert.Nil(t, back.WeeklyActivities[1])
	assert.True(t, created.Equal(back.WeeklyActivities[0].CreatedAt))
	assert.Equal(t, c.WeeklyActivities[2].Weekdays, back.WeeklyActivities[2].Weekdays)
	assert.Equal(t, 1, back.WeeklyActivities[2].WeekOffset)
	assert.Equal(t, c.DaySpecific, back.DaySpecific)
	assert.Equal(t, c.Malus, back.Malus)
}

func TestDocumentMerge(t *testing.T) {
	base := Document{
		"baseActivities":  json.RawMessage(`["A"]`),
		"sleep":           json.RawMessage(`{"bedtime":"22:00","wakeup":"06:00"}`),
		"dailyActivities": json.RawMessage(`[{"name":"old","weekday":"Mon"}]`),
	}
	patch := Document{
		"sleep":            json.RawMessage(`null`),
		"weeklyActivities": json.RawMessage(`[{"name":"new","weekday":"Tue"}]`),
	}

	merged := base.Merge(patch)
	assert.Equal(t, []string{"baseActivities", "weeklyActivities"}, merged.Keys())

	c := merged.Catalog()
	assert.Nil(t, c.Sleep)
	require.Len(t, c.WeeklyActivities, 1)
	assert.Equal(t, "new", c.WeeklyActivities[0].Name)
	assert.Len(t, base, 3, "merge does not mutate the receiver")
}

func TestDocumentMerge_LegacyPatchReplacesCanonical(t *testing.T) {
	base := Document{"malus": json.RawMessage(`[{"name":"Sugar","weekdaysOnly":false}]`)}
	merged := base.Merge(Document{"malusList": json.RawMessage(`["Soda"]`)})

	assert.Equal(t, []string{"malusList"}, merged.Keys())
	assert.Equal(t, []Malus{{Name: "Soda", WeekdaysOnly: true}}, merged.Catalog().Malus)

	// A patch nulling the legacy key while setting the canonical one keeps the latter.
	merged = merged.Merge(Document{
		"malusList": json.RawMessage(`null`),
		"malus":     json.RawMessage(`["Chips"]`),
	})
	assert.Equal(t, []string{"malus"}, merged.Keys())
}

func TestCatalogClone(t *testing.T) {
	c := Catalog{
		BaseActivities:   []string{"A"},
		Sleep:            &Sleep{Bedtime: "22:00"},
		WeeklyActivities: []*WeeklyActivity{{Name: "Run", Weekdays: []time.Weekday{time.Monday}}, nil},
		DaySpecific:      map[string][]*AdHocTask{"2023-06-05": {{Name: "X"}, nil}},
	}
	cp := c.Clone()
	cp.BaseActivities[0] = "B"
	cp.Sleep.Bedtime = "23:00"
	cp.WeeklyActivities[0].Name = "Walk"
	cp.DaySpecific["2023-06-05"][0].Name = "Y"

	assert.Equal(t, "A", c.BaseActivities[0])
	assert.Equal(t, "22:00", c.Sleep.Bedtime)
	assert.Equal(t, "Run", c.WeeklyActivities[0].Name)
	assert.Equal(t, "X", c.DaySpecific["2023-06-05"][0].Name)
	assert.Nil(t, cp.WeeklyActivities[1])
}

func TestCompletionMapDay(t *testing.T) {
	m := CompletionMap{"2023-06-05": {"base-0": true}}
	assert.True(t, m.Day("2023-06-05")["base-0"])
	assert.NotNil(t, m.Day("2023-06-06"))
	var nilMap CompletionMap
	assert.Empty(t, nilMap.Day("x"))
}
