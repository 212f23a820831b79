package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rome(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, HomeZone())
}

func TestAppDayFloor_Cutoff(t *testing.T) {
	c := Default()

	early := c.AppDayFloor(rome(2023, 6, 15, 4, 30))
	later := c.AppDayFloor(rome(2023, 6, 15, 5, 0))

	assert.Equal(t, "2023-06-14", c.DayKey(early))
	assert.Equal(t, "2023-06-15", c.DayKey(later))
	assert.True(t, early.Before(later))
	assert.Equal(t, 0, early.Hour())
	assert.Equal(t, 0, later.Hour())
}

func TestAppDayFloor_LateCutoff(t *testing.T) {
	c := New(HomeZone(), CutoffHourLate)
	assert.Equal(t, "2023-06-14", c.DayKey(c.AppDayFloor(rome(2023, 6, 15, 5, 30))))
	assert.Equal(t, "2023-06-15", c.DayKey(c.AppDayFloor(rome(2023, 6, 15, 6, 0))))
}

func TestAppDayFloor_MonthBoundary(t *testing.T) {
	c := Default()
	got := c.AppDayFloor(rome(2024, 3, 1, 2, 0))
	assert.Equal(t, "2024-02-29", c.DayKey(got))
}

func TestCivilNow_UsesHomeZone(t *testing.T) {
	c := Default()
	// 22:00 UTC in June is midnight in Rome (UTC+2).
	clock := FixedClock{T: time.Date(2023, 6, 15, 22, 0, 0, 0, time.UTC)}
	now := c.CivilNow(clock)
	assert.Equal(t, 0, now.Hour())
	assert.Equal(t, "2023-06-16", c.DayKey(now))
	// Midnight is before the cutoff, so the app day is still the 15th.
	assert.Equal(t, "2023-06-15", c.DayKey(c.Today(clock)))
}

func TestDayKey_IgnoresInstantZone(t *testing.T) {
	c := Default()
	utc := time.Date(2023, 12, 31, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, "2024-01-01", c.DayKey(utc))
}

func TestAddAppDays(t *testing.T) {
	c := Default()
	base := rome(2023, 6, 15, 12, 0)

	next := c.AddAppDays(base, 1)
	prev := c.AddAppDays(base, -1)
	same := c.AddAppDays(base, 0)

	assert.Equal(t, "2023-06-16", c.DayKey(next))
	assert.Equal(t, "2023-06-14", c.DayKey(prev))
	assert.Equal(t, c.AppDayFloor(base), same)
}

func TestAddAppDays_AcrossDST(t *testing.T) {
	c := Default()
	tests := []struct {
		name  string
		start time.Time
	}{
		{"spring forward", rome(2024, 3, 30, 0, 0)},
		{"fall back", rome(2024, 10, 26, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tt.start
			for i := 0; i < 3; i++ {
				n := c.AddAppDays(d, 1)
				assert.Equal(t, 1, c.DaysBetween(d, n), "step %d from %s", i, c.DayKey(d))
				assert.Equal(t, 0, n.Hour())
				d = n
			}
		})
	}
}

func TestAddAppDays_RoundTrip(t *testing.T) {
	c := Default()
	d := rome(2023, 1, 1, 15, 0)
	for i := 0; i < 400; i++ {
		key := c.DayKey(c.AppDayFloor(d))
		back := c.AddAppDays(c.AddAppDays(d, 1), -1)
		require.Equal(t, key, c.DayKey(back))
		d = d.Add(24 * time.Hour)
	}
}

func TestParseDayKey(t *testing.T) {
	c := Default()
	d, err := c.ParseDayKey("2023-06-05")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, d.Weekday())
	assert.Equal(t, "2023-06-05", c.DayKey(d))

	_, err = c.ParseDayKey("05/06/2023")
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	c := Default()
	a := rome(2023, 6, 1, 23, 0)
	b := rome(2023, 6, 8, 0, 30)
	assert.Equal(t, 7, c.DaysBetween(a, b))
	assert.Equal(t, -7, c.DaysBetween(b, a))
}

func TestNew_ClampsCutoff(t *testing.T) {
	assert.Equal(t, 0, New(nil, -3).CutoffHour)
	assert.Equal(t, 23, New(nil, 40).CutoffHour)
	assert.Equal(t, HomeZone(), New(nil, 5).Location)
}

func TestIsWeekend(t *testing.T) {
	c := Default()
	assert.True(t, c.IsWeekend(rome(2023, 6, 10, 12, 0)))
	assert.True(t, c.IsWeekend(rome(2023, 6, 11, 12, 0)))
	assert.False(t, c.IsWeekend(rome(2023, 6, 12, 12, 0)))
}
