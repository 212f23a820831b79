package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/output"
	"github.com/joescharf/mossy/internal/planner"
	"github.com/joescharf/mossy/internal/tracker"
	"github.com/joescharf/mossy/internal/weekday"
)

var (
	habitDays    string
	habitPart    string
	habitEvery   int
	habitOffset  int
	habitAllDays bool
	habitDay     string
	habitBedtime string
	habitWakeup  string
)

var habitCmd = &cobra.Command{
	Use:   "habit",
	Short: "Manage the habit catalog",
	Long: `Manage the habits that make up each day.

Task ids follow list positions: base-N, daily-N (weekly habits), spec-N
(one-off tasks of a day) and malus-N. Removing an entry shifts the ids
of the entries after it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return habitListRun()
	},
}

var habitListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all habits with their ids",
	RunE: func(cmd *cobra.Command, args []string) error {
		return habitListRun()
	},
}

// --- base ---

var habitBaseCmd = &cobra.Command{
	Use:   "base",
	Short: "Tasks due every day",
}

var habitBaseAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a daily base task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		return updateCatalog("Added base task "+output.Cyan(name), func(c *models.Catalog) error {
			if name == "" {
				return fmt.Errorf("name is required")
			}
			c.BaseActivities = append(c.BaseActivities, name)
			return nil
		})
	},
}

var habitBaseRmCmd = &cobra.Command{
	Use:     "rm <index|id>",
	Aliases: []string{"remove"},
	Short:   "Remove a base task",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCatalog("Removed base task "+args[0], func(c *models.Catalog) error {
			i, err := parseIndex(args[0], "base-", len(c.BaseActivities))
			if err != nil {
				return err
			}
			c.BaseActivities = removeAt(c.BaseActivities, i)
			return nil
		})
	},
}

// --- sleep ---

var habitSleepCmd = &cobra.Command{
	Use:   "sleep",
	Short: "Bedtime and wake-up targets",
}

var habitSleepSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the bedtime and wake-up targets (HH:MM)",
	RunE: func(cmd *cobra.Command, args []string) error {
		bed, err := parseHHMM(habitBedtime)
		if err != nil {
			return fmt.Errorf("--bed: %w", err)
		}
		wake, err := parseHHMM(habitWakeup)
		if err != nil {
			return fmt.Errorf("--wake: %w", err)
		}
		return updateCatalog(fmt.Sprintf("Sleep targets: bed by %s, wake by %s", bed, wake), func(c *models.Catalog) error {
			c.Sleep = &models.Sleep{Bedtime: bed, Wakeup: wake}
			return nil
		})
	},
}

var habitSleepClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the sleep targets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCatalog("Sleep targets cleared", func(c *models.Catalog) error {
			c.Sleep = nil
			return nil
		})
	},
}

// --- weekly ---

var habitWeeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Habits due on some weekdays",
}

var habitWeeklyAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a weekly habit",
	Example: `  mossy habit weekly add Run --days mon,thu --part morning
  mossy habit weekly add "Deep clean" --days sat --every 2 --offset 1`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		days, err := parseWeekdays(habitDays)
		if err != nil {
			return err
		}
		part, err := weekday.ParsePartOfDayStrict(habitPart)
		if err != nil {
			return err
		}
		if habitEvery < 1 {
			return fmt.Errorf("--every must be at least 1")
		}
		if habitOffset < 0 {
			return fmt.Errorf("--offset must not be negative")
		}
		svc, err := getService()
		if err != nil {
			return err
		}
		created := svc.Today()
		return updateCatalog("Added weekly habit "+output.Cyan(name), func(c *models.Catalog) error {
			if name == "" {
				return fmt.Errorf("name is required")
			}
			c.WeeklyActivities = append(c.WeeklyActivities, &models.WeeklyActivity{
				Name:             name,
				Weekdays:         days,
				PartOfDay:        part,
				RepeatEveryWeeks: habitEvery,
				WeekOffset:       habitOffset,
				CreatedAt:        created,
			})
			return nil
		})
	},
}

var habitWeeklyRmCmd = &cobra.Command{
	Use:     "rm <index|id>",
	Aliases: []string{"remove"},
	Short:   "Remove a weekly habit",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCatalog("Removed weekly habit "+args[0], func(c *models.Catalog) error {
			i, err := parseIndex(args[0], "daily-", len(c.WeeklyActivities))
			if err != nil {
				return err
			}
			c.WeeklyActivities = removeAt(c.WeeklyActivities, i)
			return nil
		})
	},
}

// --- malus ---

var habitMalusCmd = &cobra.Command{
	Use:   "malus",
	Short: "Behaviors to avoid; each one done costs points",
}

var habitMalusAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a malus (Monday to Friday unless --all-days)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		return updateCatalog("Added malus "+output.Cyan(name), func(c *models.Catalog) error {
			if name == "" {
				return fmt.Errorf("name is required")
			}
			c.Malus = append(c.Malus, models.Malus{Name: name, WeekdaysOnly: !habitAllDays})
			return nil
		})
	},
}

var habitMalusRmCmd = &cobra.Command{
	Use:     "rm <index|id>",
	Aliases: []string{"remove"},
	Short:   "Remove a malus",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateCatalog("Removed malus "+args[0], func(c *models.Catalog) error {
			i, err := parseIndex(args[0], "malus-", len(c.Malus))
			if err != nil {
				return err
			}
			c.Malus = removeAt(c.Malus, i)
			return nil
		})
	},
}

// --- ad hoc ---

var habitAdHocCmd = &cobra.Command{
	Use:   "adhoc",
	Short: "One-off tasks for a single day",
}

var habitAdHocAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a one-off task to a day",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		part, err := weekday.ParsePartOfDayStrict(habitPart)
		if err != nil {
			return err
		}
		key, err := dayKeyFlag(habitDay)
		if err != nil {
			return err
		}
		return updateCatalog(fmt.Sprintf("Added %s to %s", output.Cyan(name), key), func(c *models.Catalog) error {
			if name == "" {
				return fmt.Errorf("name is required")
			}
			if c.DaySpecific == nil {
				c.DaySpecific = map[string][]*models.AdHocTask{}
			}
			c.DaySpecific[key] = append(c.DaySpecific[key], &models.AdHocTask{Name: name, PartOfDay: part})
			return nil
		})
	},
}

var habitAdHocRmCmd = &cobra.Command{
	Use:     "rm <index|id>",
	Aliases: []string{"remove"},
	Short:   "Remove a one-off task from a day",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := dayKeyFlag(habitDay)
		if err != nil {
			return err
		}
		return updateCatalog(fmt.Sprintf("Removed %s from %s", args[0], key), func(c *models.Catalog) error {
			i, err := parseIndex(args[0], "spec-", len(c.DaySpecific[key]))
			if err != nil {
				return err
			}
			c.DaySpecific[key] = removeAt(c.DaySpecific[key], i)
			if len(c.DaySpecific[key]) == 0 {
				delete(c.DaySpecific, key)
			}
			return nil
		})
	},
}

func init() {
	habitBaseCmd.AddCommand(habitBaseAddCmd, habitBaseRmCmd)

	habitSleepSetCmd.Flags().StringVar(&habitBedtime, "bed", "", "Bedtime target (HH:MM)")
	habitSleepSetCmd.Flags().StringVar(&habitWakeup, "wake", "", "Wake-up target (HH:MM)")
	_ = habitSleepSetCmd.MarkFlagRequired("bed")
	_ = habitSleepSetCmd.MarkFlagRequired("wake")
	habitSleepCmd.AddCommand(habitSleepSetCmd, habitSleepClearCmd)

	habitWeeklyAddCmd.Flags().StringVar(&habitDays, "days", "", "Comma-separated weekdays (mon,thu or lun,gio)")
	habitWeeklyAddCmd.Flags().StringVar(&habitPart, "part", "morning", "Part of day: morning or afternoon")
	habitWeeklyAddCmd.Flags().IntVar(&habitEvery, "every", 1, "Repeat every N weeks")
	habitWeeklyAddCmd.Flags().IntVar(&habitOffset, "offset", 0, "Shift the repetition by N weeks")
	_ = habitWeeklyAddCmd.MarkFlagRequired("days")
	habitWeeklyCmd.AddCommand(habitWeeklyAddCmd, habitWeeklyRmCmd)

	habitMalusAddCmd.Flags().BoolVar(&habitAllDays, "all-days", false, "Count the malus on weekends too")
	habitMalusCmd.AddCommand(habitMalusAddCmd, habitMalusRmCmd)

	habitAdHocAddCmd.Flags().StringVar(&habitPart, "part", "morning", "Part of day: morning or afternoon")
	for _, c := range []*cobra.Command{habitAdHocAddCmd, habitAdHocRmCmd} {
		c.Flags().StringVar(&habitDay, "day", tracker.TodayKey, "Day key (YYYY-MM-DD) or today")
	}
	habitAdHocCmd.AddCommand(habitAdHocAddCmd, habitAdHocRmCmd)

	habitCmd.AddCommand(habitListCmd, habitBaseCmd, habitSleepCmd, habitWeeklyCmd, habitMalusCmd, habitAdHocCmd)
	rootCmd.AddCommand(habitCmd)
}

// updateCatalog applies fn to the current user's catalog and saves it.
func updateCatalog(done string, fn func(*models.Catalog) error) error {
	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}

	if dryRun {
		c, err := svc.Catalog(ctx, u.ID)
		if err != nil {
			return err
		}
		if err := fn(&c); err != nil {
			return err
		}
		ui.DryRunMsg("Would update catalog of %s: %s", u.Name, done)
		return nil
	}

	if _, err := svc.UpdateCatalog(ctx, u.ID, fn); err != nil {
		return err
	}
	ui.Success("%s", done)
	return nil
}

func habitListRun() error {
	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	c, err := svc.Catalog(ctx, u.ID)
	if err != nil {
		return err
	}
	if c.IsEmpty() {
		ui.Info("No habits yet. Start with 'mossy habit base add <name>'.")
		return nil
	}

	cal := svc.Calendar()
	table := ui.Table([]string{"ID", "Habit", "When"})
	for i, name := range c.BaseActivities {
		_ = table.Append([]string{planner.BaseID(i), name, "every day"})
	}
	if c.Sleep != nil {
		_ = table.Append([]string{planner.SleepBedID, "Bed by " + c.Sleep.Bedtime, "every day"})
		_ = table.Append([]string{planner.SleepWakeID, "Wake by " + c.Sleep.Wakeup, "every day"})
	}
	for i, w := range c.WeeklyActivities {
		if w == nil {
			continue
		}
		_ = table.Append([]string{planner.WeeklyID(i), w.Name, describeWeekly(w, cal.DayKey)})
	}
	for i, m := range c.Malus {
		when := "every day"
		if m.WeekdaysOnly {
			when = "Mon-Fri"
		}
		_ = table.Append([]string{planner.MalusID(i), output.Red(m.Name), when})
	}
	_ = table.Render()

	upcoming := 0
	today := svc.Today()
	for key, tasks := range c.DaySpecific {
		day, err := cal.ParseDayKey(key)
		if err != nil || day.Before(today) {
			continue
		}
		upcoming += len(tasks)
	}
	if upcoming > 0 {
		ui.Info("%d one-off task(s) from today on; see 'mossy today --day <date>'", upcoming)
	}
	return nil
}

func describeWeekly(w *models.WeeklyActivity, dayKey func(time.Time) string) string {
	names := make([]string, len(w.Weekdays))
	for i, d := range w.Weekdays {
		names[i] = weekday.ShortName(d)
	}
	s := strings.Join(names, ",") + " " + string(w.PartOfDay)
	if w.RepeatEveryWeeks > 1 {
		s += fmt.Sprintf(", every %d weeks", w.RepeatEveryWeeks)
		if w.WeekOffset > 0 {
			s += fmt.Sprintf(" (offset %d)", w.WeekOffset)
		}
	}
	if !w.CreatedAt.IsZero() {
		s += ", since " + dayKey(w.CreatedAt)
	}
	return s
}

// parseWeekdays reads a comma-separated weekday list in Italian or English.
func parseWeekdays(raw string) ([]time.Weekday, error) {
	var days []time.Weekday
	seen := map[time.Weekday]bool{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, ok := weekday.Parse(part)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("at least one weekday is required")
	}
	return days, nil
}

// parseHHMM validates a 24h clock time and returns it zero-padded.
func parseHHMM(s string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return t.Format("15:04"), nil
}

// parseIndex accepts "3" or a full task id such as "daily-3".
func parseIndex(arg, prefix string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(arg), prefix))
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("no entry %s%d (have %d)", prefix, i, n)
	}
	return i, nil
}

func removeAt[T any](s []T, i int) []T {
	out := make([]T, 0, len(s)-1)
	out = append(out, s[:i]...)
	return append(out, s[i+1:]...)
}

// dayKeyFlag resolves a --day value to a day key.
func dayKeyFlag(raw string) (string, error) {
	svc, err := getService()
	if err != nil {
		return "", err
	}
	day, err := svc.ResolveDay(raw)
	if err != nil {
		return "", err
	}
	return svc.Calendar().DayKey(day), nil
}
