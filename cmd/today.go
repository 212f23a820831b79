package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/mossy/internal/output"
	"github.com/joescharf/mossy/internal/planner"
	"github.com/joescharf/mossy/internal/tracker"
)

var todayDay string

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Show the tasks and score of a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return todayRun(context.Background(), todayDay)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <task-id>...",
	Short: "Check tasks off (e.g. base-0 sleep-bed daily-2 spec-0 malus-1)",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRun(args, true)
	},
}

var uncheckCmd = &cobra.Command{
	Use:   "uncheck <task-id>...",
	Short: "Clear checked tasks",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleRun(args, false)
	},
}

func init() {
	for _, c := range []*cobra.Command{todayCmd, checkCmd, uncheckCmd} {
		c.Flags().StringVarP(&todayDay, "day", "d", tracker.TodayKey, "Day key (YYYY-MM-DD) or today")
		rootCmd.AddCommand(c)
	}
}

func todayRun(ctx context.Context, dayKey string) error {
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	view, err := svc.Day(ctx, u.ID, dayKey)
	if err != nil {
		return err
	}
	printDay(view)
	return nil
}

func toggleRun(ids []string, done bool) error {
	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}

	if dryRun {
		verb := "check"
		if !done {
			verb = "uncheck"
		}
		ui.DryRunMsg("Would %s %v on %s for %s", verb, ids, todayDay, u.Name)
		return nil
	}

	before, err := svc.Day(ctx, u.ID, todayDay)
	if err != nil {
		return err
	}
	view, err := svc.Toggle(ctx, u.ID, todayDay, ids, done)
	if err != nil {
		return err
	}
	for _, id := range ids {
		t, _ := view.Plan.Lookup(id)
		ui.VerboseLog("%s %s", output.Checkbox(done), t.Label)
	}
	ui.Success("%s: %s -> %s", view.DayKey,
		output.ScoreColor(before.Breakdown.Total), output.ScoreColor(view.Breakdown.Total))
	return nil
}

func printDay(view *tracker.DayView) {
	plan := view.Plan
	b := view.Breakdown

	weekend := ""
	if plan.Weekend {
		weekend = " (weekend)"
	}
	fmt.Fprintf(ui.Out, "%s%s  %s %s  %s\n\n",
		output.Cyan(plan.DayKey), weekend,
		output.ScoreBar(b.Total), output.ScoreColor(b.Total), output.BandColor(view.Band))

	if len(plan.All()) == 0 {
		ui.Info("Nothing planned. Add habits with 'mossy habit'.")
		return
	}

	table := ui.Table([]string{"", "ID", "Task", "Kind"})
	for _, t := range plan.All() {
		label := t.Label
		if t.Category == planner.CategoryMalus {
			label = output.Red(label)
		}
		_ = table.Append([]string{output.Checkbox(view.Done(t.ID)), t.ID, label, string(t.Category)})
	}
	_ = table.Render()

	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  base %d  sleep %d  morning %d (%s)  afternoon %d (%s)  malus %d\n",
		b.Base, b.Sleep,
		b.Morning, output.PartColor(b.MorningStatus),
		b.Afternoon, output.PartColor(b.AfternoonStatus),
		b.Malus)
	if b.ToppedOff {
		ui.Info("Topped off to 100 from %d", b.Raw)
	}
}
