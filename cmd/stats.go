package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/mossy/internal/llm"
	"github.com/joescharf/mossy/internal/output"
	"github.com/joescharf/mossy/internal/streaks"
)

var (
	statsDays      int
	statsWindow    int
	statsThreshold int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recent scores and streaks",
	Long: `Show the scores of the last days and the current and best streaks.

A day counts toward a streak when it scores at least the threshold. The
current streak runs back from today; days before the account existed are
never counted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return statsRun()
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Number of days to list")
	statsCmd.Flags().IntVar(&statsWindow, "window", 0, "Streak window in days (default from config)")
	statsCmd.Flags().IntVar(&statsThreshold, "threshold", 0, "Streak threshold (default from config)")
	rootCmd.AddCommand(statsCmd)
}

func statsRun() error {
	ctx := context.Background()
	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}

	days, err := svc.History(ctx, u.ID, statsDays)
	if err != nil {
		return err
	}
	res, err := svc.Streaks(ctx, u.ID, streaks.Options{WindowDays: statsWindow, Threshold: statsThreshold})
	if err != nil {
		return err
	}

	if len(days) == 0 {
		ui.Info("No days yet for %s.", u.Name)
		return nil
	}

	table := ui.Table([]string{"Day", "Score", "", "Morning", "Afternoon"})
	for _, d := range days {
		morning, afternoon := "", ""
		if d.Breakdown != nil {
			morning = output.PartColor(d.Breakdown.MorningStatus)
			afternoon = output.PartColor(d.Breakdown.AfternoonStatus)
		}
		_ = table.Append([]string{
			d.DayKey + " " + d.Date.Weekday().String()[:3],
			output.ScoreColor(d.Score),
			output.ScoreBar(d.Score),
			morning,
			afternoon,
		})
	}
	_ = table.Render()

	avg := llm.Average(days)
	fmt.Fprintln(ui.Out)
	fmt.Fprintf(ui.Out, "  average %s (%s)\n", output.ScoreColor(avg), output.BandColor(llm.AverageBand(days)))
	fmt.Fprintf(ui.Out, "  streak  %s current, %d best\n", output.Cyan(fmt.Sprintf("%d", res.Current)), res.Best)
	return nil
}
