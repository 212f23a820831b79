package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/mossy/internal/llm"
	"github.com/joescharf/mossy/internal/output"
	"github.com/joescharf/mossy/internal/streaks"
)

var coachDays int

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Ask the coach for a reflection on the last days",
	Long: `Send your habit list and recent scores to the Anthropic API and print
a short reflection: what went well, what to focus on, and one suggestion.

Needs anthropic.api_key in the config or ANTHROPIC_API_KEY in the environment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return coachRun(cmd.Context())
	},
}

func init() {
	coachCmd.Flags().IntVar(&coachDays, "days", 7, "Number of days to reflect on")
	rootCmd.AddCommand(coachCmd)
}

func coachRun(ctx context.Context) error {
	client := newLLMClient()
	if client == nil {
		return fmt.Errorf("no Anthropic API key: set anthropic.api_key or ANTHROPIC_API_KEY")
	}

	svc, u, err := currentUser(ctx)
	if err != nil {
		return err
	}
	catalog, err := svc.Catalog(ctx, u.ID)
	if err != nil {
		return err
	}
	history, err := svc.History(ctx, u.ID, coachDays)
	if err != nil {
		return err
	}
	res, err := svc.Streaks(ctx, u.ID, streaks.Options{})
	if err != nil {
		return err
	}

	if dryRun {
		ui.DryRunMsg("Would send %d days of %s to the coach", len(history), u.Name)
		return nil
	}

	ui.VerboseLog("asking the coach about %d days", len(history))
	r, err := client.Reflect(ctx, llm.ReflectionInput{
		UserName: u.Name,
		Catalog:  catalog,
		History:  history,
		Streaks:  res,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(ui.Out, r.Summary)
	if len(r.Wins) > 0 {
		fmt.Fprintln(ui.Out)
		for _, w := range r.Wins {
			fmt.Fprintf(ui.Out, "  %s %s\n", output.Green("+"), w)
		}
	}
	if len(r.Focus) > 0 {
		fmt.Fprintln(ui.Out)
		for _, f := range r.Focus {
			fmt.Fprintf(ui.Out, "  %s %s\n", output.Yellow(">"), f)
		}
	}
	if r.Suggestion != "" {
		fmt.Fprintln(ui.Out)
		ui.Info("Tomorrow: %s", r.Suggestion)
	}
	return nil
}
