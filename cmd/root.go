package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/mossy/internal/cache"
	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/output"
	"github.com/joescharf/mossy/internal/scoring"
	"github.com/joescharf/mossy/internal/store"
	"github.com/joescharf/mossy/internal/streaks"
	"github.com/joescharf/mossy/internal/tracker"
)

// envPrefix prefixes every environment variable viper reads.
const envPrefix = "MOSSY"

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	dataStore store.Store
	service   *tracker.Service

	verbose bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "mossy",
	Short: "Habit tracker - daily tasks, scores and streaks",
	Long: `mossy tracks daily habits. Every day is built from your habit catalog:
base tasks, sleep targets, weekly habits, one-off tasks and malus.
Checking tasks off scores the day from 0 to 100, and good days build streaks.

A day starts at the cutoff hour (05:00 by default), so checking a task
at 01:00 still counts for the day before.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return rootRun(cmd)
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false, "Show what would happen without making changes")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/mossy/config.yaml)")
	rootCmd.PersistentFlags().StringP("user", "u", "", "User name or id (default from config)")
	_ = viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".config", "mossy"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	home, _ := os.UserHomeDir()
	setDefaults(filepath.Join(home, ".config", "mossy"))

	_ = viper.ReadInConfig()
}

// setDefaults registers every config key with its default, rooted at stateDir.
func setDefaults(stateDir string) {
	viper.SetDefault("state_dir", stateDir)
	viper.SetDefault("db_path", filepath.Join(stateDir, "mossy.db"))
	viper.SetDefault("user", "")
	viper.SetDefault("zone", calendar.HomeZoneName)
	viper.SetDefault("day.cutoff_hour", calendar.DefaultCutoffHour)
	viper.SetDefault("scoring.base_points", scoring.BasePointsCurrent)
	viper.SetDefault("scoring.top_off_threshold", scoring.TopOffThresholdCurrent)
	viper.SetDefault("streaks.window_days", streaks.DefaultWindowDays)
	viper.SetDefault("streaks.threshold", streaks.DefaultThreshold)
	viper.SetDefault("port", 8080)
	viper.SetDefault("anthropic.api_key", "")
	viper.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose
	ui.DryRun = dryRun

	// The store opens lazily so config and version work without a database.
}

// rootRun shows today's tasks when a user is configured, help otherwise.
func rootRun(cmd *cobra.Command) error {
	if viper.GetString("user") == "" {
		return cmd.Help()
	}
	return todayRun(cmd.Context(), tracker.TodayKey)
}

// getStore returns the shared store, initializing it on first call.
func getStore() (store.Store, error) {
	if dataStore != nil {
		return dataStore, nil
	}

	dbPath := viper.GetString("db_path")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := s.Migrate(context.Background()); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	dataStore = cache.New(s)
	return dataStore, nil
}

// trackerConfig builds the service configuration from viper.
func trackerConfig() (tracker.Config, error) {
	cfg := tracker.DefaultConfig()

	loc, err := calendar.LoadZone(viper.GetString("zone"))
	if err != nil {
		return cfg, err
	}
	cutoff := viper.GetInt("day.cutoff_hour")
	if cutoff < 0 || cutoff > 23 {
		return cfg, fmt.Errorf("day.cutoff_hour must be between 0 and 23, got %d", cutoff)
	}
	cfg.Calendar = calendar.New(loc, cutoff)

	cfg.Rules.BasePoints = viper.GetInt("scoring.base_points")
	cfg.Rules.TopOffThreshold = viper.GetInt("scoring.top_off_threshold")
	cfg.Streaks.WindowDays = viper.GetInt("streaks.window_days")
	cfg.Streaks.Threshold = viper.GetInt("streaks.threshold")
	return cfg, nil
}

// getService returns the shared tracker service.
func getService() (*tracker.Service, error) {
	if service != nil {
		return service, nil
	}
	s, err := getStore()
	if err != nil {
		return nil, err
	}
	cfg, err := trackerConfig()
	if err != nil {
		return nil, err
	}
	ui.VerboseLog("zone %s, day starts at %02d:00", cfg.Calendar.Location, cfg.Calendar.CutoffHour)
	service = tracker.New(s, cfg)
	return service, nil
}

// currentUser resolves the --user flag or the configured default user.
func currentUser(ctx context.Context) (*tracker.Service, *models.User, error) {
	svc, err := getService()
	if err != nil {
		return nil, nil, err
	}
	ref := viper.GetString("user")
	if ref == "" {
		return nil, nil, fmt.Errorf("no user selected: pass --user or set 'user' in the config (see 'mossy user add')")
	}
	u, err := svc.ResolveUser(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	return svc, u, nil
}
