package cmd

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/mossy/internal/calendar"
	"github.com/joescharf/mossy/internal/output"
)

// testEnv points config, state and output at a temp dir and resets shared
// command state when the test ends.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	prev := configDirFunc
	configDirFunc = func() (string, error) { return dir, nil }

	viper.Reset()
	setDefaults(dir)

	ui = output.New()
	ui.Out = io.Discard
	ui.ErrOut = io.Discard

	t.Cleanup(func() {
		configDirFunc = prev
		if dataStore != nil {
			_ = dataStore.Close()
		}
		dataStore = nil
		service = nil
		dryRun = false
		configForce = false
	})
	return dir
}

func TestConfigInit(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		force    bool
		dry      bool
		wantErr  string
		wantFile bool
	}{
		{name: "fresh", wantFile: true},
		{name: "existing without force", existing: "user: bob\n", wantErr: "already exists"},
		{name: "existing with force", existing: "user: bob\n", force: true, wantFile: true},
		{name: "dry run", dry: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testEnv(t)
			cfgPath := filepath.Join(dir, "config.yaml")
			if tt.existing != "" {
				require.NoError(t, os.WriteFile(cfgPath, []byte(tt.existing), 0o644))
			}
			configForce = tt.force
			dryRun = tt.dry
			ui.DryRun = tt.dry

			err := configInitRun()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			data, err := os.ReadFile(cfgPath)
			if !tt.wantFile {
				assert.ErrorIs(t, err, os.ErrNotExist)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, string(data), "mossy configuration")
			assert.Contains(t, string(data), "cutoff_hour: 5")
			assert.Contains(t, string(data), "base_points: 5")
			assert.Contains(t, string(data), "(10 in older versions)")
		})
	}
}

func TestConfigInit_ParsesBack(t *testing.T) {
	dir := testEnv(t)
	viper.Set("user", "alice")
	require.NoError(t, configInitRun())

	keys, err := configFileKeys(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.True(t, keys["user"])
	assert.True(t, keys["day.cutoff_hour"])
	assert.True(t, keys["scoring.top_off_threshold"])
	assert.True(t, keys["streaks.window_days"])
	assert.False(t, keys["db_path"], "commented keys are not in the file")
}

func TestConfigFileKeys_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := configFileKeys(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("user: [unclosed\n"), 0o644))
	_, err = configFileKeys(bad)
	assert.ErrorContains(t, err, "parse")
}

func TestConfigShow(t *testing.T) {
	testEnv(t)
	assert.NoError(t, configShowRun(), "no file")

	require.NoError(t, configInitRun())
	assert.NoError(t, configShowRun(), "with file")

	viper.Set("day.cutoff_hour", 30)
	assert.NoError(t, configShowRun(), "invalid values only warn")
}

func TestConfigEdit(t *testing.T) {
	testEnv(t)

	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "")
	assert.ErrorContains(t, configEditRun(), "$EDITOR is not set")

	t.Setenv("EDITOR", "true")
	assert.ErrorContains(t, configEditRun(), "not found")

	require.NoError(t, configInitRun())
	dryRun = true
	assert.NoError(t, configEditRun())
}

func TestEditorCommand(t *testing.T) {
	t.Setenv("EDITOR", "")
	t.Setenv("VISUAL", "code -w")
	cmd, err := editorCommand()
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "-w"}, cmd)
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "MOSSY_DAY_CUTOFF_HOUR", envVar("day.cutoff_hour"))
	assert.Equal(t, "MOSSY_PORT", envVar("port"))
}

func TestDetectSource(t *testing.T) {
	inFile := map[string]bool{"zone": true, "port": true}
	t.Setenv("MOSSY_PORT", "9090")

	tests := []struct {
		key  string
		want string
	}{
		{"port", "env: MOSSY_PORT"},
		{"zone", "file"},
		{"user", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, detectSource(tt.key, envVar(tt.key), inFile))
		})
	}
}

func TestFlattenKeys(t *testing.T) {
	result := make(map[string]bool)
	flattenKeys("", map[string]any{
		"port":    8080,
		"scoring": map[string]any{"base_points": 5, "top_off_threshold": 90},
	}, result)

	assert.Equal(t, map[string]bool{
		"port":                      true,
		"scoring.base_points":       true,
		"scoring.top_off_threshold": true,
	}, result)
}

func TestTrackerConfig(t *testing.T) {
	testEnv(t)

	cfg, err := trackerConfig()
	require.NoError(t, err)
	assert.Equal(t, calendar.HomeZoneName, cfg.Calendar.Location.String())
	assert.Equal(t, 5, cfg.Calendar.CutoffHour)
	assert.Equal(t, 5, cfg.Rules.BasePoints)
	assert.Equal(t, 90, cfg.Rules.TopOffThreshold)
	assert.Equal(t, 30, cfg.Streaks.WindowDays)
	assert.Equal(t, 80, cfg.Streaks.Threshold)

	viper.Set("day.cutoff_hour", 6)
	viper.Set("scoring.base_points", 10)
	viper.Set("scoring.top_off_threshold", 95)
	cfg, err = trackerConfig()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Calendar.CutoffHour)
	assert.Equal(t, 10, cfg.Rules.BasePoints)
	assert.Equal(t, 95, cfg.Rules.TopOffThreshold)
}

func TestTrackerConfig_Invalid(t *testing.T) {
	testEnv(t)

	viper.Set("zone", "Nowhere/Special")
	_, err := trackerConfig()
	assert.Error(t, err)

	viper.Set("zone", "UTC")
	viper.Set("day.cutoff_hour", 24)
	_, err = trackerConfig()
	assert.ErrorContains(t, err, "cutoff_hour")
}
