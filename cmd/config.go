package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/joescharf/mossy/internal/scoring"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "mossy"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage mossy configuration.

Values come from flags, MOSSY_* environment variables, the config file and
built-in defaults, in that order. Bare 'mossy config' runs 'config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open config file in $EDITOR",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configEditRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd, configEditCmd)
	rootCmd.AddCommand(configCmd)
}

const configTemplate = `# mossy configuration
# See: mossy config show (for effective values and sources)

# State/data directory (default: ~/.config/mossy)
# state_dir: {{ .StateDir }}

# SQLite database path (default: ~/.config/mossy/mossy.db)
# db_path: {{ .DBPath }}

# Default user for commands that take --user
user: "{{ .User }}"

# Zone day keys are computed in
zone: "{{ .Zone }}"

day:
  # Hour the app day starts; earlier times count for the day before
  cutoff_hour: {{ .CutoffHour }}

scoring:
  # Points per base task ({{ .BasePointsLegacy }} in older versions)
  base_points: {{ .BasePoints }}
  # A day at or above this with no unfinished part scores 100
  top_off_threshold: {{ .TopOffThreshold }}

streaks:
  window_days: {{ .WindowDays }}
  threshold: {{ .Threshold }}

# HTTP API port for 'mossy serve'
port: {{ .Port }}

# Coach ('mossy coach'); the key may also come from ANTHROPIC_API_KEY
anthropic:
  model: "{{ .AnthropicModel }}"
`

type configTemplateData struct {
	StateDir         string
	DBPath           string
	User             string
	Zone             string
	CutoffHour       int
	BasePoints       int
	BasePointsLegacy int
	TopOffThreshold  int
	WindowDays       int
	Threshold        int
	Port             int
	AnthropicModel   string
}

// templateData snapshots the effective values so 'config init' writes what is
// in force right now, flags and env included.
func templateData() configTemplateData {
	return configTemplateData{
		StateDir:         viper.GetString("state_dir"),
		DBPath:           viper.GetString("db_path"),
		User:             viper.GetString("user"),
		Zone:             viper.GetString("zone"),
		CutoffHour:       viper.GetInt("day.cutoff_hour"),
		BasePoints:       viper.GetInt("scoring.base_points"),
		BasePointsLegacy: scoring.BasePointsLegacy,
		TopOffThreshold:  viper.GetInt("scoring.top_off_threshold"),
		WindowDays:       viper.GetInt("streaks.window_days"),
		Threshold:        viper.GetInt("streaks.threshold"),
		Port:             viper.GetInt("port"),
		AnthropicModel:   viper.GetString("anthropic.model"),
	}
}

func renderConfig(data configTemplateData) ([]byte, error) {
	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse config template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render config template: %w", err)
	}
	return buf.Bytes(), nil
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	_, statErr := os.Stat(cfgPath)
	exists := statErr == nil
	if exists && !configForce {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
	}

	content, err := renderConfig(templateData())
	if err != nil {
		return err
	}

	switch {
	case dryRun:
		ui.DryRunMsg("Would create config file: %s", cfgPath)
	default:
		if exists {
			ui.Warning("Overwriting %s", cfgPath)
		}
		if err := os.MkdirAll(filepath.Dir(cfgPath), 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		if err := os.WriteFile(cfgPath, content, 0o644); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}
		ui.Success("Config file created: %s", cfgPath)
	}
	fmt.Fprintf(ui.Out, "\n%s", content)
	return nil
}

// configKeys lists what 'config show' reports, in display order.
var configKeys = []string{
	"state_dir",
	"db_path",
	"user",
	"zone",
	"day.cutoff_hour",
	"scoring.base_points",
	"scoring.top_off_threshold",
	"streaks.window_days",
	"streaks.threshold",
	"port",
	"anthropic.model",
}

// envVar is the environment variable viper binds for key.
func envVar(key string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	inFile, err := configFileKeys(cfgPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		ui.Info("Config file: (none)")
	case err != nil:
		ui.Warning("Config file %s: %v", cfgPath, err)
	default:
		ui.Info("Config file: %s", cfgPath)
	}

	table := ui.Table([]string{"Key", "Value", "Source"})
	for _, key := range configKeys {
		_ = table.Append([]string{key, fmt.Sprint(viper.Get(key)), detectSource(key, envVar(key), inFile)})
	}
	_ = table.Render()

	if _, err := trackerConfig(); err != nil {
		ui.Warning("Invalid configuration: %v", err)
	}
	return nil
}

// configFileKeys returns the dotted keys set in the YAML file at path.
func configFileKeys(path string) (map[string]bool, error) {
	keys := make(map[string]bool)
	data, err := os.ReadFile(path)
	if err != nil {
		return keys, err
	}
	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return keys, fmt.Errorf("parse: %w", err)
	}
	flattenKeys("", parsed, keys)
	return keys, nil
}

func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		if prefix != "" {
			key = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(key, nested, result)
			continue
		}
		result[key] = true
	}
}

// detectSource reports where the effective value of key comes from. Env wins
// over the file, as in viper.
func detectSource(key, env string, inFile map[string]bool) string {
	if _, ok := os.LookupEnv(env); ok {
		return "env: " + env
	}
	if inFile[key] {
		return "file"
	}
	return "default"
}

// editorCommand splits $EDITOR (or $VISUAL) so values like "code -w" work.
func editorCommand() ([]string, error) {
	for _, name := range []string{"EDITOR", "VISUAL"} {
		if fields := strings.Fields(os.Getenv(name)); len(fields) > 0 {
			return fields, nil
		}
	}
	return nil, fmt.Errorf("$EDITOR is not set: set it to your preferred editor (e.g. export EDITOR=vim)")
}

func configEditRun() error {
	editor, err := editorCommand()
	if err != nil {
		return err
	}

	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(cfgPath); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file not found: %s (run 'mossy config init' first)", cfgPath)
	}

	if dryRun {
		ui.DryRunMsg("Would open %s in %s", cfgPath, editor[0])
		return nil
	}

	editCmd := exec.Command(editor[0], append(editor[1:], cfgPath)...)
	editCmd.Stdin, editCmd.Stdout, editCmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	return editCmd.Run()
}
