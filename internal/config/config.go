package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/plugeval/internal/config/loader"
)

// EnvPrefix prefixes every environment variable read as configuration.
const EnvPrefix = "PLUGEVAL_"

// EnvConfigPath names the config file when --config is not given.
const EnvConfigPath = EnvPrefix + "CONFIG"

// Config is the complete plugeval configuration.
type Config struct {
	Plugins PluginsConfig `toml:"plugins"`
	Engine  EngineConfig  `toml:"engine"`
	Logging LoggingConfig `toml:"logging"`
	Report  ReportConfig  `toml:"report"`
	Watch   WatchConfig   `toml:"watch"`

	// Path is the file the configuration was read from, if any.
	Path string `toml:"-"`
}

// PluginsConfig selects where plugins come from.
type PluginsConfig struct {
	// Roots are directories whose sub-directories are plugins.
	Roots []string `toml:"roots"`
	// Registry is a YAML file listing plugins. When set it replaces Roots.
	Registry string `toml:"registry"`
}

// EngineConfig configures plugin evaluation.
type EngineConfig struct {
	EntryScript   string   `toml:"entry_script"`
	Directive     string   `toml:"directive"`
	SharedPaths   []string `toml:"shared_paths"`
	CallStackSize int      `toml:"call_stack_size"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level   string   `toml:"level"`
	Format  string   `toml:"format"`
	Outputs []string `toml:"outputs"`
}

// ReportConfig selects how results are displayed.
type ReportConfig struct {
	Format string `toml:"format"`
	Color  string `toml:"color"`
	Frame  bool   `toml:"frame"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"`
}

// Report formats.
const (
	FormatText   = "text"
	FormatJSON   = "json"
	FormatScreen = "screen"
)

// Colour modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			EntryScript:   "plugin.lua",
			Directive:     "-- classpath:",
			CallStackSize: 256,
		},
		Logging: LoggingConfig{
			Level:   "warn",
			Format:  "text",
			Outputs: []string{"stderr"},
		},
		Report: ReportConfig{
			Format: FormatText,
			Color:  ColorAuto,
			Frame:  true,
		},
		Watch: WatchConfig{
			DebounceMS: 300,
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/plugeval/config.toml, or "" if no
// user config directory is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "plugeval", "config.toml")
}

// Load builds the configuration from defaults, the TOML file at path and
// the environment. An empty path selects $PLUGEVAL_CONFIG, then DefaultPath.
// Relative paths inside the file resolve against the file's directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		path = DefaultPath()
	}

	merged := make(map[string]any)

	if path != "" {
		fileConfig, err := loader.NewTOMLLoader(path).Load()
		if err != nil {
			return nil, err
		}
		if fileConfig != nil {
			resolveFilePaths(fileConfig, filepath.Dir(path))
		}
		merged = loader.DeepMerge(merged, fileConfig)
	}

	envConfig, err := newEnvLoader().Load()
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	merged = loader.DeepMerge(merged, envConfig)

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		cfg.Path = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies the merged map onto cfg. Keys absent from the map keep
// their current values.
func decode(merged map[string]any, cfg *Config) error {
	data, err := loader.Encode(merged)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	return nil
}

func newEnvLoader() *loader.EnvLoader {
	l := loader.NewEnvLoader(EnvPrefix)
	l.Skip(EnvConfigPath)
	l.AddMapping(EnvPrefix+"LOG_LEVEL", "logging.level")
	l.AddMapping(EnvPrefix+"REGISTRY", "plugins.registry")
	for _, p := range []string{"plugins.roots", "engine.shared_paths", "logging.outputs"} {
		l.ListPath(p)
	}
	return l
}

// resolveFilePaths makes relative paths in a file's config absolute
// against dir.
func resolveFilePaths(m map[string]any, dir string) {
	abs := func(v any) any {
		s, ok := v.(string)
		if !ok || s == "" || isStream(s) {
			return v
		}
		s = expandHome(s)
		if filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(dir, s)
	}
	each := func(section, key string, fn func(any) any) {
		sec, ok := m[section].(map[string]any)
		if !ok {
			return
		}
		switch v := sec[key].(type) {
		case []any:
			for i := range v {
				v[i] = fn(v[i])
			}
		case nil:
		default:
			sec[key] = fn(v)
		}
	}

	each("plugins", "roots", abs)
	each("plugins", "registry", abs)
	each("engine", "shared_paths", abs)
	each("logging", "outputs", abs)
}

func isStream(s string) bool {
	return s == "stdout" || s == "stderr"
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"report.format", c.Report.Format, []string{FormatText, FormatJSON, FormatScreen}},
		{"report.color", c.Report.Color, []string{ColorAuto, ColorAlways, ColorNever}},
		{"logging.format", strings.ToLower(c.Logging.Format), []string{"text", "json"}},
	}
	for _, chk := range checks {
		if !slices.Contains(chk.allowed, chk.value) {
			return fmt.Errorf("%s = %q (want one of %s): %w",
				chk.name, chk.value, strings.Join(chk.allowed, ", "), ErrInvalidValue)
		}
	}

	if c.Engine.EntryScript == "" || strings.ContainsAny(c.Engine.EntryScript, `/\`) {
		return fmt.Errorf("engine.entry_script = %q (want a bare file name): %w", c.Engine.EntryScript, ErrInvalidValue)
	}
	if strings.TrimSpace(c.Engine.Directive) == "" {
		return fmt.Errorf("engine.directive is empty: %w", ErrInvalidValue)
	}
	if c.Engine.CallStackSize < 0 || c.Watch.DebounceMS < 0 {
		return fmt.Errorf("negative engine.call_stack_size or watch.debounce_ms: %w", ErrInvalidValue)
	}
	return nil
}
