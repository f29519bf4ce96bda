package loader

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// EnvLoader loads configuration from environment variables.
//
// PLUGEVAL_ENGINE_ENTRY_SCRIPT maps to engine.entry_script: the first word
// after the prefix is the section and the rest, joined with underscores, is
// the setting. Explicit mappings take precedence over that rule.
type EnvLoader struct {
	prefix  string            // Environment variable prefix (e.g., "PLUGEVAL_")
	mapping map[string]string // Env var -> config path
	skip    map[string]bool   // Prefixed vars that are not settings
	lists   map[string]bool   // Config paths holding path lists
	environ func() []string
}

// NewEnvLoader creates a new environment variable loader.
// The prefix should include the trailing underscore (e.g., "PLUGEVAL_").
func NewEnvLoader(prefix string) *EnvLoader {
	return &EnvLoader{
		prefix:  prefix,
		mapping: make(map[string]string),
		skip:    make(map[string]bool),
		lists:   make(map[string]bool),
		environ: os.Environ,
	}
}

// AddMapping maps an environment variable to a config path.
func (l *EnvLoader) AddMapping(envVar, configPath string) {
	l.mapping[envVar] = configPath
}

// Skip ignores a prefixed variable that is not a setting.
func (l *EnvLoader) Skip(envVar string) {
	l.skip[envVar] = true
}

// ListPath marks a config path whose value is a list of paths. Its
// environment value may be a JSON array or an OS path list.
func (l *EnvLoader) ListPath(configPath string) {
	l.lists[configPath] = true
}

// Load reads the prefixed environment variables into a configuration map.
// Note: Empty string values are treated as valid values, not as unset.
func (l *EnvLoader) Load() (map[string]any, error) {
	config := make(map[string]any)

	for _, env := range l.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, l.prefix) || l.skip[name] {
			continue
		}

		path, mapped := l.mapping[name]
		if !mapped {
			path = l.envToPath(name)
		}
		if path == "" {
			continue
		}

		if l.lists[path] {
			setByPath(config, path, parseList(value))
		} else {
			setByPath(config, path, parseValue(value))
		}
	}

	return config, nil
}

// envToPath converts PLUGEVAL_ENGINE_ENTRY_SCRIPT to engine.entry_script.
func (l *EnvLoader) envToPath(env string) string {
	name := strings.ToLower(strings.TrimPrefix(env, l.prefix))
	section, setting, ok := strings.Cut(name, "_")
	if !ok || section == "" || setting == "" {
		return ""
	}
	return section + "." + setting
}

// parseValue converts booleans and integers; everything else stays a string.
func parseValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}

	return s
}

// parseList accepts a JSON array of strings or an OS path list.
func parseList(s string) []any {
	if strings.HasPrefix(strings.TrimSpace(s), "[") {
		var v []any
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
	}

	out := []any{}
	for _, part := range filepath.SplitList(s) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// setByPath sets a value in a nested map using a dot-separated path.
func setByPath(data map[string]any, path string, value any) {
	parts := strings.Split(path, ".")
	current := data

	for i := 0; i < len(parts)-1; i++ {
		part := parts[i]
		if next, ok := current[part].(map[string]any); ok {
			current = next
		} else {
			next := make(map[string]any)
			current[part] = next
			current = next
		}
	}

	current[parts[len(parts)-1]] = value
}
