// Package config provides the configuration system for plugeval.
//
// Configuration is organized in layers with higher layers overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command Line Flags      │  ← Highest priority (applied by the CLI)
//	├─────────────────────────────┤
//	│  3. Environment Variables   │  ← PLUGEVAL_SECTION_SETTING
//	├─────────────────────────────┤
//	│  2. Config File             │  ← $XDG_CONFIG_HOME/plugeval/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in Defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// # File Format
//
//	[plugins]
//	roots = ["~/.config/plugeval/plugins"]
//	registry = "plugins.yaml"
//
//	[engine]
//	entry_script = "plugin.lua"
//	directive = "-- classpath:"
//	shared_paths = ["/usr/share/plugeval/lua"]
//
//	[logging]
//	level = "info"
//	format = "text"
//	outputs = ["stderr"]
//
//	[report]
//	format = "text"   # text, json or screen
//	color = "auto"    # auto, always or never
//	frame = true
//
//	[watch]
//	debounce_ms = 300
//
// A missing file is not an error.
package config
