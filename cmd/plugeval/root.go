package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/plugeval/internal/app"
	"github.com/dshills/plugeval/internal/config"
)

// globalFlags are shared by every command. A flag only overrides the
// configuration when it was given.
type globalFlags struct {
	configPath  string
	logLevel    string
	format      string
	color       string
	roots       []string
	registry    string
	entryScript string
}

func newRootCommand(version, commit, date string) *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "plugeval",
		Short: "Evaluate Lua plugin scripts",
		Long: `plugeval discovers plugins, resolves the classpath directives of each
plugin's entry script, runs every script in its own isolated Lua context and
reports loading errors and script failures once the whole set has run.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "configuration file (default $PLUGEVAL_CONFIG or user config dir)")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&g.format, "format", "", "report format: text, json, screen")
	pf.StringVar(&g.color, "color", "", "colour mode: auto, always, never")
	pf.StringSliceVarP(&g.roots, "root", "r", nil, "plugin root directory (repeatable)")
	pf.StringVar(&g.registry, "registry", "", "YAML plugin registry file")
	pf.StringVar(&g.entryScript, "entry-script", "", "entry script file name")

	root.AddCommand(
		newRunCommand(&g),
		newListCommand(&g),
		newWatchCommand(&g),
		newNewCommand(&g),
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "plugeval %s\nCommit: %s\nBuilt: %s\n", version, commit, date)
			},
		},
	)
	return root
}

// override applies the flags that were set on cmd.
func (g *globalFlags) override(cmd *cobra.Command) func(*config.Config) {
	flags := cmd.Flags()
	return func(c *config.Config) {
		if flags.Changed("log-level") {
			c.Logging.Level = g.logLevel
		}
		if flags.Changed("format") {
			c.Report.Format = g.format
		}
		if flags.Changed("color") {
			c.Report.Color = g.color
		}
		if flags.Changed("root") {
			c.Plugins.Roots = g.roots
			c.Plugins.Registry = ""
		}
		if flags.Changed("registry") {
			c.Plugins.Registry = g.registry
		}
		if flags.Changed("entry-script") {
			c.Engine.EntryScript = g.entryScript
		}
	}
}

// loadConfig reads the configuration with flag overrides applied.
func (g *globalFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	g.override(cmd)(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp builds the application for cmd.
func (g *globalFlags) newApp(cmd *cobra.Command, pluginArgs []string) (*app.Application, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return app.New(app.Options{
		Config: cfg,
		Args:   pluginArgs,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
}
