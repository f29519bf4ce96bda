package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/plugeval/internal/scaffold"
)

func newRunCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run [-- plugin args...]",
		Short: "Evaluate every plugin once",
		Example: `  # Evaluate the plugins under ./plugins
  plugeval run --root ./plugins

  # Pass arguments to the scripts' event.args
  plugeval run -- deploy staging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, args)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			_, err = a.Evaluate(ctx, "run")
			return err
		},
	}
}

func newListCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered plugins in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ds, err := a.Plugins()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tROOT")
			for _, d := range ds {
				fmt.Fprintf(w, "%s\t%s\n", d.ID, d.Root)
			}
			return w.Flush()
		},
	}
}

func newWatchCommand(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [-- plugin args...]",
		Short: "Evaluate plugins on every change",
		Long: `Evaluate every plugin, then again whenever a plugin file changes.
Sending SIGHUP forces a run. Interrupt to stop.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.newApp(cmd, args)
			if err != nil {
				return err
			}
			defer a.Shutdown()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.Watch(ctx, hangups(ctx))
		},
	}
}

// hangups forwards SIGHUP until ctx is done.
func hangups(ctx context.Context) <-chan struct{} {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	out := make(chan struct{})
	go func() {
		defer signal.Stop(sig)
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				select {
				case out <- struct{}{}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func newNewCommand(g *globalFlags) *cobra.Command {
	var (
		interactive bool
		text        bool
	)

	cmd := &cobra.Command{
		Use:   "new <dir>",
		Short: "Create a plugin directory with an entry script",
		Example: `  # Scaffold ./plugins/greeter/plugin.lua
  plugeval new ./plugins/greeter

  # Ask for the file name
  plugeval new ./plugins/greeter -i`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}

			dir := args[0]
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			kind := scaffold.KindScript
			if text {
				kind = scaffold.KindText
			}

			var p scaffold.Prompter = &scaffold.StaticPrompter{
				Name: cfg.Engine.EntryScript,
				Out:  cmd.ErrOrStderr(),
			}
			if interactive {
				p = scaffold.NewLinePrompter(cmd.InOrStdin(), cmd.ErrOrStderr())
			}

			path, err := scaffold.NewCreator(p).Create(dir, kind, "")
			if err != nil {
				return err
			}
			abs, _ := filepath.Abs(path)
			fmt.Fprintln(cmd.OutOrStdout(), abs)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for the file name")
	cmd.Flags().BoolVar(&text, "text", false, "create an empty text file instead of a script")
	return cmd
}
