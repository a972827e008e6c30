package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/vango-dev/pushroute/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// report prints err. Errors carrying no code, such as flag parse errors,
// are reported under X001.
func report(w io.Writer, err error) {
	var coded *errors.Error
	if !errors.As(err, &coded) {
		err = errors.FromError(err, "X001")
	}
	errors.Fprint(w, err)
}

func newRootCmd() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "pushroute",
		Short: "Serve and inspect pushState-routed sites",
		Long: `pushroute serves a site described by a project file as a
client-routed single page application.

Each tab is rendered on the server, then kept live over a WebSocket:
navigation swaps the content region and pushes a history entry, and
back/forward replays the state pushed with the entry.

The project file is pushroute.json, pushroute.toml or pushroute.yaml
in the current directory, or the file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Project file (default: pushroute.{json,toml,yaml} in the working directory)")

	rootCmd.AddCommand(
		serveCmd(&configPath),
		resolveCmd(&configPath),
		routesCmd(&configPath),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
