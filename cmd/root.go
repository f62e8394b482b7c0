package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	version string
	baseDir string
)

// SetVersion sets the version string
func SetVersion(v string) {
	version = v
}

var rootCmd = &cobra.Command{
	Use:   "academy",
	Short: "Fragment server and terminal console for the academy platform",
	Long: `academy - user administration for the academy learning platform.

The serve command exposes the admin UI as HTML fragments over HTTP,
the way the browser front end consumes them. The console command is a
terminal client for the same fragments: it opens forms in a modal,
shows per-action loading indicators, and refreshes the user list on
server-pushed triggers.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initBaseDir, initLogging)

	rootCmd.PersistentFlags().Bool("json-log", false, "Log as JSON instead of human-readable output")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")
}

func initBaseDir() {
	var err error
	baseDir, err = os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		os.Exit(1)
	}
}

// initLogging configures slog on stderr. Human-readable by default, JSON
// when --json-log is set for log collectors.
func initLogging() {
	level := slog.LevelInfo
	if v, _ := rootCmd.PersistentFlags().GetBool("verbose"); v {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if jsonLog, _ := rootCmd.PersistentFlags().GetBool("json-log"); jsonLog {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stderr, &tint.Options{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

// getBaseDir returns the base directory for the project
func getBaseDir() string {
	return baseDir
}

// flagChanged reports whether the user set a flag explicitly, so defaults
// can fall back to the config file.
func flagChanged(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
