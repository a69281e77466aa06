// Command frlayout runs the force-directed layout over a YAML graph and
// prints the resulting node positions.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dd0wney/cluso-layout/pkg/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "frlayout",
		Short:        "Fruchterman-Reingold graph layout",
		Long:         `frlayout computes 2D node positions for a graph with a force-directed simulation, optionally approximating forces by community.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := logging.InfoLevel
			if verbose {
				level = logging.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), logging.NewConsoleLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())

	return root
}

type loggerKey struct{}

func withLogger(ctx context.Context, logger logging.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFromContext(ctx context.Context) logging.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(logging.Logger); ok {
		return logger
	}
	return logging.NewNopLogger()
}
