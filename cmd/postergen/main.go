package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gideonchrapko/template-builder/internal/cli"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context) error {
	var verbose bool

	c := cli.New(os.Stderr, cli.LogInfo)
	root := c.RootCommand()

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	// The logger exists before flags are parsed; raise its level once they are.
	originalPreRun := root.PersistentPreRun
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if verbose {
			c.SetLogLevel(cli.LogDebug)
		}
		if originalPreRun != nil {
			originalPreRun(cmd, args)
		}
	}

	return root.ExecuteContext(ctx)
}

// exitCode maps error codes to exit statuses: 2 for bad input, 3 for a
// missing template, 1 otherwise.
func exitCode(err error) int {
	switch perrors.GetCode(err) {
	case perrors.ErrCodeInvalidInput, perrors.ErrCodeInvalidSchema, perrors.ErrCodeInvalidFormat,
		perrors.ErrCodeInvalidPath, perrors.ErrCodeMalformedSchema:
		return 2
	case perrors.ErrCodeTemplateNotFound:
		return 3
	}
	return 1
}
