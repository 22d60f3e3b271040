package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/flowguide/internal/cli"
	fgerrors "github.com/matzehuels/flowguide/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130) // Standard shell convention for SIGINT
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		if fgerrors.IsStartupFatal(err) {
			fmt.Fprintln(os.Stderr, "Check the configuration file and the graph_data_file_path it names.")
		}
		os.Exit(1)
	}
}
