// Command pansql compiles PanSQL scripts into Go programs.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/roach88/pansql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "pansql: %v\n", err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
