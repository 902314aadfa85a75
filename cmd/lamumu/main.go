// Command lamumu is the terminal client: play sessions, browse the
// leaderboard and manage the local run log.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}
