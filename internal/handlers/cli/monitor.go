package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gabapcia/walletpulse/internal/monitorproc"

	"github.com/urfave/cli/v3"
)

// startMonitorCommand returns the CLI command that runs the monitoring
// pipeline until the process receives SIGINT or SIGTERM.
//
// Usage example:
//
//	walletpulse start
func startMonitorCommand(mp monitorproc.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the address monitoring pipeline: polling, classification, and alert dispatch.",
		Usage:       "Runs the monitor until Ctrl+C or a termination signal.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := mp.Start(ctx); err != nil {
				return err
			}
			defer mp.Close()

			<-quit
			return nil
		},
	}
}
