package cli

import (
	"context"
	"os"

	"github.com/gabapcia/walletpulse/internal/monitorproc"
	"github.com/gabapcia/walletpulse/internal/registry"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the walletpulse CLI application.
//
// Registered commands:
//
//   - `start`: runs the monitoring pipeline until interrupted.
//   - `watch`: registers an address for monitoring.
//   - `unwatch`: unregisters an address.
//   - `list`: prints the registered addresses.
func Run(ctx context.Context, reg registry.Service, mp monitorproc.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "walletpulse",
		Description:           "Command-line interface for managing and running the walletpulse address monitor.",
		Usage:                 "walletpulse [command] [flags]",
		Commands: []*cli.Command{
			startMonitorCommand(mp),
			watchAddressCommand(reg),
			unwatchAddressCommand(reg),
			listAddressesCommand(reg),
		},
	}

	return app.Run(ctx, os.Args)
}
