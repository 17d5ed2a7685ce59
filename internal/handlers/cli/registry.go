package cli

import (
	"context"
	"fmt"

	"github.com/gabapcia/walletpulse/internal/registry"

	"github.com/urfave/cli/v3"
)

// watchAddressCommand returns the CLI command that registers an address for
// monitoring.
//
// Usage example:
//
//	walletpulse watch --address 9xQe... --name treasury
func watchAddressCommand(reg registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register an address to be monitored for ledger activity.",
		Usage:       "Registers an address with optional display metadata.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to start watching",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "Display name shown on alerts",
			},
			&cli.StringFlag{
				Name:  "icon",
				Usage: "Icon shown on alerts",
			},
			&cli.BoolFlag{
				Name:  "mute",
				Usage: "Register the address without delivering its alerts to the feed",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return reg.Watch(ctx, registry.MonitoredAddress{
				Address:       c.String("address"),
				DisplayName:   c.String("name"),
				Icon:          c.String("icon"),
				DeliverToFeed: !c.Bool("mute"),
			})
		},
	}
}

// unwatchAddressCommand returns the CLI command that unregisters an address
// from monitoring.
//
// Usage example:
//
//	walletpulse unwatch --address 9xQe...
func unwatchAddressCommand(reg registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Unregister an address from monitoring.",
		Usage:       "Stops watching an address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return reg.Unwatch(ctx, c.String("address"))
		},
	}
}

// listAddressesCommand returns the CLI command that prints the registered
// addresses.
//
// Usage example:
//
//	walletpulse list
func listAddressesCommand(reg registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "list",
		Description: "List every address registered for monitoring.",
		Usage:       "Prints the registered addresses with their display metadata.",
		Action: func(ctx context.Context, c *cli.Command) error {
			addresses, err := reg.List(ctx)
			if err != nil {
				return err
			}

			for _, addr := range addresses {
				feed := "feed"
				if !addr.DeliverToFeed {
					feed = "muted"
				}

				fmt.Fprintf(c.Writer, "%s\t%s\t%s\n", addr.Address, addr.DisplayName, feed)
			}

			return nil
		},
	}
}
