package cli

import (
	"context"
	"fmt"

	"github.com/leon-do/web3hook-emit/internal/triggerregistry"

	"github.com/urfave/cli/v3"
)

// createTriggerCommand returns a CLI command that registers a trigger: an
// address to watch on one chain and the webhook endpoint to notify.
//
// Usage example:
//
//	web3hook create --user u1 --chain-id 1 --address 0xABC123... --url https://example.com/hook
func createTriggerCommand(tr triggerregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "create",
		Description: "Register a trigger watching an address on a chain, pointing at a webhook endpoint.",
		Usage:       "Creates a trigger. Must provide user, chain id, address, and webhook url.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Identifier of the user owning the trigger",
				Required: true,
			},
			&cli.IntFlag{
				Name:     "chain-id",
				Usage:    "Chain id to watch (e.g., 1 for Ethereum mainnet)",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Address to watch for activity",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Webhook endpoint notified on every matching transaction",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "abi",
				Usage: "Optional contract ABI filter",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			trigger, err := tr.CreateTrigger(ctx, triggerregistry.NewTrigger{
				UserID:     c.String("user"),
				ChainID:    int64(c.Int("chain-id")),
				Address:    c.String("address"),
				WebhookURL: c.String("url"),
				ABI:        c.String("abi"),
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(c.Writer, trigger.ID)
			return nil
		},
	}
}

// deleteTriggerCommand returns a CLI command that removes a registered
// trigger by id.
//
// Usage example:
//
//	web3hook delete --id 6a1f...
func deleteTriggerCommand(tr triggerregistry.Service) *cli.Command {
	return &cli.Command{
		Name:        "delete",
		Description: "Remove a registered trigger.",
		Usage:       "Deletes the trigger with the given id.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Identifier of the trigger to delete",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return tr.DeleteTrigger(ctx, c.String("id"))
		},
	}
}
