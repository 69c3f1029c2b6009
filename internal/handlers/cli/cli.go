// Package cli exposes the service's commands: running the block pipeline and
// managing triggers.
package cli

import (
	"context"
	"os"

	"github.com/leon-do/web3hook-emit/internal/blockproc"
	"github.com/leon-do/web3hook-emit/internal/triggerregistry"

	"github.com/urfave/cli/v3"
)

// Run initializes and executes the web3hook CLI application.
//
// Available commands:
//
//   - `start`: runs the full block processing pipeline.
//   - `create`: registers a trigger.
//   - `delete`: removes a trigger.
func Run(ctx context.Context, tr triggerregistry.Service, bp blockproc.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "web3hook",
		Description:           "Command-line interface for managing triggers and running the web3hook pipeline.",
		Usage:                 "web3hook [command] [flags]",
		Commands: []*cli.Command{
			startPipelineCommand(bp),
			createTriggerCommand(tr),
			deleteTriggerCommand(tr),
		},
	}

	return app.Run(ctx, os.Args)
}
