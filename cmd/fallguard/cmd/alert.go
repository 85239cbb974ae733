package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-guard/internal/service/console"
)

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current screen, alert state, permissions and notices.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Status(ctx)
			})
		},
	}
}

func newWatchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print every change of the alert state until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Watch(ctx)
			})
		},
	}
}

func newConfirmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm",
		Short: "Confirm the pending fall and contact the emergency number.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Confirm(ctx)
			})
		},
	}
}

func newDismissCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss",
		Short: "Dismiss the pending fall as a false alarm.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Dismiss(ctx)
			})
		},
	}
}

func newPermissionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "permission <NOTIFICATIONS|AUDIO|CALL_PHONE> <grant|deny>",
		Short: "Report the answer to a permission prompt.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Permission(ctx, args[0], args[1])
			})
		},
	}
}

func newAskCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant a question.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.Ask(ctx, strings.Join(args, " "))
			})
		},
	}
}
