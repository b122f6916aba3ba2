package main

import (
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"marquee/internal/daemonctl"
	"marquee/internal/daemonrun"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and catalog counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				status, err := client.Status(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, status)
				}
				printStatus(cmd, status)
				return nil
			})
		},
	}
}

func newSyncCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Trigger an immediate catalog synchronization",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				run, err := client.Sync(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, run)
				}
				printSyncRun(cmd, run)
				return nil
			})
		},
	}
}

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Daemon management",
	}
	daemonCmd.AddCommand(newDaemonRunCommand(ctx))
	return daemonCmd
}

// newDaemonRunCommand runs the daemon in the foreground, sharing the
// bootstrap with the marqueed binary.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the marquee daemon in the foreground",
		// The bootstrap loads and validates config itself.
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var cfgPath string
			if ctx.configFlag != nil {
				cfgPath = strings.TrimSpace(*ctx.configFlag)
			}
			return daemonrun.Run(runCtx, cfgPath)
		},
	}
}
