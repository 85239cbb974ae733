package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/service/server"
	"github.com/oshokin/fall-guard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// mailboxFile overrides the alert mailbox path.
	mailboxFile string

	// rootCmd represents the base command for running the surface.
	rootCmd = &cobra.Command{
		Use:   "fallguard-server [listen-address]",
		Short: "Run the fall-guard surface and its gRPC API.",
		Long: `Starts the surface that routes fall alerts to the confirmation screen.

On start the surface performs a cold-start entry: an alert left in the mailbox
by the detector opens the confirmation screen immediately. While running, the
detector wakes the surface over gRPC and the console observes and answers it.
Only the port from server_addr is used for listening (e.g., :7070).
Listen address can be provided as argument to override config (e.g., :9090, 0.0.0.0:7070).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				ListenAddress: listenAddress,
				MailboxFile:   mailboxFile,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the fallguard-server CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.Flags().StringVarP(&mailboxFile, "mailbox-file", "m", "", "path of the alert mailbox (overrides config)")
}
