package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/service/detector"
	"github.com/oshokin/fall-guard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// mailboxFile overrides the alert mailbox path.
	mailboxFile string
	// surfaceProcess is the executable name of the surface.
	surfaceProcess string
	// skipProcessCheck wakes the surface without looking for its process.
	skipProcessCheck bool

	// rootCmd represents the base command for raising a fall alert.
	rootCmd = &cobra.Command{
		Use:   "fallguard-detector [server-address]",
		Short: "Raise a fall alert.",
		Long: `Raises a fall alert for the surface.

The alert is written to the mailbox file first, replacing any alert that was
not consumed yet. If the surface process is running it is woken over gRPC and
shows the confirmation screen at once; otherwise the alert waits for the next
start of the surface.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			var serverAddress string
			if len(args) > 0 {
				serverAddress = args[0]
			}

			return detector.Run(ctx, &detector.Options{
				ConfigPath:       configPath,
				ServerAddress:    serverAddress,
				MailboxFile:      mailboxFile,
				SurfaceProcess:   surfaceProcess,
				SkipProcessCheck: skipProcessCheck,
			})
		},
	}
)

// Execute runs the fallguard-detector CLI and exits with non-zero status on error.
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
	rootCmd.Flags().StringVar(&surfaceProcess, "surface-process", detector.DefaultSurfaceProcess, "executable name of the surface")
	rootCmd.Flags().BoolVar(&skipProcessCheck, "skip-process-check", false, "wake the surface without checking its process")
}
