package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/service/console"
	"github.com/oshokin/fall-guard/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// serverAddress overrides the surface address from config.
	serverAddress string

	// rootCmd represents the base command of the console.
	rootCmd = &cobra.Command{
		Use:   "fallguard",
		Short: "Observe and answer the fall-guard surface.",
		Long: `Console of the fall-guard surface.

Shows the alert confirmation state, confirms or dismisses a pending fall,
reports permission answers, edits the profile and medication schedule and
asks the assistant.`,
		SilenceUsage: true,
	}
)

// Execute runs the fallguard CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withConsole connects to the surface, runs fn and disconnects.
func withConsole(cmd *cobra.Command, fn func(ctx context.Context, c *console.Console) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	c, err := console.Open(ctx, &console.Options{
		ConfigPath:    configPath,
		ServerAddress: serverAddress,
		Out:           cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}

	defer func() {
		_ = c.Close()
	}()

	return fn(ctx, c)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().
		StringVarP(&serverAddress, "server", "s", "", "surface address (overrides config)")

	rootCmd.AddCommand(
		newStatusCommand(),
		newWatchCommand(),
		newConfirmCommand(),
		newDismissCommand(),
		newPermissionCommand(),
		newProfileCommand(),
		newMedicationCommand(),
		newAskCommand(),
	)
}
