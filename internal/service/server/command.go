package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	api "github.com/oshokin/fall-guard/internal/api/grpc/fallguard"
	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/metrics"
)

// Options controls the fallguard-server process and configuration.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// ListenAddress provides an optional listen address override for the gRPC server.
	ListenAddress string
	// MailboxFile overrides the mailbox path from the settings.
	MailboxFile string
	// Listener is used instead of listening on ListenAddress when set.
	Listener net.Listener
	// InMemoryStore keeps records in RAM, used by tests.
	InMemoryStore bool
}

// ErrNoServerAddress indicates missing server configuration.
var ErrNoServerAddress = errors.New("no server address configured")

// Run starts the surface and its gRPC server and blocks until ctx is canceled.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fallguard-server")

	// Load configuration first to get server settings.
	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = logger.Configure(settings.LogLevel); err != nil {
		return err
	}

	if opts.MailboxFile != "" {
		settings.MailboxFile = opts.MailboxFile
	}

	// Setup TCP listener for gRPC server unless one was handed over.
	lis := opts.Listener
	if lis == nil {
		listenAddress, err := resolveListenAddress(settings.ServerAddress, opts.ListenAddress)
		if err != nil {
			return fmt.Errorf("resolve listen address: %w", err)
		}

		lc := net.ListenConfig{}

		lis, err = lc.Listen(ctx, "tcp", listenAddress)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", listenAddress, err)
		}
	}

	// Wire the surface with its stores and collaborators.
	parts, err := newAssembly(ctx, settings, opts.InMemoryStore)
	if err != nil {
		_ = lis.Close()

		return fmt.Errorf("initialise surface: %w", err)
	}

	defer parts.Close(ctx)

	grpcServer := grpc.NewServer()
	api.RegisterSurfaceServer(grpcServer, api.NewServer(parts.surface))

	logger.InfoKV(ctx, "Surface listening", "listen_address", lis.Addr().String())

	group, groupCtx := errgroup.WithContext(ctx)

	// The surface performs its cold-start entry before the first RPC lands.
	group.Go(func() error {
		return parts.surface.Run(groupCtx)
	})

	if settings.MetricsAddress != "" {
		group.Go(func() error {
			return metrics.Serve(groupCtx, settings.MetricsAddress)
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info(ctx, "Shutting down gRPC server")
		grpcServer.GracefulStop()

		return nil
	})

	group.Go(func() error {
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("serve gRPC: %w", err)
		}

		return nil
	})

	err = group.Wait()

	logger.Info(ctx, "GRPC server stopped")

	return err
}

// resolveListenAddress determines the listen address for the gRPC server.
// If override is provided, uses it directly. Otherwise extracts port from configAddr.
// Returns appropriate listen address (e.g., ":8080" for port-only binding).
func resolveListenAddress(configAddr, override string) (string, error) {
	if override != "" {
		return override, nil
	}

	if configAddr == "" {
		return "", ErrNoServerAddress
	}

	_, port, err := net.SplitHostPort(configAddr)
	if err != nil {
		return "", fmt.Errorf("invalid server address format %q: %w", configAddr, err)
	}

	return ":" + port, nil
}
