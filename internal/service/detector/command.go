package detector

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/fall-guard/internal/channel"
	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
	"github.com/oshokin/fall-guard/internal/service/common"
)

// DefaultSurfaceProcess is the executable name of the surface.
const DefaultSurfaceProcess = "fallguard-server"

// errSurfaceNotRunning is returned by the waker when no surface process exists.
var errSurfaceNotRunning = errors.New("surface process is not running")

// Options configures one detection.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// ServerAddress overrides server address from config when specified.
	ServerAddress string
	// MailboxFile overrides the mailbox path from config when specified.
	MailboxFile string
	// SurfaceProcess is the executable looked up before waking, DefaultSurfaceProcess if empty.
	SurfaceProcess string
	// SkipProcessCheck wakes the surface without looking for its process first.
	SkipProcessCheck bool
	// RaisedAt is when the fall was detected, now if zero.
	RaisedAt time.Time
}

// Run raises one fall alert.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "fallguard-detector")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	mailboxFile := cfg.MailboxFile
	if opts.MailboxFile != "" {
		mailboxFile = opts.MailboxFile
	}

	// The actor is informational; a detection is never dropped for lack of it.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect actor", "error", err)
	}

	raisedAt := opts.RaisedAt
	if raisedAt.IsZero() {
		raisedAt = time.Now()
	}

	waker := &remoteWaker{
		address:          serverAddress,
		timeout:          cfg.Timeout,
		process:          executableName(opts.SurfaceProcess),
		skipProcessCheck: opts.SkipProcessCheck,
	}

	alerts := channel.New(mailbox.NewFileRepository(mailboxFile), waker)

	logger.InfoKV(ctx, "Raising fall alert", "mailbox_file", mailboxFile, "server_address", serverAddress)

	return alerts.Raise(ctx, alert.NewFallDetected(raisedAt, actor))
}

// remoteWaker delivers the entry signal to a surface in another process.
type remoteWaker struct {
	address          string
	timeout          time.Duration
	process          string
	skipProcessCheck bool
}

// Wake sends the redelivery entry to the surface.
func (w *remoteWaker) Wake(ctx context.Context, entry surface.Entry) error {
	if !w.skipProcessCheck {
		running, err := processRunning(w.process)
		if err != nil {
			logger.WarnKV(ctx, "Unable to list processes, waking anyway", "error", err)
		} else if !running {
			return fmt.Errorf("%w: %s", errSurfaceNotRunning, w.process)
		}
	}

	client, err := common.Dial(ctx, w.address, common.WithCallTimeout(w.timeout))
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	destination, err := client.Wake(ctx, entry)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Surface woken", "destination", destination.String())

	return nil
}

// processRunning reports whether a process with the given executable exists.
func processRunning(executable string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	for _, process := range processList {
		if strings.EqualFold(process.Executable(), executable) {
			return true, nil
		}
	}

	return false, nil
}

// executableName adds the platform extension to the surface executable.
func executableName(name string) string {
	if name == "" {
		name = DefaultSurfaceProcess
	}

	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}

	return name
}
