package detector

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
)

func writeSettings(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	settingsPath := filepath.Join(dir, config.DefaultConfigFilename)
	mailboxPath := filepath.Join(dir, config.DefaultMailboxFilename)

	require.NoError(t, config.Save(settingsPath, &config.Config{
		ServerAddress: "127.0.0.1:1",
		MailboxFile:   mailboxPath,
		Timeout:       200 * time.Millisecond,
	}))

	return settingsPath, mailboxPath
}

// TestRun_ParksAlertWithoutSurface leaves the alert for the next cold start.
func TestRun_ParksAlertWithoutSurface(t *testing.T) {
	t.Parallel()

	settingsPath, mailboxPath := writeSettings(t)
	raisedAt := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	err := Run(context.Background(), &Options{
		ConfigPath:     settingsPath,
		SurfaceProcess: "fallguard-surface-that-does-not-exist",
		RaisedAt:       raisedAt,
	})
	require.NoError(t, err)

	event, err := mailbox.NewFileRepository(mailboxPath).Take(context.Background())
	require.NoError(t, err)
	require.Equal(t, alert.KindFallDetected, event.Kind)
	require.True(t, raisedAt.Equal(event.RaisedAt))
}

// TestRun_UnreachableSurfaceKeepsAlert treats a failed wake as parked.
func TestRun_UnreachableSurfaceKeepsAlert(t *testing.T) {
	t.Parallel()

	settingsPath, mailboxPath := writeSettings(t)

	require.NoError(t, Run(context.Background(), &Options{
		ConfigPath:       settingsPath,
		SkipProcessCheck: true,
	}))

	_, err := os.Stat(mailboxPath)
	require.NoError(t, err)
}

// TestRun_MailboxUnwritable reports a dropped delivery.
func TestRun_MailboxUnwritable(t *testing.T) {
	t.Parallel()

	settingsPath, _ := writeSettings(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := Run(context.Background(), &Options{
		ConfigPath:  settingsPath,
		MailboxFile: filepath.Join(blocker, "mailbox.json"),
	})
	require.Error(t, err)
}

// TestRemoteWaker_NoProcess refuses to dial a surface that is not running.
func TestRemoteWaker_NoProcess(t *testing.T) {
	t.Parallel()

	w := &remoteWaker{address: "127.0.0.1:1", process: "fallguard-surface-that-does-not-exist"}

	err := w.Wake(context.Background(), surface.Entry{Kind: surface.EntryRedeliver})
	require.ErrorIs(t, err, errSurfaceNotRunning)
}

// TestExecutableName adds the extension on Windows only.
func TestExecutableName(t *testing.T) {
	t.Parallel()

	name := executableName("")
	if runtime.GOOS == "windows" {
		require.Equal(t, DefaultSurfaceProcess+".exe", name)
	} else {
		require.Equal(t, DefaultSurfaceProcess, name)
	}
}
