package integration

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/service/common"
	"github.com/oshokin/fall-guard/internal/service/server"
	"github.com/oshokin/fall-guard/internal/wire"
)

// environment is one surface installation: settings, mailbox and address.
type environment struct {
	settingsPath string
	mailboxPath  string
	address      string
}

// newEnvironment writes a settings file pointing at a free port.
func newEnvironment(t *testing.T) *environment {
	t.Helper()

	dir := t.TempDir()
	env := &environment{
		settingsPath: filepath.Join(dir, config.DefaultConfigFilename),
		mailboxPath:  filepath.Join(dir, config.DefaultMailboxFilename),
		address:      reservePort(t),
	}

	require.NoError(t, config.Save(env.settingsPath, &config.Config{
		ServerAddress: env.address,
		MailboxFile:   env.mailboxPath,
		Timeout:       2 * time.Second,
	}))

	return env
}

// startSurface runs fallguard-server for env until the test ends and waits
// until it answers.
func startSurface(t *testing.T, env *environment) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", env.address)
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- server.Run(ctx, &server.Options{
			ConfigPath:    env.settingsPath,
			Listener:      listener,
			InMemoryStore: true,
		})
	}()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	client := dial(t, env)

	require.Eventually(t, func() bool {
		_, err := client.SurfaceState(context.Background())

		return err == nil
	}, 5*time.Second, 20*time.Millisecond)
}

// dial connects a client to env's surface.
func dial(t *testing.T, env *environment) *common.Client {
	t.Helper()

	client, err := common.Dial(context.Background(), env.address, common.WithCallTimeout(2*time.Second))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

// waitForScreen waits until the surface shows destination.
func waitForScreen(t *testing.T, client *common.Client, destination string) wire.Snapshot {
	t.Helper()

	var snapshot wire.Snapshot

	require.Eventually(t, func() bool {
		var err error

		snapshot, err = client.SurfaceState(context.Background())

		return err == nil && snapshot.Destination == destination
	}, 5*time.Second, 20*time.Millisecond)

	return snapshot
}

// reservePort returns address on a free TCP port and closes it.
func reservePort(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	_ = l.Close()

	return addr
}

// TestGRPC_RecordsRoundtrip stores and reads records through the real server.
func TestGRPC_RecordsRoundtrip(t *testing.T) {
	t.Parallel()

	env := newEnvironment(t)
	startSurface(t, env)

	ctx := context.Background()
	client := dial(t, env)

	waitForScreen(t, client, "ONBOARDING")

	_, err := client.PutProfile(ctx, wireProfile())
	require.NoError(t, err)

	medication, err := client.PutMedication(ctx, wireMedication())
	require.NoError(t, err)
	require.NotEmpty(t, medication.ID)

	items, err := client.ListMedications(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, []string{"08:00", "20:00"}, items[0].Times)

	require.Eventually(t, func() bool {
		snapshot, err := client.SurfaceState(ctx)

		return err == nil && snapshot.HasProfile && snapshot.Medications == 1
	}, 5*time.Second, 20*time.Millisecond)
}
