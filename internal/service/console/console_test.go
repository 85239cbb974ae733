package console

import (
	"bytes"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	api "github.com/oshokin/fall-guard/internal/api/grpc/fallguard"
	"github.com/oshokin/fall-guard/internal/chat"
	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
	"github.com/oshokin/fall-guard/internal/repository/store"
	"github.com/oshokin/fall-guard/internal/service/common"
	"github.com/oshokin/fall-guard/internal/service/surface"
)

type echoAsker struct{}

func (echoAsker) Ask(_ context.Context, _ []chat.Message, prompt string) (string, error) {
	return "echo: " + prompt, nil
}

// startConsole runs an in-memory surface behind a gRPC server and opens a
// console against it.
func startConsole(t *testing.T) (*Console, *surface.Surface, *bytes.Buffer) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())

	db, err := store.Open(store.Config{InMemory: true})
	require.NoError(t, err)

	svc := surface.New(surface.Dependencies{
		Mailbox:     mailbox.NewMemoryRepository(),
		Profiles:    store.NewCollection[health.Profile](db, "profile"),
		Medications: store.NewCollection[health.Medication](db, "medication"),
		Chat:        echoAsker{},
	})

	stopped := make(chan struct{})

	go func() {
		defer close(stopped)

		_ = svc.Run(ctx)
	}()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	api.RegisterSurfaceServer(server, api.NewServer(svc))

	go func() {
		_ = server.Serve(listener)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	settingsPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)
	require.NoError(t, config.Save(settingsPath, &config.Config{ServerAddress: "127.0.0.1:7070"}))

	out := new(bytes.Buffer)

	c, err := Open(ctx, &Options{
		ConfigPath:    settingsPath,
		Out:           out,
		ClientOptions: []common.Option{common.WithConn(conn)},
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = c.Close()
		server.Stop()
		cancel()
		<-stopped
		_ = db.Close()
	})

	return c, svc, out
}

// TestConsole_ConfirmFlow shows, confirms and re-confirms an alert.
func TestConsole_ConfirmFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, svc, out := startConsole(t)

	require.NoError(t, c.Confirm(ctx))
	require.Contains(t, out.String(), "no alert pending")

	require.NoError(t, svc.RaiseAlert(ctx, alert.NewFallDetected(time.Now(), &alert.Actor{Hostname: "hall", Username: "sensor"})))

	out.Reset()
	require.NoError(t, c.Status(ctx))
	require.Contains(t, out.String(), "screen: ALERT_CONFIRMATION")
	require.Contains(t, out.String(), "PENDING_CONFIRMATION")
	require.Contains(t, out.String(), "by sensor@hall")

	out.Reset()
	require.NoError(t, c.Dismiss(ctx))
	require.Contains(t, out.String(), "alert dismissed, now IDLE")
}

// TestConsole_Permission validates the answer and reports the record.
func TestConsole_Permission(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _, out := startConsole(t)

	require.ErrorIs(t, c.Permission(ctx, "audio", "maybe"), errUnknownAnswer)
	require.Error(t, c.Permission(ctx, "camera", "grant"))

	require.NoError(t, c.Permission(ctx, "audio", "grant"))
	require.Contains(t, out.String(), "permission AUDIO: GRANTED")
}

// TestConsole_Records edits the profile and medications.
func TestConsole_Records(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, _, out := startConsole(t)

	require.Error(t, c.ProfileGet(ctx))

	require.NoError(t, c.ProfileSet(ctx, health.Profile{Name: "Ann", Age: 81, EmergencyName: "Bob", EmergencyPhone: "112"}))
	require.Contains(t, out.String(), "emergency contact: Bob 112")

	require.NoError(t, c.MedicationList(ctx))
	require.Contains(t, out.String(), "no medications")

	require.NoError(t, c.MedicationAdd(ctx, health.Medication{ID: "m-1", Name: "Aspirin", Times: []string{"08:00"}}))
	require.NoError(t, c.MedicationRemove(ctx, "m-1"))
	require.Contains(t, out.String(), "removed m-1")

	out.Reset()
	require.NoError(t, c.Ask(ctx, "hello"))
	require.Equal(t, "echo: hello\n", out.String())
}

// TestConsole_Watch prints states until the context ends.
func TestConsole_Watch(t *testing.T) {
	t.Parallel()

	c, svc, _ := startConsole(t)

	ctx, cancel := context.WithCancel(context.Background())
	buffer := &syncBuffer{}
	c.out = buffer

	done := make(chan error, 1)

	go func() {
		done <- c.Watch(ctx)
	}()

	require.Eventually(t, func() bool { return buffer.Contains("IDLE") }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.RaiseAlert(context.Background(), alert.NewFallDetected(time.Now(), nil)))
	require.Eventually(t, func() bool { return buffer.Contains("PENDING_CONFIRMATION") }, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
