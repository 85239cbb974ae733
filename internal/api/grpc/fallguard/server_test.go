package fallguard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/fall-guard/internal/channel"
	"github.com/oshokin/fall-guard/internal/chat"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/repository/store"
	surfacesvc "github.com/oshokin/fall-guard/internal/service/surface"
	"github.com/oshokin/fall-guard/internal/wire"
)

// fakeService records calls and returns canned answers.
type fakeService struct {
	raised   []alert.Event
	entries  []surface.Entry
	state    alert.State
	askErr   error
	storeErr error
	reported map[permission.Kind]bool
}

func (f *fakeService) RaiseAlert(_ context.Context, event alert.Event) error {
	f.raised = append(f.raised, event)
	f.state = alert.State{Phase: alert.PhasePending, Event: &event}

	return nil
}

func (f *fakeService) Enter(_ context.Context, entry surface.Entry) (surface.Destination, error) {
	f.entries = append(f.entries, entry)

	return surface.DestinationDashboard, nil
}

func (f *fakeService) Snapshot() surfacesvc.Snapshot {
	destination := surface.DestinationDashboard
	if !f.state.IsIdle() {
		destination = surface.DestinationAlertConfirmation
	}

	return surfacesvc.Snapshot{Destination: destination, State: f.state}
}

func (f *fakeService) Confirm(context.Context) (bool, alert.State) {
	applied := f.state.Phase == alert.PhasePending
	f.state = alert.State{Phase: alert.PhaseIdle}

	return applied, f.state
}

func (f *fakeService) Dismiss(ctx context.Context) (bool, alert.State) { return f.Confirm(ctx) }

func (f *fakeService) Watch(ctx context.Context) <-chan alert.State {
	out := make(chan alert.State, 2)
	out <- alert.State{Phase: alert.PhaseIdle}
	out <- alert.State{Phase: alert.PhasePending, AlertID: "a-1"}

	go func() {
		<-ctx.Done()
		close(out)
	}()

	return out
}

func (f *fakeService) ReportPermission(_ context.Context, kind permission.Kind, granted bool) error {
	if f.reported == nil {
		f.reported = make(map[permission.Kind]bool)
	}

	f.reported[kind] = granted

	return nil
}

func (f *fakeService) GetProfile(context.Context) (health.Profile, error) {
	return health.Profile{}, store.ErrNotFound
}

func (f *fakeService) PutProfile(_ context.Context, p health.Profile) (health.Profile, error) {
	if f.storeErr != nil {
		return health.Profile{}, f.storeErr
	}

	p.ID = health.SelfProfileID

	return p, nil
}

func (f *fakeService) ListMedications(context.Context) ([]health.Medication, error) {
	return []health.Medication{{ID: "m-1", Name: "Aspirin", Times: []string{"08:00", "20:00"}}}, nil
}

func (f *fakeService) PutMedication(_ context.Context, m health.Medication) (health.Medication, error) {
	return m, nil
}

func (f *fakeService) DeleteMedication(context.Context, string) error { return f.storeErr }

func (f *fakeService) Ask(_ context.Context, _ []chat.Message, prompt string) (string, error) {
	return "re: " + prompt, f.askErr
}

func mustEncode(t *testing.T, message any) *structpb.Struct {
	t.Helper()

	result, err := wire.Encode(message)
	require.NoError(t, err)

	return result
}

// TestServer_RaiseAlert_Validation rejects malformed alerts.
func TestServer_RaiseAlert_Validation(t *testing.T) {
	t.Parallel()

	s := NewServer(new(fakeService))

	_, err := s.RaiseAlert(context.Background(), mustEncode(t, wire.Event{Kind: "SMOKE", RaisedAt: time.Now()}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.RaiseAlert(context.Background(), mustEncode(t, wire.Event{Kind: "FALL_DETECTED"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_RaiseThenConfirm routes the alert and acknowledges the confirmation.
func TestServer_RaiseThenConfirm(t *testing.T) {
	t.Parallel()

	service := new(fakeService)
	s := NewServer(service)

	out, err := s.RaiseAlert(context.Background(), mustEncode(t, wire.FromEvent(alert.NewFallDetected(time.Now(), nil))))
	require.NoError(t, err)

	var route wire.Route
	require.NoError(t, wire.Decode(out, &route))
	require.Equal(t, "ALERT_CONFIRMATION", route.Destination)
	require.Len(t, service.raised, 1)

	out, err = s.Confirm(context.Background(), nil)
	require.NoError(t, err)

	var ack wire.Ack
	require.NoError(t, wire.Decode(out, &ack))
	require.True(t, ack.Applied)
	require.Equal(t, "IDLE", ack.State.Phase)
}

// TestServer_WakeDefaultsToRedeliver treats an empty entry as a redelivery.
func TestServer_WakeDefaultsToRedeliver(t *testing.T) {
	t.Parallel()

	service := new(fakeService)

	_, err := NewServer(service).Wake(context.Background(), mustEncode(t, wire.Entry{ShowFallConfirmation: true}))
	require.NoError(t, err)
	require.Equal(t, surface.EntryRedeliver, service.entries[0].Kind)
	require.True(t, service.entries[0].ShowFallConfirmation)
}

// TestServer_ReportPermission parses the kind.
func TestServer_ReportPermission(t *testing.T) {
	t.Parallel()

	service := new(fakeService)
	s := NewServer(service)

	_, err := s.ReportPermission(context.Background(), mustEncode(t, wire.PermissionReport{Kind: "audio", Granted: true}))
	require.NoError(t, err)
	require.True(t, service.reported[permission.KindAudio])

	_, err = s.ReportPermission(context.Background(), mustEncode(t, wire.PermissionReport{Kind: "camera"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Records maps store outcomes to codes.
func TestServer_Records(t *testing.T) {
	t.Parallel()

	service := new(fakeService)
	s := NewServer(service)

	_, err := s.GetProfile(context.Background(), nil)
	require.Equal(t, codes.NotFound, status.Code(err))

	service.storeErr = fmt.Errorf("%w: disk full", store.ErrStore)

	_, err = s.PutProfile(context.Background(), mustEncode(t, health.Profile{Name: "Ann", EmergencyPhone: "112"}))
	require.Equal(t, codes.Internal, status.Code(err))

	_, err = s.DeleteMedication(context.Background(), mustEncode(t, wire.RecordID{}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	out, err := s.ListMedications(context.Background(), nil)
	require.NoError(t, err)

	var medications wire.Medications
	require.NoError(t, wire.Decode(out, &medications))
	require.Equal(t, []string{"08:00", "20:00"}, medications.Items[0].Times)
}

// TestToStatus covers the error taxonomy.
func TestToStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cases := map[error]codes.Code{
		alert.ErrUnknownKind:                             codes.InvalidArgument,
		fmt.Errorf("x: %w", surfacesvc.ErrInvalidRecord): codes.InvalidArgument,
		store.ErrNotFound:                                codes.NotFound,
		fmt.Errorf("%w: io", store.ErrStore):             codes.Internal,
		fmt.Errorf("%w: 401", chat.ErrAuth):              codes.Unauthenticated,
		fmt.Errorf("%w: dial", chat.ErrNetwork):          codes.Unavailable,
		channel.ErrDeliveryDropped:                       codes.Unavailable,
		context.DeadlineExceeded:                         codes.DeadlineExceeded,
		errors.New("boom"):                               codes.Internal,
	}

	for err, want := range cases {
		require.Equal(t, want, status.Code(toStatus(ctx, err)), err.Error())
	}
}

// TestServiceDesc_OverGRPC calls a unary method and the stream through a real server.
func TestServiceDesc_OverGRPC(t *testing.T) {
	t.Parallel()

	listener := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	RegisterSurfaceServer(server, NewServer(new(fakeService)))

	go func() {
		_ = server.Serve(listener)
	}()

	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, FullMethod(MethodAsk), mustEncode(t, wire.Question{Prompt: "hi"}), out))

	var answer wire.Answer
	require.NoError(t, wire.Decode(out, &answer))
	require.Equal(t, "re: hi", answer.Content)

	stream, err := conn.NewStream(ctx, WatchStateStream(), FullMethod(MethodWatchState))
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(mustEncode(t, wire.Empty{})))
	require.NoError(t, stream.CloseSend())

	for _, phase := range []string{"IDLE", "PENDING_CONFIRMATION"} {
		message := new(structpb.Struct)
		require.NoError(t, stream.RecvMsg(message))

		var state wire.State
		require.NoError(t, wire.Decode(message, &state))
		require.Equal(t, phase, state.Phase)
	}
}
