package emergency

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/repository/store"
)

type profileStub struct {
	profile health.Profile
	err     error
}

func (s profileStub) Get(context.Context, string) (health.Profile, error) {
	return s.profile, s.err
}

var fall = alert.NewFallDetected(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), nil)

// TestInitiateContact_RunsCommandWithPhone appends the phone to the hook.
func TestInitiateContact_RunsCommandWithPhone(t *testing.T) {
	t.Parallel()

	var started *exec.Cmd

	d := NewDialer(profileStub{profile: health.Profile{
		ID:             health.SelfProfileID,
		EmergencyName:  "Bob",
		EmergencyPhone: "+15550100",
	}}, "notify-send --urgency=critical")
	d.start = func(cmd *exec.Cmd) error {
		started = cmd

		return nil
	}

	require.NoError(t, d.InitiateContact(context.Background(), fall))
	require.NotNil(t, started)
	require.Equal(t, []string{"notify-send", "--urgency=critical", "+15550100"}, started.Args)
	require.Contains(t, started.Env, PhoneEnv+"=+15550100")
	require.Contains(t, started.Env, NameEnv+"=Bob")
	require.Contains(t, started.Env, AlertEnv+"=2026-01-02T03:04:05Z")
}

// TestInitiateContact_NoCommandOnlyLogs succeeds without starting anything.
func TestInitiateContact_NoCommandOnlyLogs(t *testing.T) {
	t.Parallel()

	d := NewDialer(profileStub{profile: health.Profile{EmergencyPhone: "112"}}, "")
	d.start = func(*exec.Cmd) error {
		t.Fatal("nothing must be started")

		return nil
	}

	require.NoError(t, d.InitiateContact(context.Background(), fall))
}

// TestInitiateContact_NoContact reports a missing profile or phone.
func TestInitiateContact_NoContact(t *testing.T) {
	t.Parallel()

	err := NewDialer(profileStub{err: store.ErrNotFound}, "dial").InitiateContact(context.Background(), fall)
	require.ErrorIs(t, err, ErrNoContact)

	err = NewDialer(profileStub{profile: health.Profile{Name: "Ann"}}, "dial").InitiateContact(context.Background(), fall)
	require.ErrorIs(t, err, ErrNoContact)
}

// TestInitiateContact_StoreAndStartFailures are reported to the caller.
func TestInitiateContact_StoreAndStartFailures(t *testing.T) {
	t.Parallel()

	storeErr := errors.Join(store.ErrStore, errors.New("disk gone"))
	err := NewDialer(profileStub{err: storeErr}, "dial").InitiateContact(context.Background(), fall)
	require.ErrorIs(t, err, store.ErrStore)

	boom := errors.New("exec format error")
	d := NewDialer(profileStub{profile: health.Profile{EmergencyPhone: "112"}}, "dial")
	d.start = func(*exec.Cmd) error { return boom }

	require.ErrorIs(t, d.InitiateContact(context.Background(), fall), boom)
}
