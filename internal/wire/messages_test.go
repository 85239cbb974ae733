package wire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
)

// TestState_ThroughStruct sends a pending state through the protobuf form.
func TestState_ThroughStruct(t *testing.T) {
	t.Parallel()

	raisedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	event := alert.NewFallDetected(raisedAt, &alert.Actor{Hostname: "phone", Username: "ann"})
	state := alert.State{
		Phase:     alert.PhasePending,
		AlertID:   "a-1",
		Event:     &event,
		ChangedAt: raisedAt.Add(time.Second),
	}

	encoded, err := Encode(FromState(state))
	require.NoError(t, err)
	require.Equal(t, "PENDING_CONFIRMATION", encoded.GetFields()["phase"].GetStringValue())

	var decoded State
	require.NoError(t, Decode(encoded, &decoded))

	got := decoded.Domain()
	require.Equal(t, alert.PhasePending, got.Phase)
	require.Equal(t, "a-1", got.AlertID)
	require.NotNil(t, got.Event)
	require.True(t, raisedAt.Equal(got.Event.RaisedAt))
	require.Equal(t, "ann@phone", got.Event.Source.String())
}

// TestEvent_DomainRejectsUnknownKind makes sure bad payloads never become events.
func TestEvent_DomainRejectsUnknownKind(t *testing.T) {
	t.Parallel()

	_, err := Event{Kind: "TRIP", RaisedAt: time.Now()}.Domain()
	require.ErrorIs(t, err, alert.ErrUnknownKind)

	_, err = Event{Kind: string(alert.KindFallDetected)}.Domain()
	require.ErrorIs(t, err, alert.ErrMissingTimestamp)
}

// TestFile_KeepsMedicationTimes checks that lists and integers survive the file form.
func TestFile_KeepsMedicationTimes(t *testing.T) {
	t.Parallel()

	in := Medications{Items: []health.Medication{{
		ID:    "m-1",
		Name:  "Metformin",
		Times: []string{"08:00", "20:00"},
	}}}

	data, err := MarshalFile(in)
	require.NoError(t, err)

	var out Medications
	require.NoError(t, UnmarshalFile(data, &out))
	require.Equal(t, in, out)
}

// TestDecode_Nil leaves the target untouched.
func TestDecode_Nil(t *testing.T) {
	t.Parallel()

	ack := Ack{Applied: true}
	require.NoError(t, Decode(nil, &ack))
	require.True(t, ack.Applied)
}
