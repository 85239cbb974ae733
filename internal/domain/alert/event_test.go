package alert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestActorClone verifies that Clone returns a deep copy and handles nil safely.
func TestActorClone(t *testing.T) {
	t.Parallel()
	require.Nil(t, (*Actor)(nil).Clone())

	a := &Actor{
		Hostname: "pixel-7",
		Username: "grandma",
	}

	b := a.Clone()

	require.Equal(t, a, b)
	require.NotSame(t, a, b)
	require.Equal(t, "grandma@pixel-7", b.String())
}

// TestEventValidate covers unknown kinds and missing timestamps.
func TestEventValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, NewFallDetected(time.Unix(100, 0), nil).Validate())

	err := Event{Kind: "SLIP", RaisedAt: time.Unix(100, 0)}.Validate()
	require.ErrorIs(t, err, ErrUnknownKind)

	err = Event{Kind: KindFallDetected}.Validate()
	require.ErrorIs(t, err, ErrMissingTimestamp)
}

// TestEventEquivalent checks that re-raised falls count as the same alert.
func TestEventEquivalent(t *testing.T) {
	t.Parallel()

	first := NewFallDetected(time.Unix(100, 0), nil)
	second := NewFallDetected(time.Unix(200, 0), &Actor{Hostname: "h", Username: "u"})

	require.True(t, first.Equivalent(second))
}

// TestStateClone ensures the event pointer and its source are copied.
func TestStateClone(t *testing.T) {
	t.Parallel()

	event := NewFallDetected(time.Unix(100, 0), &Actor{Hostname: "h", Username: "u"})
	s := State{
		Phase:   PhasePending,
		AlertID: "a-1",
		Event:   &event,
	}

	c := s.Clone()
	require.Equal(t, s, c)
	require.NotSame(t, s.Event, c.Event)
	require.NotSame(t, s.Event.Source, c.Event.Source)
}

// TestPhaseAndOutcomeNames checks wire names survive a parse.
func TestPhaseAndOutcomeNames(t *testing.T) {
	t.Parallel()

	for _, p := range []Phase{PhaseIdle, PhasePending, PhaseResolved} {
		require.Equal(t, p, ParsePhase(p.String()))
	}

	for _, o := range []Outcome{OutcomeNone, OutcomeConfirmed, OutcomeDismissed} {
		require.Equal(t, o, ParseOutcome(o.String()))
	}
}
