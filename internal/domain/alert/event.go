package alert

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the type of signal carried by an Event.
type Kind string

// KindFallDetected is the only signal the detector produces.
const KindFallDetected Kind = "FALL_DETECTED"

var (
	// ErrUnknownKind is returned when an event carries an unsupported kind.
	ErrUnknownKind = errors.New("unknown alert kind")
	// ErrMissingTimestamp is returned when an event has no raise time.
	ErrMissingTimestamp = errors.New("alert raise time is required")
)

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	if Kind(s) == KindFallDetected {
		return KindFallDetected, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Actor identifies the machine and user that raised an alert.
type Actor struct {
	// Hostname is the machine name where the detector runs.
	Hostname string
	// Username is the system user the detector runs as.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as username@hostname.
func (a *Actor) String() string {
	if a == nil {
		return "<unknown>"
	}

	return a.Username + "@" + a.Hostname
}

// Event is the signal raised by the detector. Treat it as a value: once
// raised it is never mutated, only replaced.
type Event struct {
	// Kind is the signal type.
	Kind Kind
	// RaisedAt is when the detector observed the fall.
	RaisedAt time.Time
	// Source is the detector host, optional.
	Source *Actor
}

// NewFallDetected builds a fall event raised at the given time.
func NewFallDetected(raisedAt time.Time, source *Actor) Event {
	return Event{
		Kind:     KindFallDetected,
		RaisedAt: raisedAt,
		Source:   source.Clone(),
	}
}

// Validate checks that the event can be delivered.
func (e Event) Validate() error {
	if _, err := ParseKind(string(e.Kind)); err != nil {
		return err
	}

	if e.RaisedAt.IsZero() {
		return ErrMissingTimestamp
	}

	return nil
}

// Equivalent reports whether two events describe the same logical alert.
// Only one alert kind can be in flight, so the kind alone decides.
func (e Event) Equivalent(other Event) bool {
	return e.Kind == other.Kind
}

// Clone returns a copy that shares no pointers with the receiver.
func (e Event) Clone() Event {
	e.Source = e.Source.Clone()

	return e
}
