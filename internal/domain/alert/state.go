package alert

import "time"

// Phase is the lifecycle step of the confirmation state machine.
type Phase int

const (
	// PhaseIdle means no alert is active.
	PhaseIdle Phase = iota
	// PhasePending means an alert was delivered and awaits the user.
	PhasePending
	// PhaseResolved means the user (or the timeout) decided; the machine
	// returns to PhaseIdle right after.
	PhaseResolved
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "IDLE"
	case PhasePending:
		return "PENDING_CONFIRMATION"
	case PhaseResolved:
		return "RESOLVED"
	default:
		return "UNKNOWN"
	}
}

// ParsePhase converts a wire name into a Phase. Unknown names map to PhaseIdle.
func ParsePhase(s string) Phase {
	switch s {
	case "PENDING_CONFIRMATION":
		return PhasePending
	case "RESOLVED":
		return PhaseResolved
	default:
		return PhaseIdle
	}
}

// Outcome is the decision that resolved an alert.
type Outcome int

const (
	// OutcomeNone is used while the alert is not resolved.
	OutcomeNone Outcome = iota
	// OutcomeConfirmed means the user asked for help.
	OutcomeConfirmed
	// OutcomeDismissed means the user (or the timeout) cancelled the alert.
	OutcomeDismissed
)

// String returns the wire name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "CONFIRMED"
	case OutcomeDismissed:
		return "DISMISSED"
	default:
		return ""
	}
}

// ParseOutcome converts a wire name into an Outcome.
func ParseOutcome(s string) Outcome {
	switch s {
	case "CONFIRMED":
		return OutcomeConfirmed
	case "DISMISSED":
		return OutcomeDismissed
	default:
		return OutcomeNone
	}
}

// Reasons recorded on a resolved state.
const (
	ReasonUser    = "user"
	ReasonTimeout = "timeout"
)

// State is a snapshot of the confirmation state machine.
type State struct {
	// Phase is the current lifecycle step.
	Phase Phase
	// AlertID identifies the alert in flight, empty when idle.
	AlertID string
	// Event is the alert in flight, nil when idle.
	Event *Event
	// Outcome is set only in PhaseResolved.
	Outcome Outcome
	// Reason tells who resolved the alert.
	Reason string
	// ChangedAt is when the machine entered this state.
	ChangedAt time.Time
}

// IsIdle reports whether no alert is active.
func (s State) IsIdle() bool {
	return s.Phase == PhaseIdle
}

// Clone returns a copy that shares no pointers with the receiver.
func (s State) Clone() State {
	if s.Event != nil {
		event := s.Event.Clone()
		s.Event = &event
	}

	return s
}
