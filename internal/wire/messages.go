package wire

import (
	"time"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/domain/surface"
)

// Empty is the message of calls without arguments or results.
type Empty struct{}

// Actor identifies the host and user that raised an alert.
type Actor struct {
	Hostname string `json:"hostname"`
	Username string `json:"username"`
}

// Event carries an alert.Event.
type Event struct {
	Kind     string    `json:"kind"`
	RaisedAt time.Time `json:"raised_at"`
	Source   *Actor    `json:"source,omitempty"`
}

// State carries an alert.State.
type State struct {
	Phase     string    `json:"phase"`
	AlertID   string    `json:"alert_id,omitempty"`
	Event     *Event    `json:"event,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// Entry carries a surface.Entry.
type Entry struct {
	Kind                 string `json:"kind"`
	ShowFallConfirmation bool   `json:"show_fall_confirmation"`
}

// Route is the answer to an entry.
type Route struct {
	Destination string `json:"destination"`
}

// Ack reports whether a user action changed the state.
type Ack struct {
	Applied bool  `json:"applied"`
	State   State `json:"state"`
}

// PermissionReport is the OS answer for a permission request.
type PermissionReport struct {
	Kind    string `json:"kind"`
	Granted bool   `json:"granted"`
}

// PermissionRecord carries a permission.Record.
type PermissionRecord struct {
	Kind      string `json:"kind"`
	Requested bool   `json:"requested"`
	Granted   string `json:"granted"`
}

// Snapshot is everything the surface currently shows.
type Snapshot struct {
	Destination   string             `json:"destination"`
	State         State              `json:"state"`
	Permissions   []PermissionRecord `json:"permissions"`
	Notices       []string           `json:"notices"`
	VoiceCommands bool               `json:"voice_commands"`
	Medications   int                `json:"medications"`
	HasProfile    bool               `json:"has_profile"`
}

// RecordID addresses a stored record.
type RecordID struct {
	ID string `json:"id"`
}

// Medications is a list of medication records.
type Medications struct {
	Items []health.Medication `json:"items"`
}

// ChatMessage is one turn of a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Question is a chat request.
type Question struct {
	History []ChatMessage `json:"history,omitempty"`
	Prompt  string        `json:"prompt"`
}

// Answer is a chat response.
type Answer struct {
	Content string `json:"content"`
}

// FromEvent converts a domain event.
func FromEvent(event alert.Event) Event {
	result := Event{
		Kind:     string(event.Kind),
		RaisedAt: event.RaisedAt,
	}

	if event.Source != nil {
		result.Source = &Actor{
			Hostname: event.Source.Hostname,
			Username: event.Source.Username,
		}
	}

	return result
}

// Domain converts the message into a validated domain event.
func (e Event) Domain() (alert.Event, error) {
	kind, err := alert.ParseKind(e.Kind)
	if err != nil {
		return alert.Event{}, err
	}

	result := alert.Event{
		Kind:     kind,
		RaisedAt: e.RaisedAt,
	}

	if e.Source != nil {
		result.Source = &alert.Actor{
			Hostname: e.Source.Hostname,
			Username: e.Source.Username,
		}
	}

	if err = result.Validate(); err != nil {
		return alert.Event{}, err
	}

	return result, nil
}

// FromState converts a domain state.
func FromState(state alert.State) State {
	result := State{
		Phase:     state.Phase.String(),
		AlertID:   state.AlertID,
		Outcome:   state.Outcome.String(),
		Reason:    state.Reason,
		ChangedAt: state.ChangedAt,
	}

	if state.Event != nil {
		event := FromEvent(*state.Event)
		result.Event = &event
	}

	return result
}

// Domain converts the message back into a domain state.
// An event that fails validation is dropped from the result.
func (s State) Domain() alert.State {
	result := alert.State{
		Phase:     alert.ParsePhase(s.Phase),
		AlertID:   s.AlertID,
		Outcome:   alert.ParseOutcome(s.Outcome),
		Reason:    s.Reason,
		ChangedAt: s.ChangedAt,
	}

	if s.Event != nil {
		if event, err := s.Event.Domain(); err == nil {
			result.Event = &event
		}
	}

	return result
}

// FromEntry converts a surface entry.
func FromEntry(entry surface.Entry) Entry {
	return Entry{
		Kind:                 entry.Kind.String(),
		ShowFallConfirmation: entry.ShowFallConfirmation,
	}
}

// Domain converts the message into a surface entry.
func (e Entry) Domain() surface.Entry {
	return surface.Entry{
		Kind:                 surface.ParseEntryKind(e.Kind),
		ShowFallConfirmation: e.ShowFallConfirmation,
	}
}

// FromRecords converts permission records.
func FromRecords(records []permission.Record) []PermissionRecord {
	result := make([]PermissionRecord, 0, len(records))
	for _, record := range records {
		result = append(result, PermissionRecord{
			Kind:      string(record.Kind),
			Requested: record.Requested,
			Granted:   record.Granted.String(),
		})
	}

	return result
}
