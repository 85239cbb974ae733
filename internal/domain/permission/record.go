package permission

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is an OS-level permission that gates an optional subsystem.
type Kind string

const (
	// KindNotifications gates alert notifications.
	KindNotifications Kind = "NOTIFICATIONS"
	// KindAudio gates the voice-command subsystem.
	KindAudio Kind = "AUDIO"
	// KindCallPhone gates emergency calling.
	KindCallPhone Kind = "CALL_PHONE"
)

// ErrUnknownKind is returned for permission kinds the gate does not manage.
var ErrUnknownKind = errors.New("unknown permission kind")

// Kinds returns every managed kind in request order.
func Kinds() []Kind {
	return []Kind{KindNotifications, KindAudio, KindCallPhone}
}

// ParseKind converts user or wire input into a Kind.
func ParseKind(s string) (Kind, error) {
	kind := Kind(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Kinds() {
		if kind == known {
			return kind, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Grant is the OS answer for a permission.
type Grant int

const (
	// GrantUnknown means the OS has not been asked yet or has not answered.
	GrantUnknown Grant = iota
	// GrantGranted means the user allowed the permission.
	GrantGranted
	// GrantDenied means the user refused the permission.
	GrantDenied
)

// String returns the wire name of the grant.
func (g Grant) String() string {
	switch g {
	case GrantGranted:
		return "GRANTED"
	case GrantDenied:
		return "DENIED"
	default:
		return "UNKNOWN"
	}
}

// ParseGrant converts a wire name into a Grant.
func ParseGrant(s string) Grant {
	switch s {
	case "GRANTED":
		return GrantGranted
	case "DENIED":
		return GrantDenied
	default:
		return GrantUnknown
	}
}

// Status is the answer of the gate to an ensure call.
type Status int

const (
	// StatusRequested means a request was issued and the answer is pending.
	StatusRequested Status = iota
	// StatusGranted means the dependent subsystem may run.
	StatusGranted
	// StatusDenied means the dependent subsystem stays disabled.
	StatusDenied
)

// String returns a readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusGranted:
		return "granted"
	case StatusDenied:
		return "denied"
	default:
		return "requested"
	}
}

// Record tracks one permission kind for the lifetime of the process.
type Record struct {
	// Kind is the permission this record describes.
	Kind Kind
	// Requested is set once a request was issued to the OS.
	Requested bool
	// Granted is the last known OS answer.
	Granted Grant
}
