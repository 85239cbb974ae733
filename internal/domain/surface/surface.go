// Package surface describes how the user-facing surface is entered and what
// it currently shows.
package surface

// EntryKind tells how the surface was entered.
type EntryKind int

const (
	// EntryColdStart is the first entry of a fresh process.
	EntryColdStart EntryKind = iota
	// EntryResume is a return from background.
	EntryResume
	// EntryRedeliver is an entry signal delivered to an already running surface.
	EntryRedeliver
)

// String returns the wire name of the entry kind.
func (k EntryKind) String() string {
	switch k {
	case EntryResume:
		return "RESUME"
	case EntryRedeliver:
		return "REDELIVER"
	default:
		return "COLD_START"
	}
}

// ParseEntryKind converts a wire name into an EntryKind.
func ParseEntryKind(s string) EntryKind {
	switch s {
	case "RESUME":
		return EntryResume
	case "REDELIVER":
		return EntryRedeliver
	default:
		return EntryColdStart
	}
}

// Entry is the payload that accompanies every entry into the surface.
type Entry struct {
	// Kind tells how the surface was entered.
	Kind EntryKind
	// ShowFallConfirmation is set by the alert channel when it wakes the surface.
	ShowFallConfirmation bool
}

// Destination is the screen the surface shows after routing.
type Destination int

const (
	// DestinationSplash is shown when the startup state cannot be determined.
	DestinationSplash Destination = iota
	// DestinationOnboarding is shown on first run.
	DestinationOnboarding
	// DestinationDashboard is the normal home screen.
	DestinationDashboard
	// DestinationAlertConfirmation asks the user to confirm a fall.
	DestinationAlertConfirmation
)

// String returns the wire name of the destination.
func (d Destination) String() string {
	switch d {
	case DestinationOnboarding:
		return "ONBOARDING"
	case DestinationDashboard:
		return "DASHBOARD"
	case DestinationAlertConfirmation:
		return "ALERT_CONFIRMATION"
	default:
		return "SPLASH"
	}
}

// ParseDestination converts a wire name into a Destination.
func ParseDestination(s string) Destination {
	switch s {
	case "ONBOARDING":
		return DestinationOnboarding
	case "DASHBOARD":
		return DestinationDashboard
	case "ALERT_CONFIRMATION":
		return DestinationAlertConfirmation
	default:
		return DestinationSplash
	}
}
