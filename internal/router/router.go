// Package router decides where the surface lands on every entry.
//
// The same Route call serves cold starts, resumes and redeliveries to a
// running surface: it consumes the pending alert, if any, and updates the
// current destination in place.
package router

import (
	"context"

	"github.com/oshokin/fall-guard/internal/confirmation"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/surface"
)

// Mailbox yields the alert waiting for the next entry.
type Mailbox interface {
	DeliverOnNextEntry(ctx context.Context) (*alert.Event, error)
}

// AlertSink receives routed alerts.
type AlertSink interface {
	Deliver(ctx context.Context, event alert.Event) confirmation.Delivery
	Pending() bool
}

// DefaultResolver picks the destination of a normal entry.
type DefaultResolver func(ctx context.Context) surface.Destination
