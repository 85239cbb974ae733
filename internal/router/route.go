package router

import (
	"context"
	"sync"

	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/logger"
)

// Router holds the routing state of the one surface instance.
type Router struct {
	// mu serializes entries.
	mu sync.Mutex
	// current is the destination shown right now.
	current surface.Destination
	// entries counts handled entry signals.
	entries uint64

	mailbox Mailbox
	sink    AlertSink
	resolve DefaultResolver
}

// New creates a router showing the splash until the first entry.
func New(mailbox Mailbox, sink AlertSink, resolve DefaultResolver) *Router {
	if resolve == nil {
		resolve = func(context.Context) surface.Destination { return surface.DestinationDashboard }
	}

	return &Router{
		current: surface.DestinationSplash,
		mailbox: mailbox,
		sink:    sink,
		resolve: resolve,
	}
}

// Route handles an entry signal and returns the destination to show.
func (r *Router) Route(ctx context.Context, entry surface.Entry) surface.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries++
	ctx = logger.WithFields(ctx, "entry", entry.Kind.String(), "show_fall_confirmation", entry.ShowFallConfirmation)

	event, err := r.mailbox.DeliverOnNextEntry(ctx)
	if err != nil {
		logger.WarnKV(ctx, "Pending alert unreadable, routing normally", "error", err)
	}

	switch {
	case event != nil:
		r.current = surface.DestinationAlertConfirmation
		delivery := r.sink.Deliver(ctx, *event)

		logger.InfoKV(ctx, "Entry routed to alert confirmation", "raised_at", event.RaisedAt, "delivery", delivery.String())
	case r.sink.Pending():
		// An unresolved alert keeps the confirmation screen across resumes.
		r.current = surface.DestinationAlertConfirmation

		logger.DebugKV(ctx, "Entry kept on alert confirmation")
	default:
		r.current = r.resolve(ctx)

		if entry.ShowFallConfirmation {
			logger.InfoKV(ctx, "Entry asked for confirmation but no alert was pending", "destination", r.current.String())
		} else {
			logger.DebugKV(ctx, "Entry routed", "destination", r.current.String())
		}
	}

	return r.current
}

// Release leaves the confirmation screen once no alert is in flight.
func (r *Router) Release(ctx context.Context) surface.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == surface.DestinationAlertConfirmation && !r.sink.Pending() {
		r.current = r.resolve(ctx)
		logger.InfoKV(ctx, "Alert confirmation closed", "destination", r.current.String())
	}

	return r.current
}

// Current returns the destination shown right now.
func (r *Router) Current() surface.Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.current
}

// Entries returns how many entry signals were routed.
func (r *Router) Entries() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.entries
}
