package channel

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/metrics"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
)

// Waker signals the surface that a new alert is waiting.
type Waker interface {
	Wake(ctx context.Context, entry surface.Entry) error
}

// WakerFunc adapts a function to the Waker interface.
type WakerFunc func(ctx context.Context, entry surface.Entry) error

// Wake calls f.
func (f WakerFunc) Wake(ctx context.Context, entry surface.Entry) error {
	return f(ctx, entry)
}

// ErrDeliveryDropped is returned when a raised alert could not be stored.
// The alert is lost; the channel never retries.
var ErrDeliveryDropped = errors.New("alert delivery dropped")

// Channel is the alert hand-off between the detector and the surface.
type Channel struct {
	// slot holds at most one pending alert.
	slot mailbox.Repository
	// waker nudges the surface after a raise, optional.
	waker Waker
}

// New creates a channel over the mailbox. waker may be nil.
func New(slot mailbox.Repository, waker Waker) *Channel {
	return &Channel{
		slot:  slot,
		waker: waker,
	}
}

// Raise stores the event and wakes the surface.
//
// A second raise before consumption overwrites the payload; the surface
// still sees a single alert. A failed wake is not an error: the alert stays
// in the mailbox for the next entry.
func (c *Channel) Raise(ctx context.Context, event alert.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("raise alert: %w", err)
	}

	replaced, err := c.slot.Put(ctx, event)
	if err != nil {
		metrics.DeliveriesDropped.Inc()
		logger.ErrorKV(ctx, "Alert delivery dropped", "kind", event.Kind, "raised_at", event.RaisedAt, "error", err)

		return fmt.Errorf("%w: %w", ErrDeliveryDropped, err)
	}

	metrics.AlertsRaised.Inc()

	if replaced {
		metrics.AlertsReinforced.Inc()
		logger.InfoKV(ctx, "Alert reinforced unconsumed alert", "kind", event.Kind, "raised_at", event.RaisedAt)
	} else {
		logger.InfoKV(ctx, "Alert raised", "kind", event.Kind, "raised_at", event.RaisedAt, "source", event.Source)
	}

	if c.waker == nil {
		return nil
	}

	entry := surface.Entry{
		Kind:                 surface.EntryRedeliver,
		ShowFallConfirmation: true,
	}

	if err = c.waker.Wake(ctx, entry); err != nil {
		logger.WarnKV(ctx, "Surface not woken, alert kept for next entry", "error", err)
	}

	return nil
}

// DeliverOnNextEntry returns the pending alert and clears the mailbox.
// It returns nil when no alert is pending. An unreadable payload is
// consumed, logged and reported as an error.
func (c *Channel) DeliverOnNextEntry(ctx context.Context) (*alert.Event, error) {
	event, err := c.slot.Take(ctx)
	switch {
	case err == nil:
		return &event, nil
	case errors.Is(err, mailbox.ErrEmpty):
		return nil, nil //nolint:nilnil // No pending alert is a normal outcome.
	default:
		logger.ErrorKV(ctx, "Unable to read pending alert", "error", err)

		return nil, fmt.Errorf("deliver alert: %w", err)
	}
}
