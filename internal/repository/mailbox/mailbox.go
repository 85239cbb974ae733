package mailbox

import (
	"context"
	"errors"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// Repository is a mailbox holding at most one alert.
type Repository interface {
	// Put stores the event, overwriting any unconsumed one.
	// replaced reports whether an unconsumed event was overwritten.
	Put(ctx context.Context, event alert.Event) (replaced bool, err error)
	// Take returns the stored event and clears the slot.
	// It returns ErrEmpty when nothing is stored.
	Take(ctx context.Context) (alert.Event, error)
}

// ErrEmpty is returned by Take when the slot holds no event.
var ErrEmpty = errors.New("mailbox is empty")
