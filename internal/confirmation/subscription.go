package confirmation

import (
	"sync"
	"sync/atomic"

	"github.com/oshokin/fall-guard/internal/domain/alert"
)

// subscriptionBuffer is how many states an observer may lag behind.
const subscriptionBuffer = 16

// Subscription streams states to one observer.
type Subscription struct {
	machine *Machine
	ch      chan alert.State
	dropped atomic.Uint64
	once    sync.Once
}

func newSubscription(m *Machine) *Subscription {
	return &Subscription{
		machine: m,
		ch:      make(chan alert.State, subscriptionBuffer),
	}
}

// C returns the state stream. It is closed by Close.
func (s *Subscription) C() <-chan alert.State {
	return s.ch
}

// Dropped returns how many states were discarded because the observer lagged.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Close stops the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.machine.unsubscribe(s)
	})
}

// publish never blocks: when the buffer is full the oldest state is discarded.
// Called with the machine lock held, so there is a single publisher.
func (s *Subscription) publish(state alert.State) {
	for {
		select {
		case s.ch <- state:
			return
		default:
		}

		select {
		case <-s.ch:
			s.dropped.Add(1)
		default:
		}
	}
}
