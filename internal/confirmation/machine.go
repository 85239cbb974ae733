package confirmation

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/metrics"
)

// Emergency initiates contact with the user's emergency contact.
type Emergency interface {
	InitiateContact(ctx context.Context, event alert.Event) error
}

// Delivery is the answer of the machine to a delivered alert.
type Delivery int

const (
	// DeliveryAccepted means the machine entered PendingConfirmation.
	DeliveryAccepted Delivery = iota
	// DeliveryDuplicateSuppressed means an equivalent alert was already pending.
	DeliveryDuplicateSuppressed
	// DeliveryQueued means the previous alert is resolving; the new one
	// becomes pending right after.
	DeliveryQueued
)

// String returns a readable name of the delivery result.
func (d Delivery) String() string {
	switch d {
	case DeliveryDuplicateSuppressed:
		return "duplicate_suppressed"
	case DeliveryQueued:
		return "queued"
	default:
		return "accepted"
	}
}

// Option configures a Machine.
type Option func(*Machine)

// WithTimeout dismisses a pending alert after d. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(m *Machine) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock replaces time.Now, used for ChangedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) {
		if now != nil {
			m.now = now
		}
	}
}

// WithContext sets the context used by timeout-driven transitions,
// so that they log through the owner's logger.
func WithContext(ctx context.Context) Option {
	return func(m *Machine) {
		if ctx != nil {
			m.baseCtx = context.WithoutCancel(ctx)
		}
	}
}

// WithScheduler runs timeout-driven transitions through schedule instead of
// the timer goroutine.
func WithScheduler(schedule func(task func())) Option {
	return func(m *Machine) {
		if schedule != nil {
			m.schedule = schedule
		}
	}
}

// Machine is the alert confirmation state machine.
type Machine struct {
	// mu serializes every transition.
	mu sync.Mutex
	// state is the current state.
	state alert.State
	// next is an alert delivered while the previous one was resolving.
	next *alert.Event
	// timer dismisses the pending alert when the timeout elapses.
	timer *time.Timer
	// subscribers receive every published state.
	subscribers map[*Subscription]struct{}

	emergency Emergency
	timeout   time.Duration
	now       func() time.Time
	schedule  func(task func())
	baseCtx   context.Context //nolint:containedctx // Used only for timer-driven transitions.
}

// New creates an idle machine. emergency may be nil, in which case
// confirmations only change the state.
func New(emergency Emergency, opts ...Option) *Machine {
	m := &Machine{
		subscribers: make(map[*Subscription]struct{}),
		emergency:   emergency,
		now:         time.Now,
		schedule:    func(task func()) { task() },
		baseCtx:     context.Background(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.state = alert.State{
		Phase:     alert.PhaseIdle,
		ChangedAt: m.now(),
	}

	return m
}

// State returns a copy of the current state.
func (m *Machine) State() alert.State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Clone()
}

// Pending reports whether an alert is in flight.
func (m *Machine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return !m.state.IsIdle()
}

// Deliver hands an alert to the machine.
func (m *Machine) Deliver(ctx context.Context, event alert.Event) Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Phase {
	case alert.PhasePending:
		metrics.DuplicatesSuppressed.Inc()
		logger.InfoKV(ctx, "Duplicate alert suppressed",
			"alert_id", m.state.AlertID,
			"pending_since", m.state.Event.RaisedAt,
			"raised_at", event.RaisedAt,
			"equivalent", m.state.Event.Equivalent(event),
		)

		return DeliveryDuplicateSuppressed
	case alert.PhaseResolved:
		queued := event.Clone()
		m.next = &queued

		logger.InfoKV(ctx, "Alert queued behind resolving alert", "alert_id", m.state.AlertID, "raised_at", event.RaisedAt)

		return DeliveryQueued
	default:
		m.enterPendingLocked(ctx, event)

		return DeliveryAccepted
	}
}

// Confirm resolves the pending alert as confirmed and initiates the
// emergency contact. It returns false, doing nothing, when no alert is pending.
func (m *Machine) Confirm(ctx context.Context) bool {
	return m.resolve(ctx, alert.OutcomeConfirmed, alert.ReasonUser, "")
}

// Dismiss resolves the pending alert as dismissed. It returns false,
// doing nothing, when no alert is pending.
func (m *Machine) Dismiss(ctx context.Context) bool {
	return m.resolve(ctx, alert.OutcomeDismissed, alert.ReasonUser, "")
}

// Subscribe registers an observer. The current state is delivered first.
func (m *Machine) Subscribe() *Subscription {
	s := newSubscription(m)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribers[s] = struct{}{}
	s.publish(m.state.Clone())

	return s
}

// unsubscribe removes the observer and closes its channel.
func (m *Machine) unsubscribe(s *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.subscribers[s]; !ok {
		return
	}

	delete(m.subscribers, s)
	close(s.ch)
}

// resolve moves Pending to Resolved, runs the side effect outside the lock
// and then returns to Idle. alertID, when set, restricts the transition to
// that alert (used by the timeout).
func (m *Machine) resolve(ctx context.Context, outcome alert.Outcome, reason, alertID string) bool {
	m.mu.Lock()

	if m.state.Phase != alert.PhasePending || (alertID != "" && m.state.AlertID != alertID) {
		phase := m.state.Phase
		m.mu.Unlock()

		logger.DebugKV(ctx, "Resolution ignored", "outcome", outcome.String(), "phase", phase.String())

		return false
	}

	m.stopTimerLocked()

	resolved := m.state.Clone()
	resolved.Phase = alert.PhaseResolved
	resolved.Outcome = outcome
	resolved.Reason = reason
	resolved.ChangedAt = m.now()

	m.setLocked(resolved)
	m.mu.Unlock()

	metrics.Resolutions.WithLabelValues(outcome.String(), reason).Inc()
	logger.InfoKV(ctx, "Alert resolved", "alert_id", resolved.AlertID, "outcome", outcome.String(), "reason", reason)

	// Only the caller that left PhasePending gets here.
	if outcome == alert.OutcomeConfirmed && m.emergency != nil {
		if err := m.emergency.InitiateContact(ctx, *resolved.Event); err != nil {
			logger.ErrorKV(ctx, "Emergency contact failed", "alert_id", resolved.AlertID, "error", err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.setLocked(alert.State{
		Phase:     alert.PhaseIdle,
		ChangedAt: m.now(),
	})

	if m.next != nil {
		next := *m.next
		m.next = nil
		m.enterPendingLocked(ctx, next)
	}

	return true
}

// enterPendingLocked starts a new alert. m.mu must be held.
func (m *Machine) enterPendingLocked(ctx context.Context, event alert.Event) {
	cloned := event.Clone()
	alertID := uuid.NewString()

	m.setLocked(alert.State{
		Phase:     alert.PhasePending,
		AlertID:   alertID,
		Event:     &cloned,
		ChangedAt: m.now(),
	})

	logger.InfoKV(ctx, "Alert pending confirmation", "alert_id", alertID, "raised_at", event.RaisedAt)

	if m.timeout > 0 {
		m.timer = time.AfterFunc(m.timeout, func() {
			m.schedule(func() {
				m.resolve(m.baseCtx, alert.OutcomeDismissed, alert.ReasonTimeout, alertID)
			})
		})
	}
}

// stopTimerLocked cancels the pending timeout. m.mu must be held.
func (m *Machine) stopTimerLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// setLocked stores and publishes a state. m.mu must be held.
func (m *Machine) setLocked(state alert.State) {
	m.state = state

	for s := range m.subscribers {
		s.publish(state.Clone())
	}
}
