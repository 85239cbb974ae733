package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oshokin/fall-guard/internal/channel"
	"github.com/oshokin/fall-guard/internal/chat"
	"github.com/oshokin/fall-guard/internal/confirmation"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	domain "github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/permission"
	"github.com/oshokin/fall-guard/internal/repository/mailbox"
	"github.com/oshokin/fall-guard/internal/repository/store"
	"github.com/oshokin/fall-guard/internal/router"
)

// ErrInvalidRecord wraps validation failures of user records.
var ErrInvalidRecord = errors.New("invalid record")

// Asker answers chat questions.
type Asker interface {
	Ask(ctx context.Context, history []chat.Message, prompt string) (string, error)
}

// Dependencies are the collaborators of a surface.
type Dependencies struct {
	Mailbox     mailbox.Repository
	Profiles    *store.Collection[health.Profile]
	Medications *store.Collection[health.Medication]
	Chat        Asker
	Emergency   confirmation.Emergency
	// Platform answers permission checks, the console platform when nil.
	Platform permission.Platform
	// ConfirmationTimeout auto-dismisses a pending alert, zero disables it.
	ConfirmationTimeout time.Duration
}

// Snapshot is what the surface shows right now.
type Snapshot struct {
	Destination   surface.Destination
	State         alert.State
	Permissions   []domain.Record
	Notices       []string
	VoiceCommands bool
	Medications   []health.Medication
	Profile       *health.Profile
}

// Surface is the one running instance of the user-facing process.
type Surface struct {
	looper  *looper
	channel *channel.Channel
	machine *confirmation.Machine
	router  *router.Router
	gate    *permission.Gate
	voice   *voiceCommands
	notices *notices

	profiles    *store.Collection[health.Profile]
	medications *store.Collection[health.Medication]
	chat        Asker

	// mu guards the mirrored records, written on the looper only.
	mu              sync.Mutex
	medicationsView []health.Medication
	profileView     *health.Profile
}

// New wires a surface. Run must be called before entries are handled.
func New(deps Dependencies) *Surface {
	s := &Surface{
		looper:      newLooper(),
		voice:       &voiceCommands{},
		notices:     &notices{},
		profiles:    deps.Profiles,
		medications: deps.Medications,
		chat:        deps.Chat,
	}

	platform := deps.Platform
	if platform == nil {
		platform = consolePlatform{}
	}

	s.channel = channel.New(deps.Mailbox, channel.WakerFunc(func(ctx context.Context, entry surface.Entry) error {
		_, err := s.Enter(ctx, entry)

		return err
	}))
	s.machine = confirmation.New(deps.Emergency,
		confirmation.WithTimeout(deps.ConfirmationTimeout),
		confirmation.WithContext(logger.WithName(context.Background(), "surface")),
		confirmation.WithScheduler(func(task func()) {
			if err := s.looper.post(context.Background(), task); err != nil {
				logger.WarnKV(context.Background(), "Confirmation timeout dropped", "error", err)
			}
		}),
	)
	s.router = router.New(s.channel, s.machine, s.defaultDestination)
	s.gate = permission.NewGate(platform, s.voice, s.notices)

	return s
}

// Run performs the cold-start entry and keeps the surface alive until ctx
// is done.
func (s *Surface) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "surface")

	go s.looper.run(ctx)

	s.mirror(ctx)

	states := s.machine.Subscribe()
	defer states.Close()

	go func() {
		for state := range states.C() {
			if !state.IsIdle() {
				continue
			}

			if err := s.looper.post(ctx, func() { s.router.Release(ctx) }); err != nil {
				return
			}
		}
	}()

	destination, err := s.Enter(ctx, surface.Entry{Kind: surface.EntryColdStart})
	if err != nil {
		return fmt.Errorf("cold start: %w", err)
	}

	logger.InfoKV(ctx, "Surface started", "destination", destination.String())

	go s.gate.EnsureAll(ctx)

	<-ctx.Done()

	logger.Info(ctx, "Surface stopped")

	return nil
}

// Enter handles an entry signal on the looper.
func (s *Surface) Enter(ctx context.Context, entry surface.Entry) (surface.Destination, error) {
	var destination surface.Destination

	err := s.looper.do(ctx, func() {
		destination = s.router.Route(ctx, entry)
	})

	return destination, err
}

// RaiseAlert hands an alert to the channel, which wakes this surface.
func (s *Surface) RaiseAlert(ctx context.Context, event alert.Event) error {
	return s.channel.Raise(ctx, event)
}

// State returns the confirmation state.
func (s *Surface) State() alert.State {
	return s.machine.State()
}

// Confirm confirms the pending alert on the looper. It reports whether anything changed.
func (s *Surface) Confirm(ctx context.Context) (bool, alert.State) {
	return s.resolve(ctx, s.machine.Confirm)
}

// Dismiss dismisses the pending alert on the looper. It reports whether anything changed.
func (s *Surface) Dismiss(ctx context.Context) (bool, alert.State) {
	return s.resolve(ctx, s.machine.Dismiss)
}

func (s *Surface) resolve(ctx context.Context, action func(context.Context) bool) (bool, alert.State) {
	var applied bool

	if err := s.looper.do(ctx, func() {
		applied = action(ctx)
	}); err != nil {
		logger.WarnKV(ctx, "Alert answer not applied", "error", err)
	}

	return applied, s.machine.State()
}

// Watch streams confirmation states until ctx is done. The current state
// comes first.
func (s *Surface) Watch(ctx context.Context) <-chan alert.State {
	sub := s.machine.Subscribe()
	out := make(chan alert.State)

	go func() {
		defer close(out)
		defer sub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case state, ok := <-sub.C():
				if !ok {
					return
				}

				select {
				case out <- state:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// ReportPermission delivers the OS answer for kind on the looper.
func (s *Surface) ReportPermission(ctx context.Context, kind domain.Kind, granted bool) error {
	var result error

	if err := s.looper.do(ctx, func() {
		result = s.gate.OnResult(ctx, kind, granted)
	}); err != nil {
		return err
	}

	return result
}

// Snapshot returns what the surface shows right now.
func (s *Surface) Snapshot() Snapshot {
	s.mu.Lock()
	medications := append([]health.Medication{}, s.medicationsView...)

	var profile *health.Profile

	if s.profileView != nil {
		cloned := *s.profileView
		profile = &cloned
	}
	s.mu.Unlock()

	return Snapshot{
		Destination:   s.router.Current(),
		State:         s.machine.State(),
		Permissions:   s.gate.Records(),
		Notices:       s.notices.List(),
		VoiceCommands: s.voice.Running(),
		Medications:   medications,
		Profile:       profile,
	}
}

// GetProfile returns the user's profile.
func (s *Surface) GetProfile(ctx context.Context) (health.Profile, error) {
	return s.profiles.Get(ctx, health.SelfProfileID)
}

// PutProfile stores the user's profile.
func (s *Surface) PutProfile(ctx context.Context, profile health.Profile) (health.Profile, error) {
	profile.ID = health.SelfProfileID

	if err := profile.Validate(); err != nil {
		return health.Profile{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if err := s.profiles.Put(ctx, profile); err != nil {
		return health.Profile{}, err
	}

	return profile, nil
}

// ListMedications returns every medication.
func (s *Surface) ListMedications(ctx context.Context) ([]health.Medication, error) {
	return s.medications.List(ctx)
}

// PutMedication stores a medication, assigning an id to new ones.
func (s *Surface) PutMedication(ctx context.Context, medication health.Medication) (health.Medication, error) {
	if strings.TrimSpace(medication.ID) == "" {
		medication.ID = uuid.NewString()
	}

	if err := medication.Validate(); err != nil {
		return health.Medication{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if err := s.medications.Put(ctx, medication); err != nil {
		return health.Medication{}, err
	}

	return medication, nil
}

// DeleteMedication removes a medication.
func (s *Surface) DeleteMedication(ctx context.Context, id string) error {
	return s.medications.Delete(ctx, id)
}

// Ask forwards a question to the assistant.
func (s *Surface) Ask(ctx context.Context, history []chat.Message, prompt string) (string, error) {
	return s.chat.Ask(ctx, history, prompt)
}

// defaultDestination is where an entry lands without a pending alert.
func (s *Surface) defaultDestination(ctx context.Context) surface.Destination {
	_, err := s.profiles.Get(ctx, health.SelfProfileID)

	switch {
	case err == nil:
		return surface.DestinationDashboard
	case errors.Is(err, store.ErrNotFound):
		return surface.DestinationOnboarding
	default:
		s.notices.Notify(ctx, "Your records could not be loaded. Please try again.")

		return surface.DestinationSplash
	}
}

// mirror keeps the record views current. Snapshots are applied on the looper.
func (s *Surface) mirror(ctx context.Context) {
	medications, err := s.medications.Subscribe(ctx)
	if err != nil {
		s.notices.Notify(ctx, "Your medications could not be loaded.")
	} else {
		go forward(ctx, s.looper, medications, func(items []health.Medication) {
			s.mu.Lock()
			s.medicationsView = items
			s.mu.Unlock()
		})
	}

	profiles, err := s.profiles.Subscribe(ctx)
	if err != nil {
		s.notices.Notify(ctx, "Your profile could not be loaded.")

		return
	}

	go forward(ctx, s.looper, profiles, func(items []health.Profile) {
		var profile *health.Profile

		for i := range items {
			if items[i].ID == health.SelfProfileID {
				profile = &items[i]
			}
		}

		s.mu.Lock()
		s.profileView = profile
		s.mu.Unlock()
	})
}

// forward applies every snapshot of updates on the looper.
func forward[T any](ctx context.Context, l *looper, updates <-chan []T, apply func([]T)) {
	for snapshot := range updates {
		if err := l.post(ctx, func() { apply(snapshot) }); err != nil {
			return
		}
	}
}
