package permission

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	domain "github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/metrics"
)

// Platform is the OS side of the permission flow.
type Platform interface {
	// Check returns the current OS grant without prompting the user.
	Check(ctx context.Context, kind domain.Kind) domain.Grant
	// Request prompts the user. The answer arrives later through Gate.OnResult.
	Request(ctx context.Context, kind domain.Kind) error
}

// VoiceCommands is the subsystem enabled by the AUDIO permission.
type VoiceCommands interface {
	Start(ctx context.Context) error
}

// Notifier shows a message to the user once.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// Gate tracks one record per permission kind.
type Gate struct {
	// mu guards records, noticed and voiceStarted.
	mu      sync.Mutex
	records map[domain.Kind]*domain.Record
	noticed map[domain.Kind]bool

	voiceStarted bool

	platform Platform
	voice    VoiceCommands
	notifier Notifier
}

// NewGate creates a gate. voice and notifier may be nil.
func NewGate(platform Platform, voice VoiceCommands, notifier Notifier) *Gate {
	return &Gate{
		records:  make(map[domain.Kind]*domain.Record),
		noticed:  make(map[domain.Kind]bool),
		platform: platform,
		voice:    voice,
		notifier: notifier,
	}
}

// Ensure checks the grant for kind and requests it when undetermined.
// The OS check runs without holding the gate lock, so kinds never wait on each other.
func (g *Gate) Ensure(ctx context.Context, kind domain.Kind) (domain.Status, error) {
	if _, err := domain.ParseKind(string(kind)); err != nil {
		return domain.StatusDenied, err
	}

	g.mu.Lock()
	status, settled := settledLocked(g.recordLocked(kind))
	g.mu.Unlock()

	if settled {
		return status, nil
	}

	switch g.platform.Check(ctx, kind) {
	case domain.GrantGranted:
		return g.apply(ctx, kind, true), nil
	case domain.GrantDenied:
		return g.apply(ctx, kind, false), nil
	}

	g.mu.Lock()

	record := g.recordLocked(kind)
	if status, settled = settledLocked(record); settled {
		g.mu.Unlock()

		return status, nil
	}

	record.Requested = true
	g.mu.Unlock()

	logger.InfoKV(ctx, "Permission requested", "kind", kind)

	if err := g.platform.Request(ctx, kind); err != nil {
		g.mu.Lock()
		if record.Granted == domain.GrantUnknown {
			record.Requested = false
		}
		g.mu.Unlock()

		logger.WarnKV(ctx, "Permission request failed", "kind", kind, "error", err)

		return domain.StatusDenied, fmt.Errorf("request %s: %w", kind, err)
	}

	return domain.StatusRequested, nil
}

// settledLocked reports the status of a record that needs no further OS call.
func settledLocked(record *domain.Record) (domain.Status, bool) {
	switch {
	case record.Granted == domain.GrantGranted:
		return domain.StatusGranted, true
	case record.Granted == domain.GrantDenied:
		return domain.StatusDenied, true
	case record.Requested:
		return domain.StatusRequested, true
	default:
		return domain.StatusRequested, false
	}
}

// EnsureAll ensures every managed kind concurrently. A failing request for
// one kind never prevents the others.
func (g *Gate) EnsureAll(ctx context.Context) map[domain.Kind]domain.Status {
	var (
		mu       sync.Mutex
		statuses = make(map[domain.Kind]domain.Status, len(domain.Kinds()))
		group    errgroup.Group
	)

	for _, kind := range domain.Kinds() {
		group.Go(func() error {
			status, err := g.Ensure(ctx, kind)
			if err != nil {
				logger.WarnKV(ctx, "Permission not ensured", "kind", kind, "error", err)
			}

			mu.Lock()
			statuses[kind] = status
			mu.Unlock()

			return nil
		})
	}

	_ = group.Wait()

	return statuses
}

// OnResult records the OS answer for kind. Answers after a denial are ignored.
func (g *Gate) OnResult(ctx context.Context, kind domain.Kind, granted bool) error {
	if _, err := domain.ParseKind(string(kind)); err != nil {
		return err
	}

	_ = g.apply(ctx, kind, granted)

	return nil
}

// Records returns a copy of every record created so far, in request order.
func (g *Gate) Records() []domain.Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	result := make([]domain.Record, 0, len(g.records))

	for _, kind := range domain.Kinds() {
		if record, ok := g.records[kind]; ok {
			result = append(result, *record)
		}
	}

	return result
}

// apply stores the answer, runs its consequences and returns the resulting status.
func (g *Gate) apply(ctx context.Context, kind domain.Kind, granted bool) domain.Status {
	g.mu.Lock()

	record := g.recordLocked(kind)
	if record.Granted == domain.GrantDenied {
		g.mu.Unlock()
		logger.DebugKV(ctx, "Permission answer ignored after denial", "kind", kind, "granted", granted)

		return domain.StatusDenied
	}

	record.Requested = true

	if !granted {
		record.Granted = domain.GrantDenied
		notify := !g.noticed[kind]
		g.noticed[kind] = true
		g.mu.Unlock()

		metrics.PermissionResults.WithLabelValues(string(kind), "denied").Inc()
		logger.WarnKV(ctx, "Permission denied, dependent subsystem disabled", "kind", kind)

		if notify && g.notifier != nil {
			g.notifier.Notify(ctx, deniedNotice(kind))
		}

		return domain.StatusDenied
	}

	record.Granted = domain.GrantGranted
	startVoice := kind == domain.KindAudio && g.voice != nil && !g.voiceStarted

	if startVoice {
		g.voiceStarted = true
	}

	g.mu.Unlock()

	metrics.PermissionResults.WithLabelValues(string(kind), "granted").Inc()
	logger.InfoKV(ctx, "Permission granted", "kind", kind)

	if !startVoice {
		return domain.StatusGranted
	}

	if err := g.voice.Start(ctx); err != nil {
		logger.ErrorKV(ctx, "Voice commands failed to start", "error", err)
	}

	return domain.StatusGranted
}

// recordLocked returns the record for kind, creating it on first use. g.mu must be held.
func (g *Gate) recordLocked(kind domain.Kind) *domain.Record {
	record, ok := g.records[kind]
	if !ok {
		record = &domain.Record{Kind: kind}
		g.records[kind] = record
	}

	return record
}

// deniedNotice is the one-time message shown for a denied kind.
func deniedNotice(kind domain.Kind) string {
	switch kind {
	case domain.KindNotifications:
		return "Notifications are off. Fall alerts will only show while the app is open."
	case domain.KindAudio:
		return "Microphone access is off. Voice commands are disabled."
	case domain.KindCallPhone:
		return "Phone access is off. Emergency calls must be placed manually."
	default:
		return fmt.Sprintf("Permission %s is off.", kind)
	}
}
