package surface

import (
	"context"
	"sync"

	domain "github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/logger"
)

// consolePlatform has no OS prompt: requests are answered by the console
// through ReportPermission.
type consolePlatform struct{}

func (consolePlatform) Check(context.Context, domain.Kind) domain.Grant {
	return domain.GrantUnknown
}

func (consolePlatform) Request(ctx context.Context, kind domain.Kind) error {
	logger.InfoKV(ctx, "Waiting for permission answer", "kind", kind,
		"hint", "fallguard permission "+string(kind)+" grant|deny")

	return nil
}

// voiceCommands records that the voice-command subsystem is listening.
type voiceCommands struct {
	mu      sync.Mutex
	running bool
}

func (v *voiceCommands) Start(ctx context.Context) error {
	v.mu.Lock()
	v.running = true
	v.mu.Unlock()

	logger.Info(ctx, "Voice commands started")

	return nil
}

func (v *voiceCommands) Running() bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.running
}

// notices keeps every message shown to the user.
type notices struct {
	mu    sync.Mutex
	items []string
}

func (n *notices) Notify(ctx context.Context, message string) {
	n.mu.Lock()
	n.items = append(n.items, message)
	n.mu.Unlock()

	logger.WarnKV(ctx, "Notice shown", "message", message)
}

func (n *notices) List() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]string{}, n.items...)
}
