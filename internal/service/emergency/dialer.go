package emergency

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/repository/store"
)

// Environment variables passed to the hook command.
const (
	PhoneEnv = "FALLGUARD_EMERGENCY_PHONE"
	NameEnv  = "FALLGUARD_EMERGENCY_NAME"
	AlertEnv = "FALLGUARD_ALERT_RAISED_AT"
)

// ErrNoContact indicates that the profile has no emergency phone number.
var ErrNoContact = errors.New("no emergency contact configured")

// Profiles is the read side of the profile collection.
type Profiles interface {
	Get(ctx context.Context, id string) (health.Profile, error)
}

// Dialer contacts the emergency number by running a hook command.
type Dialer struct {
	profiles Profiles
	command  []string
	start    func(cmd *exec.Cmd) error
}

// NewDialer creates a dialer. An empty command makes the dialer log only.
// The phone number is appended as the last argument of the command.
func NewDialer(profiles Profiles, command string) *Dialer {
	return &Dialer{
		profiles: profiles,
		command:  strings.Fields(command),
		start:    startDetached,
	}
}

// InitiateContact starts the hook for the confirmed alert.
// The hook outlives the caller's context; it is started and not awaited.
func (d *Dialer) InitiateContact(ctx context.Context, event alert.Event) error {
	profile, err := d.profiles.Get(ctx, health.SelfProfileID)

	switch {
	case errors.Is(err, store.ErrNotFound):
		return ErrNoContact
	case err != nil:
		return fmt.Errorf("read emergency contact: %w", err)
	case strings.TrimSpace(profile.EmergencyPhone) == "":
		return ErrNoContact
	}

	ctx = logger.WithFields(ctx, "contact", profile.EmergencyName, "phone", profile.EmergencyPhone)

	if len(d.command) == 0 {
		logger.Warn(ctx, "No emergency command configured, contact must be made manually")

		return nil
	}

	args := append(append([]string{}, d.command[1:]...), profile.EmergencyPhone)

	//nolint:gosec // The command comes from the operator's settings file.
	cmd := exec.CommandContext(context.WithoutCancel(ctx), d.command[0], args...)
	cmd.Env = append(os.Environ(),
		PhoneEnv+"="+profile.EmergencyPhone,
		NameEnv+"="+profile.EmergencyName,
		AlertEnv+"="+event.RaisedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	)

	if err = d.start(cmd); err != nil {
		return fmt.Errorf("start emergency command %s: %w", d.command[0], err)
	}

	logger.InfoKV(ctx, "Emergency command started", "command", d.command[0])

	return nil
}

// startDetached starts the command and reaps it in the background.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			logger.ErrorKV(context.Background(), "Emergency command failed", "command", cmd.Path, "error", err)
		}
	}()

	return nil
}
