package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/service/common"
	"github.com/oshokin/fall-guard/internal/wire"
)

// Options configures the console connection.
type Options struct {
	// ConfigPath specifies the path to the settings YAML file.
	ConfigPath string
	// ServerAddress provides an optional gRPC server address override.
	ServerAddress string
	// Out receives the printed results, stdout when nil.
	Out io.Writer
	// ClientOptions are passed to the gRPC client.
	ClientOptions []common.Option
}

// errUnknownAnswer is returned for a permission answer other than grant or deny.
var errUnknownAnswer = errors.New("answer must be grant or deny")

// Console talks to one surface.
type Console struct {
	client *common.Client
	out    io.Writer
}

// Open loads settings and connects to the surface.
func Open(ctx context.Context, opts *Options) (*Console, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	if err = logger.Configure(cfg.LogLevel); err != nil {
		return nil, err
	}

	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := append([]common.Option{common.WithCallTimeout(cfg.Timeout)}, opts.ClientOptions...)

	client, err := common.Dial(ctx, serverAddress, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial server: %w", err)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &Console{client: client, out: out}, nil
}

// Close releases the connection.
func (c *Console) Close() error {
	return c.client.Close()
}

// Status prints what the surface shows.
func (c *Console) Status(ctx context.Context) error {
	snapshot, err := c.client.SurfaceState(ctx)
	if err != nil {
		return err
	}

	c.printf("screen: %s\n", snapshot.Destination)
	c.printf("alert: %s\n", formatState(snapshot.State.Domain()))
	c.printf("profile: %t, medications: %d, voice commands: %t\n",
		snapshot.HasProfile, snapshot.Medications, snapshot.VoiceCommands)

	for _, record := range snapshot.Permissions {
		c.printf("permission %s: requested=%t granted=%s\n", record.Kind, record.Requested, record.Granted)
	}

	for _, notice := range snapshot.Notices {
		c.printf("notice: %s\n", notice)
	}

	return nil
}

// Watch prints every confirmation state until ctx is done.
func (c *Console) Watch(ctx context.Context) error {
	err := c.client.WatchState(ctx, func(state alert.State) error {
		c.printf("%s\n", formatState(state))

		return nil
	})
	if err != nil && ctx.Err() != nil {
		return nil
	}

	return err
}

// Confirm confirms the pending alert.
func (c *Console) Confirm(ctx context.Context) error {
	ack, err := c.client.Confirm(ctx)
	if err != nil {
		return err
	}

	c.printAck("confirmed", ack)

	return nil
}

// Dismiss dismisses the pending alert.
func (c *Console) Dismiss(ctx context.Context) error {
	ack, err := c.client.Dismiss(ctx)
	if err != nil {
		return err
	}

	c.printAck("dismissed", ack)

	return nil
}

// Permission reports a grant or deny answer for kind.
func (c *Console) Permission(ctx context.Context, kind, answer string) error {
	parsed, err := permission.ParseKind(kind)
	if err != nil {
		return err
	}

	var granted bool

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "grant", "granted", "allow":
		granted = true
	case "deny", "denied":
		granted = false
	default:
		return fmt.Errorf("%w: %q", errUnknownAnswer, answer)
	}

	snapshot, err := c.client.ReportPermission(ctx, parsed, granted)
	if err != nil {
		return err
	}

	for _, record := range snapshot.Permissions {
		if record.Kind == string(parsed) {
			c.printf("permission %s: %s\n", record.Kind, record.Granted)
		}
	}

	return nil
}

// ProfileGet prints the user's profile.
func (c *Console) ProfileGet(ctx context.Context) error {
	profile, err := c.client.GetProfile(ctx)
	if err != nil {
		return err
	}

	c.printProfile(profile)

	return nil
}

// ProfileSet stores the user's profile.
func (c *Console) ProfileSet(ctx context.Context, profile health.Profile) error {
	stored, err := c.client.PutProfile(ctx, profile)
	if err != nil {
		return err
	}

	c.printProfile(stored)

	return nil
}

// MedicationList prints every medication.
func (c *Console) MedicationList(ctx context.Context) error {
	items, err := c.client.ListMedications(ctx)
	if err != nil {
		return err
	}

	if len(items) == 0 {
		c.printf("no medications\n")

		return nil
	}

	for _, item := range items {
		c.printMedication(item)
	}

	return nil
}

// MedicationAdd stores a medication.
func (c *Console) MedicationAdd(ctx context.Context, medication health.Medication) error {
	stored, err := c.client.PutMedication(ctx, medication)
	if err != nil {
		return err
	}

	c.printMedication(stored)

	return nil
}

// MedicationRemove deletes a medication.
func (c *Console) MedicationRemove(ctx context.Context, id string) error {
	if err := c.client.DeleteMedication(ctx, id); err != nil {
		return err
	}

	c.printf("removed %s\n", id)

	return nil
}

// Ask prints the assistant's answer.
func (c *Console) Ask(ctx context.Context, prompt string) error {
	answer, err := c.client.Ask(ctx, nil, prompt)
	if err != nil {
		return err
	}

	c.printf("%s\n", answer)

	return nil
}

func (c *Console) printAck(verb string, ack wire.Ack) {
	if !ack.Applied {
		c.printf("no alert pending, nothing %s\n", verb)

		return
	}

	c.printf("alert %s, now %s\n", verb, ack.State.Phase)
}

func (c *Console) printProfile(profile health.Profile) {
	c.printf("name: %s\n", profile.Name)

	if profile.Age > 0 {
		c.printf("age: %d\n", profile.Age)
	}

	if profile.BloodType != "" {
		c.printf("blood type: %s\n", profile.BloodType)
	}

	c.printf("emergency contact: %s %s\n", profile.EmergencyName, profile.EmergencyPhone)
}

func (c *Console) printMedication(m health.Medication) {
	c.printf("%s  %s %s [%s] %s\n", m.ID, m.Name, m.Dosage, strings.Join(m.Times, ","), m.Notes)
}

func (c *Console) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

// formatState renders a confirmation state on one line.
func formatState(state alert.State) string {
	var b strings.Builder

	b.WriteString(state.Phase.String())

	if state.AlertID != "" {
		b.WriteString(" alert=" + state.AlertID)
	}

	if state.Event != nil {
		b.WriteString(" raised_at=" + state.Event.RaisedAt.Format(time.RFC3339))

		if state.Event.Source != nil {
			b.WriteString(" by " + state.Event.Source.String())
		}
	}

	if state.Outcome != alert.OutcomeNone {
		b.WriteString(" outcome=" + state.Outcome.String() + " reason=" + state.Reason)
	}

	return b.String()
}
