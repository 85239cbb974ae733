//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/fall-guard/internal/api/grpc/fallguard"
	"github.com/oshokin/fall-guard/internal/config"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/wire"
)

// Client wraps the SurfaceService connection with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the surface.
	conn *grpc.ClientConn

	// callTimeout is the default timeout for individual unary calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithConn uses an existing connection instead of dialing.
func WithConn(conn *grpc.ClientConn) Option {
	return func(c *Client) {
		if conn != nil {
			c.conn = conn
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errIDRequired is returned when a record id is missing.
	errIDRequired = errors.New("record id must be provided")
)

// Dial establishes a gRPC connection to the surface.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.conn != nil {
		return client, nil
	}

	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial surface: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// RaiseAlert hands an alert to the surface.
func (c *Client) RaiseAlert(ctx context.Context, event alert.Event) (surface.Destination, error) {
	var route wire.Route
	if err := c.invoke(ctx, fallguard.MethodRaiseAlert, wire.FromEvent(event), &route); err != nil {
		return surface.DestinationSplash, err
	}

	return surface.ParseDestination(route.Destination), nil
}

// Wake sends an entry signal to a running surface.
func (c *Client) Wake(ctx context.Context, entry surface.Entry) (surface.Destination, error) {
	var route wire.Route
	if err := c.invoke(ctx, fallguard.MethodWake, wire.FromEntry(entry), &route); err != nil {
		return surface.DestinationSplash, err
	}

	return surface.ParseDestination(route.Destination), nil
}

// SurfaceState returns what the surface shows.
func (c *Client) SurfaceState(ctx context.Context) (wire.Snapshot, error) {
	var snapshot wire.Snapshot
	err := c.invoke(ctx, fallguard.MethodGetSurfaceState, wire.Empty{}, &snapshot)

	return snapshot, err
}

// Confirm confirms the pending alert.
func (c *Client) Confirm(ctx context.Context) (wire.Ack, error) {
	var ack wire.Ack
	err := c.invoke(ctx, fallguard.MethodConfirm, wire.Empty{}, &ack)

	return ack, err
}

// Dismiss dismisses the pending alert.
func (c *Client) Dismiss(ctx context.Context) (wire.Ack, error) {
	var ack wire.Ack
	err := c.invoke(ctx, fallguard.MethodDismiss, wire.Empty{}, &ack)

	return ack, err
}

// ReportPermission sends the answer of a permission prompt.
func (c *Client) ReportPermission(ctx context.Context, kind permission.Kind, granted bool) (wire.Snapshot, error) {
	var snapshot wire.Snapshot
	err := c.invoke(ctx, fallguard.MethodReportPermission,
		wire.PermissionReport{Kind: string(kind), Granted: granted}, &snapshot)

	return snapshot, err
}

// GetProfile returns the user's profile.
func (c *Client) GetProfile(ctx context.Context) (health.Profile, error) {
	var profile health.Profile
	err := c.invoke(ctx, fallguard.MethodGetProfile, wire.Empty{}, &profile)

	return profile, err
}

// PutProfile stores the user's profile.
func (c *Client) PutProfile(ctx context.Context, profile health.Profile) (health.Profile, error) {
	var stored health.Profile
	err := c.invoke(ctx, fallguard.MethodPutProfile, profile, &stored)

	return stored, err
}

// ListMedications returns every medication.
func (c *Client) ListMedications(ctx context.Context) ([]health.Medication, error) {
	var medications wire.Medications
	if err := c.invoke(ctx, fallguard.MethodListMedications, wire.Empty{}, &medications); err != nil {
		return nil, err
	}

	return medications.Items, nil
}

// PutMedication stores a medication and returns it with its id.
func (c *Client) PutMedication(ctx context.Context, medication health.Medication) (health.Medication, error) {
	var stored health.Medication
	err := c.invoke(ctx, fallguard.MethodPutMedication, medication, &stored)

	return stored, err
}

// DeleteMedication removes a medication.
func (c *Client) DeleteMedication(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	return c.invoke(ctx, fallguard.MethodDeleteMedication, wire.RecordID{ID: id}, &wire.Empty{})
}

// Ask sends a question to the assistant.
func (c *Client) Ask(ctx context.Context, history []wire.ChatMessage, prompt string) (string, error) {
	var answer wire.Answer
	if err := c.invoke(ctx, fallguard.MethodAsk, wire.Question{History: history, Prompt: prompt}, &answer); err != nil {
		return "", err
	}

	return answer.Content, nil
}

// WatchState calls fn for every confirmation state until ctx is done, the
// server ends the stream, or fn returns an error.
func (c *Client) WatchState(ctx context.Context, fn func(alert.State) error) error {
	stream, err := c.conn.NewStream(ctx, fallguard.WatchStateStream(), fallguard.FullMethod(fallguard.MethodWatchState))
	if err != nil {
		return fmt.Errorf("watch state: %w", err)
	}

	request, err := wire.Encode(wire.Empty{})
	if err != nil {
		return err
	}

	if err = stream.SendMsg(request); err != nil {
		return fmt.Errorf("watch state: %w", err)
	}

	if err = stream.CloseSend(); err != nil {
		return fmt.Errorf("watch state: %w", err)
	}

	for {
		message := new(structpb.Struct)

		err = stream.RecvMsg(message)
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("watch state: %w", err)
		}

		var state wire.State
		if err = wire.Decode(message, &state); err != nil {
			return err
		}

		if err = fn(state.Domain()); err != nil {
			return err
		}
	}
}

// invoke performs one unary call.
func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	request, err := wire.Encode(in)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	response := new(structpb.Struct)
	if err = c.conn.Invoke(callCtx, fallguard.FullMethod(method), request, response); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	return wire.Decode(response, out)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
