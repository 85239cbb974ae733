package fallguard

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/fall-guard/internal/channel"
	"github.com/oshokin/fall-guard/internal/chat"
	"github.com/oshokin/fall-guard/internal/domain/alert"
	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/domain/permission"
	"github.com/oshokin/fall-guard/internal/domain/surface"
	"github.com/oshokin/fall-guard/internal/logger"
	"github.com/oshokin/fall-guard/internal/repository/store"
	surfacesvc "github.com/oshokin/fall-guard/internal/service/surface"
	"github.com/oshokin/fall-guard/internal/wire"
)

// Service abstracts the surface operations the transport depends on.
type Service interface {
	RaiseAlert(ctx context.Context, event alert.Event) error
	Enter(ctx context.Context, entry surface.Entry) (surface.Destination, error)
	Snapshot() surfacesvc.Snapshot
	Confirm(ctx context.Context) (bool, alert.State)
	Dismiss(ctx context.Context) (bool, alert.State)
	Watch(ctx context.Context) <-chan alert.State
	ReportPermission(ctx context.Context, kind permission.Kind, granted bool) error
	GetProfile(ctx context.Context) (health.Profile, error)
	PutProfile(ctx context.Context, profile health.Profile) (health.Profile, error)
	ListMedications(ctx context.Context) ([]health.Medication, error)
	PutMedication(ctx context.Context, medication health.Medication) (health.Medication, error)
	DeleteMedication(ctx context.Context, id string) error
	Ask(ctx context.Context, history []chat.Message, prompt string) (string, error)
}

// Server implements SurfaceServer on top of a Service.
type Server struct {
	// service provides the surface operations.
	service Service
}

// NewServer wires the provided service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// RaiseAlert stores an alert in the mailbox and routes it to the surface.
func (s *Server) RaiseAlert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request wire.Event
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	event, err := request.Domain()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.RaiseAlert(ctx, event); err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(wire.Route{Destination: s.service.Snapshot().Destination.String()})
}

// Wake is the entry signal sent when an alert was left in the mailbox.
func (s *Server) Wake(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request wire.Entry
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	entry := request.Domain()
	if request.Kind == "" {
		entry.Kind = surface.EntryRedeliver
	}

	destination, err := s.service.Enter(ctx, entry)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(wire.Route{Destination: destination.String()})
}

// GetSurfaceState returns what the surface shows.
func (s *Server) GetSurfaceState(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encode(toSnapshot(s.service.Snapshot()))
}

// Confirm confirms the pending alert.
func (s *Server) Confirm(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	applied, state := s.service.Confirm(ctx)

	return encode(wire.Ack{Applied: applied, State: wire.FromState(state)})
}

// Dismiss dismisses the pending alert.
func (s *Server) Dismiss(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	applied, state := s.service.Dismiss(ctx)

	return encode(wire.Ack{Applied: applied, State: wire.FromState(state)})
}

// WatchState streams confirmation states until the client goes away.
func (s *Server) WatchState(_ *structpb.Struct, stream grpc.ServerStream) error {
	ctx := stream.Context()

	for state := range s.service.Watch(ctx) {
		message, err := encode(wire.FromState(state))
		if err != nil {
			return err
		}

		if err = stream.SendMsg(message); err != nil {
			logger.DebugKV(ctx, "State watcher went away", "error", err)

			return err
		}
	}

	return nil
}

// ReportPermission delivers the answer of a permission prompt.
func (s *Server) ReportPermission(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request wire.PermissionReport
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	kind, err := permission.ParseKind(request.Kind)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if err = s.service.ReportPermission(ctx, kind, request.Granted); err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(toSnapshot(s.service.Snapshot()))
}

// GetProfile returns the user's profile.
func (s *Server) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	profile, err := s.service.GetProfile(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(profile)
}

// PutProfile stores the user's profile.
func (s *Server) PutProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request health.Profile
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	profile, err := s.service.PutProfile(ctx, request)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(profile)
}

// ListMedications returns every medication.
func (s *Server) ListMedications(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	items, err := s.service.ListMedications(ctx)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(wire.Medications{Items: items})
}

// PutMedication stores a medication.
func (s *Server) PutMedication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request health.Medication
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	medication, err := s.service.PutMedication(ctx, request)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(medication)
}

// DeleteMedication removes a medication.
func (s *Server) DeleteMedication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request wire.RecordID
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	if request.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}

	if err := s.service.DeleteMedication(ctx, request.ID); err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(wire.Empty{})
}

// Ask forwards a question to the assistant.
func (s *Server) Ask(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var request wire.Question
	if err := wire.Decode(in, &request); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	history := make([]chat.Message, 0, len(request.History))
	for _, m := range request.History {
		history = append(history, chat.Message{Role: m.Role, Content: m.Content})
	}

	content, err := s.service.Ask(ctx, history, request.Prompt)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return encode(wire.Answer{Content: content})
}

func encode(message any) (*structpb.Struct, error) {
	result, err := wire.Encode(message)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return result, nil
}

func toSnapshot(snapshot surfacesvc.Snapshot) wire.Snapshot {
	return wire.Snapshot{
		Destination:   snapshot.Destination.String(),
		State:         wire.FromState(snapshot.State),
		Permissions:   wire.FromRecords(snapshot.Permissions),
		Notices:       snapshot.Notices,
		VoiceCommands: snapshot.VoiceCommands,
		Medications:   len(snapshot.Medications),
		HasProfile:    snapshot.Profile != nil,
	}
}

// toStatus maps a service error to a gRPC status.
func toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, alert.ErrUnknownKind),
		errors.Is(err, alert.ErrMissingTimestamp),
		errors.Is(err, permission.ErrUnknownKind),
		errors.Is(err, surfacesvc.ErrInvalidRecord),
		errors.Is(err, chat.ErrEmptyPrompt):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, store.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, chat.ErrAuth):
		return status.Error(codes.Unauthenticated, "chat service rejected credentials")
	case errors.Is(err, chat.ErrNetwork):
		return status.Error(codes.Unavailable, "chat service unreachable")
	case errors.Is(err, channel.ErrDeliveryDropped):
		logger.ErrorKV(ctx, "Alert delivery dropped", "error", err)

		return status.Error(codes.Unavailable, "alert delivery dropped")
	case errors.Is(err, store.ErrStore):
		return status.Error(codes.Internal, "unable to access records")
	default:
		logger.ErrorKV(ctx, "Request failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}
