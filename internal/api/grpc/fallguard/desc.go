package fallguard

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "fallguard.v1.SurfaceService"

// Method names of the service.
const (
	MethodRaiseAlert       = "RaiseAlert"
	MethodWake             = "Wake"
	MethodGetSurfaceState  = "GetSurfaceState"
	MethodConfirm          = "Confirm"
	MethodDismiss          = "Dismiss"
	MethodWatchState       = "WatchState"
	MethodReportPermission = "ReportPermission"
	MethodGetProfile       = "GetProfile"
	MethodPutProfile       = "PutProfile"
	MethodListMedications  = "ListMedications"
	MethodPutMedication    = "PutMedication"
	MethodDeleteMedication = "DeleteMedication"
	MethodAsk              = "Ask"
)

// FullMethod returns the path used on the wire for method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SurfaceServer is the server side of the service.
type SurfaceServer interface {
	RaiseAlert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Wake(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetSurfaceState(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Confirm(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Dismiss(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	WatchState(in *structpb.Struct, stream grpc.ServerStream) error
	ReportPermission(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PutProfile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ListMedications(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	PutMedication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	DeleteMedication(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Ask(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(srv SurfaceServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

// unary adapts a SurfaceServer method to a grpc.MethodDesc.
func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(SurfaceServer)

			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}

			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				request, _ := req.(*structpb.Struct)

				return call(server, ctx, request)
			})
		},
	}
}

func watchStateHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	server, _ := srv.(SurfaceServer)

	return server.WatchState(in, stream)
}

// ServiceDesc describes fallguard.v1.SurfaceService.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SurfaceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRaiseAlert, SurfaceServer.RaiseAlert),
		unary(MethodWake, SurfaceServer.Wake),
		unary(MethodGetSurfaceState, SurfaceServer.GetSurfaceState),
		unary(MethodConfirm, SurfaceServer.Confirm),
		unary(MethodDismiss, SurfaceServer.Dismiss),
		unary(MethodReportPermission, SurfaceServer.ReportPermission),
		unary(MethodGetProfile, SurfaceServer.GetProfile),
		unary(MethodPutProfile, SurfaceServer.PutProfile),
		unary(MethodListMedications, SurfaceServer.ListMedications),
		unary(MethodPutMedication, SurfaceServer.PutMedication),
		unary(MethodDeleteMedication, SurfaceServer.DeleteMedication),
		unary(MethodAsk, SurfaceServer.Ask),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    MethodWatchState,
			Handler:       watchStateHandler,
			ServerStreams: true,
		},
	},
	Metadata: "fallguard/v1/surface.proto",
}

// WatchStateStream is the stream descriptor clients open for WatchState.
func WatchStateStream() *grpc.StreamDesc {
	return &ServiceDesc.Streams[0]
}

// RegisterSurfaceServer registers srv on the gRPC server.
func RegisterSurfaceServer(registrar grpc.ServiceRegistrar, srv SurfaceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}
