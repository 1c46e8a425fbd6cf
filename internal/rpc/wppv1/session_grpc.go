package wppv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	SessionService_GetSessionStatus_FullMethodName = "/wpp.v1.SessionService/GetSessionStatus"
	SessionService_StartAuth_FullMethodName        = "/wpp.v1.SessionService/StartAuth"
	SessionService_Logout_FullMethodName           = "/wpp.v1.SessionService/Logout"
)

// SessionServiceClient is the client API for SessionService.
type SessionServiceClient interface {
	GetSessionStatus(ctx context.Context, in *GetSessionStatusRequest, opts ...grpc.CallOption) (*GetSessionStatusResponse, error)
	StartAuth(ctx context.Context, in *StartAuthRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AuthEvent], error)
	Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error)
}

type sessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) SessionServiceClient {
	return &sessionServiceClient{cc}
}

func (c *sessionServiceClient) GetSessionStatus(ctx context.Context, in *GetSessionStatusRequest, opts ...grpc.CallOption) (*GetSessionStatusResponse, error) {
	out := new(GetSessionStatusResponse)
	if err := c.cc.Invoke(ctx, SessionService_GetSessionStatus_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *sessionServiceClient) StartAuth(ctx context.Context, in *StartAuthRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[AuthEvent], error) {
	stream, err := c.cc.NewStream(ctx, &SessionService_ServiceDesc.Streams[0], SessionService_StartAuth_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[StartAuthRequest, AuthEvent]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *sessionServiceClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*LogoutResponse, error) {
	out := new(LogoutResponse)
	if err := c.cc.Invoke(ctx, SessionService_Logout_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SessionServiceServer is the server API for SessionService.
type SessionServiceServer interface {
	GetSessionStatus(context.Context, *GetSessionStatusRequest) (*GetSessionStatusResponse, error)
	StartAuth(*StartAuthRequest, grpc.ServerStreamingServer[AuthEvent]) error
	Logout(context.Context, *LogoutRequest) (*LogoutResponse, error)
}

// UnimplementedSessionServiceServer can be embedded to satisfy SessionServiceServer.
type UnimplementedSessionServiceServer struct{}

func (UnimplementedSessionServiceServer) GetSessionStatus(context.Context, *GetSessionStatusRequest) (*GetSessionStatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetSessionStatus not implemented")
}
func (UnimplementedSessionServiceServer) StartAuth(*StartAuthRequest, grpc.ServerStreamingServer[AuthEvent]) error {
	return status.Errorf(codes.Unimplemented, "method StartAuth not implemented")
}
func (UnimplementedSessionServiceServer) Logout(context.Context, *LogoutRequest) (*LogoutResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Logout not implemented")
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionService_ServiceDesc, srv)
}

func _SessionService_GetSessionStatus_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetSessionStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).GetSessionStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SessionService_GetSessionStatus_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).GetSessionStatus(ctx, req.(*GetSessionStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _SessionService_StartAuth_Handler(srv any, stream grpc.ServerStream) error {
	m := new(StartAuthRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(SessionServiceServer).StartAuth(m, &grpc.GenericServerStream[StartAuthRequest, AuthEvent]{ServerStream: stream})
}

func _SessionService_Logout_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(LogoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SessionServiceServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SessionService_Logout_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SessionServiceServer).Logout(ctx, req.(*LogoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// SessionService_ServiceDesc is the grpc.ServiceDesc for SessionService.
var SessionService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wpp.v1.SessionService",
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSessionStatus", Handler: _SessionService_GetSessionStatus_Handler},
		{MethodName: "Logout", Handler: _SessionService_Logout_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StartAuth",
			Handler:       _SessionService_StartAuth_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "wpp/v1/session.go",
}
