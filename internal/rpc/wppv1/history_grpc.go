package wppv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	HistoryService_FindOrCreateChat_FullMethodName      = "/wpp.v1.HistoryService/FindOrCreateChat"
	HistoryService_PageMessages_FullMethodName          = "/wpp.v1.HistoryService/PageMessages"
	HistoryService_SearchMessages_FullMethodName        = "/wpp.v1.HistoryService/SearchMessages"
	HistoryService_ScanMessagesFromRow_FullMethodName   = "/wpp.v1.HistoryService/ScanMessagesFromRow"
	HistoryService_StreamMessagesFromRow_FullMethodName = "/wpp.v1.HistoryService/StreamMessagesFromRow"
)

// HistoryServiceClient is the client API for HistoryService.
type HistoryServiceClient interface {
	FindOrCreateChat(ctx context.Context, in *FindOrCreateChatRequest, opts ...grpc.CallOption) (*FindOrCreateChatResponse, error)
	PageMessages(ctx context.Context, in *PageMessagesRequest, opts ...grpc.CallOption) (*PageMessagesResponse, error)
	SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error)
	ScanMessagesFromRow(ctx context.Context, in *ScanMessagesRequest, opts ...grpc.CallOption) (*ScanMessagesResponse, error)
	StreamMessagesFromRow(ctx context.Context, in *ScanMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error)
}

type historyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewHistoryServiceClient(cc grpc.ClientConnInterface) HistoryServiceClient {
	return &historyServiceClient{cc}
}

func (c *historyServiceClient) FindOrCreateChat(ctx context.Context, in *FindOrCreateChatRequest, opts ...grpc.CallOption) (*FindOrCreateChatResponse, error) {
	out := new(FindOrCreateChatResponse)
	if err := c.cc.Invoke(ctx, HistoryService_FindOrCreateChat_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *historyServiceClient) PageMessages(ctx context.Context, in *PageMessagesRequest, opts ...grpc.CallOption) (*PageMessagesResponse, error) {
	out := new(PageMessagesResponse)
	if err := c.cc.Invoke(ctx, HistoryService_PageMessages_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *historyServiceClient) SearchMessages(ctx context.Context, in *SearchMessagesRequest, opts ...grpc.CallOption) (*SearchMessagesResponse, error) {
	out := new(SearchMessagesResponse)
	if err := c.cc.Invoke(ctx, HistoryService_SearchMessages_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *historyServiceClient) ScanMessagesFromRow(ctx context.Context, in *ScanMessagesRequest, opts ...grpc.CallOption) (*ScanMessagesResponse, error) {
	out := new(ScanMessagesResponse)
	if err := c.cc.Invoke(ctx, HistoryService_ScanMessagesFromRow_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *historyServiceClient) StreamMessagesFromRow(ctx context.Context, in *ScanMessagesRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[Message], error) {
	stream, err := c.cc.NewStream(ctx, &HistoryService_ServiceDesc.Streams[0], HistoryService_StreamMessagesFromRow_FullMethodName, opts...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[ScanMessagesRequest, Message]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

// HistoryServiceServer is the server API for HistoryService.
type HistoryServiceServer interface {
	FindOrCreateChat(context.Context, *FindOrCreateChatRequest) (*FindOrCreateChatResponse, error)
	PageMessages(context.Context, *PageMessagesRequest) (*PageMessagesResponse, error)
	SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error)
	ScanMessagesFromRow(context.Context, *ScanMessagesRequest) (*ScanMessagesResponse, error)
	StreamMessagesFromRow(*ScanMessagesRequest, grpc.ServerStreamingServer[Message]) error
}

// UnimplementedHistoryServiceServer can be embedded to satisfy HistoryServiceServer.
type UnimplementedHistoryServiceServer struct{}

func (UnimplementedHistoryServiceServer) FindOrCreateChat(context.Context, *FindOrCreateChatRequest) (*FindOrCreateChatResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method FindOrCreateChat not implemented")
}
func (UnimplementedHistoryServiceServer) PageMessages(context.Context, *PageMessagesRequest) (*PageMessagesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PageMessages not implemented")
}
func (UnimplementedHistoryServiceServer) SearchMessages(context.Context, *SearchMessagesRequest) (*SearchMessagesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SearchMessages not implemented")
}
func (UnimplementedHistoryServiceServer) ScanMessagesFromRow(context.Context, *ScanMessagesRequest) (*ScanMessagesResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScanMessagesFromRow not implemented")
}
func (UnimplementedHistoryServiceServer) StreamMessagesFromRow(*ScanMessagesRequest, grpc.ServerStreamingServer[Message]) error {
	return status.Errorf(codes.Unimplemented, "method StreamMessagesFromRow not implemented")
}

func RegisterHistoryServiceServer(s grpc.ServiceRegistrar, srv HistoryServiceServer) {
	s.RegisterService(&HistoryService_ServiceDesc, srv)
}

func _HistoryService_FindOrCreateChat_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(FindOrCreateChatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).FindOrCreateChat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_FindOrCreateChat_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).FindOrCreateChat(ctx, req.(*FindOrCreateChatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_PageMessages_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(PageMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).PageMessages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_PageMessages_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).PageMessages(ctx, req.(*PageMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_SearchMessages_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(SearchMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).SearchMessages(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_SearchMessages_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).SearchMessages(ctx, req.(*SearchMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_ScanMessagesFromRow_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ScanMessagesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(HistoryServiceServer).ScanMessagesFromRow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: HistoryService_ScanMessagesFromRow_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(HistoryServiceServer).ScanMessagesFromRow(ctx, req.(*ScanMessagesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _HistoryService_StreamMessagesFromRow_Handler(srv any, stream grpc.ServerStream) error {
	m := new(ScanMessagesRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(HistoryServiceServer).StreamMessagesFromRow(m, &grpc.GenericServerStream[ScanMessagesRequest, Message]{ServerStream: stream})
}

// HistoryService_ServiceDesc is the grpc.ServiceDesc for HistoryService.
var HistoryService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "wpp.v1.HistoryService",
	HandlerType: (*HistoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "FindOrCreateChat", Handler: _HistoryService_FindOrCreateChat_Handler},
		{MethodName: "PageMessages", Handler: _HistoryService_PageMessages_Handler},
		{MethodName: "SearchMessages", Handler: _HistoryService_SearchMessages_Handler},
		{MethodName: "ScanMessagesFromRow", Handler: _HistoryService_ScanMessagesFromRow_Handler},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamMessagesFromRow",
			Handler:       _HistoryService_StreamMessagesFromRow_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "wpp/v1/history.go",
}
