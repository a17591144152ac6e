package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Payloads are well-known types, so the descriptor is written by hand rather than generated.
const (
	ServiceName             = "directchat.v1.ChatService"
	SendMessageFullMethod   = "/directchat.v1.ChatService/SendMessage"
	ConnectFullMethod       = "/directchat.v1.ChatService/Connect"
	serviceDescMetadataFile = "directchat/v1/chat.proto"
)

type ChatServiceServer interface {
	SendMessage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Connect(req *emptypb.Empty, stream ChatService_ConnectServer) error
}

type ChatService_ConnectServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type chatServiceConnectServer struct {
	grpc.ServerStream
}

func (x *chatServiceConnectServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

var ChatService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SendMessage", Handler: chatServiceSendMessageHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Connect", Handler: chatServiceConnectHandler, ServerStreams: true},
	},
	Metadata: serviceDescMetadataFile,
}

func RegisterChatServiceServer(s grpc.ServiceRegistrar, srv ChatServiceServer) {
	s.RegisterService(&ChatService_ServiceDesc, srv)
}

func chatServiceSendMessageHandler(srv any, ctx context.Context, dec func(any) error,
	interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatServiceServer).SendMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: SendMessageFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ChatServiceServer).SendMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func chatServiceConnectHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ChatServiceServer).Connect(in, &chatServiceConnectServer{ServerStream: stream})
}

// ChatServiceClient is used by tooling and tests.
type ChatServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewChatServiceClient(cc grpc.ClientConnInterface) *ChatServiceClient {
	return &ChatServiceClient{cc: cc}
}

func (c *ChatServiceClient) SendMessage(ctx context.Context, in *structpb.Struct,
	opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SendMessageFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

type ChatService_ConnectClient interface {
	Recv() (*structpb.Struct, error)
	grpc.ClientStream
}

type chatServiceConnectClient struct {
	grpc.ClientStream
}

func (x *chatServiceConnectClient) Recv() (*structpb.Struct, error) {
	m := new(structpb.Struct)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *ChatServiceClient) Connect(ctx context.Context, in *emptypb.Empty,
	opts ...grpc.CallOption) (ChatService_ConnectClient, error) {
	stream, err := c.cc.NewStream(ctx, &ChatService_ServiceDesc.Streams[0], ConnectFullMethod, opts...)
	if err != nil {
		return nil, err
	}
	x := &chatServiceConnectClient{ClientStream: stream}
	if err = x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err = x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}
