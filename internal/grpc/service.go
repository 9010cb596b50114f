package grpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the board service.
// Messages are google.protobuf.Struct documents, see proto/draftboard.proto.
const ServiceName = "draftboard.BoardService"

// BoardServiceServer is implemented by *Server
type BoardServiceServer interface {
	boardService()
}

// EventStream is the server side of StreamEvents
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type eventStream struct {
	grpc.ServerStream
}

func (x *eventStream) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

type unaryMethod func(s *Server, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Unary methods in declaration order
var unaryMethods = []struct {
	name string
	fn   unaryMethod
}{
	{"GetState", (*Server).GetState},
	{"GetBoard", (*Server).GetBoard},
	{"AddCategory", (*Server).AddCategory},
	{"AddItem", (*Server).AddItem},
	{"BulkAddItems", (*Server).BulkAddItems},
	{"RestatusSelected", (*Server).RestatusSelected},
	{"RemoveSelected", (*Server).RemoveSelected},
	{"ReconcileEdit", (*Server).ReconcileEdit},
	{"GetWatchlist", (*Server).GetWatchlist},
	{"SetWatchlistOrder", (*Server).SetWatchlistOrder},
	{"RestatusWatchlist", (*Server).RestatusWatchlist},
	{"Export", (*Server).Export},
	{"Import", (*Server).Import},
	{"Reset", (*Server).Reset},
	{"ClearAll", (*Server).ClearAll},
	{"Reindex", (*Server).Reindex},
}

// FullMethod returns the path of a service method, e.g. /draftboard.BoardService/AddItem
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unaryHandler(name string, fn unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(*Server), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(name),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(*Server), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func streamEventsHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*Server).StreamEvents(in, &eventStream{stream})
}

// ServiceDesc describes the board service for grpc.Server.RegisterService
var ServiceDesc = func() grpc.ServiceDesc {
	desc := grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*BoardServiceServer)(nil),
		Streams: []grpc.StreamDesc{
			{
				StreamName:    "StreamEvents",
				Handler:       streamEventsHandler,
				ServerStreams: true,
			},
		},
		Metadata: "proto/draftboard.proto",
	}
	for _, m := range unaryMethods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: m.name,
			Handler:    unaryHandler(m.name, m.fn),
		})
	}
	return desc
}()

// RegisterBoardServiceServer registers srv on s
func RegisterBoardServiceServer(s grpc.ServiceRegistrar, srv *Server) {
	s.RegisterService(&ServiceDesc, srv)
}

// decodeRequest copies a Struct request into v through its JSON form
func decodeRequest(req *structpb.Struct, v any) error {
	if req == nil {
		return nil
	}
	data, err := protojson.Marshal(req)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	return nil
}

// encodeResponse converts v into a Struct through its JSON form
func encodeResponse(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "response is not an object: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// Client calls the board service with plain Go values
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req encoded as a Struct and decodes the reply into resp
func (c *Client) Call(ctx context.Context, method string, req, resp any) error {
	in, err := encodeResponse(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, resp)
}

// StreamEvents opens the event stream. recv blocks for the next event.
func (c *Client) StreamEvents(ctx context.Context) (recv func(v any) error, err error) {
	stream, err := c.cc.NewStream(ctx, &ServiceDesc.Streams[0], FullMethod("StreamEvents"))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&structpb.Struct{}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return func(v any) error {
		msg := new(structpb.Struct)
		if err := stream.RecvMsg(msg); err != nil {
			return err
		}
		data, err := protojson.Marshal(msg)
		if err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		return json.Unmarshal(data, v)
	}, nil
}
