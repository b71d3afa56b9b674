// Package remote accepts key events over gRPC and feeds them to the host
// loop, and replays recorded input scripts against a running instance.
//
// The service is declared by hand over protobuf well-known types, so no
// generated stubs are needed:
//
//	service RemoteInput {
//	  rpc StreamKeys(stream google.protobuf.Struct) returns (google.protobuf.Empty);
//	}
//
// Each Struct carries "key" (string), "released" (bool) and "repeat" (number).
package remote

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/user-none/eblitnes/input"
)

const (
	serviceName = "eblitnes.RemoteInput"
	streamKeys  = "/" + serviceName + "/StreamKeys"

	// DefaultAddress is the listen address used when none is configured.
	DefaultAddress = "localhost:50051"

	// DefaultQueueSize bounds the events waiting for the host loop.
	DefaultQueueSize = 256
)

type keyStreamer interface {
	StreamKeys(grpc.ClientStreamingServer[structpb.Struct, emptypb.Empty]) error
}

func streamKeysHandler(srv any, stream grpc.ServerStream) error {
	return srv.(keyStreamer).StreamKeys(&grpc.GenericServerStream[structpb.Struct, emptypb.Empty]{ServerStream: stream})
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*keyStreamer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamKeys",
			Handler:       streamKeysHandler,
			ClientStreams: true,
		},
	},
	Metadata: "eblitnes/remote.proto",
}

// Server receives remote key events and queues them for the host loop.
type Server struct {
	events chan input.KeyEvent

	mu     sync.Mutex
	server *grpc.Server
	addr   net.Addr
}

// NewServer creates a server whose queue holds up to queueSize events.
func NewServer(queueSize int) *Server {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	s := &Server{
		events: make(chan input.KeyEvent, queueSize),
		server: grpc.NewServer(),
	}
	s.server.RegisterService(&serviceDesc, s)
	return s
}

// Start listens on addr and serves in the background.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	go func() {
		if err := s.Serve(lis); err != nil {
			log.Printf("Warning: remote input server stopped: %v", err)
		}
	}()
	return nil
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	s.mu.Lock()
	s.addr = lis.Addr()
	s.mu.Unlock()

	err := s.server.Serve(lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

// Addr returns the listening address, or nil before Serve.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	s.server.GracefulStop()
}

// Drain passes every queued event to fn without blocking and returns the
// number delivered. Hosts call it from the goroutine that drives ticks.
func (s *Server) Drain(fn func(input.KeyEvent)) int {
	n := 0
	for {
		select {
		case ev := <-s.events:
			fn(ev)
			n++
		default:
			return n
		}
	}
}

// StreamKeys implements the RemoteInput service.
func (s *Server) StreamKeys(stream grpc.ClientStreamingServer[structpb.Struct, emptypb.Empty]) error {
	ctx := stream.Context()
	for {
		msg, err := stream.Recv()
		if err == io.EOF {
			return stream.SendAndClose(&emptypb.Empty{})
		}
		if err != nil {
			return err
		}

		ev, err := decodeEvent(msg)
		if err != nil {
			return status.Error(codes.InvalidArgument, err.Error())
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func encodeEvent(ev input.KeyEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"key":      string(ev.Key),
		"released": ev.Released,
		"repeat":   ev.RepeatCount,
	})
}

func decodeEvent(msg *structpb.Struct) (input.KeyEvent, error) {
	fields := msg.GetFields()

	key := fields["key"].GetStringValue()
	if key == "" {
		return input.KeyEvent{}, errors.New("missing key")
	}

	repeat := 1.0
	if v, ok := fields["repeat"]; ok {
		repeat = v.GetNumberValue()
	}
	if repeat < 1 || repeat != math.Trunc(repeat) || repeat > math.MaxInt32 {
		return input.KeyEvent{}, fmt.Errorf("invalid repeat count %v", repeat)
	}

	return input.KeyEvent{
		Key:         input.Key(key),
		Released:    fields["released"].GetBoolValue(),
		RepeatCount: int(repeat),
	}, nil
}
