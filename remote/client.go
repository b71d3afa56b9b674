package remote

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/user-none/eblitnes/controller"
	"github.com/user-none/eblitnes/input"
)

// Client sends key events to a Server.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to a server at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// KeyStream is an open StreamKeys call.
type KeyStream struct {
	stream grpc.ClientStreamingClient[structpb.Struct, emptypb.Empty]
}

// Stream opens a key event stream.
func (c *Client) Stream(ctx context.Context) (*KeyStream, error) {
	cs, err := c.conn.NewStream(ctx, &serviceDesc.Streams[0], streamKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to open stream: %w", err)
	}
	return &KeyStream{stream: &grpc.GenericClientStream[structpb.Struct, emptypb.Empty]{ClientStream: cs}}, nil
}

// Send transmits one event.
func (k *KeyStream) Send(ev input.KeyEvent) error {
	msg, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return k.stream.Send(msg)
}

// Close ends the stream and waits for the server to accept it. Once it
// returns without error every sent event is queued on the server.
func (k *KeyStream) Close() error {
	_, err := k.stream.CloseAndRecv()
	return err
}

// Replay plays steps on a new stream. Each step's buttons are pressed
// through the first key bound to them in bindings and held for the
// step's frame count.
func (c *Client) Replay(ctx context.Context, steps []Step, bindings input.Bindings, frame time.Duration) error {
	ks, err := c.Stream(ctx)
	if err != nil {
		return err
	}

	var held controller.State
	for i, step := range steps {
		for _, ev := range transitions(held, step.Buttons, bindings) {
			if err := ks.Send(ev); err != nil {
				return fmt.Errorf("step %d: failed to send: %w", i+1, err)
			}
		}
		held = step.Buttons

		if err := sleep(ctx, time.Duration(step.Frames)*frame); err != nil {
			return err
		}
	}

	for _, ev := range transitions(held, 0, bindings) {
		if err := ks.Send(ev); err != nil {
			return fmt.Errorf("failed to send release: %w", err)
		}
	}
	return ks.Close()
}

// transitions returns the key events that move from one button state to
// another. Buttons with no bound key are skipped.
func transitions(from, to controller.State, bindings input.Bindings) []input.KeyEvent {
	var out []input.KeyEvent
	for _, b := range controller.Buttons() {
		was, is := from.Pressed(b), to.Pressed(b)
		if was == is {
			continue
		}
		keys := bindings.KeysFor(b)
		if len(keys) == 0 {
			continue
		}
		out = append(out, input.KeyEvent{Key: keys[0], Released: !is, RepeatCount: 1})
	}
	return out
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
