package source

import (
	"context"
	"net"

	"github.com/go-rcon/rcon"
)

// AsyncClient is the cooperative-asynchronous counterpart to Client. Its
// operations suspend at connect, write-and-flush, and each frame read,
// rather than blocking the calling goroutine; cancelling the context
// passed to any operation cancels the in-flight transport operation and
// transitions the client to closed, releasing the connection. No other
// operation suspends.
type AsyncClient struct {
	conn  net.Conn
	probe bool
}

// DialContext establishes a TCP connection to address, suspending on
// connect, and authenticates with password if it's non-empty.
func DialContext(ctx context.Context, address string, password string, opts ...AsyncOption) (*AsyncClient, error) {
	c := &AsyncClient{}
	for _, opt := range opts {
		opt(c)
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	if password != "" {
		if err := c.Login(ctx, password); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// AsyncOption configures an AsyncClient at construction time.
type AsyncOption func(*AsyncClient)

// WithAsyncFragmentationProbe mirrors WithFragmentationProbe for AsyncClient.
func WithAsyncFragmentationProbe(enabled bool) AsyncOption {
	return func(c *AsyncClient) { c.probe = enabled }
}

// Close releases the underlying transport. Legal from any state.
func (c *AsyncClient) Close() error {
	return c.conn.Close()
}

// Login performs the SERVERDATA_AUTH handshake, suspending at each
// read/write rather than blocking.
func (c *AsyncClient) Login(ctx context.Context, password string) error {
	req := MakeLogin(password)
	if err := writeContext(ctx, c.conn, req.Bytes()); err != nil {
		return err
	}

	for {
		resp, err := DecodeContext(ctx, c.conn)
		if err != nil {
			return err
		}
		if resp.Kind != KindAuthResponse {
			continue
		}
		if resp.ID == -1 {
			return rcon.ErrWrongPassword
		}
		return nil
	}
}

// Run mirrors Client.Run, suspending at each read/write rather than
// blocking the calling goroutine.
func (c *AsyncClient) Run(ctx context.Context, command string, args ...string) (string, error) {
	req := MakeCommand(append([]string{command}, args...)...)
	if err := writeContext(ctx, c.conn, req.Bytes()); err != nil {
		return "", err
	}

	if c.probe {
		marker := MakeCommand()
		if err := writeContext(ctx, c.conn, marker.Bytes()); err != nil {
			return "", err
		}
	}

	first, err := DecodeContext(ctx, c.conn)
	if err != nil {
		return "", err
	}

	if first.ID != req.ID {
		return "", &rcon.RequestIDMismatch{Sent: req.ID, Received: first.ID}
	}

	if !c.probe {
		return string(first.Payload), nil
	}

	result := first
	for {
		next, err := DecodeContext(ctx, c.conn)
		if err != nil {
			return string(result.Payload), err
		}
		if next.ID != result.ID {
			break
		}
		result, err = result.Concat(&next)
		if err != nil {
			return string(result.Payload), err
		}
	}

	return string(result.Payload), nil
}
