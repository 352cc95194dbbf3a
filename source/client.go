package source

import (
	"net"
	"time"

	"github.com/go-rcon/rcon"
)

const (
	// defaultDialTimeout bounds the initial TCP handshake.
	defaultDialTimeout = 10 * time.Second
	// defaultTimeout bounds every subsequent read/write.
	defaultTimeout = 10 * time.Second
	// fragmentTimeout bounds each read of the probe's reassembly loop.
	// Once the first reply to a command has arrived, further fragments
	// (and the marker's terminating reply) are expected back-to-back;
	// this tighter deadline is scoped to that loop only and never
	// affects Login or the initial Run read.
	fragmentTimeout = 2 * time.Second
)

// Option configures a Client at construction time.
type Option func(*Client)

// WithTimeout sets the read/write deadline applied to every operation
// after the connection is established.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.timeout = timeout }
}

// WithDialTimeout sets the deadline for the initial TCP dial.
func WithDialTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.dialTimeout = timeout }
}

// WithFragmentationProbe enables the probe-with-secondary-command
// reassembly strategy (see DESIGN.md's Open Question resolution): after
// sending a command, a second, empty command is sent on the same
// channel, and the client keeps concatenating replies that share the
// original request id until a reply with a different id (the marker's)
// arrives. Disabled by default, in which case Run returns the first
// reply packet as-is.
func WithFragmentationProbe(enabled bool) Option {
	return func(c *Client) { c.probe = enabled }
}

// Client is a Source RCON client. It owns a single TCP connection for
// the lifetime of the session and does not serialize concurrent use
// internally: callers sharing one Client across goroutines must provide
// their own synchronization.
type Client struct {
	conn        net.Conn
	timeout     time.Duration
	dialTimeout time.Duration
	probe       bool
}

// Dial establishes a TCP connection to address and, if password is
// non-empty, authenticates immediately.
func Dial(address string, password string, opts ...Option) (*Client, error) {
	c := &Client{
		timeout:     defaultTimeout,
		dialTimeout: defaultDialTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := net.DialTimeout("tcp", address, c.dialTimeout)
	if err != nil {
		return nil, err
	}
	c.conn = conn

	if password != "" {
		if err := c.Login(password); err != nil {
			_ = c.Close()
			return nil, err
		}
	}

	return c, nil
}

// Close releases the underlying transport. Legal from any state.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Login performs the SERVERDATA_AUTH handshake. Any packet read before
// the first SERVERDATA_AUTH_RESPONSE is ignored, since a server may
// precede it with a throwaway empty SERVERDATA_RESPONSE_VALUE.
func (c *Client) Login(password string) error {
	req := MakeLogin(password)
	if err := c.write(req); err != nil {
		return err
	}

	for {
		resp, err := c.readPacket()
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

// Run sends a SERVERDATA_EXECCOMMAND built from command and args and
// returns the (possibly reassembled) reply text.
func (c *Client) Run(command string, args ...string) (string, error) {
	req := MakeCommand(append([]string{command}, args...)...)
	if err := c.write(req); err != nil {
		return "", err
	}

	if c.probe {
		marker := MakeCommand()
		if err := c.write(marker); err != nil {
			return "", err
		}
	}

	first, err := c.readPacket()
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
	err = c.withTimeout(fragmentTimeout, func() error {
		for {
			next, err := c.readPacket()
			if err != nil {
				return err
			}
			if next.ID != result.ID {
				return nil
			}
			result, err = result.Concat(&next)
			if err != nil {
				return err
			}
		}
	})
	if err != nil {
		return string(result.Payload), err
	}

	return string(result.Payload), nil
}

// withTimeout temporarily overrides the client's read/write timeout for
// the duration of fn, restoring the previous value before returning.
func (c *Client) withTimeout(timeout time.Duration, fn func() error) error {
	original := c.timeout
	c.timeout = timeout
	defer func() { c.timeout = original }()
	return fn()
}

func (c *Client) write(p Packet) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return err
	}
	_, err := p.WriteTo(c.conn)
	return err
}

func (c *Client) readPacket() (Packet, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return Packet{}, err
	}
	return Decode(c.conn)
}
