package source

import (
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// server is a minimal mock Source RCON server used to exercise Client
// against real TCP framing without depending on an actual game server.
type server struct {
	t        *testing.T
	pwd      string
	ln       net.Listener
	wg       sync.WaitGroup
	withPre  bool // prefix auth success with an empty SERVERDATA_RESPONSE_VALUE
	done     chan struct{}
	closeOne sync.Once
}

func newServer(t *testing.T, pwd string, withPre bool) *server {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if !assert.NoError(t, err) {
		return nil
	}

	s := &server{t: t, pwd: pwd, ln: ln, withPre: withPre, done: make(chan struct{})}
	s.wg.Add(1)
	go s.serve()
	return s
}

func (s *server) Addr() string {
	return s.ln.Addr().String()
}

func (s *server) Close() {
	s.closeOne.Do(func() { close(s.done) })
	_ = s.ln.Close()
	s.wg.Wait()
}

func (s *server) serve() {
	defer s.wg.Done()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handle(conn)
	}
}

func (s *server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	for {
		req, err := Decode(conn)
		if err != nil {
			return
		}

		switch req.Kind {
		case KindAuth:
			if s.withPre {
				empty := Packet{ID: req.ID, Kind: KindResponseValue, Terminator: Terminator}
				if _, err := empty.WriteTo(conn); err != nil {
					return
				}
			}
			resp := Packet{Kind: KindAuthResponse, Terminator: Terminator}
			if string(req.Payload) == s.pwd {
				resp.ID = req.ID
			} else {
				resp.ID = -1
			}
			if _, err := resp.WriteTo(conn); err != nil {
				return
			}
		case KindExecCommand:
			if err := s.handleCommand(conn, req); err != nil {
				return
			}
		}
	}
}

func (s *server) handleCommand(conn net.Conn, req Packet) error {
	switch string(req.Payload) {
	case "multi":
		marker, err := Decode(conn)
		if err != nil {
			return err
		}

		for _, part := range []string{"foo", "bar", "baz"} {
			p := Packet{ID: req.ID, Kind: KindResponseValue, Payload: []byte(part), Terminator: Terminator}
			if _, err := p.WriteTo(conn); err != nil {
				return err
			}
		}

		term := Packet{ID: marker.ID, Kind: KindResponseValue, Terminator: Terminator}
		_, err = term.WriteTo(conn)
		return err
	default:
		resp := Packet{ID: req.ID, Kind: KindResponseValue, Payload: []byte("echo: " + string(req.Payload)), Terminator: Terminator}
		_, err := resp.WriteTo(conn)
		return err
	}
}
