package source

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/go-rcon/rcon"
)

// headerSize is the number of bytes the size field counts in addition to
// the payload: id (4) + kind (4) + terminator (2).
const headerSize = 10

// Terminator is the canonical two-byte packet terminator.
var Terminator = [2]byte{0x00, 0x00}

// Logger receives the decoder's diagnostics, e.g. a non-canonical
// terminator. Callers may replace it; it defaults to logrus's standard
// logger so the library is quiet unless something unexpected happens.
var Logger logrus.FieldLogger = logrus.StandardLogger()

// Packet is a single Source RCON frame.
type Packet struct {
	ID         rcon.SignedInt32LE
	Kind       Kind
	Payload    []byte
	Terminator [2]byte
}

// MakeCommand builds a SERVERDATA_EXECCOMMAND packet with a fresh request
// id, joining args with single spaces.
func MakeCommand(args ...string) Packet {
	return Packet{
		ID:         rcon.NewRequestID(),
		Kind:       KindExecCommand,
		Payload:    []byte(strings.Join(args, " ")),
		Terminator: Terminator,
	}
}

// MakeLogin builds a SERVERDATA_AUTH packet carrying the password.
func MakeLogin(password string) Packet {
	return Packet{
		ID:         rcon.NewRequestID(),
		Kind:       KindAuth,
		Payload:    []byte(password),
		Terminator: Terminator,
	}
}

// Bytes serializes the packet as `size | id | kind | payload | terminator`,
// all integers little-endian, with size prepended counting every byte
// after itself.
func (p Packet) Bytes() []byte {
	body := make([]byte, 0, headerSize+len(p.Payload))
	body = append(body, rcon.SignedInt32LE(p.ID).Bytes()...)
	body = append(body, rcon.SignedInt32LE(p.Kind).Bytes()...)
	body = append(body, p.Payload...)
	body = append(body, p.Terminator[:]...)

	size, _ := rcon.NewSignedInt32LE(int64(len(body)))
	return append(size.Bytes(), body...)
}

// WriteTo writes the packet to w.
func (p Packet) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(p.Bytes())
	return int64(n), err
}

// Decode reads one packet from r.
//
//  1. Read size (i32-LE). size == 0 fails with rcon.ErrEmptyResponse.
//  2. Read id (i32-LE), kind (i32-LE), then size-10 bytes of payload,
//     then 2 bytes of terminator.
//  3. A non-canonical terminator is logged but the packet is still
//     returned.
func Decode(r io.Reader) (Packet, error) {
	size, err := rcon.ReadSignedInt32LE(r)
	if err != nil {
		return Packet{}, err
	}
	if size == 0 {
		return Packet{}, rcon.ErrEmptyResponse
	}

	id, err := rcon.ReadSignedInt32LE(r)
	if err != nil {
		return Packet{}, err
	}

	kind, err := rcon.ReadSignedInt32LE(r)
	if err != nil {
		return Packet{}, err
	}

	payloadLen := int64(size) - headerSize
	if payloadLen < 0 {
		return Packet{}, fmt.Errorf("%w: declared size %d too small for header", rcon.ErrFraming, size)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", rcon.ErrFraming, err)
	}

	var terminator [2]byte
	if _, err := io.ReadFull(r, terminator[:]); err != nil {
		return Packet{}, fmt.Errorf("%w: %v", rcon.ErrFraming, err)
	}

	if terminator != Terminator {
		Logger.WithField("terminator", terminator).Warn("source: unexpected packet terminator")
	}

	return Packet{
		ID:         id,
		Kind:       Kind(kind),
		Payload:    payload,
		Terminator: terminator,
	}, nil
}

// Concat appends other's payload to p's, keeping p's id, kind and
// terminator. Concat is defined only when p.ID == other.ID; mixing ids
// during reassembly is a protocol violation. A nil other returns p
// unchanged, making Concat its own identity.
func (p Packet) Concat(other *Packet) (Packet, error) {
	if other == nil {
		return p, nil
	}
	if p.ID != other.ID {
		return Packet{}, fmt.Errorf("%w: cannot concatenate packets with different ids (%d != %d)", rcon.ErrFraming, p.ID, other.ID)
	}

	payload := make([]byte, 0, len(p.Payload)+len(other.Payload))
	payload = append(payload, p.Payload...)
	payload = append(payload, other.Payload...)

	return Packet{
		ID:         p.ID,
		Kind:       p.Kind,
		Payload:    payload,
		Terminator: p.Terminator,
	}, nil
}
