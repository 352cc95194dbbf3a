package source

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/go-rcon/rcon"
)

// suspend runs op in a goroutine and returns as soon as either op
// completes or ctx is cancelled. On cancellation, conn is closed to
// unblock the in-flight operation; the caller transitions to Closed and
// releases the transport, per the cooperative-asynchronous suspension
// contract: connect, write-and-flush, and each frame read are the only
// points that suspend.
func suspend(ctx context.Context, conn net.Conn, op func() error) error {
	if err := ctx.Err(); err != nil {
		_ = conn.Close()
		return err
	}

	done := make(chan error, 1)
	go func() { done <- op() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		_ = conn.Close()
		<-done // op() always returns once conn is closed
		return ctx.Err()
	}
}

// readFullContext reads exactly len(buf) bytes, suspending at this single
// read operation until it completes or ctx is cancelled.
func readFullContext(ctx context.Context, conn net.Conn, buf []byte) error {
	return suspend(ctx, conn, func() error {
		_, err := io.ReadFull(conn, buf)
		return err
	})
}

// writeContext writes data in full, suspending at this write-and-flush
// operation until it completes or ctx is cancelled.
func writeContext(ctx context.Context, conn net.Conn, data []byte) error {
	return suspend(ctx, conn, func() error {
		_, err := conn.Write(data)
		return err
	})
}

// DecodeContext reads one packet from conn, following the same contract
// as Decode but suspending at each read instead of blocking the calling
// thread for its duration.
func DecodeContext(ctx context.Context, conn net.Conn) (Packet, error) {
	var sizeBuf [4]byte
	if err := readFullContext(ctx, conn, sizeBuf[:]); err != nil {
		return Packet{}, err
	}
	size, err := rcon.ReadSignedInt32LE(bytesReader(sizeBuf[:]))
	if err != nil {
		return Packet{}, err
	}
	if size == 0 {
		return Packet{}, rcon.ErrEmptyResponse
	}

	var idKindBuf [8]byte
	if err := readFullContext(ctx, conn, idKindBuf[:]); err != nil {
		return Packet{}, err
	}
	idReader := bytesReader(idKindBuf[:4])
	kindReader := bytesReader(idKindBuf[4:])
	id, err := rcon.ReadSignedInt32LE(idReader)
	if err != nil {
		return Packet{}, err
	}
	kind, err := rcon.ReadSignedInt32LE(kindReader)
	if err != nil {
		return Packet{}, err
	}

	payloadLen := int64(size) - headerSize
	if payloadLen < 0 {
		return Packet{}, fmt.Errorf("%w: declared size %d too small for header", rcon.ErrFraming, size)
	}

	payload := make([]byte, payloadLen)
	if len(payload) > 0 {
		if err := readFullContext(ctx, conn, payload); err != nil {
			return Packet{}, fmt.Errorf("%w: %v", rcon.ErrFraming, err)
		}
	}

	var terminator [2]byte
	if err := readFullContext(ctx, conn, terminator[:]); err != nil {
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

// bytesReader adapts a byte slice already in memory to an io.Reader
// without an extra allocation for the common 4-byte integer reads.
func bytesReader(b []byte) io.Reader {
	return &sliceReader{b: b}
}

type sliceReader struct {
	b []byte
}

func (s *sliceReader) Read(p []byte) (int, error) {
	if len(s.b) == 0 {
		return 0, io.EOF
	}
	n := copy(p, s.b)
	s.b = s.b[n:]
	return n, nil
}
