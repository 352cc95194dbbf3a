package battleye

import (
	"errors"
	"fmt"

	"github.com/go-rcon/rcon"
)

var (
	// ErrInvalidMessageBufferSize is returned if MessageBuffer Option is used with a size less than 1.
	ErrInvalidMessageBufferSize = errors.New("battleye: invalid message buffer size")

	// ErrInvalidPacketSize is returned if the packet size is less than the minimum size.
	ErrInvalidPacketSize = fmt.Errorf("battleye: invalid packet size: %w", rcon.ErrFraming)

	// ErrInvalidHeader is returned if packet does not start with 0x42, 0x45 (BE).
	ErrInvalidHeader = fmt.Errorf("battleye: invalid header: %w", rcon.ErrFraming)

	// ErrInvalidChecksum is returned the checksum in the packet header is invalid.
	ErrInvalidChecksum = fmt.Errorf("battleye: invalid checksum: %w", rcon.ErrFraming)

	// ErrInvalidEndOfHeader is returned if the last byte of the header is not 0xff.
	ErrInvalidEndOfHeader = fmt.Errorf("battleye: invalid end of header: %w", rcon.ErrFraming)

	// ErrUnknownPacketType is returned if packet type cannot be determined.
	ErrUnknownPacketType = fmt.Errorf("battleye: unknown packet type: %w", rcon.ErrFraming)

	// ErrInvalidLoginResponse is returned if the response byte in the login response is invalid.
	ErrInvalidLoginResponse = errors.New("battleye: invalid login response")

	// ErrNilOption is returned by NewClient if an Option is nil.
	ErrNilOption = errors.New("battleye: nil option")

	// ErrTimeout is returned after the timeout period elapsed while waiting for response or error from the BattlEye server.
	ErrTimeout = errors.New("battleye: timeout")
)
