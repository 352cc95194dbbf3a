// Package source implements the Source RCON protocol (length-prefixed,
// little-endian, null-terminated frames, TCP transport) as documented at
// https://developer.valvesoftware.com/wiki/Source_RCON_Protocol.
package source

import "github.com/go-rcon/rcon"

// Kind enumerates Source RCON packet types. SERVERDATA_AUTH_RESPONSE and
// SERVERDATA_EXECCOMMAND share wire value 2; disambiguation between them
// is positional (phase of the session), not by the tag.
type Kind rcon.SignedInt32LE

const (
	// KindAuth is sent by the client to authenticate the connection.
	KindAuth Kind = 3
	// KindAuthResponse notifies the client of its authentication status.
	KindAuthResponse Kind = 2
	// KindExecCommand is a command issued to the server by a client.
	KindExecCommand Kind = 2
	// KindResponseValue is the response to a KindExecCommand request.
	KindResponseValue Kind = 0
)
