package rcon

import "math/rand"

// NewRequestID draws a fresh request id uniformly from [0, SignedInt32LEMax].
// The range already excludes -1, which the Source protocol reserves to
// signal authentication failure.
//
// rand.Int31 returns a non-negative 31-bit integer, i.e. a value in
// exactly [0, SignedInt32LEMax], so no further masking is needed.
func NewRequestID() SignedInt32LE {
	return SignedInt32LE(rand.Int31())
}
