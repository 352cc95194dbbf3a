package rcon

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignedInt32LERoundTrip(t *testing.T) {
	t.Parallel()

	testcases := []int64{0, 1, -1, int64(SignedInt32LEMin), int64(SignedInt32LEMax), 42, -42}

	for _, v := range testcases {
		i, err := NewSignedInt32LE(v)
		if !assert.NoError(t, err) {
			continue
		}

		decoded, err := ReadSignedInt32LE(bytes.NewReader(i.Bytes()))
		if !assert.NoError(t, err) {
			continue
		}

		assert.Equal(t, i, decoded)
	}
}

func TestSignedInt32LEOutOfRange(t *testing.T) {
	t.Parallel()

	_, err := NewSignedInt32LE(int64(SignedInt32LEMax) + 1)
	assert.ErrorIs(t, err, ErrValueRange)

	_, err = NewSignedInt32LE(int64(SignedInt32LEMin) - 1)
	assert.ErrorIs(t, err, ErrValueRange)
}

func TestReadSignedInt32LEShortRead(t *testing.T) {
	t.Parallel()

	_, err := ReadSignedInt32LE(bytes.NewReader([]byte{1, 2}))
	assert.ErrorIs(t, err, ErrFraming)
}

func TestNewRequestIDNeverMinusOne(t *testing.T) {
	t.Parallel()

	for i := 0; i < 10000; i++ {
		id := NewRequestID()
		assert.NotEqual(t, SignedInt32LE(-1), id)
		assert.True(t, int32(id) >= 0 && int32(id) <= SignedInt32LEMax)
	}
}
