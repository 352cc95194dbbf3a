package source

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsyncClientLoginAndRun(t *testing.T) {
	t.Parallel()

	s := newServer(t, "hunter2", false)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, err := DialContext(ctx, s.Addr(), "hunter2")
	if !assert.NoError(t, err) {
		return
	}
	defer c.Close()

	resp, err := c.Run(ctx, "help")
	if !assert.NoError(t, err) {
		return
	}
	assert.Equal(t, "echo: help", resp)
}

func TestAsyncClientCancellationClosesConnection(t *testing.T) {
	t.Parallel()

	s := newServer(t, "hunter2", false)
	defer s.Close()

	bg, cancel := context.WithCancel(context.Background())
	c, err := DialContext(bg, s.Addr(), "hunter2")
	if !assert.NoError(t, err) {
		return
	}
	defer c.Close()

	ctx, innerCancel := context.WithCancel(context.Background())
	innerCancel()

	_, err = c.Run(ctx, "help")
	assert.ErrorIs(t, err, context.Canceled)

	cancel()
}
