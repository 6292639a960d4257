package vlcbridge

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForWokenBySignal(t *testing.T) {
	sig := newStateSignal()

	var ready atomic.Bool
	go func() {
		time.Sleep(10 * time.Millisecond)
		ready.Store(true)
		sig.broadcast()
	}()

	start := time.Now()
	err := waitFor(context.Background(), sig, time.Hour, 0, "ready", ready.Load)
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestWaitForPollsWithoutSignal(t *testing.T) {
	sig := newStateSignal()

	var ready atomic.Bool
	time.AfterFunc(10*time.Millisecond, func() { ready.Store(true) })

	err := waitFor(context.Background(), sig, time.Millisecond, time.Second, "ready", ready.Load)
	assert.NoError(t, err)
}

func TestWaitForTimeout(t *testing.T) {
	err := waitFor(context.Background(), newStateSignal(), time.Millisecond, 20*time.Millisecond, "never",
		func() bool { return false })

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.ErrorContains(t, err, "never")
}

func TestWaitForContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitFor(ctx, newStateSignal(), time.Hour, 0, "never", func() bool { return false })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStatusErr(t *testing.T) {
	assert.NoError(t, StatusOK.Err("play"))

	err := StatusError.Err("play")
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.ErrorContains(t, err, "play")
}

func TestNilTrackList(t *testing.T) {
	var tl *TrackList
	assert.Equal(t, 0, tl.Count())
	assert.True(t, tl.At(0).IsAbsent())
	assert.Empty(t, tl.Selected())
	assert.NotPanics(t, tl.Close)

	empty := newTrackList(nil)
	assert.Equal(t, 0, empty.Count())
	assert.True(t, empty.At(-1).IsAbsent())
	assert.NotPanics(t, empty.Close)
}
