//go:build leakcheck

package vlcbridge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/vlcbridge"
)

func TestNoLeaksAfterInstanceClose(t *testing.T) {
	vlcbridge.ResetTracker()

	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 10)
	fake.AddTrack(audioTrack("a1"))

	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	tl := s.TrackList(vlcbridge.TrackAudio, false)

	kinds := map[vlcbridge.ResourceKind]bool{}
	for _, rec := range vlcbridge.DumpLeaks() {
		kinds[rec.Kind] = true
		assert.NotEmpty(t, rec.Stack)
	}
	assert.True(t, kinds[vlcbridge.ResPlayer])
	assert.True(t, kinds[vlcbridge.ResMedia])
	assert.True(t, kinds[vlcbridge.ResSource])
	assert.True(t, kinds[vlcbridge.ResFrameBuffer])
	assert.True(t, kinds[vlcbridge.ResTrackList])
	assert.True(t, kinds[vlcbridge.ResTrack])

	tl.Close()
	h.inst.Close()

	assert.Empty(t, vlcbridge.DumpLeaks())
	assert.Equal(t, 0, vlcbridge.TrackedCount())
}
