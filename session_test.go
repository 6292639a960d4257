package vlcbridge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/vlcbridge"
)

func TestSessionPlaySync(t *testing.T) {
	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 1000)
	s, _ := h.session(t)

	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	assert.Equal(t, vlcbridge.StatePlaying, s.State())
	assert.True(t, s.IsPlaying())
	assert.Equal(t, int64(1000), fake.BytesRead())
	assert.Same(t, m, s.Media())
}

func TestSessionPlayWithoutMedia(t *testing.T) {
	h := newHarness(t)
	s, _ := h.session(t)

	assert.ErrorIs(t, s.Play(), vlcbridge.ErrNoMedia)
	assert.ErrorIs(t, s.SeekTime(time.Second, true), vlcbridge.ErrNoMedia)
}

func TestSessionStopWaitsForStopped(t *testing.T) {
	h := newHarness(t)
	h.engine.StopDelay = 30 * time.Millisecond

	m, fake := h.media(t, "/clip.mkv", 1000)
	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	start := time.Now()
	require.NoError(t, s.Stop(context.Background()))

	assert.Equal(t, vlcbridge.StateStopped, s.State())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.False(t, fake.Opened(), "source closed by the engine on stop")
}

func TestSessionStopWhenIdleReturnsImmediately(t *testing.T) {
	h := newHarness(t)
	h.engine.HangStop = true

	s, player := h.session(t)
	require.NoError(t, s.Stop(context.Background()))
	assert.NotContains(t, player.Calls(), "stop")
}

func TestSessionStopTwice(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)
	s, player := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	stops := lo.Count(player.Calls(), "stop")
	assert.Equal(t, 1, stops)
}

func TestSessionStopWithoutNotification(t *testing.T) {
	h := newHarness(t)
	h.engine.QuietStop = true

	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, vlcbridge.StateStopped, s.State())
}

func TestSessionStopTimesOut(t *testing.T) {
	h := newHarness(t, func(c *vlcbridge.Config) { c.WaitTimeout = 50 * time.Millisecond })
	h.engine.HangStop = true

	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	err := s.Stop(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, vlcbridge.StateStopping, s.State())
}

func TestSessionStopHonorsContext(t *testing.T) {
	h := newHarness(t, func(c *vlcbridge.Config) { c.WaitTimeout = 0 })
	h.engine.HangStop = true

	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)
}

func TestSessionSetAudioTrackOutOfRange(t *testing.T) {
	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 10)
	fake.AddTrack(audioTrack("a1"))
	fake.AddTrack(audioTrack("a2"))

	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))
	assert.Equal(t, []string{"a1"}, s.SelectedTrackIDs(vlcbridge.TrackAudio))

	s.SetAudioTrack(1)
	assert.Equal(t, 1, s.AudioTrack())
	assert.Equal(t, []string{"a2"}, s.SelectedTrackIDs(vlcbridge.TrackAudio))

	for _, idx := range []int{2, 5, -1} {
		s.SetAudioTrack(idx)
		assert.Equal(t, 1, s.AudioTrack())
		assert.Equal(t, []string{"a2"}, s.SelectedTrackIDs(vlcbridge.TrackAudio))
	}
}

func TestSessionPlaySyncReappliesTrackAndPause(t *testing.T) {
	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 10)
	fake.AddTrack(audioTrack("a1"))
	fake.AddTrack(audioTrack("a2"))

	s, player := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	s.SetAudioTrack(1)
	require.NoError(t, s.SetPause(true))
	require.NoError(t, s.Stop(context.Background()))

	// Rebinding makes the engine forget the selection.
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	assert.Equal(t, []string{"a2"}, s.SelectedTrackIDs(vlcbridge.TrackAudio))
	assert.Equal(t, vlcbridge.StatePaused, s.State())
	assert.True(t, s.Paused())

	calls := player.Calls()
	assert.Equal(t, "set_pause true", calls[len(calls)-1])
}

func TestSessionMediaRoundTrip(t *testing.T) {
	h := newHarness(t)

	a, fakeA := h.media(t, "/a.mkv", 100)
	fakeA.SetLength(1000)
	fakeA.AddTrack(audioTrack("a1"))

	b, fakeB := h.media(t, "/b.mkv", 200)
	fakeB.SetLength(5000)
	fakeB.AddTrack(audioTrack("b1"))
	fakeB.AddTrack(audioTrack("b2"))

	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(a))
	require.NoError(t, s.PlaySync(context.Background()))
	assert.Equal(t, time.Second, s.Length())
	require.NoError(t, s.Stop(context.Background()))

	require.NoError(t, s.SetMedia(b))
	require.NoError(t, s.PlaySync(context.Background()))
	assert.Equal(t, 5*time.Second, s.Length())
	assert.Same(t, b, s.Media())

	tl := s.TrackList(vlcbridge.TrackAudio, false)
	defer tl.Close()

	ids := lo.Map(tl.All(), func(t vlcbridge.Track, _ int) string { return t.ID })
	assert.Equal(t, []string{"b1", "b2"}, ids)
	assert.Equal(t, int64(200), fakeB.BytesRead())
}

func TestSessionEventsDeliveredOnUpdate(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)

	var (
		mu     sync.Mutex
		events []vlcbridge.EventType
	)
	s.On(func(e vlcbridge.Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e.Type)
	})

	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	mu.Lock()
	assert.Empty(t, events, "handlers only run inside Update")
	mu.Unlock()

	h.pump(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return lo.Contains(events, vlcbridge.EventPlaying)
	})

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []vlcbridge.EventType{
		vlcbridge.EventOpening,
		vlcbridge.EventBuffering,
		vlcbridge.EventPlaying,
	}, events)
}

func TestSessionTransportValidation(t *testing.T) {
	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 10)
	fake.SetLength(1000)

	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))

	assert.ErrorIs(t, s.SeekTime(time.Second, true), vlcbridge.ErrCommandFailed, "not seekable before playing")

	require.NoError(t, s.PlaySync(context.Background()))
	assert.True(t, s.IsSeekable())
	assert.True(t, s.CanPause())

	assert.ErrorIs(t, s.SeekRatio(1.5, true), vlcbridge.ErrOutOfRange)
	assert.ErrorIs(t, s.SeekRatio(-0.1, false), vlcbridge.ErrOutOfRange)
	require.NoError(t, s.SeekRatio(0.5, true))
	assert.Equal(t, 500*time.Millisecond, s.Time())
	assert.InDelta(t, 0.5, s.Position(), 1e-9)

	require.NoError(t, s.JumpTime(250*time.Millisecond))
	assert.Equal(t, 750*time.Millisecond, s.Time())

	assert.ErrorIs(t, s.SeekTime(-time.Second, true), vlcbridge.ErrOutOfRange)

	assert.ErrorIs(t, s.SetRate(0), vlcbridge.ErrOutOfRange)
	require.NoError(t, s.SetRate(2))
	assert.Equal(t, float32(2), s.Rate())
}

func TestSessionPauseToggles(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	require.NoError(t, s.Pause())
	assert.Equal(t, vlcbridge.StatePaused, s.State())
	assert.True(t, s.Paused())

	require.NoError(t, s.Pause())
	assert.Equal(t, vlcbridge.StatePlaying, s.State())
	assert.False(t, s.Paused())
}

type audioSink struct {
	mu     sync.Mutex
	starts int
}

func (a *audioSink) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.starts++
}

func (a *audioSink) Stop() {}

func (a *audioSink) started() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.starts
}

func TestSessionFramesAndSamplesReachSinks(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)

	var frames []*vlcbridge.VideoFrame
	video := vlcbridge.VideoSinkFunc(func(f *vlcbridge.VideoFrame) { frames = append(frames, f) })
	audio := &audioSink{}

	s, player := h.session(t, vlcbridge.WithVideoSink(video), vlcbridge.WithAudioSink(audio))

	var videoEvents int
	s.On(func(e vlcbridge.Event) {
		if e.Type == vlcbridge.EventVideoFrame {
			videoEvents++
		}
	})

	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	require.True(t, player.EmitFrame(7))
	require.True(t, player.EmitAudio([]float32{0.5, -0.5, 0.25, -0.25}, 0))

	h.pump(t, func() bool { return len(frames) == 1 && audio.started() == 1 })

	f := frames[0]
	assert.Equal(t, 640, f.Width)
	assert.Equal(t, 480, f.Height)
	assert.Equal(t, 1920, f.Stride)
	assert.Equal(t, byte(7), f.Data[0])
	assert.Equal(t, 1, videoEvents)

	dst := make([]vlcbridge.AudioFrame, 4)
	n := s.Audio().Mix(dst)
	require.Equal(t, 2, n)
	assert.Equal(t, vlcbridge.AudioFrame{Left: 0.5, Right: -0.5}, dst[0])
}

func TestSessionSeekFlushesAudio(t *testing.T) {
	h := newHarness(t)
	m, fake := h.media(t, "/clip.mkv", 10)
	fake.SetLength(10000)

	s, player := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	require.True(t, player.EmitAudio(make([]float32, 64), 0))
	require.Equal(t, 32, s.Audio().Stats().Queued)

	require.NoError(t, s.SeekTime(5*time.Second, true))

	stats := s.Audio().Stats()
	assert.Equal(t, 0, stats.Queued)
	assert.False(t, stats.Pulling)
}

func TestSessionWithoutPipelines(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)

	s, player := h.session(t, vlcbridge.WithoutVideo(), vlcbridge.WithoutAudio())
	assert.Nil(t, s.Video())
	assert.Nil(t, s.Audio())

	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))
	assert.False(t, player.EmitFrame(1))
}

func TestSessionChaptersAndNavigation(t *testing.T) {
	h := newHarness(t)
	s, player := h.session(t)
	player.SetChapters(3, 2)

	assert.Equal(t, 3, s.ChapterCount())
	s.NextChapter()
	s.NextChapter()
	s.NextChapter()
	assert.Equal(t, 2, s.Chapter())
	s.PreviousChapter()
	assert.Equal(t, 1, s.Chapter())
	s.SetChapter(9)
	assert.Equal(t, 1, s.Chapter())

	assert.Equal(t, 2, s.TitleCount())
	s.SetTitle(1)
	assert.Equal(t, 1, s.Title())

	s.NextFrame()
	s.Navigate(vlcbridge.NavigateUp)
	s.UnselectTrackType(vlcbridge.TrackText)
	assert.Subset(t, player.Calls(), []string{"next_frame", "navigate 1", "unselect_track_type text"})
}

func TestSessionCloseReleasesPlayerOnce(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)
	s, player := h.session(t)
	require.NoError(t, s.SetMedia(m))
	require.NoError(t, s.PlaySync(context.Background()))

	s.Close()
	s.Close()

	assert.True(t, player.Released())
	assert.False(t, player.HasEventHandler())
	assert.Equal(t, 0, h.inst.Sessions())
	assert.Equal(t, 1, lo.Count(h.engine.Releases(), "player:2"))

	assert.ErrorIs(t, s.Play(), vlcbridge.ErrClosed)
	assert.ErrorIs(t, s.Stop(context.Background()), vlcbridge.ErrClosed)
	assert.ErrorIs(t, s.SetMedia(m), vlcbridge.ErrClosed)
}

func TestSessionSetReleasedMedia(t *testing.T) {
	h := newHarness(t)
	m, _ := h.media(t, "/clip.mkv", 10)
	s, _ := h.session(t)

	m.Release()
	assert.ErrorIs(t, s.SetMedia(m), vlcbridge.ErrClosed)
	assert.Nil(t, s.Media())
}
