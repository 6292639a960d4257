package vlcbridge

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkRecorder struct {
	starts int
	stops  int
}

func (s *sinkRecorder) Start() { s.starts++ }
func (s *sinkRecorder) Stop()  { s.stops++ }

// stereo returns n interleaved frames with left = base+i, right = -(base+i).
func stereo(n int, base float32) []float32 {
	out := make([]float32, 0, n*2)
	for i := 0; i < n; i++ {
		v := base + float32(i)
		out = append(out, v, -v)
	}
	return out
}

func newTestAudio(policy DropPolicy) (*AudioPipeline, *sinkRecorder, *Dispatcher) {
	cfg := DefaultConfig()
	cfg.MixRate = 4
	cfg.AudioBuffer = time.Second
	cfg.DropPolicy = policy

	sink := &sinkRecorder{}
	d := NewDispatcher()

	return NewAudioPipeline(cfg, sink, d, nil), sink, d
}

func TestAudioSetupForcesStereoFloat(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	require.Equal(t, 4, a.Capacity())

	a.Play(stereo(2, 1), 0)

	format, err := a.Setup(48000, 6)
	require.NoError(t, err)
	assert.Equal(t, AudioFormat{Format: "FL32", Rate: 4, Channels: 2}, format)
	assert.Equal(t, 0, a.Stats().Queued, "setup discards pending audio")
}

func TestAudioRingSizedToBufferDuration(t *testing.T) {
	a := NewAudioPipeline(DefaultConfig(), nil, nil, nil)
	assert.Equal(t, 44100*5, a.Capacity())
}

func TestAudioFirstPushStartsSinkOnHostTick(t *testing.T) {
	a, sink, d := newTestAudio(DropNewest)

	assert.Equal(t, 0, a.Mix(make([]AudioFrame, 4)), "idle pipeline yields nothing")

	a.Play(stereo(1, 1), 0)
	assert.Equal(t, 0, sink.starts, "sink is only signalled from Drain")

	d.Drain()
	assert.Equal(t, 1, sink.starts)

	a.Play(stereo(1, 2), 0)
	d.Drain()
	assert.Equal(t, 1, sink.starts, "already pulling")
}

func TestAudioMixReturnsShortCount(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	a.Play(stereo(2, 10), 0)

	dst := make([]AudioFrame, 4)
	n := a.Mix(dst)
	require.Equal(t, 2, n)
	assert.Equal(t, AudioFrame{Left: 10, Right: -10}, dst[0])
	assert.Equal(t, AudioFrame{Left: 11, Right: -11}, dst[1])
	assert.Equal(t, uint64(2), a.Stats().Mixed)
}

func TestAudioOddSampleIgnored(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	a.Play([]float32{1, 2, 3}, 0)

	assert.Equal(t, 1, a.Stats().Queued)
}

func TestAudioDropNewestWhenFull(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	a.Play(stereo(6, 0), 0)

	stats := a.Stats()
	assert.Equal(t, 4, stats.Queued)
	assert.Equal(t, uint64(4), stats.Pushed)
	assert.Equal(t, uint64(2), stats.Dropped)

	dst := make([]AudioFrame, 8)
	n := a.Mix(dst)
	require.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, float32(i), dst[i].Left)
	}
}

func TestAudioDropOldestWhenFull(t *testing.T) {
	a, _, _ := newTestAudio(DropOldest)
	a.Play(stereo(6, 0), 0)

	stats := a.Stats()
	assert.Equal(t, 4, stats.Queued)
	assert.Equal(t, uint64(2), stats.Dropped)

	dst := make([]AudioFrame, 8)
	n := a.Mix(dst)
	require.Equal(t, 4, n)
	for i := 0; i < n; i++ {
		assert.Equal(t, float32(i+2), dst[i].Left)
	}
}

func TestAudioPauseKeepsFrames(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	a.Play(stereo(2, 0), 0)

	a.Pause(0)
	assert.Equal(t, 0, a.Mix(make([]AudioFrame, 4)))
	assert.Equal(t, 2, a.Stats().Queued)

	a.Resume(0)
	assert.Equal(t, 2, a.Mix(make([]AudioFrame, 4)))
}

func TestAudioFlushEmptiesAndStops(t *testing.T) {
	a, sink, d := newTestAudio(DropNewest)
	a.Play(stereo(3, 0), 0)
	d.Drain()

	a.Flush(1000)

	stats := a.Stats()
	assert.Equal(t, 0, stats.Queued)
	assert.False(t, stats.Pulling)
	assert.Equal(t, 0, a.Mix(make([]AudioFrame, 4)))

	d.Drain()
	assert.Equal(t, 1, sink.stops)

	a.Resume(1000)
	a.Play(stereo(1, 100), 1000)
	d.Drain()
	assert.Equal(t, 2, sink.starts)

	dst := make([]AudioFrame, 4)
	n := a.Mix(dst)
	require.Equal(t, 1, n)
	assert.Equal(t, float32(100), dst[0].Left, "only audio produced after the flush")
}

func TestAudioCleanupStopsPulling(t *testing.T) {
	a, sink, d := newTestAudio(DropNewest)
	a.Play(stereo(2, 0), 0)

	a.Drain()
	assert.Equal(t, 2, a.Stats().Queued, "drain keeps queued audio")

	a.Cleanup()
	d.Drain()

	assert.Equal(t, 0, a.Stats().Queued)
	assert.Equal(t, 1, sink.stops)

	a.Cleanup()
	d.Drain()
	assert.Equal(t, 1, sink.stops, "stop is only signalled once")
}

func TestAudioStreamerFillsSilence(t *testing.T) {
	a, _, _ := newTestAudio(DropNewest)
	a.Play([]float32{0.5, -0.5}, 0)

	samples := make([][2]float64, 3)
	for i := range samples {
		samples[i] = [2]float64{9, 9}
	}

	n, ok := a.Streamer().Stream(samples)
	assert.Equal(t, 3, n)
	assert.True(t, ok)
	assert.Equal(t, [2]float64{0.5, -0.5}, samples[0])
	assert.Equal(t, [2]float64{}, samples[1])
	assert.Equal(t, [2]float64{}, samples[2])
}
