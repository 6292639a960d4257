package vlcbridge

import (
	"sync/atomic"

	"github.com/faiface/beep"
	"github.com/sirupsen/logrus"
)

// AudioSink is told when the mixer should start or stop
// pulling. Both calls run on the host update tick.
type AudioSink interface {
	Start()
	Stop()
}

// AudioStats are running counters of an AudioPipeline.
type AudioStats struct {
	Queued  int
	Pushed  uint64
	Dropped uint64
	Mixed   uint64
	Pulling bool
	Paused  bool
}

// AudioPipeline moves decoded samples from the engine audio
// thread to a pull based mixer through a bounded ring.
// The engine side never blocks and neither does Mix.
type AudioPipeline struct {
	ring     *audioRing
	policy   DropPolicy
	rate     beep.SampleRate
	sink     AudioSink
	dispatch *Dispatcher
	log      *logrus.Entry

	pulling  atomic.Bool
	paused   atomic.Bool
	dropping atomic.Bool

	pushed  atomic.Uint64
	dropped atomic.Uint64
	mixed   atomic.Uint64

	// scratch is only touched by the single consumer.
	scratch []AudioFrame
}

// NewAudioPipeline sizes the ring to cfg.AudioBuffer at cfg.MixRate.
// sink may be nil.
func NewAudioPipeline(cfg Config, sink AudioSink, d *Dispatcher, log *logrus.Entry) *AudioPipeline {
	if log == nil {
		log = discardLogger()
	}

	rate := beep.SampleRate(cfg.MixRate)

	return &AudioPipeline{
		ring:     newAudioRing(rate.N(cfg.AudioBuffer)),
		policy:   cfg.DropPolicy,
		rate:     rate,
		sink:     sink,
		dispatch: d,
		log:      log.WithField("component", "audio"),
	}
}

// SampleRate is the mixer rate every block is delivered at.
func (a *AudioPipeline) SampleRate() beep.SampleRate {
	return a.rate
}

// Capacity returns the ring size in frames.
func (a *AudioPipeline) Capacity() int {
	return len(a.ring.slots)
}

// Setup forces 32-bit float stereo at the mixer rate
// and discards pending audio.
func (a *AudioPipeline) Setup(rate, channels uint32) (AudioFormat, error) {
	a.ring.clear()

	a.log.WithFields(logrus.Fields{
		"rate":     rate,
		"channels": channels,
		"mix_rate": int(a.rate),
	}).Debug("audio format negotiated")

	return AudioFormat{
		Format:   "FL32",
		Rate:     uint32(a.rate),
		Channels: 2,
	}, nil
}

// Play queues a block of interleaved stereo samples.
// A trailing odd sample is ignored.
func (a *AudioPipeline) Play(samples []float32, pts int64) {
	var stored, lost uint64

	for i := 0; i+1 < len(samples); i += 2 {
		ok, dropped := a.ring.push(AudioFrame{Left: samples[i], Right: samples[i+1]}, a.policy)
		if ok {
			stored++
		}

		if dropped {
			lost++
		}
	}

	a.pushed.Add(stored)

	if lost > 0 {
		a.dropped.Add(lost)
		if a.dropping.CompareAndSwap(false, true) {
			a.log.WithFields(logrus.Fields{
				"pts":    pts,
				"policy": a.policy,
				"queued": a.ring.Len(),
			}).Warn("audio queue full, dropping frames")
		}
	} else {
		a.dropping.Store(false)
	}

	if stored > 0 && a.pulling.CompareAndSwap(false, true) {
		a.notify(AudioSink.Start)
	}
}

// Pause holds queued frames until Resume.
func (a *AudioPipeline) Pause(_ int64) {
	a.paused.Store(true)
}

// Resume lets the mixer pull queued frames again.
func (a *AudioPipeline) Resume(_ int64) {
	a.paused.Store(false)
}

// Flush stops the mixer and discards everything queued,
// so nothing from before a seek is heard after it.
func (a *AudioPipeline) Flush(pts int64) {
	a.stopPulling()
	a.ring.clear()

	a.log.WithField("pts", pts).Debug("audio flushed")
}

// Drain is a no-op, an empty ring already means done.
func (a *AudioPipeline) Drain() {}

// Cleanup discards queued audio when the engine closes output.
func (a *AudioPipeline) Cleanup() {
	a.stopPulling()
	a.ring.clear()
}

func (a *AudioPipeline) stopPulling() {
	if a.pulling.CompareAndSwap(true, false) {
		a.notify(AudioSink.Stop)
	}
}

func (a *AudioPipeline) notify(fn func(AudioSink)) {
	if a.sink == nil || a.dispatch == nil {
		return
	}

	sink := a.sink
	a.dispatch.Post(func() { fn(sink) })
}

// Mix pops up to len(dst) frames and returns how many were
// written. A short count means the caller should fill the
// rest, it never waits for more data.
func (a *AudioPipeline) Mix(dst []AudioFrame) int {
	if !a.pulling.Load() || a.paused.Load() {
		return 0
	}

	n := a.ring.pop(dst)
	a.mixed.Add(uint64(n))

	return n
}

// Streamer adapts Mix to beep. Missing frames are silence
// and the stream never ends.
func (a *AudioPipeline) Streamer() beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if cap(a.scratch) < len(samples) {
			a.scratch = make([]AudioFrame, len(samples))
		}

		buf := a.scratch[:len(samples)]
		n := a.Mix(buf)

		for i := range samples {
			if i < n {
				samples[i][0] = float64(buf[i].Left)
				samples[i][1] = float64(buf[i].Right)
			} else {
				samples[i] = [2]float64{}
			}
		}

		return len(samples), true
	})
}

// Stats returns a snapshot of the counters.
func (a *AudioPipeline) Stats() AudioStats {
	return AudioStats{
		Queued:  a.ring.Len(),
		Pushed:  a.pushed.Load(),
		Dropped: a.dropped.Load(),
		Mixed:   a.mixed.Load(),
		Pulling: a.pulling.Load(),
		Paused:  a.paused.Load(),
	}
}
