package main

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/vlcbridge"
	"github.com/zimwip/vlcbridge/vlcbridgetest"
)

func newProber(t *testing.T, engine *vlcbridgetest.Engine, fs afero.Fs) *prober {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	cfg := vlcbridge.DefaultConfig()
	inst, err := vlcbridge.NewInstance(engine, cfg, vlcbridge.WithFs(fs), vlcbridge.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(inst.Close)

	return &prober{
		inst: inst,
		opts: probeOptions{Timeout: time.Second, Jobs: 2, Poll: time.Millisecond},
		log:  logrus.NewEntry(logger),
	}
}

func TestProbeReportsTracksAndMeta(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "a.mkv", []byte("data"), 0o644))

	engine := vlcbridgetest.NewEngine()
	engine.ParseDelay = 5 * time.Millisecond
	engine.OnMedia = func(m *vlcbridgetest.Media) {
		m.SetLength(90_000)
		m.SetMeta(vlcbridge.MetaTitle, "Big Buck Bunny")
		m.AddTrack(vlcbridge.Track{Type: vlcbridge.TrackVideo, Codec: 0x34363268, ID: "video/0"})
		m.AddTrack(vlcbridge.Track{Type: vlcbridge.TrackAudio, Language: "eng", Name: "English", ID: "audio/1"})
	}

	p := newProber(t, engine, fs)

	reports, err := p.run(context.Background(), []string{"a.mkv", "https://example.com/live.m3u8"})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	for _, r := range reports {
		require.NoError(t, r.Err, r.Target)
		assert.Equal(t, vlcbridge.ParsedDone, r.Status)
		assert.Equal(t, 90*time.Second, r.Duration)
		assert.Equal(t, []metaField{{Name: "title", Value: "Big Buck Bunny"}}, r.Meta)
		require.Len(t, r.Tracks, 2)
		assert.Equal(t, vlcbridge.TrackVideo, r.Tracks[0].Type)
		assert.Equal(t, "eng", r.Tracks[1].Language)
	}

	// every media is released once probing is done
	for _, m := range engine.Media() {
		assert.Zero(t, m.Refs())
	}
}

func TestProbeCancelled(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "slow.mp4", []byte("data"), 0o644))

	engine := vlcbridgetest.NewEngine()
	engine.ParseDelay = time.Hour

	p := newProber(t, engine, fs)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	reports, err := p.run(ctx, []string{"slow.mp4"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	require.Len(t, reports, 1)
	assert.ErrorIs(t, reports[0].Err, context.DeadlineExceeded)
	assert.Equal(t, vlcbridge.ParsedCancelled, engine.LastMedia().ParsedStatus())
}

func TestProbeFlags(t *testing.T) {
	local := probeOptions{}.flags()
	assert.Equal(t, vlcbridge.ParseLocal|vlcbridge.FetchLocal, local)

	network := probeOptions{Network: true}.flags()
	assert.NotZero(t, network&vlcbridge.ParseNetwork)
	assert.NotZero(t, network&vlcbridge.FetchNetwork)
}

func TestFourCC(t *testing.T) {
	assert.Equal(t, "h264", fourCC(0x34363268))
	assert.Equal(t, "-", fourCC(0))
}

func TestPrintReport(t *testing.T) {
	var buf bytes.Buffer
	printReport(&buf, report{
		Target:   "a.mkv",
		Status:   vlcbridge.ParsedDone,
		Duration: 90 * time.Second,
		Meta:     []metaField{{Name: "title", Value: "Bunny"}},
		Tracks: []vlcbridge.Track{
			{Type: vlcbridge.TrackAudio, Codec: 0x6134706d, Language: "eng", Name: "English", Selected: true},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "a.mkv\n")
	assert.Contains(t, out, "status:   done")
	assert.Contains(t, out, "duration: 1m30s")
	assert.Contains(t, out, "title:    Bunny")
	assert.Contains(t, out, "audio mp4a eng English [selected]")
}
