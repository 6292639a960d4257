package vlcbridge_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/zimwip/vlcbridge"
	"github.com/zimwip/vlcbridge/vlcbridgetest"
)

type harness struct {
	engine *vlcbridgetest.Engine
	inst   *vlcbridge.Instance
	fs     afero.Fs
}

func newHarness(t *testing.T, mutate ...func(*vlcbridge.Config)) *harness {
	t.Helper()

	cfg := vlcbridge.DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.WaitTimeout = 2 * time.Second
	for _, m := range mutate {
		m(&cfg)
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	h := &harness{
		engine: vlcbridgetest.NewEngine(),
		fs:     afero.NewMemMapFs(),
	}

	inst, err := vlcbridge.NewInstance(h.engine, cfg, vlcbridge.WithFs(h.fs), vlcbridge.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(inst.Close)

	h.inst = inst
	return h
}

// media writes a size byte file and creates media for it.
func (h *harness) media(t *testing.T, name string, size int) (*vlcbridge.Media, *vlcbridgetest.Media) {
	t.Helper()

	require.NoError(t, afero.WriteFile(h.fs, name, make([]byte, size), 0o644))

	m, err := h.inst.NewFileMedia(name)
	require.NoError(t, err)

	return m, h.engine.LastMedia()
}

func (h *harness) session(t *testing.T, opts ...vlcbridge.SessionOption) (*vlcbridge.Session, *vlcbridgetest.Player) {
	t.Helper()

	s, err := h.inst.NewSession(opts...)
	require.NoError(t, err)

	return s, h.engine.LastPlayer()
}

// pump runs update ticks until cond holds.
func (h *harness) pump(t *testing.T, cond func() bool) {
	t.Helper()

	require.Eventually(t, func() bool {
		h.inst.Update()
		return cond()
	}, 2*time.Second, time.Millisecond)
}

func audioTrack(id string) vlcbridge.Track {
	return vlcbridge.Track{Type: vlcbridge.TrackAudio, ID: id, Name: id, Language: "en"}
}
