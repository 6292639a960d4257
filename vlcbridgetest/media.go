package vlcbridgetest

import (
	"sync"
	"time"

	"github.com/zimwip/vlcbridge"
)

// Media is a fake vlcbridge.NativeMedia.
type Media struct {
	Location string

	engine *Engine
	id     int
	cb     vlcbridge.MediaCallbacks

	mu       sync.Mutex
	refs     int
	length   int64
	tracks   []*Track
	meta     map[vlcbridge.MetaKey]string
	parsed   vlcbridge.ParsedStatus
	onParsed func(vlcbridge.ParsedStatus)
	cancel   chan struct{}
	opened   bool
	read     int64
	playing  int
}

// SetLength sets the duration in milliseconds.
func (m *Media) SetLength(ms int64) *Media {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.length = ms
	return m
}

// AddTrack appends a track. The first track of a type is
// selected by default when the media plays.
func (m *Media) AddTrack(info vlcbridge.Track) *Track {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &Track{info: info}
	m.tracks = append(m.tracks, t)

	return t
}

// SetMeta sets one meta field.
func (m *Media) SetMeta(key vlcbridge.MetaKey, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.meta[key] = value
}

// Refs returns the reference count. Zero means freed.
func (m *Media) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.refs
}

// BytesRead returns how much the fake demuxer pulled from the source.
func (m *Media) BytesRead() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.read
}

// Opened reports whether the source is currently open.
func (m *Media) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.opened
}

func (m *Media) hold() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refs++
}

func (m *Media) Duration() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.length == 0 {
		return -1
	}

	return m.length
}

func (m *Media) ParsedStatus() vlcbridge.ParsedStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.parsed
}

func (m *Media) ParseRequest(_ vlcbridge.ParseFlag, _ time.Duration) vlcbridge.Status {
	m.mu.Lock()
	if m.parsed == vlcbridge.ParsedPending {
		m.mu.Unlock()
		return vlcbridge.StatusError
	}
	m.parsed = vlcbridge.ParsedPending
	cancel := make(chan struct{})
	m.cancel = cancel
	m.mu.Unlock()

	delay := m.engine.ParseDelay
	m.engine.spawn(func() {
		select {
		case <-time.After(delay):
			m.finishParse(vlcbridge.ParsedDone)
		case <-cancel:
		}
	})

	return vlcbridge.StatusOK
}

func (m *Media) ParseStop() {
	m.finishParse(vlcbridge.ParsedCancelled)
}

func (m *Media) finishParse(status vlcbridge.ParsedStatus) {
	m.mu.Lock()
	if m.parsed != vlcbridge.ParsedPending {
		m.mu.Unlock()
		return
	}
	m.parsed = status
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
	fn := m.onParsed
	m.mu.Unlock()

	if fn != nil {
		fn(status)
	}
}

func (m *Media) SetParsedHandler(fn func(vlcbridge.ParsedStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.onParsed = fn
}

func (m *Media) TrackList(typ vlcbridge.TrackType) vlcbridge.NativeTrackList {
	m.mu.Lock()
	defer m.mu.Unlock()

	return newTrackList(m.tracks, typ, false, nil)
}

func (m *Media) Meta(key vlcbridge.MetaKey) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.meta[key]
	return v, ok
}

func (m *Media) Stats() (vlcbridge.MediaStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playing == 0 {
		return vlcbridge.MediaStats{}, false
	}

	return vlcbridge.MediaStats{ReadBytes: m.read, DemuxReadBytes: m.read}, true
}

func (m *Media) Release() {
	m.mu.Lock()
	m.refs--
	freed := m.refs == 0
	m.mu.Unlock()

	if freed {
		m.finishParse(vlcbridge.ParsedCancelled)
		m.engine.recordRelease(label("media", m.id))
	}
}

// open runs the source the way the demuxer does: open, read to
// the end, and keep it open until stop.
func (m *Media) open() error {
	if m.cb == nil {
		return nil
	}

	if _, err := m.cb.Open(); err != nil {
		m.cb.Close()
		return err
	}

	buf := make([]byte, 4096)
	var total int64
	for {
		n, err := m.cb.Read(buf)
		if err != nil {
			m.cb.Close()
			return err
		}

		if n == 0 {
			break
		}
		total += int64(n)
	}

	m.mu.Lock()
	m.opened = true
	m.read = total
	m.playing++
	m.mu.Unlock()

	return nil
}

func (m *Media) close() {
	m.mu.Lock()
	wasOpen := m.opened
	m.opened = false
	if m.playing > 0 {
		m.playing--
	}
	m.mu.Unlock()

	if wasOpen && m.cb != nil {
		m.cb.Close()
	}
}

func (m *Media) markPlaying() {
	if m.cb != nil {
		return
	}

	m.mu.Lock()
	m.playing++
	m.opened = true
	m.mu.Unlock()
}
