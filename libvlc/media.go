//go:build darwin || linux

package libvlc

import (
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/zimwip/vlcbridge"
)

type media struct {
	engine *Engine
	ptr    uintptr
	id     uintptr
	events uintptr
	cb     vlcbridge.MediaCallbacks
	log    *logrus.Entry

	mu     sync.Mutex
	parsed func(vlcbridge.ParsedStatus)
	// refs mirrors the engine's count: the owner plus bound players.
	// The registry entry, and so the byte callbacks, live until zero.
	refs int
}

func (m *media) attach() {
	m.events = mediaEventManager(m.ptr)
	if eventAttach(m.events, mediaParsedChanged, mediaEventCB, m.id) != 0 {
		m.log.Warn("parsed event attach failed")
	}
}

func (m *media) retain() {
	m.mu.Lock()
	m.refs++
	m.mu.Unlock()
}

func (m *media) drop() {
	m.mu.Lock()
	m.refs--
	last := m.refs == 0
	m.mu.Unlock()

	if last {
		medias.Release(m.id)
	}
}

func (m *media) Duration() int64 { return mediaGetDuration(m.ptr) }

func (m *media) ParsedStatus() vlcbridge.ParsedStatus {
	return parsedStatus(mediaGetParsedStatus(m.ptr))
}

func (m *media) ParseRequest(flags vlcbridge.ParseFlag, timeout time.Duration) vlcbridge.Status {
	return vlcbridge.Status(mediaParseRequest(m.engine.inst, m.ptr, int32(flags), parseTimeout(timeout)))
}

func (m *media) ParseStop() { mediaParseStop(m.engine.inst, m.ptr) }

func (m *media) TrackList(typ vlcbridge.TrackType) vlcbridge.NativeTrackList {
	l := mediaGetTracklist(m.ptr, int32(typ))
	if l == 0 {
		return nil
	}
	return &trackList{ptr: l}
}

func (m *media) Meta(key vlcbridge.MetaKey) (string, bool) {
	p := mediaGetMeta(m.ptr, int32(key))
	if p == 0 {
		return "", false
	}
	defer vlcFree(p)

	return goString(p), true
}

func (m *media) Stats() (vlcbridge.MediaStats, bool) {
	c := new(cMediaStats)
	var pin runtime.Pinner
	pin.Pin(c)
	defer pin.Unpin()

	if !mediaGetStats(m.ptr, uintptr(unsafe.Pointer(c))) {
		return vlcbridge.MediaStats{}, false
	}
	return c.stats(), true
}

func (m *media) SetParsedHandler(fn func(vlcbridge.ParsedStatus)) {
	m.mu.Lock()
	m.parsed = fn
	m.mu.Unlock()
}

func (m *media) parsedHandler() func(vlcbridge.ParsedStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parsed
}

// Release drops the owner's reference.
func (m *media) Release() {
	eventDetach(m.events, mediaParsedChanged, mediaEventCB, m.id)
	m.SetParsedHandler(nil)
	mediaRelease(m.ptr)
	m.drop()
}

type trackList struct {
	ptr uintptr
}

func (l *trackList) Count() int { return int(tracklistCount(l.ptr)) }

func (l *trackList) At(i int) vlcbridge.NativeTrack {
	t := tracklistAt(l.ptr, uintptr(i))
	if t == 0 {
		return nil
	}
	return &track{ptr: t}
}

func (l *trackList) Delete() { tracklistDelete(l.ptr) }

type track struct {
	ptr uintptr
}

func (t *track) Info() vlcbridge.Track { return decodeTrack(t.ptr) }
func (t *track) Hold()                 { trackHold(t.ptr) }
func (t *track) Release()              { trackRelease(t.ptr) }
