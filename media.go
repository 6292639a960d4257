package vlcbridge

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// Media is a playable item created by an Instance, backed by a
// Source or by a location the engine opens itself.
type Media struct {
	inst     *Instance
	id       uintptr
	native   NativeMedia
	source   *Source
	location string
	log      *logrus.Entry

	mu       sync.Mutex
	released bool
	handlers []func(ParsedStatus)
}

func newMedia(inst *Instance, native NativeMedia, src *Source, location string) *Media {
	m := &Media{
		inst:     inst,
		native:   native,
		source:   src,
		location: location,
	}

	m.id = inst.media.Register(m)
	m.log = inst.log.WithFields(logrus.Fields{
		"component": "media",
		"media":     m.id,
	})
	trackAlloc(ResMedia, m.id)

	native.SetParsedHandler(func(status ParsedStatus) {
		inst.dispatch.Post(func() { m.emitParsed(status) })
	})

	return m
}

// ID is the registry id of the media within its Instance.
func (m *Media) ID() uintptr {
	return m.id
}

// Source returns the byte source, nil for location media.
func (m *Media) Source() *Source {
	return m.source
}

// Location returns the MRL, empty for source backed media.
func (m *Media) Location() string {
	return m.location
}

func (m *Media) handle() (NativeMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.released {
		return nil, ErrClosed
	}

	return m.native, nil
}

// Duration returns the length known to the engine, 0 when unknown.
func (m *Media) Duration() time.Duration {
	n, err := m.handle()
	if err != nil {
		return 0
	}

	ms := n.Duration()
	if ms < 0 {
		return 0
	}

	return time.Duration(ms) * time.Millisecond
}

// ParsedStatus returns the current parse state.
func (m *Media) ParsedStatus() ParsedStatus {
	n, err := m.handle()
	if err != nil {
		return ParsedNone
	}

	return n.ParsedStatus()
}

// ParseRequest starts an asynchronous parse. Completion is
// reported to OnParsedChanged handlers on the update tick.
// A zero timeout uses the engine default.
func (m *Media) ParseRequest(flags ParseFlag, timeout time.Duration) error {
	n, err := m.handle()
	if err != nil {
		return err
	}

	return n.ParseRequest(flags, timeout).Err("parse request")
}

// ParseStop cancels a running parse.
func (m *Media) ParseStop() {
	if n, err := m.handle(); err == nil {
		n.ParseStop()
	}
}

// OnParsedChanged registers fn for parse status changes.
func (m *Media) OnParsedChanged(fn func(ParsedStatus)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.handlers = append(m.handlers, fn)
}

func (m *Media) emitParsed(status ParsedStatus) {
	m.mu.Lock()
	if m.released {
		m.mu.Unlock()
		return
	}
	handlers := append([]func(ParsedStatus){}, m.handlers...)
	m.mu.Unlock()

	m.log.WithField("status", status).Debug("media parsed status changed")

	for _, fn := range handlers {
		fn(status)
	}
}

// TrackList snapshots the media's tracks of typ. The caller
// closes the list.
func (m *Media) TrackList(typ TrackType) *TrackList {
	n, err := m.handle()
	if err != nil {
		return newTrackList(nil)
	}

	return newTrackList(n.TrackList(typ))
}

// Meta returns one meta field if the engine knows it.
func (m *Media) Meta(key MetaKey) mo.Option[string] {
	n, err := m.handle()
	if err != nil {
		return mo.None[string]()
	}

	return mo.TupleToOption(n.Meta(key))
}

// Stats returns the engine counters while the media is playing.
func (m *Media) Stats() mo.Option[MediaStats] {
	n, err := m.handle()
	if err != nil {
		return mo.None[MediaStats]()
	}

	return mo.TupleToOption(n.Stats())
}

// Release drops the caller's reference. A session still bound
// to the media keeps the engine item alive.
func (m *Media) Release() {
	if _, ok := m.inst.media.Release(m.id); !ok {
		return
	}

	m.mu.Lock()
	m.released = true
	m.handlers = nil
	m.mu.Unlock()

	m.native.SetParsedHandler(nil)
	m.native.Release()
	trackFree(ResMedia, m.id)

	m.log.Debug("media released")
}

func (m *Media) String() string {
	if m.source != nil {
		return fmt.Sprintf("media(%d, %s)", m.id, m.source.Name())
	}

	return fmt.Sprintf("media(%d, %s)", m.id, m.location)
}
