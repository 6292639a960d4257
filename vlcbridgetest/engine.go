// Package vlcbridgetest provides a scriptable in-process engine for
// testing code built on vlcbridge without libVLC.
//
// State changes happen on goroutines owned by the engine, the way
// libVLC drives its callbacks from its own threads.
package vlcbridgetest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zimwip/vlcbridge"
)

// ErrBadLocation is returned for an empty media location.
var ErrBadLocation = errors.New("vlcbridgetest: bad location")

// Engine is a fake vlcbridge.Engine.
type Engine struct {
	// Width and Height are the picture size offered to video callbacks.
	Width  uint32
	Height uint32
	// OpenDelay is spent in Opening before Playing.
	OpenDelay time.Duration
	// StopDelay is spent in Stopping before Stopped.
	StopDelay time.Duration
	// ParseDelay is spent in Pending before a parse completes.
	ParseDelay time.Duration
	// QuietStop suppresses the Stopped notification so only
	// polling can observe it.
	QuietStop bool
	// HangStop leaves players in Stopping forever.
	HangStop bool
	// FailPlayer makes NewPlayer fail.
	FailPlayer bool
	// OnMedia is called for every media item as it is created.
	OnMedia func(m *Media)

	mu       sync.Mutex
	nextID   int
	players  []*Player
	media    []*Media
	releases []string
	released bool
	wg       sync.WaitGroup
}

// NewEngine returns an engine offering 640x480 video.
func NewEngine() *Engine {
	return &Engine{Width: 640, Height: 480}
}

func (e *Engine) id() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	return e.nextID
}

func (e *Engine) recordRelease(what string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.releases = append(e.releases, what)
}

// NewPlayer implements vlcbridge.Engine.
func (e *Engine) NewPlayer() (vlcbridge.NativePlayer, error) {
	if e.FailPlayer {
		return nil, errors.New("vlcbridgetest: player creation failed")
	}

	p := newPlayer(e, e.id())

	e.mu.Lock()
	e.players = append(e.players, p)
	e.mu.Unlock()

	return p, nil
}

// NewMediaFromCallbacks implements vlcbridge.Engine.
func (e *Engine) NewMediaFromCallbacks(cb vlcbridge.MediaCallbacks) (vlcbridge.NativeMedia, error) {
	return e.addMedia(&Media{cb: cb}), nil
}

// NewMediaFromLocation implements vlcbridge.Engine.
func (e *Engine) NewMediaFromLocation(mrl string) (vlcbridge.NativeMedia, error) {
	if mrl == "" {
		return nil, ErrBadLocation
	}

	return e.addMedia(&Media{Location: mrl}), nil
}

func (e *Engine) addMedia(m *Media) *Media {
	m.engine = e
	m.id = e.id()
	m.refs = 1
	m.meta = map[vlcbridge.MetaKey]string{}

	e.mu.Lock()
	e.media = append(e.media, m)
	e.mu.Unlock()

	if e.OnMedia != nil {
		e.OnMedia(m)
	}

	return m
}

// Release implements vlcbridge.Engine. It waits for running
// state transitions to finish.
func (e *Engine) Release() {
	e.wg.Wait()
	e.recordRelease("engine")

	e.mu.Lock()
	e.released = true
	e.mu.Unlock()
}

// Released reports whether Release ran.
func (e *Engine) Released() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.released
}

// Players returns every player created so far.
func (e *Engine) Players() []*Player {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]*Player(nil), e.players...)
}

// LastPlayer returns the most recent player.
func (e *Engine) LastPlayer() *Player {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.players) == 0 {
		return nil
	}

	return e.players[len(e.players)-1]
}

// Media returns every media created so far.
func (e *Engine) Media() []*Media {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]*Media(nil), e.media...)
}

// LastMedia returns the most recent media.
func (e *Engine) LastMedia() *Media {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.media) == 0 {
		return nil
	}

	return e.media[len(e.media)-1]
}

// Releases lists releases in order as "player:<id>",
// "media:<id>" and "engine".
func (e *Engine) Releases() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]string(nil), e.releases...)
}

func (e *Engine) spawn(fn func()) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn()
	}()
}

func label(kind string, id int) string {
	return fmt.Sprintf("%s:%d", kind, id)
}
