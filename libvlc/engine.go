//go:build darwin || linux

package libvlc

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/sirupsen/logrus"
	"github.com/zimwip/vlcbridge"
)

// Engine is one libVLC instance.
type Engine struct {
	inst  uintptr
	id    uintptr
	log   *logrus.Entry
	level logrus.Level

	once sync.Once
}

var _ vlcbridge.Engine = (*Engine)(nil)

// New loads libvlc and creates an instance with cfg.Args. Engine log
// lines at or above cfg.EngineLevel are forwarded to logger.
func New(cfg vlcbridge.Config, logger *logrus.Logger) (*Engine, error) {
	if err := load(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("%w: %w", vlcbridge.ErrUnsupported, err)
	}
	initCallbacks()

	var pin runtime.Pinner
	argv := cStrings(cfg.Args, &pin)
	inst := vlcNew(int32(len(cfg.Args)), argv)
	pin.Unpin()

	if inst == 0 {
		return nil, errors.New("libvlc_new failed")
	}

	e := &Engine{
		inst:  inst,
		log:   logger.WithFields(logrus.Fields{"component": "libvlc", "library": libPath}),
		level: cfg.EngineLevel(),
	}
	e.id = engines.Register(e)
	vlcLogSet(inst, logCB, e.id)

	e.log.WithField("args", cfg.Args).Debug("engine created")

	return e, nil
}

// cStrings builds a pinned char*[] for args.
func cStrings(args []string, pin *runtime.Pinner) uintptr {
	if len(args) == 0 {
		return 0
	}

	ptrs := make([]uintptr, len(args))
	for i, a := range args {
		b := append([]byte(a), 0)
		pin.Pin(&b[0])
		ptrs[i] = uintptr(unsafe.Pointer(&b[0]))
	}
	pin.Pin(&ptrs[0])

	return uintptr(unsafe.Pointer(&ptrs[0]))
}

func (e *Engine) NewPlayer() (vlcbridge.NativePlayer, error) {
	ptr := playerNew(e.inst)
	if ptr == 0 {
		return nil, errors.New("libvlc_media_player_new failed")
	}

	p := &player{
		engine: e,
		ptr:    ptr,
		events: playerEventManager(ptr),
	}
	p.id = players.Register(p)
	p.log = e.log.WithField("player", p.id)

	return p, nil
}

func (e *Engine) NewMediaFromCallbacks(cb vlcbridge.MediaCallbacks) (vlcbridge.NativeMedia, error) {
	m := &media{engine: e, cb: cb, refs: 1}
	m.id = medias.Register(m)
	m.log = e.log.WithField("media", m.id)

	m.ptr = mediaNewCallbacks(mediaOpenCB, mediaReadCB, mediaSeekCB, mediaCloseCB, m.id)
	if m.ptr == 0 {
		medias.Release(m.id)
		return nil, errors.New("libvlc_media_new_callbacks failed")
	}
	m.attach()

	return m, nil
}

func (e *Engine) NewMediaFromLocation(mrl string) (vlcbridge.NativeMedia, error) {
	m := &media{engine: e, refs: 1}
	m.id = medias.Register(m)
	m.log = e.log.WithFields(logrus.Fields{"media": m.id, "mrl": mrl})

	m.ptr = mediaNewLocation(mrl)
	if m.ptr == 0 {
		medias.Release(m.id)
		return nil, fmt.Errorf("libvlc_media_new_location %q failed", mrl)
	}
	m.attach()

	return m, nil
}

// Release destroys the instance. Players and media must be
// released first.
func (e *Engine) Release() {
	e.once.Do(func() {
		vlcLogUnset(e.inst)
		vlcRelease(e.inst)
		engines.Release(e.id)
		e.log.Debug("engine released")
	})
}
