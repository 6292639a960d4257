package vlcbridge

import (
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/zimwip/vlcbridge/internal/handle"
)

// Option configures an Instance.
type Option func(*Instance)

// WithFs sets the filesystem NewFileMedia reads from.
func WithFs(fs afero.Fs) Option {
	return func(i *Instance) { i.fs = fs }
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *logrus.Logger) Option {
	return func(i *Instance) { i.logger = l }
}

// Instance owns one engine and everything created from it.
// Several instances may live side by side.
type Instance struct {
	engine   Engine
	cfg      Config
	fs       afero.Fs
	logger   *logrus.Logger
	log      *logrus.Entry
	dispatch *Dispatcher

	sessions handle.Registry[*Session]
	media    handle.Registry[*Media]

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewInstance wraps engine. The instance takes ownership of
// engine and releases it on Close.
func NewInstance(engine Engine, cfg Config, opts ...Option) (*Instance, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	i := &Instance{
		engine:   engine,
		cfg:      cfg,
		fs:       afero.NewOsFs(),
		dispatch: NewDispatcher(),
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.logger == nil {
		i.logger = NewLogger(cfg)
	}
	i.log = logrus.NewEntry(i.logger)

	return i, nil
}

// Config returns the settings the instance was built with.
func (i *Instance) Config() Config {
	return i.cfg
}

// Logger returns the instance logger.
func (i *Instance) Logger() *logrus.Logger {
	return i.logger
}

// Fs returns the filesystem file media is read from.
func (i *Instance) Fs() afero.Fs {
	return i.fs
}

// Update runs engine notifications and deferred frame deliveries
// queued since the last call. Call it from the host update tick;
// it returns the number of callbacks run.
func (i *Instance) Update() int {
	return i.dispatch.Drain()
}

// Sessions returns the number of open sessions.
func (i *Instance) Sessions() int {
	return i.sessions.Len()
}

// MediaCount returns the number of unreleased media.
func (i *Instance) MediaCount() int {
	return i.media.Len()
}

// NewSession creates a player with its video and audio pipelines.
func (i *Instance) NewSession(opts ...SessionOption) (*Session, error) {
	if i.closed.Load() {
		return nil, ErrClosed
	}

	var o sessionOptions
	for _, opt := range opts {
		opt(&o)
	}

	native, err := i.engine.NewPlayer()
	if err != nil {
		return nil, fmt.Errorf("new player: %w", err)
	}

	return newSession(i, native, o), nil
}

// NewMedia creates media pulled from the stream open returns.
func (i *Instance) NewMedia(open Opener) (*Media, error) {
	return i.NewMediaFromSource(NewSource(open))
}

// NewFileMedia creates media reading path from the instance fs.
func (i *Instance) NewFileMedia(path string) (*Media, error) {
	return i.NewMediaFromSource(NewFileSource(i.fs, path))
}

// NewMediaFromSource creates media served by src.
func (i *Instance) NewMediaFromSource(src *Source) (*Media, error) {
	if i.closed.Load() {
		return nil, ErrClosed
	}

	src.setLogger(i.log.WithField("component", "source"))

	native, err := i.engine.NewMediaFromCallbacks(src)
	if err != nil {
		return nil, fmt.Errorf("new media %s: %w", src.Name(), err)
	}

	return newMedia(i, native, src, ""), nil
}

// NewMediaFromLocation creates media the engine opens from mrl,
// a URL such as file:///a.mkv or https://host/stream.m3u8.
func (i *Instance) NewMediaFromLocation(mrl string) (*Media, error) {
	if i.closed.Load() {
		return nil, ErrClosed
	}

	native, err := i.engine.NewMediaFromLocation(mrl)
	if err != nil {
		return nil, fmt.Errorf("new media %s: %w", mrl, err)
	}

	return newMedia(i, native, nil, mrl), nil
}

// Close closes every session, then releases every media, then
// the engine. Pending notifications are discarded.
func (i *Instance) Close() {
	i.closeOnce.Do(func() {
		i.closed.Store(true)

		ids := i.sessions.Snapshot()
		slices.Reverse(ids)
		for _, id := range ids {
			if s, ok := i.sessions.Lookup(id); ok {
				s.Close()
			}
		}

		ids = i.media.Snapshot()
		slices.Reverse(ids)
		for _, id := range ids {
			if m, ok := i.media.Lookup(id); ok {
				m.Release()
			}
		}

		i.dispatch.Close()
		i.engine.Release()

		i.log.Debug("instance closed")
	})
}
