//go:build !darwin && !linux

package libvlc

import (
	"github.com/sirupsen/logrus"
	"github.com/zimwip/vlcbridge"
)

// Engine is unavailable on this platform.
type Engine struct{}

// New always fails with vlcbridge.ErrUnsupported.
func New(cfg vlcbridge.Config, logger *logrus.Logger) (*Engine, error) {
	return nil, vlcbridge.ErrUnsupported
}

func (e *Engine) NewPlayer() (vlcbridge.NativePlayer, error) {
	return nil, vlcbridge.ErrUnsupported
}

func (e *Engine) NewMediaFromCallbacks(vlcbridge.MediaCallbacks) (vlcbridge.NativeMedia, error) {
	return nil, vlcbridge.ErrUnsupported
}

func (e *Engine) NewMediaFromLocation(string) (vlcbridge.NativeMedia, error) {
	return nil, vlcbridge.ErrUnsupported
}

func (e *Engine) Release() {}
