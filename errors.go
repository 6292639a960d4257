package vlcbridge

import (
	"errors"
	"fmt"
)

// Status is the integer result convention of the native engine.
type Status int

const (
	// StatusOK is returned when the engine
	// accepted the request.
	StatusOK Status = 0
	// StatusError is returned when the engine
	// rejected the request or it was a no-op.
	StatusError Status = -1
)

// OK reports whether the engine accepted the request.
func (s Status) OK() bool {
	return s == StatusOK
}

// Err converts the status into an error wrapping
// ErrCommandFailed, or nil on success.
func (s Status) Err(op string) error {
	if s.OK() {
		return nil
	}

	return fmt.Errorf("%s: %w (status %d)", op, ErrCommandFailed, int(s))
}

var (
	// ErrCommandFailed is returned when the engine
	// reports a transport command as failed.
	ErrCommandFailed = errors.New("vlcbridge: engine rejected the command")
	// ErrOutOfRange is returned when a command argument
	// is outside the range the engine accepts.
	ErrOutOfRange = errors.New("vlcbridge: argument out of range")
	// ErrNoMedia is returned when a session has no media bound.
	ErrNoMedia = errors.New("vlcbridge: no media bound")
	// ErrClosed is returned by operations on a closed
	// session, media or instance.
	ErrClosed = errors.New("vlcbridge: handle already released")
	// ErrFrameAlloc is returned when a video frame buffer
	// cannot be allocated for the negotiated format.
	ErrFrameAlloc = errors.New("vlcbridge: cannot allocate frame buffer")
	// ErrSourceClosed is returned by a media source
	// used after the engine closed it.
	ErrSourceClosed = errors.New("vlcbridge: media source closed")
	// ErrUnsupported is returned when the native engine
	// cannot be loaded on this platform.
	ErrUnsupported = errors.New("vlcbridge: engine not available on this platform")
)
