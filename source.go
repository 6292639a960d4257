package vlcbridge

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Opener opens the byte stream behind a Source. It is
// called on an engine thread when the demuxer starts.
type Opener func() (io.ReadSeekCloser, error)

// Source serves a seekable byte stream to the engine through
// MediaCallbacks. The stream is released on Close, which the
// engine calls once per Open, not when the owning Media is
// released. The engine may Open again to replay the media.
type Source struct {
	open Opener
	name string
	id   uintptr
	log  *logrus.Entry

	mu     sync.Mutex
	stream io.ReadSeekCloser
	size   uint64
}

// NewSource wraps an opener.
func NewSource(open Opener) *Source {
	return &Source{
		open: open,
		name: "reader",
		id:   nextResourceID(),
		log:  discardLogger(),
	}
}

// NewFileSource opens path on fs when the engine asks for it.
func NewFileSource(fs afero.Fs, path string) *Source {
	s := NewSource(func() (io.ReadSeekCloser, error) {
		return fs.Open(path)
	})
	s.name = path

	return s
}

// Name describes the stream in logs.
func (s *Source) Name() string {
	return s.name
}

// Size returns the stream length measured on Open.
func (s *Source) Size() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.size
}

func (s *Source) setLogger(log *logrus.Entry) {
	s.log = log.WithField("source", s.name)
}

// Open opens the stream, measures it and rewinds to the start.
func (s *Source) Open() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		_ = s.stream.Close()
		s.stream = nil
		trackFree(ResSource, s.id)
	}

	stream, err := s.open()
	if err != nil {
		s.log.WithError(err).Error("cannot open media stream")
		return 0, fmt.Errorf("open %s: %w", s.name, err)
	}

	end, err := stream.Seek(0, io.SeekEnd)
	if err == nil {
		_, err = stream.Seek(0, io.SeekStart)
	}

	if err != nil {
		_ = stream.Close()
		s.log.WithError(err).Error("cannot measure media stream")
		return 0, fmt.Errorf("measure %s: %w", s.name, err)
	}

	s.stream = stream
	s.size = uint64(end)
	trackAlloc(ResSource, s.id)

	s.log.WithField("size", s.size).Debug("media stream opened")

	return s.size, nil
}

// Read performs one read of the underlying stream.
// End of stream is reported as 0, nil.
func (s *Source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return 0, ErrSourceClosed
	}

	n, err := s.stream.Read(p)
	if errors.Is(err, io.EOF) {
		return n, nil
	}

	if err != nil {
		s.log.WithError(err).Warn("media stream read failed")
		return n, err
	}

	return n, nil
}

// Seek moves to an absolute byte offset.
func (s *Source) Seek(offset uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return ErrSourceClosed
	}

	if _, err := s.stream.Seek(int64(offset), io.SeekStart); err != nil {
		s.log.WithError(err).WithField("offset", offset).Warn("media stream seek failed")
		return err
	}

	return nil
}

// Close releases the stream. It is a no-op when Open
// failed or never ran.
func (s *Source) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream == nil {
		return
	}

	if err := s.stream.Close(); err != nil {
		s.log.WithError(err).Warn("media stream close failed")
	}

	s.stream = nil
	trackFree(ResSource, s.id)
}
