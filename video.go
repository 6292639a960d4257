package vlcbridge

import (
	"fmt"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
)

// ChromaRV24 is the packed 24-bit RGB layout frames are decoded to.
const ChromaRV24 = "RV24"

// VideoSink receives frames in presentation order.
type VideoSink interface {
	Frame(f *VideoFrame)
}

// VideoSinkFunc adapts a function to VideoSink.
type VideoSinkFunc func(f *VideoFrame)

// Frame calls fn(f).
func (fn VideoSinkFunc) Frame(f *VideoFrame) {
	fn(f)
}

// VideoFrame is an immutable copy of one decoded picture.
type VideoFrame struct {
	Width  int
	Height int
	Stride int
	// Data is packed RGB, Stride bytes per row.
	Data []byte
	Seq  uint64
	// Resized is set on the first frame after a format change.
	Resized bool
}

// Image converts the frame to RGBA.
func (f *VideoFrame) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))

	for y := 0; y < f.Height; y++ {
		src := f.Data[y*f.Stride : y*f.Stride+f.Width*3]
		dst := img.Pix[y*img.Stride : y*img.Stride+f.Width*4]
		for x := 0; x < f.Width; x++ {
			dst[x*4] = src[x*3]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}

	return img
}

// VideoStats are running counters of a VideoPipeline.
type VideoStats struct {
	Formats    uint64
	Frames     uint64
	Delivered  uint64
	Dropped    uint64
	Queued     int
	Suppressed bool
	Format     VideoFormat
}

// VideoPipeline receives pictures from the engine output thread
// and hands them to the host. Format, Lock, Unlock, Display and
// Cleanup never wait on the host.
type VideoPipeline struct {
	mode     VideoMode
	depth    int
	maxBytes int
	sink     VideoSink
	dispatch *Dispatcher
	log      *logrus.Entry
	onFrame  func()

	// engine side
	mu         sync.Mutex
	format     VideoFormat
	buf        []byte
	bufID      uintptr
	configured bool
	locked     bool
	resized    bool
	staged     *VideoFrame
	seq        uint64

	// consumer side
	qmu       sync.Mutex
	queue     []*VideoFrame
	spare     *VideoFrame
	posted    bool
	delivered uint64
	dropped   uint64

	stats VideoStats
}

// NewVideoPipeline builds a pipeline for cfg.VideoMode.
// sink may be nil, frames are then read with Next.
func NewVideoPipeline(cfg Config, sink VideoSink, d *Dispatcher, log *logrus.Entry) *VideoPipeline {
	if log == nil {
		log = discardLogger()
	}

	return &VideoPipeline{
		mode:     cfg.VideoMode,
		depth:    max(cfg.VideoQueue, 1),
		maxBytes: cfg.MaxFrameBytes,
		sink:     sink,
		dispatch: d,
		log:      log.WithField("component", "video"),
	}
}

// Format allocates a frame buffer for width x height. On failure
// the engine disables video for the session and playback goes on.
func (v *VideoPipeline) Format(width, height uint32) (VideoFormat, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.release()

	size := int(width) * int(height) * 3
	if width == 0 || height == 0 || size > v.maxBytes {
		v.stats.Suppressed = true
		err := fmt.Errorf("%w: %dx%d", ErrFrameAlloc, width, height)
		v.log.WithError(err).Warn("video output suppressed")
		return VideoFormat{}, err
	}

	v.format = VideoFormat{
		Chroma: ChromaRV24,
		Width:  width,
		Height: height,
		Pitch:  width * 3,
		Lines:  height,
	}
	v.buf = make([]byte, size)
	v.bufID = nextResourceID()
	v.configured = true
	v.resized = true
	v.stats.Suppressed = false
	v.stats.Formats++
	v.stats.Format = v.format
	trackAlloc(ResFrameBuffer, v.bufID)

	v.log.WithFields(logrus.Fields{
		"width":  width,
		"height": height,
	}).Debug("video format negotiated")

	return v.format, nil
}

// Lock hands the frame buffer to the decoder. It returns nil
// before Format and while a buffer is already in flight.
func (v *VideoPipeline) Lock() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.configured || v.locked {
		return nil
	}

	v.locked = true
	return v.buf
}

// Unlock takes the decoded picture back and copies it out.
func (v *VideoPipeline) Unlock() {
	v.mu.Lock()

	if !v.locked {
		v.mu.Unlock()
		return
	}

	v.locked = false
	v.seq++
	v.stats.Frames++

	f := v.frame()
	copy(f.Data, v.buf)
	f.Seq = v.seq
	f.Resized = v.resized
	v.resized = false

	if v.mode == VideoDeferred {
		v.staged = f
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	if v.sink == nil {
		v.enqueue(f, false)
		return
	}

	v.sink.Frame(f)
	v.qmu.Lock()
	v.delivered++
	v.qmu.Unlock()
	v.post(v.announce)
}

// Display queues the staged picture for the host update tick.
func (v *VideoPipeline) Display() {
	v.mu.Lock()
	f := v.staged
	v.staged = nil
	v.mu.Unlock()

	if f == nil {
		return
	}

	v.enqueue(f, true)
}

// Cleanup forgets the frame buffer when the engine closes output.
func (v *VideoPipeline) Cleanup() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.release()
}

func (v *VideoPipeline) release() {
	if !v.configured {
		return
	}

	trackFree(ResFrameBuffer, v.bufID)
	v.configured = false
	v.locked = false
	v.staged = nil
	v.buf = nil
}

// frame returns a frame sized for the current format, reusing
// one the consumer never saw when it fits. v.mu is held.
func (v *VideoPipeline) frame() *VideoFrame {
	w, h, stride := int(v.format.Width), int(v.format.Height), int(v.format.Pitch)

	v.qmu.Lock()
	f := v.spare
	v.spare = nil
	v.qmu.Unlock()

	if f == nil || len(f.Data) != len(v.buf) {
		f = &VideoFrame{Data: make([]byte, len(v.buf))}
	}

	f.Width, f.Height, f.Stride = w, h, stride
	return f
}

func (v *VideoPipeline) enqueue(f *VideoFrame, deliver bool) {
	v.qmu.Lock()

	if len(v.queue) >= v.depth {
		v.spare = v.queue[0]
		v.queue[0] = nil
		v.queue = v.queue[1:]
		v.dropped++
	}
	v.queue = append(v.queue, f)

	schedule := deliver && !v.posted
	if schedule {
		v.posted = true
	}
	v.qmu.Unlock()

	if schedule && !v.post(v.deliver) {
		v.qmu.Lock()
		v.posted = false
		v.qmu.Unlock()
	}
}

func (v *VideoPipeline) post(fn func()) bool {
	if v.dispatch == nil {
		return false
	}

	return v.dispatch.Post(fn)
}

// deliver runs on the host tick and flushes the queue to the sink.
func (v *VideoPipeline) deliver() {
	v.qmu.Lock()
	v.posted = false
	v.qmu.Unlock()

	if v.sink == nil {
		v.announce()
		return
	}

	delivered := false
	for {
		f, ok := v.Next()
		if !ok {
			break
		}

		v.sink.Frame(f)
		delivered = true

		v.qmu.Lock()
		v.delivered++
		v.qmu.Unlock()
	}

	if delivered {
		v.announce()
	}
}

func (v *VideoPipeline) announce() {
	if v.onFrame != nil {
		v.onFrame()
	}
}

// Next pops the oldest queued frame.
func (v *VideoPipeline) Next() (*VideoFrame, bool) {
	v.qmu.Lock()
	defer v.qmu.Unlock()

	if len(v.queue) == 0 {
		return nil, false
	}

	f := v.queue[0]
	v.queue[0] = nil
	v.queue = v.queue[1:]

	return f, true
}

// Stats returns a snapshot of the counters.
func (v *VideoPipeline) Stats() VideoStats {
	v.mu.Lock()
	s := v.stats
	v.mu.Unlock()

	v.qmu.Lock()
	s.Delivered = v.delivered
	s.Dropped = v.dropped
	s.Queued = len(v.queue)
	v.qmu.Unlock()

	return s
}
