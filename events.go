package vlcbridge

import (
	"sync"
)

// EventType identifies an engine notification.
// Player event values match libVLC 4.
type EventType int

const (
	EventMediaChanged   EventType = 0x100
	EventNothingSpecial EventType = 0x101
	EventOpening        EventType = 0x102
	EventBuffering      EventType = 0x103
	EventPlaying        EventType = 0x104
	EventPaused         EventType = 0x105
	EventStopped        EventType = 0x106
	EventForward        EventType = 0x107
	EventBackward       EventType = 0x108
	EventStopping       EventType = 0x109
	EventError          EventType = 0x10a

	// EventVideoFrame is raised after a frame reached the video sink.
	EventVideoFrame EventType = 0x1000
	// EventParsedChanged is raised on media parse completion.
	EventParsedChanged EventType = 0x1001
)

func (e EventType) String() string {
	switch e {
	case EventMediaChanged:
		return "media_changed"
	case EventNothingSpecial:
		return "nothing_special"
	case EventOpening:
		return "opening"
	case EventBuffering:
		return "buffering"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventStopped:
		return "stopped"
	case EventForward:
		return "forward"
	case EventBackward:
		return "backward"
	case EventStopping:
		return "stopping"
	case EventError:
		return "error"
	case EventVideoFrame:
		return "video_frame"
	case EventParsedChanged:
		return "parsed_changed"
	default:
		return "unknown"
	}
}

// state returns the playback state an event announces.
func (e EventType) state() (State, bool) {
	switch e {
	case EventNothingSpecial:
		return StateNothingSpecial, true
	case EventOpening:
		return StateOpening, true
	case EventBuffering:
		return StateBuffering, true
	case EventPlaying:
		return StatePlaying, true
	case EventPaused:
		return StatePaused, true
	case EventStopped:
		return StateStopped, true
	case EventStopping:
		return StateStopping, true
	case EventError:
		return StateError, true
	}
	return 0, false
}

// Event is delivered to host handlers on the update tick.
type Event struct {
	Type EventType
	// Parsed is set for EventParsedChanged.
	Parsed ParsedStatus
}

// Dispatcher queues work posted from engine threads and
// runs it on the host goroutine that calls Drain.
type Dispatcher struct {
	mu      sync.Mutex
	pending []func()
	closed  bool
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Post queues fn. It never blocks on the host and
// is dropped once the dispatcher is closed.
func (d *Dispatcher) Post(fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}

	d.pending = append(d.pending, fn)
	return true
}

// Drain runs everything queued so far in arrival order and
// returns how many functions ran. Work posted while draining
// runs on the next call.
func (d *Dispatcher) Drain() int {
	d.mu.Lock()
	batch := d.pending
	d.pending = nil
	d.mu.Unlock()

	for _, fn := range batch {
		fn()
	}

	return len(batch)
}

// Pending returns the number of queued functions.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.pending)
}

// Close discards queued work and rejects further posts.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	d.pending = nil
}
