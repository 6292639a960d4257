package vlcbridge

import "time"

// Engine is the native playback engine an Instance drives.
// The libvlc package provides the production implementation,
// vlcbridgetest a scriptable one for tests.
type Engine interface {
	NewPlayer() (NativePlayer, error)
	NewMediaFromCallbacks(cb MediaCallbacks) (NativeMedia, error)
	NewMediaFromLocation(mrl string) (NativeMedia, error)
	Release()
}

// NativePlayer is one engine media player.
//
// Every method may be called from any goroutine. Transport
// commands return StatusError when the engine rejects them.
type NativePlayer interface {
	SetMedia(m NativeMedia)
	SetVideoCallbacks(cb VideoCallbacks)
	SetAudioCallbacks(cb AudioCallbacks)
	// SetEventHandler installs the state change handler. The
	// handler runs on engine threads and must not block.
	// A nil handler detaches it.
	SetEventHandler(fn func(EventType))

	Play() Status
	Pause()
	SetPause(paused bool)
	StopAsync() Status
	SetTime(ms int64, fast bool) Status
	JumpTime(ms int64) Status
	SetPosition(pos float64, fast bool) Status
	SetRate(rate float32) Status
	NextFrame()
	Navigate(mode NavigateMode)

	State() State
	IsPlaying() bool
	CanPause() bool
	IsSeekable() bool
	Time() int64
	Length() int64
	Position() float64
	Rate() float32

	TrackList(typ TrackType, selectedOnly bool) NativeTrackList
	SelectTrack(t NativeTrack)
	UnselectTrackType(typ TrackType)

	Chapter() int
	ChapterCount() int
	SetChapter(i int)
	NextChapter()
	PreviousChapter()
	Title() int
	TitleCount() int
	SetTitle(i int)

	Release()
}

// NativeMedia is one engine media item. Release drops one reference;
// a player still bound to the item keeps it alive.
type NativeMedia interface {
	Duration() int64
	ParsedStatus() ParsedStatus
	ParseRequest(flags ParseFlag, timeout time.Duration) Status
	ParseStop()
	TrackList(typ TrackType) NativeTrackList
	Meta(key MetaKey) (string, bool)
	Stats() (MediaStats, bool)
	// SetParsedHandler installs the parse completion handler.
	// It runs on engine threads.
	SetParsedHandler(fn func(ParsedStatus))
	Release()
}

// NativeTrackList is an engine owned list of tracks.
type NativeTrackList interface {
	Count() int
	At(i int) NativeTrack
	Delete()
}

// NativeTrack is one engine track. Hold adds a reference
// that outlives the list, Release drops it.
type NativeTrack interface {
	Info() Track
	Hold()
	Release()
}

// VideoFormat is the frame layout agreed with the decoder.
type VideoFormat struct {
	Chroma string
	Width  uint32
	Height uint32
	Pitch  uint32
	Lines  uint32
}

// AudioFormat is the sample layout agreed with the decoder.
type AudioFormat struct {
	Format   string
	Rate     uint32
	Channels uint32
}

// VideoCallbacks receives decoded pictures on an engine thread.
type VideoCallbacks interface {
	Format(width, height uint32) (VideoFormat, error)
	Lock() []byte
	Unlock()
	Display()
	Cleanup()
}

// AudioCallbacks receives decoded samples on an engine thread.
type AudioCallbacks interface {
	Setup(rate, channels uint32) (AudioFormat, error)
	Play(samples []float32, pts int64)
	Pause(pts int64)
	Resume(pts int64)
	Flush(pts int64)
	Drain()
	Cleanup()
}

// MediaCallbacks serves media bytes to the engine's demuxer.
type MediaCallbacks interface {
	Open() (uint64, error)
	Read(p []byte) (int, error)
	Seek(offset uint64) error
	Close()
}
