package vlcbridge

// Resource tracker for detecting engine handle leaks at runtime.
//
// Usage: build with -tags leakcheck to enable tracking.
// In production builds (default), all tracker calls are no-ops.
//
// Example:
//
//	inst, _ := vlcbridge.NewInstance(engine, cfg)
//	media, _ := inst.NewFileMedia("video.mp4")
//	media.Release()
//	inst.Close()
//	leaks := vlcbridge.DumpLeaks() // returns all un-released handles (empty if no leaks)

// ResourceKind identifies the type of tracked engine resource.
type ResourceKind string

const (
	ResPlayer      ResourceKind = "Player"
	ResMedia       ResourceKind = "Media"
	ResTrackList   ResourceKind = "TrackList"
	ResTrack       ResourceKind = "Track"
	ResFrameBuffer ResourceKind = "FrameBuffer"
	ResSource      ResourceKind = "Source"
)

// LeakRecord describes a tracked resource that has not been released.
type LeakRecord struct {
	Kind  ResourceKind
	ID    uintptr
	Stack string // call stack at allocation time (when available)
}

type trackKey struct {
	kind ResourceKind
	id   uintptr
}
