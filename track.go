package vlcbridge

import (
	"sync"

	"github.com/samber/lo"
	"github.com/samber/mo"
)

// TrackType is the elementary stream kind. Values match libVLC.
type TrackType int

const (
	TrackUnknown TrackType = -1
	TrackAudio   TrackType = 0
	TrackVideo   TrackType = 1
	TrackText    TrackType = 2
)

func (t TrackType) String() string {
	switch t {
	case TrackAudio:
		return "audio"
	case TrackVideo:
		return "video"
	case TrackText:
		return "text"
	default:
		return "unknown"
	}
}

// Track describes one elementary stream at snapshot time.
type Track struct {
	Type        TrackType
	Codec       uint32
	Bitrate     uint32
	Language    string
	Description string
	// ID is the engine's string id, stable across snapshots.
	ID       string
	Name     string
	Selected bool

	native NativeTrack
	ref    uintptr
}

// TrackList is a read-only snapshot of tracks. Indices are only
// meaningful until the next parse or track list request.
type TrackList struct {
	id     uintptr
	list   NativeTrackList
	tracks []Track

	once sync.Once
}

func newTrackList(list NativeTrackList) *TrackList {
	tl := &TrackList{id: nextResourceID(), list: list}
	if list == nil {
		return tl
	}

	trackAlloc(ResTrackList, tl.id)

	n := list.Count()
	tl.tracks = make([]Track, 0, n)
	for i := 0; i < n; i++ {
		nt := list.At(i)
		if nt == nil {
			continue
		}

		nt.Hold()
		t := nt.Info()
		t.native = nt
		t.ref = nextResourceID()
		trackAlloc(ResTrack, t.ref)
		tl.tracks = append(tl.tracks, t)
	}

	return tl
}

// Count returns the number of tracks, 0 for an empty or nil list.
func (tl *TrackList) Count() int {
	if tl == nil {
		return 0
	}

	return len(tl.tracks)
}

// At returns the track at i, or None when i is out of range.
func (tl *TrackList) At(i int) mo.Option[Track] {
	if i < 0 || i >= tl.Count() {
		return mo.None[Track]()
	}

	return mo.Some(tl.tracks[i])
}

// All returns a copy of the ordered tracks.
func (tl *TrackList) All() []Track {
	if tl == nil {
		return nil
	}

	return append([]Track(nil), tl.tracks...)
}

// Selected returns the tracks the engine marked as selected.
func (tl *TrackList) Selected() []Track {
	return lo.Filter(tl.All(), func(t Track, _ int) bool {
		return t.Selected
	})
}

// Close drops the snapshot's track references and deletes the
// engine list. Tracks obtained from the list must not be used
// with SelectTrack afterwards.
func (tl *TrackList) Close() {
	if tl == nil {
		return
	}

	tl.once.Do(func() {
		for _, t := range tl.tracks {
			t.native.Release()
			trackFree(ResTrack, t.ref)
		}

		if tl.list != nil {
			tl.list.Delete()
			trackFree(ResTrackList, tl.id)
		}
	})
}
