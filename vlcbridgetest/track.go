package vlcbridgetest

import (
	"sync"

	"github.com/zimwip/vlcbridge"
)

// Track is a fake vlcbridge.NativeTrack.
type Track struct {
	info vlcbridge.Track

	mu    sync.Mutex
	holds int
}

// Holds returns the outstanding Hold count.
func (t *Track) Holds() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.holds
}

func (t *Track) Info() vlcbridge.Track {
	return t.info
}

func (t *Track) Hold() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.holds++
}

func (t *Track) Release() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.holds--
}

// view is one track as seen from a list, with the selection
// the list was taken with.
type view struct {
	*Track
	selected bool
}

func (v view) Info() vlcbridge.Track {
	info := v.Track.Info()
	info.Selected = v.selected
	return info
}

// TrackList is a fake vlcbridge.NativeTrackList.
type TrackList struct {
	views []view

	mu      sync.Mutex
	deleted bool
}

func newTrackList(tracks []*Track, typ vlcbridge.TrackType, selectedOnly bool, selected map[*Track]bool) *TrackList {
	tl := &TrackList{}
	for _, t := range tracks {
		if t.info.Type != typ {
			continue
		}

		sel := t.info.Selected
		if selected != nil {
			sel = selected[t]
		}

		if selectedOnly && !sel {
			continue
		}

		tl.views = append(tl.views, view{Track: t, selected: sel})
	}

	return tl
}

func (tl *TrackList) Count() int {
	return len(tl.views)
}

func (tl *TrackList) At(i int) vlcbridge.NativeTrack {
	if i < 0 || i >= len(tl.views) {
		return nil
	}

	return tl.views[i]
}

func (tl *TrackList) Delete() {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	tl.deleted = true
}

// Deleted reports whether Delete ran.
func (tl *TrackList) Deleted() bool {
	tl.mu.Lock()
	defer tl.mu.Unlock()

	return tl.deleted
}
