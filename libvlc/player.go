//go:build darwin || linux

package libvlc

import (
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/zimwip/vlcbridge"
)

type player struct {
	engine *Engine
	ptr    uintptr
	id     uintptr
	events uintptr
	log    *logrus.Entry

	// Engine thread state.
	video    vlcbridge.VideoCallbacks
	audio    vlcbridge.AudioCallbacks
	pin      runtime.Pinner
	scratch  []byte
	channels uint32

	mu       sync.Mutex
	handler  func(vlcbridge.EventType)
	bound    *media
	released bool

	emu      sync.Mutex
	attached bool
}

func (p *player) SetMedia(m vlcbridge.NativeMedia) {
	nm, _ := m.(*media)

	p.mu.Lock()
	prev := p.bound
	p.bound = nm
	p.mu.Unlock()

	if nm != nil {
		nm.retain()
		playerSetMedia(p.ptr, nm.ptr)
	} else {
		playerSetMedia(p.ptr, 0)
	}

	if prev != nil {
		prev.drop()
	}
}

func (p *player) SetVideoCallbacks(cb vlcbridge.VideoCallbacks) {
	p.video = cb
	if cb == nil {
		videoSetCallbacks(p.ptr, 0, 0, 0, 0)
		videoSetFormatCallbacks(p.ptr, 0, 0)
		return
	}

	videoSetCallbacks(p.ptr, videoLockCB, videoUnlockCB, videoDisplayCB, p.id)
	videoSetFormatCallbacks(p.ptr, videoFormatCB, videoCleanupCB)
}

func (p *player) SetAudioCallbacks(cb vlcbridge.AudioCallbacks) {
	p.audio = cb
	if cb == nil {
		audioSetCallbacks(p.ptr, 0, 0, 0, 0, 0, 0)
		audioSetFormatCallbacks(p.ptr, 0, 0)
		return
	}

	audioSetCallbacks(p.ptr, audioPlayCB, audioPauseCB, audioResumeCB, audioFlushCB, audioDrainCB, p.id)
	audioSetFormatCallbacks(p.ptr, audioSetupCB, audioCleanupCB)
}

func (p *player) SetEventHandler(fn func(vlcbridge.EventType)) {
	p.mu.Lock()
	p.handler = fn
	p.mu.Unlock()

	// The engine may be inside onPlayerEvent while attaching or
	// detaching, so p.mu is not held here.
	p.emu.Lock()
	defer p.emu.Unlock()

	switch {
	case fn != nil && !p.attached:
		for _, t := range playerEventTypes {
			if eventAttach(p.events, int32(t), playerEventCB, p.id) != 0 {
				p.log.WithField("event", t).Warn("event attach failed")
			}
		}
		p.attached = true
	case fn == nil && p.attached:
		p.detach()
	}
}

func (p *player) detach() {
	for _, t := range playerEventTypes {
		eventDetach(p.events, int32(t), playerEventCB, p.id)
	}
	p.attached = false
}

func (p *player) eventHandler() func(vlcbridge.EventType) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handler
}

func (p *player) Play() vlcbridge.Status {
	return vlcbridge.Status(playerPlay(p.ptr))
}

func (p *player) Pause() { playerPause(p.ptr) }

func (p *player) SetPause(paused bool) {
	var v int32
	if paused {
		v = 1
	}
	playerSetPause(p.ptr, v)
}

func (p *player) StopAsync() vlcbridge.Status {
	return vlcbridge.Status(playerStopAsync(p.ptr))
}

func (p *player) SetTime(ms int64, fast bool) vlcbridge.Status {
	return vlcbridge.Status(playerSetTime(p.ptr, ms, fast))
}

func (p *player) JumpTime(ms int64) vlcbridge.Status {
	return vlcbridge.Status(playerJumpTime(p.ptr, ms))
}

func (p *player) SetPosition(pos float64, fast bool) vlcbridge.Status {
	return vlcbridge.Status(playerSetPosition(p.ptr, pos, fast))
}

func (p *player) SetRate(rate float32) vlcbridge.Status {
	return vlcbridge.Status(playerSetRate(p.ptr, rate))
}

func (p *player) NextFrame() { playerNextFrame(p.ptr) }

func (p *player) Navigate(mode vlcbridge.NavigateMode) {
	playerNavigate(p.ptr, uint32(mode))
}

func (p *player) State() vlcbridge.State {
	return vlcbridge.State(playerGetState(p.ptr))
}

func (p *player) IsPlaying() bool  { return playerIsPlaying(p.ptr) }
func (p *player) CanPause() bool   { return playerCanPause(p.ptr) }
func (p *player) IsSeekable() bool { return playerIsSeekable(p.ptr) }
func (p *player) Time() int64      { return playerGetTime(p.ptr) }
func (p *player) Length() int64    { return playerGetLength(p.ptr) }
func (p *player) Position() float64 {
	return playerGetPosition(p.ptr)
}
func (p *player) Rate() float32 { return playerGetRate(p.ptr) }

func (p *player) TrackList(typ vlcbridge.TrackType, selectedOnly bool) vlcbridge.NativeTrackList {
	l := playerGetTracklist(p.ptr, int32(typ), selectedOnly)
	if l == 0 {
		return nil
	}
	return &trackList{ptr: l}
}

func (p *player) SelectTrack(t vlcbridge.NativeTrack) {
	if nt, ok := t.(*track); ok && nt != nil {
		playerSelectTrack(p.ptr, nt.ptr)
	}
}

func (p *player) UnselectTrackType(typ vlcbridge.TrackType) {
	playerUnselectTrackType(p.ptr, int32(typ))
}

func (p *player) Chapter() int      { return int(playerGetChapter(p.ptr)) }
func (p *player) ChapterCount() int { return int(playerGetChapterCount(p.ptr)) }
func (p *player) SetChapter(i int)  { playerSetChapter(p.ptr, int32(i)) }
func (p *player) NextChapter()      { playerNextChapter(p.ptr) }
func (p *player) PreviousChapter()  { playerPreviousChapter(p.ptr) }
func (p *player) Title() int        { return int(playerGetTitle(p.ptr)) }
func (p *player) TitleCount() int   { return int(playerGetTitleCount(p.ptr)) }
func (p *player) SetTitle(i int)    { playerSetTitle(p.ptr, int32(i)) }

// Release stops playback synchronously. Cleanup callbacks still find
// the player, it leaves the registry afterwards.
func (p *player) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	p.handler = nil
	bound := p.bound
	p.bound = nil
	p.mu.Unlock()

	p.emu.Lock()
	if p.attached {
		p.detach()
	}
	p.emu.Unlock()

	playerRelease(p.ptr)
	players.Release(p.id)

	if bound != nil {
		bound.drop()
	}
}
