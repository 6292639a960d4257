package vlcbridgetest

import (
	"fmt"
	"sync"
	"time"

	"github.com/zimwip/vlcbridge"
)

// Player is a fake vlcbridge.NativePlayer.
type Player struct {
	engine *Engine
	id     int

	mu           sync.Mutex
	state        vlcbridge.State
	media        *Media
	video        vlcbridge.VideoCallbacks
	audio        vlcbridge.AudioCallbacks
	handler      func(vlcbridge.EventType)
	videoReady   bool
	audioReady   bool
	timeMs       int64
	rate         float32
	chapter      int
	chapterCount int
	title        int
	titleCount   int
	selected     map[*Track]bool
	calls        []string
	released     bool
	gen          int
}

func newPlayer(e *Engine, id int) *Player {
	return &Player{
		engine:   e,
		id:       id,
		rate:     1,
		chapter:  -1,
		title:    -1,
		selected: map[*Track]bool{},
	}
}

func (p *Player) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

// Calls lists commands received, such as "set_pause true".
func (p *Player) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.calls...)
}

// Released reports whether Release ran.
func (p *Player) Released() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.released
}

// BoundMedia returns the media set on the player.
func (p *Player) BoundMedia() *Media {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.media
}

// HasEventHandler reports whether an event handler is attached.
func (p *Player) HasEventHandler() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.handler != nil
}

// SetChapters sets the chapter and title counts of the current media.
func (p *Player) SetChapters(chapters, titles int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.chapterCount, p.titleCount = chapters, titles
	p.chapter, p.title = 0, 0
}

// setState changes state under p.mu and returns the handler
// to notify once the lock is dropped.
func (p *Player) setState(st vlcbridge.State) func(vlcbridge.EventType) {
	p.state = st
	return p.handler
}

func notify(h func(vlcbridge.EventType), ev vlcbridge.EventType) {
	if h != nil {
		h(ev)
	}
}

// transition moves to st if no newer command superseded gen.
func (p *Player) transition(gen int, st vlcbridge.State, ev vlcbridge.EventType, quiet bool) bool {
	p.mu.Lock()
	if p.gen != gen || p.released {
		p.mu.Unlock()
		return false
	}
	h := p.setState(st)
	p.mu.Unlock()

	if !quiet {
		notify(h, ev)
	}

	return true
}

// Emit sends ev to the event handler from the calling goroutine.
func (p *Player) Emit(ev vlcbridge.EventType) {
	p.mu.Lock()
	h := p.handler
	p.mu.Unlock()

	notify(h, ev)
}

// EmitFrame runs one Lock, Unlock, Display cycle writing fill into
// every byte. It reports false when the pipeline refused the lock.
func (p *Player) EmitFrame(fill byte) bool {
	p.mu.Lock()
	v, ready := p.video, p.videoReady
	p.mu.Unlock()

	if v == nil || !ready {
		return false
	}

	buf := v.Lock()
	if buf == nil {
		return false
	}

	for i := range buf {
		buf[i] = fill
	}

	v.Unlock()
	v.Display()

	return true
}

// EmitAudio delivers interleaved stereo samples.
func (p *Player) EmitAudio(samples []float32, pts int64) bool {
	p.mu.Lock()
	a, ready := p.audio, p.audioReady
	p.mu.Unlock()

	if a == nil || !ready {
		return false
	}

	a.Play(samples, pts)
	return true
}

func (p *Player) SetMedia(m vlcbridge.NativeMedia) {
	var fm *Media
	if m != nil {
		fm = m.(*Media)
		fm.hold()
	}

	p.mu.Lock()
	old := p.media
	p.media = fm
	p.selected = map[*Track]bool{}
	p.timeMs = 0
	p.record("set_media")
	p.mu.Unlock()

	if old != nil {
		old.Release()
	}
}

func (p *Player) SetVideoCallbacks(cb vlcbridge.VideoCallbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.video = cb
}

func (p *Player) SetAudioCallbacks(cb vlcbridge.AudioCallbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.audio = cb
}

func (p *Player) SetEventHandler(fn func(vlcbridge.EventType)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.handler = fn
}

func (p *Player) Play() vlcbridge.Status {
	p.mu.Lock()
	p.record("play")

	if p.released || p.media == nil {
		p.mu.Unlock()
		return vlcbridge.StatusError
	}

	switch p.state {
	case vlcbridge.StatePlaying, vlcbridge.StateOpening, vlcbridge.StateBuffering:
		p.mu.Unlock()
		return vlcbridge.StatusOK
	case vlcbridge.StatePaused:
		a := p.audio
		h := p.setState(vlcbridge.StatePlaying)
		p.mu.Unlock()

		if a != nil {
			a.Resume(0)
		}
		notify(h, vlcbridge.EventPlaying)
		return vlcbridge.StatusOK
	}

	p.gen++
	gen := p.gen
	h := p.setState(vlcbridge.StateOpening)
	p.mu.Unlock()

	notify(h, vlcbridge.EventOpening)
	p.engine.spawn(func() { p.start(gen) })

	return vlcbridge.StatusOK
}

func (p *Player) start(gen int) {
	time.Sleep(p.engine.OpenDelay)

	p.mu.Lock()
	if p.gen != gen || p.released {
		p.mu.Unlock()
		return
	}
	m, video, audio := p.media, p.video, p.audio
	p.mu.Unlock()

	if err := m.open(); err != nil {
		p.transition(gen, vlcbridge.StateError, vlcbridge.EventError, false)
		return
	}
	m.markPlaying()

	p.transition(gen, vlcbridge.StateBuffering, vlcbridge.EventBuffering, false)

	var videoReady, audioReady bool
	if video != nil {
		_, err := video.Format(p.engine.Width, p.engine.Height)
		videoReady = err == nil
	}

	if audio != nil {
		_, err := audio.Setup(48000, 6)
		audioReady = err == nil
	}

	p.mu.Lock()
	p.videoReady, p.audioReady = videoReady, audioReady
	p.selectDefaults()
	p.mu.Unlock()

	p.transition(gen, vlcbridge.StatePlaying, vlcbridge.EventPlaying, false)
}

// selectDefaults selects the first track of each type that has
// no selection, as the engine does after a media change.
func (p *Player) selectDefaults() {
	m := p.media
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[vlcbridge.TrackType]bool{}
	for t, on := range p.selected {
		if on {
			seen[t.info.Type] = true
		}
	}

	for _, t := range m.tracks {
		if !seen[t.info.Type] {
			p.selected[t] = true
			seen[t.info.Type] = true
		}
	}
}

func (p *Player) Pause() {
	p.mu.Lock()
	paused := p.state == vlcbridge.StatePaused
	p.mu.Unlock()

	p.SetPause(!paused)
}

func (p *Player) SetPause(paused bool) {
	p.mu.Lock()
	p.record("set_pause %t", paused)

	var (
		h  func(vlcbridge.EventType)
		ev vlcbridge.EventType
	)

	a := p.audio
	switch {
	case paused && p.state == vlcbridge.StatePlaying:
		h, ev = p.setState(vlcbridge.StatePaused), vlcbridge.EventPaused
	case !paused && p.state == vlcbridge.StatePaused:
		h, ev = p.setState(vlcbridge.StatePlaying), vlcbridge.EventPlaying
	default:
		p.mu.Unlock()
		return
	}
	ready := p.audioReady
	pts := p.timeMs
	p.mu.Unlock()

	if a != nil && ready {
		if paused {
			a.Pause(pts)
		} else {
			a.Resume(pts)
		}
	}

	notify(h, ev)
}

func (p *Player) StopAsync() vlcbridge.Status {
	p.mu.Lock()
	p.record("stop")

	if p.released {
		p.mu.Unlock()
		return vlcbridge.StatusError
	}

	if p.state.Idle() {
		p.mu.Unlock()
		return vlcbridge.StatusOK
	}

	p.gen++
	gen := p.gen
	h := p.setState(vlcbridge.StateStopping)
	p.mu.Unlock()

	notify(h, vlcbridge.EventStopping)

	if p.engine.HangStop {
		return vlcbridge.StatusOK
	}

	p.engine.spawn(func() { p.finishStop(gen) })

	return vlcbridge.StatusOK
}

func (p *Player) finishStop(gen int) {
	time.Sleep(p.engine.StopDelay)

	p.mu.Lock()
	if p.gen != gen || p.released {
		p.mu.Unlock()
		return
	}
	m, video, audio := p.media, p.video, p.audio
	videoReady, audioReady := p.videoReady, p.audioReady
	p.videoReady, p.audioReady = false, false
	p.mu.Unlock()

	if video != nil && videoReady {
		video.Cleanup()
	}

	if audio != nil && audioReady {
		audio.Flush(0)
		audio.Cleanup()
	}

	if m != nil {
		m.close()
	}

	p.transition(gen, vlcbridge.StateStopped, vlcbridge.EventStopped, p.engine.QuietStop)
}

func (p *Player) seekable() bool {
	return p.media != nil && p.media.Duration() > 0 && !p.state.Idle()
}

func (p *Player) SetTime(ms int64, fast bool) vlcbridge.Status {
	p.mu.Lock()
	p.record("set_time %d %t", ms, fast)

	if !p.seekable() || ms < 0 {
		p.mu.Unlock()
		return vlcbridge.StatusError
	}

	p.timeMs = min(ms, p.media.Duration())
	a, ready := p.audio, p.audioReady
	p.mu.Unlock()

	if a != nil && ready {
		a.Flush(ms)
	}

	return vlcbridge.StatusOK
}

func (p *Player) JumpTime(ms int64) vlcbridge.Status {
	p.mu.Lock()
	target := max(p.timeMs+ms, 0)
	p.mu.Unlock()

	return p.SetTime(target, true)
}

func (p *Player) SetPosition(pos float64, fast bool) vlcbridge.Status {
	p.mu.Lock()
	length := int64(0)
	if p.media != nil {
		length = p.media.Duration()
	}
	p.mu.Unlock()

	return p.SetTime(int64(pos*float64(length)), fast)
}

func (p *Player) SetRate(rate float32) vlcbridge.Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record("set_rate %g", rate)
	p.rate = rate
	return vlcbridge.StatusOK
}

func (p *Player) NextFrame() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record("next_frame")
}

func (p *Player) Navigate(mode vlcbridge.NavigateMode) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record("navigate %d", mode)
}

func (p *Player) State() vlcbridge.State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

func (p *Player) IsPlaying() bool {
	return p.State() == vlcbridge.StatePlaying
}

func (p *Player) CanPause() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.media != nil
}

func (p *Player) IsSeekable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.seekable()
}

func (p *Player) Time() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.media == nil {
		return -1
	}

	return p.timeMs
}

func (p *Player) Length() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.media == nil {
		return -1
	}

	return p.media.Duration()
}

func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.media == nil {
		return -1
	}

	length := p.media.Duration()
	if length <= 0 {
		return 0
	}

	return float64(p.timeMs) / float64(length)
}

func (p *Player) Rate() float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.rate
}

func (p *Player) TrackList(typ vlcbridge.TrackType, selectedOnly bool) vlcbridge.NativeTrackList {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.media == nil {
		return nil
	}

	m := p.media
	m.mu.Lock()
	defer m.mu.Unlock()

	return newTrackList(m.tracks, typ, selectedOnly, p.selected)
}

func unwrap(t vlcbridge.NativeTrack) *Track {
	switch v := t.(type) {
	case view:
		return v.Track
	case *Track:
		return v
	}

	return nil
}

func (p *Player) SelectTrack(t vlcbridge.NativeTrack) {
	track := unwrap(t)
	if track == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.record("select_track %s", track.info.ID)
	for other := range p.selected {
		if other.info.Type == track.info.Type {
			delete(p.selected, other)
		}
	}
	p.selected[track] = true
}

func (p *Player) UnselectTrackType(typ vlcbridge.TrackType) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.record("unselect_track_type %s", typ)
	for t := range p.selected {
		if t.info.Type == typ {
			delete(p.selected, t)
		}
	}
}

func (p *Player) Chapter() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.chapter
}

func (p *Player) ChapterCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.chapterCount
}

func (p *Player) SetChapter(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i >= 0 && i < p.chapterCount {
		p.chapter = i
	}
}

func (p *Player) NextChapter() {
	p.SetChapter(p.Chapter() + 1)
}

func (p *Player) PreviousChapter() {
	p.SetChapter(p.Chapter() - 1)
}

func (p *Player) Title() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.title
}

func (p *Player) TitleCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.titleCount
}

func (p *Player) SetTitle(i int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if i >= 0 && i < p.titleCount {
		p.title = i
	}
}

func (p *Player) Release() {
	p.mu.Lock()
	if p.released {
		p.mu.Unlock()
		return
	}
	p.released = true
	p.gen++
	m := p.media
	p.media = nil
	p.handler = nil
	p.mu.Unlock()

	if m != nil {
		m.close()
		m.Release()
	}

	p.engine.recordRelease(label("player", p.id))
}
