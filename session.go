package vlcbridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// SessionOption configures a Session.
type SessionOption func(*sessionOptions)

type sessionOptions struct {
	video   VideoSink
	audio   AudioSink
	noVideo bool
	noAudio bool
}

// WithVideoSink sets where frames are delivered.
func WithVideoSink(sink VideoSink) SessionOption {
	return func(o *sessionOptions) { o.video = sink }
}

// WithAudioSink sets who is told to start and stop pulling audio.
func WithAudioSink(sink AudioSink) SessionOption {
	return func(o *sessionOptions) { o.audio = sink }
}

// WithoutVideo leaves the engine's own video output in place.
func WithoutVideo() SessionOption {
	return func(o *sessionOptions) { o.noVideo = true }
}

// WithoutAudio leaves the engine's own audio output in place.
func WithoutAudio() SessionOption {
	return func(o *sessionOptions) { o.noAudio = true }
}

// Session is one engine player bound to at most one Media.
//
// Transport methods may be called from any goroutine. Handlers
// registered with On run inside Instance.Update only.
type Session struct {
	inst   *Instance
	id     uintptr
	uuid   uuid.UUID
	native NativePlayer
	video  *VideoPipeline
	audio  *AudioPipeline
	signal *stateSignal
	log    *logrus.Entry

	mu         sync.Mutex
	media      *Media
	audioTrack int
	paused     bool
	handlers   []func(Event)

	closed    atomic.Bool
	closeOnce sync.Once
}

func newSession(inst *Instance, native NativePlayer, opts sessionOptions) *Session {
	s := &Session{
		inst:       inst,
		uuid:       uuid.New(),
		native:     native,
		signal:     newStateSignal(),
		audioTrack: -1,
	}

	s.id = inst.sessions.Register(s)
	s.log = inst.log.WithFields(logrus.Fields{
		"component": "session",
		"session":   s.uuid.String(),
	})
	trackAlloc(ResPlayer, s.id)

	if !opts.noVideo {
		s.video = NewVideoPipeline(inst.cfg, opts.video, inst.dispatch, s.log)
		s.video.onFrame = func() { s.emit(Event{Type: EventVideoFrame}) }
		native.SetVideoCallbacks(s.video)
	}

	if !opts.noAudio {
		s.audio = NewAudioPipeline(inst.cfg, opts.audio, inst.dispatch, s.log)
		native.SetAudioCallbacks(s.audio)
	}

	native.SetEventHandler(s.engineEvent)

	return s
}

// ID is the registry id of the session within its Instance.
func (s *Session) ID() uintptr {
	return s.id
}

// UUID identifies the session in logs.
func (s *Session) UUID() uuid.UUID {
	return s.uuid
}

// Video returns the frame pipeline, nil WithoutVideo.
func (s *Session) Video() *VideoPipeline {
	return s.video
}

// Audio returns the sample pipeline, nil WithoutAudio.
func (s *Session) Audio() *AudioPipeline {
	return s.audio
}

// engineEvent runs on an engine thread. Waiters are woken right
// away, handlers later on the host tick.
func (s *Session) engineEvent(e EventType) {
	if s.closed.Load() {
		return
	}

	s.signal.broadcast()
	s.inst.dispatch.Post(func() { s.emit(Event{Type: e}) })
}

func (s *Session) emit(e Event) {
	if s.closed.Load() {
		return
	}

	s.mu.Lock()
	handlers := append([]func(Event){}, s.handlers...)
	s.mu.Unlock()

	if st, ok := e.Type.state(); ok {
		s.log.WithField("state", st).Debug("playback state changed")
	}

	for _, fn := range handlers {
		fn(e)
	}
}

// On registers fn for engine events.
func (s *Session) On(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.handlers = append(s.handlers, fn)
}

func (s *Session) player() (NativePlayer, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	return s.native, nil
}

// SetMedia binds m, replacing the previous media. A nil m unbinds.
func (s *Session) SetMedia(m *Media) error {
	p, err := s.player()
	if err != nil {
		return err
	}

	var native NativeMedia
	if m != nil {
		if native, err = m.handle(); err != nil {
			return fmt.Errorf("set media: %w", err)
		}
	}

	s.mu.Lock()
	s.media = m
	s.mu.Unlock()

	p.SetMedia(native)
	s.log.WithField("media", m).Debug("media bound")

	return nil
}

// Media returns the bound media.
func (s *Session) Media() *Media {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.media
}

func (s *Session) requireMedia() (NativePlayer, error) {
	p, err := s.player()
	if err != nil {
		return nil, err
	}

	if s.Media() == nil {
		return nil, ErrNoMedia
	}

	return p, nil
}

// Play starts playback and returns without waiting.
func (s *Session) Play() error {
	p, err := s.requireMedia()
	if err != nil {
		return err
	}

	return p.Play().Err("play")
}

// PlaySync starts playback and waits until the engine is playing,
// then reapplies the last audio track and pause request, which the
// engine forgets across media binds.
func (s *Session) PlaySync(ctx context.Context) error {
	if err := s.Play(); err != nil {
		return err
	}

	if err := s.wait(ctx, "playing", s.native.IsPlaying); err != nil {
		return err
	}

	s.mu.Lock()
	track, paused := s.audioTrack, s.paused
	s.mu.Unlock()

	if track >= 0 {
		s.SetAudioTrack(track)
	}

	if paused {
		s.native.SetPause(true)
	}

	return nil
}

// Pause toggles pause.
func (s *Session) Pause() error {
	p, err := s.player()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.paused = p.State() != StatePaused
	s.mu.Unlock()

	p.Pause()
	return nil
}

// SetPause pauses or resumes. The request is remembered and
// reapplied by PlaySync.
func (s *Session) SetPause(paused bool) error {
	p, err := s.player()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()

	p.SetPause(paused)
	return nil
}

// Paused reports the last pause request.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.paused
}

// StopAsync asks the engine to stop and returns without waiting.
func (s *Session) StopAsync() error {
	p, err := s.player()
	if err != nil {
		return err
	}

	return p.StopAsync().Err("stop")
}

// Stop stops playback and waits for the Stopped state. It
// returns at once when there is nothing to stop.
func (s *Session) Stop(ctx context.Context) error {
	p, err := s.player()
	if err != nil {
		return err
	}

	if p.State().Idle() {
		return nil
	}

	if err := p.StopAsync().Err("stop"); err != nil {
		return err
	}

	return s.wait(ctx, "stopped", func() bool {
		return p.State() == StateStopped
	})
}

func (s *Session) wait(ctx context.Context, what string, cond func() bool) error {
	cfg := s.inst.cfg

	err := waitFor(ctx, s.signal, cfg.PollInterval, cfg.WaitTimeout, what, cond)
	if err != nil {
		s.log.WithError(err).WithField("state", s.native.State()).Warn("engine did not reach state")
	}

	return err
}

// SeekTime moves to t. precise trades speed for accuracy.
func (s *Session) SeekTime(t time.Duration, precise bool) error {
	p, err := s.requireMedia()
	if err != nil {
		return err
	}

	if t < 0 {
		return fmt.Errorf("seek to %s: %w", t, ErrOutOfRange)
	}

	return p.SetTime(t.Milliseconds(), !precise).Err("seek time")
}

// SeekRatio moves to pos in [0, 1] of the length.
func (s *Session) SeekRatio(pos float64, precise bool) error {
	p, err := s.requireMedia()
	if err != nil {
		return err
	}

	if pos < 0 || pos > 1 {
		return fmt.Errorf("seek to %.3f: %w", pos, ErrOutOfRange)
	}

	return p.SetPosition(pos, !precise).Err("seek ratio")
}

// JumpTime moves by d relative to the current time.
func (s *Session) JumpTime(d time.Duration) error {
	p, err := s.requireMedia()
	if err != nil {
		return err
	}

	return p.JumpTime(d.Milliseconds()).Err("jump time")
}

// SetRate sets the playback speed, 1 being normal.
func (s *Session) SetRate(rate float32) error {
	p, err := s.player()
	if err != nil {
		return err
	}

	if rate <= 0 {
		return fmt.Errorf("rate %g: %w", rate, ErrOutOfRange)
	}

	return p.SetRate(rate).Err("set rate")
}

// Rate returns the playback speed.
func (s *Session) Rate() float32 {
	p, err := s.player()
	if err != nil {
		return 0
	}

	return p.Rate()
}

// State returns the engine playback state.
func (s *Session) State() State {
	p, err := s.player()
	if err != nil {
		return StateStopped
	}

	return p.State()
}

func (s *Session) IsPlaying() bool {
	p, err := s.player()
	return err == nil && p.IsPlaying()
}

func (s *Session) CanPause() bool {
	p, err := s.player()
	return err == nil && p.CanPause()
}

func (s *Session) IsSeekable() bool {
	p, err := s.player()
	return err == nil && p.IsSeekable()
}

// Time returns the playback time, 0 when unknown.
func (s *Session) Time() time.Duration {
	p, err := s.player()
	if err != nil {
		return 0
	}

	return msDuration(p.Time())
}

// Length returns the length of the bound media, 0 when unknown.
func (s *Session) Length() time.Duration {
	p, err := s.player()
	if err != nil {
		return 0
	}

	return msDuration(p.Length())
}

// Position returns the playback position in [0, 1].
func (s *Session) Position() float64 {
	p, err := s.player()
	if err != nil {
		return 0
	}

	return max(p.Position(), 0)
}

func msDuration(ms int64) time.Duration {
	if ms < 0 {
		return 0
	}

	return time.Duration(ms) * time.Millisecond
}

// TrackList snapshots the player's tracks of typ. The caller
// closes the list.
func (s *Session) TrackList(typ TrackType, selectedOnly bool) *TrackList {
	p, err := s.player()
	if err != nil {
		return newTrackList(nil)
	}

	return newTrackList(p.TrackList(typ, selectedOnly))
}

// SelectTrack selects t, taken from a still open TrackList.
func (s *Session) SelectTrack(t Track) error {
	p, err := s.player()
	if err != nil {
		return err
	}

	if t.native == nil {
		return fmt.Errorf("select track %q: %w", t.ID, ErrOutOfRange)
	}

	p.SelectTrack(t.native)
	return nil
}

// SetAudioTrack selects the audio track at idx. An index outside
// the current list leaves the selection and the stored index alone.
func (s *Session) SetAudioTrack(idx int) {
	p, err := s.player()
	if err != nil {
		return
	}

	tl := newTrackList(p.TrackList(TrackAudio, false))
	defer tl.Close()

	track, ok := tl.At(idx).Get()
	if !ok {
		s.log.WithFields(logrus.Fields{
			"index": idx,
			"count": tl.Count(),
		}).Debug("audio track out of range")
		return
	}

	p.SelectTrack(track.native)

	s.mu.Lock()
	s.audioTrack = idx
	s.mu.Unlock()
}

// AudioTrack returns the last audio track index set, -1 for none.
func (s *Session) AudioTrack() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.audioTrack
}

// UnselectTrackType disables every track of typ.
func (s *Session) UnselectTrackType(typ TrackType) {
	if p, err := s.player(); err == nil {
		p.UnselectTrackType(typ)
	}
}

// SelectedTrackIDs returns the ids of the selected tracks of typ.
func (s *Session) SelectedTrackIDs(typ TrackType) []string {
	tl := s.TrackList(typ, true)
	defer tl.Close()

	return lo.Map(tl.All(), func(t Track, _ int) string {
		return t.ID
	})
}

func (s *Session) Chapter() int {
	if p, err := s.player(); err == nil {
		return p.Chapter()
	}

	return -1
}

func (s *Session) ChapterCount() int {
	if p, err := s.player(); err == nil {
		return p.ChapterCount()
	}

	return -1
}

func (s *Session) SetChapter(i int) {
	if p, err := s.player(); err == nil {
		p.SetChapter(i)
	}
}

func (s *Session) NextChapter() {
	if p, err := s.player(); err == nil {
		p.NextChapter()
	}
}

func (s *Session) PreviousChapter() {
	if p, err := s.player(); err == nil {
		p.PreviousChapter()
	}
}

func (s *Session) Title() int {
	if p, err := s.player(); err == nil {
		return p.Title()
	}

	return -1
}

func (s *Session) TitleCount() int {
	if p, err := s.player(); err == nil {
		return p.TitleCount()
	}

	return -1
}

func (s *Session) SetTitle(i int) {
	if p, err := s.player(); err == nil {
		p.SetTitle(i)
	}
}

// NextFrame steps one frame forward while paused.
func (s *Session) NextFrame() {
	if p, err := s.player(); err == nil {
		p.NextFrame()
	}
}

// Navigate sends a DVD menu action.
func (s *Session) Navigate(mode NavigateMode) {
	if p, err := s.player(); err == nil {
		p.Navigate(mode)
	}
}

// Close detaches events, releases the player and then the
// pipelines it fed. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.inst.sessions.Release(s.id)

		s.native.SetEventHandler(nil)
		s.native.Release()
		trackFree(ResPlayer, s.id)

		if s.video != nil {
			s.video.Cleanup()
		}

		if s.audio != nil {
			s.audio.Cleanup()
		}

		s.mu.Lock()
		s.media = nil
		s.handlers = nil
		s.mu.Unlock()

		s.signal.broadcast()
		s.log.Debug("session closed")
	})
}
