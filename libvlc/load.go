//go:build darwin || linux

package libvlc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ebitengine/purego"
)

var (
	loadOnce sync.Once
	loadErr  error
	libPath  string
)

// Core.
var (
	vlcNew      func(argc int32, argv uintptr) uintptr
	vlcRelease  func(inst uintptr)
	vlcFree     func(ptr uintptr)
	vlcLogSet   func(inst, cb, data uintptr)
	vlcLogUnset func(inst uintptr)
)

// Media.
var (
	mediaNewLocation     func(mrl string) uintptr
	mediaNewCallbacks    func(open, read, seek, close, opaque uintptr) uintptr
	mediaRelease         func(m uintptr)
	mediaGetDuration     func(m uintptr) int64
	mediaGetParsedStatus func(m uintptr) int32
	mediaParseRequest    func(inst, m uintptr, flags, timeout int32) int32
	mediaParseStop       func(inst, m uintptr)
	mediaGetTracklist    func(m uintptr, typ int32) uintptr
	mediaGetMeta         func(m uintptr, key int32) uintptr
	mediaGetStats        func(m, stats uintptr) bool
	mediaEventManager    func(m uintptr) uintptr
)

// Player.
var (
	playerNew               func(inst uintptr) uintptr
	playerRelease           func(p uintptr)
	playerSetMedia          func(p, m uintptr)
	playerPlay              func(p uintptr) int32
	playerPause             func(p uintptr)
	playerSetPause          func(p uintptr, pause int32)
	playerStopAsync         func(p uintptr) int32
	playerSetTime           func(p uintptr, ms int64, fast bool) int32
	playerJumpTime          func(p uintptr, ms int64) int32
	playerSetPosition       func(p uintptr, pos float64, fast bool) int32
	playerSetRate           func(p uintptr, rate float32) int32
	playerGetRate           func(p uintptr) float32
	playerNextFrame         func(p uintptr)
	playerNavigate          func(p uintptr, mode uint32)
	playerGetState          func(p uintptr) int32
	playerIsPlaying         func(p uintptr) bool
	playerCanPause          func(p uintptr) bool
	playerIsSeekable        func(p uintptr) bool
	playerGetTime           func(p uintptr) int64
	playerGetLength         func(p uintptr) int64
	playerGetPosition       func(p uintptr) float64
	playerGetTracklist      func(p uintptr, typ int32, selected bool) uintptr
	playerSelectTrack       func(p, t uintptr)
	playerUnselectTrackType func(p uintptr, typ int32)
	playerGetChapter        func(p uintptr) int32
	playerGetChapterCount   func(p uintptr) int32
	playerSetChapter        func(p uintptr, i int32)
	playerNextChapter       func(p uintptr)
	playerPreviousChapter   func(p uintptr)
	playerGetTitle          func(p uintptr) int32
	playerGetTitleCount     func(p uintptr) int32
	playerSetTitle          func(p uintptr, i int32)
	playerEventManager      func(p uintptr) uintptr

	videoSetCallbacks       func(p, lock, unlock, display, opaque uintptr)
	videoSetFormatCallbacks func(p, setup, cleanup uintptr)
	audioSetCallbacks       func(p, play, pause, resume, flush, drain, opaque uintptr)
	audioSetFormatCallbacks func(p, setup, cleanup uintptr)
)

// Events and tracks.
var (
	eventAttach func(em uintptr, typ int32, cb, data uintptr) int32
	eventDetach func(em uintptr, typ int32, cb, data uintptr)

	tracklistCount  func(l uintptr) uintptr
	tracklistAt     func(l, i uintptr) uintptr
	tracklistDelete func(l uintptr)
	trackHold       func(t uintptr) uintptr
	trackRelease    func(t uintptr)
)

// vsnprintf comes from libc and formats engine log lines.
var vsnprintf func(buf, size, format, args uintptr) int32

type symbol struct {
	name string
	fn   any
}

func symbols() []symbol {
	return []symbol{
		{"libvlc_new", &vlcNew},
		{"libvlc_release", &vlcRelease},
		{"libvlc_free", &vlcFree},
		{"libvlc_log_set", &vlcLogSet},
		{"libvlc_log_unset", &vlcLogUnset},

		{"libvlc_media_new_location", &mediaNewLocation},
		{"libvlc_media_new_callbacks", &mediaNewCallbacks},
		{"libvlc_media_release", &mediaRelease},
		{"libvlc_media_get_duration", &mediaGetDuration},
		{"libvlc_media_get_parsed_status", &mediaGetParsedStatus},
		{"libvlc_media_parse_request", &mediaParseRequest},
		{"libvlc_media_parse_stop", &mediaParseStop},
		{"libvlc_media_get_tracklist", &mediaGetTracklist},
		{"libvlc_media_get_meta", &mediaGetMeta},
		{"libvlc_media_get_stats", &mediaGetStats},
		{"libvlc_media_event_manager", &mediaEventManager},

		{"libvlc_media_player_new", &playerNew},
		{"libvlc_media_player_release", &playerRelease},
		{"libvlc_media_player_set_media", &playerSetMedia},
		{"libvlc_media_player_play", &playerPlay},
		{"libvlc_media_player_pause", &playerPause},
		{"libvlc_media_player_set_pause", &playerSetPause},
		{"libvlc_media_player_stop_async", &playerStopAsync},
		{"libvlc_media_player_set_time", &playerSetTime},
		{"libvlc_media_player_jump_time", &playerJumpTime},
		{"libvlc_media_player_set_position", &playerSetPosition},
		{"libvlc_media_player_set_rate", &playerSetRate},
		{"libvlc_media_player_get_rate", &playerGetRate},
		{"libvlc_media_player_next_frame", &playerNextFrame},
		{"libvlc_media_player_navigate", &playerNavigate},
		{"libvlc_media_player_get_state", &playerGetState},
		{"libvlc_media_player_is_playing", &playerIsPlaying},
		{"libvlc_media_player_can_pause", &playerCanPause},
		{"libvlc_media_player_is_seekable", &playerIsSeekable},
		{"libvlc_media_player_get_time", &playerGetTime},
		{"libvlc_media_player_get_length", &playerGetLength},
		{"libvlc_media_player_get_position", &playerGetPosition},
		{"libvlc_media_player_get_tracklist", &playerGetTracklist},
		{"libvlc_media_player_select_track", &playerSelectTrack},
		{"libvlc_media_player_unselect_track_type", &playerUnselectTrackType},
		{"libvlc_media_player_get_chapter", &playerGetChapter},
		{"libvlc_media_player_get_chapter_count", &playerGetChapterCount},
		{"libvlc_media_player_set_chapter", &playerSetChapter},
		{"libvlc_media_player_next_chapter", &playerNextChapter},
		{"libvlc_media_player_previous_chapter", &playerPreviousChapter},
		{"libvlc_media_player_get_title", &playerGetTitle},
		{"libvlc_media_player_get_title_count", &playerGetTitleCount},
		{"libvlc_media_player_set_title", &playerSetTitle},
		{"libvlc_media_player_event_manager", &playerEventManager},

		{"libvlc_video_set_callbacks", &videoSetCallbacks},
		{"libvlc_video_set_format_callbacks", &videoSetFormatCallbacks},
		{"libvlc_audio_set_callbacks", &audioSetCallbacks},
		{"libvlc_audio_set_format_callbacks", &audioSetFormatCallbacks},

		{"libvlc_event_attach", &eventAttach},
		{"libvlc_event_detach", &eventDetach},

		{"libvlc_media_tracklist_count", &tracklistCount},
		{"libvlc_media_tracklist_at", &tracklistAt},
		{"libvlc_media_tracklist_delete", &tracklistDelete},
		{"libvlc_media_track_hold", &trackHold},
		{"libvlc_media_track_release", &trackRelease},
	}
}

// load opens libvlc once per process. The first caller's configured
// path wins; later engines share the same library.
func load(configured string) error {
	loadOnce.Do(func() {
		loadErr = loadLibrary(configured)
	})
	return loadErr
}

func loadLibrary(configured string) error {
	var (
		lib  uintptr
		errs []error
	)

	for _, path := range libraryPaths(configured) {
		h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			continue
		}
		lib, libPath = h, path
		break
	}
	if lib == 0 {
		return fmt.Errorf("load libvlc: %w", errors.Join(errs...))
	}

	for _, s := range symbols() {
		addr, err := purego.Dlsym(lib, s.name)
		if err != nil {
			return fmt.Errorf("load libvlc %s: symbol %s: %w", libPath, s.name, err)
		}
		purego.RegisterFunc(s.fn, addr)
	}

	// Log lines fall back to the raw format string without libc.
	if libc, err := purego.Dlopen(libcPath(), purego.RTLD_NOW|purego.RTLD_GLOBAL); err == nil {
		if addr, err := purego.Dlsym(libc, "vsnprintf"); err == nil {
			purego.RegisterFunc(&vsnprintf, addr)
		}
	}

	return nil
}
