package libvlc

import (
	"math"
	"time"
	"unsafe"

	"github.com/zimwip/vlcbridge"
)

// libvlc_media_track_t field offsets on 64-bit targets.
const (
	trackCodecOffset       = 0
	trackTypeOffset        = 12
	trackBitrateOffset     = 32
	trackLanguageOffset    = 40
	trackDescriptionOffset = 48
	trackIDOffset          = 56
	trackNameOffset        = 72
	trackSelectedOffset    = 80
)

// libvlc_event_t: int type, void *p_obj, then the union.
const (
	eventTypeOffset  = 0
	eventUnionOffset = 16
)

// libvlc_MediaParsedChanged
const mediaParsedChanged = 3

// decodeTrack reads a libvlc_media_track_t.
func decodeTrack(ptr uintptr) vlcbridge.Track {
	p := unsafe.Pointer(ptr)

	return vlcbridge.Track{
		Type:        vlcbridge.TrackType(*(*int32)(unsafe.Add(p, trackTypeOffset))),
		Codec:       *(*uint32)(unsafe.Add(p, trackCodecOffset)),
		Bitrate:     *(*uint32)(unsafe.Add(p, trackBitrateOffset)),
		Language:    goString(*(*uintptr)(unsafe.Add(p, trackLanguageOffset))),
		Description: goString(*(*uintptr)(unsafe.Add(p, trackDescriptionOffset))),
		ID:          goString(*(*uintptr)(unsafe.Add(p, trackIDOffset))),
		Name:        goString(*(*uintptr)(unsafe.Add(p, trackNameOffset))),
		Selected:    *(*bool)(unsafe.Add(p, trackSelectedOffset)),
	}
}

func eventType(ev uintptr) int32 {
	return *(*int32)(unsafe.Add(unsafe.Pointer(ev), eventTypeOffset))
}

func eventInt(ev uintptr) int32 {
	return *(*int32)(unsafe.Add(unsafe.Pointer(ev), eventUnionOffset))
}

// cMediaStats mirrors libvlc_media_stats_t.
type cMediaStats struct {
	readBytes          uint64
	inputBitrate       float32
	demuxReadBytes     uint64
	demuxBitrate       float32
	demuxCorrupted     uint64
	demuxDiscontinuity uint64
	decodedVideo       uint64
	decodedAudio       uint64
	displayedPictures  uint64
	latePictures       uint64
	lostPictures       uint64
	playedAbuffers     uint64
	lostAbuffers       uint64
}

func (c cMediaStats) stats() vlcbridge.MediaStats {
	return vlcbridge.MediaStats{
		ReadBytes:          int64(c.readBytes),
		InputBitrate:       c.inputBitrate,
		DemuxReadBytes:     int64(c.demuxReadBytes),
		DemuxBitrate:       c.demuxBitrate,
		DemuxCorrupted:     int64(c.demuxCorrupted),
		DemuxDiscontinuity: int64(c.demuxDiscontinuity),
		DecodedVideo:       int64(c.decodedVideo),
		DecodedAudio:       int64(c.decodedAudio),
		DisplayedPictures:  int64(c.displayedPictures),
		LatePictures:       int64(c.latePictures),
		LostPictures:       int64(c.lostPictures),
		PlayedAudioBuffers: int64(c.playedAbuffers),
		LostAudioBuffers:   int64(c.lostAbuffers),
	}
}

// Player events attached for every session.
var playerEventTypes = []vlcbridge.EventType{
	vlcbridge.EventMediaChanged,
	vlcbridge.EventNothingSpecial,
	vlcbridge.EventOpening,
	vlcbridge.EventBuffering,
	vlcbridge.EventPlaying,
	vlcbridge.EventPaused,
	vlcbridge.EventStopped,
	vlcbridge.EventForward,
	vlcbridge.EventBackward,
	vlcbridge.EventStopping,
	vlcbridge.EventError,
}

// Player event values are shared with libVLC.
func playerEvent(t int32) vlcbridge.EventType {
	return vlcbridge.EventType(t)
}

func parsedStatus(s int32) vlcbridge.ParsedStatus {
	if s < int32(vlcbridge.ParsedNone) || s > int32(vlcbridge.ParsedDone) {
		return vlcbridge.ParsedFailed
	}
	return vlcbridge.ParsedStatus(s)
}

// parseTimeout converts a parse timeout to milliseconds. Zero keeps
// the engine default (-1); libVLC reads 0 as no timeout.
func parseTimeout(d time.Duration) int32 {
	if d <= 0 {
		return -1
	}
	ms := d.Milliseconds()
	if ms < 1 {
		ms = 1
	}
	if ms > math.MaxInt32 {
		ms = math.MaxInt32
	}
	return int32(ms)
}
