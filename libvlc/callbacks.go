//go:build darwin || linux

package libvlc

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/zimwip/vlcbridge/internal/handle"
)

// C callbacks are created once per process and look their target up
// by the opaque id the engine hands back.
var (
	engines handle.Registry[*Engine]
	players handle.Registry[*player]
	medias  handle.Registry[*media]
)

var (
	callbackOnce sync.Once

	logCB uintptr

	videoLockCB    uintptr
	videoUnlockCB  uintptr
	videoDisplayCB uintptr
	videoFormatCB  uintptr
	videoCleanupCB uintptr

	audioPlayCB    uintptr
	audioPauseCB   uintptr
	audioResumeCB  uintptr
	audioFlushCB   uintptr
	audioDrainCB   uintptr
	audioSetupCB   uintptr
	audioCleanupCB uintptr

	mediaOpenCB  uintptr
	mediaReadCB  uintptr
	mediaSeekCB  uintptr
	mediaCloseCB uintptr

	playerEventCB uintptr
	mediaEventCB  uintptr
)

func initCallbacks() {
	callbackOnce.Do(func() {
		logCB = purego.NewCallback(onLog)

		videoLockCB = purego.NewCallback(onVideoLock)
		videoUnlockCB = purego.NewCallback(onVideoUnlock)
		videoDisplayCB = purego.NewCallback(onVideoDisplay)
		videoFormatCB = purego.NewCallback(onVideoFormat)
		videoCleanupCB = purego.NewCallback(onVideoCleanup)

		audioPlayCB = purego.NewCallback(onAudioPlay)
		audioPauseCB = purego.NewCallback(onAudioPause)
		audioResumeCB = purego.NewCallback(onAudioResume)
		audioFlushCB = purego.NewCallback(onAudioFlush)
		audioDrainCB = purego.NewCallback(onAudioDrain)
		audioSetupCB = purego.NewCallback(onAudioSetup)
		audioCleanupCB = purego.NewCallback(onAudioCleanup)

		mediaOpenCB = purego.NewCallback(onMediaOpen)
		mediaReadCB = purego.NewCallback(onMediaRead)
		mediaSeekCB = purego.NewCallback(onMediaSeek)
		mediaCloseCB = purego.NewCallback(onMediaClose)

		playerEventCB = purego.NewCallback(onPlayerEvent)
		mediaEventCB = purego.NewCallback(onMediaEvent)
	})
}

const logLineSize = 1024

func onLog(data uintptr, level int32, ctx, format, args uintptr) {
	e, ok := engines.Lookup(data)
	if !ok {
		return
	}

	lvl := logrusLevel(level)
	if lvl > e.level {
		return
	}

	e.log.Log(lvl, formatLog(format, args))
}

func formatLog(format, args uintptr) string {
	if vsnprintf == nil {
		return goString(format)
	}

	buf := make([]byte, logLineSize)
	var pin runtime.Pinner
	pin.Pin(&buf[0])
	defer pin.Unpin()

	n := vsnprintf(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)), format, args)
	if n < 0 {
		return goString(format)
	}
	if int(n) >= len(buf) {
		n = int32(len(buf) - 1)
	}

	return string(buf[:n])
}

func videoOf(opaque uintptr) *player {
	p, ok := players.Lookup(opaque)
	if !ok || p.video == nil {
		return nil
	}
	return p
}

func onVideoLock(opaque, planes uintptr) uintptr {
	p := videoOf(opaque)
	if p == nil {
		return 0
	}

	buf := p.video.Lock()
	if len(buf) == 0 {
		// Decode into a scratch picture the engine can always write.
		buf = p.scratch
	}
	if len(buf) == 0 {
		return 0
	}

	p.pin.Pin(&buf[0])
	writeUintptr(planes, uintptr(unsafe.Pointer(&buf[0])))

	return 0
}

func onVideoUnlock(opaque, picture, planes uintptr) {
	p := videoOf(opaque)
	if p == nil {
		return
	}

	p.video.Unlock()
	p.pin.Unpin()
}

func onVideoDisplay(opaque, picture uintptr) {
	if p := videoOf(opaque); p != nil {
		p.video.Display()
	}
}

func onVideoFormat(opaque, chroma, width, height, pitches, lines uintptr) uintptr {
	p := videoOf(readUintptr(opaque))
	if p == nil {
		return 0
	}

	f, err := p.video.Format(readUint32(width), readUint32(height))
	if err != nil {
		p.log.WithError(err).Warn("video format rejected")
		return 0
	}

	putFourCC(chroma, f.Chroma)
	writeUint32(width, f.Width)
	writeUint32(height, f.Height)
	writeUint32(pitches, f.Pitch)
	writeUint32(lines, f.Lines)

	p.scratch = make([]byte, int(f.Pitch)*int(f.Lines))

	return 1
}

func onVideoCleanup(opaque uintptr) {
	if p := videoOf(opaque); p != nil {
		p.video.Cleanup()
		p.scratch = nil
	}
}

func audioOf(opaque uintptr) *player {
	p, ok := players.Lookup(opaque)
	if !ok || p.audio == nil {
		return nil
	}
	return p
}

func onAudioPlay(data, samples uintptr, count uint32, pts int64) {
	p := audioOf(data)
	if p == nil || samples == 0 {
		return
	}

	n := int(count) * int(p.channels)
	p.audio.Play(unsafe.Slice((*float32)(unsafe.Pointer(samples)), n), pts)
}

func onAudioPause(data uintptr, pts int64) {
	if p := audioOf(data); p != nil {
		p.audio.Pause(pts)
	}
}

func onAudioResume(data uintptr, pts int64) {
	if p := audioOf(data); p != nil {
		p.audio.Resume(pts)
	}
}

func onAudioFlush(data uintptr, pts int64) {
	if p := audioOf(data); p != nil {
		p.audio.Flush(pts)
	}
}

func onAudioDrain(data uintptr) {
	if p := audioOf(data); p != nil {
		p.audio.Drain()
	}
}

func onAudioSetup(opaque, format, rate, channels uintptr) int32 {
	p := audioOf(readUintptr(opaque))
	if p == nil {
		return -1
	}

	f, err := p.audio.Setup(readUint32(rate), readUint32(channels))
	if err != nil {
		p.log.WithError(err).Warn("audio format rejected")
		return -1
	}

	putFourCC(format, f.Format)
	writeUint32(rate, f.Rate)
	writeUint32(channels, f.Channels)
	p.channels = f.Channels

	return 0
}

func onAudioCleanup(opaque uintptr) {
	if p := audioOf(opaque); p != nil {
		p.audio.Cleanup()
	}
}

func onMediaOpen(opaque, datap, sizep uintptr) int32 {
	m, ok := medias.Lookup(opaque)
	if !ok || m.cb == nil {
		return -1
	}

	size, err := m.cb.Open()
	if err != nil {
		m.log.WithError(err).Warn("media open failed")
		return -1
	}

	writeUintptr(datap, opaque)
	*(*uint64)(unsafe.Pointer(sizep)) = size

	return 0
}

func onMediaRead(opaque, buf, length uintptr) int {
	m, ok := medias.Lookup(opaque)
	if !ok || m.cb == nil {
		return -1
	}
	if length == 0 {
		return 0
	}

	n, err := m.cb.Read(unsafe.Slice((*byte)(unsafe.Pointer(buf)), int(length)))
	if err != nil && !errors.Is(err, io.EOF) {
		m.log.WithError(err).Warn("media read failed")
		return -1
	}

	return n
}

func onMediaSeek(opaque uintptr, offset uint64) int32 {
	m, ok := medias.Lookup(opaque)
	if !ok || m.cb == nil {
		return -1
	}

	if err := m.cb.Seek(offset); err != nil {
		m.log.WithError(err).Warn("media seek failed")
		return -1
	}

	return 0
}

func onMediaClose(opaque uintptr) {
	if m, ok := medias.Lookup(opaque); ok && m.cb != nil {
		m.cb.Close()
	}
}

func onPlayerEvent(ev, data uintptr) {
	p, ok := players.Lookup(data)
	if !ok {
		return
	}

	if fn := p.eventHandler(); fn != nil {
		fn(playerEvent(eventType(ev)))
	}
}

func onMediaEvent(ev, data uintptr) {
	m, ok := medias.Lookup(data)
	if !ok || eventType(ev) != mediaParsedChanged {
		return
	}

	if fn := m.parsedHandler(); fn != nil {
		fn(parsedStatus(eventInt(ev)))
	}
}
