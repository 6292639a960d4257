// Package libvlc drives libVLC 4 through purego, without cgo.
//
// libvlc.so (or libvlc.dylib) is loaded at runtime. Callbacks cross the
// C boundary as ids into process wide registries; no Go pointer is ever
// stored on the C side.
package libvlc

import (
	"os"
	"runtime"
	"unsafe"

	"github.com/sirupsen/logrus"
)

// LibraryEnv names a library path tried before the system locations.
const LibraryEnv = "VLCBRIDGE_LIBVLC"

// libVLC log levels.
const (
	logDebug   = 0
	logNotice  = 2
	logWarning = 3
	logError   = 4
)

// logrusLevel maps a libVLC log level to logrus.
func logrusLevel(level int32) logrus.Level {
	switch level {
	case logError:
		return logrus.ErrorLevel
	case logWarning:
		return logrus.WarnLevel
	case logNotice:
		return logrus.InfoLevel
	default:
		return logrus.DebugLevel
	}
}

// libraryPaths lists where libvlc is looked for, most specific first.
func libraryPaths(configured string) []string {
	var paths []string

	if configured != "" {
		paths = append(paths, configured)
	}
	if env := os.Getenv(LibraryEnv); env != "" {
		paths = append(paths, env)
	}

	switch runtime.GOOS {
	case "darwin":
		paths = append(paths,
			"libvlc.dylib",
			"/Applications/VLC.app/Contents/MacOS/lib/libvlc.dylib",
			"/opt/homebrew/lib/libvlc.dylib",
			"/usr/local/lib/libvlc.dylib",
		)
	default:
		paths = append(paths,
			"libvlc.so.12",
			"libvlc.so",
			"/usr/local/lib/libvlc.so",
			"/usr/lib/libvlc.so",
		)
	}

	return paths
}

func libcPath() string {
	if runtime.GOOS == "darwin" {
		return "/usr/lib/libSystem.B.dylib"
	}
	return "libc.so.6"
}

// maxCString bounds reads of C strings that lack a terminator.
const maxCString = 1 << 20

// goString copies a NUL terminated C string.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}

	p := unsafe.Pointer(ptr)
	n := 0
	for n < maxCString && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}

	return string(unsafe.Slice((*byte)(p), n))
}

// putFourCC writes a four character code into a C char buffer.
func putFourCC(dst uintptr, code string) {
	b := unsafe.Slice((*byte)(unsafe.Pointer(dst)), 4)
	copy(b, code)
}

func readUint32(ptr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(ptr))
}

func writeUint32(ptr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(ptr)) = v
}

func readUintptr(ptr uintptr) uintptr {
	return *(*uintptr)(unsafe.Pointer(ptr))
}

func writeUintptr(ptr uintptr, v uintptr) {
	*(*uintptr)(unsafe.Pointer(ptr)) = v
}
