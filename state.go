package vlcbridge

// State is the playback state reported by the engine.
// The values match libVLC 4.
type State int

const (
	StateNothingSpecial State = iota
	StateOpening
	StateBuffering
	StatePlaying
	StatePaused
	StateStopped
	StateStopping
	StateError
)

func (s State) String() string {
	switch s {
	case StateNothingSpecial:
		return "NothingSpecial"
	case StateOpening:
		return "Opening"
	case StateBuffering:
		return "Buffering"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	case StateStopped:
		return "Stopped"
	case StateStopping:
		return "Stopping"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Idle reports whether there is nothing left to stop.
func (s State) Idle() bool {
	return s == StateNothingSpecial || s == StateStopped
}

// ParsedStatus is the parse state of a media item.
type ParsedStatus int

const (
	ParsedNone ParsedStatus = iota
	ParsedPending
	ParsedSkipped
	ParsedFailed
	ParsedTimeout
	ParsedCancelled
	ParsedDone
)

func (s ParsedStatus) String() string {
	switch s {
	case ParsedNone:
		return "none"
	case ParsedPending:
		return "pending"
	case ParsedSkipped:
		return "skipped"
	case ParsedFailed:
		return "failed"
	case ParsedTimeout:
		return "timeout"
	case ParsedCancelled:
		return "cancelled"
	case ParsedDone:
		return "done"
	default:
		return "unknown"
	}
}

// ParseFlag selects what a parse request may do.
// Flags can be combined.
type ParseFlag int

const (
	// ParseLocal parses the media if it is a local file.
	ParseLocal ParseFlag = 0x01
	// ParseNetwork parses the media even if it is a network stream.
	ParseNetwork ParseFlag = 0x02
	// ParseForced parses the media even if it would be skipped.
	ParseForced ParseFlag = 0x04
	// FetchLocal fetches meta and cover art from local resources.
	FetchLocal ParseFlag = 0x08
	// FetchNetwork fetches meta and cover art from the network.
	FetchNetwork ParseFlag = 0x10
	// DoInteract allows the parser to ask the user for credentials.
	DoInteract ParseFlag = 0x20
)

// NavigateMode is a DVD menu navigation action.
type NavigateMode uint32

const (
	NavigateActivate NavigateMode = iota
	NavigateUp
	NavigateDown
	NavigateLeft
	NavigateRight
	NavigatePopup
)

// MetaKey selects one media meta field.
type MetaKey int

const (
	MetaTitle MetaKey = iota
	MetaArtist
	MetaGenre
	MetaCopyright
	MetaAlbum
	MetaTrackNumber
	MetaDescription
	MetaRating
	MetaDate
	MetaSetting
	MetaURL
	MetaLanguage
	MetaNowPlaying
	MetaPublisher
	MetaEncodedBy
	MetaArtworkURL
	MetaTrackID
	MetaTrackTotal
	MetaDirector
	MetaSeason
	MetaEpisode
	MetaShowName
	MetaActors
	MetaAlbumArtist
	MetaDiscNumber
	MetaDiscTotal
)

// MediaStats are the engine's running counters for a media item.
type MediaStats struct {
	ReadBytes          int64
	InputBitrate       float32
	DemuxReadBytes     int64
	DemuxBitrate       float32
	DemuxCorrupted     int64
	DemuxDiscontinuity int64
	DecodedVideo       int64
	DecodedAudio       int64
	DisplayedPictures  int64
	LatePictures       int64
	LostPictures       int64
	PlayedAudioBuffers int64
	LostAudioBuffers   int64
}
