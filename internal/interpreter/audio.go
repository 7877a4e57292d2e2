package interpreter

import "strings"

// FileExt returns the file extension transcription services expect for an
// audio MIME type. Unknown types default to ".wav"; the services sniff the
// content anyway.
func FileExt(encoding string) string {
	switch {
	case strings.Contains(encoding, "wav"):
		return ".wav"
	case strings.Contains(encoding, "ogg"):
		return ".ogg"
	case strings.Contains(encoding, "mp3"), strings.Contains(encoding, "mpeg"), strings.Contains(encoding, "mpga"):
		return ".mp3"
	case strings.Contains(encoding, "mp4"), strings.Contains(encoding, "m4a"):
		return ".m4a"
	case strings.Contains(encoding, "flac"):
		return ".flac"
	case strings.Contains(encoding, "webm"):
		return ".webm"
	default:
		return ".wav"
	}
}
