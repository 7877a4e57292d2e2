package speech

import "strings"

// Options configures encoding negotiation and transcription.
type Options struct {
	// Preferred lists capture encodings in order of preference.
	Preferred []string

	// Accepted lists the encodings the transcription service takes.
	Accepted []string

	// Fallback is the accepted encoding a payload is relabeled to when its
	// own tag is not accepted.
	Fallback string

	// Language is the transcription language hint.
	Language string
}

// DefaultOptions match what browsers record and Whisper accepts.
func DefaultOptions() Options {
	return Options{
		Preferred: []string{"audio/mp3", "audio/mp4", "audio/webm", "audio/ogg", "audio/wav"},
		Accepted:  []string{"audio/mp3", "audio/mp4", "audio/mpeg", "audio/mpga", "audio/wav", "audio/webm", "audio/ogg"},
		Fallback:  "audio/mp3",
		Language:  "tr",
	}
}

// Negotiate returns the first preferred encoding the device supports, or ""
// (the device default) when none is.
func Negotiate(preferred []string, supports func(string) bool) string {
	for _, tag := range preferred {
		if supports(tag) {
			return tag
		}
	}
	return ""
}

// Label returns the tag to submit a payload under: the payload's own tag
// when the service accepts it, the fallback otherwise. Codec parameters
// ("audio/webm;codecs=opus") are ignored for the comparison.
func (o Options) Label(tag string) string {
	base := baseType(tag)
	for _, a := range o.Accepted {
		if base != "" && baseType(a) == base {
			return tag
		}
	}
	return o.Fallback
}

func baseType(tag string) string {
	if i := strings.IndexByte(tag, ';'); i >= 0 {
		tag = tag[:i]
	}
	return strings.ToLower(strings.TrimSpace(tag))
}
