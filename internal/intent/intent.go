// Package intent turns free text into structured, actionable intents.
//
// Extraction is pure and deterministic: an ordered list of rules is tried
// and the first one that produces an intent wins. A miss is the None value,
// not an error.
package intent

// Kind tags an Intent variant.
type Kind string

const (
	KindNone        Kind = "none"
	KindAppOpen     Kind = "app_open"
	KindMediaSearch Kind = "media_search"
	KindReminder    Kind = "reminder"
)

// Intent is one of None, AppOpen, MediaSearch or Reminder.
type Intent interface {
	Kind() Kind
	isIntent()
}

// None means nothing actionable was found.
type None struct{}

// AppOpen asks to launch a registered app.
type AppOpen struct {
	AppID string `json:"app_id"`
	Verb  string `json:"verb"`
}

// MediaSearch asks to search for something inside a media app.
type MediaSearch struct {
	AppID string `json:"app_id"`
	Query string `json:"query"`
}

// Reminder is a reminder announced by the assistant in its reply.
type Reminder struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Description string `json:"description,omitempty"`
}

func (None) Kind() Kind        { return KindNone }
func (AppOpen) Kind() Kind     { return KindAppOpen }
func (MediaSearch) Kind() Kind { return KindMediaSearch }
func (Reminder) Kind() Kind    { return KindReminder }

func (None) isIntent()        {}
func (AppOpen) isIntent()     {}
func (MediaSearch) isIntent() {}
func (Reminder) isIntent()    {}

// IsNone reports whether i is nil or the None variant.
func IsNone(i Intent) bool {
	return i == nil || i.Kind() == KindNone
}
