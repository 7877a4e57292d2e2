package intent

import (
	"regexp"
	"strings"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/message"
)

// DefaultVerb is used when the assistant itself proposes opening an app.
const DefaultVerb = "aç"

const verbs = `açabilir\s+misin|açar\s+mısın|açsana|aç|başlat|çalıştır|göster|open|start|run|show|launch|execute|play|oynat|çal`

var (
	// "Spotify'dan efkar açabilir misin", "youtube dan tarkan çal"
	mediaPattern = regexp.MustCompile(`(?i)\b(youtube|spotify)(?:['’]\s?|\s)?(?:dan|den|tan|ten)\s+(.+?)\s+(açabilir\s+misin|açar\s+mısın|açsana|aç|oynat|çal|dinle|play)(?:\s|$|[.?!,])`)

	// "open youtube", "lütfen aç instagram"
	verbFirstPattern = regexp.MustCompile(`(?i)(?:^|[\s,;:.!?])(` + verbs + `)\s+([\p{L}\s'’]+)(?:\s|$|[.?!,])`)

	// "YouTube aç", "Google Maps'i açar mısın"
	nameFirstPattern = regexp.MustCompile(`(?i)^\s*([\p{L}\s'’]+?)\s+(` + verbs + `)(?:\s|$|[.?!,])`)

	reminderFields = struct {
		title, date, time, description *regexp.Regexp
	}{
		title:       fieldPattern("Başlık"),
		date:        fieldPattern("Tarih"),
		time:        fieldPattern("Saat"),
		description: fieldPattern("Açıklama"),
	}

	// Phrases the assistant uses when it wants the user to confirm an app launch.
	openTriggers = []string{
		"açmak istediğinizi anlıyorum",
		"açmak istediğinizi anladım",
		"açmak için onay",
		"uygulamasını açmak",
		"açmak istiyor musunuz",
		"açmamı ister misiniz",
	}
)

func fieldPattern(label string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^[ \t*\-•]*` + label + `[ \t]*\*{0,2}:\*{0,2}[ \t]*(.*)$`)
}

type rule struct {
	name  string
	apply func(text string) Intent
}

// Extractor runs the ordered rule lists against user input and reply text.
type Extractor struct {
	registry   *apps.Registry
	userRules  []rule
	replyRules []rule
}

// NewExtractor builds an extractor over a registry.
func NewExtractor(registry *apps.Registry) *Extractor {
	e := &Extractor{registry: registry}
	e.userRules = []rule{
		{name: "media-search", apply: e.mediaSearch},
		{name: "app-open", apply: e.appOpen},
	}
	e.replyRules = []rule{
		{name: "reminder", apply: e.reminder},
		{name: "reactive-app-open", apply: e.reactiveAppOpen},
	}
	return e
}

// Extract interprets user text (typed or transcribed).
func (e *Extractor) Extract(text string) Intent {
	return firstMatch(e.userRules, text)
}

// ScanReply interprets the remote assistant's reply text.
func (e *Extractor) ScanReply(text string) Intent {
	return firstMatch(e.replyRules, text)
}

// Interpret picks the rule list from the utterance origin.
func (e *Extractor) Interpret(u message.Utterance) Intent {
	if u.Origin() == message.OriginReplyScan {
		return e.ScanReply(u.Text())
	}
	return e.Extract(u.Text())
}

func firstMatch(rules []rule, text string) Intent {
	if strings.TrimSpace(text) == "" {
		return None{}
	}
	for _, r := range rules {
		if in := r.apply(text); !IsNone(in) {
			return in
		}
	}
	return None{}
}

func (e *Extractor) mediaSearch(text string) Intent {
	m := mediaPattern.FindStringSubmatch(text)
	if m == nil {
		return None{}
	}
	query := strings.TrimSpace(m[2])
	if query == "" {
		return None{}
	}
	appID := "spotify"
	if strings.Contains(strings.ToLower(m[1]), "youtube") {
		appID = "youtube"
	}
	if _, ok := e.registry.Get(appID); !ok {
		return None{}
	}
	return MediaSearch{AppID: appID, Query: query}
}

func (e *Extractor) appOpen(text string) Intent {
	if m := verbFirstPattern.FindStringSubmatch(text); m != nil {
		if app, ok := e.Resolve(m[2]); ok {
			return AppOpen{AppID: app.ID, Verb: normalizeVerb(m[1])}
		}
	}
	if m := nameFirstPattern.FindStringSubmatch(text); m != nil {
		if app, ok := e.Resolve(m[1]); ok {
			return AppOpen{AppID: app.ID, Verb: normalizeVerb(m[2])}
		}
	}
	return None{}
}

func (e *Extractor) reminder(text string) Intent {
	title := field(reminderFields.title, text)
	date := field(reminderFields.date, text)
	clock := field(reminderFields.time, text)
	if title == "" || date == "" || clock == "" {
		return None{}
	}
	return Reminder{
		Title:       title,
		Date:        date,
		Time:        clock,
		Description: field(reminderFields.description, text),
	}
}

func field(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.Trim(strings.TrimSpace(m[1]), "*")
}

func (e *Extractor) reactiveAppOpen(text string) Intent {
	lower := strings.ToLower(text)
	triggered := false
	for _, p := range openTriggers {
		if strings.Contains(lower, p) {
			triggered = true
			break
		}
	}
	if !triggered {
		return None{}
	}

	// Longest display name wins so "Google Maps" is not shadowed by "Google".
	var best apps.Descriptor
	for _, app := range e.registry.All() {
		name := strings.ToLower(app.Name)
		if strings.Contains(lower, name) && len(name) > len(best.Name) {
			best = app
		}
	}
	if best.ID == "" {
		return None{}
	}
	return AppOpen{AppID: best.ID, Verb: DefaultVerb}
}

func normalizeVerb(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
