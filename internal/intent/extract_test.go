package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/message"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(apps.Default())
}

func TestExtractUserText(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want Intent
	}{
		{"media search spotify", "Spotify'dan efkar açabilir misin", MediaSearch{AppID: "spotify", Query: "efkar"}},
		{"media search youtube multiword", "YouTube'dan Tarkan şarkısı çal", MediaSearch{AppID: "youtube", Query: "Tarkan şarkısı"}},
		{"media search spaced marker", "youtube dan lofi müzik oynat.", MediaSearch{AppID: "youtube", Query: "lofi müzik"}},
		{"media wins over generic", "Spotify'dan efkar aç", MediaSearch{AppID: "spotify", Query: "efkar"}},
		{"name first", "YouTube aç", AppOpen{AppID: "youtube", Verb: "aç"}},
		{"verb first", "open instagram", AppOpen{AppID: "instagram", Verb: "open"}},
		{"verb first trailing words", "please launch twitter now", AppOpen{AppID: "twitter", Verb: "launch"}},
		{"accusative suffix", "Google Maps'i açar mısın?", AppOpen{AppID: "maps", Verb: "açar mısın"}},
		{"keyword match", "haritayı göster", AppOpen{AppID: "maps", Verb: "göster"}},
		{"keyword prefix", "instayı aç", AppOpen{AppID: "instagram", Verb: "aç"}},
		{"empty media query falls through", "Spotify'dan   aç", AppOpen{AppID: "spotify", Verb: "aç"}},
		{"plain chat", "bugün hava nasıl", None{}},
		{"verb inside a word", "kaç saat kaldı", None{}},
		{"unknown app", "aç kitap", None{}},
		{"short phrase", "aç go", None{}},
		{"empty", "   ", None{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestResolveIgnoresShortTokens(t *testing.T) {
	e := newTestExtractor(t)

	for _, phrase := range []string{"e ma", "go", "ab cd", "tv"} {
		_, ok := e.Resolve(phrase)
		assert.False(t, ok, "phrase %q should not resolve", phrase)
	}

	app, ok := e.Resolve("oogle m")
	require.True(t, ok)
	assert.Equal(t, "maps", app.ID)
}

func TestScanReplyReminder(t *testing.T) {
	e := newTestExtractor(t)

	reply := "Tabii, hatırlatıcıyı hazırladım:\nBaşlık: Toplantı\nTarih: 2024-05-01\nSaat: 10:00\n"
	assert.Equal(t, Reminder{Title: "Toplantı", Date: "2024-05-01", Time: "10:00"}, e.ScanReply(reply))

	withDesc := "- Başlık: Doktor\n- Tarih: 2024-06-02\n- Saat: 14:30\n- Açıklama: Kontrol randevusu"
	assert.Equal(t, Reminder{
		Title:       "Doktor",
		Date:        "2024-06-02",
		Time:        "14:30",
		Description: "Kontrol randevusu",
	}, e.ScanReply(withDesc))

	missingTime := "Başlık: Toplantı\nTarih: 2024-05-01\n"
	assert.Equal(t, None{}, e.ScanReply(missingTime))

	emptyTitle := "Başlık: \nTarih: 2024-05-01\nSaat: 10:00"
	assert.Equal(t, None{}, e.ScanReply(emptyTitle))

	notLineAnchored := "Not: Başlık: Toplantı Tarih: 2024-05-01 Saat: 10:00"
	assert.Equal(t, None{}, e.ScanReply(notLineAnchored))
}

func TestScanReplyReactiveAppOpen(t *testing.T) {
	e := newTestExtractor(t)

	assert.Equal(t, AppOpen{AppID: "maps", Verb: DefaultVerb},
		e.ScanReply("Google Maps uygulamasını açmak istiyor musunuz?"))
	assert.Equal(t, AppOpen{AppID: "spotify", Verb: DefaultVerb},
		e.ScanReply("Spotify'ı açmak istediğinizi anlıyorum."))
	assert.Equal(t, None{}, e.ScanReply("YouTube harika bir platform."))
	assert.Equal(t, None{}, e.ScanReply("Bir uygulamayı açmak istiyor musunuz?"))
}

func TestScanReplyPrefersReminder(t *testing.T) {
	e := newTestExtractor(t)
	reply := "YouTube uygulamasını açmak istiyor musunuz?\nBaşlık: Video\nTarih: 2024-05-01\nSaat: 09:00"
	assert.Equal(t, KindReminder, e.ScanReply(reply).Kind())
}

func TestInterpretByOrigin(t *testing.T) {
	e := newTestExtractor(t)
	text := "Başlık: Toplantı\nTarih: 2024-05-01\nSaat: 10:00"

	assert.True(t, IsNone(e.Interpret(message.NewUtterance(text, message.OriginTyped))))
	assert.Equal(t, KindReminder, e.Interpret(message.NewUtterance(text, message.OriginReplyScan)).Kind())
	assert.Equal(t, KindAppOpen, e.Interpret(message.NewUtterance("YouTube aç", message.OriginTranscribed)).Kind())
}
