package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/conversation"
	"github.com/nadzzz/asistan/internal/intent"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/pending"
	"github.com/nadzzz/asistan/internal/reminder"
	"github.com/nadzzz/asistan/internal/store"
)

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	history [][]message.WireTurn
}

func (f *fakeCompleter) Name() string { return "fake" }
func (f *fakeCompleter) Close() error { return nil }
func (f *fakeCompleter) Complete(_ context.Context, turns []message.WireTurn) (message.WireTurn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, turns)
	if f.err != nil {
		return message.WireTurn{}, f.err
	}
	return message.WireTurn{Role: message.RoleAssistant, Content: f.reply}, nil
}

type fakeLauncher struct {
	launched []string
	queries  []string
}

func (f *fakeLauncher) Launch(_ context.Context, app apps.Descriptor, query string) (bool, error) {
	f.launched = append(f.launched, app.ID)
	f.queries = append(f.queries, query)
	return false, nil
}

type fixture struct {
	a         *Assistant
	completer *fakeCompleter
	launcher  *fakeLauncher
	book      *reminder.Book
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemory()
	conv, err := conversation.Open(context.Background(), s)
	require.NoError(t, err)
	f := &fixture{
		completer: &fakeCompleter{reply: "Merhaba, nasıl yardımcı olabilirim?"},
		launcher:  &fakeLauncher{},
		book:      reminder.NewBook(s),
	}
	f.a = New(Deps{
		Registry:     apps.Default(),
		Conversation: conv,
		Reminders:    f.book,
		Launcher:     f.launcher,
		Completer:    f.completer,
	})
	return f
}

func contents(turns []message.Turn) []string {
	out := make([]string, len(turns))
	for i, t := range turns {
		out[i] = t.Content
	}
	return out
}

func TestTypedAppOpenSkipsRemote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.a.HandleText(ctx, "YouTube aç")
	require.NoError(t, err)
	assert.Equal(t, intent.KindAppOpen, res.Intent)
	require.NotNil(t, res.Pending)
	assert.Equal(t, pending.StateAwaitingAppOpen, res.Pending.State)
	assert.Equal(t, "youtube", res.Pending.Action.AppOpen.App.ID)
	assert.Empty(t, f.completer.history)
	assert.Equal(t, []string{"YouTube aç"}, contents(res.Appended))

	out, err := f.a.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, out.Succeeded)
	assert.Equal(t, []string{"youtube"}, f.launcher.launched)
	_, occupied := f.a.Pending()
	assert.False(t, occupied)

	history := f.a.History()
	assert.Equal(t, "YouTube web sayfası açıldı.", history[len(history)-1].Content)
}

func TestTurnRefusedWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.a.HandleText(ctx, "Spotify'dan efkar açabilir misin")
	require.NoError(t, err)
	before := len(f.a.History())

	res, err := f.a.HandleText(ctx, "bugün hava nasıl")
	assert.ErrorIs(t, err, ErrPendingAction)
	assert.Equal(t, []string{"bugün hava nasıl"}, contents(res.Appended))
	assert.Len(t, f.a.History(), before+1)
	assert.Nil(t, res.Pending)
	assert.Empty(t, f.completer.history)

	view, ok := f.a.Pending()
	require.True(t, ok)
	assert.Equal(t, "efkar", view.Action.AppOpen.Query)
}

func TestRemoteReplyIsAppended(t *testing.T) {
	f := newFixture(t)
	res, err := f.a.HandleText(context.Background(), "bugün hava nasıl")
	require.NoError(t, err)

	assert.Equal(t, intent.KindNone, res.Intent)
	assert.Nil(t, res.Pending)
	assert.Equal(t, []string{"bugün hava nasıl", f.completer.reply}, contents(res.Appended))

	require.Len(t, f.completer.history, 1)
	sent := f.completer.history[0]
	assert.Equal(t, message.WireTurn{Role: message.RoleAssistant, Content: message.Greeting}, sent[0])
	assert.Equal(t, message.WireTurn{Role: message.RoleUser, Content: "bugün hava nasıl"}, sent[len(sent)-1])
}

func TestRemoteFailureAppendsFallback(t *testing.T) {
	f := newFixture(t)
	f.completer.err = errors.New("timeout")
	ctx := context.Background()

	res, err := f.a.HandleText(ctx, "merhaba")
	require.NoError(t, err)
	assert.True(t, res.RemoteFailed)
	assert.Equal(t, remoteFailedText, res.Appended[len(res.Appended)-1].Content)

	// The conversation stays usable.
	f.completer.err = nil
	_, err = f.a.HandleText(ctx, "tekrar")
	require.NoError(t, err)
	assert.Len(t, f.completer.history, 2)
}

func TestReplyScanProposesReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.completer.reply = "Tabii, hatırlatıcıyı hazırladım:\nBaşlık: Toplantı\nTarih: 2024-05-01\nSaat: 10:00\nAçıklama: Proje görüşmesi"

	res, err := f.a.HandleText(ctx, "yarın 10'da toplantı için hatırlatıcı kur")
	require.NoError(t, err)
	assert.Equal(t, intent.KindReminder, res.Intent)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "Toplantı", res.Pending.Action.Reminder.Title)

	out, err := f.a.Confirm(ctx)
	require.NoError(t, err)
	assert.True(t, out.Succeeded)

	list, err := f.book.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Proje görüşmesi", list[0].Description)
}

func TestReplyScanReactiveAppOpen(t *testing.T) {
	f := newFixture(t)
	f.completer.reply = "Instagram uygulamasını açmak istediğinizi anladım."

	res, err := f.a.HandleText(context.Background(), "şu fotoğraf uygulamasını başlatır mısın lütfen")
	require.NoError(t, err)
	require.NotNil(t, res.Pending)
	assert.Equal(t, "instagram", res.Pending.Action.AppOpen.App.ID)
}

func TestTranscribedMediaSearchAnnounces(t *testing.T) {
	f := newFixture(t)
	res, err := f.a.HandleTranscript(context.Background(), "YouTube'dan Tarkan şarkısı aç")
	require.NoError(t, err)

	assert.Equal(t, intent.KindMediaSearch, res.Intent)
	require.Len(t, res.Appended, 2)
	assert.Equal(t, `YouTube'dan "Tarkan şarkısı" açmak istediğinizi anladım. Onaylıyor musunuz?`, res.Appended[1].Content)
}

func TestRejectAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.a.Reject(ctx)
	assert.ErrorIs(t, err, pending.ErrEmpty)

	_, err = f.a.HandleText(ctx, "haritayı aç")
	require.NoError(t, err)
	out, err := f.a.Reject(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Google Maps açma işlemi iptal edildi.", out.Turn.Content)
	assert.Empty(t, f.launcher.launched)

	_, err = f.a.HandleText(ctx, "YouTube aç")
	require.NoError(t, err)
	turns := f.a.Reset(ctx)
	assert.Equal(t, []string{message.Greeting}, contents(turns))
	_, occupied := f.a.Pending()
	assert.False(t, occupied)
}

func TestEmptyInput(t *testing.T) {
	f := newFixture(t)
	_, err := f.a.HandleText(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestWatchReceivesEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var events []Event
	cancel := f.a.Watch(func(e Event) { events = append(events, e) })

	_, err := f.a.HandleText(ctx, "YouTube aç")
	require.NoError(t, err)
	f.a.Notify(ctx, "bilgi")
	cancel()
	f.a.Notify(ctx, "görünmez")

	require.Len(t, events, 2)
	require.NotNil(t, events[0].Pending)
	assert.Equal(t, "bilgi", events[1].Appended[0].Content)
}

func TestSubmitFeedsTranscript(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.a.Submit(context.Background(), "YouTube aç"))
	_, ok := f.a.Pending()
	assert.True(t, ok)
	assert.ErrorIs(t, f.a.Submit(context.Background(), "Spotify aç"), ErrPendingAction)
}
