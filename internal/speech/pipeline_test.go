package speech

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nadzzz/asistan/internal/interpreter"
)

type fakeStream struct {
	frags    chan []byte
	encoding string
	once     sync.Once
	stops    int
}

func newFakeStream(encoding string) *fakeStream {
	return &fakeStream{frags: make(chan []byte, 16), encoding: encoding}
}

func (s *fakeStream) Fragments() <-chan []byte { return s.frags }
func (s *fakeStream) Encoding() string         { return s.encoding }
func (s *fakeStream) Stop() error {
	s.stops++
	s.once.Do(func() { close(s.frags) })
	return nil
}

type fakeDevice struct {
	perm       Permission
	permErr    error
	probeErr   error
	probes     int
	supported  map[string]bool
	startErr   error
	started    []string
	stream     *fakeStream
	fragments  [][]byte
	deviceEnc  string
	queryCalls int
}

func (d *fakeDevice) QueryPermission(context.Context) (Permission, error) {
	d.queryCalls++
	return d.perm, d.permErr
}

func (d *fakeDevice) ProbePermission(context.Context) error {
	d.probes++
	return d.probeErr
}

func (d *fakeDevice) SupportsEncoding(tag string) bool { return d.supported[tag] }

func (d *fakeDevice) StartCapture(_ context.Context, encoding string) (Stream, error) {
	d.started = append(d.started, encoding)
	if d.startErr != nil {
		return nil, d.startErr
	}
	enc := encoding
	if enc == "" {
		enc = d.deviceEnc
	}
	d.stream = newFakeStream(enc)
	for _, f := range d.fragments {
		d.stream.frags <- f
	}
	return d.stream, nil
}

type transcribeCall struct {
	audio    []byte
	encoding string
	language string
}

type fakeTranscriber struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []transcribeCall
}

func (f *fakeTranscriber) Name() string { return "fake" }
func (f *fakeTranscriber) Close() error { return nil }
func (f *fakeTranscriber) Transcribe(_ context.Context, audio []byte, encoding string, opts interpreter.TranscribeOpts) (*interpreter.Transcription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, transcribeCall{append([]byte(nil), audio...), encoding, opts.Language})
	if f.err != nil {
		return nil, f.err
	}
	return &interpreter.Transcription{Text: f.text}, nil
}

type fakeSink struct {
	notes     []string
	submitted []string
	submitErr error
}

func (f *fakeSink) Notify(_ context.Context, text string) { f.notes = append(f.notes, text) }
func (f *fakeSink) Submit(_ context.Context, text string) error {
	f.submitted = append(f.submitted, text)
	return f.submitErr
}

type rig struct {
	p      *Pipeline
	dev    *fakeDevice
	tr     *fakeTranscriber
	sink   *fakeSink
	states []State
}

func newRig(platform Platform) *rig {
	r := &rig{
		dev:  &fakeDevice{perm: PermissionGranted, supported: map[string]bool{"audio/webm": true, "audio/ogg": true}},
		tr:   &fakeTranscriber{text: "YouTube aç"},
		sink: &fakeSink{},
	}
	r.p = NewPipeline(Config{
		Device:      r.dev,
		Platform:    platform,
		Transcriber: r.tr,
		Sink:        r.sink,
		Options:     DefaultOptions(),
		Observer:    func(s State) { r.states = append(r.states, s) },
	})
	return r
}

func TestCaptureHappyPath(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)
	r.dev.fragments = [][]byte{{1, 2}, {3}, {4, 5, 6}}

	require.NoError(t, r.p.Start(ctx))
	assert.Equal(t, StateRecording, r.p.State())
	assert.Equal(t, []string{"audio/webm"}, r.dev.started)

	res, err := r.p.Stop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "YouTube aç", res.Transcript)
	assert.Equal(t, 6, res.Bytes)
	assert.Equal(t, StateIdle, r.p.State())

	require.Len(t, r.tr.calls, 1)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, r.tr.calls[0].audio)
	assert.Equal(t, "tr", r.tr.calls[0].language)
	assert.Equal(t, []string{"YouTube aç"}, r.sink.submitted)
	assert.Equal(t, []string{helpText}, r.sink.notes)
	assert.Equal(t, []State{StatePermissionCheck, StateRecording, StateStopping, StateTranscribing, StateIdle}, r.states)
	assert.Equal(t, 1, r.dev.stream.stops)
}

func TestHelpNoticeOnlyOnFirstCapture(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)
	r.dev.fragments = [][]byte{{1}}

	for range 2 {
		require.NoError(t, r.p.Start(ctx))
		_, err := r.p.Stop(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{helpText}, r.sink.notes)
}

func TestDeniedPermissionNeverRequestsCapture(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRig(PlatformStandard)
	r.dev.perm = PermissionDenied

	err := r.p.Start(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Empty(t, r.dev.started)
	assert.Empty(t, r.tr.calls)
	assert.Equal(t, []string{helpText, deniedText}, r.sink.notes)
	assert.Equal(t, StateIdle, r.p.State())
}

func TestUnobtainablePermissionProceeds(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRig(PlatformStandard)
	r.dev.permErr = errors.New("permissions api unsupported")

	require.NoError(t, r.p.Start(context.Background()))
	r.p.Abort()
	assert.Len(t, r.dev.started, 1)
	assert.Equal(t, StateIdle, r.p.State())
}

func TestMobileWebKitProbe(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	t.Run("probe once", func(t *testing.T) {
		r := newRig(PlatformMobileWebKit)
		r.dev.fragments = [][]byte{{9}}
		for range 2 {
			require.NoError(t, r.p.Start(ctx))
			_, err := r.p.Stop(ctx)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, r.dev.probes)
		assert.Zero(t, r.dev.queryCalls)
	})

	t.Run("probe failure", func(t *testing.T) {
		r := newRig(PlatformMobileWebKit)
		r.dev.probeErr = errors.New("NotAllowedError")
		err := r.p.Start(ctx)
		assert.ErrorIs(t, err, ErrPermissionDenied)
		assert.Empty(t, r.dev.started)
		assert.Equal(t, []string{helpText, mobileWebKitText}, r.sink.notes)
	})

	t.Run("capture failure", func(t *testing.T) {
		r := newRig(PlatformMobileWebKit)
		r.dev.startErr = errors.New("boom")
		assert.Error(t, r.p.Start(ctx))
		assert.Equal(t, mobileWebKitText, r.sink.notes[len(r.sink.notes)-1])
	})
}

func TestCaptureFailureMessages(t *testing.T) {
	defer goleak.VerifyNone(t)
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"denied at request", ErrPermissionDenied, deniedText},
		{"generic", errors.New("no device"), captureFailedText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(PlatformStandard)
			r.dev.startErr = tt.err
			assert.Error(t, r.p.Start(context.Background()))
			assert.Equal(t, tt.want, r.sink.notes[len(r.sink.notes)-1])
			assert.Equal(t, StateIdle, r.p.State())
		})
	}
}

func TestEncodingNegotiationFallsBackToDeviceDefault(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)
	r.dev.supported = nil
	r.dev.deviceEnc = "audio/x-caf"
	r.dev.fragments = [][]byte{{1}}

	require.NoError(t, r.p.Start(ctx))
	assert.Equal(t, []string{""}, r.dev.started)

	res, err := r.p.Stop(ctx)
	require.NoError(t, err)
	// Unaccepted tag: same bytes, fallback label.
	assert.Equal(t, "audio/mp3", res.Encoding)
	assert.Equal(t, "audio/mp3", r.tr.calls[0].encoding)
	assert.Equal(t, []byte{1}, r.tr.calls[0].audio)
}

func TestEmptyRecordingSkipsTranscription(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)

	require.NoError(t, r.p.Start(ctx))
	_, err := r.p.Stop(ctx)
	assert.ErrorIs(t, err, ErrEmptyRecording)
	assert.Empty(t, r.tr.calls)
	assert.Empty(t, r.sink.submitted)
	assert.Equal(t, recognitionFailedText, r.sink.notes[len(r.sink.notes)-1])
	assert.Equal(t, 1, r.dev.stream.stops)
	assert.Equal(t, StateIdle, r.p.State())
}

func TestTranscriptionFailures(t *testing.T) {
	defer goleak.VerifyNone(t)
	tests := []struct {
		name string
		text string
		err  error
	}{
		{"collaborator error", "", errors.New("503")},
		{"blank text", "   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(PlatformStandard)
			r.tr.text, r.tr.err = tt.text, tt.err
			_, err := r.p.Process(context.Background(), Recording{Data: []byte{1}, Encoding: "audio/webm"})
			assert.ErrorIs(t, err, ErrNoTranscript)
			assert.Empty(t, r.sink.submitted)
			assert.Equal(t, []string{recognitionFailedText}, r.sink.notes)
			assert.Equal(t, StateIdle, r.p.State())
		})
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRig(PlatformStandard)
	rec := Recording{Data: []byte("payload"), Encoding: "audio/webm;codecs=opus"}

	first, err := r.p.Process(context.Background(), rec)
	require.NoError(t, err)
	second, err := r.p.Process(context.Background(), rec)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "audio/webm;codecs=opus", first.Encoding)
	assert.Equal(t, []string{"YouTube aç", "YouTube aç"}, r.sink.submitted)
}

func TestBusyWhileRecording(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)
	require.NoError(t, r.p.Start(ctx))

	assert.ErrorIs(t, r.p.Start(ctx), ErrBusy)
	_, err := r.p.Process(ctx, Recording{Data: []byte{1}})
	assert.ErrorIs(t, err, ErrBusy)

	r.p.Abort()
	assert.Empty(t, r.tr.calls)
	_, err = r.p.Stop(ctx)
	assert.ErrorIs(t, err, ErrNotRecording)
}

func TestToggle(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := newRig(PlatformStandard)
	r.dev.fragments = [][]byte{{7}}

	res, err := r.p.Toggle(ctx)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, StateRecording, r.p.State())

	res, err = r.p.Toggle(ctx)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "YouTube aç", res.Transcript)
}

func TestSubmitErrorIsReturned(t *testing.T) {
	defer goleak.VerifyNone(t)
	r := newRig(PlatformStandard)
	r.sink.submitErr = errors.New("pending action")
	res, err := r.p.Process(context.Background(), Recording{Data: []byte{1}, Encoding: "audio/ogg"})
	assert.Error(t, err)
	assert.Equal(t, "YouTube aç", res.Transcript)
	assert.Equal(t, StateIdle, r.p.State())
}

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		ua   string
		want Platform
	}{
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148", PlatformMobileWebKit},
		{"Mozilla/5.0 (iPad; CPU OS 16_6 like Mac OS X) AppleWebKit/605.1.15", PlatformMobileWebKit},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Mobile/15E148 Safari/604.1", PlatformMobileWebKit},
		{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 Version/17.0 Safari/605.1.15", PlatformStandard},
		{"Mozilla/5.0 (Linux; Android 14) Chrome/120.0 Mobile Safari/537.36", PlatformStandard},
		{"", PlatformStandard},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectPlatform(tt.ua), tt.ua)
	}
}

func TestParsePermission(t *testing.T) {
	assert.Equal(t, PermissionDenied, ParsePermission("DENIED"))
	assert.Equal(t, PermissionGranted, ParsePermission("granted"))
	assert.Equal(t, PermissionPrompt, ParsePermission("prompt"))
	assert.Equal(t, PermissionPrompt, ParsePermission(""))
}

func TestNegotiate(t *testing.T) {
	supports := func(tag string) bool { return tag == "audio/ogg" || tag == "audio/wav" }
	assert.Equal(t, "audio/ogg", Negotiate(DefaultOptions().Preferred, supports))
	assert.Equal(t, "", Negotiate(DefaultOptions().Preferred, func(string) bool { return false }))
}
