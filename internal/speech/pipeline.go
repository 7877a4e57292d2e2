package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nadzzz/asistan/internal/interpreter"
)

// session is the transient RecordingSession. It owns its stream exclusively
// until the collected payload is handed to transcription.
type session struct {
	stream   Stream
	encoding string
	buf      bytes.Buffer
	done     chan struct{}
}

// collect drains the stream in arrival order until it is closed.
func (s *session) collect() {
	defer close(s.done)
	for frag := range s.stream.Fragments() {
		s.buf.Write(frag)
	}
}

// Pipeline runs capture attempts for one client. At most one attempt is in
// flight at a time.
type Pipeline struct {
	device      Device
	platform    Platform
	transcriber interpreter.Transcriber
	sink        Sink
	opts        Options
	observe     func(State)
	log         *slog.Logger

	mu      sync.Mutex
	state   State
	current *session
	helped  bool
	probed  bool
}

// Config wires a pipeline.
type Config struct {
	Device      Device
	Platform    Platform
	Transcriber interpreter.Transcriber
	Sink        Sink
	Options     Options

	// Observer, if set, is called on every state change.
	Observer func(State)
}

// NewPipeline creates an idle pipeline.
func NewPipeline(cfg Config) *Pipeline {
	p := &Pipeline{
		device:      cfg.Device,
		platform:    cfg.Platform,
		transcriber: cfg.Transcriber,
		sink:        cfg.Sink,
		opts:        cfg.Options,
		observe:     cfg.Observer,
		state:       StateIdle,
	}
	p.log = slog.With("platform", p.platform.String())
	return p
}

// State returns the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// transition moves from one of from to to, reporting false when the
// pipeline is elsewhere.
func (p *Pipeline) transition(to State, from ...State) bool {
	p.mu.Lock()
	ok := false
	for _, f := range from {
		if p.state == f {
			ok = true
			break
		}
	}
	if ok {
		p.state = to
	}
	p.mu.Unlock()
	if ok {
		p.changed(to)
	}
	return ok
}

func (p *Pipeline) set(to State) {
	p.mu.Lock()
	p.state = to
	p.mu.Unlock()
	p.changed(to)
}

func (p *Pipeline) changed(s State) {
	p.log.Debug("speech state", "state", s)
	if p.observe != nil {
		p.observe(s)
	}
}

// Start begins a capture attempt. On return without error the pipeline is
// Recording; any failure has already been announced through the sink and
// the pipeline is Idle again.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.transition(StatePermissionCheck, StateIdle) {
		return ErrBusy
	}

	p.mu.Lock()
	firstUse := !p.helped
	p.helped = true
	p.mu.Unlock()
	if firstUse {
		p.sink.Notify(ctx, helpText)
	}

	if err := p.checkPermission(ctx); err != nil {
		p.set(StateIdle)
		return err
	}

	encoding := Negotiate(p.opts.Preferred, p.device.SupportsEncoding)
	stream, err := p.device.StartCapture(ctx, encoding)
	if err != nil {
		p.log.Warn("capture request failed", "encoding", encoding, "error", err)
		p.sink.Notify(ctx, p.captureFailureText(err))
		p.set(StateIdle)
		return fmt.Errorf("starting capture: %w", err)
	}

	s := &session{stream: stream, encoding: encoding, done: make(chan struct{})}
	go s.collect()

	p.mu.Lock()
	p.current = s
	p.mu.Unlock()
	p.set(StateRecording)
	p.log.Info("recording started", "encoding", encoding)
	return nil
}

func (p *Pipeline) checkPermission(ctx context.Context) error {
	if p.platform == PlatformMobileWebKit {
		p.mu.Lock()
		probed := p.probed
		p.mu.Unlock()
		if probed {
			return nil
		}
		if err := p.device.ProbePermission(ctx); err != nil {
			p.log.Warn("permission probe failed", "error", err)
			p.sink.Notify(ctx, mobileWebKitText)
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		p.mu.Lock()
		p.probed = true
		p.mu.Unlock()
		return nil
	}

	perm, err := p.device.QueryPermission(ctx)
	if err != nil {
		// Unobtainable status: ask for capture directly.
		p.log.Debug("permission status unavailable", "error", err)
		return nil
	}
	if perm == PermissionDenied {
		p.sink.Notify(ctx, deniedText)
		return ErrPermissionDenied
	}
	return nil
}

func (p *Pipeline) captureFailureText(err error) string {
	switch {
	case p.platform == PlatformMobileWebKit:
		return mobileWebKitText
	case errors.Is(err, ErrPermissionDenied):
		return deniedText
	}
	return captureFailedText
}

// Stop ends the recording and transcribes what was captured.
func (p *Pipeline) Stop(ctx context.Context) (Result, error) {
	if !p.transition(StateStopping, StateRecording) {
		return Result{}, ErrNotRecording
	}
	rec := p.release()
	if !p.transition(StateTranscribing, StateStopping) {
		return Result{}, ErrNotRecording
	}
	return p.resolve(ctx, rec)
}

// Toggle starts a capture when idle and stops it when recording. The result
// is nil when a capture was started.
func (p *Pipeline) Toggle(ctx context.Context) (*Result, error) {
	switch p.State() {
	case StateIdle:
		return nil, p.Start(ctx)
	case StateRecording:
		res, err := p.Stop(ctx)
		return &res, err
	}
	return nil, ErrBusy
}

// Abort discards an in-progress recording without transcribing it.
func (p *Pipeline) Abort() {
	if !p.transition(StateStopping, StateRecording) {
		return
	}
	rec := p.release()
	p.log.Info("recording aborted", "bytes", len(rec.Data))
	p.set(StateIdle)
}

// release stops the stream, waits for every fragment and hands the payload
// out of the session.
func (p *Pipeline) release() Recording {
	p.mu.Lock()
	s := p.current
	p.current = nil
	p.mu.Unlock()

	if err := s.stream.Stop(); err != nil {
		p.log.Warn("stopping capture stream", "error", err)
	}
	<-s.done

	encoding := s.stream.Encoding()
	if encoding == "" {
		encoding = s.encoding
	}
	return Recording{Data: s.buf.Bytes(), Encoding: encoding}
}

// Process transcribes an already recorded payload, e.g. an upload.
func (p *Pipeline) Process(ctx context.Context, rec Recording) (Result, error) {
	if !p.transition(StateTranscribing, StateIdle) {
		return Result{}, ErrBusy
	}
	return p.resolve(ctx, rec)
}

// resolve runs Transcribing → Idle. The transcription call is not cancelled
// by a new capture request; it runs to completion or error.
func (p *Pipeline) resolve(ctx context.Context, rec Recording) (Result, error) {
	defer p.set(StateIdle)

	res := Result{Bytes: len(rec.Data)}
	if len(rec.Data) == 0 {
		p.log.Warn("empty recording", "encoding", rec.Encoding)
		p.sink.Notify(ctx, recognitionFailedText)
		return res, ErrEmptyRecording
	}

	res.Encoding = p.opts.Label(rec.Encoding)
	if res.Encoding != rec.Encoding {
		p.log.Debug("relabeled recording", "from", rec.Encoding, "to", res.Encoding)
	}

	tr, err := p.transcriber.Transcribe(ctx, rec.Data, res.Encoding, interpreter.TranscribeOpts{Language: p.opts.Language})
	if err != nil {
		p.log.Error("transcription failed", "bytes", res.Bytes, "error", err)
		p.sink.Notify(ctx, recognitionFailedText)
		return res, fmt.Errorf("%w: %v", ErrNoTranscript, err)
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		p.sink.Notify(ctx, recognitionFailedText)
		return res, ErrNoTranscript
	}

	res.Transcript = text
	p.log.Info("transcribed", "bytes", res.Bytes, "encoding", res.Encoding, "text_length", len(text))
	if err := p.sink.Submit(ctx, text); err != nil {
		return res, fmt.Errorf("submitting transcript: %w", err)
	}
	return res, nil
}
