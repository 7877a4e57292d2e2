package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/nadzzz/asistan/internal/assistant"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/speech"
	"github.com/nadzzz/asistan/internal/transport"
)

const (
	// replyTimeout bounds directives that may wait on a permission prompt.
	replyTimeout = 30 * time.Second
	// stopGrace is how long a stopped capture may take to flush.
	stopGrace = 3 * time.Second
)

// wsIn is a control message from the client.
type wsIn struct {
	Type string `json:"type"`

	Text string `json:"text,omitempty"`

	// hello
	UserAgent  string   `json:"user_agent,omitempty"`
	Permission string   `json:"permission,omitempty"`
	Encodings  []string `json:"encodings,omitempty"`

	// probe_result, capture_started, capture_failed
	OK       bool   `json:"ok,omitempty"`
	Encoding string `json:"encoding,omitempty"`
	Denied   bool   `json:"denied,omitempty"`
	Error    string `json:"error,omitempty"`

	// visibility
	Hidden bool `json:"hidden,omitempty"`
}

// wsOut is a message pushed to the client.
type wsOut struct {
	Type string `json:"type"`

	Event   *assistant.Event       `json:"event,omitempty"`
	Turns   []message.Turn         `json:"turns,omitempty"`
	Pending *assistant.PendingView `json:"pending,omitempty"`
	State   speech.State           `json:"state,omitempty"`
	Result  *speech.Result         `json:"result,omitempty"`

	Encoding string `json:"encoding,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

type wsHandler struct {
	b    *transport.Backend
	base context.Context
}

// ServeHTTP upgrades the request and runs a session until either side
// closes or the server shuts down.
func (h *wsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("failed to accept websocket", "error", err)
		return
	}
	defer func() {
		if err := ws.Close(websocket.StatusNormalClosure, "session ended"); err != nil {
			slog.Debug("closing websocket", "error", err)
		}
	}()

	ws.SetReadLimit(maxAudioBytes)

	s := newSession(r.Context(), ws, h.b, r.UserAgent())
	stop := context.AfterFunc(h.base, s.cancel)
	defer stop()
	s.run()
}

// session is one connected front-end. It is the capture device for its own
// speech pipeline and, while attached to the relay, the place confirmed
// apps are opened.
type session struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
	b      *transport.Backend
	log    *slog.Logger

	out  chan wsOut
	cmds chan wsIn

	mu         sync.Mutex
	userAgent  string
	permission string
	encodings  map[string]bool
	waiting    map[string]chan wsIn
	stream     *wsStream
	pipeline   *speech.Pipeline

	hidden chan struct{}
}

func newSession(ctx context.Context, conn *websocket.Conn, b *transport.Backend, userAgent string) *session {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(ctx)
	return &session{
		id:        id,
		ctx:       ctx,
		cancel:    cancel,
		conn:      conn,
		b:         b,
		log:       slog.With("session", id),
		out:       make(chan wsOut, 64),
		cmds:      make(chan wsIn, 16),
		userAgent: userAgent,
		encodings: make(map[string]bool),
		waiting:   make(map[string]chan wsIn),
		hidden:    make(chan struct{}, 1),
	}
}

func (s *session) run() {
	s.log.Info("websocket session started", "user_agent", s.userAgent)

	unwatch := s.b.Assistant.Watch(func(e assistant.Event) {
		s.push(wsOut{Type: "state", Event: &e})
	})
	defer unwatch()

	if s.b.Relay != nil {
		detach := s.b.Relay.Attach(s)
		defer detach()
	}

	view, _ := s.b.Assistant.Pending()
	s.push(wsOut{Type: "snapshot", Turns: s.b.Assistant.History(), Pending: view})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()
	go func() {
		defer wg.Done()
		s.workLoop()
	}()

	s.readLoop()
	s.cancel()
	close(s.cmds)
	wg.Wait()
	s.log.Info("websocket session ended")
}

// push queues an event without blocking the caller.
func (s *session) push(m wsOut) {
	select {
	case s.out <- m:
	default:
		s.log.Warn("dropping websocket event, client too slow", "type", m.Type)
	}
}

func (s *session) send(ctx context.Context, m wsOut) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", m.Type, err)
	}
	return s.conn.Write(ctx, websocket.MessageText, b)
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case m := <-s.out:
			if err := s.send(s.ctx, m); err != nil {
				s.log.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *session) readLoop() {
	for {
		typ, data, err := s.conn.Read(s.ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || s.ctx.Err() != nil {
				s.log.Debug("websocket closed")
			} else {
				s.log.Warn("websocket read error", "error", err)
			}
			return
		}

		if typ == websocket.MessageBinary {
			s.feed(data)
			continue
		}

		var msg wsIn
		if err := json.Unmarshal(data, &msg); err != nil {
			s.push(wsOut{Type: "error", Error: "malformed message"})
			continue
		}

		switch msg.Type {
		case "hello":
			s.hello(msg)
		case "visibility":
			if msg.Hidden {
				select {
				case s.hidden <- struct{}{}:
				default:
				}
			}
		case "probe_result", "capture_started", "capture_failed", "capture_stopped":
			if !s.deliver(msg) {
				s.log.Debug("unexpected reply", "type", msg.Type)
			}
		case "text", "confirm", "reject", "capture":
			select {
			case s.cmds <- msg:
			default:
				s.push(wsOut{Type: "error", Error: "too many commands in flight"})
			}
		default:
			s.push(wsOut{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

// workLoop runs commands off the reader so that replies to directives
// issued by a command can still be read.
func (s *session) workLoop() {
	defer func() {
		s.mu.Lock()
		p := s.pipeline
		s.mu.Unlock()
		if p != nil {
			p.Abort()
		}
	}()

	for msg := range s.cmds {
		var err error
		switch msg.Type {
		case "text":
			_, err = s.b.Assistant.HandleText(s.ctx, msg.Text)
		case "confirm":
			_, err = s.b.Assistant.Confirm(s.ctx)
		case "reject":
			_, err = s.b.Assistant.Reject(s.ctx)
		case "capture":
			var res *speech.Result
			res, err = s.speech().Toggle(s.ctx)
			if res != nil {
				s.push(wsOut{Type: "speech_result", Result: res})
			}
		}
		if err != nil && s.ctx.Err() == nil {
			s.log.Debug("command failed", "type", msg.Type, "error", err)
			s.push(wsOut{Type: "error", Error: err.Error()})
		}
	}
}

func (s *session) hello(msg wsIn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.UserAgent != "" {
		s.userAgent = msg.UserAgent
	}
	s.permission = msg.Permission
	s.encodings = make(map[string]bool, len(msg.Encodings))
	for _, e := range msg.Encodings {
		s.encodings[e] = true
	}
	s.log.Debug("client hello", "permission", msg.Permission, "encodings", msg.Encodings)
}

// speech returns the session pipeline, creating it on first use. The
// platform is fixed from the user agent known at that time.
func (s *session) speech() *speech.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pipeline == nil {
		platform := speech.DetectPlatform(s.userAgent)
		s.pipeline = s.b.NewPipeline(s, platform, func(st speech.State) {
			s.push(wsOut{Type: "speech", State: st})
		})
	}
	return s.pipeline
}

// request sends a directive and waits for one of the reply types.
func (s *session) request(ctx context.Context, directive wsOut, replies ...string) (wsIn, error) {
	ch := make(chan wsIn, 1)
	s.mu.Lock()
	for _, r := range replies {
		s.waiting[r] = ch
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		for _, r := range replies {
			if s.waiting[r] == ch {
				delete(s.waiting, r)
			}
		}
		s.mu.Unlock()
	}()

	if err := s.send(ctx, directive); err != nil {
		return wsIn{}, fmt.Errorf("sending %s: %w", directive.Type, err)
	}
	select {
	case m := <-ch:
		return m, nil
	case <-ctx.Done():
		return wsIn{}, fmt.Errorf("awaiting %s reply: %w", directive.Type, ctx.Err())
	}
}

func (s *session) deliver(m wsIn) bool {
	s.mu.Lock()
	ch, ok := s.waiting[m.Type]
	s.mu.Unlock()
	if !ok {
		return false
	}
	select {
	case ch <- m:
	default:
	}
	return true
}

func (s *session) feed(data []byte) {
	s.mu.Lock()
	st := s.stream
	s.mu.Unlock()
	if st == nil {
		return
	}
	st.feed(data)
}

// QueryPermission implements speech.Device.
func (s *session) QueryPermission(context.Context) (speech.Permission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.permission == "" {
		return "", errors.New("client did not report a permission status")
	}
	return speech.ParsePermission(s.permission), nil
}

// ProbePermission implements speech.Device.
func (s *session) ProbePermission(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	m, err := s.request(ctx, wsOut{Type: "probe"}, "probe_result")
	if err != nil {
		return err
	}
	if !m.OK {
		return fmt.Errorf("permission probe: %s", m.Error)
	}
	return nil
}

// SupportsEncoding implements speech.Device.
func (s *session) SupportsEncoding(tag string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encodings[tag]
}

// StartCapture implements speech.Device.
func (s *session) StartCapture(ctx context.Context, encoding string) (speech.Stream, error) {
	st := newWSStream(s, encoding)
	s.mu.Lock()
	s.stream = st
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	m, err := s.request(ctx, wsOut{Type: "capture_start", Encoding: encoding}, "capture_started", "capture_failed")
	if err == nil && m.Type == "capture_failed" {
		err = errors.New(m.Error)
		if m.Denied {
			err = fmt.Errorf("%w: %s", speech.ErrPermissionDenied, m.Error)
		}
	}
	if err != nil {
		s.detach(st)
		st.discard()
		return nil, err
	}
	st.mu.Lock()
	if m.Encoding != "" {
		st.encoding = m.Encoding
	}
	st.mu.Unlock()
	return st, nil
}

func (s *session) detach(st *wsStream) {
	s.mu.Lock()
	if s.stream == st {
		s.stream = nil
	}
	s.mu.Unlock()
}

// OpenURL implements launcher.Client.
func (s *session) OpenURL(ctx context.Context, url string) error {
	select {
	case <-s.hidden:
	default:
	}
	return s.send(ctx, wsOut{Type: "open_url", URL: url})
}

// AwaitHidden implements launcher.Client.
func (s *session) AwaitHidden(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.hidden:
		return true
	case <-t.C:
		return false
	case <-ctx.Done():
		return false
	}
}

// wsStream carries binary frames from the reader to the capture session.
// Frames are queued so the reader never waits on the collector, which only
// starts once the client has acknowledged the capture.
type wsStream struct {
	s        *session
	encoding string
	frags    chan []byte
	wake     chan struct{}
	quit     chan struct{}

	mu       sync.Mutex
	queue    [][]byte
	queued   int
	closed   bool
	stopOnce sync.Once
	quitOnce sync.Once
}

func newWSStream(s *session, encoding string) *wsStream {
	st := &wsStream{
		s:        s,
		encoding: encoding,
		frags:    make(chan []byte),
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}
	go st.pump()
	return st
}

func (st *wsStream) Fragments() <-chan []byte { return st.frags }

func (st *wsStream) Encoding() string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.encoding
}

// feed queues a fragment without blocking.
func (st *wsStream) feed(data []byte) {
	st.mu.Lock()
	if st.closed {
		st.mu.Unlock()
		return
	}
	if st.queued+len(data) > maxAudioBytes {
		st.mu.Unlock()
		st.s.log.Warn("dropping audio fragment, capture buffer full", "bytes", len(data))
		return
	}
	st.queue = append(st.queue, data)
	st.queued += len(data)
	st.mu.Unlock()
	st.signal()
}

func (st *wsStream) signal() {
	select {
	case st.wake <- struct{}{}:
	default:
	}
}

// pump hands queued fragments to the collector in arrival order and closes
// Fragments once the stream is closed and drained.
func (st *wsStream) pump() {
	defer close(st.frags)
	for {
		st.mu.Lock()
		batch, closed := st.queue, st.closed
		st.queue, st.queued = nil, 0
		st.mu.Unlock()

		for _, f := range batch {
			select {
			case st.frags <- f:
			case <-st.quit:
				return
			case <-st.s.ctx.Done():
				return
			}
		}
		if closed {
			return
		}
		select {
		case <-st.wake:
		case <-st.quit:
			return
		case <-st.s.ctx.Done():
			return
		}
	}
}

func (st *wsStream) close() {
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
	st.signal()
}

// discard closes a stream nobody will collect from.
func (st *wsStream) discard() {
	st.close()
	st.quitOnce.Do(func() { close(st.quit) })
}

// Stop asks the client to stop recording and waits for its last fragment.
func (st *wsStream) Stop() error {
	var err error
	st.stopOnce.Do(func() {
		defer st.close()
		defer st.s.detach(st)
		ctx, cancel := context.WithTimeout(st.s.ctx, stopGrace)
		defer cancel()
		_, err = st.s.request(ctx, wsOut{Type: "capture_stop"}, "capture_stopped")
	})
	return err
}
