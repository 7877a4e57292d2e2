// Package assistant is the conversation orchestrator. It routes every user
// turn through intent extraction, the pending-action gate and the remote
// completion service, and scans remote replies for reactive intents.
//
// The Assistant is the single writer for the conversation log and the
// pending slot: one mutex serializes turns, confirmations, rejections,
// resets and speech notifications in submission order.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/conversation"
	"github.com/nadzzz/asistan/internal/intent"
	"github.com/nadzzz/asistan/internal/interpreter"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/pending"
	"github.com/nadzzz/asistan/internal/reminder"
)

var (
	// ErrPendingAction is returned for a new turn while an action awaits
	// confirmation. The turn is recorded but not processed.
	ErrPendingAction = errors.New("an action is awaiting confirmation")

	// ErrEmptyInput is returned for blank input.
	ErrEmptyInput = errors.New("empty input")
)

// remoteFailedText is appended when the completion service fails.
const remoteFailedText = "Üzgünüm, bir hata oluştu. Lütfen tekrar deneyin."

// Deps are the collaborators of an Assistant.
type Deps struct {
	Registry     *apps.Registry
	Conversation *conversation.Log
	Reminders    pending.ReminderSaver
	Launcher     pending.Launcher
	Completer    interpreter.Completer
}

// Assistant is the conversation orchestrator.
type Assistant struct {
	mu        sync.Mutex
	registry  *apps.Registry
	extractor *intent.Extractor
	conv      *conversation.Log
	pending   *pending.Machine
	completer interpreter.Completer

	watchMu  sync.Mutex
	watchers map[int]func(Event)
	nextID   int
}

// New creates an Assistant.
func New(d Deps) *Assistant {
	return &Assistant{
		registry:  d.Registry,
		extractor: intent.NewExtractor(d.Registry),
		conv:      d.Conversation,
		pending:   pending.NewMachine(d.Reminders, d.Launcher, d.Conversation),
		completer: d.Completer,
		watchers:  make(map[int]func(Event)),
	}
}

// PendingView is the client-facing view of the pending slot.
type PendingView struct {
	State  pending.State  `json:"state"`
	Action pending.Action `json:"action"`
	Prompt string         `json:"prompt"`
}

// TurnResult reports what a turn did.
type TurnResult struct {
	// Appended holds the turns added to the log, in order.
	Appended []message.Turn `json:"appended"`

	// Intent is the kind of intent that was proposed, or "none".
	Intent intent.Kind `json:"intent"`

	// Pending is set when the turn proposed an action.
	Pending *PendingView `json:"pending,omitempty"`

	// RemoteFailed is set when the completion service failed and the
	// fallback utterance was appended instead of a reply.
	RemoteFailed bool `json:"remote_failed,omitempty"`
}

// HandleText processes a typed turn.
func (a *Assistant) HandleText(ctx context.Context, text string) (TurnResult, error) {
	return a.handle(ctx, message.NewUtterance(text, message.OriginTyped))
}

// HandleTranscript processes a transcribed turn. A proposed media search is
// additionally announced so the listener knows what was heard.
func (a *Assistant) HandleTranscript(ctx context.Context, text string) (TurnResult, error) {
	return a.handle(ctx, message.NewUtterance(text, message.OriginTranscribed))
}

func (a *Assistant) handle(ctx context.Context, u message.Utterance) (TurnResult, error) {
	text := strings.TrimSpace(u.Text())
	if text == "" {
		return TurnResult{}, ErrEmptyInput
	}

	a.mu.Lock()
	res, err := a.handleLocked(ctx, u, text)
	a.mu.Unlock()
	if len(res.Appended) > 0 {
		a.emit(Event{Appended: res.Appended, Pending: res.Pending})
	}
	return res, err
}

func (a *Assistant) handleLocked(ctx context.Context, u message.Utterance, text string) (TurnResult, error) {
	log := slog.With("origin", u.Origin())
	res := TurnResult{Intent: intent.KindNone}
	res.Appended = append(res.Appended, a.conv.Append(ctx, message.RoleUser, text))

	if a.pending.State() != pending.StateEmpty {
		log.Info("turn refused while an action is pending")
		return res, ErrPendingAction
	}

	if in := a.extractor.Interpret(message.NewUtterance(text, u.Origin())); !intent.IsNone(in) {
		if view, ok := a.propose(in); ok {
			res.Intent, res.Pending = in.Kind(), view
			if ms, isMedia := in.(intent.MediaSearch); isMedia && u.Origin() == message.OriginTranscribed {
				res.Appended = append(res.Appended, a.conv.Announce(ctx, mediaNotice(view.Action.AppOpen.App, ms.Query)))
			}
			log.Info("turn proposed an action", "intent", in.Kind())
			return res, nil
		}
	}

	reply, err := a.completer.Complete(ctx, message.Wire(a.conv.Turns()))
	if err != nil {
		log.Error("completion failed", "backend", a.completer.Name(), "error", err)
		res.Appended = append(res.Appended, a.conv.Announce(ctx, remoteFailedText))
		res.RemoteFailed = true
		return res, nil
	}
	res.Appended = append(res.Appended, a.conv.Announce(ctx, reply.Content))

	if in := a.extractor.ScanReply(reply.Content); !intent.IsNone(in) {
		if view, ok := a.propose(in); ok {
			res.Intent, res.Pending = in.Kind(), view
		}
	}
	log.Info("turn answered", "intent", res.Intent, "reply_length", len(reply.Content))
	return res, nil
}

// propose turns an intent into a pending action and occupies the slot.
func (a *Assistant) propose(in intent.Intent) (*PendingView, bool) {
	var action pending.Action
	switch v := in.(type) {
	case intent.AppOpen:
		app, ok := a.registry.Get(v.AppID)
		if !ok {
			return nil, false
		}
		action = pending.AppOpenAction(pending.AppOpenRequest{App: app, Verb: v.Verb})
	case intent.MediaSearch:
		app, ok := a.registry.Get(v.AppID)
		if !ok {
			return nil, false
		}
		action = pending.AppOpenAction(pending.AppOpenRequest{App: app, Query: v.Query, Verb: intent.DefaultVerb})
	case intent.Reminder:
		action = pending.ReminderAction(reminder.Draft{
			Title: v.Title, Date: v.Date, Time: v.Time, Description: v.Description,
		})
	default:
		return nil, false
	}
	if err := a.pending.Propose(action); err != nil {
		slog.Warn("proposal refused", "error", err)
		return nil, false
	}
	return viewOf(action), true
}

func viewOf(action pending.Action) *PendingView {
	state := pending.StateAwaitingAppOpen
	if action.Reminder != nil {
		state = pending.StateAwaitingReminder
	}
	return &PendingView{State: state, Action: action, Prompt: action.Prompt()}
}

func mediaNotice(app apps.Descriptor, query string) string {
	return fmt.Sprintf("%s'dan %q açmak istediğinizi anladım. Onaylıyor musunuz?", app.Name, query)
}

// Confirm executes the pending action.
func (a *Assistant) Confirm(ctx context.Context) (pending.Outcome, error) {
	a.mu.Lock()
	out, err := a.pending.Confirm(ctx)
	a.mu.Unlock()
	if err != nil {
		return out, err
	}
	a.emit(Event{Appended: []message.Turn{out.Turn}})
	return out, nil
}

// Reject discards the pending action.
func (a *Assistant) Reject(ctx context.Context) (pending.Outcome, error) {
	a.mu.Lock()
	out, err := a.pending.Reject(ctx)
	a.mu.Unlock()
	if err != nil {
		return out, err
	}
	a.emit(Event{Appended: []message.Turn{out.Turn}})
	return out, nil
}

// Pending returns the pending action, if any.
func (a *Assistant) Pending() (*PendingView, bool) {
	action, ok := a.pending.Current()
	if !ok {
		return nil, false
	}
	return viewOf(action), true
}

// History returns the conversation log.
func (a *Assistant) History() []message.Turn {
	return a.conv.Turns()
}

// Apps returns the app registry.
func (a *Assistant) Apps() []apps.Descriptor {
	return a.registry.All()
}

// Reset truncates the conversation to the greeting and drops any pending
// action.
func (a *Assistant) Reset(ctx context.Context) []message.Turn {
	a.mu.Lock()
	if action, ok := a.pending.Clear(); ok {
		slog.Info("pending action dropped by reset", "state", viewOf(action).State)
	}
	turns := a.conv.Reset(ctx)
	a.mu.Unlock()
	a.emit(Event{Reset: true, Appended: turns})
	return turns
}

// Notify appends an informational assistant utterance. It lets the speech
// pipeline report into the conversation.
func (a *Assistant) Notify(ctx context.Context, text string) {
	a.mu.Lock()
	t := a.conv.Announce(ctx, text)
	a.mu.Unlock()
	a.emit(Event{Appended: []message.Turn{t}})
}

// Submit feeds a transcript in as a user turn.
func (a *Assistant) Submit(ctx context.Context, transcript string) error {
	_, err := a.HandleTranscript(ctx, transcript)
	return err
}
