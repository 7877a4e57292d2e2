// Package pending implements the single-slot confirmation gate that every
// side-effecting action passes through.
//
// At most one action is pending at a time. It is created by Propose and
// destroyed by Confirm or Reject; both are terminal and return the machine
// to StateEmpty, even when the confirmed side effect fails.
package pending

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nadzzz/asistan/internal/apps"
	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/reminder"
)

var (
	// ErrOccupied is returned by Propose while another action is pending.
	ErrOccupied = errors.New("an action is already awaiting confirmation")

	// ErrEmpty is returned by Confirm and Reject when nothing is pending.
	ErrEmpty = errors.New("no action is awaiting confirmation")

	// ErrInvalidAction is returned by Propose for an action that does not
	// carry exactly one draft.
	ErrInvalidAction = errors.New("action must carry exactly one of reminder or app open")
)

// State of the machine.
type State string

const (
	StateEmpty            State = "empty"
	StateAwaitingReminder State = "awaiting_reminder_confirmation"
	StateAwaitingAppOpen  State = "awaiting_app_open_confirmation"
)

// AppOpenRequest asks to launch an app, optionally searching for Query in it.
type AppOpenRequest struct {
	App   apps.Descriptor `json:"app"`
	Query string          `json:"query,omitempty"`
	Verb  string          `json:"verb,omitempty"`
}

// Action wraps exactly one of a reminder draft or an app-open request.
type Action struct {
	Reminder *reminder.Draft `json:"reminder,omitempty"`
	AppOpen  *AppOpenRequest `json:"app_open,omitempty"`
}

// ReminderAction wraps a reminder draft.
func ReminderAction(d reminder.Draft) Action { return Action{Reminder: &d} }

// AppOpenAction wraps an app-open request.
func AppOpenAction(r AppOpenRequest) Action { return Action{AppOpen: &r} }

func (a Action) valid() bool {
	return (a.Reminder == nil) != (a.AppOpen == nil)
}

func (a Action) state() State {
	switch {
	case a.Reminder != nil:
		return StateAwaitingReminder
	case a.AppOpen != nil:
		return StateAwaitingAppOpen
	}
	return StateEmpty
}

// Prompt is the question shown to the user while the action is pending.
func (a Action) Prompt() string {
	switch {
	case a.Reminder != nil:
		return fmt.Sprintf("%q hatırlatıcısını %s %s için oluşturmamı onaylıyor musunuz?",
			a.Reminder.Title, a.Reminder.Date, a.Reminder.Time)
	case a.AppOpen != nil && a.AppOpen.Query != "":
		return fmt.Sprintf("%s'da %q aramasını açmamı onaylıyor musunuz?", a.AppOpen.App.Name, a.AppOpen.Query)
	case a.AppOpen != nil:
		return fmt.Sprintf("%s uygulamasını açmamı onaylıyor musunuz?", a.AppOpen.App.Name)
	}
	return ""
}

// ReminderSaver persists confirmed reminders.
type ReminderSaver interface {
	Add(ctx context.Context, d reminder.Draft) (reminder.Reminder, error)
}

// Launcher opens apps. It reports whether the native app took over.
type Launcher interface {
	Launch(ctx context.Context, app apps.Descriptor, query string) (bool, error)
}

// Journal receives the utterance that closes every cycle.
type Journal interface {
	Announce(ctx context.Context, content string) message.Turn
}

// Outcome describes how a pending action was resolved.
type Outcome struct {
	Action    Action             `json:"action"`
	Confirmed bool               `json:"confirmed"`
	Succeeded bool               `json:"succeeded"`
	Native    bool               `json:"native,omitempty"`
	Reminder  *reminder.Reminder `json:"reminder,omitempty"`
	Turn      message.Turn       `json:"turn"`
}

// Machine is the pending-action slot. Safe for concurrent use; Confirm holds
// the slot until its side effect has finished.
type Machine struct {
	mu        sync.Mutex
	current   *Action
	reminders ReminderSaver
	launcher  Launcher
	journal   Journal
}

// NewMachine creates an empty machine.
func NewMachine(reminders ReminderSaver, launcher Launcher, journal Journal) *Machine {
	return &Machine{reminders: reminders, launcher: launcher, journal: journal}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return StateEmpty
	}
	return m.current.state()
}

// Current returns the pending action, if any.
func (m *Machine) Current() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Action{}, false
	}
	return *m.current, true
}

// Propose occupies the slot with a. The slot is left untouched on error.
func (m *Machine) Propose(a Action) error {
	if !a.valid() {
		return ErrInvalidAction
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != nil {
		return ErrOccupied
	}
	m.current = &a
	slog.Debug("action proposed", "state", a.state())
	return nil
}

// Confirm executes the pending action's side effect, announces the result
// and empties the slot.
func (m *Machine) Confirm(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Outcome{}, ErrEmpty
	}
	a := *m.current
	defer func() { m.current = nil }()

	out := Outcome{Action: a, Confirmed: true}
	var text string
	switch {
	case a.Reminder != nil:
		r, err := m.reminders.Add(ctx, *a.Reminder)
		if err != nil {
			slog.Error("failed to save reminder", "title", a.Reminder.Title, "error", err)
			text = reminderFailedText
			break
		}
		out.Succeeded, out.Reminder = true, &r
		text = reminderCreatedText(r)
	case a.AppOpen != nil:
		app := a.AppOpen.App
		native, err := m.launcher.Launch(ctx, app, a.AppOpen.Query)
		if err != nil {
			slog.Error("failed to launch app", "app", app.ID, "error", err)
			text = fmt.Sprintf(launchFailedFormat, app.Name)
			break
		}
		out.Succeeded, out.Native = true, native
		text = launchedText(app.Name, a.AppOpen.Query, native)
	}
	out.Turn = m.journal.Announce(ctx, text)
	return out, nil
}

// Clear empties the slot without running or announcing anything. Used when
// the conversation the action belongs to is reset.
func (m *Machine) Clear() (Action, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Action{}, false
	}
	a := *m.current
	m.current = nil
	return a, true
}

// Reject discards the pending action without running it.
func (m *Machine) Reject(ctx context.Context) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Outcome{}, ErrEmpty
	}
	a := *m.current
	m.current = nil

	text := reminderCancelledText
	if a.AppOpen != nil {
		text = fmt.Sprintf(launchCancelledFormat, a.AppOpen.App.Name)
	}
	return Outcome{Action: a, Turn: m.journal.Announce(ctx, text)}, nil
}
