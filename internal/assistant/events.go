package assistant

import "github.com/nadzzz/asistan/internal/message"

// Event describes a change to the conversation, pushed to watchers after
// the change has been applied.
type Event struct {
	Appended []message.Turn `json:"appended,omitempty"`
	Pending  *PendingView   `json:"pending,omitempty"`
	Reset    bool           `json:"reset,omitempty"`
}

// Watch registers fn to receive every Event. fn runs on the mutating
// goroutine and must not block or call back into the Assistant.
func (a *Assistant) Watch(fn func(Event)) (cancel func()) {
	a.watchMu.Lock()
	id := a.nextID
	a.nextID++
	a.watchers[id] = fn
	a.watchMu.Unlock()

	return func() {
		a.watchMu.Lock()
		delete(a.watchers, id)
		a.watchMu.Unlock()
	}
}

func (a *Assistant) emit(e Event) {
	a.watchMu.Lock()
	fns := make([]func(Event), 0, len(a.watchers))
	for _, fn := range a.watchers {
		fns = append(fns, fn)
	}
	a.watchMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}
