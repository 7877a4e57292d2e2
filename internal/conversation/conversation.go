// Package conversation holds the durable, ordered conversation log.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nadzzz/asistan/internal/message"
	"github.com/nadzzz/asistan/internal/store"
)

// Log is the append-only conversation. Reset is the only operation that
// removes turns. Safe for concurrent use.
//
// Persistence failures after a successful Open are logged and never fail an
// append: the in-memory log stays authoritative for the session.
type Log struct {
	mu    sync.RWMutex
	store store.Store
	turns []message.Turn
}

// Open loads the persisted log from s, seeding it with the greeting when
// nothing has been stored yet.
func Open(ctx context.Context, s store.Store) (*Log, error) {
	var turns []message.Turn
	found, err := s.Load(ctx, store.KeyConversation, &turns)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	l := &Log{store: s, turns: turns}
	if !found || len(turns) == 0 {
		l.turns = seed()
		l.persist(ctx)
	}
	return l, nil
}

func seed() []message.Turn {
	return []message.Turn{message.NewTurn(message.RoleAssistant, message.Greeting)}
}

// Append adds a turn and persists the log.
func (l *Log) Append(ctx context.Context, role message.Role, content string) message.Turn {
	t := message.NewTurn(role, content)
	l.mu.Lock()
	l.turns = append(l.turns, t)
	l.mu.Unlock()
	l.persist(ctx)
	return t
}

// Announce appends an assistant turn.
func (l *Log) Announce(ctx context.Context, content string) message.Turn {
	return l.Append(ctx, message.RoleAssistant, content)
}

// Reset truncates the log to a fresh greeting.
func (l *Log) Reset(ctx context.Context) []message.Turn {
	l.mu.Lock()
	l.turns = seed()
	out := l.snapshotLocked()
	l.mu.Unlock()
	l.persist(ctx)
	return out
}

// Turns returns a copy of the log in order.
func (l *Log) Turns() []message.Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

// Len returns the number of turns.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

func (l *Log) snapshotLocked() []message.Turn {
	out := make([]message.Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

func (l *Log) persist(ctx context.Context) {
	snapshot := l.Turns()
	if err := l.store.Save(ctx, store.KeyConversation, snapshot); err != nil {
		slog.Warn("failed to persist conversation", "turns", len(snapshot), "error", err)
	}
}
