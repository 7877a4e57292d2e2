// Package store provides the durable key/value store behind the conversation
// log and the reminder book.
//
// Values are kept as JSON documents under fixed logical keys. Writes replace
// the whole document (last write wins).
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Logical keys used by the assistant.
const (
	KeyConversation = "chatMessages"
	KeyReminders    = "reminders"
)

// Store is the contract every backend implements.
type Store interface {
	// Load decodes the document stored under key into dest. It reports
	// false, with a nil error, when the key has never been written.
	Load(ctx context.Context, key string, dest any) (bool, error)

	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, value any) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

func encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", key, err)
	}
	return data, nil
}

func decode(key string, data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}
