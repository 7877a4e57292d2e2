package launcher

import (
	"context"
	"sync"
	"time"
)

// Client is a connected front-end that can open URLs itself and report when
// its page goes to the background.
type Client interface {
	OpenURL(ctx context.Context, url string) error
	AwaitHidden(ctx context.Context, d time.Duration) bool
}

// Relay forwards launches to the most recently attached client, falling
// back to another environment (or ErrNoEnvironment) when none is attached.
type Relay struct {
	mu       sync.Mutex
	clients  []Client
	fallback Environment
}

// NewRelay creates a relay. fallback may be nil.
func NewRelay(fallback Environment) *Relay {
	return &Relay{fallback: fallback}
}

// Attach makes c the launch target until the returned detach func is called.
func (r *Relay) Attach(c Client) (detach func()) {
	r.mu.Lock()
	r.clients = append(r.clients, c)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for i := len(r.clients) - 1; i >= 0; i-- {
				if r.clients[i] == c {
					r.clients = append(r.clients[:i], r.clients[i+1:]...)
					return
				}
			}
		})
	}
}

func (r *Relay) current() Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.clients) == 0 {
		return nil
	}
	return r.clients[len(r.clients)-1]
}

// Open forwards url to the current client.
func (r *Relay) Open(ctx context.Context, url string) error {
	if c := r.current(); c != nil {
		return c.OpenURL(ctx, url)
	}
	if r.fallback != nil {
		return r.fallback.Open(ctx, url)
	}
	return ErrNoEnvironment
}

// AwaitSuspend waits for the current client's page to be hidden.
func (r *Relay) AwaitSuspend(ctx context.Context, d time.Duration) bool {
	if c := r.current(); c != nil {
		return c.AwaitHidden(ctx, d)
	}
	if r.fallback != nil {
		return r.fallback.AwaitSuspend(ctx, d)
	}
	return false
}
