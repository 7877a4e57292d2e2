// Package launcher opens registered apps once the user has confirmed it.
//
// The policy is native first: when the app has a native scheme it is opened
// and the environment is given a short, fixed wait to show that focus moved
// to the installed app. If it does not, the web URL is opened instead. The
// wait is a best-effort heuristic with no hard guarantee either way.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nadzzz/asistan/internal/apps"
)

// ErrNoEnvironment is returned when there is nowhere to open a URL.
var ErrNoEnvironment = errors.New("no launch environment attached")

// DefaultNativeWait is how long a native handoff is given to take focus.
const DefaultNativeWait = 500 * time.Millisecond

// Environment is where URLs get opened.
type Environment interface {
	// Open asks the environment to open url.
	Open(ctx context.Context, url string) error

	// AwaitSuspend waits up to d and reports whether the environment
	// appears to have been suspended or switched away from.
	AwaitSuspend(ctx context.Context, d time.Duration) bool
}

// Launcher applies the native-first policy.
type Launcher struct {
	env  Environment
	wait time.Duration
}

// New creates a launcher. A non-positive wait uses DefaultNativeWait.
func New(env Environment, wait time.Duration) *Launcher {
	if wait <= 0 {
		wait = DefaultNativeWait
	}
	return &Launcher{env: env, wait: wait}
}

// Targets returns the native and web URLs for opening app, searching for
// query when it is non-empty and the app supports search.
func Targets(app apps.Descriptor, query string) (native, web string) {
	if query != "" {
		native, web = app.SearchTargets(query)
		if web != "" {
			return native, web
		}
	}
	return app.NativeURL, app.WebURL
}

// Launch opens app and reports whether the native app took over. A false
// result with a nil error means the web page was opened.
func (l *Launcher) Launch(ctx context.Context, app apps.Descriptor, query string) (bool, error) {
	native, web := Targets(app, query)
	log := slog.With("app", app.ID, "query", query)

	if native != "" {
		if err := l.env.Open(ctx, native); err != nil {
			log.Debug("native open failed, falling back to web", "url", native, "error", err)
		} else if l.env.AwaitSuspend(ctx, l.wait) {
			log.Info("app opened natively", "url", native)
			return true, nil
		}
	}

	if web == "" {
		return false, fmt.Errorf("app %s has no web url", app.ID)
	}
	if err := l.env.Open(ctx, web); err != nil {
		return false, fmt.Errorf("opening %s: %w", web, err)
	}
	log.Info("app opened on the web", "url", web)
	return false, nil
}
