package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Desktop opens URLs on the machine running the daemon through an opener
// command (xdg-open, open, ...). A native scheme counts as handed off when
// the opener found a handler for it.
type Desktop struct {
	command []string
	handed  atomic.Bool
}

// NewDesktop creates a desktop environment. An empty command picks the
// platform default opener.
func NewDesktop(command string) *Desktop {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fields = defaultOpener()
	}
	return &Desktop{command: fields}
}

func defaultOpener() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"open"}
	case "windows":
		return []string{"rundll32", "url.dll,FileProtocolHandler"}
	default:
		return []string{"xdg-open"}
	}
}

// Open runs the opener for url and waits for it to exit.
func (d *Desktop) Open(ctx context.Context, url string) error {
	args := append(append([]string{}, d.command[1:]...), url)
	cmd := exec.CommandContext(ctx, d.command[0], args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		d.handed.Store(false)
		return fmt.Errorf("%s %s: %w: %s", d.command[0], url, err, strings.TrimSpace(string(out)))
	}
	d.handed.Store(!isWeb(url))
	return nil
}

// AwaitSuspend waits d and reports whether the last native open was handed
// to an installed handler.
func (d *Desktop) AwaitSuspend(ctx context.Context, wait time.Duration) bool {
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}
	return d.handed.Swap(false)
}

func isWeb(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}
