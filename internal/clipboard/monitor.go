/*
MIT License

Copyright (c) 2025 Yuval Adar <adary@adary.org>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

// Package clipboard watches the system clipboard and reads or writes its text.
package clipboard

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	atotto "github.com/atotto/clipboard"
	"golang.design/x/clipboard"

	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/adaryorg/clipkeep/internal/security"
)

// DefaultInterval is how often the system clipboard is polled.
const DefaultInterval = 500 * time.Millisecond

// SensitiveMimeTypes mark clipboard content owned by a password manager.
var SensitiveMimeTypes = []string{"x-kde-passwordManagerHint"}

var (
	initOnce sync.Once
	initErr  error
)

// Watcher is the clipboard as seen by the session.
type Watcher interface {
	// Changed fires (coalesced) whenever the clipboard owner or content changes.
	Changed() <-chan struct{}
	// GetText returns the clipboard text. ok is false when the clipboard is
	// empty, holds no text, or holds content that must not be recorded.
	GetText(ctx context.Context) (text string, ok bool, err error)
	SetText(text string) error
	Clear() error
	Close() error
}

// backend is one windowing system's clipboard access.
type backend interface {
	name() string
	readText(ctx context.Context) (string, error)
	mimeTypes(ctx context.Context) ([]string, error)
	writeText(text string) error
	clear() error
}

// Options configures a SystemWatcher.
type Options struct {
	Interval time.Duration
	Policy   *security.Policy
}

// SystemWatcher polls the desktop clipboard: wl-paste on Wayland sessions,
// golang.design/x/clipboard on X11.
type SystemWatcher struct {
	backend  backend
	policy   *security.Policy
	interval time.Duration
	changed  chan struct{}

	cancel context.CancelFunc
	done   chan struct{}

	lastDigest [sha256.Size]byte
	lastSet    bool
}

// NewSystemWatcher picks the backend for the current session and starts
// polling.
func NewSystemWatcher(opts Options) (*SystemWatcher, error) {
	var b backend
	if isWaylandSession() {
		b = waylandBackend{}
	} else {
		if err := ensureInit(); err != nil {
			return nil, fmt.Errorf("failed to initialize clipboard: %w", err)
		}
		b = x11Backend{}
	}
	logging.Info("Watching clipboard via %s", b.name())
	return newWatcher(b, opts), nil
}

func newWatcher(b backend, opts Options) *SystemWatcher {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &SystemWatcher{
		backend:  b,
		policy:   opts.Policy,
		interval: interval,
		changed:  make(chan struct{}, 1),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go w.poll(ctx)
	return w
}

func (w *SystemWatcher) Changed() <-chan struct{} {
	return w.changed
}

func (w *SystemWatcher) poll(ctx context.Context) {
	defer close(w.done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.check(ctx, false)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx, true)
		}
	}
}

// check samples the clipboard and signals when it differs from the last
// sample. The first sample only sets the baseline.
func (w *SystemWatcher) check(ctx context.Context, notify bool) {
	text, err := w.backend.readText(ctx)
	if err != nil {
		logging.Debug("Clipboard read failed: %v", err)
		return
	}

	digest := sha256.Sum256([]byte(text))
	if w.lastSet && digest == w.lastDigest {
		return
	}
	w.lastDigest = digest
	w.lastSet = true

	if !notify {
		return
	}
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

func (w *SystemWatcher) GetText(ctx context.Context) (string, bool, error) {
	text, err := w.backend.readText(ctx)
	if err != nil {
		return "", false, err
	}
	if text == "" {
		return "", false, nil
	}

	if types, err := w.backend.mimeTypes(ctx); err == nil && hasSensitiveMimeType(types) {
		logging.Debug("Ignoring clipboard content marked by a password manager")
		return "", false, nil
	}

	if ok, reason := w.policy.Allow(text); !ok {
		logging.Info("Ignoring sensitive clipboard content (hash: %s): %s", security.Hash(text)[:8], reason)
		return "", false, nil
	}

	return text, true, nil
}

func (w *SystemWatcher) SetText(text string) error {
	return w.backend.writeText(text)
}

func (w *SystemWatcher) Clear() error {
	return w.backend.clear()
}

// Close stops polling and waits for the poller to exit.
func (w *SystemWatcher) Close() error {
	w.cancel()
	<-w.done
	return nil
}

func hasSensitiveMimeType(types []string) bool {
	for _, t := range types {
		for _, sensitive := range SensitiveMimeTypes {
			if strings.TrimSpace(t) == sensitive {
				return true
			}
		}
	}
	return false
}

func ensureInit() error {
	initOnce.Do(func() {
		initErr = clipboard.Init()
	})
	return initErr
}

func isWaylandSession() bool {
	return os.Getenv("WAYLAND_DISPLAY") != "" || os.Getenv("XDG_SESSION_TYPE") == "wayland"
}

type waylandBackend struct{}

func (waylandBackend) name() string { return "wl-paste" }

// readText treats a failing wl-paste as an empty clipboard: it exits non-zero
// when nothing is copied or no text type is offered.
func (waylandBackend) readText(ctx context.Context) (string, error) {
	output, err := exec.CommandContext(ctx, "wl-paste", "--no-newline", "--type", "text").Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

func (waylandBackend) mimeTypes(ctx context.Context) ([]string, error) {
	output, err := exec.CommandContext(ctx, "wl-paste", "--list-types").Output()
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSpace(string(output)), "\n"), nil
}

func (waylandBackend) writeText(text string) error {
	cmd := exec.Command("wl-copy")
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wl-copy failed: %w", err)
	}
	return nil
}

func (waylandBackend) clear() error {
	if err := exec.Command("wl-copy", "--clear").Run(); err != nil {
		return fmt.Errorf("wl-copy --clear failed: %w", err)
	}
	return nil
}

type x11Backend struct{}

func (x11Backend) name() string { return "x11" }

func (x11Backend) readText(ctx context.Context) (string, error) {
	return string(clipboard.Read(clipboard.FmtText)), nil
}

// mimeTypes asks xclip for the selection targets. Without xclip the list is
// unknown and the error is returned.
func (x11Backend) mimeTypes(ctx context.Context) ([]string, error) {
	output, err := exec.CommandContext(ctx, "xclip", "-selection", "clipboard", "-o", "-t", "TARGETS").Output()
	if err != nil {
		return nil, err
	}
	return strings.Split(strings.TrimSpace(string(output)), "\n"), nil
}

// writeText copies to both CLIPBOARD (atotto) and PRIMARY (xclip) so that
// terminals pasting with Shift+Insert see the same text.
func (x11Backend) writeText(text string) error {
	if err := atotto.WriteAll(text); err != nil {
		return err
	}

	cmd := exec.Command("xclip", "-selection", "primary")
	cmd.Stdin = strings.NewReader(text)
	cmd.Run() // PRIMARY is optional
	return nil
}

func (x11Backend) clear() error {
	return atotto.WriteAll("")
}
