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

// Package session ties the clipboard watcher to the history engine. It owns
// private mode, sequences clipboard fetches and hands the history over to
// the next session when the current one is torn down.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/adaryorg/clipkeep/internal/clipboard"
	"github.com/adaryorg/clipkeep/internal/history"
	"github.com/adaryorg/clipkeep/internal/logging"
	"github.com/adaryorg/clipkeep/internal/storage"
)

// ErrClosed is returned by operations on a closed controller.
var ErrClosed = errors.New("session closed")

type EventKind int

const (
	HistoryChanged EventKind = iota
	PrivateModeChanged
	ErrorReported
)

func (k EventKind) String() string {
	switch k {
	case HistoryChanged:
		return "history-changed"
	case PrivateModeChanged:
		return "private-mode-changed"
	case ErrorReported:
		return "error"
	}
	return "unknown"
}

// Event tells subscribers that something changed. Subscribers re-read the
// controller state; Err is set for ErrorReported.
type Event struct {
	Kind EventKind
	Err  error
}

const subscriberBuffer = 16

// Options configures a Controller.
type Options struct {
	Store    storage.Store
	Watcher  clipboard.Watcher
	Slot     Slot
	Capacity int
}

type fetchResult struct {
	seq   uint64
	match bool
	text  string
	ok    bool
	err   error
}

// Controller is one clipboard session.
type Controller struct {
	mu      sync.Mutex
	engine  *history.Engine
	watcher clipboard.Watcher
	slot    Slot

	private bool
	closed  bool

	// started is the sequence number of the newest fetch, applied the newest
	// one whose result reached the engine.
	started uint64
	applied uint64

	ctx     context.Context
	cancel  context.CancelFunc
	fetches sync.WaitGroup

	subscribers []chan Event
}

// New starts a session. A state left in the slot by a previous session is
// restored; otherwise pinned entries are loaded from the store. Either way
// the live clipboard is matched against the history unless private mode is
// on.
func New(opts Options) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		watcher: opts.Watcher,
		slot:    opts.Slot,
		ctx:     ctx,
		cancel:  cancel,
	}
	c.engine = history.NewEngine(opts.Store, history.Options{
		Capacity:         opts.Capacity,
		OnError:          c.reportError,
		OnCurrentRemoved: c.clearClipboard,
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	state, ok := c.takeState()
	if ok {
		c.private = state.PrivateMode
		c.engine.Restore(state.History)
		logging.Info("Restored %d entries from hand-off (private mode: %v)", c.engine.Len(), c.private)
	} else {
		c.engine.Load()
		logging.Info("Loaded %d pinned entries", c.engine.Len())
	}

	if !c.private {
		c.startFetch(true)
	}
	return c
}

func (c *Controller) takeState() (State, bool) {
	if c.slot == nil {
		return State{}, false
	}
	state, ok, err := c.slot.Take()
	if err != nil {
		logging.Warn("Discarding unreadable hand-off state: %v", err)
		return State{}, false
	}
	return state, ok
}

// Run forwards clipboard change notifications until ctx is done or the
// controller is closed.
func (c *Controller) Run(ctx context.Context) error {
	changed := c.watcher.Changed()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return nil
		case <-changed:
			c.onClipboardChanged()
		}
	}
}

func (c *Controller) onClipboardChanged() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.private {
		return
	}
	c.startFetch(false)
}

// startFetch reads the clipboard asynchronously. Callers hold c.mu.
func (c *Controller) startFetch(match bool) {
	c.started++
	seq := c.started

	c.fetches.Add(1)
	go func() {
		defer c.fetches.Done()
		text, ok, err := c.watcher.GetText(c.ctx)
		c.applyFetch(fetchResult{seq: seq, match: match, text: text, ok: ok, err: err})
	}()
}

// applyFetch feeds a completed fetch to the engine. Results that arrive after
// Close, while private, or behind an already applied newer fetch are dropped.
func (c *Controller) applyFetch(r fetchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.private || r.seq <= c.applied {
		logging.Debug("Dropping clipboard fetch %d", r.seq)
		return
	}
	c.applied = r.seq

	if r.err != nil {
		logging.Warn("Clipboard read failed: %v", r.err)
		return
	}

	text := ""
	if r.ok {
		text = r.text
	}
	if r.match {
		c.engine.MatchClipboardText(text)
	} else {
		c.engine.RecordClipboardText(text)
	}
	c.emit(Event{Kind: HistoryChanged})
}

// Entries returns the history, most recent first.
func (c *Controller) Entries() []history.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Entries()
}

// Current returns the entry matching the live clipboard.
func (c *Controller) Current() (history.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Current()
}

func (c *Controller) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Capacity()
}

func (c *Controller) PrivateMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.private
}

// SetPrivateMode switches capture on or off. Entering private mode forgets
// the current entry; leaving it re-matches the clipboard without recording.
func (c *Controller) SetPrivateMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPrivateLocked(on)
}

// TogglePrivateMode flips private mode and returns the new setting.
func (c *Controller) TogglePrivateMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPrivateLocked(!c.private)
	return c.private
}

func (c *Controller) setPrivateLocked(on bool) {
	if c.closed || c.private == on {
		return
	}

	c.private = on
	if on {
		// Fetches still in flight must not land after private mode ends.
		c.applied = c.started
		c.engine.ClearCurrent()
	} else {
		c.startFetch(true)
	}
	logging.Info("Private mode %v", on)
	c.emit(Event{Kind: PrivateModeChanged})
}

// Activate puts an entry back on the clipboard. Outside private mode the
// entry also moves to the front and becomes current.
func (c *Controller) Activate(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}

	entry, ok := c.engine.Find(id)
	if !ok {
		return nil
	}
	if err := c.watcher.SetText(entry.Text); err != nil {
		return err
	}
	if !c.private {
		c.engine.RecordClipboardText(entry.Text)
		c.emit(Event{Kind: HistoryChanged})
	}
	return nil
}

// CopyIfActive sets the clipboard unless the session is closed or private.
// It reports whether the clipboard was written.
func (c *Controller) CopyIfActive(text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.private {
		return false, nil
	}
	if err := c.watcher.SetText(text); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Controller) SetPinned(id string, pinned bool) {
	c.mutate(func(e *history.Engine) { e.SetPinned(id, pinned) })
}

// Delete removes an entry. Deleting the current entry also clears the
// clipboard.
func (c *Controller) Delete(id string) {
	c.mutate(func(e *history.Engine) { e.Delete(id) })
}

// ClearHistory removes every unpinned entry.
func (c *Controller) ClearHistory() {
	c.mutate(func(e *history.Engine) { e.Clear() })
}

func (c *Controller) SetCapacity(n int) {
	c.mutate(func(e *history.Engine) { e.SetCapacity(n) })
}

func (c *Controller) mutate(fn func(*history.Engine)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn(c.engine)
	c.emit(Event{Kind: HistoryChanged})
}

// Subscribe returns a channel of change events. Slow subscribers miss events
// instead of blocking the session. The channel is closed by Close.
func (c *Controller) Subscribe() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if c.closed {
		close(ch)
		return ch
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

func (c *Controller) emit(ev Event) {
	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// reportError is the engine's error handler; it runs with c.mu held.
func (c *Controller) reportError(err error) {
	logging.Error("%v", err)
	c.emit(Event{Kind: ErrorReported, Err: err})
}

// clearClipboard runs with c.mu held when the current entry leaves the
// history.
func (c *Controller) clearClipboard(entry history.Entry) {
	if c.watcher == nil {
		return
	}
	if err := c.watcher.Clear(); err != nil {
		logging.Warn("Failed to clear clipboard: %v", err)
	}
}

// Close ends the session. With handoff the private-mode flag and the whole
// history go into the slot for the next session; otherwise the slot is
// emptied. Pending fetches are cancelled and their results ignored.
func (c *Controller) Close(handoff bool) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancel()
	state := State{PrivateMode: c.private, History: c.engine.Entries()}
	c.mu.Unlock()

	c.fetches.Wait()

	var err error
	if c.slot != nil {
		if handoff {
			err = c.slot.Put(state)
			logging.Info("Handed off %d entries", len(state.History))
		} else {
			err = c.slot.Discard()
		}
	}

	c.mu.Lock()
	for _, ch := range c.subscribers {
		close(ch)
	}
	c.subscribers = nil
	c.mu.Unlock()

	return err
}
