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

// Package history owns the ordered clipboard history: insertion, move-to-front,
// capacity eviction and the pin/unpin transitions that drive persistence.
//
// The engine is not safe for concurrent use. Callers serialise access (the
// session controller holds a mutex around every call).
package history

import (
	"fmt"

	"github.com/adaryorg/clipkeep/internal/storage"
)

const (
	MinCapacity     = 1
	MaxCapacity     = 500
	DefaultCapacity = 15
)

// Options configures an Engine.
type Options struct {
	// Capacity bounds the number of unpinned entries. Clamped to
	// [MinCapacity, MaxCapacity]; zero selects DefaultCapacity.
	Capacity int

	// OnError receives persistence failures. The in-memory mutation that
	// triggered the write has already been applied.
	OnError func(error)

	// OnCurrentRemoved is called when the entry matching the live clipboard
	// leaves the history (delete, clear or eviction).
	OnCurrentRemoved func(Entry)
}

// Engine is the bounded, ordered history of clipboard entries.
type Engine struct {
	store            storage.Store
	capacity         int
	onError          func(error)
	onCurrentRemoved func(Entry)

	entries []*Entry
	current *Entry
}

// NewEngine returns an empty engine backed by store. A nil store disables
// persistence.
func NewEngine(store storage.Store, opts Options) *Engine {
	return &Engine{
		store:            store,
		capacity:         clampCapacity(opts.Capacity),
		onError:          opts.OnError,
		onCurrentRemoved: opts.OnCurrentRemoved,
	}
}

func clampCapacity(n int) int {
	switch {
	case n == 0:
		return DefaultCapacity
	case n < MinCapacity:
		return MinCapacity
	case n > MaxCapacity:
		return MaxCapacity
	}
	return n
}

// Capacity returns the current unpinned-entry limit.
func (e *Engine) Capacity() int {
	return e.capacity
}

// Len returns the number of entries, pinned and unpinned.
func (e *Engine) Len() int {
	return len(e.entries)
}

// Entries returns a copy of the history, most recent first.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	for i, entry := range e.entries {
		out[i] = *entry
	}
	return out
}

// Find returns the entry with the given id.
func (e *Engine) Find(id string) (Entry, bool) {
	if _, entry := e.indexOf(id); entry != nil {
		return *entry, true
	}
	return Entry{}, false
}

// Current returns the entry equal to the live clipboard content, if any.
func (e *Engine) Current() (Entry, bool) {
	if e.current == nil {
		return Entry{}, false
	}
	return *e.current, true
}

// ClearCurrent drops the current pointer without touching any entry.
func (e *Engine) ClearCurrent() {
	e.current = nil
}

// RecordClipboardText applies a clipboard snapshot. Existing text moves to
// the front; new text becomes a fresh unpinned entry at the front, evicting the
// oldest unpinned entries first. Empty text clears the current pointer.
func (e *Engine) RecordClipboardText(text string) (Entry, bool) {
	return e.apply(text, true)
}

// MatchClipboardText is RecordClipboardText without entry creation: unknown
// text only clears the current pointer.
func (e *Engine) MatchClipboardText(text string) (Entry, bool) {
	return e.apply(text, false)
}

func (e *Engine) apply(text string, create bool) (Entry, bool) {
	if text == "" {
		e.current = nil
		return Entry{}, false
	}

	i, entry := e.indexOfText(text)
	switch {
	case entry != nil && i > 0:
		e.moveToFront(i)
		if entry.Pinned {
			e.saveIndex()
		}
	case entry == nil && create:
		e.trim(e.capacity - 1)
		entry = &Entry{ID: newID(), Text: text}
		e.entries = append([]*Entry{entry}, e.entries...)
	case entry == nil:
		e.current = nil
		return Entry{}, false
	}

	e.current = entry
	return *entry, true
}

// SetPinned changes the pin flag of an entry. Pinning writes the content and
// the index; unpinning deletes the content, re-applies the capacity limit and
// writes the index. Unknown ids and no-op transitions are ignored.
func (e *Engine) SetPinned(id string, pinned bool) {
	_, entry := e.indexOf(id)
	if entry == nil || entry.Pinned == pinned {
		return
	}

	entry.Pinned = pinned
	if pinned {
		e.report(e.saveContent(entry))
	} else {
		e.report(e.deleteContent(entry))
		e.trim(e.capacity)
	}
	e.saveIndex()
}

// Delete removes an entry regardless of its pin state. It reports whether the
// entry was the current one; the caller owns clearing the live clipboard.
func (e *Engine) Delete(id string) bool {
	i, entry := e.indexOf(id)
	if entry == nil {
		return false
	}

	wasCurrent := entry == e.current
	e.remove(i)
	if entry.Pinned {
		e.saveIndex()
	}
	return wasCurrent
}

// Clear removes every unpinned entry. Pinned entries keep their relative order.
func (e *Engine) Clear() {
	e.trim(0)
}

// SetCapacity updates the unpinned limit and evicts down to it.
func (e *Engine) SetCapacity(n int) {
	e.capacity = clampCapacity(n)
	e.trim(e.capacity)
}

// Load appends the pinned entries from the store in index order. Entries
// without an id or with unreadable content are skipped; read failures are
// reported and not retried.
func (e *Engine) Load() {
	if e.store == nil {
		return
	}

	index, err := e.store.LoadIndex()
	if err != nil {
		e.report(fmt.Errorf("failed to load storage: %w", err))
		return
	}

	for _, item := range index {
		if item.ID == "" {
			continue
		}
		if _, existing := e.indexOf(item.ID); existing != nil {
			continue
		}

		text, err := e.store.LoadContent(item.ID)
		if err != nil {
			e.report(fmt.Errorf("failed to load entry content %s: %w", item.ID, err))
			continue
		}
		if text == "" {
			continue
		}
		if _, dup := e.indexOfText(text); dup != nil {
			continue
		}

		e.entries = append(e.entries, &Entry{ID: item.ID, Text: text, Pinned: true})
	}
}

// Restore appends entries from a hand-off snapshot without touching the
// store. Empty texts and duplicate ids or texts are dropped.
func (e *Engine) Restore(snapshot []Entry) {
	for _, item := range snapshot {
		if item.ID == "" || item.Text == "" {
			continue
		}
		if _, existing := e.indexOf(item.ID); existing != nil {
			continue
		}
		if _, dup := e.indexOfText(item.Text); dup != nil {
			continue
		}
		entry := item
		e.entries = append(e.entries, &entry)
	}
	e.trim(e.capacity)
}

// trim removes unpinned entries beyond the first limit unpinned ones.
func (e *Engine) trim(limit int) {
	if limit < 0 {
		limit = 0
	}

	seen := 0
	for i := 0; i < len(e.entries); {
		if e.entries[i].Pinned {
			i++
			continue
		}
		if seen < limit {
			seen++
			i++
			continue
		}
		e.remove(i)
	}
}

func (e *Engine) remove(i int) {
	entry := e.entries[i]
	e.entries = append(e.entries[:i], e.entries[i+1:]...)

	if entry.Pinned {
		e.report(e.deleteContent(entry))
	}
	if entry == e.current {
		e.current = nil
		if e.onCurrentRemoved != nil {
			e.onCurrentRemoved(*entry)
		}
	}
}

func (e *Engine) moveToFront(i int) {
	entry := e.entries[i]
	copy(e.entries[1:i+1], e.entries[:i])
	e.entries[0] = entry
}

func (e *Engine) indexOf(id string) (int, *Entry) {
	if id == "" {
		return -1, nil
	}
	for i, entry := range e.entries {
		if entry.ID == id {
			return i, entry
		}
	}
	return -1, nil
}

func (e *Engine) indexOfText(text string) (int, *Entry) {
	for i, entry := range e.entries {
		if entry.Text == text {
			return i, entry
		}
	}
	return -1, nil
}

func (e *Engine) pinnedIndex() []storage.IndexEntry {
	index := make([]storage.IndexEntry, 0, len(e.entries))
	for _, entry := range e.entries {
		if entry.Pinned {
			index = append(index, storage.IndexEntry{ID: entry.ID})
		}
	}
	return index
}

func (e *Engine) saveIndex() {
	if e.store == nil {
		return
	}
	if err := e.store.SaveIndex(e.pinnedIndex()); err != nil {
		e.report(fmt.Errorf("failed to save storage: %w", err))
	}
}

func (e *Engine) saveContent(entry *Entry) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveContent(entry.ID, entry.Text); err != nil {
		return fmt.Errorf("failed to save entry content %s: %w", entry.ID, err)
	}
	return nil
}

func (e *Engine) deleteContent(entry *Entry) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.DeleteContent(entry.ID); err != nil {
		return fmt.Errorf("failed to delete entry content %s: %w", entry.ID, err)
	}
	return nil
}

func (e *Engine) report(err error) {
	if err != nil && e.onError != nil {
		e.onError(err)
	}
}
