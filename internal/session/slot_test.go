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

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adaryorg/clipkeep/internal/history"
)

func sampleState() State {
	return State{
		PrivateMode: true,
		History: []history.Entry{
			{ID: "1", Text: "one", Pinned: true},
			{ID: "2", Text: "two\nlines"},
		},
	}
}

func TestSlots(t *testing.T) {
	slots := map[string]Slot{
		"memory":  NewMemorySlot(),
		"runtime": NewRuntimeSlot(filepath.Join(t.TempDir(), "run", "clipkeep")),
	}

	for name, slot := range slots {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := slot.Take(); ok || err != nil {
				t.Fatalf("Expected empty slot, got %v %v", ok, err)
			}

			want := sampleState()
			if err := slot.Put(want); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			got, ok, err := slot.Take()
			if !ok || err != nil {
				t.Fatalf("Expected state, got %v %v", ok, err)
			}
			if got.PrivateMode != want.PrivateMode || len(got.History) != len(want.History) {
				t.Fatalf("Expected %+v, got %+v", want, got)
			}
			for i := range want.History {
				if got.History[i] != want.History[i] {
					t.Errorf("Entry %d: expected %+v, got %+v", i, want.History[i], got.History[i])
				}
			}

			if _, ok, _ := slot.Take(); ok {
				t.Error("Take must empty the slot")
			}

			slot.Put(want)
			if err := slot.Discard(); err != nil {
				t.Fatalf("Discard failed: %v", err)
			}
			if _, ok, _ := slot.Take(); ok {
				t.Error("Discard must empty the slot")
			}
			if err := slot.Discard(); err != nil {
				t.Errorf("Discarding an empty slot should succeed, got %v", err)
			}
		})
	}
}

func TestMemorySlotCopiesHistory(t *testing.T) {
	slot := NewMemorySlot()
	state := sampleState()
	slot.Put(state)
	state.History[0].Text = "mutated"

	got, _, _ := slot.Take()
	if got.History[0].Text != "one" {
		t.Error("Put must snapshot the history")
	}
}

func TestRuntimeSlotFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "clipkeep")
	slot := NewRuntimeSlot(dir)

	if err := slot.Put(sampleState()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "handoff.json"))
	if err != nil {
		t.Fatalf("Expected hand-off file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("Expected mode 0600, got %o", perm)
	}

	slot.Take()
	if _, err := os.Stat(filepath.Join(dir, "handoff.json")); !os.IsNotExist(err) {
		t.Error("Take must remove the hand-off file")
	}
}

func TestRuntimeSlotPeek(t *testing.T) {
	slot := NewRuntimeSlot(t.TempDir())

	if _, ok, err := slot.Peek(); ok || err != nil {
		t.Fatalf("Peek on empty slot = %v, %v", ok, err)
	}
	if err := slot.Put(sampleState()); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		state, ok, err := slot.Peek()
		if err != nil || !ok {
			t.Fatalf("Peek %d = %v, %v", i, ok, err)
		}
		if len(state.History) != 2 || !state.PrivateMode {
			t.Errorf("Peek %d returned %+v", i, state)
		}
	}

	if _, ok, _ := slot.Take(); !ok {
		t.Error("Peek must not consume the state")
	}
}

func TestRuntimeSlotCorruptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handoff.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := NewRuntimeSlot(dir).Take(); ok || err == nil {
		t.Errorf("Expected parse error, got %v %v", ok, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("A corrupt hand-off file should still be consumed")
	}
}

func TestDefaultRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if dir := DefaultRuntimeDir(); dir != "/run/user/1000/clipkeep" {
		t.Errorf("Unexpected runtime dir %s", dir)
	}

	t.Setenv("XDG_RUNTIME_DIR", "")
	if dir := DefaultRuntimeDir(); filepath.Dir(dir) != filepath.Clean(os.TempDir()) {
		t.Errorf("Expected fallback under temp dir, got %s", dir)
	}
}

func TestCorruptRuntimeSlotFallsBackToStore(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "handoff.json"), []byte("nope"), 0o600)

	w := newFakeWatcher("")
	c := newTestController(t, w, nil, NewRuntimeSlot(dir))
	if c.PrivateMode() || len(c.Entries()) != 0 {
		t.Error("Expected a fresh session when the hand-off is unreadable")
	}
}
