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
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/adaryorg/clipkeep/internal/history"
)

// State is what survives a hand-off between two sessions.
type State struct {
	PrivateMode bool            `json:"private_mode"`
	History     []history.Entry `json:"history"`
}

// Slot holds at most one State between a session's Close and the next New.
type Slot interface {
	Put(state State) error
	// Take returns and empties the slot.
	Take() (State, bool, error)
	Discard() error
}

// MemorySlot is an in-process slot.
type MemorySlot struct {
	mu    sync.Mutex
	state *State
}

func NewMemorySlot() *MemorySlot {
	return &MemorySlot{}
}

func (s *MemorySlot) Put(state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := State{PrivateMode: state.PrivateMode, History: append([]history.Entry(nil), state.History...)}
	s.state = &snapshot
	return nil
}

func (s *MemorySlot) Take() (State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return State{}, false, nil
	}
	state := *s.state
	s.state = nil
	return state, true, nil
}

func (s *MemorySlot) Discard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

const handoffFileName = "handoff.json"

// RuntimeSlot keeps the state in a private file under the user's runtime
// directory so that a restarted process can pick it up. The file is removed
// as soon as it is taken.
type RuntimeSlot struct {
	dir string
}

func NewRuntimeSlot(dir string) *RuntimeSlot {
	return &RuntimeSlot{dir: dir}
}

// DefaultRuntimeDir returns $XDG_RUNTIME_DIR/clipkeep, or a per-user directory
// under the system temp dir when no runtime dir is set.
func DefaultRuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "clipkeep")
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("clipkeep-%d", os.Getuid()))
}

func (s *RuntimeSlot) path() string {
	return filepath.Join(s.dir, handoffFileName)
}

func (s *RuntimeSlot) Put(state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("failed to create runtime directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+handoffFileName+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path())
}

func (s *RuntimeSlot) Take() (State, bool, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	if err := os.Remove(s.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return State{}, false, err
	}
	return decodeState(data)
}

// Peek reads the stored state without removing it.
func (s *RuntimeSlot) Peek() (State, bool, error) {
	data, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}
	return decodeState(data)
}

func decodeState(data []byte) (State, bool, error) {
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, false, fmt.Errorf("failed to parse hand-off state: %w", err)
	}
	return state, true, nil
}

func (s *RuntimeSlot) Discard() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
