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

package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newBackends(t *testing.T) map[string]Store {
	t.Helper()

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state", DatabaseFileName))
	if err != nil {
		t.Fatalf("Failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() {
		sqliteStore.Close()
	})

	return map[string]Store{
		"file":   NewFileStore(filepath.Join(t.TempDir(), "state")),
		"sqlite": sqliteStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			index, err := store.LoadIndex()
			if err != nil {
				t.Fatalf("LoadIndex on empty store failed: %v", err)
			}
			if len(index) != 0 {
				t.Errorf("Expected empty index, got %v", index)
			}

			if err := store.SaveContent("b", "second\n  with whitespace "); err != nil {
				t.Fatalf("SaveContent failed: %v", err)
			}
			if err := store.SaveContent("a", "first"); err != nil {
				t.Fatalf("SaveContent failed: %v", err)
			}
			want := []IndexEntry{{ID: "b"}, {ID: "a"}}
			if err := store.SaveIndex(want); err != nil {
				t.Fatalf("SaveIndex failed: %v", err)
			}

			index, err = store.LoadIndex()
			if err != nil {
				t.Fatalf("LoadIndex failed: %v", err)
			}
			if len(index) != 2 || index[0] != want[0] || index[1] != want[1] {
				t.Errorf("Expected index %v, got %v", want, index)
			}

			text, err := store.LoadContent("b")
			if err != nil {
				t.Fatalf("LoadContent failed: %v", err)
			}
			if text != "second\n  with whitespace " {
				t.Errorf("Content not preserved exactly, got %q", text)
			}
		})
	}
}

func TestStoreOverwriteAndDelete(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveContent("x", "old"); err != nil {
				t.Fatalf("SaveContent failed: %v", err)
			}
			if err := store.SaveContent("x", "new"); err != nil {
				t.Fatalf("SaveContent failed: %v", err)
			}
			if text, _ := store.LoadContent("x"); text != "new" {
				t.Errorf("Expected overwritten content, got %q", text)
			}

			if err := store.DeleteContent("x"); err != nil {
				t.Fatalf("DeleteContent failed: %v", err)
			}
			if _, err := store.LoadContent("x"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Expected ErrNotFound after delete, got %v", err)
			}
			if err := store.DeleteContent("x"); err != nil {
				t.Errorf("Deleting missing content should succeed, got %v", err)
			}
		})
	}
}

func TestStoreSaveEmptyIndex(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := store.SaveIndex([]IndexEntry{{ID: "a"}}); err != nil {
				t.Fatalf("SaveIndex failed: %v", err)
			}
			if err := store.SaveIndex(nil); err != nil {
				t.Fatalf("SaveIndex(nil) failed: %v", err)
			}
			index, err := store.LoadIndex()
			if err != nil {
				t.Fatalf("LoadIndex failed: %v", err)
			}
			if len(index) != 0 {
				t.Errorf("Expected empty index, got %v", index)
			}
		})
	}
}

func TestStoreRejectsInvalidIDs(t *testing.T) {
	for name, store := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"", ".", "..", "../escape", "a/b", `a\b`} {
				if err := store.SaveContent(id, "text"); !errors.Is(err, ErrInvalidID) {
					t.Errorf("SaveContent(%q): expected ErrInvalidID, got %v", id, err)
				}
				if _, err := store.LoadContent(id); !errors.Is(err, ErrInvalidID) {
					t.Errorf("LoadContent(%q): expected ErrInvalidID, got %v", id, err)
				}
			}
		})
	}
}

func TestFileStoreLayout(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	store := NewFileStore(dir)

	if err := store.SaveContent("id-1", "hello"); err != nil {
		t.Fatalf("SaveContent failed: %v", err)
	}
	if err := store.SaveIndex([]IndexEntry{{ID: "id-1"}}); err != nil {
		t.Fatalf("SaveIndex failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "storage.json"))
	if err != nil {
		t.Fatalf("Expected storage.json to exist: %v", err)
	}
	var raw []map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("storage.json is not a JSON array: %v", err)
	}
	if len(raw) != 1 || raw[0]["id"] != "id-1" || len(raw[0]) != 1 {
		t.Errorf("Expected [{\"id\":\"id-1\"}], got %s", data)
	}

	content, err := os.ReadFile(filepath.Join(dir, "id-1"))
	if err != nil || string(content) != "hello" {
		t.Errorf("Expected content file with hello, got %q (%v)", content, err)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, ".*tmp-*"))
	if len(matches) != 0 {
		t.Errorf("Temp files left behind: %v", matches)
	}

	if err := store.SaveContent("storage.json", "clobber"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected the index file name to be rejected, got %v", err)
	}
}

func TestFileStoreCorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "storage.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(dir).LoadIndex(); err == nil {
		t.Error("Expected error for corrupt index")
	}
}

func TestDefaultDir(t *testing.T) {
	tmp := t.TempDir()

	t.Setenv("XDG_STATE_HOME", tmp)
	dir, err := DefaultDir("")
	if err != nil {
		t.Fatalf("DefaultDir failed: %v", err)
	}
	if dir != filepath.Join(tmp, DefaultInstallID) {
		t.Errorf("Unexpected dir %s", dir)
	}

	t.Setenv("XDG_STATE_HOME", "")
	t.Setenv("HOME", tmp)
	dir, err = DefaultDir("custom")
	if err != nil {
		t.Fatalf("DefaultDir failed: %v", err)
	}
	if dir != filepath.Join(tmp, ".local", "state", "custom") {
		t.Errorf("Unexpected fallback dir %s", dir)
	}
}

func TestSQLiteStorePersistsAcrossOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), DatabaseFileName)

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.SaveContent("p", "pinned text")
	store.SaveIndex([]IndexEntry{{ID: "p"}})
	store.Close()

	reopened, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer reopened.Close()

	index, err := reopened.LoadIndex()
	if err != nil || len(index) != 1 || index[0].ID != "p" {
		t.Fatalf("Expected persisted index, got %v (%v)", index, err)
	}
	if text, _ := reopened.LoadContent("p"); text != "pinned text" {
		t.Errorf("Expected persisted content, got %q", text)
	}
}
