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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/adaryorg/clipkeep/internal/format"
	"github.com/adaryorg/clipkeep/internal/history"
	"github.com/adaryorg/clipkeep/internal/session"
	"github.com/adaryorg/clipkeep/internal/storage"
)

const listLabelLength = 72

func newListCmd() *cobra.Command {
	var (
		pinnedOnly bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the clipboard history",
		Long: `Print the clipboard history.

The pinned entries are read from storage. The unpinned entries are only
known to a running session; they are shown when a session has handed its
state off to the runtime directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			entries, err := collectEntries(a, pinnedOnly)
			if err != nil {
				return err
			}
			return printEntries(cmd.OutOrStdout(), entries, a.cfg.Display.ShowBoundaryWhitespace, asJSON)
		},
	}

	cmd.Flags().BoolVar(&pinnedOnly, "pinned", false, "only list pinned entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	return cmd
}

// collectEntries merges a handed-off history (if any) with the pinned
// entries in storage. Pinned entries missing from the hand-off are appended
// in index order.
func collectEntries(a *app, pinnedOnly bool) ([]history.Entry, error) {
	var entries []history.Entry

	if rs, ok := a.slot.(*session.RuntimeSlot); ok && !pinnedOnly {
		state, found, err := rs.Peek()
		if err != nil {
			return nil, err
		}
		if found {
			entries = state.History
		}
	}

	pinned, err := loadPinned(a.store)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.ID] = true
	}
	for _, e := range pinned {
		if !seen[e.ID] {
			entries = append(entries, e)
		}
	}

	if pinnedOnly {
		return format.Filter(entries, format.Query{PinnedOnly: true}), nil
	}
	return entries, nil
}

func loadPinned(store storage.Store) ([]history.Entry, error) {
	index, err := store.LoadIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage: %w", err)
	}

	entries := make([]history.Entry, 0, len(index))
	for _, item := range index {
		text, err := store.LoadContent(item.ID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load entry content %s: %w", item.ID, err)
		}
		entries = append(entries, history.Entry{ID: item.ID, Text: text, Pinned: true})
	}
	return entries, nil
}

func printEntries(w io.Writer, entries []history.Entry, markWhitespace, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []history.Entry{}
		}
		return enc.Encode(entries)
	}

	for i, e := range entries {
		marker := " "
		if e.Pinned {
			marker = "*"
		}
		if _, err := fmt.Fprintf(w, "%3d %s %s\n", i+1, marker, format.Label(e.Text, listLabelLength, markWhitespace)); err != nil {
			return err
		}
	}
	return nil
}
