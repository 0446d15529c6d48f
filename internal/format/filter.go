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

package format

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/adaryorg/clipkeep/internal/history"
)

// Query is the search box state.
type Query struct {
	Text       string
	PinnedOnly bool
	// Fuzzy ranks entries by fuzzy score instead of requiring a substring.
	Fuzzy bool
}

// Active reports whether the query hides anything.
func (q Query) Active() bool {
	return q.PinnedOnly || q.Text != ""
}

// Filter returns the entries matching q. Substring mode is case-insensitive
// and keeps history order; fuzzy mode orders by match score.
func Filter(entries []history.Entry, q Query) []history.Entry {
	if !q.Active() {
		return entries
	}

	candidates := entries
	if q.PinnedOnly {
		candidates = make([]history.Entry, 0, len(entries))
		for _, e := range entries {
			if e.Pinned {
				candidates = append(candidates, e)
			}
		}
	}
	if q.Text == "" {
		return candidates
	}

	if q.Fuzzy {
		return fuzzyFilter(candidates, q.Text)
	}

	needle := strings.ToLower(q.Text)
	var out []history.Entry
	for _, e := range candidates {
		if strings.Contains(strings.ToLower(e.Text), needle) {
			out = append(out, e)
		}
	}
	return out
}

type entrySource []history.Entry

func (s entrySource) String(i int) string { return s[i].Text }
func (s entrySource) Len() int            { return len(s) }

func fuzzyFilter(entries []history.Entry, pattern string) []history.Entry {
	matches := fuzzy.FindFrom(pattern, entrySource(entries))
	out := make([]history.Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}
