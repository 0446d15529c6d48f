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

// Package format turns history entries into display text and filters them
// for search.
package format

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Markers drawn in place of leading and trailing whitespace.
const (
	SpaceMarker   = "␣"
	TabMarker     = "⇥"
	NewlineMarker = "↵"
	Ellipsis      = "…"
)

// Label renders text as a single display line. Text longer than maxLen runes
// is cut to maxLen-1 runes plus an ellipsis; maxLen <= 0 disables cutting.
// With markWhitespace, leading and trailing spaces, tabs and newlines are
// drawn as visible markers (one per character); otherwise the text is
// trimmed. Remaining whitespace runs collapse to a single space.
func Label(text string, maxLen int, markWhitespace bool) string {
	if markWhitespace {
		return shrinkWhitespace(markBoundaryWhitespace(truncate(text, maxLen)))
	}
	return shrinkWhitespace(truncate(strings.TrimSpace(text), maxLen))
}

func truncate(text string, maxLen int) string {
	if maxLen <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + Ellipsis
}

func markBoundaryWhitespace(text string) string {
	start := strings.IndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) })
	if start < 0 {
		return markRun(text)
	}
	end := strings.LastIndexFunc(text, func(r rune) bool { return !unicode.IsSpace(r) })
	_, size := utf8.DecodeRuneInString(text[end:])
	end += size

	return markRun(text[:start]) + text[start:end] + markRun(text[end:])
}

// markRun replaces spaces, tabs and newlines in a whitespace run with their
// markers. Other whitespace is left for shrinkWhitespace.
func markRun(run string) string {
	if run == "" {
		return ""
	}
	var b strings.Builder
	for _, r := range run {
		switch r {
		case ' ':
			b.WriteString(SpaceMarker)
		case '\t':
			b.WriteString(TabMarker)
		case '\n':
			b.WriteString(NewlineMarker)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func shrinkWhitespace(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace = true
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
