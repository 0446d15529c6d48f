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

package ui

import (
	"os"
	"strings"
)

// TerminalCapabilities holds information about what the terminal can display
type TerminalCapabilities struct {
	SupportsUnicode bool
	SupportsColor   bool
}

// DetectTerminalCapabilities analyzes the current terminal's capabilities
func DetectTerminalCapabilities() TerminalCapabilities {
	term := strings.ToLower(os.Getenv("TERM"))
	termProgram := strings.ToLower(os.Getenv("TERM_PROGRAM"))
	locale := strings.ToUpper(os.Getenv("LC_ALL") + " " + os.Getenv("LANG"))

	return TerminalCapabilities{
		SupportsUnicode: detectUnicodeSupport(term, termProgram, locale),
		SupportsColor:   detectColorSupport(term, os.Getenv("NO_COLOR") != ""),
	}
}

// detectUnicodeSupport checks if terminal supports Unicode characters
func detectUnicodeSupport(term, termProgram, locale string) bool {
	unicodeTerminals := []string{
		"xterm-256color", "screen-256color", "tmux-256color",
		"alacritty", "kitty", "iterm2", "vscode", "wezterm", "ghostty",
		"gnome-terminal", "konsole", "foot",
	}

	for _, supportedTerm := range unicodeTerminals {
		if strings.Contains(term, supportedTerm) || strings.Contains(termProgram, supportedTerm) {
			return true
		}
	}

	if strings.Contains(locale, "UTF-8") || strings.Contains(locale, "UTF8") {
		return true
	}

	// The Linux console and dumb terminals mangle multi-byte glyphs.
	if term == "" || strings.Contains(term, "dumb") || term == "linux" {
		return false
	}

	return true
}

// detectColorSupport checks if terminal supports ANSI colors
func detectColorSupport(term string, noColor bool) bool {
	if noColor {
		return false
	}
	for _, noColorTerm := range []string{"dumb", "unknown"} {
		if strings.Contains(term, noColorTerm) {
			return false
		}
	}
	return true
}

// Markers are the glyphs drawn in front of list rows.
type Markers struct {
	Pinned   string
	Current  string
	Cursor   string
	Swatch   string
	Private  string
	Unpinned string
}

// GetMarkers returns row markers the terminal can render.
func GetMarkers(caps TerminalCapabilities) Markers {
	if caps.SupportsUnicode {
		return Markers{
			Pinned:   "★",
			Unpinned: " ",
			Current:  "●",
			Cursor:   "›",
			Swatch:   "██",
			Private:  "⊘ private",
		}
	}
	return Markers{
		Pinned:   "*",
		Unpinned: " ",
		Current:  "o",
		Cursor:   ">",
		Swatch:   "##",
		Private:  "[private]",
	}
}
