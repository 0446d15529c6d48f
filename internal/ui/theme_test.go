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
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/adaryorg/clipkeep/internal/config"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"#FF0000", "#ff0000"},
		{"#f00", "#ff0000"},
		{"rgb(0, 128, 255)", "#0080ff"},
		{"hsl(120, 100%, 50%)", "#00ff00"},

		// ANSI color codes pass through unchanged
		{"1", "1"},
		{"255", "255"},

		// Named colours are not interpreted
		{"red", "red"},
	}

	for _, test := range tests {
		result := parseColor(test.input)
		if string(result) != test.expected {
			t.Errorf("parseColor(%q) = %q, expected %q", test.input, string(result), test.expected)
		}
	}
}

func TestNewStylesWithoutColor(t *testing.T) {
	styles := NewStyles(config.Default().Theme, TerminalCapabilities{SupportsColor: false})

	if !styles.Selected.GetReverse() {
		t.Error("selection should use reverse video without colour support")
	}
	if _, ok := styles.Header.GetForeground().(lipgloss.NoColor); !ok {
		t.Error("header should have no foreground colour")
	}
}

func TestNewStylesWithColor(t *testing.T) {
	theme := config.Default().Theme
	styles := NewStyles(theme, TerminalCapabilities{SupportsColor: true})

	if !styles.Header.GetBold() {
		t.Error("header should be bold")
	}
	if got := styles.Header.GetForeground(); got != lipgloss.Color("13") {
		t.Errorf("header foreground = %v, want 13", got)
	}
	if _, ok := styles.Pinned.GetBackground().(lipgloss.NoColor); !ok {
		t.Error("pinned marker must inherit the row background")
	}
}

func TestSwatch(t *testing.T) {
	color := TerminalCapabilities{SupportsColor: true}
	if _, ok := swatch("rgb(1, 2, 3)", "██", color); !ok {
		t.Error("expected a swatch for a colour literal")
	}
	if _, ok := swatch("not a colour", "██", color); ok {
		t.Error("unexpected swatch for plain text")
	}
	if _, ok := swatch("#fff", "██", TerminalCapabilities{}); ok {
		t.Error("no swatch without colour support")
	}
}

func TestMarkers(t *testing.T) {
	unicode := GetMarkers(TerminalCapabilities{SupportsUnicode: true})
	ascii := GetMarkers(TerminalCapabilities{})

	if unicode.Pinned != "★" || ascii.Pinned != "*" {
		t.Errorf("unexpected pinned markers %q %q", unicode.Pinned, ascii.Pinned)
	}
	if ascii.Swatch != "##" {
		t.Errorf("unexpected ascii swatch %q", ascii.Swatch)
	}
}

func TestDetectUnicodeSupport(t *testing.T) {
	tests := []struct {
		term, program, locale string
		want                  bool
	}{
		{"xterm-kitty", "", "", true},
		{"xterm", "wezterm", "", true},
		{"linux", "", "", false},
		{"linux", "", "EN_US.UTF-8", true},
		{"", "", "", false},
		{"dumb", "", "C", false},
		{"vt220", "", "C", true},
	}
	for _, tt := range tests {
		if got := detectUnicodeSupport(tt.term, tt.program, tt.locale); got != tt.want {
			t.Errorf("detectUnicodeSupport(%q, %q, %q) = %v, want %v", tt.term, tt.program, tt.locale, got, tt.want)
		}
	}
}

func TestDetectColorSupport(t *testing.T) {
	if detectColorSupport("xterm-256color", true) {
		t.Error("NO_COLOR must disable colour")
	}
	if detectColorSupport("dumb", false) {
		t.Error("dumb terminals have no colour")
	}
	if !detectColorSupport("xterm", false) {
		t.Error("xterm supports colour")
	}
}
