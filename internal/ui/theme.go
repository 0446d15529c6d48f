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
	"github.com/charmbracelet/lipgloss"

	"github.com/adaryorg/clipkeep/internal/config"
	"github.com/adaryorg/clipkeep/internal/format"
)

// Styles are the rendered theme colours of the history view.
type Styles struct {
	Header              lipgloss.Style
	Status              lipgloss.Style
	Search              lipgloss.Style
	Warning             lipgloss.Style
	Selected            lipgloss.Style
	AlternateBackground lipgloss.Style
	Normal              lipgloss.Style
	Pinned              lipgloss.Style
	Private             lipgloss.Style
}

// NewStyles builds the view styles from the theme configuration. Without
// colour support every style is plain except for bold and reverse video on
// the selection.
func NewStyles(theme config.ThemeConfig, caps TerminalCapabilities) Styles {
	if !caps.SupportsColor {
		plain := lipgloss.NewStyle()
		return Styles{
			Header:              plain.Bold(true),
			Status:              plain,
			Search:              plain.Bold(true),
			Warning:             plain.Bold(true),
			Selected:            plain.Reverse(true),
			AlternateBackground: plain,
			Normal:              plain,
			Pinned:              plain,
			Private:             plain.Bold(true),
		}
	}

	return Styles{
		Header:              colorConfigToStyle(theme.Header),
		Status:              colorConfigToStyle(theme.Status),
		Search:              colorConfigToStyle(theme.Search),
		Warning:             colorConfigToStyle(theme.Warning),
		Selected:            colorConfigToStyle(theme.Selected),
		AlternateBackground: colorConfigToStyle(theme.AlternateBackground),
		Normal:              lipgloss.NewStyle(),
		Pinned:              colorConfigToStyleForegroundOnly(theme.Pinned),
		Private:             colorConfigToStyle(theme.Private),
	}
}

// parseColor accepts ANSI colour numbers, hex codes and CSS rgb()/hsl()
// literals.
func parseColor(colorStr string) lipgloss.Color {
	if colorStr == "" {
		return lipgloss.Color("")
	}
	if c, ok := format.ParseColor(colorStr); ok {
		return lipgloss.Color(c.Hex())
	}
	return lipgloss.Color(colorStr)
}

// colorConfigToStyle converts a ColorConfig to a lipgloss Style
func colorConfigToStyle(cc config.ColorConfig) lipgloss.Style {
	style := colorConfigToStyleForegroundOnly(cc)
	if cc.Background != "" {
		style = style.Background(parseColor(cc.Background))
	}
	return style
}

// colorConfigToStyleForegroundOnly is used for markers that inherit the row
// background.
func colorConfigToStyleForegroundOnly(cc config.ColorConfig) lipgloss.Style {
	style := lipgloss.NewStyle()
	if cc.Foreground != "" {
		style = style.Foreground(parseColor(cc.Foreground))
	}
	if cc.Bold {
		style = style.Bold(true)
	}
	return style
}

// swatch renders a colour sample for text that is a colour literal.
func swatch(text string, glyph string, caps TerminalCapabilities) (string, bool) {
	if !caps.SupportsColor {
		return "", false
	}
	c, ok := format.ParseColor(text)
	if !ok {
		return "", false
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(c.Hex())).Render(glyph), true
}
