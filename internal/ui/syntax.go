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
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// minCodeLength keeps short snippets from being mistaken for code.
const minCodeLength = 20

const resetSequence = "\x1b[0m"

// Highlighter renders entry previews with Chroma.
type Highlighter struct {
	theme     string
	basicOnly bool
}

// NewHighlighter returns a highlighter using the named Chroma style. Unknown
// styles fall back to monokai, or bw on terminals without 256 colours.
func NewHighlighter(theme string, basicOnly bool) *Highlighter {
	return &Highlighter{theme: theme, basicOnly: basicOnly}
}

// DetectLanguage returns the lexer alias Chroma guesses for content.
func (h *Highlighter) DetectLanguage(content string) (string, bool) {
	if len(strings.TrimSpace(content)) < minCodeLength {
		return "", false
	}

	lexer := lexers.Analyse(content)
	if lexer == nil {
		return "", false
	}
	config := lexer.Config()
	if config == nil || len(config.Aliases) == 0 {
		return "", false
	}
	return config.Aliases[0], true
}

// Preview returns at most maxLines lines of content, highlighted when it
// looks like source code.
func (h *Highlighter) Preview(content string, maxLines int) []string {
	lines := h.highlight(content)
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}

func (h *Highlighter) highlight(content string) []string {
	content = strings.TrimRight(content, "\n")
	plain := strings.Split(content, "\n")

	language, ok := h.DetectLanguage(content)
	if !ok {
		return plain
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return plain
	}

	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return plain
	}

	var buf bytes.Buffer
	if err := h.formatter().Format(&buf, h.style(), iterator); err != nil {
		return plain
	}
	// The formatter may end with a newline and a reset; keep one output line
	// per input line.
	lines := strings.Split(buf.String(), "\n")
	if len(lines) > len(plain) {
		lines = lines[:len(plain)]
		lines[len(lines)-1] += resetSequence
	}
	return lines
}

func (h *Highlighter) style() *chroma.Style {
	if h.theme != "" {
		if style, ok := styles.Registry[h.theme]; ok {
			return style
		}
	}
	name := "monokai"
	if h.basicOnly {
		name = "bw"
	}
	if style := styles.Get(name); style != nil {
		return style
	}
	return styles.Fallback
}

func (h *Highlighter) formatter() chroma.Formatter {
	name := "terminal256"
	if h.basicOnly {
		name = "terminal"
	}
	if formatter := formatters.Get(name); formatter != nil {
		return formatter
	}
	return formatters.Fallback
}
