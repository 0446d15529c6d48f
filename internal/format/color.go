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
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Color is an sRGB colour with alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

// Hex returns the colour as #rrggbb, dropping alpha.
func (c Color) Hex() string {
	const digits = "0123456789abcdef"
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{c.R, c.G, c.B} {
		b[1+2*i] = digits[v>>4]
		b[2+2*i] = digits[v&0x0f]
	}
	return string(b)
}

var (
	rgbPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^rgba?\(\s*(\d{1,3}%?)\s*,\s*(\d{1,3}%?)\s*,\s*(\d{1,3}%?)(?:\s*,\s*(\d{1,3}%|0?\.\d+|[01]))?\s*\)$`),
		regexp.MustCompile(`(?i)^rgba?\(\s*(\d{1,3}%?)\s+(\d{1,3}%?)\s+(\d{1,3}%?)(?:\s*/\s*(\d{1,3}%|0?\.\d+|[01]))?\s*\)$`),
	}
	hslPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^hsla?\(\s*(\d{1,3})\s*,\s*(\d{1,3})%\s*,\s*(\d{1,3})%(?:\s*,\s*(\d{1,3}%|0?\.\d+|[01]))?\s*\)$`),
		regexp.MustCompile(`(?i)^hsla?\(\s*(\d{1,3})\s+(\d{1,3})%\s+(\d{1,3})%(?:\s*/\s*(\d{1,3}%|0?\.\d+|[01]))?\s*\)$`),
	}
	hexPattern = regexp.MustCompile(`(?i)^#([0-9a-f]{3,4}|[0-9a-f]{6}|[0-9a-f]{8})$`)
)

// ParseColor recognises CSS colour literals: rgb()/rgba(), hsl()/hsla() in
// comma or space syntax, and #rgb, #rgba, #rrggbb, #rrggbbaa. Surrounding
// whitespace is ignored. Named colours are not recognised.
func ParseColor(text string) (Color, bool) {
	text = strings.TrimSpace(text)

	for _, re := range rgbPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return Color{
				R: channel(m[1]),
				G: channel(m[2]),
				B: channel(m[3]),
				A: alpha(m[4]),
			}, true
		}
	}

	for _, re := range hslPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			h, _ := strconv.Atoi(m[1])
			s, _ := strconv.Atoi(m[2])
			l, _ := strconv.Atoi(m[3])
			r, g, b := hslToRGB(float64(h%360), clampUnit(float64(s)/100), clampUnit(float64(l)/100))
			return Color{R: r, G: g, B: b, A: alpha(m[4])}, true
		}
	}

	if m := hexPattern.FindStringSubmatch(text); m != nil {
		return parseHex(m[1]), true
	}

	return Color{}, false
}

func channel(s string) uint8 {
	if strings.HasSuffix(s, "%") {
		v, _ := strconv.Atoi(strings.TrimSuffix(s, "%"))
		return uint8(math.Round(clampUnit(float64(v)/100) * 255))
	}
	v, _ := strconv.Atoi(s)
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

func alpha(s string) float64 {
	if s == "" {
		return 1
	}
	if strings.HasSuffix(s, "%") {
		v, _ := strconv.Atoi(strings.TrimSuffix(s, "%"))
		return clampUnit(float64(v) / 100)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 1
	}
	return clampUnit(v)
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func hslToRGB(h, s, l float64) (uint8, uint8, uint8) {
	c := (1 - math.Abs(2*l-1)) * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := l - c/2

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	conv := func(v float64) uint8 { return uint8(math.Round((v + m) * 255)) }
	return conv(r), conv(g), conv(b)
}

func parseHex(digits string) Color {
	if len(digits) <= 4 {
		expanded := make([]byte, 0, len(digits)*2)
		for i := 0; i < len(digits); i++ {
			expanded = append(expanded, digits[i], digits[i])
		}
		digits = string(expanded)
	}

	v, _ := strconv.ParseUint(digits, 16, 32)
	if len(digits) == 6 {
		return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 1}
	}
	return Color{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: float64(uint8(v)) / 255}
}
