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

// Package share sends clipboard text out of the history: web search, an
// online paste service and QR codes.
package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/skip2/go-qrcode"
)

const (
	DefaultPasteURL      = "https://dpaste.com/api/v2/"
	DefaultSearchURL     = "https://www.google.com/search?q=%s"
	DefaultExpiryDays    = 7
	MinExpiryDays        = 1
	MaxExpiryDays        = 365
	userAgent            = "clipkeep"
	maxResponseBodyBytes = 4096
)

// ErrInvalidSearchURL is returned for search templates without a %s
// placeholder.
var ErrInvalidSearchURL = errors.New("invalid search URL")

// SearchURL substitutes the first %s in template with the URI-component
// encoding of text.
func SearchURL(template, text string) (string, error) {
	if !strings.Contains(template, "%s") {
		return "", fmt.Errorf("%w %q", ErrInvalidSearchURL, template)
	}
	return strings.Replace(template, "%s", encodeURIComponent(text), 1), nil
}

// uriComponentUnescaper undoes the parts of url.QueryEscape that
// encodeURIComponent in browsers does not do.
var uriComponentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// encodeURIComponent percent-encodes text for use inside a query value,
// spaces included.
func encodeURIComponent(text string) string {
	return uriComponentUnescaper.Replace(url.QueryEscape(text))
}

// OpenURL hands rawURL to the desktop's default handler.
func OpenURL(rawURL string) error {
	if err := exec.Command("xdg-open", rawURL).Start(); err != nil {
		return fmt.Errorf("failed to open %s: %w", rawURL, err)
	}
	return nil
}

// SearchTheWeb opens the search page for text.
func SearchTheWeb(template, text string) error {
	target, err := SearchURL(template, text)
	if err != nil {
		return err
	}
	return OpenURL(target)
}

// Client posts text to a dpaste-compatible paste service.
type Client struct {
	endpoint   string
	expiryDays int
	httpClient *http.Client
}

// NewClient returns a client for endpoint (DefaultPasteURL when empty).
// expiryDays is clamped to [MinExpiryDays, MaxExpiryDays].
func NewClient(endpoint string, expiryDays int) *Client {
	if endpoint == "" {
		endpoint = DefaultPasteURL
	}
	switch {
	case expiryDays < MinExpiryDays:
		expiryDays = MinExpiryDays
	case expiryDays > MaxExpiryDays:
		expiryDays = MaxExpiryDays
	}
	return &Client{
		endpoint:   endpoint,
		expiryDays: expiryDays,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Share uploads text and returns the URL of the new paste.
func (c *Client) Share(ctx context.Context, text string) (string, error) {
	form := url.Values{
		"content":     {text},
		"expiry_days": {strconv.Itoa(c.expiryDays)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create share request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to share text: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read share response: %w", err)
	}
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("paste service returned %s", resp.Status)
	}

	link := strings.TrimSpace(string(body))
	if link == "" {
		return "", errors.New("paste service returned an empty URL")
	}
	return link, nil
}

// Result is the outcome of an asynchronous Share.
type Result struct {
	URL string
	Err error
}

// ShareAsync runs Share on its own goroutine and delivers exactly one Result.
func (c *Client) ShareAsync(ctx context.Context, text string) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		link, err := c.Share(ctx, text)
		ch <- Result{URL: link, Err: err}
	}()
	return ch
}

// QRCode renders text as a QR code made of Unicode half blocks, suitable for
// a terminal.
func QRCode(text string) (string, error) {
	code, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	return code.ToSmallString(false), nil
}
