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

package share

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSearchURL(t *testing.T) {
	tests := []struct {
		name     string
		template string
		text     string
		want     string
	}{
		{"plain", "https://example.com/?q=%s", "hello", "https://example.com/?q=hello"},
		{"spaces", "https://example.com/?q=%s", "a b", "https://example.com/?q=a%20b"},
		{"reserved", "https://example.com/?q=%s", "a&b=c/d", "https://example.com/?q=a%26b%3Dc%2Fd"},
		{"first placeholder only", "https://example.com/%s?q=%s", "x", "https://example.com/x?q=%s"},
		{"unicode", "https://example.com/?q=%s", "é", "https://example.com/?q=%C3%A9"},
		{"unreserved marks", "https://example.com/?q=%s", "f(x)*2!='y'", "https://example.com/?q=f(x)*2!%3D'y'"},
		{"literal plus", "https://example.com/?q=%s", "1+1", "https://example.com/?q=1%2B1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SearchURL(tt.template, tt.text)
			if err != nil {
				t.Fatalf("SearchURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SearchURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSearchURLRejectsTemplateWithoutPlaceholder(t *testing.T) {
	_, err := SearchURL("https://example.com/search", "text")
	if !errors.Is(err, ErrInvalidSearchURL) {
		t.Fatalf("expected ErrInvalidSearchURL, got %v", err)
	}

	if err := SearchTheWeb("no placeholder", "text"); !errors.Is(err, ErrInvalidSearchURL) {
		t.Fatalf("SearchTheWeb: expected ErrInvalidSearchURL, got %v", err)
	}
}

func TestNewClientClampsExpiry(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MinExpiryDays},
		{-4, MinExpiryDays},
		{7, 7},
		{365, 365},
		{1000, MaxExpiryDays},
	}
	for _, tt := range tests {
		if got := NewClient("", tt.in).expiryDays; got != tt.want {
			t.Errorf("NewClient(%d).expiryDays = %d, want %d", tt.in, got, tt.want)
		}
	}

	if got := NewClient("", 7).endpoint; got != DefaultPasteURL {
		t.Errorf("default endpoint = %q, want %q", got, DefaultPasteURL)
	}
}

func TestShare(t *testing.T) {
	var gotContent, gotExpiry, gotAgent, gotMethod string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotAgent = r.UserAgent()
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotContent = r.PostForm.Get("content")
		gotExpiry = r.PostForm.Get("expiry_days")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("https://paste.example/abc\n"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 30)
	link, err := client.Share(context.Background(), "some text & more")
	if err != nil {
		t.Fatalf("Share() error = %v", err)
	}

	if link != "https://paste.example/abc" {
		t.Errorf("Share() = %q", link)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", gotMethod)
	}
	if gotContent != "some text & more" {
		t.Errorf("content = %q", gotContent)
	}
	if gotExpiry != "30" {
		t.Errorf("expiry_days = %q, want 30", gotExpiry)
	}
	if gotAgent != userAgent {
		t.Errorf("User-Agent = %q, want %q", gotAgent, userAgent)
	}
}

func TestShareRejectsUnexpectedStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusBadRequest, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
			_, _ = w.Write([]byte("https://paste.example/abc"))
		}))

		_, err := NewClient(server.URL, 7).Share(context.Background(), "text")
		server.Close()
		if err == nil {
			t.Errorf("status %d: expected error", status)
			continue
		}
		if !strings.Contains(err.Error(), http.StatusText(status)) {
			t.Errorf("status %d: error %q does not name the status", status, err)
		}
	}
}

func TestShareRejectsEmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	if _, err := NewClient(server.URL, 7).Share(context.Background(), "text"); err == nil {
		t.Fatal("expected error for empty response body")
	}
}

func TestShareAsync(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("https://paste.example/async"))
	}))
	defer server.Close()

	select {
	case res := <-NewClient(server.URL, 7).ShareAsync(context.Background(), "text"):
		if res.Err != nil {
			t.Fatalf("ShareAsync error = %v", res.Err)
		}
		if res.URL != "https://paste.example/async" {
			t.Errorf("URL = %q", res.URL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("ShareAsync did not deliver a result")
	}
}

func TestShareAsyncCancelled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	results := NewClient(server.URL, 7).ShareAsync(ctx, "text")
	cancel()

	select {
	case res := <-results:
		if res.Err == nil {
			t.Fatal("expected error after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled share did not finish")
	}
}

func TestQRCode(t *testing.T) {
	code, err := QRCode("https://paste.example/abc")
	if err != nil {
		t.Fatalf("QRCode() error = %v", err)
	}
	if strings.Count(code, "\n") < 10 {
		t.Errorf("QR code has too few rows:\n%s", code)
	}
	if !strings.ContainsAny(code, "█▀▄") {
		t.Error("QR code contains no block characters")
	}
}
