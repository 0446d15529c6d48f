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

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf, level)
	t.Cleanup(func() { setLogger(zerolog.Nop()) })
	return &buf
}

func TestLogFunctions(t *testing.T) {
	buf := captureLogs(t, "debug")

	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		level   string
	}{
		{"Debug", Debug, "debug"},
		{"Info", Info, "info"},
		{"Warn", Warn, "warn"},
		{"Error", Error, "error"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			buf.Reset()
			test.logFunc("test message %s", "arg")

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("Expected a JSON log line, got %q: %v", buf.String(), err)
			}
			if line["level"] != test.level {
				t.Errorf("Expected level %q, got %v", test.level, line["level"])
			}
			if line["message"] != "test message arg" {
				t.Errorf("Expected formatted message, got %v", line["message"])
			}
		})
	}
}

func TestLogLevelFiltering(t *testing.T) {
	buf := captureLogs(t, "warn")

	Debug("debug message")
	Info("info message")
	if buf.Len() != 0 {
		t.Errorf("Debug and Info should not log at warn level, got %q", buf.String())
	}

	Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Error("Warn should log at warn level")
	}

	buf.Reset()
	SetLevel("error")
	Warn("suppressed")
	if buf.Len() != 0 {
		t.Errorf("Warn should not log after SetLevel(error), got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]string{
		"debug":   "debug",
		"DEBUG":   "debug",
		"warn":    "warn",
		"error":   "error",
		"":        "info",
		"invalid": "info",
	}
	for input, expected := range tests {
		if got := parseLevel(input).String(); got != expected {
			t.Errorf("parseLevel(%q): expected %q, got %q", input, expected, got)
		}
	}
}

func TestInitLoggerWritesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Cleanup(func() { setLogger(zerolog.Nop()) })

	err := InitLogger(Options{
		File:       "~/logs/clipkeep.log",
		Level:      "info",
		MaxSize:    1,
		MaxAge:     1,
		MaxBackups: 1,
	})
	if err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}

	Info("hello %d", 42)

	data, err := os.ReadFile(filepath.Join(home, "logs", "clipkeep.log"))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	if !strings.Contains(string(data), "hello 42") {
		t.Errorf("Expected message in log file, got %q", data)
	}
}

func TestInitLoggerWithoutOutputs(t *testing.T) {
	t.Cleanup(func() { setLogger(zerolog.Nop()) })

	if err := InitLogger(Options{}); err != nil {
		t.Fatalf("InitLogger failed: %v", err)
	}
	// Must not panic with every output disabled.
	Error("discarded")
}
