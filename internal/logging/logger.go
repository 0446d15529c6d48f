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
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var globalLogger = zerolog.Nop()

// Options describes where log output goes.
type Options struct {
	File       string // rotated log file; empty disables file output
	Level      string
	MaxSize    int // MB
	MaxAge     int // days
	MaxBackups int

	// Console mirrors log lines to stderr. The TUI turns this off because
	// console output would corrupt the alternate screen.
	Console bool
}

// InitLogger sets up logging with file rotation and optional console output
func InitLogger(opts Options) error {
	var writers []io.Writer

	if opts.File != "" {
		logFile, err := expandHome(opts.File)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			return err
		}

		writers = append(writers, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    opts.MaxSize,
			MaxAge:     opts.MaxAge,
			MaxBackups: opts.MaxBackups,
			LocalTime:  true,
			Compress:   true,
		})
	}

	if opts.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	if len(writers) == 0 {
		setLogger(zerolog.Nop())
		return nil
	}

	setLogger(zerolog.New(io.MultiWriter(writers...)).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp().
		Logger())
	return nil
}

// SetOutput routes JSON log lines to w at the given level.
func SetOutput(w io.Writer, level string) {
	setLogger(zerolog.New(w).Level(parseLevel(level)).With().Timestamp().Logger())
}

func setLogger(l zerolog.Logger) {
	globalLogger = l
	log.Logger = l
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, path[2:]), nil
}

func parseLevel(level string) zerolog.Level {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return logLevel
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	globalLogger.Debug().Msgf(format, args...)
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	globalLogger.Info().Msgf(format, args...)
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	globalLogger.Warn().Msgf(format, args...)
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	globalLogger.Error().Msgf(format, args...)
}

// Fatal logs a fatal message and exits
func Fatal(format string, args ...interface{}) {
	globalLogger.Fatal().Msgf(format, args...)
}

// SetLevel changes the level of the current logger.
func SetLevel(level string) {
	setLogger(globalLogger.Level(parseLevel(level)))
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return globalLogger
}
