// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger configures the process-wide log/slog default used by
// cmd/aguidemo (SPEC_FULL.md §10.1). aguicore itself never touches this
// package or calls slog.SetDefault: Agent accepts an explicit *slog.Logger
// on AgentConfig and falls back to slog.Default() when the caller doesn't
// supply one, so a host application's own logging setup always wins.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
)

var defaultLogger *slog.Logger

// ownModulePrefix identifies stack frames belonging to this module, so that
// third-party log noise (anything a Transport or Subscriber the caller
// wired in happens to emit through the default slog logger) stays quiet
// unless the configured level is debug.
const ownModulePrefix = "github.com/kadirpekel/agui-go"

// outputStyle selects how a text log record is rendered.
type outputStyle int

const (
	styleSimple outputStyle = iota // level + message + attrs, no timestamp
	styleVerbose                   // timestamp + level + message + attrs
	stylePlain                     // defer to slog's own TextHandler formatting
)

func parseStyle(format string) outputStyle {
	switch format {
	case "verbose":
		return styleVerbose
	case "simple", "":
		return styleSimple
	default:
		return stylePlain
	}
}

// ParseLevel converts a level name ("debug", "info", "warn"/"warning",
// "error") to a slog.Level, defaulting to Warn for anything unrecognized.
func ParseLevel(levelStr string) (slog.Level, error) {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, nil
	}
}

// levelColor returns the ANSI color code used for a level in terminal
// output.
func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "\033[31m" // red
	case level >= slog.LevelWarn:
		return "\033[33m" // yellow
	case level >= slog.LevelInfo:
		return "\033[36m" // cyan
	default:
		return "\033[90m" // gray
	}
}

func normalizeLevelName(level slog.Level) string {
	name := level.String()
	if name == "WARNING" {
		name = "WARN"
	}
	return strings.ToUpper(name)
}

// formatRecord renders a record as "[time] LEVEL message key=value...",
// applying color and the timestamp column only where style calls for it.
// This is the single formatting path shared by styleSimple and
// styleVerbose, replacing what the teacher's pkg/logger spells out twice
// as two near-identical handler types.
func formatRecord(record slog.Record, style outputStyle, color bool) string {
	var buf strings.Builder

	if style == styleVerbose && !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006/01/02 15:04:05 "))
	}

	levelName := normalizeLevelName(record.Level)
	if color {
		buf.WriteString(levelColor(record.Level))
		buf.WriteString(levelName)
		buf.WriteString("\033[0m")
	} else {
		buf.WriteString(levelName)
	}

	buf.WriteString(" ")
	buf.WriteString(record.Message)

	record.Attrs(func(a slog.Attr) bool {
		buf.WriteString(" ")
		buf.WriteString(a.Key)
		buf.WriteString("=")
		buf.WriteString(a.Value.String())
		return true
	})

	buf.WriteString("\n")
	return buf.String()
}

// textHandler renders simple/verbose records directly to out; stylePlain
// delegates to next (a standard slog.TextHandler) unchanged.
type textHandler struct {
	next  slog.Handler
	out   io.Writer
	style outputStyle
	color bool
}

func (h *textHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *textHandler) Handle(ctx context.Context, record slog.Record) error {
	if h.style == stylePlain {
		return h.next.Handle(ctx, record)
	}
	_, err := io.WriteString(h.out, formatRecord(record, h.style, h.color))
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &textHandler{next: h.next.WithAttrs(attrs), out: h.out, style: h.style, color: h.color}
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	return &textHandler{next: h.next.WithGroup(name), out: h.out, style: h.style, color: h.color}
}

// thirdPartyFilter silences log records from outside this module unless
// minLevel is debug or lower. Records below minLevel are dropped whatever
// their origin; at or above it, records logged from this module's own
// packages (such as aguicore's recovered reducer faults and
// schema-validation warnings) pass, while records logged from any other
// package, including a host binary that calls Init, pass only when
// minLevel is debug.
type thirdPartyFilter struct {
	next     slog.Handler
	minLevel slog.Level
}

func (h *thirdPartyFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.minLevel && h.next.Enabled(ctx, level)
}

func (h *thirdPartyFilter) Handle(ctx context.Context, record slog.Record) error {
	if h.minLevel <= slog.LevelDebug || callerInOwnModule(record.PC) {
		return h.next.Handle(ctx, record)
	}
	return nil
}

func (h *thirdPartyFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &thirdPartyFilter{next: h.next.WithAttrs(attrs), minLevel: h.minLevel}
}

func (h *thirdPartyFilter) WithGroup(name string) slog.Handler {
	return &thirdPartyFilter{next: h.next.WithGroup(name), minLevel: h.minLevel}
}

// callerInOwnModule reports whether pc names a function whose import path
// starts with ownModulePrefix.
func callerInOwnModule(pc uintptr) bool {
	if pc == 0 {
		return false
	}
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return false
	}
	return strings.HasPrefix(fn.Name(), ownModulePrefix)
}

func isTerminal(file *os.File) bool {
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// Init configures and installs the process-wide slog default: level
// filtering, a colored handler when output is a terminal, and the
// requested text style ("simple", "verbose", or anything else for slog's
// own default TextHandler format). Third-party log records are dropped
// below debug level (see thirdPartyFilter).
func Init(level slog.Level, output *os.File, format string) {
	style := parseStyle(format)
	color := isTerminal(output)

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.String() == "WARNING" {
				return slog.String(slog.LevelKey, "WARN")
			}
			return a
		},
	}

	base := slog.NewTextHandler(output, opts)
	handler := &textHandler{next: base, out: output, style: style, color: color}

	defaultLogger = slog.New(&thirdPartyFilter{next: handler, minLevel: level})
	slog.SetDefault(defaultLogger)
}

// OpenLogFile opens (creating if absent) a log file for append, returning
// a cleanup func to close it.
func OpenLogFile(path string) (*os.File, func(), error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	return file, func() { file.Close() }, nil
}

// GetLogger returns the process-wide logger, lazily initializing it at
// info level with simple formatting to stderr if Init was never called.
func GetLogger() *slog.Logger {
	if defaultLogger == nil {
		Init(slog.LevelInfo, os.Stderr, "simple")
	}
	return defaultLogger
}
