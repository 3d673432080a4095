// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

// Package log implements context-aware leveled logging. Every entry carries
// the log tags attached to its context (see github.com/cockroachdb/logtags),
// and messages are formatted through github.com/cockroachdb/redact so that
// sensitive arguments can be told apart from safe ones.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
	"github.com/petermattis/goid"
)

// Severity is the severity level of a log entry.
type Severity int32

// Severity levels, in increasing order.
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// SafeValue implements the redact.SafeValue interface.
func (Severity) SafeValue() {}

// fatalExitCode is the process exit code used after a Fatal entry.
const fatalExitCode = 7

var logging struct {
	mu struct {
		sync.Mutex
		out        io.Writer
		redactable bool
		exitOverride struct {
			f         func(int)
			hideStack bool
		}
	}
}

func init() {
	logging.mu.out = os.Stderr
}

// SetOutput redirects all log entries to w and returns a function restoring
// the previous destination.
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prev := logging.mu.out
	logging.mu.out = w
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.out = prev
	}
}

// SetRedactable controls whether redaction markers are kept in the output.
func SetRedactable(redactable bool) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.redactable = redactable
}

// Infof logs to the INFO log.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityInfo, format, args)
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityWarning, format, args)
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityError, format, args)
}

// Fatalf logs to the INFO, WARNING, ERROR, and FATAL logs, including a stack
// trace of all running goroutines, then terminates the program. Tests may
// intercept the termination with SetExitFunc, in which case Fatalf returns.
func Fatalf(ctx context.Context, format string, args ...interface{}) {
	logfDepth(ctx, 1, SeverityFatal, format, args)
}

// InfofDepth logs to the INFO log, offsetting the caller's stack frame by
// 'depth'.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logfDepth(ctx, depth+1, SeverityInfo, format, args)
}

// ErrorfDepth logs to the ERROR log, offsetting the caller's stack frame by
// 'depth'.
func ErrorfDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logfDepth(ctx, depth+1, SeverityError, format, args)
}

// FatalfDepth is like Fatalf, offsetting the caller's stack frame by 'depth'.
func FatalfDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logfDepth(ctx, depth+1, SeverityFatal, format, args)
}

func logfDepth(
	ctx context.Context, depth int, sev Severity, format string, args []interface{},
) {
	logging.mu.Lock()
	redactable := logging.mu.redactable
	logging.mu.Unlock()

	entry := formatEntry(ctx, depth+1, sev, redactable, format, args)

	logging.mu.Lock()
	out := logging.mu.out
	_, _ = io.WriteString(out, entry)
	if sev != SeverityFatal {
		logging.mu.Unlock()
		return
	}
	exitFn := logging.mu.exitOverride.f
	if !logging.mu.exitOverride.hideStack {
		_, _ = out.Write(debug.Stack())
	}
	logging.mu.Unlock()

	if exitFn != nil {
		exitFn(fatalExitCode)
		return
	}
	os.Exit(fatalExitCode)
}

// formatEntry renders a single log line:
//
//	I261017 12:34:56.789012 57 file.go:42  [n1,r10] message
//
// where 57 is the ID of the logging goroutine.
func formatEntry(
	ctx context.Context, depth int, sev Severity, redactable bool, format string, args []interface{},
) string {
	var buf strings.Builder
	now := time.Now().UTC()
	buf.WriteByte(sev.String()[0])
	buf.WriteString(now.Format("060102 15:04:05.000000"))

	file, line := "???", 0
	if _, f, l, ok := runtime.Caller(depth + 1); ok {
		file, line = filepath.Base(f), l
	}
	fmt.Fprintf(&buf, " %d %s:%d ", goid.Get(), file, line)

	formatTags(ctx, &buf)

	msg := redact.Sprintf(format, args...)
	if redactable {
		buf.WriteString(string(msg))
	} else {
		buf.WriteString(msg.StripMarkers())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		buf.WriteByte('\n')
	}
	return buf.String()
}

// formatTags writes the context tags as " [k1v1,key2=v2] ". Single-letter
// keys are written directly followed by their value.
func formatTags(ctx context.Context, buf *strings.Builder) {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		buf.WriteByte(' ')
		return
	}
	buf.WriteString(" [")
	for i, t := range tags.Get() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t.Key())
		if v := t.Value(); v != nil {
			if len(t.Key()) > 1 {
				buf.WriteByte('=')
			}
			buf.WriteString(t.ValueStr())
		}
	}
	buf.WriteString("] ")
}
