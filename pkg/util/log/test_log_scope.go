// Copyright 2026 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package log

import (
	"bytes"
	"strings"
	"sync"
)

// tShim is the subset of testing.TB used by TestLogScope.
type tShim interface {
	Helper()
	Logf(format string, args ...interface{})
}

// TestLogScope captures log output for the duration of a test. Use it as:
//
//	defer log.Scope(t).Close(t)
//
// Captured entries are replayed to the test log on Close and are available
// through Contents while the scope is open.
type TestLogScope struct {
	restore func()

	mu struct {
		sync.Mutex
		buf bytes.Buffer
	}
}

// Scope redirects log output into a buffer owned by the returned scope.
func Scope(t tShim) *TestLogScope {
	t.Helper()
	s := &TestLogScope{}
	s.restore = SetOutput(s)
	return s
}

// Write implements io.Writer.
func (s *TestLogScope) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.buf.Write(p)
}

// Contents returns everything logged since the scope was opened.
func (s *TestLogScope) Contents() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mu.buf.String()
}

// Close restores the previous log destination and the default exit behavior.
func (s *TestLogScope) Close(t tShim) {
	t.Helper()
	s.restore()
	ResetExitFunc()
	if c := strings.TrimSpace(s.Contents()); c != "" {
		t.Logf("captured log output:\n%s", c)
	}
}
