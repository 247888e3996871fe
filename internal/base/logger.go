// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"context"
	"log"
)

// LoggerAndTracer is passed in rather than referenced as a package-level
// global (see §9's "Global singletons" design note). It is carried in
// sstable.ReaderOptions; readFooter is the one call that uses it, emitting
// a trace event only when the footer read exceeds table.go's
// slowReadTracingThreshold.
type LoggerAndTracer interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})

	// IsTracingEnabled reports whether Eventf calls will be recorded. A
	// caller should avoid the allocations of formatting a trace event when
	// tracing is disabled.
	IsTracingEnabled(ctx context.Context) bool
	Eventf(ctx context.Context, format string, args ...interface{})
}

// NoopLoggerAndTracer discards everything except Fatalf, which still
// logs and exits through log.Fatalf. It is the default when no
// logger is supplied; it is never passed by value across goroutine
// boundaries because it carries no state.
type NoopLoggerAndTracer struct{}

var _ LoggerAndTracer = NoopLoggerAndTracer{}

func (NoopLoggerAndTracer) Infof(string, ...interface{})  {}
func (NoopLoggerAndTracer) Errorf(string, ...interface{}) {}
func (NoopLoggerAndTracer) Fatalf(format string, args ...interface{}) {
	log.Fatalf(format, args...)
}
func (NoopLoggerAndTracer) IsTracingEnabled(context.Context) bool { return false }
func (NoopLoggerAndTracer) Eventf(context.Context, string, ...interface{}) {}

// StdLogger logs to the standard library logger and always traces; it is
// useful in tests that want to see the slow-path trace events.
type StdLogger struct{}

var _ LoggerAndTracer = StdLogger{}

func (StdLogger) Infof(format string, args ...interface{})  { log.Printf("INFO: "+format, args...) }
func (StdLogger) Errorf(format string, args ...interface{}) { log.Printf("ERROR: "+format, args...) }
func (StdLogger) Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }
func (StdLogger) IsTracingEnabled(context.Context) bool      { return true }
func (StdLogger) Eventf(_ context.Context, format string, args ...interface{}) {
	log.Printf("TRACE: "+format, args...)
}
