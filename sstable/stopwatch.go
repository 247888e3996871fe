// Copyright 2023 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"time"

	"github.com/cockroachdb/crlib/crtime"
)

// stopwatch measures wall-clock duration using a monotonic clock, so that
// NTP adjustments never produce a negative duration. The slow-read trace
// event in this package (readFooter) is timed with one of these instead of
// time.Now(), which is the pattern the teacher's own (unexported)
// makeStopwatch followed.
type stopwatch struct {
	start crtime.Mono
}

func makeStopwatch() stopwatch {
	return stopwatch{start: crtime.NowMono()}
}

func (s stopwatch) stop() time.Duration {
	return s.start.Elapsed()
}
