// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// The four error kinds of §7: absence, I/O failure, corruption, and misuse
// of an untrained model. Each is a marker sentinel checked with errors.Is,
// not a hand-rolled error-code enum, matching how the teacher distinguishes
// base.ErrNotFound from wrapped corruption/IO errors.
var (
	// ErrNotFound marks a key that is provably absent. The lookups in this
	// module (learned.Get, sstable.Reader.InternalGet) report absence as
	// found=false with a nil error and do not return it. Absence is never
	// cached (§7).
	ErrNotFound = errors.New("bourbon: not found")

	// ErrCorruption marks errors produced by CorruptionErrorf: a decoded
	// entry violates an on-disk invariant (non-zero shared prefix, a
	// truncated block, a footer/magic mismatch).
	ErrCorruption = errors.New("bourbon: corruption")

	// ErrInvalid marks an attempt to consult a model that has not finished
	// training.
	ErrInvalid = errors.New("bourbon: invalid")

	// ErrIO marks errors produced by IoErrorf: the preferred and legacy
	// filenames both failed to open, or a positioned read failed.
	ErrIO = errors.New("bourbon: io")
)

// CorruptionErrorf formats an error and marks it as a corruption error. The
// resulting error is fatal to the current operation (§7): it is returned
// verbatim and the cache entry, if any, is not evicted, since the file may
// be under repair by an external actor.
func CorruptionErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf("pebble: corruption: "+format, args...), ErrCorruption)
}

// IoErrorf formats an error and marks it as an I/O error. IoError on the
// preferred filename triggers a single retry on the legacy filename; the
// caller is responsible for that retry (see internal/cache.Find).
func IoErrorf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrIO)
}

// AssertionFailedf panics with a formatted message. Assertions (shared = 0,
// entry pointer non-null, model.Learned() when used) are invariants whose
// violation is a programming error, not a runtime condition (§7) — they
// panic rather than returning a Result-shaped error.
func AssertionFailedf(format string, args ...interface{}) {
	panic(fmt.Sprintf("bourbon: assertion failed: "+format, args...))
}
