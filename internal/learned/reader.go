// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package learned

import (
	"context"

	"github.com/cockroachdb/crlib/crtime"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/internal/cache"
	"github.com/bourbon-db/bourbon/internal/stats"
	"github.com/bourbon-db/bourbon/sstable"
)

// Get implements C3 (§4.3): it resolves key's position within fileNum
// using either a level-wide window (lower, upper, when levelLearned is
// true) or a freshly-queried per-file model, reads the minimal byte range
// the window names, and invokes handleResult with the matched entry's
// stored key and value. handleResult is called at most once; a negative
// filter probe or a model window past the file's last position ends the
// lookup without invoking it.
//
// sink may be nil, in which case no statistics are recorded.
func Get(
	ctx context.Context,
	c *cache.Cache,
	sink *stats.Sink,
	fileNum base.DiskFileNum,
	fileSize uint64,
	level int,
	model Model,
	key base.InternalKey,
	lower, upper uint64,
	levelLearned bool,
	handleResult func(key, value []byte),
) (found bool, err error) {
	findStart := crtime.NowMono()
	h, err := c.Find(ctx, fileNum, fileSize)
	if sink != nil {
		sink.RecordTimer(stats.TimerTableCacheFind, int64(findStart.Elapsed()))
	}
	if err != nil {
		return false, err
	}
	defer h.Release()

	r := h.Value().Reader
	opts := r.Options()
	cmp := opts.Comparer.Compare

	if !levelLearned {
		if model == nil || !model.Trained() {
			return false, base.ErrInvalid
		}
		lookupStart := crtime.NowMono()
		lower, upper = model.GetPosition(key.UserKey)
		if sink != nil {
			sink.RecordTimer(stats.TimerModelLookup, int64(lookupStart.Elapsed()))
		}
		if lower > model.MaxPosition() {
			return false, nil
		}
	}

	if sink != nil {
		if levelLearned {
			sink.RecordLevelHit(stats.CounterLearnedLevelHit)
		} else {
			sink.RecordLevelHit(stats.CounterLearnedFileHit)
		}
	}

	indexLower := lower / uint64(opts.BlockNumEntries)
	indexUpper := upper / uint64(opts.BlockNumEntries)

	// §4.3 "Span resolution across block boundary".
	i := indexLower
	if indexLower != indexUpper {
		midKeyBytes, err := r.IndexBlock().EntryKey(int(indexLower))
		if err != nil {
			return false, err
		}
		if cmp(userKey(midKeyBytes), key.UserKey) < 0 {
			i = indexUpper
		} else {
			i = indexLower
		}
	}

	blockOffset := i * uint64(opts.BlockSize)

	probeStart := crtime.NowMono()
	mayContain := r.Filter().MayContain(blockOffset, key.UserKey)
	if sink != nil {
		sink.RecordFilterProbeNanos(level, int64(probeStart.Elapsed()))
	}
	if !mayContain {
		return false, nil
	}

	// §4.3 "Positional read".
	posBlockLower := uint64(0)
	if i == indexLower {
		posBlockLower = lower % uint64(opts.BlockNumEntries)
	}
	posBlockUpper := uint64(opts.BlockNumEntries - 1)
	if i == indexUpper {
		posBlockUpper = upper % uint64(opts.BlockNumEntries)
	}

	readSize := (posBlockUpper - posBlockLower + 1) * uint64(opts.EntrySize)
	buf := make([]byte, readSize)
	if err := r.ReadRange(ctx, buf, int64(blockOffset+posBlockLower*uint64(opts.EntrySize))); err != nil {
		return false, err
	}

	// §4.3 "Binary search": classical lower-bound over the read slice.
	searchStart := crtime.NowMono()
	left, right := posBlockLower, posBlockUpper
	for left < right {
		mid := (left + right) / 2
		e, err := sstable.DecodeFixedEntry(buf, int(mid-posBlockLower), opts.EntrySize)
		if err != nil {
			return false, err
		}
		if cmp(userKey(e.Key), key.UserKey) < 0 {
			left = mid + 1
		} else {
			right = mid
		}
	}
	if sink != nil {
		sink.RecordTimer(stats.TimerBinarySearch, int64(searchStart.Elapsed()))
	}

	e, err := sstable.DecodeFixedEntry(buf, int(left-posBlockLower), opts.EntrySize)
	if err != nil {
		return false, err
	}
	handleResult(e.Key, e.Value)
	return true, nil
}
