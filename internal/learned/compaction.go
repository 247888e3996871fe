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

// GetForCompaction implements C4 (§4.4): it returns the global, file-wide
// position of the greatest entry whose internal key is <= target, within
// fileNum. ok is false only when no model is available at all (neither a
// per-file model nor a precomputed level window) — the baseline merge path
// takes over in that case (OPEN QUESTIONS item 2).
//
// Unlike Get (C3), block-boundary resolution and the final search compare
// full internal keys, not just user keys (item 1): ties at the user-key
// level are broken by sequence number, which matters for a merge input
// that may contain several versions of one user key.
func GetForCompaction(
	ctx context.Context,
	c *cache.Cache,
	sink *stats.Sink,
	fileNum base.DiskFileNum,
	fileSize uint64,
	level int,
	model Model,
	target base.InternalKey,
	lower, upper uint64,
	levelLearned bool,
) (limit uint64, ok bool, err error) {
	findStart := crtime.NowMono()
	h, err := c.Find(ctx, fileNum, fileSize)
	if sink != nil {
		sink.RecordTimer(stats.TimerTableCacheFind, int64(findStart.Elapsed()))
	}
	if err != nil {
		return 0, false, err
	}
	defer h.Release()

	r := h.Value().Reader
	opts := r.Options()
	cmp := opts.Comparer.Compare

	if !levelLearned {
		if model == nil || !model.Trained() {
			return 0, false, nil
		}
		lookupStart := crtime.NowMono()
		lower, upper = model.GetPosition(target.UserKey)
		if sink != nil {
			sink.RecordTimer(stats.TimerModelLookup, int64(lookupStart.Elapsed()))
		}
		if lower > model.MaxPosition() {
			return model.MaxPosition(), true, nil
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

	i := indexLower
	if indexLower != indexUpper {
		midKeyBytes, err := r.IndexBlock().EntryKey(int(indexLower))
		if err != nil {
			return 0, false, err
		}
		midKey := base.DecodeInternalKey(midKeyBytes)
		if base.InternalCompare(cmp, midKey, target) < 0 {
			i = indexUpper
		} else {
			i = indexLower
		}
	}

	blockOffset := i * uint64(opts.BlockSize)

	posBlockLower := uint64(0)
	if i == indexLower {
		posBlockLower = lower % uint64(opts.BlockNumEntries)
	}
	posBlockUpper := uint64(opts.BlockNumEntries - 1)
	if i == indexUpper {
		posBlockUpper = upper % uint64(opts.BlockNumEntries)
	}

	// Unlike C3, the leftward correction below can walk left of
	// posBlockLower, so the whole block is read rather than just
	// [posBlockLower, posBlockUpper]; reading only the window (as the
	// original prototype did) leaves the correction loop walking off the
	// front of the read buffer once it backs up past where the window
	// started.
	buf := make([]byte, opts.BlockSize)
	if err := r.ReadRange(ctx, buf, int64(blockOffset)); err != nil {
		return 0, false, err
	}

	decodeAt := func(pos uint64) (base.InternalKey, error) {
		e, err := sstable.DecodeFixedEntry(buf, int(pos), opts.EntrySize)
		if err != nil {
			return base.InternalKey{}, err
		}
		return base.DecodeInternalKey(e.Key), nil
	}

	// §4.4 item 2, "Leftward error correction": the model's predicted
	// lower bound may overshoot the true answer by a small, bounded
	// amount; walk left until it doesn't, or until position 0.
	preStart := crtime.NowMono()
	left, right := posBlockLower, posBlockUpper
	underflow := false
	leftKey, err := decodeAt(left)
	if err != nil {
		return 0, false, err
	}
	for base.InternalCompare(cmp, leftKey, target) > 0 {
		if left == 0 {
			underflow = true
			break
		}
		left--
		leftKey, err = decodeAt(left)
		if err != nil {
			return 0, false, err
		}
	}
	if sink != nil {
		sink.RecordTimer(stats.TimerSequentialPrePhase, int64(preStart.Elapsed()))
	}

	// §4.4 item 3, "Upper-search binary search": find the greatest entry
	// whose key is <= target.
	searchStart := crtime.NowMono()
	for left < right {
		mid := left + (right-left+1)/2
		midKey, err := decodeAt(mid)
		if err != nil {
			return 0, false, err
		}
		if base.InternalCompare(cmp, midKey, target) <= 0 {
			left = mid
		} else {
			right = mid - 1
		}
	}
	if sink != nil {
		sink.RecordTimer(stats.TimerBinarySearch, int64(searchStart.Elapsed()))
	}

	limit = opts.BlockGlobalStart(blockOffset) + left
	if underflow {
		limit--
	}
	return limit, true, nil
}
