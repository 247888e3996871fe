// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package learned implements C3 (the learned file reader) and C4 (the
// learned compaction probe): the two read paths that consult a per-file or
// per-level model to translate a user key into an entry position, instead
// of walking the index block with a binary search over separator keys.
package learned

import "github.com/bourbon-db/bourbon/internal/base"

// Model is the per-file learned index oracle (§3's LearnedIndexData): an
// opaque piecewise model trained on one file's key distribution. The
// training pipeline that produces it is out of scope (§1); this package
// only consumes its three queries.
type Model interface {
	// Trained reports whether training has completed. An untrained model
	// must not be consulted by Get or GetForCompaction.
	Trained() bool

	// MaxPosition returns the greatest position the model can address:
	// num_keys - 1 for the file it was trained on.
	MaxPosition() uint64

	// GetPosition returns an inclusive position interval [lower, upper]
	// guaranteed, by training error bounds, to contain every entry whose
	// user key equals userKey (I2).
	GetPosition(userKey []byte) (lower, upper uint64)
}

// userKey strips an encoded internal key's 8-byte trailer, returning the
// user key portion. Fixed-layout entries and index separators alike store
// full internal key bytes as their "key"; C3's resolution steps compare
// only the user-key prefix, unlike C4's which compares the full internal
// key (§4.4 item 1).
func userKey(internalKey []byte) []byte {
	return base.DecodeInternalKey(internalKey).UserKey
}
