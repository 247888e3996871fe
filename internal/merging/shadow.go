// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merging

import (
	"bytes"

	"github.com/bourbon-db/bourbon/internal/base"
)

// ShadowedIterator runs a learned merge and a classical merge over the same
// inputs in lockstep, asserting per-key equivalence (SUPPLEMENTED FEATURES
// item 2, adapted from the original's NewShadowedLearnedMergingIterator).
// It is a verification tool: P5 ("the sequence emitted by the learned
// merging iterator equals byte-for-byte the sequence emitted by a
// classical heap merger") constructs one directly rather than this package
// exposing a separate production entry point for it.
type ShadowedIterator struct {
	learned, classical ChildIterator
}

// NewShadowedIterator wraps a learned and a classical iterator, both
// unpositioned, for lockstep comparison.
func NewShadowedIterator(learned, classical ChildIterator) *ShadowedIterator {
	return &ShadowedIterator{learned: learned, classical: classical}
}

func (s *ShadowedIterator) First() {
	s.learned.First()
	s.classical.First()
	s.check()
}

func (s *ShadowedIterator) Valid() bool { return s.learned.Valid() }

func (s *ShadowedIterator) Key() base.InternalKey { return s.learned.Key() }

func (s *ShadowedIterator) Value() []byte { return s.learned.Value() }

func (s *ShadowedIterator) Next() {
	s.learned.Next()
	s.classical.Next()
	s.check()
}

func (s *ShadowedIterator) Error() error {
	if err := s.learned.Error(); err != nil {
		return err
	}
	return s.classical.Error()
}

func (s *ShadowedIterator) Close() error {
	_ = s.learned.Close()
	return s.classical.Close()
}

// check asserts I4/P5: the learned and classical iterators must agree on
// validity and, when valid, on key and value, at every step.
func (s *ShadowedIterator) check() {
	if s.learned.Valid() != s.classical.Valid() {
		base.AssertionFailedf("shadow merge: validity mismatch (learned=%t classical=%t)",
			s.learned.Valid(), s.classical.Valid())
	}
	if !s.learned.Valid() {
		return
	}
	lk, ck := s.learned.Key(), s.classical.Key()
	if !bytes.Equal(lk.UserKey, ck.UserKey) || lk.Trailer != ck.Trailer {
		base.AssertionFailedf("shadow merge: key mismatch (learned=%v classical=%v)", lk, ck)
	}
	if !bytes.Equal(s.learned.Value(), s.classical.Value()) {
		base.AssertionFailedf("shadow merge: value mismatch for key %v", lk)
	}
}
