// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package merging

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"github.com/kr/pretty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/internal/cache"
	"github.com/bourbon-db/bourbon/internal/learned"
	"github.com/bourbon-db/bourbon/objstorage"
	"github.com/bourbon-db/bourbon/sstable"
)

const (
	testEntrySize       = 23
	testBlockNumEntries = 5
)

func userKeyString(n int) string { return fmt.Sprintf("%06d", n) }

func internalKeyFor(n int) base.InternalKey {
	return base.MakeInternalKey([]byte(userKeyString(n)), uint64(n+1), base.InternalKeyKindSet)
}

// testCache is a Provider/Cache pair shared across every Input in one merge
// scenario: GetForCompaction resolves a file through whichever cache the
// merger itself was constructed with, so every Input it probes during that
// merge must be registered with that same cache, not one of its own.
type testCache struct {
	p *objstorage.MemProvider
	c *cache.Cache
}

func newTestCache() *testCache {
	p := objstorage.NewMemProvider()
	c := cache.New(cache.Options{
		Capacity:      100,
		Dbname:        "db",
		Provider:      p,
		ReaderOptions: sstable.FixedReaderOptions(testEntrySize, testBlockNumEntries),
	})
	return &testCache{p: p, c: c}
}

// buildFileInput builds a single fixed-entry SST containing the given
// sorted user-key ints, registers it with tc, and returns an Input ready
// to merge. A nil modelFn means no per-file model exists for this input
// (the degenerate, baseline-takes-over path).
func buildFileInput(
	t *testing.T, tc *testCache, fileNum base.DiskFileNum, keys []int, level int, modelFn func(f *base.FileMetaData) learned.Model,
) *Input {
	t.Helper()
	require.Equal(t, 0, len(keys)%testBlockNumEntries, "test fixture requires a multiple of %d keys", testBlockNumEntries)

	entries := make([]sstable.FixedEntryInput, len(keys))
	for i, k := range keys {
		entries[i] = sstable.FixedEntryInput{Key: internalKeyFor(k), Value: []byte(userKeyString(k))}
	}
	data, err := sstable.BuildFixedTable(entries, testEntrySize, testBlockNumEntries)
	require.NoError(t, err)

	tc.p.Put(cache.TableFileName("db", fileNum), data)

	f := &base.FileMetaData{
		FileNum:  fileNum,
		FileSize: uint64(len(data)),
		Smallest: internalKeyFor(keys[0]),
		Largest:  internalKeyFor(keys[len(keys)-1]),
		NumKeys:  uint64(len(keys)),
	}

	h, err := tc.c.Find(context.Background(), fileNum, f.FileSize)
	require.NoError(t, err)
	iter := h.Value().Reader.NewIter(context.Background())

	return &Input{
		Iter:  iter,
		Files: []*base.FileMetaData{f},
		Level: level,
		Model: modelFn,
	}
}

// exactModel is a zero-error oracle over a known sorted key set: it always
// answers with the position of the greatest entry whose user key is <= the
// queried key, collapsing lower and upper to the same value. Real training
// never achieves zero error, but an exact oracle is a valid (degenerate)
// instance of the Model contract (I2) and isolates the merger's own logic
// from model-error-correction concerns, which internal/learned already
// tests directly (S5).
type exactModel struct {
	sortedKeys []int
}

func (m exactModel) Trained() bool       { return true }
func (m exactModel) MaxPosition() uint64 { return uint64(len(m.sortedKeys) - 1) }
func (m exactModel) GetPosition(userKey []byte) (uint64, uint64) {
	target, err := strconv.Atoi(string(userKey))
	if err != nil {
		base.AssertionFailedf("exactModel: non-numeric user key %q", userKey)
	}
	lo, hi, pos := 0, len(m.sortedKeys)-1, 0
	for lo <= hi {
		mid := (lo + hi) / 2
		if m.sortedKeys[mid] <= target {
			pos = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	return uint64(pos), uint64(pos)
}

func drain(t *testing.T, it ChildIterator) (keys []string, values []string) {
	t.Helper()
	for it.First(); it.Valid(); it.Next() {
		keys = append(keys, string(it.Key().UserKey))
		values = append(values, string(it.Value()))
	}
	require.NoError(t, it.Error())
	return keys, values
}

// diffSequences renders a unified diff (via go-difflib) plus a structural
// pretty-print (via kr/pretty) of two emitted sequences, for a readable
// failure message when P5 equivalence doesn't hold.
func diffSequences(t *testing.T, label string, got, want []string) {
	t.Helper()
	if len(got) == len(want) {
		match := true
		for i := range got {
			if got[i] != want[i] {
				match = false
				break
			}
		}
		if match {
			return
		}
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        got,
		B:        want,
		FromFile: "learned",
		ToFile:   "classical",
		Context:  3,
	})
	t.Fatalf("%s: emitted sequence mismatch\n%s\ngot:  %# v\nwant: %# v", label, diff, pretty.Formatter(got), pretty.Formatter(want))
}

func evens(n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, i*2)
	}
	return out
}

func odds(n int) []int {
	out := make([]int, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, i*2+1)
	}
	return out
}

func sequential(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// TestMergerDisjointRanges is S3: two disjoint-range inputs merge to A
// followed by B, with the learned merger re-finding only when an input is
// drained, never once per key.
func TestMergerDisjointRanges(t *testing.T) {
	aKeys := sequential(0, 20)
	bKeys := sequential(20, 20)

	modelFor := func(keys []int) func(*base.FileMetaData) learned.Model {
		return func(*base.FileMetaData) learned.Model { return exactModel{sortedKeys: keys} }
	}

	tc := newTestCache()
	a := buildFileInput(t, tc, 1, aKeys, 0, modelFor(aKeys))
	b := buildFileInput(t, tc, 2, bKeys, 0, modelFor(bKeys))
	m := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a, b})

	gotKeys, _ := drain(t, m)

	tc2 := newTestCache()
	a2 := buildFileInput(t, tc2, 1, aKeys, 0, nil)
	b2 := buildFileInput(t, tc2, 2, bKeys, 0, nil)
	classical := NewClassical(base.DefaultComparer.Compare, []*Input{a2, b2})
	wantKeys, _ := drain(t, classical)

	diffSequences(t, "disjoint ranges", gotKeys, wantKeys)

	merger := m.(*Merger)
	require.LessOrEqual(t, merger.RefindCount(), 4,
		"disjoint inputs should re-find a handful of times, not once per key")
}

// TestMergerInterleavedRanges is S4: fully interleaved inputs give the
// learned merger no fast-path gains (no entry from one input is ever
// followed by two or more entries from the same input), so it re-finds
// once per emitted key; correctness must still hold.
func TestMergerInterleavedRanges(t *testing.T) {
	aKeys := evens(20)
	bKeys := odds(20)

	modelFor := func(keys []int) func(*base.FileMetaData) learned.Model {
		return func(*base.FileMetaData) learned.Model { return exactModel{sortedKeys: keys} }
	}

	tc := newTestCache()
	a := buildFileInput(t, tc, 1, aKeys, 0, modelFor(aKeys))
	b := buildFileInput(t, tc, 2, bKeys, 0, modelFor(bKeys))
	m := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a, b})

	gotKeys, _ := drain(t, m)

	tc2 := newTestCache()
	a2 := buildFileInput(t, tc2, 1, aKeys, 0, nil)
	b2 := buildFileInput(t, tc2, 2, bKeys, 0, nil)
	classical := NewClassical(base.DefaultComparer.Compare, []*Input{a2, b2})
	wantKeys, _ := drain(t, classical)

	diffSequences(t, "interleaved ranges", gotKeys, wantKeys)

	merger := m.(*Merger)
	require.Equal(t, len(gotKeys), merger.RefindCount(),
		"fully interleaved inputs give the learned path no fast-path gains")
}

// TestMergerThreeWayNoModel exercises the n > 2 cold-start scan and the
// degenerate "no model" limit path (GetForCompaction returning ok=false
// because no per-file model was supplied), over three disjoint inputs.
func TestMergerThreeWayNoModel(t *testing.T) {
	tc := newTestCache()
	a := buildFileInput(t, tc, 1, sequential(0, 10), 0, nil)
	b := buildFileInput(t, tc, 2, sequential(10, 10), 0, nil)
	c := buildFileInput(t, tc, 3, sequential(20, 10), 0, nil)
	m := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a, b, c})

	gotKeys, _ := drain(t, m)

	tc2 := newTestCache()
	a2 := buildFileInput(t, tc2, 1, sequential(0, 10), 0, nil)
	b2 := buildFileInput(t, tc2, 2, sequential(10, 10), 0, nil)
	c2 := buildFileInput(t, tc2, 3, sequential(20, 10), 0, nil)
	classical := NewClassical(base.DefaultComparer.Compare, []*Input{a2, b2, c2})
	wantKeys, _ := drain(t, classical)

	diffSequences(t, "three-way no-model", gotKeys, wantKeys)
}

func TestMergerEmptyFastPath(t *testing.T) {
	it := New(context.Background(), nil, nil, base.DefaultComparer.Compare, nil)
	it.First()
	require.False(t, it.Valid())
	require.NoError(t, it.Error())
}

func TestMergerSingleInputFastPath(t *testing.T) {
	tc := newTestCache()
	a := buildFileInput(t, tc, 1, sequential(0, 10), 0, nil)
	it := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a})
	_, ok := it.(*Merger)
	require.False(t, ok, "a single input should bypass merge state entirely")

	keys, _ := drain(t, it)
	require.Len(t, keys, 10)
}

// TestMergerPropagatesChildError confirms §4.5's failure contract: the
// merger surfaces the first child error and abandons iteration rather than
// attempting recovery.
func TestMergerPropagatesChildError(t *testing.T) {
	tc := newTestCache()
	a := buildFileInput(t, tc, 1, sequential(0, 10), 0, nil)
	b := buildFileInput(t, tc, 2, sequential(10, 10), 0, nil)
	failing := &erroringIterator{err: base.CorruptionErrorf("boom")}
	b.Iter = failing

	m := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a, b})
	m.First()
	for i := 0; i < 100 && m.Valid(); i++ {
		m.Next()
	}
	require.Error(t, m.Error())
	require.ErrorIs(t, m.Error(), base.ErrCorruption)
}

// erroringIterator is Valid from construction and fails on the first Next.
type erroringIterator struct {
	err     error
	nexted  bool
	failing bool
}

func (e *erroringIterator) First()               { e.nexted, e.failing = false, false }
func (e *erroringIterator) Valid() bool          { return !e.failing }
func (e *erroringIterator) Key() base.InternalKey { return internalKeyFor(1000) }
func (e *erroringIterator) Value() []byte        { return []byte("x") }
func (e *erroringIterator) Next()                { e.failing = true }
func (e *erroringIterator) Error() error {
	if e.failing {
		return e.err
	}
	return nil
}
func (e *erroringIterator) Close() error { return e.Error() }

// TestShadowedIteratorAgrees confirms the shadow/verification merger
// (SUPPLEMENTED FEATURES item 2) runs learned and classical merges in
// lockstep without panicking when they agree.
func TestShadowedIteratorAgrees(t *testing.T) {
	aKeys := sequential(0, 20)
	bKeys := sequential(20, 20)
	modelFor := func(keys []int) func(*base.FileMetaData) learned.Model {
		return func(*base.FileMetaData) learned.Model { return exactModel{sortedKeys: keys} }
	}

	tc := newTestCache()
	a := buildFileInput(t, tc, 1, aKeys, 0, modelFor(aKeys))
	b := buildFileInput(t, tc, 2, bKeys, 0, modelFor(bKeys))
	learnedIt := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{a, b})

	tc2 := newTestCache()
	a2 := buildFileInput(t, tc2, 1, aKeys, 0, nil)
	b2 := buildFileInput(t, tc2, 2, bKeys, 0, nil)
	classicalIt := NewClassical(base.DefaultComparer.Compare, []*Input{a2, b2})

	shadow := NewShadowedIterator(learnedIt, classicalIt)
	var n int
	for shadow.First(); shadow.Valid(); shadow.Next() {
		n++
	}
	require.Equal(t, 40, n)
	require.NoError(t, shadow.Error())
}

// TestComputeLimitAccumulatesPrecedingFileOffsets exercises the
// level-greater-than-zero "accumulated file offset" bookkeeping (§4.5
// "Limit computation"): a level-1 input backed by two files must add the
// first file's NumKeys before the second file's probe result is a valid
// input-global position. It checks the emitted sequence against the
// classical merger; it does not inspect the limit values themselves.
func TestComputeLimitAccumulatesPrecedingFileOffsets(t *testing.T) {
	keys0 := sequential(0, 10)
	keys1 := sequential(10, 10)
	tc := newTestCache()
	in0 := buildFileInput(t, tc, 1, keys0, 1, func(*base.FileMetaData) learned.Model {
		return exactModel{sortedKeys: keys0}
	})
	in1 := buildFileInput(t, tc, 2, keys1, 1, func(*base.FileMetaData) learned.Model {
		return exactModel{sortedKeys: keys1}
	})
	levelInput := &Input{
		Iter:   &concatIterator{children: []ChildIterator{in0.Iter, in1.Iter}},
		Files:  []*base.FileMetaData{in0.Files[0], in1.Files[0]},
		Level:  1,
		Model: func(f *base.FileMetaData) learned.Model {
			if f.FileNum == in0.Files[0].FileNum {
				return exactModel{sortedKeys: keys0}
			}
			return exactModel{sortedKeys: keys1}
		},
	}

	other := buildFileInput(t, tc, 3, sequential(0, 20), 0, nil)
	m := New(context.Background(), tc.c, nil, base.DefaultComparer.Compare, []*Input{levelInput, other}).(*Merger)

	gotKeys, _ := drain(t, m)
	require.Len(t, gotKeys, 40)

	tc2 := newTestCache()
	in0b := buildFileInput(t, tc2, 1, keys0, 1, nil)
	in1b := buildFileInput(t, tc2, 2, keys1, 1, nil)
	levelInput2 := &Input{
		Iter:  &concatIterator{children: []ChildIterator{in0b.Iter, in1b.Iter}},
		Files: []*base.FileMetaData{in0b.Files[0], in1b.Files[0]},
		Level: 1,
	}
	other2 := buildFileInput(t, tc2, 3, sequential(0, 20), 0, nil)
	classical := NewClassical(base.DefaultComparer.Compare, []*Input{levelInput2, other2})
	wantKeys, _ := drain(t, classical)

	diffSequences(t, "level-1 two-file input", gotKeys, wantKeys)
}

// concatIterator chains several already-opened child iterators into one
// forward iterator, the way a level iterator would walk a non-overlapping
// file set without the merger needing to know about file boundaries
// directly (see Input's doc comment).
type concatIterator struct {
	children []ChildIterator
	idx      int
}

func (c *concatIterator) First() {
	c.idx = 0
	for _, ch := range c.children {
		ch.First()
	}
	c.skipExhausted()
}

func (c *concatIterator) skipExhausted() {
	for c.idx < len(c.children) && !c.children[c.idx].Valid() {
		c.idx++
	}
}

func (c *concatIterator) Valid() bool { return c.idx < len(c.children) && c.children[c.idx].Valid() }

func (c *concatIterator) Key() base.InternalKey { return c.children[c.idx].Key() }

func (c *concatIterator) Value() []byte { return c.children[c.idx].Value() }

func (c *concatIterator) Next() {
	c.children[c.idx].Next()
	c.skipExhausted()
}

func (c *concatIterator) Error() error {
	for _, ch := range c.children {
		if err := ch.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (c *concatIterator) Close() error { return c.Error() }
