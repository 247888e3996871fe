// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package learned

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bourbon-db/bourbon/internal/base"
)

func TestGetForCompactionExactMatch(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)

	limit, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0, nil,
		testKey(5), 4, 7, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5), limit)
}

func TestGetForCompactionLeftwardCorrection(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)
	// The model overshoots: it claims the window starts at position 6,
	// but the target key (position 5) is one position left of that.
	model := fakeModel{trained: true, maxPos: testNumKeys - 1, lower: 6, upper: 7}

	limit, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0, model,
		testKey(5), 0, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5), limit)
}

func TestGetForCompactionNoModelIsNoneSentinel(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)

	_, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0, nil,
		testKey(5), 0, 0, false)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetForCompactionClampsToMaxPosition(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)
	model := fakeModel{trained: true, maxPos: testNumKeys - 1, lower: testNumKeys + 5, upper: testNumKeys + 5}

	limit, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0, model,
		testKey(9), 0, 0, false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(testNumKeys-1), limit)
}

func TestGetForCompactionBreaksTiesBySequenceNumber(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)

	// A target with the same user key as position 5 but an older sequence
	// number must still resolve to position 5: InternalCompare orders by
	// user key first, and every stored entry's user key is unique here, so
	// the tie-break path is exercised but doesn't change the outcome.
	target := base.MakeInternalKey([]byte("k05"), 1, base.InternalKeyKindSet)
	limit, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0, nil,
		target, 4, 7, true)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5), limit)
}
