// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package stats

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestSinkRecordsTimerQuantiles(t *testing.T) {
	s := NewSink(prometheus.NewRegistry())
	for _, ns := range []int64{100, 200, 300, 900, 1000} {
		s.RecordTimer(TimerTableCacheFind, ns)
	}
	require.Greater(t, s.Quantile(TimerTableCacheFind, 100), int64(0))
	require.LessOrEqual(t, s.Quantile(TimerTableCacheFind, 50), s.Quantile(TimerTableCacheFind, 100))
}

func TestSinkLevelHitsAndMergerStats(t *testing.T) {
	s := NewSink(prometheus.NewRegistry())
	s.RecordLevelHit(CounterLearnedFileHit)
	s.RecordLevelHit(CounterLearnedFileHit)
	s.RecordLevelHit(CounterBaselineGet)

	ms := s.MergerStats()
	ms.RecordItem(0)
	ms.RecordItem(0)
	ms.RecordItem(1)
	ms.RecordAbsError(4)
	ms.RecordAbsError(8)
	ms.RecordCompare()
	ms.RecordNoModel()

	require.Equal(t, uint64(3), ms.NumItems)
	require.Equal(t, []uint64{2, 1}, ms.NumItemsPerList)
	require.Equal(t, uint64(8), ms.MaxAbsError)
	require.Equal(t, uint64(1), ms.CompCount)
	require.Equal(t, uint64(1), ms.NoModelCount)
}

func TestSinkDumpTable(t *testing.T) {
	s := NewSink(prometheus.NewRegistry())
	s.RecordTimer(TimerBinarySearch, 500)
	var buf bytes.Buffer
	s.DumpTable(&buf)
	require.Contains(t, buf.String(), "binary_search")
}
