// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "golang.org/x/exp/constraints"

// Max returns the greater of a and b. The learned merging iterator's limit
// computation (§4.5 "Limit computation") clamps a freshly computed position
// against keys_consumed[smallest], and the compaction probe's global
// position mapping does similar position arithmetic; a generic helper
// avoids repeating the two-line comparison at each call site.
func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}
