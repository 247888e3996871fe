// Copyright 2022 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package objstorage

import (
	"context"
	"sync"

	"github.com/bourbon-db/bourbon/internal/base"
)

// MemProvider is an in-memory Provider, for tests that need real Reader
// bytes without touching a filesystem. It counts opens per name so tests
// can assert at-most-one-open invariants (P1).
type MemProvider struct {
	mu    sync.Mutex
	files map[string][]byte
	opens map[string]int
}

// NewMemProvider returns an empty MemProvider.
func NewMemProvider() *MemProvider {
	return &MemProvider{files: map[string][]byte{}, opens: map[string]int{}}
}

// Put registers name's contents.
func (p *MemProvider) Put(name string, data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.files[name] = data
}

// OpenCount returns how many times name has been opened.
func (p *MemProvider) OpenCount(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens[name]
}

// OpenForReading returns a Readable over name's registered bytes, or an
// error if name was never Put.
func (p *MemProvider) OpenForReading(_ context.Context, name string) (Readable, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	data, ok := p.files[name]
	if !ok {
		return nil, base.IoErrorf("objstorage: no such file: %s", name)
	}
	p.opens[name]++
	return &memReadable{data: data}, nil
}

type memReadable struct {
	data []byte
}

func (r *memReadable) ReadAt(_ context.Context, p []byte, off int64) error {
	if off < 0 || off+int64(len(p)) > int64(len(r.data)) {
		return base.IoErrorf("objstorage: read past end of memory file")
	}
	copy(p, r.data[off:])
	return nil
}

func (r *memReadable) Size() int64 { return int64(len(r.data)) }

func (r *memReadable) Close() error { return nil }
