// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package cache implements C1, the LRU table cache: it maps a file number
// to an open file handle and a parsed sstable.Reader, opening at most once
// per file number even under concurrent misses (§4.1).
package cache

import (
	"container/list"
	"context"
	"sync"

	"github.com/cockroachdb/swiss"
	"golang.org/x/sync/singleflight"

	"github.com/bourbon-db/bourbon/internal/base"
	"github.com/bourbon-db/bourbon/objstorage"
	"github.com/bourbon-db/bourbon/sstable"
)

// TableAndFile owns a random-access file handle and a parsed Reader. It is
// created on first access to a file number and destroyed by LRU eviction
// (§3 "TableAndFile").
type TableAndFile struct {
	File   objstorage.Readable
	Reader *sstable.Reader
}

// entry is one cache slot: a TableAndFile plus LRU-list linkage and a
// refcount. Entry contents are immutable once inserted (§5): only the
// refcount and list position, guarded by Cache.mu, ever change.
type entry struct {
	fileNum base.DiskFileNum
	value   *TableAndFile

	elem *list.Element // this entry's node in lru
	refs int           // number of live borrowed Handles
}

// Handle is a borrowed reference to a cached table. The caller must call
// Release when done; the entry is destroyed once its refcount reaches zero
// and it has been evicted from the index (§4.1's Handle contract).
type Handle struct {
	c *Cache
	e *entry
}

// Value returns the borrowed TableAndFile.
func (h Handle) Value() *TableAndFile { return h.e.value }

// Release decrements the entry's refcount, destroying it if the count
// reaches zero and it is no longer indexed.
func (h Handle) Release() {
	h.c.release(h.e)
}

// Options configures a Cache.
type Options struct {
	// Capacity bounds the number of resident entries (P2).
	Capacity int
	// Dbname is prefixed to file numbers by TableFileName/SSTTableFileName.
	Dbname string
	// Provider opens named objects for reading.
	Provider objstorage.Provider
	// ReaderOptions is passed through to sstable.Open for every miss.
	ReaderOptions sstable.ReaderOptions
}

// Cache is the C1 LRU table cache. It is safe for concurrent use: Find and
// Evict may be called from multiple goroutines, and a miss on the same file
// number from multiple goroutines results in exactly one open+parse (I1),
// coordinated by a singleflight.Group rather than a hand-rolled wait-list.
type Cache struct {
	opts Options

	mu    sync.Mutex
	index *swiss.Map[base.DiskFileNum, *entry]
	lru   *list.List // most-recently-used at the front

	open singleflight.Group
}

// New returns an empty Cache.
func New(opts Options) *Cache {
	if opts.Capacity <= 0 {
		opts.Capacity = 1000
	}
	return &Cache{
		opts:  opts,
		index: swiss.New[base.DiskFileNum, *entry](opts.Capacity),
		lru:   list.New(),
	}
}

// Find resolves fileNum to a borrowed Handle, opening and parsing the file
// on a miss (§4.1). Concurrent misses for the same fileNum share one
// open+parse: losing callers block in singleflight and borrow the winner's
// entry. On any open or parse failure the entry is not cached.
func (c *Cache) Find(ctx context.Context, fileNum base.DiskFileNum, fileSize uint64) (Handle, error) {
	c.mu.Lock()
	if e, ok := c.index.Get(fileNum); ok {
		c.lru.MoveToFront(e.elem)
		c.mu.Unlock()
		return c.borrow(e), nil
	}
	c.mu.Unlock()

	key := fileNumKey(fileNum)
	v, err, _ := c.open.Do(key, func() (interface{}, error) {
		// This closure only establishes residency in the index; it must
		// not take a borrow ref itself, since every caller waiting on
		// this key — the one that ran the closure and every caller
		// coalesced onto it — takes its own ref below, once its own
		// call to Do returns.
		c.mu.Lock()
		if e, ok := c.index.Get(fileNum); ok {
			// Another goroutine inserted while we awaited the
			// singleflight slot.
			c.lru.MoveToFront(e.elem)
			c.mu.Unlock()
			return e, nil
		}
		c.mu.Unlock()

		tf, err := c.openAndParse(ctx, fileNum)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		e := &entry{fileNum: fileNum, value: tf}
		e.elem = c.lru.PushFront(e)
		c.index.Put(fileNum, e)
		c.evictIfNeeded()
		c.mu.Unlock()
		return e, nil
	})
	if err != nil {
		return Handle{}, err
	}
	// singleflight.Do coalesces every concurrent miss on this fileNum onto
	// one open+parse, but each coalesced caller's own call to Do still
	// returns separately to it here — so each one, not just the goroutine
	// that executed the closure above, must take its own borrow ref
	// (§4.1/I1: N concurrent missers end up with N live Handles, each
	// pinning the entry independently).
	return c.borrow(v.(*entry)), nil
}

// borrow takes one borrow ref on e and returns a Handle wrapping it. c.mu
// must not be held.
func (c *Cache) borrow(e *entry) Handle {
	c.mu.Lock()
	e.refs++
	c.mu.Unlock()
	return Handle{c: c, e: e}
}

// openAndParse implements the §4.1 open policy: try the preferred name,
// retry once on the legacy suffix if that open fails with any error, then
// parse the footer/index/filter.
func (c *Cache) openAndParse(ctx context.Context, fileNum base.DiskFileNum) (*TableAndFile, error) {
	name := TableFileName(c.opts.Dbname, fileNum)
	f, err := c.opts.Provider.OpenForReading(ctx, name)
	if err != nil {
		legacy := SSTTableFileName(c.opts.Dbname, fileNum)
		f, err = c.opts.Provider.OpenForReading(ctx, legacy)
		if err != nil {
			return nil, base.IoErrorf("pebble/cache: could not open %s or %s: %v", name, legacy, err)
		}
	}

	r, err := sstable.Open(ctx, f, fileNum, c.opts.ReaderOptions)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &TableAndFile{File: f, Reader: r}, nil
}

// FindFileOnly returns a handle to fileNum's opened-and-parsed entry
// without requiring any per-file learned-index model to be trained.
// Adapted from table_cache.cc's FindFile/FillData split: the original uses
// this path while a model is still mid-training, so a reader can fall back
// to the classical path (C2) through the same cached entry C3 will later
// read positionally once training completes. Find and FindFileOnly share
// one entry; the split exists at the call site, not in storage.
func (c *Cache) FindFileOnly(ctx context.Context, fileNum base.DiskFileNum, fileSize uint64) (Handle, error) {
	return c.Find(ctx, fileNum, fileSize)
}

// Evict removes fileNum from the index. It is infallible and idempotent
// (§4.1): the underlying entry is only destroyed once every outstanding
// Handle has been released.
func (c *Cache) Evict(fileNum base.DiskFileNum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.index.Get(fileNum)
	if !ok {
		return
	}
	c.index.Delete(fileNum)
	c.lru.Remove(e.elem)
	e.elem = nil
	c.destroyIfUnused(e)
}

// release decrements e's refcount and destroys it if it is both unindexed
// and unborrowed.
func (c *Cache) release(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.refs--
	c.destroyIfUnused(e)
}

// destroyIfUnused closes e's file if it has no remaining borrowers and is
// no longer reachable from the index (e.elem == nil once evicted).
// c.mu must be held.
func (c *Cache) destroyIfUnused(e *entry) {
	if e.refs == 0 && e.elem == nil {
		_ = e.value.File.Close()
	}
}

// evictIfNeeded evicts least-recently-used, unborrowed entries until the
// cache is back within capacity (P2). c.mu must be held.
func (c *Cache) evictIfNeeded() {
	for c.index.Len() > c.opts.Capacity {
		back := c.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*entry)
		if e.refs > 0 {
			// Still borrowed; evicting it here would close the file
			// out from under an active Handle. Stop rather than walk
			// past it — the next Release will let a later eviction
			// (or this same admission, on a future miss) proceed.
			return
		}
		c.index.Delete(e.fileNum)
		c.lru.Remove(e.elem)
		e.elem = nil
		c.destroyIfUnused(e)
	}
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Len()
}

func fileNumKey(fileNum base.DiskFileNum) string {
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(fileNum >> (8 * i))
	}
	return string(buf[:])
}
