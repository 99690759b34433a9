// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/swiss"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

// TableCacheMetrics holds the hit and miss counts of the table reader cache.
type TableCacheMetrics struct {
	Size   int64
	Count  int64
	Hits   int64
	Misses int64
}

// tableCache keeps a bounded set of open table readers, evicting the least
// recently used reader when full. Readers are reference counted so that an
// evicted reader stays open until its last user releases it.
type tableCache struct {
	dirname string
	fs      vfs.FS
	opts    sstable.ReaderOptions
	size    int

	mu struct {
		sync.Mutex
		nodes swiss.Map[base.FileNum, *tableCacheNode]
		lru   tableCacheNode
	}

	hits      atomic.Int64
	misses    atomic.Int64
	releasing sync.WaitGroup
}

func (c *tableCache) init(dirname string, fs vfs.FS, opts sstable.ReaderOptions, size int) {
	c.dirname = dirname
	c.fs = fs
	c.opts = opts
	c.size = size
	c.mu.nodes.Init(16)
	c.mu.lru.next = &c.mu.lru
	c.mu.lru.prev = &c.mu.lru
}

// get returns the value for key from the table described by meta. The
// table's block filter is consulted by the reader.
func (c *tableCache) get(meta *manifest.FileMetadata, key []byte) ([]byte, error) {
	// Calling findNode gives us the responsibility of decrementing n's
	// refCount.
	n := c.findNode(meta)
	defer c.unrefNode(n)
	<-n.loaded
	if n.err != nil {
		return nil, n.err
	}
	return n.reader.Get(key)
}

// releaseNode removes a node from the cache and drops the cache's reference.
//
// c.mu must be held when calling this.
func (c *tableCache) releaseNode(n *tableCacheNode) {
	c.mu.nodes.Delete(n.fileNum)
	n.next.prev = n.prev
	n.prev.next = n.next
	n.prev = nil
	n.next = nil
	c.unrefNode(n)
}

// unrefNode decrements the reference count for the specified node, closing
// its reader if the reference count fell to 0. A node holds a reference
// while it is present in the cache, so a count of 0 means it has already
// been removed.
func (c *tableCache) unrefNode(n *tableCacheNode) {
	if n.refCount.Add(-1) == 0 {
		c.releasing.Add(1)
		go n.release(c)
	}
}

// findNode returns the node for the table with the given file number,
// creating it if it doesn't exist. The caller is responsible for
// decrementing the returned node's refCount.
func (c *tableCache) findNode(meta *manifest.FileMetadata) *tableCacheNode {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.mu.nodes.Get(meta.FileNum)
	if !ok {
		c.misses.Add(1)
		n = &tableCacheNode{
			fileNum: meta.FileNum,
			loaded:  make(chan struct{}),
		}
		n.refCount.Store(1)
		c.mu.nodes.Put(meta.FileNum, n)
		if c.mu.nodes.Len() > c.size {
			// Release the tail node.
			c.releaseNode(c.mu.lru.prev)
		}
		go n.load(c)
	} else {
		c.hits.Add(1)
		n.next.prev = n.prev
		n.prev.next = n.next
	}
	// Insert n at the front of the doubly-linked list.
	n.next = c.mu.lru.next
	n.prev = &c.mu.lru
	n.next.prev = n
	n.prev.next = n
	n.refCount.Add(1)
	return n
}

// evict drops the reader for fileNum, if cached.
func (c *tableCache) evict(fileNum base.FileNum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n, ok := c.mu.nodes.Get(fileNum); ok {
		c.releaseNode(n)
	}
}

func (c *tableCache) metrics() TableCacheMetrics {
	c.mu.Lock()
	count := c.mu.nodes.Len()
	c.mu.Unlock()
	return TableCacheMetrics{
		Size:   int64(c.size),
		Count:  int64(count),
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
	}
}

// Close releases every cached reader and waits for them to be closed. It
// returns an error if any reader is still referenced.
func (c *tableCache) Close() error {
	c.mu.Lock()
	var leaked int
	for n := c.mu.lru.next; n != &c.mu.lru; {
		next := n.next
		if n.refCount.Load() > 1 {
			leaked++
		}
		c.releaseNode(n)
		n = next
	}
	c.mu.Unlock()

	c.releasing.Wait()
	if leaked > 0 {
		return errors.Errorf("hyperleveldb: %d table readers still in use", errors.Safe(leaked))
	}
	return nil
}

type tableCacheNode struct {
	fileNum base.FileNum
	reader  *sstable.Reader
	err     error
	loaded  chan struct{}

	// next and prev are protected by the tableCache mutex.
	next, prev *tableCacheNode
	refCount   atomic.Int32
}

func (n *tableCacheNode) load(c *tableCache) {
	defer close(n.loaded)
	path := base.MakeFilepath(c.fs, c.dirname, base.FileTypeTable, n.fileNum)
	f, err := c.fs.Open(path)
	if err != nil {
		n.err = errors.Wrapf(err, "hyperleveldb: opening table %s", n.fileNum)
		return
	}
	n.reader, n.err = sstable.NewReader(f, c.opts)
	if n.err != nil {
		n.err = errors.Wrapf(n.err, "hyperleveldb: table %s", n.fileNum)
	}
}

func (n *tableCacheNode) release(c *tableCache) {
	defer c.releasing.Done()
	<-n.loaded
	// Nothing to be done about an error at this point. Close the reader if it
	// is open.
	if n.reader != nil {
		_ = n.reader.Close()
	}
}
