// Copyright 2020 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import "fmt"

// InternalKV represents a single key-value pair.
type InternalKV struct {
	K []byte
	V []byte
}

// String returns a string representation of the kv pair.
func (kv *InternalKV) String() string {
	if kv == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s:%s", FormatBytes(kv.K), FormatBytes(kv.V))
}

// InternalIterator iterates over a sequence of key-value pairs sorted by key,
// as consumed when building a table. It is a forward-only subset of the
// iterator stack used elsewhere in an LSM.
//
// An iterator must be closed after use, but it is not necessary to read an
// iterator until exhaustion.
//
// An iterator is not goroutine-safe, but it is safe to use multiple iterators
// concurrently, with each in a dedicated goroutine.
type InternalIterator interface {
	// First moves the iterator the first key/value pair. Returns the key and
	// value if the iterator is pointing at a valid entry, and (nil, nil)
	// otherwise.
	First() *InternalKV

	// Next moves the iterator to the next key/value pair. Returns nil when the
	// iterator is exhausted or an error occurred. Once Next has returned nil,
	// further calls also return nil.
	Next() *InternalKV

	// Error returns any accumulated error.
	Error() error

	// Close closes the iterator and returns any accumulated error. Exhausting
	// all the key/value pairs in a table is not considered to be an error.
	// It is not valid to call any method, including Close, after the iterator
	// has been closed.
	Close() error
}

// SliceIter is an iterator over a fixed, sorted slice of KVs.
type SliceIter struct {
	kvs      []InternalKV
	index    int
	closeErr error
}

var _ InternalIterator = (*SliceIter)(nil)

// NewSliceIter returns an iterator over the given KVs, which must already be
// sorted by key.
func NewSliceIter(kvs []InternalKV) *SliceIter {
	return &SliceIter{kvs: kvs, index: -1}
}

// SetCloseErr causes future calls to Error() and Close() to return this error.
func (i *SliceIter) SetCloseErr(closeErr error) {
	i.closeErr = closeErr
}

func (i *SliceIter) String() string {
	return "slice"
}

// First is part of the InternalIterator interface.
func (i *SliceIter) First() *InternalKV {
	i.index = -1
	return i.Next()
}

// Next is part of the InternalIterator interface.
func (i *SliceIter) Next() *InternalKV {
	if i.index >= len(i.kvs) {
		return nil
	}
	i.index++
	if i.index == len(i.kvs) {
		return nil
	}
	return &i.kvs[i.index]
}

// Error is part of the InternalIterator interface.
func (i *SliceIter) Error() error {
	return i.closeErr
}

// Close is part of the InternalIterator interface.
func (i *SliceIter) Close() error {
	return i.closeErr
}
