// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/invariants"
)

// DefaultFilterBaseLg is the default log2 of the filter range size: a new
// filter is generated for every 2KB of table data.
const DefaultFilterBaseLg = 11

// filterBlockTrailerLen is the size of the offset-table-start word plus the
// base_lg byte at the end of a filter block.
const filterBlockTrailerLen = 5

// keyBuffer accumulates keys as a single flattened byte slice and the offset
// at which each key starts.
type keyBuffer struct {
	data   []byte
	starts []int
	// spans is scratch space for the reconstructed keys.
	spans [][]byte
}

func (b *keyBuffer) add(key []byte) {
	b.starts = append(b.starts, len(b.data))
	b.data = append(b.data, key...)
}

func (b *keyBuffer) numKeys() int {
	return len(b.starts)
}

// keys reconstructs the accumulated keys. The returned slices alias the
// buffer and are valid until the next call to reset.
func (b *keyBuffer) keys() [][]byte {
	n := len(b.starts)
	// A sentinel offset simplifies the length computation of the last key.
	starts := append(b.starts, len(b.data))
	b.spans = b.spans[:0]
	for i := 0; i < n; i++ {
		b.spans = append(b.spans, b.data[starts[i]:starts[i+1]])
	}
	return b.spans
}

func (b *keyBuffer) reset() {
	b.data = b.data[:0]
	b.starts = b.starts[:0]
	clear(b.spans)
	b.spans = b.spans[:0]
}

func (b *keyBuffer) release() {
	*b = keyBuffer{}
}

// FilterBlockWriter builds a filter block holding one filter for every
// 2^baseLg bytes of table data. All keys added while the table writer's
// offset lies within the same range share a filter.
//
// The block is laid out as:
//
//	[filter 0]...[filter N-1]
//	[offset of filter 0: fixed32]...[offset of filter N-1: fixed32]
//	[offset of the offset array: fixed32]
//	[baseLg: 1 byte]
//
// A range in which no keys were added gets an empty filter.
type FilterBlockWriter struct {
	policy        base.FilterPolicy
	baseLg        uint8
	keys          keyBuffer
	result        []byte
	filterOffsets []uint32
	finished      bool
}

// NewFilterBlockWriter returns a writer producing filters with the given
// policy, one for each 2^baseLg byte range of the table.
func NewFilterBlockWriter(policy base.FilterPolicy, baseLg uint8) *FilterBlockWriter {
	if policy == nil {
		panic(errors.AssertionFailedf("sstable: nil filter policy"))
	}
	return &FilterBlockWriter{
		policy: policy,
		baseLg: baseLg,
	}
}

// StartBlock informs the writer that the table writer's offset has advanced
// to blockOffset. Filters are generated for every range before the one
// containing blockOffset, including ranges that saw no keys.
//
// Offsets must not move backwards to a range that has already been
// generated.
func (w *FilterBlockWriter) StartBlock(blockOffset uint64) {
	index := blockOffset >> w.baseLg
	if index < uint64(len(w.filterOffsets)) {
		panic(errors.AssertionFailedf("sstable: filter range %d for offset %d precedes %d generated filters",
			errors.Safe(index), errors.Safe(blockOffset), errors.Safe(len(w.filterOffsets))))
	}
	for index > uint64(len(w.filterOffsets)) {
		w.generateFilter()
	}
}

// AddKey adds a key to the filter of the current range. The key is copied.
func (w *FilterBlockWriter) AddKey(key []byte) {
	w.keys.add(key)
}

// NumFilters returns the number of filters generated so far.
func (w *FilterBlockWriter) NumFilters() int {
	return len(w.filterOffsets)
}

// Finish generates a filter for any pending keys and returns the encoded
// filter block. The returned slice must not be modified. Calling Finish
// again returns the same block.
func (w *FilterBlockWriter) Finish() []byte {
	if w.finished {
		return w.result
	}
	w.finished = true
	if w.keys.numKeys() > 0 {
		w.generateFilter()
	}

	if invariants.Enabled {
		for i := 1; i < len(w.filterOffsets); i++ {
			if w.filterOffsets[i] < w.filterOffsets[i-1] {
				panic(errors.AssertionFailedf("sstable: filter offsets out of order at %d", errors.Safe(i)))
			}
		}
	}

	arrayOffset := uint32(len(w.result))
	for _, off := range w.filterOffsets {
		w.result = binary.LittleEndian.AppendUint32(w.result, off)
	}
	w.result = binary.LittleEndian.AppendUint32(w.result, arrayOffset)
	w.result = append(w.result, w.baseLg)
	w.keys.release()
	return w.result
}

func (w *FilterBlockWriter) generateFilter() {
	w.filterOffsets = append(w.filterOffsets, uint32(len(w.result)))
	if w.keys.numKeys() == 0 {
		// An empty range gets an empty filter.
		return
	}
	w.result = w.policy.CreateFilter(w.result, w.keys.keys())
	w.keys.reset()
}

// FilterBlockReader answers membership queries against a filter block built
// by FilterBlockWriter. A block that cannot be parsed makes every query
// report a possible match.
//
// The reader does not copy the block, which must outlive it.
type FilterBlockReader struct {
	policy base.FilterPolicy
	// data holds the filters, up to the start of the offset array.
	data []byte
	// offsets holds the offset array followed by the offset-array-start
	// word, which doubles as the limit of the last filter.
	offsets []byte
	num     int
	baseLg  uint8
}

// NewFilterBlockReader parses the filter block in contents.
func NewFilterBlockReader(policy base.FilterPolicy, contents []byte) *FilterBlockReader {
	r := &FilterBlockReader{policy: policy}
	n := len(contents)
	if n < filterBlockTrailerLen {
		return r
	}
	baseLg := contents[n-1]
	lastWord := binary.LittleEndian.Uint32(contents[n-filterBlockTrailerLen:])
	if uint64(lastWord) > uint64(n-filterBlockTrailerLen) {
		return r
	}
	r.baseLg = baseLg
	r.data = contents[:lastWord]
	r.offsets = contents[lastWord : n-1]
	r.num = (n - filterBlockTrailerLen - int(lastWord)) / 4
	return r
}

// NumFilters returns the number of filters in the block. It is zero for a
// block that could not be parsed.
func (r *FilterBlockReader) NumFilters() int {
	return r.num
}

// BaseLg returns the log2 of the range size recorded in the block.
func (r *FilterBlockReader) BaseLg() uint8 {
	return r.baseLg
}

// FilterBounds returns the byte range [start, limit) of the i'th filter
// within the block.
func (r *FilterBlockReader) FilterBounds(i int) (start, limit uint32, ok bool) {
	if i < 0 || i >= r.num {
		return 0, 0, false
	}
	start = binary.LittleEndian.Uint32(r.offsets[i*4:])
	limit = binary.LittleEndian.Uint32(r.offsets[i*4+4:])
	return start, limit, true
}

// KeyMayMatch returns whether key may be present in the data block starting
// at blockOffset. False positives are possible. Out of range offsets and
// malformed filter bounds report a possible match.
func (r *FilterBlockReader) KeyMayMatch(blockOffset uint64, key []byte) bool {
	index := blockOffset >> r.baseLg
	if index >= uint64(r.num) {
		return true
	}
	start, limit, _ := r.FilterBounds(int(index))
	if start == limit {
		// Empty filters do not match any keys.
		return false
	}
	if start <= limit && uint64(limit) <= uint64(len(r.data)) {
		return r.policy.KeyMayMatch(key, r.data[start:limit])
	}
	return true
}
