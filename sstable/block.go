// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"sort"

	"github.com/cockroachdb/crlib/crbytes"
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// blockWriter builds a block of prefix-compressed key/value entries. Every
// restartInterval entries the full key is stored and its offset recorded as
// a restart point. Each entry is encoded as:
//
//	<shared uvarint><unshared uvarint><value length uvarint><key suffix><value>
//
// and the block ends with the restart offsets and their count, all fixed32.
type blockWriter struct {
	restartInterval int
	nEntries        int
	buf             []byte
	restarts        []uint32
	curKey          []byte
	tmp             [3 * binary.MaxVarintLen32]byte
}

func (w *blockWriter) add(key, value []byte) {
	shared := 0
	if w.nEntries%w.restartInterval == 0 {
		w.restarts = append(w.restarts, uint32(len(w.buf)))
	} else {
		shared = crbytes.CommonPrefix(w.curKey, key)
	}

	n := binary.PutUvarint(w.tmp[0:], uint64(shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(len(key)-shared))
	n += binary.PutUvarint(w.tmp[n:], uint64(len(value)))
	w.buf = append(w.buf, w.tmp[:n]...)
	w.buf = append(w.buf, key[shared:]...)
	w.buf = append(w.buf, value...)

	w.curKey = append(w.curKey[:0], key...)
	w.nEntries++
}

func (w *blockWriter) empty() bool {
	return w.nEntries == 0
}

// estimatedSize returns the size the block would have if finished now.
func (w *blockWriter) estimatedSize() int {
	return len(w.buf) + 4*(len(w.restarts)+1)
}

// finish appends the restart array to the block and returns it. The result
// is only valid until the next call to reset.
func (w *blockWriter) finish() []byte {
	if len(w.restarts) == 0 {
		w.restarts = append(w.restarts, 0)
	}
	var tmp4 [4]byte
	for _, x := range w.restarts {
		binary.LittleEndian.PutUint32(tmp4[:], x)
		w.buf = append(w.buf, tmp4[:]...)
	}
	binary.LittleEndian.PutUint32(tmp4[:], uint32(len(w.restarts)))
	w.buf = append(w.buf, tmp4[:]...)
	return w.buf
}

func (w *blockWriter) reset() {
	w.nEntries = 0
	w.buf = w.buf[:0]
	w.restarts = w.restarts[:0]
	w.curKey = w.curKey[:0]
}

// blockIter is an iterator over a single block of data.
//
// The iterator does not copy the block: keys it returns are only valid until
// the next positioning call, and values alias the block.
type blockIter struct {
	cmp base.Compare
	// data holds the entries followed by the restart array.
	data []byte
	// restarts is the offset in data of the restart array.
	restarts    int
	numRestarts int
	// offset is the offset in data of the current entry, and nextOffset the
	// offset of the following one.
	offset     int
	nextOffset int
	key        []byte
	kv         base.InternalKV
	err        error
}

var _ base.InternalIterator = (*blockIter)(nil)

func newBlockIter(cmp base.Compare, block []byte) (*blockIter, error) {
	i := &blockIter{}
	if err := i.init(cmp, block); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *blockIter) init(cmp base.Compare, block []byte) error {
	if len(block) < 4 {
		return base.CorruptionErrorf("hyperleveldb/table: block too short: %d", errors.Safe(len(block)))
	}
	numRestarts := int(binary.LittleEndian.Uint32(block[len(block)-4:]))
	if numRestarts == 0 || (numRestarts+1)*4 > len(block) {
		return base.CorruptionErrorf("hyperleveldb/table: invalid block restart count %d", errors.Safe(numRestarts))
	}
	*i = blockIter{
		cmp:         cmp,
		data:        block,
		restarts:    len(block) - 4*(numRestarts+1),
		numRestarts: numRestarts,
		key:         i.key[:0],
	}
	return nil
}

func (i *blockIter) restartOffset(j int) int {
	return int(binary.LittleEndian.Uint32(i.data[i.restarts+4*j:]))
}

// decodeEntry decodes the entry at i.offset. The key at i.key must hold the
// previous entry's key, or be empty at a restart point.
func (i *blockIter) decodeEntry() *base.InternalKV {
	if i.err != nil || i.offset >= i.restarts {
		return nil
	}
	p := i.data[i.offset:i.restarts]
	shared, n1 := binary.Uvarint(p)
	if n1 <= 0 {
		return i.corrupt()
	}
	unshared, n2 := binary.Uvarint(p[n1:])
	if n2 <= 0 {
		return i.corrupt()
	}
	valueLen, n3 := binary.Uvarint(p[n1+n2:])
	if n3 <= 0 {
		return i.corrupt()
	}
	p = p[n1+n2+n3:]
	if shared > uint64(len(i.key)) || unshared > uint64(len(p)) || valueLen > uint64(len(p))-unshared {
		return i.corrupt()
	}
	i.key = append(i.key[:shared], p[:unshared]...)
	i.kv = base.InternalKV{K: i.key, V: p[unshared : unshared+valueLen]}
	i.nextOffset = i.offset + n1 + n2 + n3 + int(unshared+valueLen)
	return &i.kv
}

func (i *blockIter) corrupt() *base.InternalKV {
	i.err = base.CorruptionErrorf("hyperleveldb/table: corrupt block entry at offset %d", errors.Safe(i.offset))
	return nil
}

// First implements base.InternalIterator.
func (i *blockIter) First() *base.InternalKV {
	i.offset = 0
	i.key = i.key[:0]
	return i.decodeEntry()
}

// Next implements base.InternalIterator.
func (i *blockIter) Next() *base.InternalKV {
	if i.nextOffset <= i.offset {
		return nil
	}
	i.offset = i.nextOffset
	return i.decodeEntry()
}

// SeekGE moves the iterator to the first entry whose key is greater than or
// equal to the given key.
func (i *blockIter) SeekGE(key []byte) *base.InternalKV {
	if i.restarts == 0 {
		// Empty block.
		return nil
	}
	// Find the first restart point whose key is > key. The target, if
	// present, lies in the restart interval before it.
	index := sort.Search(i.numRestarts, func(j int) bool {
		if i.err != nil {
			return true
		}
		i.offset = i.restartOffset(j)
		i.key = i.key[:0]
		kv := i.decodeEntry()
		if kv == nil {
			if i.err == nil {
				i.corrupt()
			}
			return true
		}
		return i.cmp(kv.K, key) > 0
	})
	if i.err != nil {
		return nil
	}
	i.offset = 0
	if index > 0 {
		i.offset = i.restartOffset(index - 1)
	}
	i.key = i.key[:0]
	for kv := i.decodeEntry(); kv != nil; kv = i.Next() {
		if i.cmp(kv.K, key) >= 0 {
			return kv
		}
	}
	return nil
}

// Error implements base.InternalIterator.
func (i *blockIter) Error() error {
	return i.err
}

// Close implements base.InternalIterator.
func (i *blockIter) Close() error {
	err := i.err
	*i = blockIter{key: i.key[:0]}
	return err
}
