// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/invariants"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

// Reader is a table reader. It is safe for concurrent use.
type Reader struct {
	file     vfs.File
	size     int64
	comparer *base.Comparer
	footer   footer

	// index holds the decoded index block.
	index []byte
	// filter is nil if the table has no filter block or its policy is not
	// in ReaderOptions.Filters.
	filter     *blockFilterReader
	filterBH   BlockHandle
	propsBH    BlockHandle
	Properties Properties

	closeChecker invariants.CloseChecker
}

// NewReader returns a new table reader for the file. Closing the reader will
// close the file. If NewReader returns an error the file has been closed.
func NewReader(f vfs.File, o ReaderOptions) (_ *Reader, err error) {
	o = o.ensureDefaults()
	r := &Reader{
		file:     f,
		comparer: o.Comparer,
	}
	defer func() {
		if err != nil {
			_ = f.Close()
		}
	}()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "hyperleveldb/table: invalid table (could not stat file)")
	}
	r.size = stat.Size()
	if r.footer, err = readFooter(f, r.size); err != nil {
		return nil, err
	}

	metaindex, err := r.readBlock(r.footer.metaindexBH)
	if err != nil {
		return nil, err
	}
	if err := r.readMetaindex(metaindex, o); err != nil {
		return nil, err
	}

	if r.index, err = r.readBlock(r.footer.indexBH); err != nil {
		return nil, err
	}
	if _, err := newBlockIter(r.comparer.Compare, r.index); err != nil {
		return nil, err
	}
	if r.Properties.ComparerName != "" && r.Properties.ComparerName != r.comparer.Name {
		return nil, errors.Errorf("hyperleveldb/table: comparer mismatch: table uses %q, reader uses %q",
			errors.Safe(r.Properties.ComparerName), errors.Safe(r.comparer.Name))
	}
	return r, nil
}

func (r *Reader) readMetaindex(metaindex []byte, o ReaderOptions) error {
	i, err := newBlockIter(base.DefaultComparer.Compare, metaindex)
	if err != nil {
		return err
	}
	for kv := i.First(); kv != nil; kv = i.Next() {
		bh, n := decodeBlockHandle(kv.V)
		if n == 0 || n != len(kv.V) {
			return base.CorruptionErrorf("hyperleveldb/table: invalid metaindex handle for %q", errors.Safe(string(kv.K)))
		}
		switch name := string(kv.K); {
		case name == propertiesBlockName:
			r.propsBH = bh
		case strings.HasPrefix(name, filterBlockPrefix):
			policy, ok := o.Filters[name[len(filterBlockPrefix):]]
			if !ok {
				// The filter cannot be read without its policy. Lookups fall
				// back to reading data blocks.
				continue
			}
			data, err := r.readBlock(bh)
			if err != nil {
				return err
			}
			r.filterBH = bh
			r.filter = &blockFilterReader{
				r:       NewFilterBlockReader(policy, data),
				metrics: o.FilterMetrics,
			}
		}
	}
	if err := i.Close(); err != nil {
		return err
	}
	if r.propsBH.Length > 0 {
		b, err := r.readBlock(r.propsBH)
		if err != nil {
			return err
		}
		if err := r.Properties.load(b); err != nil {
			return err
		}
	}
	return nil
}

// readBlock reads, verifies and decompresses the block at bh.
func (r *Reader) readBlock(bh BlockHandle) ([]byte, error) {
	if !bh.within(uint64(r.size)) {
		return nil, base.CorruptionErrorf("hyperleveldb/table: block %d/%d extends past end of file",
			errors.Safe(bh.Offset), errors.Safe(bh.Length))
	}
	b := make([]byte, bh.Length+blockTrailerLen)
	if _, err := r.file.ReadAt(b, int64(bh.Offset)); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "hyperleveldb/table: reading block %d/%d", errors.Safe(bh.Offset), errors.Safe(bh.Length))
	}
	if err := validateChecksum(r.footer.checksum, b, bh); err != nil {
		return nil, err
	}
	return decompressBlock(blockType(b[bh.Length]), b[:bh.Length])
}

// FilterBlock returns the reader of the table's filter block, or nil if the
// table has no filter usable with the configured policies.
func (r *Reader) FilterBlock() *FilterBlockReader {
	if r.filter == nil {
		return nil
	}
	return r.filter.r
}

// DataBlockFor returns the handle of the data block that would contain key,
// or false if key is past the end of the table.
func (r *Reader) DataBlockFor(key []byte) (BlockHandle, bool, error) {
	r.closeChecker.AssertNotClosed()
	var index blockIter
	if err := index.init(r.comparer.Compare, r.index); err != nil {
		return BlockHandle{}, false, err
	}
	kv := index.SeekGE(key)
	if kv == nil {
		return BlockHandle{}, false, index.Close()
	}
	bh, n := decodeBlockHandle(kv.V)
	if n == 0 {
		return BlockHandle{}, false, base.CorruptionErrorf("hyperleveldb/table: corrupt index entry")
	}
	return bh, true, nil
}

// Get returns the value for the given key. It returns base.ErrNotFound if
// the table does not contain the key. The returned value is owned by the
// caller.
//
// If the table has a usable filter block, it is consulted before the data
// block is read.
func (r *Reader) Get(key []byte) ([]byte, error) {
	bh, ok, err := r.DataBlockFor(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, base.ErrNotFound
	}
	if r.filter != nil && !r.filter.mayContain(bh.Offset, key) {
		return nil, base.ErrNotFound
	}
	b, err := r.readBlock(bh)
	if err != nil {
		return nil, err
	}
	data, err := newBlockIter(r.comparer.Compare, b)
	if err != nil {
		return nil, err
	}
	kv := data.SeekGE(key)
	if kv == nil || !r.comparer.Equal(kv.K, key) {
		if err := data.Close(); err != nil {
			return nil, err
		}
		return nil, base.ErrNotFound
	}
	return append([]byte(nil), kv.V...), nil
}

// NewIter returns an iterator over the table's key/value pairs in key order.
func (r *Reader) NewIter() (*Iter, error) {
	r.closeChecker.AssertNotClosed()
	i := &Iter{r: r}
	if err := i.index.init(r.comparer.Compare, r.index); err != nil {
		return nil, err
	}
	return i, nil
}

// Layout returns the layout (block organization) for an sstable.
func (r *Reader) Layout() (*Layout, error) {
	l := &Layout{
		Index:      r.footer.indexBH,
		MetaIndex:  r.footer.metaindexBH,
		Footer:     BlockHandle{Offset: uint64(r.size - FooterSize), Length: FooterSize},
		Filter:     r.filterBH,
		Properties: r.propsBH,
		Checksum:   r.footer.checksum,
	}
	var index blockIter
	if err := index.init(r.comparer.Compare, r.index); err != nil {
		return nil, err
	}
	for kv := index.First(); kv != nil; kv = index.Next() {
		bh, n := decodeBlockHandle(kv.V)
		if n == 0 {
			return nil, base.CorruptionErrorf("hyperleveldb/table: corrupt index entry")
		}
		l.Data = append(l.Data, bh)
	}
	if err := index.Close(); err != nil {
		return nil, err
	}
	return l, nil
}

// Close closes the reader and the underlying file.
func (r *Reader) Close() error {
	r.closeChecker.Close()
	return r.file.Close()
}

// Iter iterates over the key/value pairs of a table. Keys and values are
// valid until the next positioning call.
type Iter struct {
	r     *Reader
	index blockIter
	data  blockIter
	// dataLoaded is set when data is positioned within a loaded block.
	dataLoaded bool
	err        error
}

var _ base.InternalIterator = (*Iter)(nil)

// loadBlock loads the data block at the current index position.
func (i *Iter) loadBlock(kv *base.InternalKV) bool {
	i.dataLoaded = false
	if kv == nil {
		i.err = i.index.Error()
		return false
	}
	bh, n := decodeBlockHandle(kv.V)
	if n == 0 {
		i.err = base.CorruptionErrorf("hyperleveldb/table: corrupt index entry")
		return false
	}
	b, err := i.r.readBlock(bh)
	if err != nil {
		i.err = err
		return false
	}
	if err := i.data.init(i.r.comparer.Compare, b); err != nil {
		i.err = err
		return false
	}
	i.dataLoaded = true
	return true
}

// skipEmpty advances to the first entry of the next non-empty block when kv
// is nil.
func (i *Iter) skipEmpty(kv *base.InternalKV) *base.InternalKV {
	for kv == nil {
		if err := i.data.Error(); err != nil {
			i.err = err
			return nil
		}
		if !i.loadBlock(i.index.Next()) {
			return nil
		}
		kv = i.data.First()
	}
	return kv
}

// First implements base.InternalIterator.
func (i *Iter) First() *base.InternalKV {
	i.err = nil
	if !i.loadBlock(i.index.First()) {
		return nil
	}
	return i.skipEmpty(i.data.First())
}

// Next implements base.InternalIterator.
func (i *Iter) Next() *base.InternalKV {
	if i.err != nil {
		return nil
	}
	if !i.dataLoaded {
		return nil
	}
	return i.skipEmpty(i.data.Next())
}

// Error implements base.InternalIterator.
func (i *Iter) Error() error {
	return i.err
}

// Close implements base.InternalIterator.
func (i *Iter) Close() error {
	err := i.err
	*i = Iter{}
	return err
}
