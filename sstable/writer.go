// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"bufio"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

// WriterMetadata holds info about a finished sstable.
type WriterMetadata struct {
	Size     uint64
	Smallest []byte
	Largest  []byte
	// Properties are the properties written to the table.
	Properties Properties
}

// Writer is a table writer.
//
// For every key added, the writer feeds the block filter: the first key of
// each data block triggers FilterBlockWriter.StartBlock at the block's
// starting offset, so the filter for a block is found by shifting the
// block's offset by the filter base.
type Writer struct {
	file     vfs.File
	bufw     *bufio.Writer
	meta     WriterMetadata
	err      error
	closed   bool
	comparer *base.Comparer

	blockSize   int
	compression Compression
	checksummer checksummer
	// offset is the file offset at which the next block will be written.
	offset uint64

	block      blockWriter
	indexBlock blockWriter
	filter     *FilterBlockWriter

	// The index entry for a finished data block is deferred until the next
	// key is known, so that a short separator can be used.
	pendingBH     BlockHandle
	hasPendingBH  bool
	lastKey       []byte
	compressedBuf []byte
	indexKeyBuf   []byte
}

// NewWriter returns a new table writer for the file. Closing the writer will
// close the file.
func NewWriter(f vfs.File, o WriterOptions) *Writer {
	o = o.ensureDefaults()
	w := &Writer{
		file:        f,
		bufw:        bufio.NewWriter(f),
		comparer:    o.Comparer,
		blockSize:   o.BlockSize,
		compression: o.Compression,
		checksummer: checksummer{typ: o.Checksum},
		block:       blockWriter{restartInterval: o.BlockRestartInterval},
		indexBlock:  blockWriter{restartInterval: 1},
	}
	w.meta.Properties.ComparerName = o.Comparer.Name
	w.meta.Properties.CompressionName = o.Compression.String()
	if o.FilterPolicy != nil {
		w.filter = NewFilterBlockWriter(o.FilterPolicy, o.FilterBaseLg)
		w.meta.Properties.FilterPolicyName = o.FilterPolicy.Name()
	}
	return w
}

// Add adds a key/value pair to the table being written. Keys must be added
// in strictly increasing order.
func (w *Writer) Add(key, value []byte) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errors.New("hyperleveldb: writer is closed")
	}
	if w.meta.Properties.NumEntries > 0 && w.comparer.Compare(w.lastKey, key) >= 0 {
		w.err = errors.Errorf("hyperleveldb: keys must be added in strictly increasing order: %s, %s",
			w.comparer.FormatKey(w.lastKey), w.comparer.FormatKey(key))
		return w.err
	}

	if w.hasPendingBH {
		w.indexKeyBuf = w.comparer.Separator(w.indexKeyBuf[:0], w.lastKey, key)
		w.addIndexEntry(w.indexKeyBuf)
	}

	if w.filter != nil {
		if w.block.empty() {
			w.filter.StartBlock(w.offset)
		}
		w.filter.AddKey(key)
	}
	w.block.add(key, value)

	if w.meta.Properties.NumEntries == 0 {
		w.meta.Smallest = append(w.meta.Smallest[:0], key...)
	}
	w.lastKey = append(w.lastKey[:0], key...)
	w.meta.Properties.NumEntries++
	w.meta.Properties.RawKeySize += uint64(len(key))
	w.meta.Properties.RawValueSize += uint64(len(value))

	if w.block.estimatedSize() >= w.blockSize {
		w.flushDataBlock()
	}
	return w.err
}

// EstimatedSize returns the number of bytes written to the file so far,
// plus the size of the data block being built.
func (w *Writer) EstimatedSize() uint64 {
	return w.offset + uint64(w.block.estimatedSize())
}

func (w *Writer) addIndexEntry(key []byte) {
	var buf [blockHandleMaxLen]byte
	n := w.pendingBH.EncodeVarints(buf[:])
	w.indexBlock.add(key, buf[:n])
	w.hasPendingBH = false
}

func (w *Writer) flushDataBlock() {
	if w.block.empty() {
		return
	}
	b := w.block.finish()
	bh, err := w.writeBlock(b, w.compression)
	w.block.reset()
	if err != nil {
		w.err = err
		return
	}
	w.pendingBH = bh
	w.hasPendingBH = true
	w.meta.Properties.NumDataBlocks++
	w.meta.Properties.DataSize += bh.Length + blockTrailerLen
}

// writeBlock compresses b, appends a trailer holding the compression type
// and checksum and writes both to the file.
func (w *Writer) writeBlock(b []byte, compression Compression) (BlockHandle, error) {
	var typ blockType
	typ, w.compressedBuf = compressBlock(compression, b, w.compressedBuf)
	b = w.compressedBuf

	var trailer [blockTrailerLen]byte
	trailer[0] = byte(typ)
	checksum := w.checksummer.checksum(b, byte(typ))
	trailer[1] = byte(checksum)
	trailer[2] = byte(checksum >> 8)
	trailer[3] = byte(checksum >> 16)
	trailer[4] = byte(checksum >> 24)

	bh := BlockHandle{Offset: w.offset, Length: uint64(len(b))}
	if _, err := w.bufw.Write(b); err != nil {
		return BlockHandle{}, errors.Wrap(err, "hyperleveldb/table: writing block")
	}
	if _, err := w.bufw.Write(trailer[:]); err != nil {
		return BlockHandle{}, errors.Wrap(err, "hyperleveldb/table: writing block trailer")
	}
	w.offset += uint64(len(b)) + blockTrailerLen
	return bh, nil
}

// Close finishes writing the table and closes the underlying file that the
// table was written to.
func (w *Writer) Close() (err error) {
	defer func() {
		if w.file == nil {
			return
		}
		err = firstError(err, w.file.Close())
		w.file = nil
	}()
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return errors.New("hyperleveldb: writer is closed")
	}
	w.closed = true

	w.flushDataBlock()
	if w.err != nil {
		return w.err
	}
	if w.hasPendingBH {
		w.indexKeyBuf = w.comparer.Successor(w.indexKeyBuf[:0], w.lastKey)
		w.addIndexEntry(w.indexKeyBuf)
	}
	if w.meta.Properties.NumEntries > 0 {
		w.meta.Largest = append(w.meta.Largest[:0], w.lastKey...)
	}

	metaindex := blockWriter{restartInterval: 1}

	// The filter block is written raw: it is read back as-is and addressed by
	// offsets computed at build time.
	if w.filter != nil {
		b := w.filter.Finish()
		w.meta.Properties.NumFilters = uint64(w.filter.NumFilters())
		w.meta.Properties.FilterSize = uint64(len(b))
		bh, err := w.writeBlock(b, NoCompression)
		if err != nil {
			w.err = err
			return err
		}
		metaindex.add([]byte(filterBlockPrefix+w.meta.Properties.FilterPolicyName), bh.encode())
	}

	// The index size is recorded before the index block is written, so it
	// covers the uncompressed block.
	indexBlock := w.indexBlock.finish()
	w.meta.Properties.IndexSize = uint64(len(indexBlock))

	var props blockWriter
	props.restartInterval = propertiesBlockRestartInterval
	w.meta.Properties.save(&props)
	propsBH, err := w.writeBlock(props.finish(), NoCompression)
	if err != nil {
		w.err = err
		return err
	}
	metaindex.add([]byte(propertiesBlockName), propsBH.encode())

	metaindexBH, err := w.writeBlock(metaindex.finish(), NoCompression)
	if err != nil {
		w.err = err
		return err
	}
	indexBH, err := w.writeBlock(indexBlock, w.compression)
	if err != nil {
		w.err = err
		return err
	}

	f := footer{
		checksum:    w.checksummer.typ,
		metaindexBH: metaindexBH,
		indexBH:     indexBH,
	}
	var footerBuf [FooterSize]byte
	if _, err := w.bufw.Write(f.encode(footerBuf[:])); err != nil {
		w.err = errors.Wrap(err, "hyperleveldb/table: writing footer")
		return w.err
	}
	w.offset += FooterSize
	w.meta.Size = w.offset

	if err := w.bufw.Flush(); err != nil {
		w.err = errors.Wrap(err, "hyperleveldb/table: flushing")
		return w.err
	}
	if err := w.file.Sync(); err != nil {
		w.err = errors.Wrap(err, "hyperleveldb/table: syncing")
		return w.err
	}
	// Make any future calls to Add or Close return an error.
	w.err = errors.New("hyperleveldb: writer is closed")
	return nil
}

// Metadata returns the metadata for the finished sstable. Only valid to call
// after the sstable has been finished.
func (w *Writer) Metadata() (*WriterMetadata, error) {
	if !w.closed || w.file != nil {
		return nil, errors.New("hyperleveldb: writer is not closed")
	}
	return &w.meta, nil
}

func firstError(err0, err1 error) error {
	if err0 != nil {
		return err0
	}
	return err1
}
