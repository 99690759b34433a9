// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

const (
	// TableMagic is the magic number written at the end of every table.
	TableMagic = 0xdb4775248b80fb57

	// FooterSize is the size of the table footer: two varint block handles
	// zero-padded to footerHandlesLen, a checksum type byte and the magic.
	FooterSize = footerHandlesLen + 1 + 8

	footerHandlesLen = 2 * blockHandleMaxLen

	blockHandleMaxLen = 2 * binary.MaxVarintLen64

	// blockTrailerLen is the length of the trailer at the end of a block,
	// encoding the block type (compression) and a checksum.
	blockTrailerLen = 5
)

// BlockHandle is the file offset and length of a block.
type BlockHandle struct {
	// Offset identifies the offset of the block within the file.
	Offset uint64
	// Length is the length of the block data (excludes the trailer).
	Length uint64
}

// EncodeVarints encodes the block handle into dst using a variable-width
// encoding and returns the number of bytes written.
func (h BlockHandle) EncodeVarints(dst []byte) int {
	n := binary.PutUvarint(dst, h.Offset)
	m := binary.PutUvarint(dst[n:], h.Length)
	return n + m
}

func (h BlockHandle) encode() []byte {
	var buf [blockHandleMaxLen]byte
	n := h.EncodeVarints(buf[:])
	return append([]byte(nil), buf[:n]...)
}

// decodeBlockHandle returns the block handle encoded at the start of src, as
// well as the number of bytes it occupies. It returns zero if given invalid
// input.
func decodeBlockHandle(src []byte) (BlockHandle, int) {
	offset, n := binary.Uvarint(src)
	if n <= 0 {
		return BlockHandle{}, 0
	}
	length, m := binary.Uvarint(src[n:])
	if m <= 0 {
		return BlockHandle{}, 0
	}
	return BlockHandle{Offset: offset, Length: length}, n + m
}

// ChecksumType specifies the checksum used for blocks.
type ChecksumType byte

// The available checksum types. These values are part of the durable format
// and should not be changed.
const (
	ChecksumTypeNone     ChecksumType = 0
	ChecksumTypeCRC32c   ChecksumType = 1
	ChecksumTypeXXHash64 ChecksumType = 3
)

// String implements fmt.Stringer.
func (t ChecksumType) String() string {
	switch t {
	case ChecksumTypeCRC32c:
		return "crc32c"
	case ChecksumTypeNone:
		return "none"
	case ChecksumTypeXXHash64:
		return "xxhash64"
	default:
		return "unknown"
	}
}

// ChecksumTypeFromString is the inverse of ChecksumType.String. It returns
// false for unrecognized or unsupported names.
func ChecksumTypeFromString(s string) (ChecksumType, bool) {
	switch s {
	case "crc32c":
		return ChecksumTypeCRC32c, true
	case "xxhash64":
		return ChecksumTypeXXHash64, true
	default:
		return ChecksumTypeNone, false
	}
}

// A checksummer calculates checksums for blocks.
type checksummer struct {
	typ          ChecksumType
	xxHasher     *xxhash.Digest
	blockTypeBuf [1]byte
}

// checksum computes a checksum over the provided block and block type.
func (c *checksummer) checksum(block []byte, blockType byte) (checksum uint32) {
	c.blockTypeBuf[0] = blockType
	switch c.typ {
	case ChecksumTypeCRC32c:
		checksum = newCRC(block).update(c.blockTypeBuf[:]).value()
	case ChecksumTypeXXHash64:
		if c.xxHasher == nil {
			c.xxHasher = xxhash.New()
		} else {
			c.xxHasher.Reset()
		}
		_, _ = c.xxHasher.Write(block)
		_, _ = c.xxHasher.Write(c.blockTypeBuf[:])
		checksum = uint32(c.xxHasher.Sum64())
	default:
		panic(errors.AssertionFailedf("unsupported checksum type: %d", c.typ))
	}
	return checksum
}

// within returns whether the block and its trailer lie entirely in the
// first end bytes of the file, without overflowing on corrupt handles.
func (bh BlockHandle) within(end uint64) bool {
	return bh.Length <= end && bh.Offset <= end-bh.Length && end-bh.Offset-bh.Length >= blockTrailerLen
}

// validateChecksum validates the checksum of a block. b holds the block data
// followed by its trailer.
func validateChecksum(checksumType ChecksumType, b []byte, bh BlockHandle) error {
	expectedChecksum := binary.LittleEndian.Uint32(b[bh.Length+1:])
	var computedChecksum uint32
	switch checksumType {
	case ChecksumTypeCRC32c:
		computedChecksum = newCRC(b[:bh.Length+1]).value()
	case ChecksumTypeXXHash64:
		computedChecksum = uint32(xxhash.Sum64(b[:bh.Length+1]))
	default:
		return base.CorruptionErrorf("unsupported checksum type: %d", errors.Safe(checksumType))
	}
	if expectedChecksum != computedChecksum {
		return base.CorruptionErrorf("block %d/%d: %s checksum mismatch %x != %x",
			errors.Safe(bh.Offset), errors.Safe(bh.Length), errors.Safe(checksumType),
			expectedChecksum, computedChecksum)
	}
	return nil
}

// footer is the fixed-size trailer of a table, locating the metaindex and
// index blocks.
type footer struct {
	checksum    ChecksumType
	metaindexBH BlockHandle
	indexBH     BlockHandle
}

func (f footer) encode(buf []byte) []byte {
	buf = buf[:FooterSize]
	clear(buf)
	n := f.metaindexBH.EncodeVarints(buf)
	f.indexBH.EncodeVarints(buf[n:])
	buf[footerHandlesLen] = byte(f.checksum)
	binary.LittleEndian.PutUint64(buf[footerHandlesLen+1:], TableMagic)
	return buf
}

func readFooter(r io.ReaderAt, size int64) (footer, error) {
	var f footer
	if size < FooterSize {
		return f, base.CorruptionErrorf("hyperleveldb/table: invalid table (file size is too small: %d)", errors.Safe(size))
	}
	var buf [FooterSize]byte
	if _, err := r.ReadAt(buf[:], size-FooterSize); err != nil && !errors.Is(err, io.EOF) {
		return f, errors.Wrap(err, "hyperleveldb/table: reading footer")
	}
	if magic := binary.LittleEndian.Uint64(buf[footerHandlesLen+1:]); magic != TableMagic {
		return f, base.CorruptionErrorf("hyperleveldb/table: invalid table (bad magic number: 0x%x)", errors.Safe(magic))
	}
	f.checksum = ChecksumType(buf[footerHandlesLen])
	switch f.checksum {
	case ChecksumTypeCRC32c, ChecksumTypeXXHash64:
	default:
		return f, base.CorruptionErrorf("hyperleveldb/table: unsupported checksum type %d", errors.Safe(f.checksum))
	}
	var n int
	f.metaindexBH, n = decodeBlockHandle(buf[:footerHandlesLen])
	if n == 0 {
		return f, base.CorruptionErrorf("hyperleveldb/table: invalid table (bad metaindex block handle)")
	}
	var m int
	f.indexBH, m = decodeBlockHandle(buf[n:footerHandlesLen])
	if m == 0 {
		return f, base.CorruptionErrorf("hyperleveldb/table: invalid table (bad index block handle)")
	}
	end := uint64(size - FooterSize)
	for _, bh := range []BlockHandle{f.metaindexBH, f.indexBH} {
		if !bh.within(end) {
			return f, base.CorruptionErrorf("hyperleveldb/table: invalid table (block handle %d/%d out of bounds)",
				errors.Safe(bh.Offset), errors.Safe(bh.Length))
		}
	}
	return f, nil
}
