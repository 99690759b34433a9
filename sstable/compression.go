// Copyright 2021 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"github.com/golang/snappy"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/klauspost/compress/zstd"
)

// Compression is the per-block compression algorithm to use.
type Compression int

// The available compression types.
const (
	DefaultCompression Compression = iota
	NoCompression
	SnappyCompression
	ZstdCompression
	NCompression
)

// String implements fmt.Stringer.
func (c Compression) String() string {
	switch c {
	case DefaultCompression:
		return "Default"
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case ZstdCompression:
		return "ZSTD"
	default:
		return "Unknown"
	}
}

// CompressionFromString returns a Compression from its string
// representation. Inverse of c.String() above.
func CompressionFromString(s string) Compression {
	switch s {
	case "Default":
		return DefaultCompression
	case "NoCompression":
		return NoCompression
	case "Snappy":
		return SnappyCompression
	case "ZSTD":
		return ZstdCompression
	default:
		return DefaultCompression
	}
}

// blockType is the compression indicator byte stored in each block trailer.
// These values are part of the durable format and should not be changed.
type blockType byte

const (
	noCompressionBlockType     blockType = 0
	snappyCompressionBlockType blockType = 1
	zstdCompressionBlockType   blockType = 7
)

// String implements fmt.Stringer.
func (t blockType) String() string {
	switch t {
	case noCompressionBlockType:
		return "none"
	case snappyCompressionBlockType:
		return "snappy"
	case zstdCompressionBlockType:
		return "zstd"
	default:
		return "unknown"
	}
}

// compressBlock compresses b, appending to dst[:0]. The block is stored
// uncompressed when compression does not shrink it by at least 12.5%.
func compressBlock(compression Compression, b []byte, dst []byte) (blockType, []byte) {
	dst = dst[:0]
	switch compression {
	case SnappyCompression:
		dst = snappy.Encode(dst[:cap(dst)], b)
		if len(dst) < len(b)-len(b)/8 {
			return snappyCompressionBlockType, dst
		}
	case ZstdCompression:
		// The decoded length is prefixed so that decompression can size its
		// buffer up front.
		var lenBuf [binary.MaxVarintLen64]byte
		n := binary.PutUvarint(lenBuf[:], uint64(len(b)))
		dst = append(dst, lenBuf[:n]...)
		encoder, _ := zstd.NewWriter(nil)
		dst = encoder.EncodeAll(b, dst)
		_ = encoder.Close()
		if len(dst) < len(b)-len(b)/8 {
			return zstdCompressionBlockType, dst
		}
	}
	return noCompressionBlockType, append(dst[:0], b...)
}

// decompressBlock decompresses b according to the block type. The returned
// slice aliases b when the block is not compressed.
func decompressBlock(typ blockType, b []byte) ([]byte, error) {
	switch typ {
	case noCompressionBlockType:
		return b, nil
	case snappyCompressionBlockType:
		decoded, err := snappy.Decode(nil, b)
		if err != nil {
			return nil, base.MarkCorruptionError(errors.Wrap(err, "hyperleveldb/table: snappy"))
		}
		return decoded, nil
	case zstdCompressionBlockType:
		decodedLen, n := binary.Uvarint(b)
		if n <= 0 {
			return nil, base.CorruptionErrorf("hyperleveldb/table: zstd block has bad length prefix")
		}
		decoder, _ := zstd.NewReader(nil)
		defer decoder.Close()
		decoded, err := decoder.DecodeAll(b[n:], make([]byte, 0, decodedLen))
		if err != nil {
			return nil, base.MarkCorruptionError(errors.Wrap(err, "hyperleveldb/table: zstd"))
		}
		if uint64(len(decoded)) != decodedLen {
			return nil, base.CorruptionErrorf("hyperleveldb/table: zstd decoded %d bytes, expected %d",
				errors.Safe(len(decoded)), errors.Safe(decodedLen))
		}
		return decoded, nil
	default:
		return nil, base.CorruptionErrorf("hyperleveldb/table: unknown block compression: %d", errors.Safe(typ))
	}
}
