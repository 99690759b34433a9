// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "github.com/jayashreemohan29/HyperLevelDB/internal/base"

// Comparer defines a total ordering over the space of []byte keys.
type Comparer = base.Comparer

// FilterPolicy is an algorithm for probabilistically encoding a set of keys.
type FilterPolicy = base.FilterPolicy

// ReaderOptions holds the parameters needed for reading an sstable.
type ReaderOptions struct {
	// Comparer defines a total ordering over the space of []byte keys: a 'less
	// than' relationship. The same comparison algorithm must be used for reads
	// and writes over the lifetime of the table.
	//
	// The default value uses the same ordering as bytes.Compare.
	Comparer *Comparer

	// Filters is a map from filter policy name to filter policy. A table's
	// filter block is only used if its policy name is found in this map.
	// Tables without a usable filter are read without filtering.
	Filters map[string]FilterPolicy

	// FilterMetrics, if non-nil, counts block filter hits and misses.
	FilterMetrics *FilterMetricsTracker
}

func (o ReaderOptions) ensureDefaults() ReaderOptions {
	o.Comparer = o.Comparer.EnsureDefaults()
	return o
}

// WriterOptions holds the parameters used to control building an sstable.
type WriterOptions struct {
	// BlockRestartInterval is the number of keys between restart points
	// for delta encoding of keys.
	//
	// The default value is 16.
	BlockRestartInterval int

	// BlockSize is the target uncompressed size in bytes of each table block.
	//
	// The default value is 4096.
	BlockSize int

	// Checksum specifies which checksum to use.
	//
	// The default value is ChecksumTypeCRC32c.
	Checksum ChecksumType

	// Comparer defines a total ordering over the space of []byte keys: a 'less
	// than' relationship. The same comparison algorithm must be used for reads
	// and writes over the lifetime of the table.
	//
	// The default value uses the same ordering as bytes.Compare.
	Comparer *Comparer

	// Compression defines the per-block compression to use.
	//
	// The default value (DefaultCompression) uses snappy compression.
	Compression Compression

	// FilterPolicy defines a filter algorithm (such as a Bloom filter) that
	// can reduce disk reads for Get calls. One filter is built for every
	// 2^FilterBaseLg bytes of data.
	//
	// The default value means to use no filter.
	FilterPolicy FilterPolicy

	// FilterBaseLg is the log2 of the table byte range covered by each filter
	// in the filter block. Zero selects the default.
	//
	// The default value is DefaultFilterBaseLg.
	FilterBaseLg uint8
}

func (o WriterOptions) ensureDefaults() WriterOptions {
	if o.BlockRestartInterval <= 0 {
		o.BlockRestartInterval = 16
	}
	if o.BlockSize <= 0 {
		o.BlockSize = 4096
	}
	if o.Checksum == ChecksumTypeNone {
		o.Checksum = ChecksumTypeCRC32c
	}
	o.Comparer = o.Comparer.EnsureDefaults()
	if o.Compression <= DefaultCompression || o.Compression >= NCompression {
		o.Compression = SnappyCompression
	}
	if o.FilterBaseLg == 0 {
		o.FilterBaseLg = DefaultFilterBaseLg
	}
	return o
}
