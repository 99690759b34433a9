// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "hash/crc32"

var crcTable = crc32.MakeTable(crc32.Castagnoli)

// crc implements the checksum specified in section 3 of
// https://github.com/google/leveldb/blob/master/doc/log_format.md
type crc uint32

// newCRC returns a crc of b.
func newCRC(b []byte) crc {
	return crc(0).update(b)
}

// update returns a crc of c followed by b.
func (c crc) update(b []byte) crc {
	return crc(crc32.Update(uint32(c), crcTable, b))
}

// value returns the masked crc. The mask protects against computing the crc
// of a string that itself contains embedded crcs.
func (c crc) value() uint32 {
	return uint32(c>>15|c<<17) + 0xa282ead8
}
