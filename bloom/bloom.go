// Copyright 2013 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

// Package bloom implements Bloom filters in the LevelDB filter block format.
package bloom

import (
	"fmt"

	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

const (
	// minBits is the minimum filter size in bits. Very small key sets would
	// otherwise see a very high false positive rate.
	minBits = 64

	// maxProbes is the largest probe count a filter can encode. A larger value
	// in the trailing byte is reserved for future encodings and matches
	// everything.
	maxProbes = 30
)

// hash implements a hashing algorithm similar to the Murmur hash.
func hash(b []byte) uint32 {
	const (
		seed = 0xbc9f1d34
		m    = 0xc6a4a793
	)
	h := uint32(seed) ^ (uint32(len(b)) * m)
	for ; len(b) >= 4; b = b[4:] {
		h += uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
		h *= m
		h ^= h >> 16
	}

	// The tail bytes are sign-extended to match filters written by C++
	// builds where char is signed. Consider the value 250 (11111010):
	//
	//   uint32(250)        = 00000000000000000000000011111010
	//   uint32(int8(250))  = 11111111111111111111111111111010
	switch len(b) {
	case 3:
		h += uint32(int8(b[2])) << 16
		fallthrough
	case 2:
		h += uint32(int8(b[1])) << 8
		fallthrough
	case 1:
		h += uint32(int8(b[0]))
		h *= m
		h ^= h >> 24
	}
	return h
}

func calculateProbes(bitsPerKey uint32) uint32 {
	// ln(2) * bitsPerKey, rounded down, minimizes the false positive rate.
	k := uint32(float64(bitsPerKey) * 0.69)
	if k < 1 {
		k = 1
	}
	if k > maxProbes {
		k = maxProbes
	}
	return k
}

// appendFilter appends a filter over keys to dst. The layout is a bit array
// followed by one byte holding the probe count.
func appendFilter(dst []byte, keys [][]byte, bitsPerKey uint32) []byte {
	nBits := uint32(len(keys)) * bitsPerKey
	if nBits < minBits {
		nBits = minBits
	}
	nBytes := (nBits + 7) / 8
	nBits = nBytes * 8
	k := calculateProbes(bitsPerKey)

	start := len(dst)
	for i := uint32(0); i < nBytes; i++ {
		dst = append(dst, 0)
	}
	dst = append(dst, byte(k))
	array := dst[start : start+int(nBytes)]

	for _, key := range keys {
		h := hash(key)
		delta := h>>17 | h<<15
		for j := uint32(0); j < k; j++ {
			bitPos := h % nBits
			array[bitPos/8] |= 1 << (bitPos % 8)
			h += delta
		}
	}
	return dst
}

func mayContain(filter []byte, key []byte) bool {
	if len(filter) < 2 {
		return false
	}
	k := uint32(filter[len(filter)-1])
	if k > maxProbes {
		return true
	}
	array := filter[:len(filter)-1]
	nBits := uint32(len(array)) * 8
	h := hash(key)
	delta := h>>17 | h<<15
	for j := uint32(0); j < k; j++ {
		bitPos := h % nBits
		if array[bitPos/8]&(1<<(bitPos%8)) == 0 {
			return false
		}
		h += delta
	}
	return true
}

// Name of the bloom filter policy. This string looks arbitrary, but its
// value is written to LevelDB .sst files, and should be this exact value to
// be compatible with those files and with the C++ LevelDB code.
const Name = "leveldb.BuiltinBloomFilter2"

// FilterPolicy is a base.FilterPolicy that creates bloom filters with the
// given number of bits per key (approximately). A good value is 10, which
// yields a filter with ~1% false positive rate.
//
// The probe count is written into each filter, so filters built with any
// bitsPerKey can be read by a policy constructed with any other value.
func FilterPolicy(bitsPerKey uint32) base.FilterPolicy {
	if bitsPerKey < 1 {
		panic(fmt.Sprintf("invalid bitsPerKey %d", bitsPerKey))
	}
	return filterPolicyImpl{BitsPerKey: bitsPerKey}
}

type filterPolicyImpl struct {
	BitsPerKey uint32
}

var _ base.FilterPolicy = filterPolicyImpl{}

// Name is part of the base.FilterPolicy interface.
func (p filterPolicyImpl) Name() string {
	return Name
}

// CreateFilter is part of the base.FilterPolicy interface.
func (p filterPolicyImpl) CreateFilter(dst []byte, keys [][]byte) []byte {
	return appendFilter(dst, keys, p.BitsPerKey)
}

// KeyMayMatch is part of the base.FilterPolicy interface.
func (p filterPolicyImpl) KeyMayMatch(key, filter []byte) bool {
	return mayContain(filter, key)
}

// String implements fmt.Stringer.
func (p filterPolicyImpl) String() string {
	return fmt.Sprintf("bloom(%d)", p.BitsPerKey)
}

// PolicyFromName returns the policy that reads filters written under the
// given name, or false if the name is not recognized as a bloom filter
// policy. The name "bloom(N)" selects N bits per key for writing.
func PolicyFromName(name string) (_ base.FilterPolicy, ok bool) {
	if name == Name {
		return FilterPolicy(10), true
	}
	var bitsPerKey uint32
	if n, err := fmt.Sscanf(name, "bloom(%d)", &bitsPerKey); err == nil && n == 1 && bitsPerKey >= 1 {
		return FilterPolicy(bitsPerKey), true
	}
	return nil, false
}
