// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

// FilterPolicy is an algorithm for probabilistically encoding a set of keys.
// The canonical implementation is a Bloom filter.
//
// Every FilterPolicy has a name. This names the algorithm itself, not any one
// particular instance. Aspects specific to a particular instance, such as the
// set of keys or any other parameters, are encoded in the filter bytes
// returned by CreateFilter.
//
// The name is written to table files on disk, along with the filter data. To
// use these filters, the FilterPolicy name at the time of writing must equal
// the name at the time of reading. If they do not match, the filters are
// ignored, which does not affect correctness but may affect performance.
//
// A FilterPolicy must be safe for concurrent use: a single instance is shared
// by every filter builder and reader in the process.
type FilterPolicy interface {
	// Name names the filter policy.
	Name() string

	// CreateFilter appends to dst a filter that encodes the given keys and
	// returns the extended slice. The keys may contain duplicates.
	CreateFilter(dst []byte, keys [][]byte) []byte

	// KeyMayMatch returns whether the encoded filter may contain key. It must
	// return true for every key passed to the CreateFilter call that produced
	// filter. False positives are possible.
	KeyMayMatch(key, filter []byte) bool
}

// FilterPolicyName returns the name of p, or "none" if p is nil.
func FilterPolicyName(p FilterPolicy) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}
