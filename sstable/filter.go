// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package sstable

import "sync/atomic"

// FilterMetrics holds metrics for the filter policy.
type FilterMetrics struct {
	// The number of hits for the filter policy. This is the number of times
	// the filter policy was successfully used to avoid access of a data block.
	Hits int64
	// The number of misses for the filter policy. This is the number of times
	// the filter policy was checked but was unable to filter an access of a
	// data block.
	Misses int64
}

// FilterMetricsTracker is used to keep track of filter metrics. It contains
// the same metrics as FilterMetrics, but they can be updated atomically. An
// instance of FilterMetricsTracker can be passed to a Reader as a
// ReaderOption.
type FilterMetricsTracker struct {
	// See FilterMetrics.Hits.
	hits atomic.Int64
	// See FilterMetrics.Misses.
	misses atomic.Int64
}

// Load returns the current values as FilterMetrics.
func (m *FilterMetricsTracker) Load() FilterMetrics {
	return FilterMetrics{
		Hits:   m.hits.Load(),
		Misses: m.misses.Load(),
	}
}

// Record counts the outcome of a filter check: a hit when the filter ruled
// the key out, a miss otherwise. A nil tracker ignores the call.
func (m *FilterMetricsTracker) Record(mayContain bool) {
	if m == nil {
		return
	}
	if mayContain {
		m.misses.Add(1)
	} else {
		m.hits.Add(1)
	}
}

// blockFilterReader wraps a FilterBlockReader with metrics.
type blockFilterReader struct {
	r       *FilterBlockReader
	metrics *FilterMetricsTracker
}

func (f *blockFilterReader) mayContain(blockOffset uint64, key []byte) bool {
	mayContain := f.r.KeyMayMatch(blockOffset, key)
	f.metrics.Record(mayContain)
	return mayContain
}
