// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"bytes"
	"fmt"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
	"github.com/prometheus/client_golang/prometheus"
)

// FilterMetrics holds the hit and miss counts of a filter. A hit is a check
// that ruled a key out; a miss is a check that could not.
type FilterMetrics = sstable.FilterMetrics

// LevelMetrics holds per-level metrics such as the number of files and total
// size of the files.
type LevelMetrics struct {
	// The total number of files in the level.
	NumFiles int64
	// The total size in bytes of the files in the level.
	Size uint64
	// The number of files in the level with a file filter.
	NumFileFilters int64
	// The total size in bytes of the level's file filters.
	FileFilterSize uint64
}

// Add updates the metrics for the level.
func (m *LevelMetrics) Add(u *LevelMetrics) {
	m.NumFiles += u.NumFiles
	m.Size += u.Size
	m.NumFileFilters += u.NumFileFilters
	m.FileFilterSize += u.FileFilterSize
}

func (m *LevelMetrics) format(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%6d %7s %9d %7s\n",
		m.NumFiles,
		crhumanize.Bytes(m.Size, crhumanize.Compact, crhumanize.OmitI),
		m.NumFileFilters,
		crhumanize.Bytes(m.FileFilterSize, crhumanize.Compact, crhumanize.OmitI),
	)
}

// Metrics holds metrics for a Catalog.
type Metrics struct {
	Levels [numLevels]LevelMetrics
	// Flushes is the number of tables added by Flush or FlushToLevel.
	Flushes int64
	// BlockFilter counts checks of the tables' filter blocks.
	BlockFilter FilterMetrics
	// FileFilter counts checks of the file filters held in the manifest.
	FileFilter FilterMetrics
	TableCache TableCacheMetrics
}

// Total returns the sum of the per-level metrics.
func (m *Metrics) Total() LevelMetrics {
	var total LevelMetrics
	for level := range m.Levels {
		total.Add(&m.Levels[level])
	}
	return total
}

// String pretty-prints the metrics, showing a line per level and a total
// followed by the filter and table cache counters:
//
//	level__files____size__ffilters__ffsize
//	    0      2   8.1KB         2     40B
//	    1      0      0B         0      0B
//	...
//	total      2   8.1KB         2     40B
//	block-filter: 3 hits, 1 misses
//	file-filter: 5 hits, 2 misses
//	table-cache: 2 of 64 open, 6 hits, 2 misses
//	flushes: 2
func (m *Metrics) String() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "level__files____size__ffilters__ffsize\n")
	for level := range m.Levels {
		fmt.Fprintf(&buf, "%5d ", level)
		m.Levels[level].format(&buf)
	}
	total := m.Total()
	fmt.Fprintf(&buf, "total ")
	total.format(&buf)
	fmt.Fprintf(&buf, "block-filter: %d hits, %d misses\n", m.BlockFilter.Hits, m.BlockFilter.Misses)
	fmt.Fprintf(&buf, "file-filter: %d hits, %d misses\n", m.FileFilter.Hits, m.FileFilter.Misses)
	fmt.Fprintf(&buf, "table-cache: %d of %d open, %d hits, %d misses\n",
		m.TableCache.Count, m.TableCache.Size, m.TableCache.Hits, m.TableCache.Misses)
	fmt.Fprintf(&buf, "flushes: %d\n", m.Flushes)
	return buf.String()
}

// Metrics returns metrics about the catalog.
func (c *Catalog) Metrics() *Metrics {
	m := &Metrics{
		Flushes:     c.flushes.Load(),
		BlockFilter: c.blockFilterMetrics.Load(),
		FileFilter:  c.fileFilterMetrics.Load(),
		TableCache:  c.tableCache.metrics(),
	}
	v := c.Version()
	for level, files := range v.Files {
		l := &m.Levels[level]
		for _, f := range files {
			l.NumFiles++
			l.Size += f.Size
			if f.HasFileFilter {
				l.NumFileFilters++
				l.FileFilterSize += uint64(len(f.FileFilter))
			}
		}
	}
	return m
}

var (
	filterChecksDesc = prometheus.NewDesc(
		"hyperleveldb_filter_checks_total",
		"Number of filter checks, by filter kind and outcome.",
		[]string{"filter", "result"}, nil)
	levelFilesDesc = prometheus.NewDesc(
		"hyperleveldb_level_files",
		"Number of tables in a level.",
		[]string{"level"}, nil)
	levelBytesDesc = prometheus.NewDesc(
		"hyperleveldb_level_bytes",
		"Total size of the tables in a level.",
		[]string{"level"}, nil)
	fileFilterBytesDesc = prometheus.NewDesc(
		"hyperleveldb_file_filter_bytes",
		"Total size of the file filters held in the manifest.",
		nil, nil)
	tableCacheDesc = prometheus.NewDesc(
		"hyperleveldb_table_cache_lookups_total",
		"Number of table reader cache lookups, by outcome.",
		[]string{"result"}, nil)
	flushesDesc = prometheus.NewDesc(
		"hyperleveldb_flushes_total",
		"Number of tables added to the catalog.",
		nil, nil)
)

// Collector returns a prometheus.Collector exporting the catalog's metrics.
func (c *Catalog) Collector() prometheus.Collector {
	return catalogCollector{c: c}
}

type catalogCollector struct {
	c *Catalog
}

var _ prometheus.Collector = catalogCollector{}

// Describe implements prometheus.Collector.
func (cc catalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- filterChecksDesc
	ch <- levelFilesDesc
	ch <- levelBytesDesc
	ch <- fileFilterBytesDesc
	ch <- tableCacheDesc
	ch <- flushesDesc
}

// Collect implements prometheus.Collector.
func (cc catalogCollector) Collect(ch chan<- prometheus.Metric) {
	m := cc.c.Metrics()
	counter := func(desc *prometheus.Desc, v int64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v), labels...)
	}
	gauge := func(desc *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}
	counter(filterChecksDesc, m.BlockFilter.Hits, "block", "hit")
	counter(filterChecksDesc, m.BlockFilter.Misses, "block", "miss")
	counter(filterChecksDesc, m.FileFilter.Hits, "file", "hit")
	counter(filterChecksDesc, m.FileFilter.Misses, "file", "miss")
	for level := range m.Levels {
		l := &m.Levels[level]
		label := fmt.Sprint(level)
		gauge(levelFilesDesc, float64(l.NumFiles), label)
		gauge(levelBytesDesc, float64(l.Size), label)
	}
	gauge(fileFilterBytesDesc, float64(m.Total().FileFilterSize))
	counter(tableCacheDesc, m.TableCache.Hits, "hit")
	counter(tableCacheDesc, m.TableCache.Misses, "miss")
	counter(flushesDesc, m.Flushes)
}
