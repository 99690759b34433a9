// Copyright 2019 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func exampleMetrics() Metrics {
	var m Metrics
	for i := range m.Levels {
		l := &m.Levels[i]
		l.NumFiles = int64(i) + 1
		l.Size = uint64(i+1) << 20
		l.NumFileFilters = int64(i)
		l.FileFilterSize = uint64(i) * 100
	}
	m.Flushes = 28
	m.BlockFilter = FilterMetrics{Hits: 3, Misses: 1}
	m.FileFilter = FilterMetrics{Hits: 5, Misses: 2}
	m.TableCache = TableCacheMetrics{Size: 64, Count: 20, Hits: 6, Misses: 2}
	return m
}

func TestMetricsTotal(t *testing.T) {
	m := exampleMetrics()
	total := m.Total()
	require.Equal(t, int64(28), total.NumFiles)
	require.Equal(t, uint64(28)<<20, total.Size)
	require.Equal(t, int64(21), total.NumFileFilters)
	require.Equal(t, uint64(2100), total.FileFilterSize)
}

func TestMetricsString(t *testing.T) {
	m := exampleMetrics()
	lines := strings.Split(strings.TrimSuffix(m.String(), "\n"), "\n")
	require.Len(t, lines, 1+numLevels+1+4)
	require.Equal(t, "level__files____size__ffilters__ffsize", lines[0])

	for level := 0; level < numLevels; level++ {
		l := &m.Levels[level]
		require.Equal(t,
			fmt.Sprintf("%5d %6d %7s %9d %7s", level, l.NumFiles, humanBytes(l.Size),
				l.NumFileFilters, humanBytes(l.FileFilterSize)),
			lines[1+level])
	}
	require.True(t, strings.HasPrefix(lines[1+numLevels], "total     28 "), lines[1+numLevels])
	require.Equal(t, []string{
		"block-filter: 3 hits, 1 misses",
		"file-filter: 5 hits, 2 misses",
		"table-cache: 20 of 64 open, 6 hits, 2 misses",
		"flushes: 28",
	}, lines[2+numLevels:])
}

// gather registers the collector with a fresh registry and returns every
// sample keyed by metric name and label values.
func gather(t *testing.T, collector prometheus.Collector) map[string]float64 {
	t.Helper()
	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(collector))
	families, err := reg.Gather()
	require.NoError(t, err)

	samples := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			var labels []string
			for _, lp := range metric.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(labels)
			key := mf.GetName()
			if len(labels) > 0 {
				key += "{" + strings.Join(labels, ",") + "}"
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				samples[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				samples[key] = metric.GetGauge().GetValue()
			default:
				t.Fatalf("unexpected metric type %s for %s", mf.GetType(), key)
			}
		}
	}
	return samples
}

func TestCatalogCollector(t *testing.T) {
	opts := &Options{
		FS:           vfs.NewMem(),
		Logger:       base.NoopLogger{},
		FilterPolicy: keyListPolicy{},
		FileFilters:  true,
	}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)
	defer c.Close()

	meta, err := c.Flush(makeIter("a", "c"))
	require.NoError(t, err)
	_, err = c.FlushToLevel(2, makeIter("x"))
	require.NoError(t, err)

	// "b" lies within the L0 table's bounds and is ruled out by its file
	// filter. "c" passes the file filter and is found.
	_, err = c.Get([]byte("b"))
	require.ErrorIs(t, err, ErrNotFound)
	_, err = c.Get([]byte("c"))
	require.NoError(t, err)

	samples := gather(t, c.Collector())
	m := c.Metrics()
	require.Equal(t, 1.0, samples[`hyperleveldb_filter_checks_total{filter=file,result=hit}`])
	require.Equal(t, 1.0, samples[`hyperleveldb_filter_checks_total{filter=file,result=miss}`])
	require.Equal(t, float64(m.BlockFilter.Misses), samples[`hyperleveldb_filter_checks_total{filter=block,result=miss}`])
	require.Equal(t, 1.0, samples[`hyperleveldb_level_files{level=0}`])
	require.Equal(t, 0.0, samples[`hyperleveldb_level_files{level=1}`])
	require.Equal(t, 1.0, samples[`hyperleveldb_level_files{level=2}`])
	require.Equal(t, float64(meta.Size), samples[`hyperleveldb_level_bytes{level=0}`])
	require.Equal(t, float64(m.Total().FileFilterSize), samples[`hyperleveldb_file_filter_bytes`])
	require.Equal(t, 0.0, samples[`hyperleveldb_table_cache_lookups_total{result=hit}`])
	require.Equal(t, 1.0, samples[`hyperleveldb_table_cache_lookups_total{result=miss}`])
	require.Equal(t, 2.0, samples[`hyperleveldb_flushes_total`])

	// Four filter series, two series per level for files and bytes, the file
	// filter size, two table cache series and the flush count.
	require.Len(t, samples, 4+2*numLevels+1+2+1)
}

func TestTableBuildLatency(t *testing.T) {
	hist := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "table_build_latency",
		Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
	})
	opts := &Options{
		FS:                vfs.NewMem(),
		Logger:            base.NoopLogger{},
		FilterPolicy:      keyListPolicy{},
		TableBuildLatency: hist,
	}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Flush(makeIter("a", "b"))
	require.NoError(t, err)
	// An empty flush writes no table and is not observed.
	_, err = c.Flush(makeIter())
	require.NoError(t, err)
	_, err = c.Flush(makeIter("c"))
	require.NoError(t, err)

	metric := &dto.Metric{}
	require.NoError(t, hist.Write(metric))
	require.Equal(t, uint64(2), metric.GetHistogram().GetSampleCount())
}
