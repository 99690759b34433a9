// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/crlib/crstrings"
	"github.com/cockroachdb/crlib/testutils/leaktest"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/bloom"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// keyListPolicy is a filter policy whose filters are the length-prefixed
// list of keys. It has no false positives, so filter hit and miss counts are
// predictable.
type keyListPolicy struct{}

func (keyListPolicy) Name() string { return "test.KeyList" }

func (keyListPolicy) CreateFilter(dst []byte, keys [][]byte) []byte {
	for _, k := range keys {
		dst = append(dst, byte(len(k)))
		dst = append(dst, k...)
	}
	return dst
}

func (keyListPolicy) KeyMayMatch(key, filter []byte) bool {
	for len(filter) > 0 {
		n := int(filter[0])
		if n+1 > len(filter) {
			return false
		}
		if bytes.Equal(filter[1:n+1], key) {
			return true
		}
		filter = filter[n+1:]
	}
	return false
}

func describeVersion(c *Catalog) string {
	var buf strings.Builder
	for level, files := range c.Version().Files {
		if len(files) == 0 {
			continue
		}
		fmt.Fprintf(&buf, "L%d:\n", level)
		for _, f := range files {
			fmt.Fprintf(&buf, "  %s %s\n", f.DebugString(base.DefaultFormatter, false), describeFileFilter(f))
		}
	}
	return buf.String()
}

func describeFileFilter(f *FileMetadata) string {
	if !f.HasFileFilter {
		return "file-filter:none"
	}
	return fmt.Sprintf("file-filter:%d", len(f.FileFilter))
}

func TestCatalog(t *testing.T) {
	defer leaktest.AfterTest(t)()

	fs := vfs.NewMem()
	var c *Catalog
	defer func() {
		if c != nil {
			require.NoError(t, c.Close())
		}
	}()

	datadriven.RunTest(t, "testdata/catalog", func(t *testing.T, td *datadriven.TestData) string {
		switch td.Cmd {
		case "open":
			if c != nil {
				require.NoError(t, c.Close())
				c = nil
			}
			opts := &Options{
				FS:           fs,
				Logger:       base.NoopLogger{},
				FilterPolicy: keyListPolicy{},
				FileFilters:  td.HasArg("file-filters"),
			}
			td.MaybeScanArgs(t, "cache-size", &opts.TableCacheSize)
			var err error
			if c, err = OpenCatalog("db", opts); err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return "ok"

		case "flush":
			level := 0
			td.MaybeScanArgs(t, "level", &level)
			var kvs []base.InternalKV
			for _, line := range crstrings.Lines(td.Input) {
				key, value, ok := strings.Cut(line, " ")
				if !ok {
					value = "v-" + key
				}
				kvs = append(kvs, base.InternalKV{K: []byte(key), V: []byte(value)})
			}
			meta, err := c.FlushToLevel(level, base.NewSliceIter(kvs))
			if err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			if meta.Size == 0 {
				return "no table"
			}
			return fmt.Sprintf("%s: L%d [%s-%s] %s\n",
				meta.FileNum, level, meta.Smallest, meta.Largest, describeFileFilter(meta))

		case "get":
			var buf strings.Builder
			for _, key := range crstrings.Lines(td.Input) {
				v, err := c.Get([]byte(key))
				switch {
				case errors.Is(err, ErrNotFound):
					fmt.Fprintf(&buf, "%s: not found\n", key)
				case err != nil:
					fmt.Fprintf(&buf, "%s: error: %v\n", key, err)
				default:
					fmt.Fprintf(&buf, "%s: %s\n", key, v)
				}
			}
			return buf.String()

		case "delete":
			var fileNum int
			td.ScanArgs(t, "file", &fileNum)
			if err := c.DeleteTable(FileNum(fileNum)); err != nil {
				return fmt.Sprintf("error: %v", err)
			}
			return "ok"

		case "version":
			return describeVersion(c)

		case "list":
			ls, err := fs.List("db")
			require.NoError(t, err)
			slices.Sort(ls)
			return strings.Join(ls, "\n") + "\n"

		case "metrics":
			m := c.Metrics()
			var buf strings.Builder
			fmt.Fprintf(&buf, "block-filter: %d hits, %d misses\n", m.BlockFilter.Hits, m.BlockFilter.Misses)
			fmt.Fprintf(&buf, "file-filter: %d hits, %d misses\n", m.FileFilter.Hits, m.FileFilter.Misses)
			fmt.Fprintf(&buf, "table-cache: %d open, %d hits, %d misses\n",
				m.TableCache.Count, m.TableCache.Hits, m.TableCache.Misses)
			fmt.Fprintf(&buf, "flushes: %d\n", m.Flushes)
			return buf.String()

		default:
			td.Fatalf(t, "unknown command: %s", td.Cmd)
			return ""
		}
	})
}

func TestCatalogConcurrentGet(t *testing.T) {
	defer leaktest.AfterTest(t)()

	opts := &Options{
		FS:             vfs.NewMem(),
		Logger:         base.NoopLogger{},
		FilterPolicy:   bloom.FilterPolicy(10),
		FileFilters:    true,
		BlockSize:      128,
		TableCacheSize: 2,
	}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)

	// Each table holds a disjoint interleaving of the keys, so every lookup
	// has to pass the file filters of the other tables.
	const numTables = 4
	const numKeys = 400
	for i := 0; i < numTables; i++ {
		var kvs []base.InternalKV
		for j := i; j < numKeys; j += numTables {
			k := fmt.Sprintf("key%06d", j)
			kvs = append(kvs, base.InternalKV{K: []byte(k), V: []byte(strconv.Itoa(j))})
		}
		meta, err := c.Flush(base.NewSliceIter(kvs))
		require.NoError(t, err)
		require.True(t, meta.HasFileFilter)
	}

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for j := 0; j < numKeys; j++ {
				v, err := c.Get([]byte(fmt.Sprintf("key%06d", j)))
				if err != nil {
					return err
				}
				if string(v) != strconv.Itoa(j) {
					return errors.Errorf("key %d: got %q", j, v)
				}
				if _, err := c.Get([]byte(fmt.Sprintf("key%06d.missing", j))); !errors.Is(err, ErrNotFound) {
					return errors.Errorf("key %d.missing: got %v", j, err)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	m := c.Metrics()
	require.Equal(t, int64(numTables), m.Flushes)
	require.Equal(t, int64(numTables), m.Levels[0].NumFileFilters)
	require.LessOrEqual(t, m.TableCache.Count, int64(2))
	// Most lookups are answered by the file filters without opening a table.
	require.Greater(t, m.FileFilter.Hits, m.FileFilter.Misses)
	require.NoError(t, c.Close())
}

func TestCatalogReopen(t *testing.T) {
	fs := vfs.NewMem()
	opts := &Options{
		FS:           fs,
		Logger:       base.NoopLogger{},
		FilterPolicy: bloom.FilterPolicy(10),
		FileFilters:  true,
	}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)
	meta, err := c.Flush(makeIter("a", "b", "c"))
	require.NoError(t, err)
	before := c.Version().String()
	require.NoError(t, c.Close())

	// The file filter is recovered from the manifest.
	c, err = OpenCatalog("db", opts)
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, before, c.Version().String())
	recovered := c.Version().Files[0][0]
	require.Equal(t, meta.FileFilter, recovered.FileFilter)
	require.True(t, recovered.HasFileFilter)

	v, err := c.Get([]byte("b"))
	require.NoError(t, err)
	require.Equal(t, "v-b", string(v))

	// The OPTIONS file can be parsed back.
	ls, err := fs.List("db")
	require.NoError(t, err)
	var optionsFiles int
	for _, name := range ls {
		if fileType, _, ok := base.ParseFilename(fs, name); ok && fileType == base.FileTypeOptions {
			optionsFiles++
			data, err := vfs.ReadFile(fs, fs.PathJoin("db", name))
			require.NoError(t, err)
			var parsed Options
			require.NoError(t, parsed.Parse(string(data), nil))
			require.True(t, parsed.FileFilters)
		}
	}
	require.Equal(t, 1, optionsFiles)
}

func TestCatalogReopenFilterPolicyChange(t *testing.T) {
	fs := vfs.NewMem()
	c, err := OpenCatalog("db", &Options{
		FS:           fs,
		Logger:       base.NoopLogger{},
		FilterPolicy: keyListPolicy{},
		FileFilters:  true,
	})
	require.NoError(t, err)
	meta, err := c.Flush(makeIter("a", "b", "c\x02"))
	require.NoError(t, err)
	require.Equal(t, keyListPolicy{}.Name(), meta.FileFilterPolicy)
	require.NoError(t, c.Close())

	keys := []string{"a", "b", "c\x02"}

	// The file filter was built by a policy the reopened catalog does not
	// know, so it is not consulted and every key is still found.
	c, err = OpenCatalog("db", &Options{
		FS:           fs,
		Logger:       base.NoopLogger{},
		FilterPolicy: bloom.FilterPolicy(10),
		FileFilters:  true,
	})
	require.NoError(t, err)
	recovered := c.Version().Files[0][0]
	require.True(t, recovered.HasFileFilter)
	require.Equal(t, keyListPolicy{}.Name(), recovered.FileFilterPolicy)
	for _, k := range keys {
		v, err := c.Get([]byte(k))
		require.NoError(t, err, "%q", k)
		require.Equal(t, "v-"+k, string(v))
	}
	_, err = c.Get([]byte("bb"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, FilterMetrics{}, c.Metrics().FileFilter)
	require.NoError(t, c.Close())

	// Registering the original policy makes the file filter usable again.
	c, err = OpenCatalog("db", &Options{
		FS:           fs,
		Logger:       base.NoopLogger{},
		FilterPolicy: bloom.FilterPolicy(10),
		Filters:      map[string]FilterPolicy{keyListPolicy{}.Name(): keyListPolicy{}},
	})
	require.NoError(t, err)
	defer c.Close()
	for _, k := range keys {
		v, err := c.Get([]byte(k))
		require.NoError(t, err, "%q", k)
		require.Equal(t, "v-"+k, string(v))
	}
	_, err = c.Get([]byte("bb"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, FilterMetrics{Hits: 1, Misses: 3}, c.Metrics().FileFilter)
}

func TestCatalogRemovesOrphanedTables(t *testing.T) {
	fs := vfs.NewMem()
	var logger base.InMemLogger
	opts := &Options{FS: fs, Logger: &logger}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	orphan := base.MakeFilepath(fs, "db", base.FileTypeTable, 100)
	require.NoError(t, vfs.WriteFile(fs, orphan, []byte("orphan")))
	logger.Reset()

	c, err = OpenCatalog("db", opts)
	require.NoError(t, err)
	defer c.Close()
	_, err = fs.Stat(orphan)
	require.Error(t, err)
	require.Contains(t, logger.String(), "table 000100 deleted")
}

func TestCatalogCorruptManifest(t *testing.T) {
	fs := vfs.NewMem()
	opts := &Options{FS: fs, Logger: base.NoopLogger{}}
	c, err := OpenCatalog("db", opts)
	require.NoError(t, err)
	_, err = c.Flush(makeIter("a"))
	require.NoError(t, err)
	require.NoError(t, c.Close())

	current, err := vfs.ReadFile(fs, base.MakeFilepath(fs, "db", base.FileTypeCurrent, 0))
	require.NoError(t, err)
	manifestPath := fs.PathJoin("db", strings.TrimSpace(string(current)))
	data, err := vfs.ReadFile(fs, manifestPath)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, vfs.WriteFile(fs, manifestPath, data))

	_, err = OpenCatalog("db", opts)
	require.Error(t, err)
	require.True(t, IsCorruptionError(err), "%+v", err)
}

func TestCatalogComparerMismatch(t *testing.T) {
	fs := vfs.NewMem()
	c, err := OpenCatalog("db", &Options{FS: fs, Logger: base.NoopLogger{}})
	require.NoError(t, err)
	require.NoError(t, c.Close())

	cmp := *DefaultComparer
	cmp.Name = "test.other-comparer"
	_, err = OpenCatalog("db", &Options{FS: fs, Logger: base.NoopLogger{}, Comparer: &cmp})
	require.ErrorContains(t, err, `comparer name from file "leveldb.BytewiseComparator" != comparer name from Options "test.other-comparer"`)
}

func TestCatalogClosed(t *testing.T) {
	c, err := OpenCatalog("db", &Options{FS: vfs.NewMem(), Logger: base.NoopLogger{}})
	require.NoError(t, err)
	require.NoError(t, c.Close())
	require.ErrorIs(t, c.Close(), ErrClosed)
	_, err = c.Get([]byte("a"))
	require.ErrorIs(t, err, ErrClosed)
	_, err = c.Flush(makeIter("a"))
	require.ErrorIs(t, err, ErrClosed)
	require.ErrorIs(t, c.DeleteTable(1), ErrClosed)
}

func TestCatalogInvalidOptions(t *testing.T) {
	_, err := OpenCatalog("db", &Options{FS: vfs.NewMem(), FileFilters: true})
	require.ErrorContains(t, err, "FileFilters requires a FilterPolicy")

	c, err := OpenCatalog("db", &Options{FS: vfs.NewMem(), Logger: base.NoopLogger{}})
	require.NoError(t, err)
	defer c.Close()
	_, err = c.FlushToLevel(numLevels, makeIter("a"))
	require.ErrorContains(t, err, "invalid level 7")
}
