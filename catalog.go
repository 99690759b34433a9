// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/oserror"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
	"github.com/jayashreemohan29/HyperLevelDB/vfs"
)

// ErrClosed is returned when an operation is performed on a closed catalog.
var ErrClosed = errors.New("hyperleveldb: closed")

// Catalog is a directory of tables organized into levels, described by a
// manifest. Tables are added with Flush and read with Get. Get consults each
// candidate table's file filter, recorded in the manifest, before opening
// the table, and the table's block filters before reading a data block.
//
// A Catalog is safe for concurrent use.
type Catalog struct {
	dirname string
	opts    *Options
	cmp     base.Compare

	tableCache tableCache

	// blockFilterMetrics is shared by every table reader.
	blockFilterMetrics sstable.FilterMetricsTracker
	fileFilterMetrics  sstable.FilterMetricsTracker

	flushes atomic.Int64
	closed  atomic.Bool

	mu struct {
		sync.Mutex
		versions  versionSet
		nextJobID int
	}
}

// OpenCatalog opens the catalog in dirname, creating it if it does not
// exist. The manifest is replayed and tables not referenced by it are
// removed.
func OpenCatalog(dirname string, opts *Options) (_ *Catalog, err error) {
	opts = opts.Clone().EnsureDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Catalog{
		dirname: dirname,
		opts:    opts,
		cmp:     opts.Comparer.Compare,
	}
	readerOpts := opts.MakeReaderOptions()
	readerOpts.FilterMetrics = &c.blockFilterMetrics
	c.tableCache.init(dirname, opts.FS, readerOpts, opts.TableCacheSize)

	if err := opts.FS.MkdirAll(dirname, 0755); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	jobID := c.newJobIDLocked()
	vs := &c.mu.versions
	currentPath := base.MakeFilepath(opts.FS, dirname, base.FileTypeCurrent, 0)
	_, err = opts.FS.Stat(currentPath)
	switch {
	case oserror.IsNotExist(err):
		err = vs.create(jobID, dirname, opts)
	case err == nil:
		err = vs.load(jobID, dirname, opts)
	}
	if err != nil {
		_ = vs.close()
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = vs.close()
		}
	}()

	optionsFileNum := vs.getNextFileNum()
	optionsPath := base.MakeFilepath(opts.FS, dirname, base.FileTypeOptions, optionsFileNum)
	tmpPath := base.MakeFilepath(opts.FS, dirname, base.FileTypeTemp, optionsFileNum)
	if err := vfs.WriteFile(opts.FS, tmpPath, []byte(opts.String())); err != nil {
		return nil, err
	}
	if err := opts.FS.Rename(tmpPath, optionsPath); err != nil {
		return nil, err
	}
	if err := syncDir(opts, dirname); err != nil {
		return nil, err
	}

	c.deleteObsoleteFilesLocked(jobID, optionsFileNum)
	return c, nil
}

// deleteObsoleteFilesLocked removes tables not referenced by the current
// version along with stale manifest, OPTIONS and temporary files. Failures
// are reported to the event listener. c.mu must be held.
func (c *Catalog) deleteObsoleteFilesLocked(jobID int, optionsFileNum base.FileNum) {
	fs := c.opts.FS
	vs := &c.mu.versions
	list, err := fs.List(c.dirname)
	if err != nil {
		c.opts.EventListener.BackgroundError(err)
		return
	}
	live := vs.liveTables()
	for _, filename := range list {
		fileType, fileNum, ok := base.ParseFilename(fs, filename)
		if !ok {
			continue
		}
		var obsolete bool
		switch fileType {
		case base.FileTypeTable:
			_, isLive := live[fileNum]
			obsolete = !isLive
		case base.FileTypeManifest:
			obsolete = fileNum != vs.manifestFileNum
		case base.FileTypeOptions:
			obsolete = fileNum != optionsFileNum
		case base.FileTypeTemp:
			obsolete = true
		}
		if !obsolete {
			continue
		}
		path := fs.PathJoin(c.dirname, filename)
		err := fs.Remove(path)
		if fileType == base.FileTypeTable {
			c.opts.EventListener.TableDeleted(TableDeleteInfo{
				JobID:   jobID,
				Path:    path,
				FileNum: fileNum,
				Err:     err,
			})
		}
		if err != nil && !oserror.IsNotExist(err) {
			c.opts.EventListener.BackgroundError(err)
		}
	}
}

func (c *Catalog) newJobIDLocked() int {
	c.mu.nextJobID++
	return c.mu.nextJobID
}

// Flush builds a level 0 table from the key/value pairs produced by iter and
// adds it to the catalog. See FlushToLevel.
func (c *Catalog) Flush(iter InternalIterator) (*FileMetadata, error) {
	return c.FlushToLevel(0, iter)
}

// FlushToLevel builds a table from the key/value pairs produced by iter,
// which must be in increasing key order, and adds it to the given level.
// Tables in levels above 0 must not overlap other tables in the same level.
//
// The table's per-block filters are always built when a filter policy is
// configured; a file filter is also built when Options.FileFilters is set.
// If iter produces no pairs no table is created and the catalog is left
// unchanged; the returned metadata has a zero Size. The iterator is closed
// in all cases.
func (c *Catalog) FlushToLevel(level int, iter InternalIterator) (*FileMetadata, error) {
	if level < 0 || level >= numLevels {
		_ = iter.Close()
		return nil, errors.Errorf("hyperleveldb: invalid level %d", errors.Safe(level))
	}
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		_ = iter.Close()
		return nil, ErrClosed
	}
	jobID := c.newJobIDLocked()
	meta := &manifest.FileMetadata{FileNum: c.mu.versions.getNextFileNum()}
	c.mu.Unlock()

	var fileFilter *sstable.FileFilterWriter
	if c.opts.FileFilters {
		fileFilter = sstable.NewFileFilterWriter(c.opts.FilterPolicy)
		defer fileFilter.Release()
	}
	if _, err := buildTable(jobID, "flushing", c.dirname, c.opts, iter, meta, fileFilter); err != nil {
		return nil, err
	}
	if meta.Size == 0 {
		return meta, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		c.removeTableLocked(jobID, meta.FileNum)
		return nil, ErrClosed
	}
	err := c.mu.versions.logAndApply(&manifest.VersionEdit{
		NewFiles: []manifest.NewFileEntry{{Level: level, Meta: meta}},
	})
	if err != nil {
		// The table is not referenced by the manifest, so it is removed.
		c.removeTableLocked(jobID, meta.FileNum)
		return nil, err
	}
	c.flushes.Add(1)
	return meta, nil
}

// DeleteTable removes the table with the given file number from the catalog
// and deletes its file.
func (c *Catalog) DeleteTable(fileNum FileNum) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	vs := &c.mu.versions
	level := -1
	for l, files := range vs.current.Files {
		for _, f := range files {
			if f.FileNum == fileNum {
				level = l
			}
		}
	}
	if level < 0 {
		return errors.Errorf("hyperleveldb: table %s not found", fileNum)
	}
	ve := &manifest.VersionEdit{
		DeletedFiles: map[manifest.DeletedFileEntry]bool{
			{Level: level, FileNum: fileNum}: true,
		},
	}
	if err := vs.logAndApply(ve); err != nil {
		return err
	}
	c.removeTableLocked(c.newJobIDLocked(), fileNum)
	return nil
}

// removeTableLocked evicts the table's reader and removes its file. Errors
// are reported to the event listener.
func (c *Catalog) removeTableLocked(jobID int, fileNum base.FileNum) {
	c.tableCache.evict(fileNum)
	path := base.MakeFilepath(c.opts.FS, c.dirname, base.FileTypeTable, fileNum)
	err := c.opts.FS.Remove(path)
	c.opts.EventListener.TableDeleted(TableDeleteInfo{
		JobID:   jobID,
		Path:    path,
		FileNum: fileNum,
		Err:     err,
	})
	if err != nil {
		c.opts.EventListener.BackgroundError(err)
	}
}

// Get returns the value for the given key. It returns ErrNotFound if no
// table contains the key. Level 0 tables are searched newest first, followed
// by the tables of each higher level.
func (c *Catalog) Get(key []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	v := c.Version()

	l0 := v.Files[0]
	for i := len(l0) - 1; i >= 0; i-- {
		value, err := c.getFromTable(l0[i], key)
		if !errors.Is(err, ErrNotFound) {
			return value, err
		}
	}
	for level := 1; level < numLevels; level++ {
		files := v.Files[level]
		i := sort.Search(len(files), func(i int) bool {
			return c.cmp(files[i].Largest, key) >= 0
		})
		if i == len(files) {
			continue
		}
		value, err := c.getFromTable(files[i], key)
		if !errors.Is(err, ErrNotFound) {
			return value, err
		}
	}
	return nil, ErrNotFound
}

// getFromTable looks up key in a single table. A table whose key range
// excludes key, or whose file filter rules key out, is not opened. A file
// filter built by a policy missing from Options.Filters is ignored.
func (c *Catalog) getFromTable(f *manifest.FileMetadata, key []byte) ([]byte, error) {
	if !f.ContainsKey(c.cmp, key) {
		return nil, ErrNotFound
	}
	if policy := c.opts.Filters[f.FileFilterPolicy]; f.HasFileFilter && policy != nil {
		mayContain := policy.KeyMayMatch(key, f.FileFilter)
		c.fileFilterMetrics.Record(mayContain)
		if !mayContain {
			return nil, ErrNotFound
		}
	}
	return c.tableCache.get(f, key)
}

// Version returns the current version. The returned version must not be
// modified.
func (c *Catalog) Version() *manifest.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mu.versions.current
}

// Close closes the catalog. Any in-progress Get calls must have returned.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Swap(true) {
		return ErrClosed
	}
	return firstError(c.tableCache.Close(), c.mu.versions.close())
}
