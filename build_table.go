// Copyright 2012 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/jayashreemohan29/HyperLevelDB/internal/manifest"
	"github.com/jayashreemohan29/HyperLevelDB/sstable"
)

// BuildTable writes the key/value pairs produced by iter to a new table in
// dirname, named after meta.FileNum, and fills in the rest of meta.
//
// The table's writer maintains the per-block filters. If fileFilter is
// non-nil every key is also added to it, and the filter it generates is
// stored in meta as the table's file filter. If iter produces no pairs no
// file is created and meta.Size is zero.
//
// On failure the partially written file is removed. The iterator is closed
// in all cases, including when opts fail validation.
func BuildTable(
	dirname string,
	opts *Options,
	iter InternalIterator,
	meta *manifest.FileMetadata,
	fileFilter *sstable.FileFilterWriter,
) error {
	opts = opts.Clone().EnsureDefaults()
	if err := opts.Validate(); err != nil {
		_ = iter.Close()
		return err
	}
	_, err := buildTable(0, "building", dirname, opts, iter, meta, fileFilter)
	return err
}

// buildTable implements BuildTable. opts must have had EnsureDefaults
// called. It returns the table's properties.
func buildTable(
	jobID int,
	reason string,
	dirname string,
	opts *Options,
	iter InternalIterator,
	meta *manifest.FileMetadata,
	fileFilter *sstable.FileFilterWriter,
) (props sstable.Properties, err error) {
	start := time.Now()
	meta.Size = 0
	meta.ClearFileFilter()

	kv := iter.First()
	if kv == nil {
		err = firstError(iter.Error(), iter.Close())
		opts.EventListener.TableBuilt(TableBuildInfo{
			JobID:    jobID,
			FileNum:  meta.FileNum,
			Duration: time.Since(start),
			Err:      err,
		})
		return props, err
	}

	fs := opts.FS
	path := base.MakeFilepath(fs, dirname, base.FileTypeTable, meta.FileNum)
	f, err := fs.Create(path)
	if err != nil {
		_ = iter.Close()
		return props, errors.Wrapf(err, "hyperleveldb: creating table %s", meta.FileNum)
	}
	opts.EventListener.TableCreated(TableCreateInfo{
		JobID:   jobID,
		Reason:  reason,
		Path:    path,
		FileNum: meta.FileNum,
	})

	defer func() {
		if err == nil {
			return
		}
		meta.Size = 0
		meta.ClearFileFilter()
		if fileFilter != nil {
			fileFilter.Clear()
		}
		removeErr := fs.Remove(path)
		opts.EventListener.TableDeleted(TableDeleteInfo{
			JobID:   jobID,
			Path:    path,
			FileNum: meta.FileNum,
			Err:     removeErr,
		})
		if removeErr != nil {
			opts.EventListener.BackgroundError(removeErr)
		}
	}()

	w := sstable.NewWriter(f, opts.MakeWriterOptions())
	for ; kv != nil; kv = iter.Next() {
		if err = w.Add(kv.K, kv.V); err != nil {
			break
		}
		if fileFilter != nil {
			fileFilter.AddKey(kv.K)
		}
	}
	if err == nil {
		err = iter.Error()
	}
	err = firstError(err, iter.Close())
	if err != nil {
		// Closing the writer releases the file; the build error takes
		// precedence over any close error.
		_ = w.Close()
		opts.EventListener.TableBuilt(TableBuildInfo{JobID: jobID, FileNum: meta.FileNum, Err: err})
		return props, err
	}
	if err = w.Close(); err != nil {
		opts.EventListener.TableBuilt(TableBuildInfo{JobID: jobID, FileNum: meta.FileNum, Err: err})
		return props, err
	}
	wm, err := w.Metadata()
	if err == nil {
		err = syncDir(opts, dirname)
	}
	if err != nil {
		opts.EventListener.TableBuilt(TableBuildInfo{JobID: jobID, FileNum: meta.FileNum, Err: err})
		return props, err
	}

	meta.Size = wm.Size
	meta.Smallest = wm.Smallest
	meta.Largest = wm.Largest
	if fileFilter != nil {
		if filter, ok := fileFilter.Generate(); ok {
			meta.SetFileFilter(filter)
			meta.FileFilterPolicy = fileFilter.Policy().Name()
		}
	}

	duration := time.Since(start)
	if opts.TableBuildLatency != nil {
		opts.TableBuildLatency.Observe(duration.Seconds())
	}
	opts.EventListener.TableBuilt(TableBuildInfo{
		JobID:          jobID,
		FileNum:        meta.FileNum,
		Size:           meta.Size,
		NumEntries:     wm.Properties.NumEntries,
		NumFilters:     wm.Properties.NumFilters,
		FilterSize:     wm.Properties.FilterSize,
		FileFilterSize: uint64(len(meta.FileFilter)),
		HasFileFilter:  meta.HasFileFilter,
		Duration:       duration,
	})
	return wm.Properties, nil
}

// syncDir syncs the directory so that newly created files are durable.
func syncDir(opts *Options, dirname string) error {
	d, err := opts.FS.OpenDir(dirname)
	if err != nil {
		return errors.Wrapf(err, "hyperleveldb: opening directory %q", dirname)
	}
	return firstError(d.Sync(), d.Close())
}

func firstError(err0, err1 error) error {
	if err0 != nil {
		return err0
	}
	return err1
}
