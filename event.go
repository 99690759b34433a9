// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"time"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/redact"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
)

// TableCreateInfo contains the info for a table creation event.
type TableCreateInfo struct {
	JobID int
	// Reason is the reason for the table creation: "flushing" or "building".
	Reason  string
	Path    string
	FileNum base.FileNum
}

func (i TableCreateInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i TableCreateInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("[JOB %d] %s: sstable created %s", redact.Safe(i.JobID), redact.Safe(i.Reason), i.FileNum)
}

// TableBuildInfo contains the info for a finished table build.
type TableBuildInfo struct {
	JobID   int
	FileNum base.FileNum
	// Size is the size of the table in bytes; zero if no table was written
	// because the input was empty.
	Size       uint64
	NumEntries uint64
	// NumFilters and FilterSize describe the table's filter block.
	NumFilters uint64
	FilterSize uint64
	// FileFilterSize is the size of the file-level filter, if one was
	// generated.
	FileFilterSize uint64
	HasFileFilter  bool
	Duration       time.Duration
	Err            error
}

func (i TableBuildInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i TableBuildInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("[JOB %d] table %s build error: %s", redact.Safe(i.JobID), i.FileNum, i.Err)
		return
	}
	if i.Size == 0 {
		w.Printf("[JOB %d] table %s not written: no entries", redact.Safe(i.JobID), i.FileNum)
		return
	}
	w.Printf("[JOB %d] table %s built: %s, %s keys, %d filters (%s)",
		redact.Safe(i.JobID), i.FileNum,
		crhumanize.Bytes(i.Size, crhumanize.Compact, crhumanize.OmitI),
		crhumanize.Count(i.NumEntries, crhumanize.Compact),
		redact.Safe(i.NumFilters),
		crhumanize.Bytes(i.FilterSize, crhumanize.Compact, crhumanize.OmitI))
	if i.HasFileFilter {
		w.Printf(", file filter %s", crhumanize.Bytes(i.FileFilterSize, crhumanize.Compact, crhumanize.OmitI))
	}
	w.Printf(" in %.1fs", redact.Safe(i.Duration.Seconds()))
}

// TableDeleteInfo contains the info for a table deletion event.
type TableDeleteInfo struct {
	JobID   int
	Path    string
	FileNum base.FileNum
	Err     error
}

func (i TableDeleteInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i TableDeleteInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("[JOB %d] table %s delete error: %s", redact.Safe(i.JobID), i.FileNum, i.Err)
		return
	}
	w.Printf("[JOB %d] table %s deleted", redact.Safe(i.JobID), i.FileNum)
}

// ManifestCreateInfo contains info about a manifest creation event.
type ManifestCreateInfo struct {
	JobID   int
	Path    string
	FileNum base.FileNum
	Err     error
}

func (i ManifestCreateInfo) String() string {
	return redact.StringWithoutMarkers(i)
}

// SafeFormat implements redact.SafeFormatter.
func (i ManifestCreateInfo) SafeFormat(w redact.SafePrinter, _ rune) {
	if i.Err != nil {
		w.Printf("[JOB %d] MANIFEST create error: %s", redact.Safe(i.JobID), i.Err)
		return
	}
	w.Printf("[JOB %d] MANIFEST created %s", redact.Safe(i.JobID), i.FileNum)
}

// EventListener contains a set of functions that will be invoked when
// various significant catalog events occur. Note that the functions should
// not run for an excessive amount of time as they are invoked synchronously.
type EventListener struct {
	// BackgroundError is invoked whenever an error occurs that is not
	// returned to a caller, such as a failure to remove a partially written
	// table.
	BackgroundError func(error)

	// ManifestCreated is invoked after a manifest has been created.
	ManifestCreated func(ManifestCreateInfo)

	// TableBuilt is invoked when a table build finishes, successfully or
	// not.
	TableBuilt func(TableBuildInfo)

	// TableCreated is invoked when a table file is created.
	TableCreated func(TableCreateInfo)

	// TableDeleted is invoked after a table has been deleted.
	TableDeleted func(TableDeleteInfo)
}

// EnsureDefaults ensures that background error events are logged to the
// specified logger if a handler for those events hasn't been otherwise
// specified. Ensure all handlers are non-nil so that we don't have to check
// for nil-ness before invoking.
func (l *EventListener) EnsureDefaults(logger Logger) {
	if l.BackgroundError == nil {
		if logger != nil {
			l.BackgroundError = func(err error) {
				logger.Errorf("background error: %s", err)
			}
		} else {
			l.BackgroundError = func(error) {}
		}
	}
	if l.ManifestCreated == nil {
		l.ManifestCreated = func(ManifestCreateInfo) {}
	}
	if l.TableBuilt == nil {
		l.TableBuilt = func(TableBuildInfo) {}
	}
	if l.TableCreated == nil {
		l.TableCreated = func(TableCreateInfo) {}
	}
	if l.TableDeleted == nil {
		l.TableDeleted = func(TableDeleteInfo) {}
	}
}

// MakeLoggingEventListener creates an EventListener that logs all events to
// the specified logger.
func MakeLoggingEventListener(logger Logger) EventListener {
	if logger == nil {
		logger = DefaultLogger
	}
	return EventListener{
		BackgroundError: func(err error) {
			logger.Errorf("background error: %s", err)
		},
		ManifestCreated: func(info ManifestCreateInfo) {
			logger.Infof("%s", info)
		},
		TableBuilt: func(info TableBuildInfo) {
			logger.Infof("%s", info)
		},
		TableCreated: func(info TableCreateInfo) {
			logger.Infof("%s", info)
		},
		TableDeleted: func(info TableDeleteInfo) {
			logger.Infof("%s", info)
		},
	}
}

// TeeEventListener wraps two EventListeners, forwarding all events to both.
func TeeEventListener(a, b EventListener) EventListener {
	a.EnsureDefaults(nil)
	b.EnsureDefaults(nil)
	return EventListener{
		BackgroundError: func(err error) {
			a.BackgroundError(err)
			b.BackgroundError(err)
		},
		ManifestCreated: func(info ManifestCreateInfo) {
			a.ManifestCreated(info)
			b.ManifestCreated(info)
		},
		TableBuilt: func(info TableBuildInfo) {
			a.TableBuilt(info)
			b.TableBuilt(info)
		},
		TableCreated: func(info TableCreateInfo) {
			a.TableCreated(info)
			b.TableCreated(info)
		},
		TableDeleted: func(info TableDeleteInfo) {
			a.TableDeleted(info)
			b.TableDeleted(info)
		},
	}
}
