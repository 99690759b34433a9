// Copyright 2018 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package hyperleveldb

import (
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/crlib/crhumanize"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/jayashreemohan29/HyperLevelDB/internal/base"
	"github.com/stretchr/testify/require"
)

func humanBytes(n uint64) string {
	return string(crhumanize.Bytes(n, crhumanize.Compact, crhumanize.OmitI))
}

func TestEventFormat(t *testing.T) {
	testCases := []struct {
		info     redact.SafeFormatter
		expected string
	}{
		{
			TableCreateInfo{JobID: 2, Reason: "flushing", Path: "db/000005.sst", FileNum: 5},
			"[JOB 2] flushing: sstable created 000005",
		},
		{
			TableBuildInfo{
				JobID:      2,
				FileNum:    5,
				Size:       4 << 10,
				NumEntries: 1500,
				NumFilters: 3,
				FilterSize: 2 << 10,
				Duration:   1500 * time.Millisecond,
			},
			fmt.Sprintf("[JOB 2] table 000005 built: %s, %s keys, 3 filters (%s) in 1.5s",
				humanBytes(4<<10), crhumanize.Count(uint64(1500), crhumanize.Compact), humanBytes(2<<10)),
		},
		{
			TableBuildInfo{
				JobID:          2,
				FileNum:        5,
				Size:           4 << 10,
				NumEntries:     10,
				NumFilters:     1,
				FilterSize:     20,
				FileFilterSize: 17,
				HasFileFilter:  true,
			},
			fmt.Sprintf("[JOB 2] table 000005 built: %s, %s keys, 1 filters (%s), file filter %s in 0.0s",
				humanBytes(4<<10), crhumanize.Count(uint64(10), crhumanize.Compact), humanBytes(20), humanBytes(17)),
		},
		{
			TableBuildInfo{JobID: 3, FileNum: 6},
			"[JOB 3] table 000006 not written: no entries",
		},
		{
			TableBuildInfo{JobID: 3, FileNum: 6, Err: errors.New("boom")},
			"[JOB 3] table 000006 build error: boom",
		},
		{
			TableDeleteInfo{JobID: 4, Path: "db/000007.sst", FileNum: 7},
			"[JOB 4] table 000007 deleted",
		},
		{
			TableDeleteInfo{JobID: 4, FileNum: 7, Err: errors.New("busy")},
			"[JOB 4] table 000007 delete error: busy",
		},
		{
			ManifestCreateInfo{JobID: 1, Path: "db/MANIFEST-000001", FileNum: 1},
			"[JOB 1] MANIFEST created 000001",
		},
		{
			ManifestCreateInfo{JobID: 1, FileNum: 1, Err: errors.New("disk full")},
			"[JOB 1] MANIFEST create error: disk full",
		},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, redact.StringWithoutMarkers(tc.info))
		require.Equal(t, tc.expected, tc.info.(interface{ String() string }).String())
	}
}

func TestEventRedaction(t *testing.T) {
	// Error messages are user data, the rest of the event is safe.
	info := TableBuildInfo{JobID: 1, FileNum: 2, Err: errors.New("secret")}
	require.Equal(t, "[JOB 1] table 000002 build error: ‹×›", string(redact.Sprint(info).Redact()))
}

func TestLoggingEventListener(t *testing.T) {
	var logger base.InMemLogger
	l := MakeLoggingEventListener(&logger)
	l.TableCreated(TableCreateInfo{JobID: 1, Reason: "building", FileNum: 3})
	l.TableDeleted(TableDeleteInfo{JobID: 1, FileNum: 3})
	l.BackgroundError(errors.New("oops"))
	require.Equal(t, `[JOB 1] building: sstable created 000003
[JOB 1] table 000003 deleted
background error: oops
`, logger.String())
}

func TestEventListenerEnsureDefaults(t *testing.T) {
	var l EventListener
	l.EnsureDefaults(nil)
	// Every handler is callable.
	l.BackgroundError(errors.New("ignored"))
	l.ManifestCreated(ManifestCreateInfo{})
	l.TableBuilt(TableBuildInfo{})
	l.TableCreated(TableCreateInfo{})
	l.TableDeleted(TableDeleteInfo{})

	var logger base.InMemLogger
	l = EventListener{}
	l.EnsureDefaults(&logger)
	l.BackgroundError(errors.New("logged"))
	require.Equal(t, "background error: logged\n", logger.String())
}

func TestTeeEventListener(t *testing.T) {
	var a, b []string
	la := EventListener{
		TableCreated: func(info TableCreateInfo) { a = append(a, info.String()) },
	}
	lb := EventListener{
		TableCreated: func(info TableCreateInfo) { b = append(b, info.String()) },
		TableDeleted: func(info TableDeleteInfo) { b = append(b, info.String()) },
	}
	l := TeeEventListener(la, lb)
	l.TableCreated(TableCreateInfo{JobID: 1, Reason: "flushing", FileNum: 9})
	l.TableDeleted(TableDeleteInfo{JobID: 2, FileNum: 9})
	l.TableBuilt(TableBuildInfo{})

	require.Equal(t, []string{"[JOB 1] flushing: sstable created 000009"}, a)
	require.Equal(t, []string{
		"[JOB 1] flushing: sstable created 000009",
		"[JOB 2] table 000009 deleted",
	}, b)
}
