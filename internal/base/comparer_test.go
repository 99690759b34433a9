// Copyright 2011 The LevelDB-Go and Pebble Authors. All rights reserved. Use
// of this source code is governed by a BSD-style license that can be found in
// the LICENSE file.

package base

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultComparer_Separator(t *testing.T) {
	testCases := []struct {
		a, b, want string
	}{
		{"black", "blue", "blb"},
		{"1", "2", "1"},
		{"1", "29", "2"},
		{"13", "19", "14"},
		{"13", "99", "2"},
		{"135", "19", "14"},
		{"1357", "19", "14"},
		{"1357", "2", "14"},
		{"13\xff", "14", "13\xff"},
		{"13\xff", "19", "14"},
		{"1\xff\xff", "19", "1\xff\xff"},
		{"1\xff\xff", "2", "1\xff\xff"},
		{"1\xff\xff", "9", "2"},
	}
	for _, tc := range testCases {
		t.Run("", func(t *testing.T) {
			got := string(DefaultComparer.Separator(nil, []byte(tc.a), []byte(tc.b)))
			if got != tc.want {
				t.Errorf("DefaultComparer.Separator(nil, %q, %q) = %q, want %q", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDefaultComparer_Successor(t *testing.T) {
	testCases := []struct {
		a, want string
	}{
		{"green", "h"},
		{"", ""},
		{"1", "2"},
		{"11", "2"},
		{"11\xff", "2"},
		{"1\xff", "2"},
		{"1\xff\xff", "2"},
		{"\xff", "\xff"},
		{"\xff\xff", "\xff\xff"},
		{"\xff\xff\xff", "\xff\xff\xff"},
	}
	for _, tc := range testCases {
		t.Run("", func(t *testing.T) {
			got := string(DefaultComparer.Successor(nil, []byte(tc.a)))
			if got != tc.want {
				t.Errorf("DefaultComparer.Successor(nil, %q) = %q, want %q", tc.a, got, tc.want)
			}
		})
	}
}

func TestComparerEnsureDefaults(t *testing.T) {
	require.Equal(t, DefaultComparer, (*Comparer)(nil).EnsureDefaults())

	c := &Comparer{
		Compare:   bytes.Compare,
		Separator: DefaultComparer.Separator,
		Successor: DefaultComparer.Successor,
		Name:      "test",
	}
	n := c.EnsureDefaults()
	require.NotSame(t, c, n)
	require.True(t, n.Equal([]byte("a"), []byte("a")))
	require.False(t, n.Equal([]byte("a"), []byte("b")))
	require.NotNil(t, n.FormatKey)

	require.Panics(t, func() { (&Comparer{Name: "broken"}).EnsureDefaults() })
}

func TestFormatBytes(t *testing.T) {
	require.Equal(t, `abc\x00\xff`, fmt.Sprint(FormatBytes("abc\x00\xff")))
	require.Equal(t, `hello`, fmt.Sprint(DefaultComparer.FormatKey([]byte("hello"))))
}
