// FileSync Core
// Copyright (c) 2026 The FileSync Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of FileSync Core.
//
// FileSync Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// FileSync Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with FileSync Core.  If not, see <http://www.gnu.org/licenses/>.

package scanner

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, p := range []string{
		"/photos/a.jpg",
		"/photos/b.JPG",
		"/photos/c.png",
		"/photos/notes.txt",
		"/photos/sub/d.jpg",
		"/photos/sub/deep/e.tif",
	} {
		require.NoError(t, afero.WriteFile(fs, p, []byte("x"), 0o644))
	}
	return fs
}

func TestSplitPatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "single",
			input:    "*.jpg",
			expected: []string{"*.jpg"},
		},
		{
			name:     "mixed_separators",
			input:    "*.jpg;*.png, *.tif",
			expected: []string{"*.jpg", "*.png", "*.tif"},
		},
		{
			name:     "duplicates_dropped",
			input:    "*.jpg *.jpg",
			expected: []string{"*.jpg"},
		},
		{
			name:     "empty",
			input:    "",
			expected: nil,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, SplitPatterns(tt.input))
		})
	}
}

func TestScanRecursive(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	files, err := Scan(fs, "/photos", Options{Patterns: "*.jpg", Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/photos/a.jpg",
		"/photos/b.JPG",
		"/photos/sub/d.jpg",
	}, SortedPaths(files))
}

func TestScanNonRecursive(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	files, err := Scan(fs, "/photos", Options{Patterns: "*.jpg"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/photos/a.jpg",
		"/photos/b.JPG",
	}, SortedPaths(files))
}

func TestScanCaseSensitive(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	files, err := Scan(fs, "/photos", Options{Patterns: "*.jpg", Recursive: true, CaseSensitive: true})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/photos/a.jpg",
		"/photos/sub/d.jpg",
	}, SortedPaths(files))
}

func TestScanCatchAll(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	// "*.*" is the catch-all, extension-less files match too
	require.NoError(t, afero.WriteFile(fs, "/photos/README", []byte("x"), 0o644))

	files, err := Scan(fs, "/photos", Options{Patterns: "*.tif " + CatchAllPattern, Recursive: true})
	require.NoError(t, err)
	assert.Len(t, files, 7)
	assert.Contains(t, files, "/photos/README")
}

func TestScanRootNotADirectory(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	_, err := Scan(fs, "/photos/a.jpg", Options{Patterns: "*.jpg"})
	require.ErrorIs(t, err, ErrNotADirectory)

	_, err = Scan(fs, "/missing", Options{Patterns: "*.jpg"})
	require.ErrorIs(t, err, ErrNotADirectory)
}

func TestScanExcludesDirectories(t *testing.T) {
	t.Parallel()

	fs := testFs(t)
	require.NoError(t, fs.MkdirAll("/photos/dir.jpg", 0o755))

	files, err := Scan(fs, "/photos", Options{Patterns: "*.jpg", Recursive: true})
	require.NoError(t, err)
	assert.NotContains(t, files, "/photos/dir.jpg")
}
