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

package metadata

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHash(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f.txt", []byte("hello world"), 0o644))

	// known digests of "hello world"
	tests := []struct {
		alg      string
		expected string
	}{
		{"md5", "5eb63bbbe01eeed093cb22bb8f5acdc3"},
		{"sha1", "2aae6c35c94fcfb415dbe95f408b9ce91ee846ed"},
		{"sha256", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		got, err := FileHash(fs, "/f.txt", tt.alg)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, tt.alg)
	}
}

func TestFileHashStable(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f.bin", []byte("same content"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/g.bin", []byte("same content"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/h.bin", []byte("other content"), 0o644))

	for _, alg := range HashAlgorithms {
		f, err := FileHash(fs, "/f.bin", alg)
		require.NoError(t, err)
		g, err := FileHash(fs, "/g.bin", alg)
		require.NoError(t, err)
		h, err := FileHash(fs, "/h.bin", alg)
		require.NoError(t, err)

		assert.Equal(t, f, g, "identical content must hash identical (%s)", alg)
		assert.NotEqual(t, f, h, "different content must hash different (%s)", alg)
	}
}

func TestFileHashUnknownAlgorithm(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/f.txt", []byte("x"), 0o644))

	_, err := FileHash(fs, "/f.txt", "crc32")
	require.Error(t, err)
}

func TestFileHashMissingFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	_, err := FileHash(fs, "/missing", DefaultHashAlg)
	require.Error(t, err)
}
