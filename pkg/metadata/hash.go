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
	"crypto/md5"  //nolint:gosec // fingerprint for duplicate detection, not security
	"crypto/sha1" //nolint:gosec // fingerprint for duplicate detection, not security
	"crypto/sha256"
	"fmt"
	"hash"
	"io"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/afero"
)

// DefaultHashAlg is the fingerprint algorithm used when settings name none.
const DefaultHashAlg = "sha1"

// HashAlgorithms lists the supported file fingerprint algorithms.
var HashAlgorithms = []string{"md5", "sha1", "sha256", "xxh64"}

const hashChunkSize = 8192

func newHasher(alg string) (hash.Hash, error) {
	switch alg {
	case "md5":
		return md5.New(), nil //nolint:gosec // duplicate detection only
	case "sha1":
		return sha1.New(), nil //nolint:gosec // duplicate detection only
	case "sha256":
		return sha256.New(), nil
	case "xxh64":
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", alg)
	}
}

// FileHash reads the file in fixed-size chunks and returns the hex digest.
func FileHash(fs afero.Fs, path, alg string) (string, error) {
	hasher, err := newHasher(alg)
	if err != nil {
		return "", err
	}

	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer func(file afero.File) {
		_ = file.Close()
	}(file)

	if _, err := io.CopyBuffer(hasher, file, make([]byte, hashChunkSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
