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

// Package scanner finds files below a root directory by wildcard patterns.
package scanner

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ErrNotADirectory is returned when the scan root does not exist or is not
// a directory.
var ErrNotADirectory = errors.New("root path not found or no directory")

// CatchAllPattern matches every file and short-circuits all other patterns.
const CatchAllPattern = "*.*"

// SplitPatterns parses a user-entered pattern list. Comma, semicolon and
// blank all separate patterns; empty entries and duplicates are dropped.
func SplitPatterns(patterns string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range strings.FieldsFunc(patterns, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	}) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Options control a scan. CaseSensitive defaults to false, matching the
// behavior users expect for extension patterns like "*.JPG".
type Options struct {
	Patterns      string
	Recursive     bool
	CaseSensitive bool
}

// Scan walks rootDir and returns the set of matching regular files, keyed by
// their native paths. Directories and other non-regular entries never match.
func Scan(fs afero.Fs, rootDir string, opts Options) (map[string]struct{}, error) {
	info, err := fs.Stat(rootDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotADirectory, rootDir)
	}

	patterns := SplitPatterns(opts.Patterns)
	for _, p := range patterns {
		if p == CatchAllPattern {
			patterns = []string{"*"}
			break
		}
	}
	if !opts.CaseSensitive {
		for i, p := range patterns {
			patterns[i] = strings.ToLower(p)
		}
	}

	result := make(map[string]struct{})
	match := func(filePath string, info os.FileInfo) {
		if !info.Mode().IsRegular() {
			return
		}
		name := filepath.Base(filePath)
		if !opts.CaseSensitive {
			name = strings.ToLower(name)
		}
		for _, p := range patterns {
			ok, err := path.Match(p, name)
			if err != nil {
				log.Warn().Str("pattern", p).Msg("invalid search pattern ignored")
				continue
			}
			if ok {
				result[filePath] = struct{}{}
				return
			}
		}
	}

	if opts.Recursive {
		err = afero.Walk(fs, rootDir, func(filePath string, info os.FileInfo, err error) error {
			if err != nil {
				log.Warn().Err(err).Str("path", filePath).Msg("scan skipped unreadable entry")
				return nil
			}
			if !info.IsDir() {
				match(filePath, info)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", rootDir, err)
		}
	} else {
		entries, err := afero.ReadDir(fs, rootDir)
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", rootDir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				match(filepath.Join(rootDir, entry.Name()), entry)
			}
		}
	}

	return result, nil
}

// SortedPaths returns the scan result as a sorted slice, for deterministic
// processing and logs.
func SortedPaths(files map[string]struct{}) []string {
	out := make([]string, 0, len(files))
	for p := range files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
