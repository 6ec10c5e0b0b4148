/*
FileSync Core
Copyright (c) 2026 The FileSync Project Contributors.
SPDX-License-Identifier: GPL-3.0-or-later

This file is part of FileSync Core.

FileSync Core is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

FileSync Core is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with FileSync Core.  If not, see <http://www.gnu.org/licenses/>.
*/

package helpers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

// Contains returns true if slice contains value.
func Contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// MapKeys returns a list of all keys in a map.
func MapKeys[K comparable, V any](m map[K]V) []K {
	keys := make([]K, len(m))
	i := 0
	for k := range m {
		keys[i] = k
		i++
	}
	return keys
}

func AlphaMapKeys[V any](m map[string]V) []string {
	keys := MapKeys(m)
	sort.Strings(keys)
	return keys
}

func IsTruthy(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "yes")
}

func IsFalsey(s string) bool {
	return strings.EqualFold(s, "false") || strings.EqualFold(s, "no")
}

// CopyFile copies a regular file and carries over its permission bits and
// modification time, so fingerprints based on m_time survive the copy.
func CopyFile(fs afero.Fs, sourcePath, destPath string) error {
	stat, err := fs.Stat(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to stat source file %s: %w", sourcePath, err)
	}

	inputFile, err := fs.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", sourcePath, err)
	}
	defer func(inputFile afero.File) {
		_ = inputFile.Close()
	}(inputFile)

	outputFile, err := fs.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}

	_, err = io.Copy(outputFile, inputFile)
	if err != nil {
		_ = outputFile.Close()
		return fmt.Errorf("failed to copy file content: %w", err)
	}
	err = outputFile.Close()
	if err != nil {
		return fmt.Errorf("failed to close destination file: %w", err)
	}

	if err := fs.Chmod(destPath, stat.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set destination mode: %w", err)
	}
	if err := fs.Chtimes(destPath, stat.ModTime(), stat.ModTime()); err != nil {
		return fmt.Errorf("failed to set destination times: %w", err)
	}
	return nil
}

// UniqueFilePath returns path unchanged if nothing exists there, otherwise
// the first free variant of the form stem_N.ext, counting up from 1.
func UniqueFilePath(fs afero.Fs, path string) (string, error) {
	exists, err := afero.Exists(fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to check path %s: %w", path, err)
	}
	if !exists {
		return path, nil
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)

	for i := 1; ; i++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		exists, err := afero.Exists(fs, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check path %s: %w", candidate, err)
		}
		if !exists {
			return candidate, nil
		}
	}
}

func YesNoPrompt(label string, def bool) bool {
	choices := "Y/n"
	if !def {
		choices = "y/N"
	}

	r := bufio.NewReader(os.Stdin)
	var s string

	for {
		_, _ = fmt.Fprintf(os.Stderr, "%s [%s] ", label, choices)
		s, _ = r.ReadString('\n')
		s = strings.TrimSpace(s)
		if s == "" {
			return def
		}
		s = strings.ToLower(s)
		if s == "y" || s == "yes" {
			return true
		}
		if s == "n" || s == "no" {
			return false
		}
	}
}
