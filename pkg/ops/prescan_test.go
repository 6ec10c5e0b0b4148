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

package ops

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/metadata"
)

// noImageReader stands in for the EXIF reader; every file counts as a
// non-image.
type noImageReader struct{}

func (noImageReader) ReadImage(afero.Fs, string) (*metadata.ImageInfo, error) {
	return nil, errors.New("not an image")
}

func logContains(run *RunLog, substr string) bool {
	for _, line := range run.Lines {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func preScanSettings() *config.Settings {
	return &config.Settings{
		PreScan: config.PreScanSettings{
			Dir:      "/photos",
			EPSG:     "EPSG:4326",
			Patterns: "*.txt",
			SubDirs:  true,
			Fields: map[string]string{
				metadata.MetaAbsPath:  "abs_path",
				metadata.MetaFileName: "file_name",
				metadata.MetaFileSize: "file_size",
			},
		},
	}
}

func TestPreScan(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.txt", []byte("aaa"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/photos/sub/b.txt", []byte("bb"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/photos/skip.jpg", []byte("x"), 0o644))

	result, err := PreScan(context.Background(), preScanSettings(), PreScanDeps{
		FS:     fs,
		Reader: noImageReader{},
	})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.False(t, result.Aborted)
	assert.Equal(t, 2, result.NumFiles)
	require.NotNil(t, result.Collection)

	count, err := result.Collection.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	found, err := result.Collection.FindByAttribute("abs_path", "/photos/sub/b.txt")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "b.txt", found[0].Attribute("file_name"))
	assert.Equal(t, int64(2), found[0].Attribute("file_size"))

	assert.True(t, logContains(result.Run, "start PreScan"))
	assert.True(t, logContains(result.Run, "✓ num_files 2"))
	assert.True(t, logContains(result.Run, "...File-Iteration-End"))
	assert.True(t, logContains(result.Run, "end PreScan"))
}

func TestPreScanFieldSchemaFromCatalog(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.txt", []byte("x"), 0o644))

	settings := preScanSettings()
	// empty field name falls back to the catalog default
	settings.PreScan.Fields = map[string]string{
		metadata.MetaAbsPath:  "",
		metadata.MetaFileSize: "bytes",
	}

	result, err := PreScan(context.Background(), settings, PreScanDeps{FS: fs, Reader: noImageReader{}})
	require.NoError(t, err)
	require.True(t, result.OK)

	f, ok := result.Collection.Field("abs_path")
	require.True(t, ok)
	assert.Equal(t, featurestore.TypeString, f.Type)

	f, ok = result.Collection.Field("bytes")
	require.True(t, ok)
	assert.Equal(t, featurestore.TypeInt, f.Type)
}

func TestPreScanNoFiles(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/photos", 0o755))

	result, err := PreScan(context.Background(), preScanSettings(), PreScanDeps{FS: fs, Reader: noImageReader{}})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.Nil(t, result.Collection)
	assert.True(t, logContains(result.Run, "⭍ no files for '/photos' with pattern '*.txt'"))
}

func TestPreScanInvalidSettings(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	settings := preScanSettings() // /photos does not exist

	result, err := PreScan(context.Background(), settings, PreScanDeps{FS: fs, Reader: noImageReader{}})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.True(t, logContains(result.Run, "⭍ Settings invalid..."))
}

func TestPreScanConfirmDeclined(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	for i := 0; i <= config.PreScanConfirmThreshold; i++ {
		require.NoError(t, afero.WriteFile(fs, fmt.Sprintf("/photos/f%04d.txt", i), []byte("x"), 0o644))
	}

	asked := 0
	result, err := PreScan(context.Background(), preScanSettings(), PreScanDeps{
		FS:     fs,
		Reader: noImageReader{},
		Confirm: func(numFiles int) bool {
			asked = numFiles
			return false
		},
	})
	require.NoError(t, err)

	assert.True(t, result.Aborted)
	assert.False(t, result.OK)
	assert.Nil(t, result.Collection)
	assert.Equal(t, config.PreScanConfirmThreshold+1, asked)
}

func TestPreScanUniqueCollectionName(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.txt", []byte("x"), 0o644))

	result, err := PreScan(context.Background(), preScanSettings(), PreScanDeps{
		FS:            fs,
		Reader:        noImageReader{},
		ExistingNames: []string{"pre_scan_result /photos_1", "pre_scan_result /photos_2"},
	})
	require.NoError(t, err)
	require.True(t, result.OK)
	assert.Equal(t, "pre_scan_result /photos_3", result.Collection.Name())
}

func TestPreScanCancelled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.txt", []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := PreScan(ctx, preScanSettings(), PreScanDeps{FS: fs, Reader: noImageReader{}})
	require.ErrorIs(t, err, context.Canceled)
}
