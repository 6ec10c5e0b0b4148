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
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FileSyncProject/filesync-core/pkg/config"
	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/geo"
)

func syncSettings() *config.Settings {
	return &config.Settings{
		Sync: config.SyncSettings{
			SourceLayerID:       "source",
			TargetLayerID:       "target",
			SourceAbsPathField:  "abs_path",
			TargetAbsPathField:  "abs_path",
			FileMode:            config.FileModeKeep,
			ExistingFeatureMode: config.FeatureModeSkip,
			Fields:              map[string]string{"title": "name"},
		},
	}
}

func newSourceCollection() *featurestore.Memory {
	return featurestore.NewMemory("source", []featurestore.Field{
		{Name: "abs_path", Type: featurestore.TypeString},
		{Name: "rel_path", Type: featurestore.TypeString},
		{Name: "name", Type: featurestore.TypeString},
	}, featurestore.GeometryPoint, 4326)
}

func newTargetCollection() *featurestore.Memory {
	return featurestore.NewMemory("target", []featurestore.Field{
		{Name: "abs_path", Type: featurestore.TypeString},
		{Name: "title", Type: featurestore.TypeString},
	}, featurestore.GeometryPoint, 4326)
}

func addSourceRecord(t *testing.T, src *featurestore.Memory, path, name string) *featurestore.Record {
	t.Helper()
	require.NoError(t, src.BeginEdit())
	rec := featurestore.NewRecord()
	rec.SetAttribute("abs_path", path)
	rec.SetAttribute("name", name)
	require.NoError(t, src.Insert(rec))
	require.NoError(t, src.CommitEdit())
	return rec
}

func addTargetRecord(t *testing.T, tgt *featurestore.Memory, path, title string) *featurestore.Record {
	t.Helper()
	require.NoError(t, tgt.BeginEdit())
	rec := featurestore.NewRecord()
	rec.SetAttribute("abs_path", path)
	if title != "" {
		rec.SetAttribute("title", title)
	}
	require.NoError(t, tgt.Insert(rec))
	require.NoError(t, tgt.CommitEdit())
	return rec
}

func TestSyncIdenticalCollections(t *testing.T) {
	t.Parallel()

	src := newSourceCollection()
	result, err := Sync(context.Background(), syncSettings(), SyncDeps{
		FS:     afero.NewMemMapFs(),
		Source: src,
		Target: src,
	})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.True(t, logContains(result.Run, "⭍ Source- and Target-Layer identical..."))
}

func TestSyncTargetNotEditable(t *testing.T) {
	t.Parallel()

	tgt := newTargetCollection()
	tgt.SetEditable(false)

	result, err := Sync(context.Background(), syncSettings(), SyncDeps{
		FS:     afero.NewMemMapFs(),
		Source: newSourceCollection(),
		Target: tgt,
	})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.True(t, logContains(result.Run, "⭍ Target-Layer not editable..."))
}

func TestSyncEmptySource(t *testing.T) {
	t.Parallel()

	result, err := Sync(context.Background(), syncSettings(), SyncDeps{
		FS:     afero.NewMemMapFs(),
		Source: newSourceCollection(),
		Target: newTargetCollection(),
	})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.True(t, logContains(result.Run, "⭍ no features in Source-Layer..."))
}

func TestSyncMissingFieldAborts(t *testing.T) {
	t.Parallel()

	src := newSourceCollection()
	addSourceRecord(t, src, "/photos/a.jpg", "a")

	settings := syncSettings()
	settings.Sync.Fields = map[string]string{"no_such_field": "name"}

	result, err := Sync(context.Background(), settings, SyncDeps{
		FS:     afero.NewMemMapFs(),
		Source: src,
		Target: newTargetCollection(),
	})
	require.NoError(t, err)

	assert.False(t, result.OK)
	assert.True(t, logContains(result.Run, "missing in Target-Layer"))
}

func TestSyncKeepModeInserts(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/photos/b.jpg", []byte("b"), 0o644))

	src := newSourceCollection()
	addSourceRecord(t, src, "/photos/a.jpg", "first")
	addSourceRecord(t, src, "/photos/b.jpg", "second")
	tgt := newTargetCollection()

	result, err := Sync(context.Background(), syncSettings(), SyncDeps{FS: fs, Source: src, Target: tgt})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Counters.Inserted)
	assert.Zero(t, result.Counters.Errors)

	count, err := tgt.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "first", found[0].Attribute("title"))

	assert.True(t, logContains(result.Run, "✔ insert successful"))
	assert.True(t, logContains(result.Run, "2 features inserted"))
}

func TestSyncMissingSourceFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("a"), 0o644))

	src := newSourceCollection()
	addSourceRecord(t, src, "/photos/a.jpg", "a")
	missing := addSourceRecord(t, src, "/photos/gone.jpg", "gone")
	tgt := newTargetCollection()

	result, err := Sync(context.Background(), syncSettings(), SyncDeps{FS: fs, Source: src, Target: tgt})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Counters.Inserted)
	assert.Equal(t, 1, result.Counters.Errors)
	assert.Equal(t, 1, result.Counters.FilesMissing)
	assert.Equal(t, []int64{missing.ID}, src.Selection(), "failed records end up selected")
	assert.True(t, logContains(result.Run, "⭍ file not found, skip..."))
}

func TestSyncCopyMode(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("payload"), 0o644))
	require.NoError(t, fs.MkdirAll("/archive", 0o755))

	src := newSourceCollection()
	rec := addSourceRecord(t, src, "/photos/a.jpg", "a")
	require.NoError(t, src.BeginEdit())
	rec.SetAttribute("rel_path", "2025/06")
	require.NoError(t, src.Update(rec))
	require.NoError(t, src.CommitEdit())

	tgt := newTargetCollection()

	settings := syncSettings()
	settings.Sync.FileMode = config.FileModeCopy
	settings.Sync.TargetDir = "/archive"
	settings.Sync.SourceRelPathField = "rel_path"
	settings.Sync.ExistingFileMode = config.ExistingFileSkip

	result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
	require.NoError(t, err)

	assert.True(t, result.OK)
	assert.Equal(t, 1, result.Counters.FilesCopied)

	copied, err := afero.ReadFile(fs, "/archive/2025/06/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "payload", string(copied))

	found, err := tgt.FindByAttribute("abs_path", "/archive/2025/06/a.jpg")
	require.NoError(t, err)
	assert.Len(t, found, 1, "the record points at the copy, not the source")
}

func TestSyncCopyModeExistingFile(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T) (afero.Fs, *featurestore.Memory, *featurestore.Memory, *config.Settings) {
		t.Helper()
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("new"), 0o644))
		require.NoError(t, afero.WriteFile(fs, "/archive/a.jpg", []byte("old"), 0o644))

		src := newSourceCollection()
		addSourceRecord(t, src, "/photos/a.jpg", "a")
		tgt := newTargetCollection()

		settings := syncSettings()
		settings.Sync.FileMode = config.FileModeCopy
		settings.Sync.TargetDir = "/archive"
		return fs, src, tgt, settings
	}

	t.Run("skip_keeps_existing", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, settings := setup(t)
		settings.Sync.ExistingFileMode = config.ExistingFileSkip

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.FilesKept)
		data, err := afero.ReadFile(fs, "/archive/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, "old", string(data))

		// the record still points at the existing file
		found, err := tgt.FindByAttribute("abs_path", "/archive/a.jpg")
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("replace_overwrites", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, settings := setup(t)
		settings.Sync.ExistingFileMode = config.ExistingFileReplace

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.FilesReplaced)
		data, err := afero.ReadFile(fs, "/archive/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("rename_creates_sibling", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, settings := setup(t)
		settings.Sync.ExistingFileMode = config.ExistingFileRename

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.FilesRenamed)
		data, err := afero.ReadFile(fs, "/archive/a_1.jpg")
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))

		found, err := tgt.FindByAttribute("abs_path", "/archive/a_1.jpg")
		require.NoError(t, err)
		assert.Len(t, found, 1)
	})

	t.Run("unknown_mode_skips_file_and_feature", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, settings := setup(t)
		settings.Sync.ExistingFileMode = ""

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.FilesSkipped)
		count, err := tgt.Count()
		require.NoError(t, err)
		assert.Zero(t, count, "no feature handling for skipped files")
	})
}

func TestSyncCopyModeTargetDirIsFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("a"), 0o644))
	require.NoError(t, fs.MkdirAll("/archive", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/archive/blocked", []byte("x"), 0o644))

	src := newSourceCollection()
	rec := addSourceRecord(t, src, "/photos/a.jpg", "a")
	require.NoError(t, src.BeginEdit())
	rec.SetAttribute("rel_path", "blocked")
	require.NoError(t, src.Update(rec))
	require.NoError(t, src.CommitEdit())

	settings := syncSettings()
	settings.Sync.FileMode = config.FileModeCopy
	settings.Sync.TargetDir = "/archive"
	settings.Sync.SourceRelPathField = "rel_path"
	settings.Sync.ExistingFileMode = config.ExistingFileSkip

	result, err := Sync(context.Background(), settings, SyncDeps{
		FS: fs, Source: src, Target: newTargetCollection(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Counters.Errors)
	assert.True(t, logContains(result.Run, "is a file, file skipped"))
}

func TestSyncFeatureModes(t *testing.T) {
	t.Parallel()

	setup := func(t *testing.T, existingTitle string) (afero.Fs, *featurestore.Memory, *featurestore.Memory, *featurestore.Record) {
		t.Helper()
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("a"), 0o644))

		src := newSourceCollection()
		addSourceRecord(t, src, "/photos/a.jpg", "fresh title")
		tgt := newTargetCollection()
		existing := addTargetRecord(t, tgt, "/photos/a.jpg", existingTitle)
		return fs, src, tgt, existing
	}

	t.Run("skip", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, _ := setup(t, "old title")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeSkip

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.Duplicates)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "old title", found[0].Attribute("title"))
	})

	t.Run("replace", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, existing := setup(t, "old title")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeReplace

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.Inserted)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.NotEqual(t, existing.ID, found[0].ID, "the duplicate was deleted and replaced")
		assert.Equal(t, "fresh title", found[0].Attribute("title"))
	})

	t.Run("insert_duplicate", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, _ := setup(t, "old title")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeInsert

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.Inserted)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("update_overwrite", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, existing := setup(t, "old title")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeUpdateOverwrite

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.Updated)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, existing.ID, found[0].ID)
		assert.Equal(t, "fresh title", found[0].Attribute("title"))
		assert.True(t, logContains(result.Run, "✔ update_overwrite successful"))
	})

	t.Run("update_preserve_keeps_filled", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, _ := setup(t, "old title")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeUpdatePreserve

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		// path and title already match the source, nothing changes
		assert.Equal(t, 1, result.Counters.Duplicates)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "old title", found[0].Attribute("title"))
	})

	t.Run("update_preserve_fills_empty", func(t *testing.T) {
		t.Parallel()
		fs, src, tgt, _ := setup(t, "")
		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeUpdatePreserve

		result, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		assert.Equal(t, 1, result.Counters.Updated)
		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "fresh title", found[0].Attribute("title"))
		assert.True(t, logContains(result.Run, "✔ update_preserve successful"))
	})
}

func TestSyncGeometryHandling(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/photos/a.jpg", []byte("a"), 0o644))

	src := newSourceCollection()
	require.NoError(t, src.BeginEdit())
	rec := featurestore.NewRecord()
	rec.SetAttribute("abs_path", "/photos/a.jpg")
	rec.SetAttribute("name", "a")
	rec.SetGeometry(&geo.Point{X: 13.405, Y: 52.52})
	require.NoError(t, src.Insert(rec))
	require.NoError(t, src.CommitEdit())

	t.Run("insert_carries_geometry", func(t *testing.T) {
		t.Parallel()
		tgt := newTargetCollection()
		result, err := Sync(context.Background(), syncSettings(), SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)
		require.True(t, result.OK)

		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		geom := found[0].Geometry()
		require.NotNil(t, geom)
		assert.InDelta(t, 13.405, geom.X, 1e-9)
		assert.InDelta(t, 52.52, geom.Y, 1e-9)
	})

	t.Run("update_overwrite_respects_flag", func(t *testing.T) {
		t.Parallel()
		tgt := newTargetCollection()
		addTargetRecord(t, tgt, "/photos/a.jpg", "old")

		settings := syncSettings()
		settings.Sync.ExistingFeatureMode = config.FeatureModeUpdateOverwrite
		// flag off, existing geometry (none) stays untouched
		settings.Sync.UpdateGeometries = false

		_, err := Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		found, err := tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Nil(t, found[0].Geometry())

		settings.Sync.UpdateGeometries = true
		_, err = Sync(context.Background(), settings, SyncDeps{FS: fs, Source: src, Target: tgt})
		require.NoError(t, err)

		found, err = tgt.FindByAttribute("abs_path", "/photos/a.jpg")
		require.NoError(t, err)
		require.Len(t, found, 1)
		require.NotNil(t, found[0].Geometry())
		assert.InDelta(t, 52.52, found[0].Geometry().Y, 1e-9)
	})
}
