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

package gpkg

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
	"github.com/FileSyncProject/filesync-core/pkg/geo"
)

func testSchema() []featurestore.Field {
	return []featurestore.Field{
		{Name: "abs_path", Type: featurestore.TypeString},
		{Name: "file_size", Type: featurestore.TypeLong},
		{Name: "gps_latitude", Type: featurestore.TypeDouble},
		{Name: "m_time", Type: featurestore.TypeDateTime},
	}
}

func createTestStore(t *testing.T) (*Store, *Collection) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.gpkg")
	store, err := CreateGeoPackage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	coll, err := store.CreateCollection("photos", testSchema(), featurestore.GeometryPoint, 4326)
	require.NoError(t, err)
	return store, coll
}

func TestCreateCollection(t *testing.T) {
	t.Parallel()

	store, coll := createTestStore(t)

	tables, err := store.Tables()
	require.NoError(t, err)
	assert.Equal(t, []string{"photos"}, tables)

	assert.Equal(t, featurestore.GeometryPoint, coll.GeometryType())
	assert.Equal(t, 4326, coll.SRID())
	assert.True(t, coll.IsEditable())

	f, ok := coll.Field("abs_path")
	require.True(t, ok)
	assert.Equal(t, featurestore.TypeString, f.Type)

	f, ok = coll.Field("file_size")
	require.True(t, ok)
	assert.Equal(t, featurestore.TypeLong, f.Type)

	_, ok = coll.Field("fid")
	assert.False(t, ok, "the primary key is not an attribute field")
	_, ok = coll.Field("geom")
	assert.False(t, ok, "the geometry column is not an attribute field")
}

func TestCollectionCRUD(t *testing.T) {
	t.Parallel()

	_, coll := createTestStore(t)
	mtime := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)

	require.NoError(t, coll.BeginEdit())
	rec := featurestore.NewRecord()
	rec.SetAttribute("abs_path", "/photos/a.jpg")
	rec.SetAttribute("file_size", 1234)
	rec.SetAttribute("gps_latitude", 52.52)
	rec.SetAttribute("m_time", mtime)
	rec.SetGeometry(&geo.Point{X: 13.405, Y: 52.52})
	require.NoError(t, coll.Insert(rec))
	assert.Positive(t, rec.ID)

	// uncommitted rows are visible inside the edit session
	found, err := coll.FindByAttribute("abs_path", "/photos/a.jpg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(1234), found[0].Attribute("file_size"))
	assert.Equal(t, 52.52, found[0].Attribute("gps_latitude"))

	gotTime, ok := found[0].Attribute("m_time").(time.Time)
	require.True(t, ok)
	assert.True(t, gotTime.Equal(mtime))

	geom := found[0].Geometry()
	require.NotNil(t, geom)
	assert.InDelta(t, 13.405, geom.X, 1e-9)

	require.NoError(t, coll.CommitEdit())

	require.NoError(t, coll.BeginEdit())
	rec.SetAttribute("file_size", 5678)
	require.NoError(t, coll.Update(rec))
	require.NoError(t, coll.CommitEdit())

	count, err := coll.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err = coll.FindByAttribute("abs_path", "/photos/a.jpg")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, int64(5678), found[0].Attribute("file_size"))

	require.NoError(t, coll.BeginEdit())
	require.NoError(t, coll.Delete(rec.ID))
	require.Error(t, coll.Delete(rec.ID), "deleting twice reports the missing row")
	require.NoError(t, coll.CommitEdit())

	count, err = coll.Count()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCollectionRollback(t *testing.T) {
	t.Parallel()

	_, coll := createTestStore(t)

	require.NoError(t, coll.BeginEdit())
	rec := featurestore.NewRecord()
	rec.SetAttribute("abs_path", "/photos/a.jpg")
	require.NoError(t, coll.Insert(rec))
	require.NoError(t, coll.RollbackEdit())

	count, err := coll.Count()
	require.NoError(t, err)
	assert.Zero(t, count, "rollback discards the insert")
}

func TestCollectionMutationsRequireEditSession(t *testing.T) {
	t.Parallel()

	_, coll := createTestStore(t)
	require.ErrorIs(t, coll.Insert(featurestore.NewRecord()), featurestore.ErrNotEditing)
	require.ErrorIs(t, coll.Update(featurestore.NewRecord()), featurestore.ErrNotEditing)
	require.ErrorIs(t, coll.Delete(1), featurestore.ErrNotEditing)
}

func TestCollectionIterateOrdered(t *testing.T) {
	t.Parallel()

	_, coll := createTestStore(t)

	require.NoError(t, coll.BeginEdit())
	for _, p := range []string{"/c.jpg", "/a.jpg", "/b.jpg"} {
		rec := featurestore.NewRecord()
		rec.SetAttribute("abs_path", p)
		require.NoError(t, coll.Insert(rec))
	}
	require.NoError(t, coll.CommitEdit())

	var paths []string
	require.NoError(t, coll.Iterate(context.Background(), func(rec *featurestore.Record) error {
		path, _ := rec.Attribute("abs_path").(string)
		paths = append(paths, path)
		return nil
	}))
	assert.Equal(t, []string{"/c.jpg", "/a.jpg", "/b.jpg"}, paths, "iteration follows insertion ids")
}

func TestOpenReadOnly(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ro.gpkg")
	store, err := CreateGeoPackage(path)
	require.NoError(t, err)
	_, err = store.CreateCollection("photos", testSchema(), featurestore.GeometryNone, 0)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	ro, err := OpenReadOnly(path)
	require.NoError(t, err)
	defer func() { _ = ro.Close() }()

	coll, err := ro.Collection("photos")
	require.NoError(t, err)
	assert.False(t, coll.IsEditable())
	assert.Equal(t, featurestore.GeometryNone, coll.GeometryType())
	require.ErrorIs(t, coll.BeginEdit(), featurestore.ErrReadOnly)
}

func TestCollectionUnknownTable(t *testing.T) {
	t.Parallel()

	store, _ := createTestStore(t)
	_, err := store.Collection("nope")
	require.Error(t, err)
}
