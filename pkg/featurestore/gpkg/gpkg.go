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

// Package gpkg implements featurestore.Collection on GeoPackage files
// (SQLite with the OGC meta tables). One Store per file, one Collection per
// feature or attribute table.
package gpkg

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	// sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
)

// Store is an open GeoPackage file.
type Store struct {
	db       *sql.DB
	path     string
	writable bool
}

// Open opens (or, for CreateGeoPackage, reuses) a GeoPackage file writable.
func Open(path string) (*Store, error) {
	return open(path, true)
}

// OpenReadOnly opens a GeoPackage without allowing edit sessions.
func OpenReadOnly(path string) (*Store, error) {
	return open(path, false)
}

func open(path string, writable bool) (*Store, error) {
	dsn := path
	if !writable {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open geopackage %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to open geopackage %s: %w", path, err)
	}
	return &Store{db: db, path: path, writable: writable}, nil
}

func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close geopackage %s: %w", s.path, err)
	}
	return nil
}

// Path returns the file the store was opened from.
func (s *Store) Path() string {
	return s.path
}

// Tables lists the feature and attribute tables registered in gpkg_contents.
func (s *Store) Tables() ([]string, error) {
	rows, err := s.db.Query(
		`SELECT table_name FROM gpkg_contents WHERE data_type IN ('features', 'attributes') ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read gpkg_contents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan gpkg_contents: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gpkg_contents: %w", err)
	}
	return tables, nil
}

// Collection binds a table of the store. The table's schema is read once;
// schema changes after this call are not picked up.
func (s *Store) Collection(table string) (*Collection, error) {
	coll := &Collection{store: s, table: table, geomType: featurestore.GeometryNone}

	row := s.db.QueryRow(
		`SELECT column_name, geometry_type_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, table)
	var geomCol, geomTypeName string
	var srid int
	err := row.Scan(&geomCol, &geomTypeName, &srid)
	switch {
	case err == nil:
		if !strings.EqualFold(geomTypeName, "POINT") {
			return nil, fmt.Errorf("table %s has unsupported geometry type %s", table, geomTypeName)
		}
		coll.geomColumn = geomCol
		coll.geomType = featurestore.GeometryPoint
		coll.srid = srid
	case errors.Is(err, sql.ErrNoRows):
		// plain attribute table
	default:
		return nil, fmt.Errorf("failed to read gpkg_geometry_columns: %w", err)
	}

	if err := coll.readSchema(); err != nil {
		return nil, err
	}
	return coll, nil
}

func sqliteTypeToField(sqlType string) featurestore.FieldType {
	base := strings.ToUpper(sqlType)
	if i := strings.IndexAny(base, " ("); i >= 0 {
		base = base[:i]
	}
	switch base {
	case "TEXT", "VARCHAR", "CHAR", "CLOB":
		return featurestore.TypeString
	case "INT", "INTEGER", "BIGINT", "MEDIUMINT":
		return featurestore.TypeLong
	case "SMALLINT", "TINYINT":
		return featurestore.TypeInt
	case "REAL", "DOUBLE", "FLOAT", "NUMERIC":
		return featurestore.TypeDouble
	case "DATETIME", "DATE", "TIMESTAMP":
		return featurestore.TypeDateTime
	default:
		return featurestore.TypeString
	}
}

func fieldTypeToSQLite(t featurestore.FieldType) string {
	switch t {
	case featurestore.TypeString:
		return "TEXT"
	case featurestore.TypeInt, featurestore.TypeLong,
		featurestore.TypeUInt, featurestore.TypeULong:
		return "INTEGER"
	case featurestore.TypeDouble:
		return "REAL"
	case featurestore.TypeDateTime:
		return "DATETIME"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
