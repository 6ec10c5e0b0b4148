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
	"fmt"
	"strings"
	"time"

	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
)

// gpkgApplicationID is "GPKG" as a big-endian int, per the OGC spec.
const gpkgApplicationID = 0x47504B47

const wgs84Definition = `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["degree",0.0174532925199433]]`

var metaTableDDL = []string{
	`CREATE TABLE IF NOT EXISTS gpkg_spatial_ref_sys (
		srs_name TEXT NOT NULL,
		srs_id INTEGER PRIMARY KEY,
		organization TEXT NOT NULL,
		organization_coordsys_id INTEGER NOT NULL,
		definition TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS gpkg_contents (
		table_name TEXT PRIMARY KEY,
		data_type TEXT NOT NULL,
		identifier TEXT UNIQUE,
		description TEXT DEFAULT '',
		last_change DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
		min_x DOUBLE,
		min_y DOUBLE,
		max_x DOUBLE,
		max_y DOUBLE,
		srs_id INTEGER,
		CONSTRAINT fk_gc_r_srs_id FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
	)`,
	`CREATE TABLE IF NOT EXISTS gpkg_geometry_columns (
		table_name TEXT NOT NULL,
		column_name TEXT NOT NULL,
		geometry_type_name TEXT NOT NULL,
		srs_id INTEGER NOT NULL,
		z TINYINT NOT NULL,
		m TINYINT NOT NULL,
		CONSTRAINT pk_geom_cols PRIMARY KEY (table_name, column_name),
		CONSTRAINT fk_gc_tn FOREIGN KEY (table_name) REFERENCES gpkg_contents(table_name),
		CONSTRAINT fk_gc_srs FOREIGN KEY (srs_id) REFERENCES gpkg_spatial_ref_sys(srs_id)
	)`,
}

// CreateGeoPackage creates (or completes) a GeoPackage file with the OGC
// meta tables and the default spatial reference rows.
func CreateGeoPackage(path string) (*Store, error) {
	store, err := Open(path)
	if err != nil {
		return nil, err
	}

	if _, err := store.db.Exec(fmt.Sprintf(`PRAGMA application_id = %d`, gpkgApplicationID)); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to mark geopackage: %w", err)
	}
	for _, ddl := range metaTableDDL {
		if _, err := store.db.Exec(ddl); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to create geopackage meta tables: %w", err)
		}
	}

	defaults := []struct {
		name, org, definition string
		srsID, orgID          int
	}{
		{"Undefined Cartesian SRS", "NONE", "undefined", -1, -1},
		{"Undefined Geographic SRS", "NONE", "undefined", 0, 0},
		{"WGS 84", "EPSG", wgs84Definition, 4326, 4326},
	}
	for _, d := range defaults {
		_, err := store.db.Exec(
			`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
				(srs_name, srs_id, organization, organization_coordsys_id, definition)
				VALUES (?, ?, ?, ?, ?)`,
			d.name, d.srsID, d.org, d.orgID, d.definition)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to seed spatial reference systems: %w", err)
		}
	}

	return store, nil
}

func (s *Store) ensureSRS(srid int) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO gpkg_spatial_ref_sys
			(srs_name, srs_id, organization, organization_coordsys_id, definition)
			VALUES (?, ?, 'EPSG', ?, 'undefined')`,
		fmt.Sprintf("EPSG:%d", srid), srid, srid)
	if err != nil {
		return fmt.Errorf("failed to register srs %d: %w", srid, err)
	}
	return nil
}

// CreateCollection creates a new feature (or attribute) table and registers
// it in the meta tables. The geometry column is always named "geom" and
// typed POINT; z is marked optional since GPS points may carry altitude.
func (s *Store) CreateCollection(
	name string,
	fields []featurestore.Field,
	geomType featurestore.GeometryType,
	srid int,
) (*Collection, error) {
	if !s.writable {
		return nil, featurestore.ErrReadOnly
	}

	cols := []string{`"fid" INTEGER PRIMARY KEY AUTOINCREMENT`}
	if geomType == featurestore.GeometryPoint {
		cols = append(cols, `"geom" BLOB`)
	}
	for _, f := range fields {
		cols = append(cols, fmt.Sprintf("%s %s", quoteIdent(f.Name), fieldTypeToSQLite(f.Type)))
	}
	ddl := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(name), strings.Join(cols, ", "))
	if _, err := s.db.Exec(ddl); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", name, err)
	}

	dataType := "attributes"
	contentsSRID := 0
	if geomType == featurestore.GeometryPoint {
		dataType = "features"
		contentsSRID = srid
		if err := s.ensureSRS(srid); err != nil {
			return nil, err
		}
	}

	_, err := s.db.Exec(
		`INSERT INTO gpkg_contents (table_name, data_type, identifier, last_change, srs_id)
			VALUES (?, ?, ?, ?, ?)`,
		name, dataType, name, time.Now().UTC().Format("2006-01-02T15:04:05.000Z"), contentsSRID)
	if err != nil {
		return nil, fmt.Errorf("failed to register table %s in gpkg_contents: %w", name, err)
	}

	if geomType == featurestore.GeometryPoint {
		_, err := s.db.Exec(
			`INSERT INTO gpkg_geometry_columns (table_name, column_name, geometry_type_name, srs_id, z, m)
				VALUES (?, 'geom', 'POINT', ?, 2, 0)`,
			name, srid)
		if err != nil {
			return nil, fmt.Errorf("failed to register geometry column of %s: %w", name, err)
		}
	}

	return s.Collection(name)
}
