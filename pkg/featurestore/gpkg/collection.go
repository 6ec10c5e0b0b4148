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
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/FileSyncProject/filesync-core/pkg/featurestore"
)

// Collection is one GeoPackage table. Mutations run inside a SQL
// transaction opened by BeginEdit, so reads during an edit session see the
// uncommitted changes and RollbackEdit discards them all.
type Collection struct {
	store      *Store
	tx         *sql.Tx
	table      string
	pkColumn   string
	geomColumn string
	fields     []featurestore.Field
	selection  []int64
	srid       int
	geomType   featurestore.GeometryType
}

func (c *Collection) readSchema() error {
	rows, err := c.store.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(c.table)))
	if err != nil {
		return fmt.Errorf("failed to read schema of %s: %w", c.table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to scan schema of %s: %w", c.table, err)
		}
		switch {
		case pk > 0:
			c.pkColumn = name
		case name == c.geomColumn && c.geomColumn != "":
			// geometry is not an attribute field
		default:
			c.fields = append(c.fields, featurestore.Field{Name: name, Type: sqliteTypeToField(typ)})
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read schema of %s: %w", c.table, err)
	}
	if c.pkColumn == "" {
		return fmt.Errorf("table %s has no integer primary key", c.table)
	}
	if len(c.fields) == 0 {
		return fmt.Errorf("table %s has no attribute columns", c.table)
	}
	return nil
}

func (c *Collection) Name() string {
	return c.store.path + ":" + c.table
}

func (c *Collection) Fields() []featurestore.Field {
	return append([]featurestore.Field(nil), c.fields...)
}

func (c *Collection) Field(name string) (featurestore.Field, bool) {
	for _, f := range c.fields {
		if f.Name == name {
			return f, true
		}
	}
	return featurestore.Field{}, false
}

func (c *Collection) GeometryType() featurestore.GeometryType { return c.geomType }

func (c *Collection) SRID() int { return c.srid }

func (c *Collection) IsEditable() bool { return c.store.writable }

type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}

func (c *Collection) q() querier {
	if c.tx != nil {
		return c.tx
	}
	return c.store.db
}

func (c *Collection) Count() (int, error) {
	var n int
	err := c.q().QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(c.table))).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c.table, err)
	}
	return n, nil
}

func (c *Collection) selectColumns() string {
	cols := []string{quoteIdent(c.pkColumn)}
	for _, f := range c.fields {
		cols = append(cols, quoteIdent(f.Name))
	}
	if c.geomColumn != "" {
		cols = append(cols, quoteIdent(c.geomColumn))
	}
	return strings.Join(cols, ", ")
}

func (c *Collection) scanRecord(rows *sql.Rows) (*featurestore.Record, error) {
	dest := make([]any, 0, len(c.fields)+2)
	var id int64
	dest = append(dest, &id)

	strVals := make([]sql.NullString, len(c.fields))
	intVals := make([]sql.NullInt64, len(c.fields))
	floatVals := make([]sql.NullFloat64, len(c.fields))
	for i, f := range c.fields {
		switch f.Type {
		case featurestore.TypeDouble:
			dest = append(dest, &floatVals[i])
		case featurestore.TypeInt, featurestore.TypeLong,
			featurestore.TypeUInt, featurestore.TypeULong:
			dest = append(dest, &intVals[i])
		default:
			dest = append(dest, &strVals[i])
		}
	}
	var geomBlob []byte
	if c.geomColumn != "" {
		dest = append(dest, &geomBlob)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan row of %s: %w", c.table, err)
	}

	rec := featurestore.NewRecord()
	rec.ID = id
	for i, f := range c.fields {
		switch f.Type {
		case featurestore.TypeDouble:
			if floatVals[i].Valid {
				rec.SetAttribute(f.Name, floatVals[i].Float64)
			} else {
				rec.SetAttribute(f.Name, nil)
			}
		case featurestore.TypeInt, featurestore.TypeLong,
			featurestore.TypeUInt, featurestore.TypeULong:
			if intVals[i].Valid {
				rec.SetAttribute(f.Name, intVals[i].Int64)
			} else {
				rec.SetAttribute(f.Name, nil)
			}
		case featurestore.TypeDateTime:
			if strVals[i].Valid {
				rec.SetAttribute(f.Name, parseDateTime(strVals[i].String))
			} else {
				rec.SetAttribute(f.Name, nil)
			}
		default:
			if strVals[i].Valid {
				rec.SetAttribute(f.Name, strVals[i].String)
			} else {
				rec.SetAttribute(f.Name, nil)
			}
		}
	}
	if len(geomBlob) > 0 {
		pt, err := decodeGeometry(geomBlob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode geometry of %s row %d: %w", c.table, id, err)
		}
		rec.SetGeometry(pt)
	}
	return rec, nil
}

func (c *Collection) Iterate(ctx context.Context, fn func(*featurestore.Record) error) error {
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY %s`,
		c.selectColumns(), quoteIdent(c.table), quoteIdent(c.pkColumn))
	rows, err := c.q().Query(query)
	if err != nil {
		return fmt.Errorf("failed to iterate %s: %w", c.table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iteration interrupted: %w", err)
		}
		rec, err := c.scanRecord(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate %s: %w", c.table, err)
	}
	return nil
}

func (c *Collection) FindByAttribute(field string, value featurestore.Value) ([]*featurestore.Record, error) {
	if _, ok := c.Field(field); !ok {
		return nil, fmt.Errorf("no field %q in table %s", field, c.table)
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ? ORDER BY %s`,
		c.selectColumns(), quoteIdent(c.table), quoteIdent(field), quoteIdent(c.pkColumn))
	rows, err := c.q().Query(query, toSQLValue(value))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*featurestore.Record
	for rows.Next() {
		rec, err := c.scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", c.table, err)
	}
	return out, nil
}

func (c *Collection) BeginEdit() error {
	if !c.store.writable {
		return featurestore.ErrReadOnly
	}
	if c.tx != nil {
		return fmt.Errorf("edit session already open on %s", c.table)
	}
	tx, err := c.store.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin edit session on %s: %w", c.table, err)
	}
	c.tx = tx
	return nil
}

func (c *Collection) CommitEdit() error {
	if c.tx == nil {
		return featurestore.ErrNotEditing
	}
	err := c.tx.Commit()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("failed to commit edit session on %s: %w", c.table, err)
	}
	return nil
}

func (c *Collection) RollbackEdit() error {
	if c.tx == nil {
		return featurestore.ErrNotEditing
	}
	err := c.tx.Rollback()
	c.tx = nil
	if err != nil {
		return fmt.Errorf("failed to roll back edit session on %s: %w", c.table, err)
	}
	return nil
}

func (c *Collection) Insert(rec *featurestore.Record) error {
	if c.tx == nil {
		return featurestore.ErrNotEditing
	}
	cols := make([]string, 0, len(c.fields)+1)
	args := make([]any, 0, len(c.fields)+1)
	for _, f := range c.fields {
		cols = append(cols, quoteIdent(f.Name))
		args = append(args, toSQLValue(rec.Attribute(f.Name)))
	}
	if c.geomColumn != "" {
		cols = append(cols, quoteIdent(c.geomColumn))
		blob, err := encodeGeometry(rec.Geometry(), c.srid)
		if err != nil {
			return fmt.Errorf("failed to encode geometry for %s: %w", c.table, err)
		}
		args = append(args, blob)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(c.table), strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	res, err := c.tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", c.table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new row id of %s: %w", c.table, err)
	}
	rec.ID = id
	return nil
}

func (c *Collection) Update(rec *featurestore.Record) error {
	if c.tx == nil {
		return featurestore.ErrNotEditing
	}
	sets := make([]string, 0, len(c.fields)+1)
	args := make([]any, 0, len(c.fields)+2)
	for _, f := range c.fields {
		sets = append(sets, quoteIdent(f.Name)+" = ?")
		args = append(args, toSQLValue(rec.Attribute(f.Name)))
	}
	if c.geomColumn != "" {
		blob, err := encodeGeometry(rec.Geometry(), c.srid)
		if err != nil {
			return fmt.Errorf("failed to encode geometry for %s: %w", c.table, err)
		}
		sets = append(sets, quoteIdent(c.geomColumn)+" = ?")
		args = append(args, blob)
	}
	args = append(args, rec.ID)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE %s = ?`,
		quoteIdent(c.table), strings.Join(sets, ", "), quoteIdent(c.pkColumn))
	res, err := c.tx.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", c.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no record with id %d in table %s", rec.ID, c.table)
	}
	return nil
}

func (c *Collection) Delete(id int64) error {
	if c.tx == nil {
		return featurestore.ErrNotEditing
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, quoteIdent(c.table), quoteIdent(c.pkColumn))
	res, err := c.tx.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", c.table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no record with id %d in table %s", id, c.table)
	}
	return nil
}

// Select stores a result selection. GeoPackage has no selection concept, so
// this lives on the collection handle for the caller to read back.
func (c *Collection) Select(ids []int64) {
	c.selection = append([]int64(nil), ids...)
}

func (c *Collection) Selection() []int64 {
	return append([]int64(nil), c.selection...)
}

// gpkgTimeLayout is the ISO8601 form GeoPackage prescribes for DATETIME.
const gpkgTimeLayout = "2006-01-02T15:04:05Z07:00"

var gpkgTimeReadLayouts = []string{
	"2006-01-02T15:04:05.999Z07:00",
	gpkgTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDateTime(s string) featurestore.Value {
	for _, layout := range gpkgTimeReadLayouts {
		if ts, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return ts
		}
	}
	// unparseable timestamps surface as their raw text
	return s
}

func toSQLValue(v featurestore.Value) any {
	if ts, ok := v.(time.Time); ok {
		return ts.Format(gpkgTimeLayout)
	}
	return v
}
