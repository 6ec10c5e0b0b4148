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

package featurestore

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotEditing is returned for mutations outside an edit session.
var ErrNotEditing = errors.New("collection is not in an edit session")

// ErrReadOnly is returned when an edit session is requested on a collection
// that does not accept changes.
var ErrReadOnly = errors.New("collection is read only")

// Memory is an in-memory Collection. It backs scan results and serves as the
// store fake in tests. Not safe for concurrent use.
type Memory struct {
	name      string
	fields    []Field
	geomType  GeometryType
	srid      int
	records   []*Record
	snapshot  []*Record
	selection []int64
	nextID    int64
	editable  bool
	editing   bool
}

// NewMemory creates an empty collection with the given schema. A srid of 0
// with GeometryNone is fine for plain attribute tables.
func NewMemory(name string, fields []Field, geomType GeometryType, srid int) *Memory {
	return &Memory{
		name:     name,
		fields:   append([]Field(nil), fields...),
		geomType: geomType,
		srid:     srid,
		nextID:   1,
		editable: true,
	}
}

// SetEditable toggles whether edit sessions are allowed.
func (m *Memory) SetEditable(editable bool) {
	m.editable = editable
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Fields() []Field {
	return append([]Field(nil), m.fields...)
}

func (m *Memory) Field(name string) (Field, bool) {
	for _, f := range m.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

func (m *Memory) GeometryType() GeometryType { return m.geomType }

func (m *Memory) SRID() int { return m.srid }

func (m *Memory) Count() (int, error) { return len(m.records), nil }

func (m *Memory) IsEditable() bool { return m.editable }

// Iterate visits records in insertion order. Uncommitted edits are visible.
func (m *Memory) Iterate(ctx context.Context, fn func(*Record) error) error {
	for _, rec := range m.records {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("iteration interrupted: %w", err)
		}
		if err := fn(rec.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *Memory) FindByAttribute(field string, value Value) ([]*Record, error) {
	if _, ok := m.Field(field); !ok {
		return nil, fmt.Errorf("no field %q in collection %s", field, m.name)
	}
	var out []*Record
	for _, rec := range m.records {
		if ValuesEqual(rec.Attribute(field), value) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (m *Memory) BeginEdit() error {
	if !m.editable {
		return ErrReadOnly
	}
	if m.editing {
		return errors.New("edit session already open")
	}
	m.snapshot = make([]*Record, len(m.records))
	for i, rec := range m.records {
		m.snapshot[i] = rec.Clone()
	}
	m.editing = true
	return nil
}

func (m *Memory) CommitEdit() error {
	if !m.editing {
		return ErrNotEditing
	}
	m.snapshot = nil
	m.editing = false
	return nil
}

func (m *Memory) RollbackEdit() error {
	if !m.editing {
		return ErrNotEditing
	}
	m.records = m.snapshot
	m.snapshot = nil
	m.editing = false
	return nil
}

func (m *Memory) Insert(rec *Record) error {
	if !m.editing {
		return ErrNotEditing
	}
	rec.ID = m.nextID
	m.nextID++
	m.records = append(m.records, rec.Clone())
	return nil
}

func (m *Memory) Update(rec *Record) error {
	if !m.editing {
		return ErrNotEditing
	}
	for i, existing := range m.records {
		if existing.ID == rec.ID {
			m.records[i] = rec.Clone()
			return nil
		}
	}
	return fmt.Errorf("no record with id %d in collection %s", rec.ID, m.name)
}

func (m *Memory) Delete(id int64) error {
	if !m.editing {
		return ErrNotEditing
	}
	for i, existing := range m.records {
		if existing.ID == id {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("no record with id %d in collection %s", id, m.name)
}

func (m *Memory) Select(ids []int64) {
	m.selection = append([]int64(nil), ids...)
}

func (m *Memory) Selection() []int64 {
	return append([]int64(nil), m.selection...)
}
