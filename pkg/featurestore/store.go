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

// Package featurestore defines the attribute-table abstraction the sync
// engine works against: collections of records with typed attributes and an
// optional point geometry. Implementations live here (Memory) and in the
// gpkg subpackage (GeoPackage files).
package featurestore

import (
	"context"
	"time"

	"github.com/FileSyncProject/filesync-core/pkg/geo"
)

// FieldType is the semantic type of an attribute column.
type FieldType int

const (
	TypeString FieldType = iota
	TypeInt
	TypeLong
	TypeUInt
	TypeULong
	TypeDouble
	TypeDateTime
)

func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeUInt:
		return "uint"
	case TypeULong:
		return "ulong"
	case TypeDouble:
		return "double"
	case TypeDateTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// Integer reports whether the type belongs to the integer family. All
// integer widths are mutually assignable when mapping fields between
// collections.
func (t FieldType) Integer() bool {
	switch t {
	case TypeInt, TypeLong, TypeUInt, TypeULong:
		return true
	default:
		return false
	}
}

// Compatible reports whether a value of type b can be written into a field
// of type a.
func Compatible(a, b FieldType) bool {
	if a == b {
		return true
	}
	return a.Integer() && b.Integer()
}

// Field describes one attribute column of a collection.
type Field struct {
	Name string
	Type FieldType
}

// Value is an attribute value: nil, string, int64, float64 or time.Time
// after normalization.
type Value = any

// Normalize widens integer and float values so attribute comparison does not
// depend on the Go type a caller happened to produce.
func Normalize(v Value) Value {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x) //nolint:gosec // attribute values never reach the high bit
	case float32:
		return float64(x)
	default:
		return v
	}
}

// IsEmpty reports whether a value counts as unset for preserve-existing
// checks: nil or the empty string. Zero numbers are real values.
func IsEmpty(v Value) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

// ValuesEqual compares two normalized attribute values.
func ValuesEqual(a, b Value) bool {
	a, b = Normalize(a), Normalize(b)
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	return a == b
}

// GeometryType is the geometry kind a collection carries.
type GeometryType int

const (
	GeometryNone GeometryType = iota
	GeometryPoint
)

// Record is one row of a collection.
type Record struct {
	attrs map[string]Value
	geom  *geo.Point
	ID    int64
}

// NewRecord returns an empty record; attributes start unset (nil).
func NewRecord() *Record {
	return &Record{attrs: make(map[string]Value)}
}

func (r *Record) Attribute(name string) Value {
	return r.attrs[name]
}

func (r *Record) SetAttribute(name string, v Value) {
	r.attrs[name] = Normalize(v)
}

// Attributes returns the attribute map itself; callers must not hold onto it
// across mutations.
func (r *Record) Attributes() map[string]Value {
	return r.attrs
}

func (r *Record) Geometry() *geo.Point {
	return r.geom
}

func (r *Record) SetGeometry(p *geo.Point) {
	r.geom = p
}

// Clone returns a deep copy, ID included.
func (r *Record) Clone() *Record {
	attrs := make(map[string]Value, len(r.attrs))
	for k, v := range r.attrs {
		attrs[k] = v
	}
	var g *geo.Point
	if r.geom != nil {
		pt := *r.geom
		g = &pt
	}
	return &Record{attrs: attrs, geom: g, ID: r.ID}
}

// Collection is an ordered set of records with a fixed schema. Mutations are
// only valid between BeginEdit and CommitEdit; reads inside an edit session
// see uncommitted changes.
type Collection interface {
	Name() string
	Fields() []Field
	Field(name string) (Field, bool)
	GeometryType() GeometryType
	SRID() int
	Count() (int, error)
	Iterate(ctx context.Context, fn func(*Record) error) error
	FindByAttribute(field string, value Value) ([]*Record, error)
	IsEditable() bool
	BeginEdit() error
	CommitEdit() error
	RollbackEdit() error
	Insert(rec *Record) error
	Update(rec *Record) error
	Delete(id int64) error
	Select(ids []int64)
	Selection() []int64
}
