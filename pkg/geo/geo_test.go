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

package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEPSG(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected int
		wantErr  bool
	}{
		{name: "authid", input: "EPSG:4326", expected: 4326},
		{name: "bare_code", input: "25832", expected: 25832},
		{name: "lowercase", input: "epsg:3857", expected: 3857},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "WGS84", wantErr: true},
		{name: "wrong_authority", input: "ESRI:102100", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, err := ParseEPSG(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestValidEPSG(t *testing.T) {
	t.Parallel()

	assert.True(t, ValidEPSG(4326))
	assert.True(t, ValidEPSG(3857))
	assert.False(t, ValidEPSG(0))
	assert.False(t, ValidEPSG(999999))
}

func TestTransformIdentity(t *testing.T) {
	t.Parallel()

	tr, err := NewTransform(4326, 4326)
	require.NoError(t, err)

	in := Point{X: 13.405, Y: 52.52}
	out, err := tr.Forward(in)
	require.NoError(t, err)
	assert.InDelta(t, in.X, out.X, 1e-9)
	assert.InDelta(t, in.Y, out.Y, 1e-9)
}

func TestTransformToWebMercator(t *testing.T) {
	t.Parallel()

	tr, err := NewTransform(4326, 3857)
	require.NoError(t, err)

	out, err := tr.Forward(Point{X: 0, Y: 0})
	require.NoError(t, err)
	assert.InDelta(t, 0, out.X, 1e-6)
	assert.InDelta(t, 0, out.Y, 1e-6)

	out, err = tr.Forward(Point{X: 180, Y: 0})
	require.NoError(t, err)
	assert.InDelta(t, 20037508.34, out.X, 1.0)
}

func TestPointString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "POINT (13.405 52.52)", Point{X: 13.405, Y: 52.52}.String())
	assert.Equal(t, "POINT Z (1 2 3)", Point{X: 1, Y: 2, Z: 3, HasZ: true}.String())
}
