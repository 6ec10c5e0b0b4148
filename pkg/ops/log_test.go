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
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLogLineShape(t *testing.T) {
	t.Parallel()

	run := newRunLog("PreScan")
	run.add(1, "✓ first")
	run.addf(2, "#%d '%s'", 7, "/photos/a.jpg")
	run.finish("PreScan")

	require.Len(t, run.Lines, 4)
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2} start PreScan$`, run.Lines[0])
	assert.Equal(t, "   ✓ first", run.Lines[1])
	assert.Equal(t, "      #7 '/photos/a.jpg'", run.Lines[2])
	assert.Regexp(t, `^\d{2}:\d{2}:\d{2} end PreScan, runtime \d+\.\d{5} s$`, run.Lines[3])
	assert.NotEqual(t, [16]byte{}, [16]byte(run.ID))
}

func TestHistoryEvictsOldest(t *testing.T) {
	t.Parallel()

	h := NewHistory(3)
	var all []*RunLog
	for i := 0; i < 5; i++ {
		run := newRunLog(fmt.Sprintf("Run%d", i))
		all = append(all, run)
		h.Append(run)
	}
	h.Append(nil)

	runs := h.Runs()
	require.Len(t, runs, 3)
	assert.Same(t, all[2], runs[0])
	assert.Same(t, all[4], runs[2])
}
