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

// Package ops implements the three operations on top of config, metadata
// and featurestore: PreScan (scan files into a new collection), Sync
// (reconcile two collections plus the files behind them) and PostScan
// (refresh an existing collection in place).
//
// Every run produces a RunLog, a human-readable protocol of what happened.
// "✓" and "✔" mark successful steps, "⭍" marks findings.
package ops

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FileSyncProject/filesync-core/pkg/helpers/syncutil"
)

const opTab = "   "

// Progress reports per-item progress of a running operation.
type Progress func(done, total int)

// Confirm asks the user whether a large scan should proceed.
type Confirm func(numFiles int) bool

// RunLog is the protocol of one operation run.
type RunLog struct {
	ID      uuid.UUID
	Started time.Time
	Lines   []string
}

func newRunLog(operation string) *RunLog {
	l := &RunLog{ID: uuid.New(), Started: time.Now()}
	l.Lines = append(l.Lines, l.Started.Format("15:04:05")+" start "+operation)
	return l
}

func (l *RunLog) add(depth int, line string) {
	l.Lines = append(l.Lines, strings.Repeat(opTab, depth)+line)
}

func (l *RunLog) addf(depth int, format string, args ...any) {
	l.add(depth, fmt.Sprintf(format, args...))
}

func (l *RunLog) extend(lines []string) {
	l.Lines = append(l.Lines, lines...)
}

func (l *RunLog) finish(operation string) {
	l.Lines = append(l.Lines, fmt.Sprintf("%s end %s, runtime %.5f s",
		time.Now().Format("15:04:05"), operation, time.Since(l.Started).Seconds()))
}

// DefaultHistoryLimit bounds the number of retained runs.
const DefaultHistoryLimit = 50

// History keeps the most recent run logs, newest last.
type History struct {
	runs  []*RunLog
	limit int
	mu    syncutil.Mutex
}

// NewHistory creates a history keeping at most limit runs; limit <= 0 means
// DefaultHistoryLimit.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{limit: limit}
}

// Append stores a finished run, evicting the oldest beyond the limit.
func (h *History) Append(run *RunLog) {
	if run == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.runs = append(h.runs, run)
	if len(h.runs) > h.limit {
		h.runs = h.runs[len(h.runs)-h.limit:]
	}
}

// Runs returns a copy of the retained runs, oldest first.
func (h *History) Runs() []*RunLog {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*RunLog(nil), h.runs...)
}
