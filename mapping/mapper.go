// conservomatic: conservation scoring for multiple alignment files.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/conservomatic/blob/master/LICENSE.txt>.

package mapping

import (
	"errors"
	"fmt"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

// ErrOutsideSpan is returned for positions a reference record does
// not cover.
var ErrOutsideSpan = errors.New("position outside the span of the reference record")

/*
A ColumnMapper converts reference positions into alignment columns of
one record of a block.

Queries in non-decreasing order resume the scan where the previous
query stopped. A query below the previous one restarts the scan at
column 0.
*/
type ColumnMapper struct {
	record *maf.Record

	// next column to scan, and the position of the next non-gap base
	// at or after that column
	column   int
	position uint64

	resolved     bool
	lastPosition uint64
	lastColumn   int
}

// NewColumnMapper returns a ColumnMapper for the given record.
func NewColumnMapper(record *maf.Record) *ColumnMapper {
	return &ColumnMapper{record: record, position: record.Start}
}

// Record returns the reference record of the mapper.
func (m *ColumnMapper) Record() *maf.Record {
	return m.record
}

func (m *ColumnMapper) restart() {
	m.column = 0
	m.position = m.record.Start
	m.resolved = false
}

// Column returns the alignment column whose reference base is at
// the given position.
func (m *ColumnMapper) Column(pos uint64) (int, error) {
	if pos < m.record.Start || pos >= m.record.End() {
		return -1, fmt.Errorf("%w: %v not in [%v, %v) of %v", ErrOutsideSpan, pos, m.record.Start, m.record.End(), m.record.Source())
	}
	if m.resolved {
		if pos == m.lastPosition {
			return m.lastColumn, nil
		}
		if pos < m.lastPosition {
			m.restart()
		}
	}
	sequence := m.record.Sequence
	for ; m.column < len(sequence); m.column++ {
		if sequence[m.column] == '-' {
			continue
		}
		if m.position == pos {
			m.resolved = true
			m.lastPosition = pos
			m.lastColumn = m.column
			m.column++
			m.position++
			return m.lastColumn, nil
		}
		m.position++
	}
	return -1, fmt.Errorf("%w: %v has fewer bases than its size of %v", ErrOutsideSpan, m.record.Source(), m.record.Size)
}

// FindRecord returns the first record of the given species, looking
// at the in-group before the out-group, or nil.
func FindRecord(block *maf.SortedBlock, species utils.Symbol) *maf.Record {
	if record := findRecord(block.In, species, nil); record != nil {
		return record
	}
	return findRecord(block.Out, species, nil)
}

// findRecord returns the first record of the species on the given
// scaffold. A nil scaffold matches any scaffold.
func findRecord(records []*maf.Record, species, scaffold utils.Symbol) *maf.Record {
	for _, record := range records {
		if record.Species == species && (scaffold == nil || record.Scaffold == scaffold) {
			return record
		}
	}
	return nil
}
