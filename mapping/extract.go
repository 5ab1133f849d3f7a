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
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/exascience/conservomatic/fasta"
	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

// A BlockIterator yields alignment blocks in file order, and io.EOF
// at the end. *maf.Parser is a BlockIterator.
type BlockIterator interface {
	Next() (*maf.Block, error)
}

// A SubAlignment holds one row of bases per species.
type SubAlignment struct {
	Species []string
	Rows    [][]byte
	// Mapped counts the columns for which a block was found.
	Mapped int
}

// NewSubAlignment returns a SubAlignment with rows of the given
// length, filled with gaps.
func NewSubAlignment(species []string, columns int) *SubAlignment {
	sub := &SubAlignment{Species: species, Rows: make([][]byte, len(species))}
	for i := range sub.Rows {
		row := make([]byte, columns)
		for j := range row {
			row[j] = '-'
		}
		sub.Rows[i] = row
	}
	return sub
}

// Append appends the columns of another sub-alignment with the same
// species.
func (sub *SubAlignment) Append(other *SubAlignment) error {
	if len(other.Rows) != len(sub.Rows) {
		return fmt.Errorf("cannot append a sub-alignment of %v species to one of %v species", len(other.Rows), len(sub.Rows))
	}
	for i, row := range other.Rows {
		sub.Rows[i] = append(sub.Rows[i], row...)
	}
	sub.Mapped += other.Mapped
	return nil
}

// Write writes one FASTA record per species.
func (sub *SubAlignment) Write(out *bufio.Writer, lineWidth int) error {
	for i, row := range sub.Rows {
		if err := fasta.WriteRecord(out, sub.Species[i], row, lineWidth); err != nil {
			return err
		}
	}
	return nil
}

// MapOptions configures MapPositions.
type MapOptions struct {
	// Reference is the species whose coordinates the positions are in.
	Reference string
	// Scaffold restricts the reference records to one scaffold, if
	// not empty.
	Scaffold string
	// Species lists the rows of the sub-alignment.
	Species []string
}

/*
MapPositions extracts the bases of the requested species at the given
reference positions.

Column i of the result corresponds to positions[i]. The blocks must
be ordered by reference position. Positions before the current block,
NoPosition entries, and positions no block covers remain gaps.
*/
func MapPositions(blocks BlockIterator, positions []int64, opts MapOptions) (*SubAlignment, error) {
	sub := NewSubAlignment(opts.Species, len(positions))
	reference := utils.Intern(opts.Reference)
	var scaffold utils.Symbol
	if opts.Scaffold != "" {
		scaffold = utils.Intern(opts.Scaffold)
	}
	species := make([]utils.Symbol, len(opts.Species))
	for i, name := range opts.Species {
		species[i] = utils.Intern(name)
	}
	rows := make([]*maf.Record, len(species))
	index := 0
	for index < len(positions) {
		block, err := blocks.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		record := findRecord(block.Records, reference, scaffold)
		if record == nil {
			continue
		}
		start, end := int64(record.Start), int64(record.End())
		mapper := NewColumnMapper(record)
		for i, sp := range species {
			rows[i] = findRecord(block.Records, sp, nil)
		}
	positionLoop:
		for ; index < len(positions); index++ {
			pos := positions[index]
			switch {
			case pos == NoPosition, pos < start:
				continue
			case pos >= end:
				break positionLoop
			}
			column, err := mapper.Column(uint64(pos))
			if err != nil {
				if !errors.Is(err, ErrOutsideSpan) {
					return nil, err
				}
				log.Printf("Warning: %v, in block at line %v", err, block.Line)
				continue
			}
			for i, row := range rows {
				if row != nil && column < len(row.Sequence) {
					sub.Rows[i][index] = row.Sequence[column]
				}
			}
			sub.Mapped++
		}
	}
	return sub, nil
}
