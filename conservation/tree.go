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

package conservation

import (
	"io"

	"github.com/willf/bitset"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

// MaxMissingTreeSpecies is the number of tree species a block may lack
// and still contribute columns.
const MaxMissingTreeSpecies = 2

/*
A TreeCollector concatenates informative alignment columns for a set
of tree species, for phylogenetic tree construction.

A column is informative when it is InGroupConserved, that is, the
in-group agrees but the out-group does not. Species absent from a
block contribute 'N'.
*/
type TreeCollector struct {
	Species    []string
	Rows       [][]byte
	MaxColumns int
	// Blocks counts the blocks that contributed, Rejected the blocks
	// that lack too many tree species or contain one more than once.
	Blocks, Rejected int

	symbols []utils.Symbol
	records []*maf.Record
}

// NewTreeCollector returns a TreeCollector for at most maxColumns
// columns.
func NewTreeCollector(species []string, maxColumns int) *TreeCollector {
	c := &TreeCollector{
		Species:    species,
		Rows:       make([][]byte, len(species)),
		MaxColumns: maxColumns,
		symbols:    make([]utils.Symbol, len(species)),
		records:    make([]*maf.Record, len(species)),
	}
	for i, name := range species {
		c.symbols[i] = utils.Intern(name)
		c.Rows[i] = make([]byte, 0, maxColumns)
	}
	return c
}

// Len returns the number of collected columns.
func (c *TreeCollector) Len() int {
	if len(c.Rows) == 0 {
		return 0
	}
	return len(c.Rows[0])
}

// Full reports whether MaxColumns columns have been collected.
func (c *TreeCollector) Full() bool {
	return c.Len() >= c.MaxColumns
}

func (c *TreeCollector) assign(records []*maf.Record) bool {
	for _, record := range records {
		for i, species := range c.symbols {
			if record.Species == species {
				if c.records[i] != nil {
					return false
				}
				c.records[i] = record
			}
		}
	}
	return true
}

// InGroupConservedColumns returns the set of InGroupConserved columns
// of a block.
func InGroupConservedColumns(block *maf.SortedBlock, th Thresholds) *bitset.BitSet {
	mask := bitset.New(uint(block.Columns))
	for column := 0; column < block.Columns; column++ {
		if call, _ := ScoreColumn(block.In, block.Out, column, th); call == InGroupConserved {
			mask.Set(uint(column))
		}
	}
	return mask
}

// Add appends the informative columns of a block, and returns how
// many were added. It returns false for rejected blocks.
func (c *TreeCollector) Add(block *maf.SortedBlock, th Thresholds) (int, bool) {
	for i := range c.records {
		c.records[i] = nil
	}
	if !c.assign(block.In) || !c.assign(block.Out) {
		c.Rejected++
		return 0, false
	}
	found := 0
	for _, record := range c.records {
		if record != nil {
			found++
		}
	}
	if found < len(c.symbols)-MaxMissingTreeSpecies {
		c.Rejected++
		return 0, false
	}
	c.Blocks++
	mask := InGroupConservedColumns(block, th)
	added := 0
	for column, ok := mask.NextSet(0); ok && !c.Full(); column, ok = mask.NextSet(column + 1) {
		for i, record := range c.records {
			base := byte('N')
			if record != nil && int(column) < len(record.Sequence) {
				base = record.Sequence[column]
			}
			c.Rows[i] = append(c.Rows[i], base)
		}
		added++
	}
	return added, true
}

// CollectTreeColumns feeds the blocks of a parser to a new
// TreeCollector until it is full or the input ends.
func CollectTreeColumns(parser *maf.Parser, in, out maf.SpeciesSet, th Thresholds, species []string, maxColumns int) (*TreeCollector, error) {
	c := NewTreeCollector(species, maxColumns)
	for !c.Full() {
		block, err := parser.NextSorted(in, out)
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}
		c.Add(block, th)
	}
	return c, nil
}
