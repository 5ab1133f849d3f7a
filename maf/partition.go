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

package maf

import (
	"github.com/exascience/conservomatic/utils"
)

// A SpeciesSet is a set of species names, keyed by interned symbol.
type SpeciesSet map[utils.Symbol]struct{}

// NewSpeciesSet returns a SpeciesSet holding the given names. Empty
// names are ignored.
func NewSpeciesSet(names ...string) SpeciesSet {
	set := make(SpeciesSet, len(names))
	for _, name := range names {
		if name != "" {
			set[utils.Intern(name)] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the species is in the set.
func (set SpeciesSet) Contains(species utils.Symbol) bool {
	_, found := set[species]
	return found
}

/*
Partition splits the records of a block into in-group and out-group
records, preserving their order. A species in both sets counts as
in-group. Records of other species are dropped.
*/
func Partition(block *Block, in, out SpeciesSet) *SortedBlock {
	sorted := &SortedBlock{
		Header:  block.Header,
		Line:    block.Line,
		Columns: block.Columns(),
	}
	for _, record := range block.Records {
		switch {
		case in.Contains(record.Species):
			sorted.In = append(sorted.In, record)
		case out.Contains(record.Species):
			sorted.Out = append(sorted.Out, record)
		default:
			sorted.Dropped++
		}
	}
	return sorted
}
