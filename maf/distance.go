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
	"fmt"

	"github.com/exascience/conservomatic/utils"
)

// An Identity is the number of identical columns of two aligned
// records. Gap columns on both sides count as identical.
type Identity struct {
	First, Second     *Record
	Identical, Length int
}

// Ratio returns Identical/Length, or 0 for empty records.
func (id Identity) Ratio() float64 {
	if id.Length == 0 {
		return 0
	}
	return float64(id.Identical) / float64(id.Length)
}

// SelectSpecies returns the first record of each given species that
// occurs in the block, in the order of the species.
func SelectSpecies(block *Block, species []utils.Symbol) (records []*Record) {
	for _, sp := range species {
		for _, record := range block.Records {
			if record.Species == sp {
				records = append(records, record)
				break
			}
		}
	}
	return records
}

// PairwiseIdentity compares every pair of records. The records must
// have aligned sequences of equal length.
func PairwiseIdentity(records []*Record) ([]Identity, error) {
	var identities []Identity
	for i := 0; i < len(records)-1; i++ {
		for j := i + 1; j < len(records); j++ {
			seq1, seq2 := records[i].Sequence, records[j].Sequence
			if len(seq1) != len(seq2) {
				return nil, fmt.Errorf("aligned sequences of %v and %v differ in length", records[i].Source(), records[j].Source())
			}
			id := Identity{First: records[i], Second: records[j], Length: len(seq1)}
			for k, c := range seq1 {
				if c == seq2[k] {
					id.Identical++
				}
			}
			identities = append(identities, id)
		}
	}
	return identities, nil
}
