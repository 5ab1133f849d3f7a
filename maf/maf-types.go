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

/*
A Record represents one "s" line of a MAF alignment block.

Start is relative to the strand: on the minus strand it counts from
the end of the source sequence. Sequence is owned by the record.
*/
type Record struct {
	Species  utils.Symbol
	Scaffold utils.Symbol
	Start    uint64
	Size     uint64
	Strand   byte
	SrcSize  uint64
	Sequence []byte
}

// End returns Start+Size.
func (rec *Record) End() uint64 {
	return rec.Start + rec.Size
}

// Source returns the source name as it appears in the MAF file.
func (rec *Record) Source() string {
	return *rec.Species + "." + *rec.Scaffold
}

// Gapped reports whether the aligned sequence contains gaps.
func (rec *Record) Gapped() bool {
	return uint64(len(rec.Sequence)) != rec.Size
}

// A Block is one alignment block of a MAF file.
type Block struct {
	// Header is the text after the "a" of the block header line.
	Header string
	// Line is the line number of the block header.
	Line    int
	Records []*Record
}

// Columns returns the sequence length of the first record, or 0 for
// an empty block.
func (block *Block) Columns() int {
	if len(block.Records) == 0 {
		return 0
	}
	return len(block.Records[0].Sequence)
}

/*
A SortedBlock is a Block whose records are partitioned into an
in-group and an out-group. Records in neither group are only counted.

len(In) + len(Out) + Dropped always equals the number of records of
the original block.
*/
type SortedBlock struct {
	Header  string
	Line    int
	In, Out []*Record
	Dropped int
	Columns int
}

// Len returns the number of records of the original block.
func (block *SortedBlock) Len() int {
	return len(block.In) + len(block.Out) + block.Dropped
}
