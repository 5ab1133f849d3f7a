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
	"github.com/willf/bitset"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

/*
A ScaffoldBuffer holds the calls of one scaffold of one genome,
indexed by genomic position. Positions never written hold
Unconserved. Written records which positions were written, and is
nil for buffers read from a genome file.
*/
type ScaffoldBuffer struct {
	Scaffold utils.Symbol
	Calls    []byte
	Written  *bitset.BitSet
}

func newScaffoldBuffer(scaffold utils.Symbol, size uint64) *ScaffoldBuffer {
	calls := make([]byte, size)
	for i := range calls {
		calls[i] = byte(Unconserved)
	}
	return &ScaffoldBuffer{
		Scaffold: scaffold,
		Calls:    calls,
		Written:  bitset.New(uint(size)),
	}
}

// Coverage returns the number of written positions.
func (buf *ScaffoldBuffer) Coverage() uint {
	if buf.Written == nil {
		return 0
	}
	return buf.Written.Count()
}

func (buf *ScaffoldBuffer) write(pos uint64, call byte) bool {
	if pos >= uint64(len(buf.Calls)) {
		return false
	}
	buf.Calls[pos] = call
	buf.Written.Set(uint(pos))
	return true
}

// A Genome maps scaffolds to their buffers.
type Genome struct {
	Species   utils.Symbol
	scaffolds map[utils.Symbol]*ScaffoldBuffer
	order     []*ScaffoldBuffer
}

// Scaffolds returns the buffers in the order their scaffolds were
// first seen.
func (genome *Genome) Scaffolds() []*ScaffoldBuffer {
	return genome.order
}

// Scaffold returns the buffer for a scaffold, or nil.
func (genome *Genome) Scaffold(name string) *ScaffoldBuffer {
	return genome.scaffolds[utils.Intern(name)]
}

func (genome *Genome) buffer(record *maf.Record) *ScaffoldBuffer {
	if buf, found := genome.scaffolds[record.Scaffold]; found {
		return buf
	}
	buf := newScaffoldBuffer(record.Scaffold, record.SrcSize)
	genome.scaffolds[record.Scaffold] = buf
	genome.order = append(genome.order, buf)
	return buf
}

/*
A GenomeIndex accumulates the calls of alignment blocks into
per-genome, per-scaffold buffers.

Record starts are used as buffer offsets as they are, that is,
relative to the record's strand. With ProjectReverseStrand set,
minus-strand offsets p are stored at SrcSize-1-p instead.
*/
type GenomeIndex struct {
	ProjectReverseStrand bool

	genomes map[utils.Symbol]*Genome
	order   []*Genome
}

// NewGenomeIndex returns an empty index for the given species.
func NewGenomeIndex(species ...string) *GenomeIndex {
	index := &GenomeIndex{genomes: make(map[utils.Symbol]*Genome)}
	for _, name := range species {
		symbol := utils.Intern(name)
		if _, found := index.genomes[symbol]; found {
			continue
		}
		genome := &Genome{Species: symbol, scaffolds: make(map[utils.Symbol]*ScaffoldBuffer)}
		index.genomes[symbol] = genome
		index.order = append(index.order, genome)
	}
	return index
}

// Genomes returns the genomes of the index in the order they were
// requested.
func (index *GenomeIndex) Genomes() []*Genome {
	return index.order
}

// Genome returns the genome of a species, or nil.
func (index *GenomeIndex) Genome(species string) *Genome {
	return index.genomes[utils.Intern(species)]
}

/*
Accumulate writes the calls of a block into the buffers of the
in-group records of requested genomes.

The calls of an ungapped record are copied to [Start, Start+Size).
For a gapped record, each non-gap base receives the call of its
column, at consecutive genomic offsets. Earlier calls at the same
positions are overwritten. Writes outside of a buffer are counted as
anomalies.
*/
func (index *GenomeIndex) Accumulate(block *maf.SortedBlock, calls []byte) (written, anomalies int) {
	for _, record := range block.In {
		genome := index.genomes[record.Species]
		if genome == nil {
			continue
		}
		buf := genome.buffer(record)
		reverse := index.ProjectReverseStrand && record.Strand == '-'
		if !reverse && record.Size == uint64(len(calls)) && len(record.Sequence) == len(calls) {
			w, a := buf.copyCalls(record.Start, calls)
			written += w
			anomalies += a
			continue
		}
		offset := record.Start
		for column, base := range record.Sequence {
			if base == '-' {
				continue
			}
			if column >= len(calls) {
				anomalies++
				break
			}
			pos := offset
			if reverse {
				pos = record.SrcSize - 1 - offset
				if offset >= record.SrcSize {
					pos = uint64(len(buf.Calls))
				}
			}
			if buf.write(pos, calls[column]) {
				written++
			} else {
				anomalies++
			}
			offset++
		}
	}
	return written, anomalies
}

func (buf *ScaffoldBuffer) copyCalls(start uint64, calls []byte) (written, anomalies int) {
	size := uint64(len(buf.Calls))
	if start >= size {
		return 0, len(calls)
	}
	n := copy(buf.Calls[start:], calls)
	for i := uint64(0); i < uint64(n); i++ {
		buf.Written.Set(uint(start + i))
	}
	return n, len(calls) - n
}
