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
	"fmt"
	"path/filepath"

	"github.com/exascience/pargo/parallel"

	"github.com/exascience/conservomatic/fasta"
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/utils"
)

// GenomeFileExtension is appended to the species name to form the
// name of a genome file.
const GenomeFileExtension = ".cons.fa"

// DefaultLineWidth is the line width of genome files.
const DefaultLineWidth = 100

// GenomeFilename returns the name of the genome file of a species in
// the given directory.
func GenomeFilename(dir, species string) string {
	return filepath.Join(dir, species+GenomeFileExtension)
}

// WriteGenome writes the scaffolds of a genome as a FASTA file with
// headers of the form ">species.scaffold" and calls as sequence.
func WriteGenome(genome *Genome, filename string, lineWidth int) error {
	out, err := internal.CreateAtomic(filename)
	if err != nil {
		return err
	}
	for _, buf := range genome.Scaffolds() {
		if err := fasta.WriteRecord(out.Writer, *genome.Species+"."+*buf.Scaffold, buf.Calls, lineWidth); err != nil {
			out.Abort()
			return fmt.Errorf("%v, while writing genome file %v", err, filename)
		}
	}
	if err := out.Commit(); err != nil {
		return fmt.Errorf("%v, while writing genome file %v", err, filename)
	}
	return nil
}

// WriteGenomes writes one genome file per genome of the index into
// dir, in parallel.
func WriteGenomes(index *GenomeIndex, dir string, lineWidth int) error {
	genomes := index.Genomes()
	errs := make([]error, len(genomes))
	parallel.Range(0, len(genomes), 0, func(low, high int) {
		for i := low; i < high; i++ {
			errs[i] = WriteGenome(genomes[i], GenomeFilename(dir, *genomes[i].Species), lineWidth)
		}
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// ReadGenome reads a genome file back into a Genome. Record names
// are split into species and scaffold at the first dot. The Written
// sets of the resulting buffers are nil.
func ReadGenome(filename string) (*Genome, error) {
	records, err := fasta.ParseFastaFile(filename)
	if err != nil {
		return nil, err
	}
	var index *GenomeIndex
	var genome *Genome
	for _, record := range records {
		species, scaffold := fasta.SplitName(record.Name)
		if genome == nil {
			index = NewGenomeIndex(species)
			genome = index.Genome(species)
		} else if species != *genome.Species {
			return nil, fmt.Errorf("genome file %v mixes species %v and %v", filename, *genome.Species, species)
		}
		buf := &ScaffoldBuffer{Scaffold: utils.Intern(scaffold), Calls: record.Sequence}
		if _, found := genome.scaffolds[buf.Scaffold]; found {
			return nil, fmt.Errorf("duplicate scaffold %v in genome file %v", scaffold, filename)
		}
		genome.scaffolds[buf.Scaffold] = buf
		genome.order = append(genome.order, buf)
	}
	if genome == nil {
		return nil, fmt.Errorf("empty genome file %v", filename)
	}
	return genome, nil
}
