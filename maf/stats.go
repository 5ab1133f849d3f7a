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
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/exascience/conservomatic/utils"
)

// A Series keeps the values of one statistic, one value per block.
type Series struct {
	values []float64
	sorted bool
}

// Add adds a value to the series.
func (s *Series) Add(x float64) {
	s.values = append(s.values, x)
	s.sorted = false
}

// N returns the number of values.
func (s *Series) N() int {
	return len(s.values)
}

// Mean returns the mean, or 0 for an empty series.
func (s *Series) Mean() float64 {
	if len(s.values) == 0 {
		return 0
	}
	return stat.Mean(s.values, nil)
}

// Variance returns the population variance, or 0 for fewer than two
// values.
func (s *Series) Variance() float64 {
	n := len(s.values)
	if n < 2 {
		return 0
	}
	_, variance := stat.MeanVariance(s.values, nil)
	return variance * float64(n-1) / float64(n)
}

// Quantile returns the empirical p-quantile, or 0 for an empty series.
// p must be in (0, 1].
func (s *Series) Quantile(p float64) float64 {
	if len(s.values) == 0 {
		return 0
	}
	if !s.sorted {
		sort.Float64s(s.values)
		s.sorted = true
	}
	return stat.Quantile(p, stat.Empirical, s.values, nil)
}

// SpeciesStats describes the blocks a species occurs in.
type SpeciesStats struct {
	Species utils.Symbol
	// Records per block, and block length, over the blocks the
	// species occurs in.
	Records, Length Series
}

// Stats describes the blocks of a MAF file.
type Stats struct {
	Records, Species, Lengths Series

	perSpecies map[utils.Symbol]*SpeciesStats
	order      []*SpeciesStats
	counts     map[utils.Symbol]int
}

// NewStats returns empty statistics.
func NewStats() *Stats {
	return &Stats{
		perSpecies: make(map[utils.Symbol]*SpeciesStats),
		counts:     make(map[utils.Symbol]int),
	}
}

// Blocks returns the number of blocks added.
func (stats *Stats) Blocks() int {
	return stats.Records.N()
}

// Add adds a block.
func (stats *Stats) Add(block *Block) {
	for species := range stats.counts {
		delete(stats.counts, species)
	}
	var seen []utils.Symbol
	for _, record := range block.Records {
		if stats.counts[record.Species] == 0 {
			seen = append(seen, record.Species)
		}
		stats.counts[record.Species]++
	}
	stats.Lengths.Add(float64(block.Columns()))
	stats.Records.Add(float64(len(block.Records)))
	stats.Species.Add(float64(len(seen)))
	for _, species := range seen {
		s := stats.perSpecies[species]
		if s == nil {
			s = &SpeciesStats{Species: species}
			stats.perSpecies[species] = s
			stats.order = append(stats.order, s)
		}
		s.Records.Add(float64(stats.counts[species]))
		s.Length.Add(float64(block.Columns()))
	}
}

// PerSpecies returns the statistics of each species, in the order
// the species were first seen.
func (stats *Stats) PerSpecies() []*SpeciesStats {
	return stats.order
}
