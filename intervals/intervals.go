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

package intervals

import (
	"sort"

	"github.com/exascience/pargo/parallel"
	psort "github.com/exascience/pargo/sort"

	"github.com/exascience/conservomatic/bed"
)

// Interval is a half-open range [Start, End) of positions.
type Interval struct {
	Start, End int64
}

// SortByStart sorts a slice of Interval by Start position.
func SortByStart(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		return intervals[i].Start < intervals[j].Start
	})
}

type stableIntervalSorter []Interval

func (s stableIntervalSorter) SequentialSort(i, j int) {
	SortByStart(s[i:j])
}

func (s stableIntervalSorter) NewTemp() psort.StableSorter {
	return stableIntervalSorter(make([]Interval, len(s)))
}

func (s stableIntervalSorter) Len() int {
	return len(s)
}

func (s stableIntervalSorter) Less(i, j int) bool {
	return s[i].Start < s[j].Start
}

func (s stableIntervalSorter) Assign(source psort.StableSorter) func(i, j, len int) {
	dst, src := s, source.(stableIntervalSorter)
	return func(i, j, len int) {
		copy(dst[i:i+len], src[j:j+len])
	}
}

// ParallelSortByStart sorts a slice of Interval by Start position using
// a parallel stable sort.
func ParallelSortByStart(intervals []Interval) {
	psort.StableSort(stableIntervalSorter(intervals))
}

// Extend makes interval1 larger if it overlaps with interval2,
// by storing max(interval1.End, interval2.End) in interval1.End;
// otherwise, interval1 remains unchanged.
// Returns true if the two intervals overlap, false otherwise.
// interval2.Start >= interval1.Start must be true before
// calling Extend.
func (interval1 *Interval) Extend(interval2 Interval) bool {
	if interval2.Start > interval1.End {
		return false
	}
	if interval2.End > interval1.End {
		interval1.End = interval2.End
	}
	return true
}

// Flatten merges overlapping intervals into larger intervals.
// intervals must be sorted by Start before calling Flatten.
// The resulting slice is sorted by Start, and no two
// intervals in the result overlap with each other.
// The result shares memory with the intervals argument.
func Flatten(intervals []Interval) []Interval {
	for i, n := 0, len(intervals)-1; i < n; i++ {
		if intervals[i].Extend(intervals[i+1]) {
			n++
			for j := i + 1; j < n; j++ {
				if !intervals[i].Extend(intervals[j]) {
					i++
					intervals[i] = intervals[j]
				}
			}
			return intervals[:i+1]
		}
	}
	return intervals
}

const parallelFlattenGrainSize = 0x1000

// ParallelFlatten merges overlapping intervals into larger intervals,
// using a parallel algorithm.
// intervals must be sorted by Start before calling Flatten.
// The resulting slice is sorted by Start, and no two
// intervals in the result overlap with each other.
// The result shares memory with the intervals argument.
func ParallelFlatten(intervals []Interval) []Interval {
	if len(intervals) < parallelFlattenGrainSize {
		return Flatten(intervals)
	}
	half := len(intervals) >> 1
	left, right := intervals[:half], intervals[half:]
	parallel.Do(
		func() { left = ParallelFlatten(left) },
		func() { right = ParallelFlatten(right) },
	)
	for left[len(left)-1].Extend(right[0]) {
		right = right[1:]
	}
	return append(left, right...)
}

// Total returns the number of positions covered by the intervals,
// which must be flattened.
func Total(intervals []Interval) (total int64) {
	for _, interval := range intervals {
		total += interval.End - interval.Start
	}
	return total
}

/*
Runs finds the runs of the given value in a sequence.

A run starts and ends with the value, and contains fewer than
breakLength consecutive other bytes at any point. Runs shorter than
minLength are dropped.
*/
func Runs(sequence []byte, value byte, minLength, breakLength int) (runs []Interval) {
	start, last := -1, -1
	emit := func() {
		if last+1-start >= minLength {
			runs = append(runs, Interval{Start: int64(start), End: int64(last + 1)})
		}
	}
	for i, c := range sequence {
		if c != value {
			continue
		}
		if start < 0 {
			start = i
		} else if i-last-1 >= breakLength {
			emit()
			start = i
		}
		last = i
	}
	if start >= 0 {
		emit()
	}
	return runs
}

// FromBed returns the intervals of the BED regions, per chromosome.
func FromBed(b *bed.Bed) map[string][]Interval {
	intervals := make(map[string][]Interval)
	for chrom, regions := range b.RegionMap {
		for _, region := range regions {
			intervals[*chrom] = append(intervals[*chrom], Interval{Start: region.Start, End: region.End})
		}
	}
	return intervals
}

// TotalCoverage returns the number of positions covered by the
// regions of a BED file, counting overlapping regions once.
func TotalCoverage(b *bed.Bed) (total int64) {
	for _, ivals := range FromBed(b) {
		ParallelSortByStart(ivals)
		total += Total(ParallelFlatten(ivals))
	}
	return total
}
