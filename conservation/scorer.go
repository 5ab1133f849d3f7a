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

	"github.com/exascience/conservomatic/maf"
)

// A Call classifies one alignment column. Calls are the digits '0',
// '1' and '2'.
type Call byte

// The conservation calls.
const (
	Unconserved      Call = '0'
	InGroupConserved Call = '1'
	FullyConserved   Call = '2'
)

// ValidCall reports whether c is one of the conservation calls.
func ValidCall(c byte) bool {
	return c == byte(Unconserved) || c == byte(InGroupConserved) || c == byte(FullyConserved)
}

// Thresholds are the minimum plurality scores for the in-group and
// the out-group.
type Thresholds struct {
	In, Out float64
}

// DefaultThresholds is used when no thresholds are specified.
var DefaultThresholds = Thresholds{In: 0.7, Out: 0.7}

// Validate checks that both thresholds are in (0, 1].
func (th Thresholds) Validate() error {
	if !(th.In > 0 && th.In <= 1) {
		return fmt.Errorf("invalid in-group threshold %v, must be in (0, 1]", th.In)
	}
	if !(th.Out > 0 && th.Out <= 1) {
		return fmt.Errorf("invalid out-group threshold %v, must be in (0, 1]", th.Out)
	}
	return nil
}

// TallyBases enumerates the tallied bases. Ties between pluralities
// are broken in this order.
const TallyBases = "AGCT-"

const noBase = -1

func tallyIndex(base byte) int {
	switch base {
	case 'A', 'a':
		return 0
	case 'G', 'g':
		return 1
	case 'C', 'c':
		return 2
	case 'T', 't':
		return 3
	case '-':
		return 4
	case 'N', 'n':
		return noBase
	default:
		return noBase - 1
	}
}

// A Tally counts the bases of one alignment column.
type Tally struct {
	counts [len(TallyBases)]int
	total  int
}

// Reset clears the tally.
func (tally *Tally) Reset() {
	*tally = Tally{}
}

// Add counts a base. N is ignored. Add returns false for bytes that
// are neither a base, a gap, nor N.
func (tally *Tally) Add(base byte) bool {
	switch i := tallyIndex(base); {
	case i >= 0:
		tally.counts[i]++
		tally.total++
		return true
	case i == noBase:
		return true
	default:
		return false
	}
}

// Total returns the number of tallied bases.
func (tally *Tally) Total() int {
	return tally.total
}

// Plurality returns the most frequent base and its share of the
// total. The score of an empty tally is 0.
func (tally *Tally) Plurality() (base byte, score float64) {
	if tally.total == 0 {
		return 0, 0
	}
	best := 0
	for i := 1; i < len(tally.counts); i++ {
		if tally.counts[i] > tally.counts[best] {
			best = i
		}
	}
	return TallyBases[best], float64(tally.counts[best]) / float64(tally.total)
}

func (tally *Tally) addColumn(records []*maf.Record, column int) (anomalies int) {
	for _, record := range records {
		if column >= len(record.Sequence) || !tally.Add(record.Sequence[column]) {
			anomalies++
		}
	}
	return anomalies
}

/*
ScoreColumn classifies one alignment column.

The column is Unconserved when the in-group has no tallied bases, or
when its plurality score is below th.In. Otherwise it is
InGroupConserved, unless the out-group has tallied bases, agrees on
the plurality base, and reaches th.Out, in which case it is
FullyConserved.

Bytes that are not bases, and records shorter than the column, are
counted as anomalies and otherwise ignored.
*/
func ScoreColumn(in, out []*maf.Record, column int, th Thresholds) (Call, int) {
	var tally Tally
	anomalies := tally.addColumn(in, column)
	if tally.Total() == 0 {
		return Unconserved, anomalies
	}
	inBase, inScore := tally.Plurality()
	if inScore < th.In {
		return Unconserved, anomalies
	}
	tally.Reset()
	anomalies += tally.addColumn(out, column)
	if tally.Total() == 0 {
		return InGroupConserved, anomalies
	}
	outBase, outScore := tally.Plurality()
	if outBase != inBase || outScore < th.Out {
		return InGroupConserved, anomalies
	}
	return FullyConserved, anomalies
}

// ScoreBlock appends the calls of all columns of the block to calls,
// and returns the extended slice and the number of anomalies.
func ScoreBlock(block *maf.SortedBlock, th Thresholds, calls []byte) ([]byte, int) {
	anomalies := 0
	for column := 0; column < block.Columns; column++ {
		call, n := ScoreColumn(block.In, block.Out, column, th)
		calls = append(calls, byte(call))
		anomalies += n
	}
	return calls, anomalies
}
