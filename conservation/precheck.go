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
	"math"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

// Presence counts how many of the declared species occur in a block.
type Presence struct {
	InFound, InExpected   int
	OutFound, OutExpected int
}

func ratio(found, expected int) float64 {
	if expected == 0 {
		return 1
	}
	return float64(found) / float64(expected)
}

// InRatio is InFound/InExpected, or 1 if no species are expected.
func (p Presence) InRatio() float64 {
	return ratio(p.InFound, p.InExpected)
}

// OutRatio is OutFound/OutExpected, or 1 if no species are expected.
func (p Presence) OutRatio() float64 {
	return ratio(p.OutFound, p.OutExpected)
}

func countSpecies(records []*maf.Record) int {
	seen := make([]utils.Symbol, 0, len(records))
recordLoop:
	for _, record := range records {
		for _, species := range seen {
			if species == record.Species {
				continue recordLoop
			}
		}
		seen = append(seen, record.Species)
	}
	return len(seen)
}

// CheckPresence counts the distinct in-group and out-group species of
// a sorted block.
func CheckPresence(block *maf.SortedBlock, in, out maf.SpeciesSet) Presence {
	return Presence{
		InFound:     countSpecies(block.In),
		InExpected:  len(in),
		OutFound:    countSpecies(block.Out),
		OutExpected: len(out),
	}
}

// A TighteningPolicy adjusts the thresholds for a block, given the
// presence of the declared species.
type TighteningPolicy interface {
	Tighten(th Thresholds, presence Presence) Thresholds
}

// NoTightening keeps the thresholds unchanged.
type NoTightening struct{}

// Tighten implements TighteningPolicy.
func (NoTightening) Tighten(th Thresholds, _ Presence) Thresholds {
	return th
}

/*
ShortfallTightening raises each threshold by Weight times the fraction
of missing species of its group, capped at 1:

	t' = min(1, t + Weight*(1-ratio))
*/
type ShortfallTightening struct {
	Weight float64
}

// Tighten implements TighteningPolicy.
func (policy ShortfallTightening) Tighten(th Thresholds, presence Presence) Thresholds {
	return Thresholds{
		In:  math.Min(1, th.In+policy.Weight*(1-presence.InRatio())),
		Out: math.Min(1, th.Out+policy.Weight*(1-presence.OutRatio())),
	}
}

// NewTighteningPolicy returns NoTightening for weight 0, and
// ShortfallTightening otherwise.
func NewTighteningPolicy(weight float64) (TighteningPolicy, error) {
	switch {
	case weight < 0 || math.IsNaN(weight):
		return nil, fmt.Errorf("invalid tightening weight %v", weight)
	case weight == 0:
		return NoTightening{}, nil
	default:
		return ShortfallTightening{Weight: weight}, nil
	}
}
