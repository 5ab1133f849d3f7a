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
	"io"
	"math"
	"strings"
	"testing"
)

func TestStats(t *testing.T) {
	parser := NewParser(strings.NewReader(testMaf), 0, TerminateOnUnrecognized)
	stats := NewStats()
	for {
		block, err := parser.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		stats.Add(block)
	}
	if stats.Blocks() != 2 || stats.Records.Mean() != 2.5 || stats.Records.Variance() != 0.25 {
		t.Errorf("record statistics failed: %+v", stats.Records)
	}
	if stats.Species.Mean() != 2.5 {
		t.Error("species statistics failed")
	}
	perSpecies := stats.PerSpecies()
	if len(perSpecies) != 4 || *perSpecies[0].Species != "hg38" {
		t.Fatal("PerSpecies failed")
	}
	hg38 := perSpecies[0]
	if hg38.Records.N() != 2 || hg38.Length.Mean() != 4.5 || math.Abs(hg38.Length.Variance()-2.25) > 1e-9 {
		t.Errorf("hg38 statistics failed: %+v", hg38)
	}
	if stats.Lengths.Quantile(1) != 6 || stats.Lengths.Quantile(0.25) != 3 {
		t.Error("Lengths.Quantile failed")
	}
	if NewStats().Lengths.Quantile(0.5) != 0 {
		t.Error("empty Lengths.Quantile failed")
	}
	var series Series
	if series.Mean() != 0 || series.Variance() != 0 {
		t.Error("empty Series failed")
	}
	series.Add(3)
	if series.Mean() != 3 || series.Variance() != 0 {
		t.Error("single value Series failed")
	}
	for _, x := range []float64{5, 7, 9} {
		series.Add(x)
	}
	if series.Mean() != 6 || math.Abs(series.Variance()-5) > 1e-9 {
		t.Errorf("Series failed: %v %v", series.Mean(), series.Variance())
	}
}
