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


package cmd

import (
	"reflect"
	"testing"

	"github.com/exascience/conservomatic/conservation"
)

func TestSplitList(t *testing.T) {
	if !reflect.DeepEqual(splitList("hg38, mm10,,rn6"), []string{"hg38", "mm10", "rn6"}) {
		t.Error("splitList failed")
	}
	if splitList("") != nil {
		t.Error("empty splitList failed")
	}
}

func TestExpandScaffold(t *testing.T) {
	if expandScaffold("maf/{scaffold}.maf.gz", "chr2") != "maf/chr2.maf.gz" {
		t.Error("expandScaffold failed")
	}
	if expandScaffold("all.maf", "chr2") != "all.maf" {
		t.Error("expandScaffold without pattern failed")
	}
}

func TestColumnPositions(t *testing.T) {
	buf := &conservation.ScaffoldBuffer{Calls: []byte("0120110")}
	if !reflect.DeepEqual(columnPositions(buf, '1', 2), []int64{1, 4}) {
		t.Error("columnPositions 1 failed")
	}
	if !reflect.DeepEqual(columnPositions(buf, '1', 10), []int64{1, 4, 5}) {
		t.Error("columnPositions 2 failed")
	}
	if columnPositions(buf, '2', 0) != nil {
		t.Error("columnPositions 3 failed")
	}
}

func TestReadOutputName(t *testing.T) {
	if name, err := readOutputName("read1"); err != nil || name != "read1-regions.fasta" {
		t.Error("readOutputName failed")
	}
	for _, name := range []string{"", ".", "..", "../read1", "dir/read1", "a\\b"} {
		if _, err := readOutputName(name); err == nil {
			t.Errorf("invalid read name %q accepted", name)
		}
	}
}
