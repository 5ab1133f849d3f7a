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

package mapping

import (
	"bufio"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

func TestDecodeCigar(t *testing.T) {
	read, err := DecodeCigar("5M2I3M", 100, "ACGTACGTAC")
	if err != nil {
		t.Fatal(err)
	}
	expected := []int64{100, 101, 102, 103, 104, NoPosition, NoPosition, 105, 106, 107}
	if !reflect.DeepEqual(read.Positions, expected) {
		t.Errorf("DecodeCigar 1 failed: %v", read.Positions)
	}
	if string(read.Aligned) != "ACGTACGTAC" || read.Len() != 10 {
		t.Error("DecodeCigar 1 aligned bases failed")
	}

	read, err = DecodeCigar("2S3M2D1M10N2=1X3H", 50, "GGACGTCAT")
	if err != nil {
		t.Fatal(err)
	}
	expected = []int64{50, 51, 52, 53, 54, 55, 66, 67, 68}
	if !reflect.DeepEqual(read.Positions, expected) {
		t.Errorf("DecodeCigar 2 failed: %v", read.Positions)
	}
	if string(read.Aligned) != "ACG--TCAT" {
		t.Errorf("DecodeCigar 2 aligned bases failed: %s", read.Aligned)
	}
}

func TestDecodeCigarErrors(t *testing.T) {
	for _, cigar := range []string{"5M3", "M5", "5M2I3M"} {
		if _, err := DecodeCigar(cigar, 0, "ACGTA"); err == nil {
			t.Errorf("DecodeCigar %v should fail", cigar)
		}
	}
	read, err := DecodeCigar("2M3Q2M", 10, "ACGT")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(read.Positions, []int64{10, 11, 12, 13}) {
		t.Errorf("unknown operation failed: %v", read.Positions)
	}
	if read, err := DecodeCigar("*", 10, "ACGT"); err != nil || read.Len() != 0 {
		t.Error("empty CIGAR failed")
	}
}

func testRecord(start, size uint64, sequence string) *maf.Record {
	return &maf.Record{
		Species:  utils.Intern("hg38"),
		Scaffold: utils.Intern("chr1"),
		Start:    start,
		Size:     size,
		Strand:   '+',
		SrcSize:  1000,
		Sequence: []byte(sequence),
	}
}

func TestColumnMapper(t *testing.T) {
	mapper := NewColumnMapper(testRecord(100, 6, "A-CG--TAC-"))
	expected := []int{0, 2, 3, 6, 7, 8}
	previous := -1
	for i, column := range expected {
		c, err := mapper.Column(uint64(100 + i))
		if err != nil {
			t.Fatal(err)
		}
		if c != column {
			t.Errorf("position %v mapped to %v instead of %v", 100+i, c, column)
		}
		if c < previous {
			t.Error("monotonicity failed")
		}
		previous = c
	}
	if c, err := mapper.Column(105); err != nil || c != 8 {
		t.Error("repeated query failed")
	}
	if c, err := mapper.Column(101); err != nil || c != 2 {
		t.Error("restart failed")
	}
	if c, err := mapper.Column(104); err != nil || c != 7 {
		t.Error("resume after restart failed")
	}
	for _, pos := range []uint64{99, 106, 2000} {
		if _, err := mapper.Column(pos); !errors.Is(err, ErrOutsideSpan) {
			t.Errorf("position %v should be outside the span", pos)
		}
	}
	short := NewColumnMapper(testRecord(0, 5, "AC-G"))
	if _, err := short.Column(3); !errors.Is(err, ErrOutsideSpan) {
		t.Error("short sequence failed")
	}
}

func TestFindRecord(t *testing.T) {
	hg := testRecord(0, 3, "ACG")
	mm := &maf.Record{Species: utils.Intern("mm10"), Scaffold: utils.Intern("chr2"), Sequence: []byte("ACG")}
	block := &maf.SortedBlock{In: []*maf.Record{hg}, Out: []*maf.Record{mm}, Columns: 3}
	if FindRecord(block, utils.Intern("hg38")) != hg || FindRecord(block, utils.Intern("mm10")) != mm {
		t.Error("FindRecord failed")
	}
	if FindRecord(block, utils.Intern("rn6")) != nil {
		t.Error("FindRecord for a missing species failed")
	}
}

const extractMaf = `a score=1
s hg38.chr1 100 4 + 1000 AC-GT
s mm10.chr5 200 5 + 900  ACTGT
s rn6.chr7  300 4 + 800  AC-GA

a score=2
s hg38.chr2 104 3 + 500 TTT
s mm10.chr5 205 3 + 900 GGG

a score=3
s hg38.chr1 106 3 + 1000 G-CA
s rn6.chr7  304 4 + 800  GTCA
`

func TestMapPositions(t *testing.T) {
	parser := maf.NewParser(strings.NewReader(extractMaf), 0, maf.TerminateOnUnrecognized)
	positions := []int64{99, 100, 101, NoPosition, 102, 103, 104, 105, 106, 107, 108, 120}
	sub, err := MapPositions(parser, positions, MapOptions{
		Reference: "hg38",
		Scaffold:  "chr1",
		Species:   []string{"mm10", "rn6"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(sub.Rows[0]) != "-AC-GT------" {
		t.Errorf("mm10 row failed: %s", sub.Rows[0])
	}
	if string(sub.Rows[1]) != "-AC-GA--GCA-" {
		t.Errorf("rn6 row failed: %s", sub.Rows[1])
	}
	if sub.Mapped != 7 {
		t.Errorf("expected 7 mapped columns, got %v", sub.Mapped)
	}
}

const testReads = `# scaffold	start	end	name	sequence	flag	cigar
chr1	100	110	read1	ACGTACGTAC	0	5M2I3M

chr2	7	9	read2	ACG	16	3M	extra
`

func TestParseReads(t *testing.T) {
	reads, err := ParseReads(strings.NewReader(testReads))
	if err != nil {
		t.Fatal(err)
	}
	if len(reads) != 2 {
		t.Fatalf("expected 2 reads, got %v", len(reads))
	}
	if reads[0].Name != "read1" || reads[0].Start != 100 || reads[0].End != 110 || reads[0].Cigar != "5M2I3M" {
		t.Errorf("read 1 failed: %+v", reads[0])
	}
	if reads[1].Scaffold != "chr2" || reads[1].Cigar != "3M" {
		t.Errorf("read 2 failed: %+v", reads[1])
	}
	positions, err := reads[0].Positions()
	if err != nil {
		t.Fatal(err)
	}
	if positions.Name != "read1" || positions.Scaffold != "chr1" || positions.Len() != 10 {
		t.Error("Read.Positions failed")
	}
	if _, err := ParseReads(strings.NewReader("chr1\tx\t3\tr\tACG\t0\t3M\n")); err == nil {
		t.Error("invalid read line should fail")
	}
	if _, err := ParseReads(strings.NewReader("chr1\t1\t3\tr\n")); err == nil {
		t.Error("short read line should fail")
	}
}

func TestSubAlignmentAppendAndWrite(t *testing.T) {
	sub := NewSubAlignment([]string{"mm10", "rn6"}, 2)
	sub.Rows[0][0] = 'A'
	other := NewSubAlignment([]string{"mm10", "rn6"}, 3)
	other.Rows[1][2] = 'C'
	other.Mapped = 1
	if err := sub.Append(other); err != nil {
		t.Fatal(err)
	}
	if sub.Mapped != 1 || string(sub.Rows[0]) != "A----" || string(sub.Rows[1]) != "----C" {
		t.Error("Append failed")
	}
	if err := sub.Append(NewSubAlignment([]string{"mm10"}, 1)); err == nil {
		t.Error("species mismatch not detected")
	}
	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := sub.Write(out, 3); err != nil {
		t.Fatal(err)
	}
	if err := out.Flush(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != ">mm10\nA--\n--\n>rn6\n---\n-C\n" {
		t.Errorf("Write failed: %q", buf.String())
	}
}
