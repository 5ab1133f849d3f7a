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
	"bytes"
	"fmt"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

func record(source string, start, size uint64, strand byte, srcSize uint64, sequence string) *maf.Record {
	species, scaffold := source, ""
	if i := strings.IndexByte(source, '.'); i >= 0 {
		species, scaffold = source[:i], source[i+1:]
	}
	return &maf.Record{
		Species:  utils.Intern(species),
		Scaffold: utils.Intern(scaffold),
		Start:    start,
		Size:     size,
		Strand:   strand,
		SrcSize:  srcSize,
		Sequence: []byte(sequence),
	}
}

func column(bases string) (records []*maf.Record) {
	for i := range bases {
		records = append(records, record(fmt.Sprintf("sp%v.chr1", i), 0, 1, '+', 10, bases[i:i+1]))
	}
	return records
}

func TestScoreColumn(t *testing.T) {
	th := Thresholds{In: 0.7, Out: 0.7}
	if call, _ := ScoreColumn(column("AAAA"), column("AAC"), 0, th); call != InGroupConserved {
		t.Error("ScoreColumn 1 failed")
	}
	if call, _ := ScoreColumn(column("NNNN"), column("AAA"), 0, Thresholds{In: 0.01, Out: 0.01}); call != Unconserved {
		t.Error("ScoreColumn 2 failed")
	}
	if call, _ := ScoreColumn(column("aAaN"), column("AAa"), 0, th); call != FullyConserved {
		t.Error("ScoreColumn 3 failed")
	}
	if call, _ := ScoreColumn(column("AACG"), column("AAA"), 0, th); call != Unconserved {
		t.Error("ScoreColumn 4 failed")
	}
	if call, _ := ScoreColumn(column("GGGG"), column("AAA"), 0, th); call != InGroupConserved {
		t.Error("ScoreColumn 5 failed")
	}
	if call, _ := ScoreColumn(column("----"), column("--"), 0, th); call != FullyConserved {
		t.Error("ScoreColumn 6 failed")
	}
	if call, _ := ScoreColumn(column("TTT"), column("NN"), 0, th); call != InGroupConserved {
		t.Error("ScoreColumn 7 failed")
	}
	call, anomalies := ScoreColumn(column("AAA*"), nil, 0, th)
	if call != InGroupConserved || anomalies != 1 {
		t.Error("ScoreColumn anomalies failed")
	}
	if _, anomalies := ScoreColumn(column("AA"), nil, 3, th); anomalies != 2 {
		t.Error("ScoreColumn short records failed")
	}
}

func TestTally(t *testing.T) {
	var tally Tally
	for _, base := range []byte("GAGA-N") {
		tally.Add(base)
	}
	if tally.Total() != 5 {
		t.Error("Tally.Total failed")
	}
	if base, score := tally.Plurality(); base != 'A' || score != 0.4 {
		t.Errorf("Tally.Plurality tie failed: %c %v", base, score)
	}
	if tally.Add('X') {
		t.Error("Tally.Add anomaly failed")
	}
	tally.Reset()
	if base, score := tally.Plurality(); base != 0 || score != 0 {
		t.Error("empty Tally failed")
	}
}

func TestThresholds(t *testing.T) {
	if DefaultThresholds.Validate() != nil || (Thresholds{In: 1, Out: 0.1}).Validate() != nil {
		t.Error("valid thresholds failed")
	}
	for _, th := range []Thresholds{{0, 0.5}, {0.5, 1.5}, {-1, 0.5}} {
		if th.Validate() == nil {
			t.Errorf("thresholds %v should be invalid", th)
		}
	}
}

func TestScoreBlock(t *testing.T) {
	block := &maf.SortedBlock{
		In:      []*maf.Record{record("hg38.chr1", 0, 4, '+', 10, "ACGT"), record("mm10.chr1", 0, 4, '+', 10, "ACGA")},
		Out:     []*maf.Record{record("galGal6.chr1", 0, 4, '+', 10, "ACCA")},
		Columns: 4,
	}
	calls, anomalies := ScoreBlock(block, DefaultThresholds, nil)
	if string(calls) != "2210" || anomalies != 0 {
		t.Errorf("ScoreBlock failed: %s", calls)
	}
}

func TestPresence(t *testing.T) {
	in := maf.NewSpeciesSet("hg38", "mm10", "rn6")
	out := maf.NewSpeciesSet("galGal6", "xenTro9")
	block := &maf.SortedBlock{
		In:  []*maf.Record{record("hg38.chr1", 0, 1, '+', 10, "A"), record("hg38.chr2", 0, 1, '+', 10, "A"), record("mm10.chr1", 0, 1, '+', 10, "A")},
		Out: []*maf.Record{record("galGal6.chr1", 0, 1, '+', 10, "A")},
	}
	presence := CheckPresence(block, in, out)
	if presence.InFound != 2 || presence.InExpected != 3 || presence.OutFound != 1 || presence.OutExpected != 2 {
		t.Errorf("CheckPresence failed: %+v", presence)
	}
	cfg := &Config{InGroup: in, OutGroup: out, Thresholds: DefaultThresholds, PresenceCheck: true, Tightening: ShortfallTightening{Weight: 1}}
	if _, ok := cfg.Admit(block); ok {
		t.Error("Admit should reject a block lacking in-group species")
	}
	block.In = append(block.In, record("rn6.chr1", 0, 1, '+', 10, "A"))
	th, ok := cfg.Admit(block)
	if !ok || th.In != 0.7 || th.Out != 1 {
		t.Errorf("Admit failed: %v %v", th, ok)
	}
	cfg.Tightening = ShortfallTightening{Weight: 0.2}
	if th, _ := cfg.Admit(block); th.Out < 0.79 || th.Out > 0.81 {
		t.Errorf("ShortfallTightening failed: %v", th)
	}
	cfg.PresenceCheck = false
	if th, ok := cfg.Admit(&maf.SortedBlock{}); !ok || th != DefaultThresholds {
		t.Error("Admit without presence check failed")
	}
	if (Presence{}).InRatio() != 1 {
		t.Error("empty Presence failed")
	}
	if policy, err := NewTighteningPolicy(0); err != nil || policy != (NoTightening{}) {
		t.Error("NewTighteningPolicy 0 failed")
	}
	if _, err := NewTighteningPolicy(-1); err == nil {
		t.Error("NewTighteningPolicy -1 failed")
	}
}

func TestAccumulate(t *testing.T) {
	index := NewGenomeIndex("hg38", "mm10", "hg38")
	if len(index.Genomes()) != 2 {
		t.Fatal("NewGenomeIndex failed")
	}
	block := &maf.SortedBlock{
		In: []*maf.Record{
			record("hg38.chr1", 2, 4, '+', 10, "AC-GT"),
			record("mm10.chr9", 0, 5, '+', 7, "ACGTA"),
			record("rn6.chr1", 0, 5, '+', 7, "ACGTA"),
		},
		Out:     []*maf.Record{record("hg38.chr5", 0, 5, '+', 7, "ACGTA")},
		Columns: 5,
	}
	written, anomalies := index.Accumulate(block, []byte("12012"))
	if written != 9 || anomalies != 0 {
		t.Errorf("Accumulate counts failed: %v %v", written, anomalies)
	}
	hg38 := index.Genome("hg38").Scaffold("chr1")
	if string(hg38.Calls) != "0012120000" || hg38.Coverage() != 4 {
		t.Errorf("gapped Accumulate failed: %s", hg38.Calls)
	}
	if mm10 := index.Genome("mm10").Scaffold("chr9"); string(mm10.Calls) != "1201200" {
		t.Errorf("ungapped Accumulate failed: %s", mm10.Calls)
	}
	if index.Genome("hg38").Scaffold("chr5") != nil || index.Genome("rn6") != nil {
		t.Error("Accumulate of unrequested records failed")
	}

	// accumulating again silently overwrites
	written, anomalies = index.Accumulate(block, []byte("00000"))
	if written != 9 || anomalies != 0 || string(hg38.Calls) != "0000000000" || hg38.Coverage() != 4 {
		t.Error("overwriting Accumulate failed")
	}

	edge := &maf.SortedBlock{In: []*maf.Record{record("hg38.chr1", 8, 5, '+', 10, "ACGTA")}, Columns: 5}
	written, anomalies = index.Accumulate(edge, []byte("22222"))
	if written != 2 || anomalies != 3 || string(hg38.Calls) != "0000000022" {
		t.Errorf("out of range Accumulate failed: %v %v %s", written, anomalies, hg38.Calls)
	}
	if len(index.Genome("hg38").Scaffolds()) != 1 {
		t.Error("Scaffolds failed")
	}
}

func TestAccumulateReverseStrand(t *testing.T) {
	block := &maf.SortedBlock{In: []*maf.Record{record("hg38.chrM", 0, 3, '-', 5, "ACG")}, Columns: 3}
	index := NewGenomeIndex("hg38")
	index.Accumulate(block, []byte("120"))
	if buf := index.Genome("hg38").Scaffold("chrM"); string(buf.Calls) != "12000" {
		t.Errorf("strand relative Accumulate failed: %s", buf.Calls)
	}
	index = NewGenomeIndex("hg38")
	index.ProjectReverseStrand = true
	index.Accumulate(block, []byte("120"))
	if buf := index.Genome("hg38").Scaffold("chrM"); string(buf.Calls) != "00021" || buf.Coverage() != 3 {
		t.Errorf("projected Accumulate failed: %s", buf.Calls)
	}
}

func randomMaf(seed int64, blocks int) string {
	rnd := rand.New(rand.NewSource(seed))
	species := []string{"hg38", "mm10", "rn6", "panTro4", "galGal6"}
	var buf bytes.Buffer
	for b := 0; b < blocks; b++ {
		fmt.Fprintf(&buf, "a score=%v\n", b)
		consensus := make([]byte, 20)
		for i := range consensus {
			consensus[i] = "ACGT"[rnd.Intn(4)]
		}
		for s, sp := range species {
			if s > 0 && rnd.Intn(6) == 0 {
				continue
			}
			seq := make([]byte, len(consensus))
			size := 0
			for i, c := range consensus {
				switch r := rnd.Intn(10); {
				case r == 0:
					seq[i] = '-'
				case r == 1:
					seq[i] = 'N'
				case r == 2:
					seq[i] = "acgt"[rnd.Intn(4)]
				default:
					seq[i] = c
				}
				if seq[i] != '-' {
					size++
				}
			}
			fmt.Fprintf(&buf, "s %v.chr%v %v %v + 7000 %s\n", sp, b%3, b*12, size, seq)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}

func sameIndex(t *testing.T, index1, index2 *GenomeIndex) {
	t.Helper()
	for i, genome1 := range index1.Genomes() {
		genome2 := index2.Genomes()[i]
		if len(genome1.Scaffolds()) != len(genome2.Scaffolds()) {
			t.Fatal("different scaffold counts")
		}
		for j, buf1 := range genome1.Scaffolds() {
			buf2 := genome2.Scaffolds()[j]
			if buf1.Scaffold != buf2.Scaffold || !bytes.Equal(buf1.Calls, buf2.Calls) || !buf1.Written.Equal(buf2.Written) {
				t.Errorf("different buffers for %v.%v", *genome1.Species, *buf1.Scaffold)
			}
		}
	}
}

func TestRunAndRunPipeline(t *testing.T) {
	input := randomMaf(42, 500)
	cfg := &Config{
		InGroup:       maf.NewSpeciesSet("hg38", "mm10", "rn6"),
		OutGroup:      maf.NewSpeciesSet("panTro4", "galGal6"),
		Thresholds:    DefaultThresholds,
		PresenceCheck: true,
		Tightening:    ShortfallTightening{Weight: 1},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	index1 := NewGenomeIndex("hg38", "mm10")
	summary1, err := Run(maf.NewParser(strings.NewReader(input), 0, maf.TerminateOnUnrecognized), cfg, index1)
	if err != nil {
		t.Fatal(err)
	}
	index2 := NewGenomeIndex("hg38", "mm10")
	summary2, err := RunPipeline(maf.NewParser(strings.NewReader(input), 0, maf.TerminateOnUnrecognized), cfg, index2, 4)
	if err != nil {
		t.Fatal(err)
	}
	if summary1 != summary2 {
		t.Errorf("different summaries %+v and %+v", summary1, summary2)
	}
	if summary1.Blocks != 500 || summary1.Written == 0 || summary1.Skipped == 0 {
		t.Errorf("unexpected summary %+v", summary1)
	}
	sameIndex(t, index1, index2)
}

func TestRunInvalidRecord(t *testing.T) {
	input := randomMaf(7, 10) + "a score=0\ns hg38.chr1 x 1 + 10 A\n"
	cfg := &Config{InGroup: maf.NewSpeciesSet("hg38"), Thresholds: DefaultThresholds}
	if _, err := Run(maf.NewParser(strings.NewReader(input), 0, maf.TerminateOnUnrecognized), cfg, NewGenomeIndex("hg38")); err == nil {
		t.Error("Run should fail on an invalid record")
	}
	if _, err := RunPipeline(maf.NewParser(strings.NewReader(input), 0, maf.TerminateOnUnrecognized), cfg, NewGenomeIndex("hg38"), 2); err == nil {
		t.Error("RunPipeline should fail on an invalid record")
	}
}

func TestWriteGenomes(t *testing.T) {
	index := NewGenomeIndex("hg38", "mm10")
	block := &maf.SortedBlock{
		In: []*maf.Record{
			record("hg38.chr1", 0, 5, '+', 12, "ACGTA"),
			record("hg38.chr2", 0, 5, '+', 5, "ACGTA"),
			record("mm10.chr3", 1, 5, '+', 6, "ACGTA"),
		},
		Columns: 5,
	}
	index.Accumulate(block, []byte("12121"))
	dir := t.TempDir()
	if err := WriteGenomes(index, dir, 5); err != nil {
		t.Fatal(err)
	}
	genome, err := ReadGenome(filepath.Join(dir, "hg38"+GenomeFileExtension))
	if err != nil {
		t.Fatal(err)
	}
	scaffolds := genome.Scaffolds()
	if *genome.Species != "hg38" || len(scaffolds) != 2 || *scaffolds[0].Scaffold != "chr1" ||
		string(scaffolds[0].Calls) != "121210000000" || string(scaffolds[1].Calls) != "12121" {
		t.Error("WriteGenomes round trip failed")
	}
	genome, err = ReadGenome(GenomeFilename(dir, "mm10"))
	if err != nil {
		t.Fatal(err)
	}
	if string(genome.Scaffold("chr3").Calls) != "012121" {
		t.Error("WriteGenomes mm10 failed")
	}
}

func TestTreeCollector(t *testing.T) {
	th := DefaultThresholds
	in := []*maf.Record{record("hg38.chr1", 0, 3, '+', 10, "AAC"), record("mm10.chr1", 0, 3, '+', 10, "AAG")}
	out := []*maf.Record{record("panTro4.chr1", 0, 3, '+', 10, "CAC")}
	c := NewTreeCollector([]string{"hg38", "panTro4", "rn6"}, 3)
	if added, ok := c.Add(&maf.SortedBlock{In: in, Out: out, Columns: 3}, th); !ok || added != 1 {
		t.Fatalf("TreeCollector.Add failed: %v %v", added, ok)
	}
	if string(c.Rows[0]) != "A" || string(c.Rows[1]) != "C" || string(c.Rows[2]) != "N" {
		t.Error("TreeCollector rows failed")
	}
	duplicate := append([]*maf.Record{record("hg38.chr2", 0, 3, '+', 10, "AAC")}, in...)
	if _, ok := c.Add(&maf.SortedBlock{In: duplicate, Out: out, Columns: 3}, th); ok {
		t.Error("TreeCollector should reject duplicate species")
	}
	sparse := []*maf.Record{record("mm10.chr1", 0, 3, '+', 10, "AAG"), record("dog.chr1", 0, 3, '+', 10, "AAG")}
	if _, ok := c.Add(&maf.SortedBlock{In: sparse, Columns: 3}, th); ok {
		t.Error("TreeCollector should reject blocks lacking tree species")
	}
	for i := 0; i < 2; i++ {
		c.Add(&maf.SortedBlock{In: in, Out: out, Columns: 3}, th)
	}
	if c.Len() != 3 || !c.Full() || c.Blocks != 3 || c.Rejected != 2 {
		t.Errorf("TreeCollector limit failed: %v %v %v", c.Len(), c.Blocks, c.Rejected)
	}
}

func BenchmarkRun(b *testing.B) {
	input := randomMaf(7, 500)
	cfg := &Config{
		InGroup:    maf.NewSpeciesSet("hg38", "mm10", "rn6"),
		OutGroup:   maf.NewSpeciesSet("panTro4", "galGal6"),
		Thresholds: DefaultThresholds,
	}
	for i := 0; i < b.N; i++ {
		parser := maf.NewParser(strings.NewReader(input), 0, maf.TerminateOnUnrecognized)
		if _, err := Run(parser, cfg, NewGenomeIndex("hg38")); err != nil {
			b.Fatal(err)
		}
	}
}
