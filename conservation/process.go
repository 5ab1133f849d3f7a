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
	"errors"
	"io"
	"log"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/maf"
)

// Config holds the parameters of a conservation run.
type Config struct {
	InGroup, OutGroup maf.SpeciesSet
	Thresholds        Thresholds

	// PresenceCheck enables skipping blocks in which too few in-group
	// species occur, and tightening the thresholds of the others.
	PresenceCheck bool
	Tightening    TighteningPolicy
}

// Validate checks the thresholds and the in-group.
func (cfg *Config) Validate() error {
	if len(cfg.InGroup) == 0 {
		return errors.New("empty in-group")
	}
	return cfg.Thresholds.Validate()
}

/*
Admit returns the thresholds for scoring a block, and whether the
block should be scored at all.

Without PresenceCheck, every block is admitted with the configured
thresholds. Otherwise, a block whose in-group presence ratio is below
the in-group threshold is rejected, and the thresholds of the others
are adjusted by the tightening policy.
*/
func (cfg *Config) Admit(block *maf.SortedBlock) (Thresholds, bool) {
	if !cfg.PresenceCheck {
		return cfg.Thresholds, true
	}
	presence := CheckPresence(block, cfg.InGroup, cfg.OutGroup)
	if presence.InRatio() < cfg.Thresholds.In {
		return cfg.Thresholds, false
	}
	policy := cfg.Tightening
	if policy == nil {
		policy = NoTightening{}
	}
	return policy.Tighten(cfg.Thresholds, presence), true
}

// Summary collects the statistics of a conservation run.
type Summary struct {
	Blocks, Skipped   int
	Records, Dropped  int
	Columns           int
	Written           int
	ScoringAnomalies  int
	IndexingAnomalies int
}

type scoredBlock struct {
	block     *maf.SortedBlock
	calls     []byte
	anomalies int
	skipped   bool
}

func (cfg *Config) score(block *maf.SortedBlock) scoredBlock {
	th, ok := cfg.Admit(block)
	if !ok {
		return scoredBlock{block: block, skipped: true}
	}
	calls, anomalies := ScoreBlock(block, th, internal.ReserveByteBuffer())
	return scoredBlock{block: block, calls: calls, anomalies: anomalies}
}

func (summary *Summary) accumulate(index *GenomeIndex, scored scoredBlock) {
	block := scored.block
	summary.Blocks++
	summary.Records += block.Len()
	summary.Dropped += block.Dropped
	if scored.skipped {
		summary.Skipped++
		return
	}
	summary.Columns += block.Columns
	if scored.anomalies > 0 {
		log.Printf("Warning: %v unexpected bases or short records in block at line %v", scored.anomalies, block.Line)
		summary.ScoringAnomalies += scored.anomalies
	}
	written, anomalies := index.Accumulate(block, scored.calls)
	if anomalies > 0 {
		log.Printf("Warning: %v calls of block at line %v fall outside their scaffold", anomalies, block.Line)
		summary.IndexingAnomalies += anomalies
	}
	summary.Written += written
	internal.ReleaseByteBuffer(scored.calls)
}

// Run scores all blocks of a parser one by one, and accumulates the
// calls in the index.
func Run(parser *maf.Parser, cfg *Config, index *GenomeIndex) (summary Summary, err error) {
	for {
		block, err := parser.NextSorted(cfg.InGroup, cfg.OutGroup)
		if err == io.EOF {
			return summary, nil
		} else if err != nil {
			return summary, err
		}
		summary.accumulate(index, cfg.score(block))
	}
}

/*
RunPipeline performs the same work as Run in a pargo pipeline.

Blocks are parsed sequentially, scored in parallel, and accumulated
in the index strictly in input order, so the result is identical to
that of Run.
*/
func RunPipeline(parser *maf.Parser, cfg *Config, index *GenomeIndex, nrOfThreads int) (summary Summary, err error) {
	var p pipeline.Pipeline
	p.Source(maf.NewBlockSource(parser, cfg.InGroup, cfg.OutGroup))
	p.Add(
		pipeline.LimitedPar(nrOfThreads, pipeline.Receive(func(_ int, data interface{}) interface{} {
			blocks := data.([]*maf.SortedBlock)
			scored := make([]scoredBlock, len(blocks))
			for i, block := range blocks {
				scored[i] = cfg.score(block)
			}
			return scored
		})),
		pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, scored := range data.([]scoredBlock) {
				summary.accumulate(index, scored)
			}
			return nil
		})),
	)
	p.Run()
	return summary, p.Err()
}
