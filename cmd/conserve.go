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
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/exascience/conservomatic/conservation"
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/maf"
)

// ConserveHelp is the help string for this command.
const ConserveHelp = "\nconserve parameters:\n" +
	"conservomatic conserve maf-file output-dir\n" +
	"--in-group species[,species]*\n" +
	"[--out-group species[,species]*]\n" +
	"[--genomes species[,species]*]\n" +
	"[--in-thresh nr]\n" +
	"[--out-thresh nr]\n" +
	"[--presence-check]\n" +
	"[--tighten-weight nr]\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n" +
	"[--line-width nr]\n" +
	"[--project-reverse-strand]\n" +
	"[--nr-of-threads nr]\n" +
	"[--timed]\n" +
	"[--profile file]\n" +
	"[--log-path path]\n"

// Conserve implements the conservomatic conserve command.
func Conserve() error {
	var (
		inGroup, outGroup, genomes, termination, profile, logPath string
		inThresh, outThresh, tightenWeight                        float64
		windowSize, lineWidth, nrOfThreads                        int
		presenceCheck, projectReverseStrand, timed                bool
	)

	var flags flag.FlagSet

	flags.StringVar(&inGroup, "in-group", "", "comma-separated in-group species")
	flags.StringVar(&outGroup, "out-group", "", "comma-separated out-group species")
	flags.StringVar(&genomes, "genomes", "", "comma-separated species to write genome files for (default in-group)")
	flags.Float64Var(&inThresh, "in-thresh", conservation.DefaultThresholds.In, "in-group conservation threshold")
	flags.Float64Var(&outThresh, "out-thresh", conservation.DefaultThresholds.Out, "out-group conservation threshold")
	flags.BoolVar(&presenceCheck, "presence-check", false, "skip blocks with too few in-group species, and tighten thresholds")
	flags.Float64Var(&tightenWeight, "tighten-weight", 1, "weight of missing species when tightening thresholds")
	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")
	flags.IntVar(&lineWidth, "line-width", conservation.DefaultLineWidth, "line width of genome files")
	flags.BoolVar(&projectReverseStrand, "project-reverse-strand", false, "store minus-strand calls at forward-strand offsets")
	flags.IntVar(&nrOfThreads, "nr-of-threads", 0, "number of worker threads")
	flags.BoolVar(&timed, "timed", false, "measure the runtime")
	flags.StringVar(&profile, "profile", "", "write a CPU profile")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	args := parseFlags(&flags, 2, ConserveHelp)
	input, output := args[0], args[1]

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}

	in, out := splitList(inGroup), splitList(outGroup)
	if !checkSpecies("--in-group", in) {
		sanityChecksFailed = true
	}
	genomeList := splitList(genomes)
	if len(genomeList) == 0 {
		genomeList = in
	}

	policy, err := maf.ParseTerminationPolicy(termination)
	if err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}

	tightening, err := conservation.NewTighteningPolicy(tightenWeight)
	if err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}

	cfg := &conservation.Config{
		InGroup:       maf.NewSpeciesSet(in...),
		OutGroup:      maf.NewSpeciesSet(out...),
		Thresholds:    conservation.Thresholds{In: inThresh, Out: outThresh},
		PresenceCheck: presenceCheck,
		Tightening:    tightening,
	}
	if err := cfg.Validate(); err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}

	if windowSize <= 0 {
		log.Println("Error: Invalid window-size: ", windowSize)
		sanityChecksFailed = true
	}

	if nrOfThreads < 0 {
		log.Println("Error: Invalid nr-of-threads: ", nrOfThreads)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, ConserveHelp)
		os.Exit(1)
	}

	// building output command line

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " conserve ", input, " ", output)
	fmt.Fprint(&command, " --in-group ", strings.Join(in, ","))
	if len(out) > 0 {
		fmt.Fprint(&command, " --out-group ", strings.Join(out, ","))
	}
	fmt.Fprint(&command, " --genomes ", strings.Join(genomeList, ","))
	fmt.Fprint(&command, " --in-thresh ", inThresh, " --out-thresh ", outThresh)
	if presenceCheck {
		fmt.Fprint(&command, " --presence-check --tighten-weight ", tightenWeight)
	}
	fmt.Fprint(&command, " --termination ", policy)
	fmt.Fprint(&command, " --window-size ", windowSize)
	fmt.Fprint(&command, " --line-width ", lineWidth)
	if projectReverseStrand {
		fmt.Fprint(&command, " --project-reverse-strand")
	}
	if nrOfThreads > 0 {
		runtime.GOMAXPROCS(nrOfThreads)
		fmt.Fprint(&command, " --nr-of-threads ", nrOfThreads)
	}
	if timed {
		fmt.Fprint(&command, " --timed")
	}
	if profile != "" {
		fmt.Fprint(&command, " --profile ", profile)
	}
	fmt.Fprint(&command, " --log-path ", logPath)

	// executing command

	log.Println("Executing command:\n", command.String())

	fullOutput, err := internal.FullPathname(output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fullOutput, 0700); err != nil {
		return err
	}

	index := conservation.NewGenomeIndex(genomeList...)
	index.ProjectReverseStrand = projectReverseStrand

	var summary conservation.Summary
	err = timedRun(timed, profile, "Scoring alignment blocks.", 1, func() error {
		return withParser(input, windowSize, policy, func(parser *maf.Parser) (err error) {
			if nrOfThreads == 1 {
				summary, err = conservation.Run(parser, cfg, index)
			} else {
				summary, err = conservation.RunPipeline(parser, cfg, index, nrOfThreads)
			}
			return err
		})
	})
	if err != nil {
		return err
	}

	log.Printf("Scored %v blocks with %v records and %v columns, skipped %v blocks.\n",
		summary.Blocks, summary.Records, summary.Columns, summary.Skipped)
	if summary.Dropped > 0 {
		log.Printf("Warning: %v records of undeclared species were ignored.\n", summary.Dropped)
	}
	if summary.ScoringAnomalies > 0 || summary.IndexingAnomalies > 0 {
		log.Printf("Warning: %v scoring and %v indexing anomalies.\n", summary.ScoringAnomalies, summary.IndexingAnomalies)
	}

	return timedRun(timed, profile, "Writing genome files.", 2, func() error {
		if err := conservation.WriteGenomes(index, fullOutput, lineWidth); err != nil {
			return err
		}
		for _, genome := range index.Genomes() {
			var covered uint
			for _, buf := range genome.Scaffolds() {
				covered += buf.Coverage()
			}
			log.Printf("Genome %v: %v scaffolds, %v positions covered.\n", *genome.Species, len(genome.Scaffolds()), covered)
		}
		return nil
	})
}
