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
	"strings"

	"github.com/exascience/conservomatic/conservation"
	"github.com/exascience/conservomatic/fasta"
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/maf"
)

// TreeHelp is the help string for this command.
const TreeHelp = "\ntree parameters:\n" +
	"conservomatic tree maf-file output\n" +
	"--in-group species[,species]*\n" +
	"[--out-group species[,species]*]\n" +
	"--species species[,species]*\n" +
	"--num-columns nr\n" +
	"[--in-thresh nr]\n" +
	"[--out-thresh nr]\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n" +
	"[--line-width nr]\n" +
	"[--log-path path]\n"

// Tree implements the conservomatic tree command.
func Tree() error {
	var (
		inGroup, outGroup, species, termination, logPath string
		inThresh, outThresh                              float64
		numColumns, windowSize, lineWidth                int
	)

	var flags flag.FlagSet

	flags.StringVar(&inGroup, "in-group", "", "comma-separated in-group species")
	flags.StringVar(&outGroup, "out-group", "", "comma-separated out-group species")
	flags.StringVar(&species, "species", "", "comma-separated species of the tree")
	flags.IntVar(&numColumns, "num-columns", 0, "number of columns to collect")
	flags.Float64Var(&inThresh, "in-thresh", conservation.DefaultThresholds.In, "in-group conservation threshold")
	flags.Float64Var(&outThresh, "out-thresh", conservation.DefaultThresholds.Out, "out-group conservation threshold")
	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")
	flags.IntVar(&lineWidth, "line-width", 0, "line width of the output file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	args := parseFlags(&flags, 2, TreeHelp)
	input, output := args[0], args[1]

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	in, out := splitList(inGroup), splitList(outGroup)
	if !checkSpecies("--in-group", in) {
		sanityChecksFailed = true
	}
	speciesList := splitList(species)
	if !checkSpecies("--species", speciesList) {
		sanityChecksFailed = true
	}
	th := conservation.Thresholds{In: inThresh, Out: outThresh}
	if err := th.Validate(); err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}
	if numColumns <= 0 {
		log.Println("Error: Invalid num-columns: ", numColumns)
		sanityChecksFailed = true
	}
	policy, err := maf.ParseTerminationPolicy(termination)
	if err != nil {
		log.Println("Error:", err)
		sanityChecksFailed = true
	}
	if windowSize <= 0 {
		log.Println("Error: Invalid window-size: ", windowSize)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, TreeHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " tree ", input, " ", output)
	fmt.Fprint(&command, " --in-group ", strings.Join(in, ","))
	if len(out) > 0 {
		fmt.Fprint(&command, " --out-group ", strings.Join(out, ","))
	}
	fmt.Fprint(&command, " --species ", strings.Join(speciesList, ","))
	fmt.Fprint(&command, " --num-columns ", numColumns)
	fmt.Fprint(&command, " --in-thresh ", inThresh, " --out-thresh ", outThresh)
	fmt.Fprint(&command, " --termination ", policy)
	fmt.Fprint(&command, " --window-size ", windowSize)
	fmt.Fprint(&command, " --line-width ", lineWidth)
	fmt.Fprint(&command, " --log-path ", logPath)

	log.Println("Executing command:\n", command.String())

	var collector *conservation.TreeCollector
	err = withParser(input, windowSize, policy, func(parser *maf.Parser) (err error) {
		collector, err = conservation.CollectTreeColumns(parser, maf.NewSpeciesSet(in...), maf.NewSpeciesSet(out...), th, speciesList, numColumns)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("Collected %v columns from %v blocks, rejected %v blocks.\n", collector.Len(), collector.Blocks, collector.Rejected)
	if !collector.Full() {
		log.Printf("Warning: Only %v of %v requested columns found.\n", collector.Len(), numColumns)
	}

	outFile, err := internal.CreateAtomic(output)
	if err != nil {
		return err
	}
	for i, row := range collector.Rows {
		if err := fasta.WriteRecord(outFile.Writer, collector.Species[i], row, lineWidth); err != nil {
			outFile.Abort()
			return err
		}
	}
	return outFile.Commit()
}
