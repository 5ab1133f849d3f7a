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
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/exascience/conservomatic/bed"
	"github.com/exascience/conservomatic/conservation"
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/intervals"
)

// RegionsHelp is the help string for this command.
const RegionsHelp = "\nregions parameters:\n" +
	"conservomatic regions cons-fasta bed-file\n" +
	"[--call [0 | 1 | 2]]\n" +
	"[--min-length nr]\n" +
	"[--break-length nr]\n" +
	"[--log-path path]\n"

// Regions implements the conservomatic regions command.
func Regions() error {
	var (
		call, logPath          string
		minLength, breakLength int
	)

	var flags flag.FlagSet

	flags.StringVar(&call, "call", "1", "call to find runs of")
	flags.IntVar(&minLength, "min-length", 100, "minimum length of a run")
	flags.IntVar(&breakLength, "break-length", 500, "number of other calls that break a run")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	args := parseFlags(&flags, 2, RegionsHelp)
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
	if len(call) != 1 || !conservation.ValidCall(call[0]) {
		log.Println("Error: Invalid call: ", call)
		sanityChecksFailed = true
	}
	if minLength < 1 {
		log.Println("Error: Invalid min-length: ", minLength)
		sanityChecksFailed = true
	}
	if breakLength < 1 {
		log.Println("Error: Invalid break-length: ", breakLength)
		sanityChecksFailed = true
	}

	if sanityChecksFailed {
		fmt.Fprint(os.Stderr, RegionsHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " regions ", input, " ", output)
	fmt.Fprint(&command, " --call ", call)
	fmt.Fprint(&command, " --min-length ", minLength)
	fmt.Fprint(&command, " --break-length ", breakLength)
	fmt.Fprint(&command, " --log-path ", logPath)

	log.Println("Executing command:\n", command.String())

	genome, err := conservation.ReadGenome(input)
	if err != nil {
		return err
	}

	regions := bed.NewBed()
	for _, buf := range genome.Scaffolds() {
		for i, run := range intervals.Runs(buf.Calls, call[0], minLength, breakLength) {
			name := fmt.Sprintf("%v.%v.%v", *genome.Species, *buf.Scaffold, i+1)
			region, err := bed.NewRegion(buf.Scaffold, run.Start, run.End, []string{name})
			if err != nil {
				return err
			}
			regions.AddRegion(region)
		}
	}

	out, err := internal.CreateAtomic(output)
	if err != nil {
		return err
	}
	if err := regions.WriteBed(out.Writer); err != nil {
		out.Abort()
		return err
	}
	if err := out.Commit(); err != nil {
		return err
	}

	log.Printf("Found %v regions covering %v positions.\n", countRegions(regions), intervals.TotalCoverage(regions))
	return nil
}

func countRegions(b *bed.Bed) (n int) {
	for _, regions := range b.RegionMap {
		n += len(regions)
	}
	return n
}

// BedSumHelp is the help string for this command.
const BedSumHelp = "\nbed-sum parameters:\n" +
	"conservomatic bed-sum bed-file\n"

// BedSum implements the conservomatic bed-sum command.
func BedSum() error {
	var flags flag.FlagSet

	args := parseFlags(&flags, 1, BedSumHelp)
	input := args[0]

	if !checkExist("", input) {
		fmt.Fprint(os.Stderr, BedSumHelp)
		os.Exit(1)
	}

	regions, err := bed.ParseBedFile(input)
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	fmt.Fprintln(out, intervals.TotalCoverage(regions))
	return out.Flush()
}
