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
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/exascience/conservomatic/maf"
)

// StatsHelp is the help string for this command.
const StatsHelp = "\nstats parameters:\n" +
	"conservomatic stats maf-file\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n"

// Stats implements the conservomatic stats command.
func Stats() error {
	var (
		termination string
		windowSize  int
	)

	var flags flag.FlagSet

	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")

	args := parseFlags(&flags, 1, StatsHelp)
	input := args[0]

	policy, err := maf.ParseTerminationPolicy(termination)
	if err != nil {
		return err
	}
	if !checkExist("", input) || windowSize <= 0 {
		fmt.Fprint(os.Stderr, StatsHelp)
		os.Exit(1)
	}

	stats := maf.NewStats()
	err = withParser(input, windowSize, policy, func(parser *maf.Parser) error {
		for {
			block, err := parser.Next()
			if err == io.EOF {
				return nil
			} else if err != nil {
				return err
			}
			stats.Add(block)
		}
	})
	if err != nil {
		return err
	}

	out := bufio.NewWriter(os.Stdout)
	fmt.Fprintf(out, "blocks\t%v\n", stats.Blocks())
	fmt.Fprintf(out, "records per block\t%.3f\t%.3f\n", stats.Records.Mean(), stats.Records.Variance())
	fmt.Fprintf(out, "species per block\t%.3f\t%.3f\n", stats.Species.Mean(), stats.Species.Variance())
	fmt.Fprintf(out, "block length quartiles\t%v\t%v\t%v\n", stats.Lengths.Quantile(0.25), stats.Lengths.Quantile(0.5), stats.Lengths.Quantile(0.75))
	fmt.Fprintln(out, "species\tblocks\trecords per block\tvariance\tlength\tvariance")
	for _, s := range stats.PerSpecies() {
		fmt.Fprintf(out, "%v\t%v\t%.3f\t%.3f\t%.1f\t%.3f\n", *s.Species, s.Records.N(),
			s.Records.Mean(), s.Records.Variance(),
			s.Length.Mean(), s.Length.Variance())
	}
	return out.Flush()
}
