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
	"log"
	"os"

	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/utils"
)

// DistanceHelp is the help string for this command.
const DistanceHelp = "\ndistance parameters:\n" +
	"conservomatic distance maf-file\n" +
	"--species species[,species]*\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n"

// Distance implements the conservomatic distance command.
func Distance() error {
	var (
		species, termination string
		windowSize           int
	)

	var flags flag.FlagSet

	flags.StringVar(&species, "species", "", "comma-separated species to compare")
	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")

	args := parseFlags(&flags, 1, DistanceHelp)
	input := args[0]

	policy, err := maf.ParseTerminationPolicy(termination)
	if err != nil {
		return err
	}
	speciesList := splitList(species)
	if !checkExist("", input) || !checkSpecies("--species", speciesList) || windowSize <= 0 {
		fmt.Fprint(os.Stderr, DistanceHelp)
		os.Exit(1)
	}
	symbols := make([]utils.Symbol, len(speciesList))
	for i, name := range speciesList {
		symbols[i] = utils.Intern(name)
	}

	out := bufio.NewWriter(os.Stdout)
	fmt.Fprintln(out, "line\tfirst\tsecond\tidentical\tlength\tidentity")
	err = withParser(input, windowSize, policy, func(parser *maf.Parser) error {
		for {
			block, err := parser.Next()
			if err == io.EOF {
				return nil
			} else if err != nil {
				return err
			}
			identities, err := maf.PairwiseIdentity(maf.SelectSpecies(block, symbols))
			if err != nil {
				log.Printf("Warning: %v, in block at line %v\n", err, block.Line)
				continue
			}
			for _, id := range identities {
				fmt.Fprintf(out, "%v\t%v\t%v\t%v\t%v\t%.4f\n", block.Line,
					id.First.Source(), id.Second.Source(), id.Identical, id.Length, id.Ratio())
			}
		}
	})
	if err != nil {
		return err
	}
	return out.Flush()
}
