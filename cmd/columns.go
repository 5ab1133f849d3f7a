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
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/mapping"
)

// ColumnsHelp is the help string for this command.
const ColumnsHelp = "\ncolumns parameters:\n" +
	"conservomatic columns cons-fasta maf-file output\n" +
	"--species species[,species]*\n" +
	"--num-columns nr\n" +
	"[--reference species]\n" +
	"[--mark [0 | 1 | 2]]\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n" +
	"[--line-width nr]\n" +
	"[--log-path path]\n" +
	"The maf-file may contain {scaffold}, which is replaced by each scaffold name.\n"

// columnPositions returns the offsets of the first n calls equal to
// mark in the scaffold.
func columnPositions(buf *conservation.ScaffoldBuffer, mark byte, n int) (positions []int64) {
	for i, c := range buf.Calls {
		if len(positions) == n {
			break
		}
		if c == mark {
			positions = append(positions, int64(i))
		}
	}
	return positions
}

// Columns implements the conservomatic columns command.
func Columns() error {
	var (
		reference, species, mark, termination, logPath string
		numColumns, windowSize, lineWidth              int
	)

	var flags flag.FlagSet

	flags.StringVar(&reference, "reference", "", "species of the genome file (default from the file)")
	flags.StringVar(&species, "species", "", "comma-separated species to extract")
	flags.IntVar(&numColumns, "num-columns", 0, "number of columns to extract")
	flags.StringVar(&mark, "mark", "1", "call of the positions to extract")
	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")
	flags.IntVar(&lineWidth, "line-width", 0, "line width of the output file")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	args := parseFlags(&flags, 3, ColumnsHelp)
	input, mafFile, output := args[0], args[1], args[2]

	if err := setLogOutput(logPath); err != nil {
		return err
	}

	// sanity checks

	var sanityChecksFailed bool

	if !checkExist("", input) {
		sanityChecksFailed = true
	}
	if !checkExistPattern("", mafFile) {
		sanityChecksFailed = true
	}
	if !checkCreate("", output) {
		sanityChecksFailed = true
	}
	speciesList := splitList(species)
	if !checkSpecies("--species", speciesList) {
		sanityChecksFailed = true
	}
	if numColumns <= 0 {
		log.Println("Error: Invalid num-columns: ", numColumns)
		sanityChecksFailed = true
	}
	if len(mark) != 1 || !conservation.ValidCall(mark[0]) {
		log.Println("Error: Invalid mark: ", mark)
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
		fmt.Fprint(os.Stderr, ColumnsHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " columns ", input, " ", mafFile, " ", output)
	if reference != "" {
		fmt.Fprint(&command, " --reference ", reference)
	}
	fmt.Fprint(&command, " --species ", strings.Join(speciesList, ","))
	fmt.Fprint(&command, " --num-columns ", numColumns)
	fmt.Fprint(&command, " --mark ", mark)
	fmt.Fprint(&command, " --termination ", policy)
	fmt.Fprint(&command, " --window-size ", windowSize)
	fmt.Fprint(&command, " --line-width ", lineWidth)
	fmt.Fprint(&command, " --log-path ", logPath)

	log.Println("Executing command:\n", command.String())

	genome, err := conservation.ReadGenome(input)
	if err != nil {
		return err
	}
	if reference == "" {
		reference = *genome.Species
	}

	result := mapping.NewSubAlignment(speciesList, 0)
	for _, buf := range genome.Scaffolds() {
		remaining := numColumns - len(result.Rows[0])
		if remaining == 0 {
			break
		}
		positions := columnPositions(buf, mark[0], remaining)
		if len(positions) == 0 {
			continue
		}
		err := withParser(expandScaffold(mafFile, *buf.Scaffold), windowSize, policy, func(parser *maf.Parser) error {
			sub, err := mapping.MapPositions(parser, positions, mapping.MapOptions{
				Reference: reference,
				Scaffold:  *buf.Scaffold,
				Species:   speciesList,
			})
			if err != nil {
				return err
			}
			return result.Append(sub)
		})
		if err != nil {
			return fmt.Errorf("%v, while extracting columns of scaffold %v", err, *buf.Scaffold)
		}
	}

	columns := len(result.Rows[0])
	if columns < numColumns {
		log.Printf("Warning: Only %v of %v requested columns are marked.\n", columns, numColumns)
	}
	log.Printf("Mapped %v of %v columns.\n", result.Mapped, columns)

	out, err := internal.CreateAtomic(output)
	if err != nil {
		return err
	}
	if err := result.Write(out.Writer, lineWidth); err != nil {
		out.Abort()
		return err
	}
	return out.Commit()
}
