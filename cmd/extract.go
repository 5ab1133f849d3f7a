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
	"path/filepath"
	"strings"

	"github.com/exascience/conservomatic/fasta"
	"github.com/exascience/conservomatic/internal"
	"github.com/exascience/conservomatic/maf"
	"github.com/exascience/conservomatic/mapping"
)

// ExtractHelp is the help string for this command.
const ExtractHelp = "\nextract parameters:\n" +
	"conservomatic extract reads-file maf-file output-dir\n" +
	"--reference species\n" +
	"--species species[,species]*\n" +
	"[--termination [any | blank]]\n" +
	"[--window-size nr]\n" +
	"[--line-width nr]\n" +
	"[--log-path path]\n" +
	"The maf-file may contain {scaffold}, which is replaced by the scaffold of each read.\n"

func readReads(filename string) (reads []*mapping.Read, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	return mapping.ParseReads(file)
}

// readOutputName returns the name of the output file of a read. The
// read name must be a single path element.
func readOutputName(name string) (string, error) {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("invalid read name %q for an output file", name)
	}
	return name + "-regions.fasta", nil
}

// Extract implements the conservomatic extract command.
func Extract() error {
	var (
		reference, species, termination, logPath string
		windowSize, lineWidth                    int
	)

	var flags flag.FlagSet

	flags.StringVar(&reference, "reference", "", "species the reads are aligned to")
	flags.StringVar(&species, "species", "", "comma-separated species to extract")
	flags.StringVar(&termination, "termination", "any", "lines that end an alignment block")
	flags.IntVar(&windowSize, "window-size", maf.DefaultWindowSize, "line reader window in bytes")
	flags.IntVar(&lineWidth, "line-width", 0, "line width of the output files")
	flags.StringVar(&logPath, "log-path", "", "write log files to the specified directory")

	args := parseFlags(&flags, 3, ExtractHelp)
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
	if reference == "" {
		log.Println("Error: Missing --reference species.")
		sanityChecksFailed = true
	}
	speciesList := splitList(species)
	if !checkSpecies("--species", speciesList) {
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
		fmt.Fprint(os.Stderr, ExtractHelp)
		os.Exit(1)
	}

	var command bytes.Buffer
	fmt.Fprint(&command, os.Args[0], " extract ", input, " ", mafFile, " ", output)
	fmt.Fprint(&command, " --reference ", reference)
	fmt.Fprint(&command, " --species ", strings.Join(speciesList, ","))
	fmt.Fprint(&command, " --termination ", policy)
	fmt.Fprint(&command, " --window-size ", windowSize)
	fmt.Fprint(&command, " --line-width ", lineWidth)
	fmt.Fprint(&command, " --log-path ", logPath)

	log.Println("Executing command:\n", command.String())

	fullOutput, err := internal.FullPathname(output)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(fullOutput, 0700); err != nil {
		return err
	}

	reads, err := readReads(input)
	if err != nil {
		return err
	}

	for _, read := range reads {
		outputName, err := readOutputName(read.Name)
		if err != nil {
			log.Printf("Warning: %v, skipping read.\n", err)
			continue
		}
		positions, err := read.Positions()
		if err != nil {
			log.Printf("Warning: %v, skipping read.\n", err)
			continue
		}
		var sub *mapping.SubAlignment
		err = withParser(expandScaffold(mafFile, read.Scaffold), windowSize, policy, func(parser *maf.Parser) (err error) {
			sub, err = mapping.MapPositions(parser, positions.Positions, mapping.MapOptions{
				Reference: reference,
				Scaffold:  read.Scaffold,
				Species:   speciesList,
			})
			return err
		})
		if err != nil {
			return fmt.Errorf("%v, while extracting read %v", err, read.Name)
		}
		if sub.Mapped == 0 {
			log.Printf("Warning: No alignment block covers read %v.\n", read.Name)
		}
		filename := filepath.Join(fullOutput, outputName)
		if err := writeExtracted(filename, positions, sub, lineWidth); err != nil {
			return err
		}
	}

	log.Printf("Extracted %v reads.\n", len(reads))
	return nil
}

func writeExtracted(filename string, positions *mapping.ReadPositions, sub *mapping.SubAlignment, lineWidth int) error {
	out, err := internal.CreateAtomic(filename)
	if err != nil {
		return err
	}
	if err := fasta.WriteRecord(out.Writer, positions.Name, positions.Aligned, lineWidth); err != nil {
		out.Abort()
		return err
	}
	if err := sub.Write(out.Writer, lineWidth); err != nil {
		out.Abort()
		return err
	}
	return out.Commit()
}
