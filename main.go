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

// conservomatic scores the conservation of alignment columns in
// multiple alignment (MAF) files, and writes per-species genome files
// of conservation calls.
//
// Please see https://github.com/exascience/conservomatic for a
// documentation of the tool.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/exascience/conservomatic/cmd"
)

func printHelp() {
	fmt.Fprintln(os.Stderr, "Available commands: conserve, regions, bed-sum, extract, columns, tree, stats, distance")
	fmt.Fprint(os.Stderr, "\n", cmd.ConserveHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.RegionsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.BedSumHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ExtractHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.ColumnsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.TreeHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.StatsHelp)
	fmt.Fprint(os.Stderr, "\n", cmd.DistanceHelp)
}

func main() {
	fmt.Fprintln(os.Stderr, cmd.ProgramMessage)
	if len(os.Args) < 2 {
		log.Println("Incorrect number of parameters.")
		fmt.Fprint(os.Stderr, cmd.HelpMessage, "\n")
		printHelp()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "conserve":
		err = cmd.Conserve()
	case "regions":
		err = cmd.Regions()
	case "bed-sum":
		err = cmd.BedSum()
	case "extract":
		err = cmd.Extract()
	case "columns":
		err = cmd.Columns()
	case "tree":
		err = cmd.Tree()
	case "stats":
		err = cmd.Stats()
	case "distance":
		err = cmd.Distance()
	case "help", "-help", "--help", "-h", "--h":
		printHelp()
	default:
		log.Println("Unknown command", os.Args[1])
		printHelp()
		os.Exit(1)
	}
	if err != nil {
		log.Fatal(err)
	}
}
