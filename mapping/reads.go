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

package mapping

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"
)

// A Read is one line of a tab-separated read file:
// scaffold, start, end, name, sequence, an ignored field, and the CIGAR
// string. Further fields are ignored.
type Read struct {
	Scaffold   string
	Start, End int64
	Name       string
	Sequence   string
	Cigar      string
}

// Positions decodes the CIGAR string of the read.
func (read *Read) Positions() (*ReadPositions, error) {
	positions, err := DecodeCigar(read.Cigar, read.Start, read.Sequence)
	if err != nil {
		return nil, fmt.Errorf("%v, in read %v", err, read.Name)
	}
	positions.Scaffold = read.Scaffold
	positions.Name = read.Name
	return positions, nil
}

const readFields = 7

func parseRead(line string) (*Read, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < readFields {
		return nil, fmt.Errorf("invalid read line %v - expected at least %v fields", line, readFields)
	}
	start, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%v, while parsing start of read line %v", err, line)
	}
	end, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%v, while parsing end of read line %v", err, line)
	}
	return &Read{
		Scaffold: fields[0],
		Start:    start,
		End:      end,
		Name:     fields[3],
		Sequence: fields[4],
		Cigar:    fields[6],
	}, nil
}

// ParseReads parses a tab-separated read file in parallel. Empty lines
// and lines starting with '#' are skipped. The reads are returned in
// file order.
func ParseReads(r io.Reader) ([]*Read, error) {
	var p pipeline.Pipeline
	p.Source(pipeline.NewScanner(r))
	p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		lines := data.([]string)
		reads := make([]*Read, 0, len(lines))
		for _, line := range lines {
			if line == "" || line[0] == '#' {
				continue
			}
			read, err := parseRead(line)
			if err != nil {
				p.SetErr(err)
				return reads
			}
			reads = append(reads, read)
		}
		return reads
	})))
	var result []*Read
	p.Add(pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
		result = append(result, data.([]*Read)...)
		return nil
	})))
	p.Run()
	if err := p.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
