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

package bed

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/exascience/conservomatic/utils"
)

// ParseBed parses BED content. Comment, track and browser lines are
// skipped, and the regions of each chromosome are sorted by start
// position. See https://genome.ucsc.edu/FAQ/FAQformat.html#format1
func ParseBed(r io.Reader) (*Bed, error) {
	bed := NewBed()
	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := scanner.Bytes()
		if len(line) == 0 ||
			bytes.HasPrefix(line, []byte("#")) ||
			bytes.HasPrefix(line, []byte("track")) ||
			bytes.HasPrefix(line, []byte("browser")) {
			continue
		}
		data := bytes.Split(line, []byte("\t"))
		if len(data) < 3 {
			return nil, fmt.Errorf("missing fields in BED line %v", lineNo)
		}
		start, err := strconv.ParseInt(string(data[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%v, while parsing start of BED line %v", err, lineNo)
		}
		end, err := strconv.ParseInt(string(data[2]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%v, while parsing end of BED line %v", err, lineNo)
		}
		var fields []string
		for _, field := range data[3:] {
			fields = append(fields, string(field))
		}
		region, err := NewRegion(utils.InternBytes(data[0]), start, end, fields)
		if err != nil {
			return nil, fmt.Errorf("%v, in BED line %v", err, lineNo)
		}
		bed.AddRegion(region)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%v, while reading BED input", err)
	}
	bed.sortRegions()
	return bed, nil
}

// ParseBedFile parses a BED file, which may be gzip or BGZF
// compressed.
func ParseBedFile(filename string) (bed *Bed, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := file.Close(); err == nil {
			err = nerr
		}
	}()
	r, closer, err := utils.OpenCompressed(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%v, while opening BED file %v", err, filename)
	}
	defer func() {
		if nerr := closer(); err == nil {
			err = nerr
		}
	}()
	return ParseBed(r)
}

// WriteRegion writes a region as a BED line with the chromosome,
// start, end and, if present, name columns.
func WriteRegion(out *bufio.Writer, region *Region) error {
	if _, err := out.WriteString(*region.Chrom); err != nil {
		return err
	}
	var buf [64]byte
	line := append(buf[:0], '\t')
	line = strconv.AppendInt(line, region.Start, 10)
	line = append(line, '\t')
	line = strconv.AppendInt(line, region.End, 10)
	if region.Name != "" {
		line = append(line, '\t')
		line = append(line, region.Name...)
	}
	line = append(line, '\n')
	_, err := out.Write(line)
	return err
}

// WriteBed writes all regions of a bed, chromosome by chromosome in
// order of first appearance.
func (bed *Bed) WriteBed(out *bufio.Writer) error {
	for _, chrom := range bed.Chroms {
		for _, region := range bed.RegionMap[chrom] {
			if err := WriteRegion(out, region); err != nil {
				return fmt.Errorf("%v, while writing BED output", err)
			}
		}
	}
	return out.Flush()
}
