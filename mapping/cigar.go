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
	"log"
	"unicode"
)

// NoPosition marks an alignment column of a read that has no
// reference coordinate, that is, an inserted base.
const NoPosition int64 = -1

// CigarOperations lists the CIGAR operation codes, in both cases.
const CigarOperations = "MmIiDdNnSsHhPpXx="

var cigarOperationsTable = make(map[byte]byte, len(CigarOperations))

func init() {
	for _, c := range CigarOperations {
		cigarOperationsTable[byte(c)] = byte(unicode.ToUpper(c))
	}
}

func isDigit(char byte) bool { return ('0' <= char) && (char <= '9') }

/*
ReadPositions holds the reference coordinates of the alignment columns
of a read.

Positions has one entry per column, NoPosition for insertions.
Aligned holds the read base of each column, and '-' for deletions.
*/
type ReadPositions struct {
	Scaffold  string
	Name      string
	Positions []int64
	Aligned   []byte
}

// Len returns the number of alignment columns.
func (read *ReadPositions) Len() int {
	return len(read.Positions)
}

type cigarDecoder struct {
	positions []int64
	aligned   []byte
	reference int64
	base      int
	sequence  string
}

func (dec *cigarDecoder) readBases(n int) (string, error) {
	if dec.base+n > len(dec.sequence) {
		return "", fmt.Errorf("CIGAR string consumes more than the %v bases of the read", len(dec.sequence))
	}
	bases := dec.sequence[dec.base : dec.base+n]
	dec.base += n
	return bases, nil
}

func (dec *cigarDecoder) apply(operation byte, length int) error {
	switch operation {
	case 'M', '=', 'X':
		bases, err := dec.readBases(length)
		if err != nil {
			return err
		}
		for i := 0; i < length; i++ {
			dec.positions = append(dec.positions, dec.reference)
			dec.reference++
		}
		dec.aligned = append(dec.aligned, bases...)
	case 'I':
		bases, err := dec.readBases(length)
		if err != nil {
			return err
		}
		for i := 0; i < length; i++ {
			dec.positions = append(dec.positions, NoPosition)
		}
		dec.aligned = append(dec.aligned, bases...)
	case 'D':
		for i := 0; i < length; i++ {
			dec.positions = append(dec.positions, dec.reference)
			dec.aligned = append(dec.aligned, '-')
			dec.reference++
		}
	case 'N':
		dec.reference += int64(length)
	case 'S':
		if _, err := dec.readBases(length); err != nil {
			return err
		}
	case 'H', 'P':
	}
	return nil
}

/*
DecodeCigar computes the alignment columns of a read with the given
CIGAR string whose first aligned base is at reference position start.

Unknown operation codes are reported in the log and their runs are
skipped. A CIGAR string of "*" yields an empty result.
*/
func DecodeCigar(cigar string, start int64, sequence string) (*ReadPositions, error) {
	dec := cigarDecoder{reference: start, sequence: sequence}
	if cigar == "*" {
		return &ReadPositions{}, nil
	}
	for i := 0; i < len(cigar); {
		j := i
		length := 0
		for ; j < len(cigar) && isDigit(cigar[j]); j++ {
			length = length*10 + int(cigar[j]-'0')
			if length > 1<<28 {
				return nil, fmt.Errorf("CIGAR operation length too large, while decoding CIGAR string %v", cigar)
			}
		}
		if j == len(cigar) {
			return nil, fmt.Errorf("trailing digits without operation, while decoding CIGAR string %v", cigar)
		}
		if j == i {
			return nil, fmt.Errorf("missing length for operation %c, while decoding CIGAR string %v", cigar[j], cigar)
		}
		if operation := cigarOperationsTable[cigar[j]]; operation != 0 {
			if err := dec.apply(operation, length); err != nil {
				return nil, fmt.Errorf("%v, while decoding CIGAR string %v", err, cigar)
			}
		} else {
			log.Printf("Warning: unknown CIGAR operation %q in %v, skipping %v positions", cigar[j], cigar, length)
		}
		i = j + 1
	}
	return &ReadPositions{Positions: dec.positions, Aligned: dec.aligned}, nil
}
