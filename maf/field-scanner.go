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

package maf

/*
A fieldScanner splits a line of a MAF file into fields separated by
runs of spaces and tabs.

The zero fieldScanner is valid and empty.
*/
type fieldScanner struct {
	index int
	data  []byte
}

func isBlank(c byte) bool { return c == ' ' || c == '\t' }

func (sc *fieldScanner) reset(line []byte) {
	sc.index = 0
	sc.data = line
}

func (sc *fieldScanner) skipBlanks() {
	for sc.index < len(sc.data) && isBlank(sc.data[sc.index]) {
		sc.index++
	}
}

// next returns the next field, or nil when the line is exhausted.
func (sc *fieldScanner) next() []byte {
	sc.skipBlanks()
	start := sc.index
	for sc.index < len(sc.data) && !isBlank(sc.data[sc.index]) {
		sc.index++
	}
	if start == sc.index {
		return nil
	}
	return sc.data[start:sc.index]
}

// more reports whether another field follows.
func (sc *fieldScanner) more() bool {
	sc.skipBlanks()
	return sc.index < len(sc.data)
}

func parseUint(field []byte) (value uint64, ok bool) {
	if len(field) == 0 || len(field) > 19 {
		return 0, false
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, false
		}
		value = value*10 + uint64(c-'0')
	}
	return value, true
}
