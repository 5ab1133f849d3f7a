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

package fasta

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// MaxLineLength is the longest FASTA line ParseFasta accepts.
const MaxLineLength = 1 << 30

// A Record is one entry of a FASTA file.
type Record struct {
	Name     string
	Sequence []byte
}

// SplitName splits a "species.scaffold" record name at the first
// dot. The scaffold is empty if there is no dot.
func SplitName(name string) (species, scaffold string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

func nameFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	return string(b[i:j])
}

// ParseFasta sequentially parses FASTA records in file order. Empty
// lines are skipped.
func ParseFasta(r io.Reader) (records []Record, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, MaxLineLength)
	var current *Record
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			records = append(records, Record{Name: nameFromHeader(b)})
			current = &records[len(records)-1]
			continue
		}
		if current == nil {
			return nil, fmt.Errorf("invalid FASTA input - missing first header")
		}
		current.Sequence = append(current.Sequence, bytes.TrimRight(b, " \t")...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%v, while parsing FASTA input", err)
	}
	return records, nil
}

// WriteRecord writes a FASTA record with the sequence wrapped at
// lineWidth bases. A non-positive lineWidth writes the sequence on a
// single line.
func WriteRecord(out *bufio.Writer, name string, sequence []byte, lineWidth int) error {
	if err := out.WriteByte('>'); err != nil {
		return err
	}
	if _, err := out.WriteString(name); err != nil {
		return err
	}
	if err := out.WriteByte('\n'); err != nil {
		return err
	}
	if lineWidth <= 0 {
		lineWidth = len(sequence)
	}
	for len(sequence) > 0 {
		n := lineWidth
		if n > len(sequence) {
			n = len(sequence)
		}
		if _, err := out.Write(sequence[:n]); err != nil {
			return err
		}
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
		sequence = sequence[n:]
	}
	return nil
}

// MappedFasta is a FASTA file mapped into memory.
type MappedFasta struct {
	data []byte
	file *os.File
}

// OpenMapped maps a FASTA file into memory for reading.
func OpenMapped(filename string) (*MappedFasta, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if stat.Size() == 0 {
		return &MappedFasta{file: file}, nil
	}
	data, err := unix.Mmap(int(file.Fd()), 0, int(stat.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("%v, while mapping FASTA file %v", err, filename)
	}
	return &MappedFasta{data: data, file: file}, nil
}

// Records parses the mapped file.
func (fasta *MappedFasta) Records() ([]Record, error) {
	return ParseFasta(bytes.NewReader(fasta.data))
}

// Close unmaps and closes the file.
func (fasta *MappedFasta) Close() error {
	var err error
	if fasta.data != nil {
		err = unix.Munmap(fasta.data)
		fasta.data = nil
	}
	if nerr := fasta.file.Close(); err == nil {
		err = nerr
	}
	return err
}

// ParseFastaFile parses a FASTA file through a memory mapping.
func ParseFastaFile(filename string) (records []Record, err error) {
	fasta, err := OpenMapped(filename)
	if err != nil {
		return nil, err
	}
	defer func() {
		if nerr := fasta.Close(); err == nil {
			err = nerr
		}
	}()
	return fasta.Records()
}
