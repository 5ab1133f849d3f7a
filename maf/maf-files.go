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

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/exascience/conservomatic/utils"
)

// TerminationPolicy determines which lines end an alignment block.
type TerminationPolicy int

const (
	// TerminateOnUnrecognized ends a block at the first line that is
	// neither an "a" nor an "s" line, including "i", "e", "q" and
	// comment lines.
	TerminateOnUnrecognized TerminationPolicy = iota

	// TerminateOnBlankLine ends a block only at an empty line or at
	// the next "a" line. Other unrecognized lines are skipped.
	TerminateOnBlankLine
)

// ParseTerminationPolicy accepts "any" and "blank".
func ParseTerminationPolicy(s string) (TerminationPolicy, error) {
	switch s {
	case "any", "":
		return TerminateOnUnrecognized, nil
	case "blank":
		return TerminateOnBlankLine, nil
	default:
		return 0, fmt.Errorf("unknown block termination policy %v", s)
	}
}

func (policy TerminationPolicy) String() string {
	switch policy {
	case TerminateOnUnrecognized:
		return "any"
	case TerminateOnBlankLine:
		return "blank"
	default:
		return fmt.Sprintf("TerminationPolicy(%d)", int(policy))
	}
}

// ErrInvalidRecord is wrapped by every *RecordError.
var ErrInvalidRecord = errors.New("invalid MAF record")

// A RecordError describes a malformed "s" line.
type RecordError struct {
	Line   int
	Reason string
	Text   string
}

func (err *RecordError) Error() string {
	return fmt.Sprintf("%v in line %v: %v: %q", ErrInvalidRecord, err.Line, err.Reason, err.Text)
}

func (err *RecordError) Unwrap() error {
	return ErrInvalidRecord
}

/*
A Parser assembles the lines of a MAF file into alignment blocks.

A block starts at an "a" line and collects the subsequent "s" lines.
It ends at the next "a" line, which then starts the following block,
at the end of input, or at a line selected by the TerminationPolicy.
Lines outside of a block are skipped.
*/
type Parser struct {
	lines   *LineReader
	policy  TerminationPolicy
	scanner fieldScanner
	err     error

	pending       bool
	pendingHeader string
	pendingLine   int
}

// NewParser returns a Parser reading from r with a LineReader window
// of the given capacity.
func NewParser(r io.Reader, capacity int, policy TerminationPolicy) *Parser {
	return &Parser{lines: NewLineReader(r, capacity), policy: policy}
}

// lineTag returns the first byte of a line if it is followed by a
// blank or the end of the line, and 0 otherwise.
func lineTag(line []byte) byte {
	if len(line) == 0 || isBlank(line[0]) {
		return 0
	}
	if len(line) == 1 || isBlank(line[1]) {
		return line[0]
	}
	return 0
}

func isEmptyLine(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}

/*
Next returns the next alignment block.

It returns (nil, io.EOF) at the end of input. A malformed "s" line
discards the block under construction and yields an error for which
errors.Is(err, ErrInvalidRecord) holds. Errors, including io.EOF, are
sticky.
*/
func (p *Parser) Next() (*Block, error) {
	if p.err != nil {
		return nil, p.err
	}
	var block *Block
	if p.pending {
		block = &Block{Header: p.pendingHeader, Line: p.pendingLine}
		p.pending = false
	}
	for {
		line, err := p.lines.Next()
		if err != nil {
			p.err = err
			if err == io.EOF && block != nil {
				return block, nil
			}
			return nil, err
		}
		tag := lineTag(line)
		if block == nil {
			if tag == 'a' {
				block = &Block{Header: strings.TrimSpace(string(line[1:])), Line: p.lines.Line()}
			}
			continue
		}
		switch {
		case tag == 'a':
			p.pending = true
			p.pendingHeader = strings.TrimSpace(string(line[1:]))
			p.pendingLine = p.lines.Line()
			return block, nil
		case tag == 's':
			record, err := p.parseRecord(line)
			if err != nil {
				p.err = err
				return nil, err
			}
			block.Records = append(block.Records, record)
		case p.policy == TerminateOnBlankLine && !isEmptyLine(line):
			continue
		default:
			return block, nil
		}
	}
}

// NextSorted is Next followed by Partition.
func (p *Parser) NextSorted(in, out SpeciesSet) (*SortedBlock, error) {
	block, err := p.Next()
	if err != nil {
		return nil, err
	}
	return Partition(block, in, out), nil
}

func (p *Parser) recordError(line []byte, reason string) error {
	return &RecordError{Line: p.lines.Line(), Reason: reason, Text: string(line)}
}

// parseRecord parses "s src start size strand srcSize sequence".
func (p *Parser) parseRecord(line []byte) (*Record, error) {
	sc := &p.scanner
	sc.reset(line)
	sc.next()
	var fields [6][]byte
	n := 0
	for sc.more() {
		if n == len(fields) {
			return nil, p.recordError(line, "too many fields")
		}
		fields[n] = sc.next()
		n++
	}
	if n != len(fields) {
		return nil, p.recordError(line, fmt.Sprintf("%v fields instead of %v", n, len(fields)))
	}
	src := fields[0]
	dot := bytes.IndexByte(src, '.')
	if dot <= 0 || dot == len(src)-1 {
		return nil, p.recordError(line, "source name without species separator")
	}
	record := &Record{
		Species:  utils.InternBytes(src[:dot]),
		Scaffold: utils.InternBytes(src[dot+1:]),
	}
	var ok bool
	if record.Start, ok = parseUint(fields[1]); !ok {
		return nil, p.recordError(line, "invalid start")
	}
	if record.Size, ok = parseUint(fields[2]); !ok {
		return nil, p.recordError(line, "invalid size")
	}
	if strand := fields[3]; len(strand) != 1 || (strand[0] != '+' && strand[0] != '-') {
		return nil, p.recordError(line, "invalid strand")
	}
	record.Strand = fields[3][0]
	if record.SrcSize, ok = parseUint(fields[4]); !ok {
		return nil, p.recordError(line, "invalid source size")
	}
	record.Sequence = append([]byte(nil), fields[5]...)
	return record, nil
}

// An InputFile is an opened, possibly compressed, MAF file.
type InputFile struct {
	io.Reader
	file   *os.File
	closer func() error
}

/*
Open opens a MAF file for reading. Gzip and BGZF compressed files are
recognized by their contents. The names "-" and "/dev/stdin" denote
standard input.
*/
func Open(name string) (*InputFile, error) {
	var file *os.File
	if name == "-" || name == "/dev/stdin" {
		file = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		file = f
	}
	r, closer, err := utils.OpenCompressed(bufio.NewReaderSize(file, DefaultWindowSize))
	if err != nil {
		if file != os.Stdin {
			_ = file.Close()
		}
		return nil, fmt.Errorf("%v, while opening MAF file %v", err, name)
	}
	return &InputFile{Reader: r, file: file, closer: closer}, nil
}

// Close closes the decompressor, if any, and the file.
func (input *InputFile) Close() error {
	err := input.closer()
	if input.file != os.Stdin {
		if nerr := input.file.Close(); err == nil {
			err = nerr
		}
	}
	return err
}
