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
	"bytes"
	"errors"
	"fmt"
	"io"
)

// DefaultWindowSize is the window capacity used when a non-positive
// capacity is passed to NewLineReader.
const DefaultWindowSize = 64 * 1024

const maxConsecutiveEmptyReads = 100

// ErrLineTooLong is returned when a line is longer than the window
// capacity of a LineReader.
var ErrLineTooLong = errors.New("MAF line longer than the line reader window")

/*
A LineReader presents an io.Reader as a sequence of complete lines.

It owns a fixed window of bytes. When no terminator is found in the
unread part of the window, the unterminated tail is moved to the
window start and the remainder of the window is refilled from the
underlying reader. Lines of up to capacity bytes are accepted; the
window holds one extra byte for the terminator.
*/
type LineReader struct {
	r          io.Reader
	buf        []byte
	capacity   int
	start, end int
	line       int
	err        error
}

// NewLineReader returns a LineReader with a window of the given
// capacity.
func NewLineReader(r io.Reader, capacity int) *LineReader {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &LineReader{r: r, buf: make([]byte, capacity+1), capacity: capacity}
}

// Line returns the 1-based number of the line most recently returned
// by Next.
func (lr *LineReader) Line() int {
	return lr.line
}

func dropCR(line []byte) []byte {
	if n := len(line); n > 0 && line[n-1] == '\r' {
		return line[:n-1]
	}
	return line
}

func (lr *LineReader) fill() {
	for i := 0; i < maxConsecutiveEmptyReads; i++ {
		n, err := lr.r.Read(lr.buf[lr.end:])
		if n < 0 {
			n = 0
		}
		lr.end += n
		if err != nil {
			if err != io.EOF {
				err = fmt.Errorf("%v, while reading MAF input", err)
			}
			lr.err = err
			return
		}
		if n > 0 {
			return
		}
	}
	lr.err = io.ErrNoProgress
}

/*
Next returns the next line without its terminator. A trailing '\r' is
removed as well. The returned slice is only valid until the next call
of Next.

At the end of input, Next returns io.EOF. A final line without a
terminator is returned before io.EOF. All other errors are sticky.
*/
func (lr *LineReader) Next() ([]byte, error) {
	for {
		if i := bytes.IndexByte(lr.buf[lr.start:lr.end], '\n'); i >= 0 {
			line := lr.buf[lr.start : lr.start+i]
			lr.start += i + 1
			lr.line++
			return dropCR(line), nil
		}
		if lr.err != nil {
			if lr.err == io.EOF && lr.start < lr.end {
				if lr.end-lr.start > lr.capacity {
					lr.err = fmt.Errorf("%w at line %v", ErrLineTooLong, lr.line+1)
					return nil, lr.err
				}
				line := lr.buf[lr.start:lr.end]
				lr.start = lr.end
				lr.line++
				return dropCR(line), nil
			}
			return nil, lr.err
		}
		if lr.start > 0 {
			copy(lr.buf, lr.buf[lr.start:lr.end])
			lr.end -= lr.start
			lr.start = 0
		}
		if lr.end == len(lr.buf) {
			lr.err = fmt.Errorf("%w at line %v", ErrLineTooLong, lr.line+1)
			return nil, lr.err
		}
		lr.fill()
	}
}
