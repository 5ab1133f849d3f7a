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

package utils

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/exascience/conservomatic/utils/bgzf"
)

// OpenCompressed checks whether the given reader produces a BGZF or
// a plain gzip stream by peeking at the gzip header. It returns a
// bgzf.Reader for BGZF input, a gzip.Reader for other gzip input, or
// the given reader unchanged. The returned close function releases
// any decompressor, but never closes the underlying reader.
func OpenCompressed(buf *bufio.Reader) (r io.Reader, close func() error, err error) {
	noop := func() error { return nil }
	isBgzf, err := bgzf.IsBgzf(buf)
	if err != nil {
		return nil, noop, err
	}
	if isBgzf {
		r, err := bgzf.NewReader(buf)
		if err != nil {
			return nil, noop, err
		}
		return r, r.Close, nil
	}
	isGzip, err := bgzf.IsGzip(buf)
	if err != nil {
		return nil, noop, err
	}
	if isGzip {
		r, err := gzip.NewReader(buf)
		if err != nil {
			return nil, noop, fmt.Errorf("%v, while opening gzip input", err)
		}
		return r, r.Close, nil
	}
	return buf, noop, nil
}
