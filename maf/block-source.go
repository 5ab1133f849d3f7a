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
	"context"
	"io"
)

/*
A BlockSource feeds the sorted blocks of a Parser into a pargo
pipeline. Each batch is a []*SortedBlock.
*/
type BlockSource struct {
	parser  *Parser
	in, out SpeciesSet
	data    []*SortedBlock
	err     error
}

// NewBlockSource returns a BlockSource partitioning blocks with the
// given species sets.
func NewBlockSource(parser *Parser, in, out SpeciesSet) *BlockSource {
	return &BlockSource{parser: parser, in: in, out: out}
}

// Err implements the method of the pipeline.Source interface.
func (src *BlockSource) Err() error {
	if src.err == io.EOF {
		return nil
	}
	return src.err
}

// Prepare implements the method of the pipeline.Source interface.
func (*BlockSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the method of the pipeline.Source interface.
func (src *BlockSource) Fetch(size int) (fetched int) {
	src.data = nil
	if src.err != nil {
		return 0
	}
	blocks := make([]*SortedBlock, 0, size)
	for fetched = 0; fetched < size; fetched++ {
		block, err := src.parser.NextSorted(src.in, src.out)
		if err != nil {
			src.err = err
			break
		}
		blocks = append(blocks, block)
	}
	src.data = blocks
	return fetched
}

// Data implements the method of the pipeline.Source interface.
func (src *BlockSource) Data() interface{} {
	return src.data
}
