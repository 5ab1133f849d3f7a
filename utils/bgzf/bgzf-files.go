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

package bgzf

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/exascience/pargo/pipeline"
)

// IsGzip determines if the given reader produces a gzip stream by
// peeking at the initial bytes. Empty input is not a gzip stream.
func IsGzip(buf *bufio.Reader) (bool, error) {
	b, err := buf.Peek(2)
	if err == io.EOF || err == bufio.ErrBufferFull {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return b[0] == 0x1f && b[1] == 0x8b, nil
}

// IsBgzf determines if the given reader produces a BGZF stream,
// that is, a gzip stream whose first member carries the BC extra
// subfield.
func IsBgzf(buf *bufio.Reader) (bool, error) {
	b, err := buf.Peek(14)
	if err == io.EOF {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return b[0] == 0x1f && b[1] == 0x8b && b[3]&0x04 != 0 && b[12] == 'B' && b[13] == 'C', nil
}

// maxBgzfBlockSize defines the maximum block size for BGZF files.
const maxBgzfBlockSize = 65536

type (
	// bgzfBlock is one block of compressed or decompressed data in a
	// BGZF file.
	bgzfBlock struct {
		Data  []byte
		Crc32 uint32
		Size  uint32
	}

	// Reader reads from a BGZF file, decompressing blocks in
	// parallel.
	Reader struct {
		err     error
		r       io.Reader
		gz      *gzip.Reader
		p       pipeline.Pipeline
		w       sync.WaitGroup
		channel chan *bgzfBlock
		ctx     context.Context
		cancel  func()
		data    interface{}
		index   int
		block   *bgzfBlock
	}

	blockSource Reader
)

var blockPool = sync.Pool{New: func() interface{} {
	return &bgzfBlock{Data: make([]byte, 0, maxBgzfBlockSize)}
}}

func (src *blockSource) readBlock() (block *bgzfBlock, err error) {
	var slen int
	extra := src.gz.Extra
	for i := 0; i+4 <= len(extra); i += 4 + slen {
		slen = int(binary.LittleEndian.Uint16(extra[i+2 : i+4]))
		if extra[i] != 'B' || extra[i+1] != 'C' || slen != 2 {
			continue
		}
		bsize := int(binary.LittleEndian.Uint16(extra[i+4 : i+6]))
		block = blockPool.Get().(*bgzfBlock)
		block.Data = block.Data[:bsize-len(extra)-19]
		if _, err = io.ReadFull(src.r, block.Data); err != nil {
			return
		}
		var tail [8]byte
		if _, err = io.ReadFull(src.r, tail[:]); err != nil {
			return
		}
		block.Crc32 = binary.LittleEndian.Uint32(tail[0:4])
		block.Size = binary.LittleEndian.Uint32(tail[4:8])
		err = src.gz.Reset(src.r)
		if err != nil && err != io.EOF {
			err = fmt.Errorf("%v, while reading a BGZF block", err)
		}
		return
	}
	return nil, errors.New("missing BC extra subfield in BGZF header")
}

// Err implements the corresponding method of pipeline.Source
func (src *blockSource) Err() error {
	if src.err != io.EOF {
		return src.err
	}
	return nil
}

// Prepare implements the corresponding method of pipeline.Source
func (src *blockSource) Prepare(_ context.Context) (size int) {
	return -1
}

// Fetch implements the corresponding method of pipeline.Source
func (src *blockSource) Fetch(size int) (fetched int) {
	if src.err != nil {
		return 0
	}
	block, err := src.readBlock()
	if err != nil {
		src.err = err
		if err != io.EOF || block == nil {
			src.data = nil
			return 0
		}
	}
	src.data = block
	return 1
}

// Data implements the corresponding method of pipeline.Source
func (src *blockSource) Data() interface{} {
	return src.data
}

var flateReaderPool sync.Pool

func inflate(block *bgzfBlock) (*bgzfBlock, error) {
	blockReader := bytes.NewReader(block.Data)
	var flateReader io.ReadCloser
	if pooled := flateReaderPool.Get(); pooled == nil {
		flateReader = flate.NewReader(blockReader)
	} else {
		flateReader = pooled.(io.ReadCloser)
		if err := flateReader.(flate.Resetter).Reset(blockReader, nil); err != nil {
			flateReader = flate.NewReader(blockReader)
		}
	}
	defer flateReaderPool.Put(flateReader)
	uncompressed := blockPool.Get().(*bgzfBlock)
	uncompressed.Data = uncompressed.Data[:int(block.Size)]
	if _, err := io.ReadFull(flateReader, uncompressed.Data); err == io.EOF {
		return uncompressed, io.ErrUnexpectedEOF
	} else if err != nil {
		return uncompressed, err
	}
	if crc32.ChecksumIEEE(uncompressed.Data) != block.Crc32 {
		return uncompressed, errors.New("invalid CRC-32 value for a data block in a BGZF file")
	}
	return uncompressed, flateReader.Close()
}

// NewReader returns a Reader for the given flate.Reader.
func NewReader(r flate.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%v, while opening BGZF input", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	bgzf := &Reader{
		r:       r,
		gz:      gz,
		channel: make(chan *bgzfBlock, 1),
		ctx:     ctx,
		cancel:  cancel,
	}
	bgzf.p.Source((*blockSource)(bgzf))
	bgzf.p.Add(pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
		block := data.(*bgzfBlock)
		uncompressed, err := inflate(block)
		if err != nil {
			bgzf.p.SetErr(err)
		}
		blockPool.Put(block)
		return uncompressed
	})), pipeline.StrictOrd(pipeline.Receive(func(_ int, data interface{}) interface{} {
		select {
		case <-bgzf.ctx.Done():
		case bgzf.channel <- data.(*bgzfBlock):
		}
		return nil
	})))
	bgzf.w.Add(1)
	go func() {
		defer bgzf.w.Done()
		bgzf.p.Run()
		close(bgzf.channel)
	}()
	return bgzf, nil
}

// Close implements the corresponding method of io.Closer
func (bgzf *Reader) Close() error {
	bgzf.cancel()
	bgzf.w.Wait()
	if err := bgzf.gz.Close(); err != nil {
		return err
	}
	return bgzf.p.Err()
}

func (bgzf *Reader) fetchBlock() error {
	b, ok := <-bgzf.channel
	if !ok {
		if err := bgzf.p.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	bgzf.index = 0
	bgzf.block = b
	return nil
}

// Read implements the corresponding method of io.Reader
func (bgzf *Reader) Read(p []byte) (n int, err error) {
	for bgzf.block == nil || bgzf.index == len(bgzf.block.Data) {
		if bgzf.block != nil {
			blockPool.Put(bgzf.block)
			bgzf.block = nil
		}
		if err = bgzf.fetchBlock(); err != nil {
			return
		}
	}
	n = copy(p, bgzf.block.Data[bgzf.index:])
	bgzf.index += n
	return
}
