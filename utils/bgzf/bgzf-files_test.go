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
	"encoding/binary"
	"hash/crc32"
	"io/ioutil"
	"testing"
)

func appendBlock(t *testing.T, out []byte, data []byte) []byte {
	var cdata bytes.Buffer
	w, err := flate.NewWriter(&cdata, flate.DefaultCompression)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	total := 18 + cdata.Len() + 8
	out = append(out, 0x1f, 0x8b, 0x08, 0x04, 0, 0, 0, 0, 0, 0xff, 6, 0, 'B', 'C', 2, 0)
	out = append(out, byte(total-1), byte((total-1)>>8))
	out = append(out, cdata.Bytes()...)
	var tail [8]byte
	binary.LittleEndian.PutUint32(tail[0:4], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(tail[4:8], uint32(len(data)))
	return append(out, tail[:]...)
}

var eofMarker = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xff, 0x06, 0x00,
	0x42, 0x43, 0x02, 0x00, 0x1b, 0x00,
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00,
}

func TestReader(t *testing.T) {
	parts := []string{"##maf version=1\n", "a score=1\ns hg38.chr1 0 4 + 100 ACGT\n", "\n"}
	var file []byte
	for _, part := range parts {
		file = appendBlock(t, file, []byte(part))
	}
	file = append(file, eofMarker...)

	buf := bufio.NewReader(bytes.NewReader(file))
	if ok, err := IsBgzf(buf); err != nil || !ok {
		t.Fatal("IsBgzf failed")
	}
	r, err := NewReader(buf)
	if err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if string(data) != parts[0]+parts[1]+parts[2] {
		t.Errorf("Reader returned %q", data)
	}
}

func TestIsGzip(t *testing.T) {
	var plain bytes.Buffer
	w := gzip.NewWriter(&plain)
	_, _ = w.Write([]byte("a\n"))
	_ = w.Close()
	buf := bufio.NewReader(bytes.NewReader(plain.Bytes()))
	if ok, _ := IsGzip(buf); !ok {
		t.Error("IsGzip 1 failed")
	}
	if ok, _ := IsBgzf(buf); ok {
		t.Error("IsBgzf on plain gzip failed")
	}
	if ok, err := IsGzip(bufio.NewReader(bytes.NewReader(nil))); ok || err != nil {
		t.Error("IsGzip on empty input failed")
	}
	if ok, err := IsBgzf(bufio.NewReader(bytes.NewReader([]byte("a\n")))); ok || err != nil {
		t.Error("IsBgzf on short input failed")
	}
}
