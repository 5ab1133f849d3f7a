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

package internal

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestAtomicFile(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "out.txt")
	f, err := CreateAtomic(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("hello\n"); err != nil {
		t.Fatal(err)
	}
	if files, _ := ioutil.ReadDir(dir); len(files) != 1 || files[0].Name() == "out.txt" {
		t.Error("AtomicFile visible before Commit")
	}
	if err := f.Commit(); err != nil {
		t.Fatal(err)
	}
	data, err := ioutil.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello\n" {
		t.Errorf("AtomicFile contents %q", data)
	}
	if files, _ := ioutil.ReadDir(dir); len(files) != 1 {
		t.Error("temporary file left behind")
	}
}

func TestAtomicFileAbort(t *testing.T) {
	dir := t.TempDir()
	f, err := CreateAtomic(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("partial")
	f.Abort()
	if files, _ := ioutil.ReadDir(dir); len(files) != 0 {
		t.Error("Abort left files behind")
	}
}

func TestByteBuffer(t *testing.T) {
	buf := ReserveByteBufferOfLength(10)
	if len(buf) != 10 {
		t.Error("ReserveByteBufferOfLength failed")
	}
	ReleaseByteBuffer(buf)
	if len(ReserveByteBuffer()) != 0 {
		t.Error("ReserveByteBuffer failed")
	}
}
