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
	"bufio"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FullPathname returns filename as an absolute path, relative to the
// current working directory.
func FullPathname(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		return filename, nil
	}
	wd, err := os.Getwd()
	return filepath.Join(wd, filename), err
}

/*
An AtomicFile is an output file that only becomes visible under its
final name once Commit succeeds. Until then, its contents are written
to a uniquely named temporary file in the same directory.
*/
type AtomicFile struct {
	*bufio.Writer
	file     *os.File
	filename string
}

// CreateAtomic creates an AtomicFile that will eventually be renamed
// to the given filename.
func CreateAtomic(filename string) (*AtomicFile, error) {
	pathname, err := FullPathname(filename)
	if err != nil {
		return nil, err
	}
	tmp := filepath.Join(filepath.Dir(pathname), "."+filepath.Base(pathname)+"."+uuid.New().String()+".tmp")
	file, err := os.Create(tmp)
	if err != nil {
		return nil, err
	}
	return &AtomicFile{
		Writer:   bufio.NewWriter(file),
		file:     file,
		filename: pathname,
	}, nil
}

// Commit flushes and closes the temporary file, and renames it to its
// final name.
func (f *AtomicFile) Commit() error {
	if err := f.Flush(); err != nil {
		f.Abort()
		return err
	}
	tmp := f.file.Name()
	if err := f.file.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, f.filename)
}

// Abort closes and removes the temporary file.
func (f *AtomicFile) Abort() {
	tmp := f.file.Name()
	_ = f.file.Close()
	_ = os.Remove(tmp)
}
