// Copyright 2022 Michael J. Fromberger. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package table

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// RecordSize is the on-disk size of one chain record: two little-endian
// unsigned 64-bit integers, start index then end index.
const RecordSize = 16

// A File is an open rainbow table file positioned for appending records.
// Writes are buffered; Flush makes all appended records durable. A File
// has a single writer and is not safe for concurrent use.
type File struct {
	f    *os.File
	w    *bufio.Writer
	done int64 // records on disk plus records buffered
}

// Open opens or creates the table file at path and positions it at the
// resume point. A trailing partial record is discarded: the record count
// is the file length rounded down to a whole number of records, and the
// file is truncated to that boundary.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	done := st.Size() / RecordSize
	if st.Size()%RecordSize != 0 {
		if err := f.Truncate(done * RecordSize); err != nil {
			f.Close()
			return nil, fmt.Errorf("truncating partial record: %w", err)
		}
	}
	if _, err := f.Seek(done*RecordSize, io.SeekStart); err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, w: bufio.NewWriterSize(f, 1<<16), done: done}, nil
}

// Done returns the number of records appended to the file, counting
// records still in the write buffer.
func (t *File) Done() int64 { return t.done }

// Append appends one chain record.
func (t *File) Append(start, end uint64) error {
	var rec [RecordSize]byte
	binary.LittleEndian.PutUint64(rec[:8], start)
	binary.LittleEndian.PutUint64(rec[8:], end)
	if _, err := t.w.Write(rec[:]); err != nil {
		return err
	}
	t.done++
	return nil
}

// Flush writes all buffered records and syncs the file to stable storage.
func (t *File) Flush() error {
	if err := t.w.Flush(); err != nil {
		return err
	}
	return t.f.Sync()
}

// Close flushes any buffered records and closes the file.
func (t *File) Close() error {
	ferr := t.Flush()
	cerr := t.f.Close()
	if ferr != nil {
		return ferr
	}
	return cerr
}
