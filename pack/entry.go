// Copyright (C) 2024 The Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package pack reads and writes package archives (PA): a header-less
// concatenation of file entries with a leading property list and a
// trailing SHA-1 digest. Grounded on the header/PboEntry/PboReader layout
// of armake's unpack.h, reworked around Go's io.Reader/io.Writer/io.Seeker
// idioms in the manner of the teacher's archive/sub-stream abstractions.
package pack

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/koffeinflummi/pbokit/core/fault"
)

// headerReader reads the header block (properties + entry table) from the
// front of an archive while tracking exactly how many bytes were consumed,
// so the caller can compute where the first entry's body begins. It reads
// in small chunks rather than requiring the whole header in memory.
type headerReader struct {
	src io.ReaderAt
	pos int64
}

func (h *headerReader) readByte() (byte, error) {
	var b [1]byte
	n, err := h.src.ReadAt(b[:], h.pos)
	if n == 1 {
		h.pos++
		return b[0], nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}
	return 0, err
}

func (h *headerReader) readN(n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := h.src.ReadAt(buf, h.pos)
	h.pos += int64(read)
	if read < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// Method is an entry's packing method.
type Method uint32

const (
	MethodNone Method = iota
	MethodVersion
	MethodCompressed
	MethodEncrypted
)

// Property is one key/value pair from the archive's header property list
// (most commonly the path "prefix").
type Property struct {
	Key   string
	Value string
}

// Entry describes one file stored in the archive.
type Entry struct {
	Name         string
	Method       Method
	OriginalSize uint32
	DataSize     uint32

	// StartOffset is the entry's absolute byte offset within the backing
	// file, computed as the running sum of prior entries' DataSize
	// starting immediately after the header block.
	StartOffset int64
}

const (
	// ErrBadMagic is not returned by Open: an archive whose first entry is
	// not a version marker is read as header-less.
	ErrBadMagic = fault.Const("pack: not a valid package archive header")
	// ErrTruncated is returned when the backing stream ends mid-header.
	ErrTruncated = fault.Const("pack: truncated archive header")
)

func (h *headerReader) readCString() (string, error) {
	var buf bytes.Buffer
	for {
		b, err := h.readByte()
		if err != nil {
			return "", ErrTruncated
		}
		if b == 0 {
			return buf.String(), nil
		}
		buf.WriteByte(b)
	}
}

func writeCString(w io.Writer, s string) error {
	if _, err := io.WriteString(w, s); err != nil {
		return err
	}
	_, err := w.Write([]byte{0})
	return err
}

func (h *headerReader) readEntryHeader() (Entry, error) {
	name, err := h.readCString()
	if err != nil {
		return Entry{}, err
	}
	raw, err := h.readN(16)
	if err != nil {
		return Entry{}, ErrTruncated
	}
	return Entry{
		Name:         name,
		Method:       Method(binary.LittleEndian.Uint32(raw[0:4])),
		OriginalSize: binary.LittleEndian.Uint32(raw[4:8]),
		// raw[8:12] is the packing-specific "packed size" field, unused
		// for MethodNone entries (original_size == data_size in that case).
		DataSize: binary.LittleEndian.Uint32(raw[12:16]),
	}, nil
}

func writeEntryHeader(w io.Writer, e Entry) error {
	if err := writeCString(w, e.Name); err != nil {
		return err
	}
	var raw [16]byte
	binary.LittleEndian.PutUint32(raw[0:4], uint32(e.Method))
	binary.LittleEndian.PutUint32(raw[4:8], e.OriginalSize)
	binary.LittleEndian.PutUint32(raw[8:12], 0)
	binary.LittleEndian.PutUint32(raw[12:16], e.DataSize)
	_, err := w.Write(raw[:])
	return err
}
