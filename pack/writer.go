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

package pack

import (
	"crypto/sha1"
	"io"
)

// Producer is a single file to be packed: it knows its logical name and
// stored size up front, and can stream its bytes into a caller-supplied
// sink on demand. Concrete variants (copy-from-file, copy-from-memory) are
// plain implementations of this interface — the capability set named in
// the design notes, not a class hierarchy.
type Producer interface {
	Name() string
	StoredSize() uint32
	WriteInto(w io.Writer) error
}

// FileProducer streams from an in-memory byte slice, the common case for
// model/material outputs produced earlier in the same pipeline run.
type FileProducer struct {
	EntryName string
	Data      []byte
}

func (f FileProducer) Name() string       { return f.EntryName }
func (f FileProducer) StoredSize() uint32 { return uint32(len(f.Data)) }
func (f FileProducer) WriteInto(w io.Writer) error {
	_, err := w.Write(f.Data)
	return err
}

// StreamProducer streams from an arbitrary io.Reader, for a source file
// copied through without being held entirely in memory.
type StreamProducer struct {
	EntryName string
	Size      uint32
	Open      func() (io.ReadCloser, error)
}

func (s StreamProducer) Name() string       { return s.EntryName }
func (s StreamProducer) StoredSize() uint32 { return s.Size }
func (s StreamProducer) WriteInto(w io.Writer) error {
	r, err := s.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	_, err = io.Copy(w, r)
	return err
}

// Write emits a complete archive to w: a synthetic version-marker entry,
// the properties terminated by an empty key, one header per producer
// terminated by an empty-name sentinel, each producer's body in order, a
// zero byte, then the 20-byte SHA-1 digest of everything written so far.
func Write(w io.Writer, properties []Property, producers []Producer) error {
	h := sha1.New()
	tee := io.MultiWriter(w, h)

	if err := writeEntryHeader(tee, Entry{Method: MethodVersion}); err != nil {
		return err
	}
	for _, p := range properties {
		if err := writeCString(tee, p.Key); err != nil {
			return err
		}
		if err := writeCString(tee, p.Value); err != nil {
			return err
		}
	}
	if err := writeCString(tee, ""); err != nil {
		return err
	}

	for _, p := range producers {
		e := Entry{
			Name:         p.Name(),
			Method:       MethodNone,
			OriginalSize: p.StoredSize(),
			DataSize:     p.StoredSize(),
		}
		if err := writeEntryHeader(tee, e); err != nil {
			return err
		}
	}
	if err := writeEntryHeader(tee, Entry{}); err != nil {
		return err
	}

	for _, p := range producers {
		if err := p.WriteInto(tee); err != nil {
			return err
		}
	}

	if _, err := tee.Write([]byte{0}); err != nil {
		return err
	}
	_, err := w.Write(h.Sum(nil))
	return err
}
