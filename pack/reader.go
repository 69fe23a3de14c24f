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

import "io"

// Archive is a read-only, opened package archive: the parsed property list
// and entry table, plus the backing random-access source entries stream
// their bodies from.
type Archive struct {
	Properties []Property
	Entries    []Entry

	back io.ReaderAt
}

// Open parses the header of back (a backing file opened for random access)
// and returns the archive's property list and entry table.
//
// If the first entry has an empty name and method MethodVersion, the
// archive is read as headered: properties follow until an empty-key
// sentinel, then entries follow until an empty-name sentinel. Otherwise the
// archive is header-less, a compatibility mode for archives exported
// without a version-marker entry: there is no properties block, but entry
// headers still run as the usual empty-name-terminated stream, starting
// from the header already read as `first` (armake's PboReader falls back
// the same way).
func Open(back io.ReaderAt) (*Archive, error) {
	h := &headerReader{src: back}
	a := &Archive{back: back}

	first, err := h.readEntryHeader()
	if err != nil {
		return nil, err
	}

	if first.Name == "" && first.Method == MethodVersion {
		props, err := readProperties(h)
		if err != nil {
			return nil, err
		}
		a.Properties = props
		entries, err := readEntries(h, nil)
		if err != nil {
			return nil, err
		}
		a.Entries = entries
	} else {
		// Header-less compatibility mode: there is no version-marker entry,
		// so there is no properties block either. `first` is already the
		// first real entry header; keep reading the normal entry-header
		// stream (terminated by the empty-name sentinel) starting from it,
		// matching armake's PboReader::readHeaders, which only skips the
		// properties block when intro.method == none and otherwise runs
		// the same entry-reading loop regardless.
		entries, err := readEntries(h, &first)
		if err != nil {
			return nil, err
		}
		a.Entries = entries
	}

	running := h.pos
	for i := range a.Entries {
		a.Entries[i].StartOffset = running
		running += int64(a.Entries[i].DataSize)
	}
	return a, nil
}

func readProperties(h *headerReader) ([]Property, error) {
	var props []Property
	for {
		key, err := h.readCString()
		if err != nil {
			return nil, err
		}
		if key == "" {
			return props, nil
		}
		value, err := h.readCString()
		if err != nil {
			return nil, err
		}
		props = append(props, Property{Key: key, Value: value})
	}
}

// readEntries reads entry headers until the empty-name sentinel. If first
// is non-nil, it is already-read data for the first iteration (the
// header-less fallback path reads one header to detect the absence of a
// version marker before it can tell whether an entry loop is even needed).
func readEntries(h *headerReader, first *Entry) ([]Entry, error) {
	var entries []Entry
	if first != nil {
		if first.Name == "" {
			return entries, nil
		}
		entries = append(entries, *first)
	}
	for {
		e, err := h.readEntryHeader()
		if err != nil {
			return nil, err
		}
		if e.Name == "" {
			return entries, nil
		}
		entries = append(entries, e)
	}
}

// Open reads the entry's body as a seekable sub-stream over the backing
// archive file, starting at the entry's StartOffset and bounded by its
// DataSize.
func (a *Archive) Open(e Entry) *SubStream {
	return newSubStream(a.back, e.StartOffset, int64(e.DataSize))
}
