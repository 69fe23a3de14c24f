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

package config

import (
	"strconv"

	"github.com/koffeinflummi/pbokit/core/math/sint"
)

// Lineref maps each line of a preprocessed output back to the (file,
// original line number) it came from, for diagnostics issued against the
// parsed AST rather than the raw preprocessor input.
type Lineref struct {
	Files     []string
	FileIndex []int // per output line (0-based), index into Files
	Line      []int // per output line (0-based), 1-based original line number
}

func (lr *Lineref) fileIndex(name string) int {
	for i, f := range lr.Files {
		if f == name {
			return i
		}
	}
	lr.Files = append(lr.Files, name)
	return len(lr.Files) - 1
}

func (lr *Lineref) record(file string, line int) {
	lr.FileIndex = append(lr.FileIndex, lr.fileIndex(file))
	lr.Line = append(lr.Line, line)
}

// At returns the (file, line) pair a 0-based output line maps to.
func (lr *Lineref) At(outputLine int) (file string, line int, ok bool) {
	if outputLine < 0 || outputLine >= len(lr.Line) {
		return "", 0, false
	}
	return lr.Files[lr.FileIndex[outputLine]], lr.Line[outputLine], true
}

// gutterWidth returns the digit width of the largest original line number,
// so callers can right-align a "file:line" gutter across a diagnostic
// listing that spans lines of differing magnitude.
func (lr *Lineref) gutterWidth() int {
	max := 0
	for _, l := range lr.Line {
		if l > max {
			max = l
		}
	}
	if max == 0 {
		return 1
	}
	return sint.Log10(max) + 1
}

// FormatAt renders the "file:line" origin of a 0-based output line, with
// the line number left-padded to the widest line number this Lineref
// knows about, for aligned diagnostic gutters.
func (lr *Lineref) FormatAt(outputLine int) string {
	file, line, ok := lr.At(outputLine)
	if !ok {
		return ""
	}
	width := lr.gutterWidth()
	s := strconv.Itoa(line)
	for len(s) < width {
		s = " " + s
	}
	return file + ":" + s
}
