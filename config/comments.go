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

import "strings"

// stripComments removes `//` line comments and non-nestable `/* ... */`
// block comments from src. When keepLineCount is set (the default), the
// removed text is replaced by runs of spaces and newlines of the same
// length so line numbers — and therefore the lineref — stay accurate.
// String literals are respected: `//` or `/*` inside a double-quoted
// string is not a comment start.
func stripComments(src string, keepLineCount bool) string {
	var out strings.Builder
	runes := []rune(src)
	inString := false
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch {
		case inString:
			out.WriteRune(c)
			if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
			out.WriteRune(c)
		case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
			for i < len(runes) && runes[i] != '\n' {
				if keepLineCount {
					out.WriteByte(' ')
				}
				i++
			}
			i--
		case c == '/' && i+1 < len(runes) && runes[i+1] == '*':
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				if runes[i] == '\n' {
					out.WriteByte('\n')
				} else if keepLineCount {
					out.WriteByte(' ')
				}
				i++
			}
			if i+1 < len(runes) {
				if keepLineCount {
					out.WriteString("  ")
				}
				i++
			}
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}
