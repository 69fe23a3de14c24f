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

// PrefixTree is the thin filesystem query surface PrefixResolver needs: for
// a candidate ancestor directory, the content of its $PBOPREFIX$ marker, if
// any. The CLI's filesystem layer owns actual directory walking and file
// reads (per §1); this type owns only the `$PBOPREFIX$` matching algorithm.
type PrefixTree interface {
	// Ancestors returns path's ancestor directories walking upward,
	// nearest first, stopping at (and including) root.
	Ancestors(path, root string) []string
	// PrefixMarker returns the content of dir's $PBOPREFIX$ file, if one
	// exists. PrefixResolver trims it itself (see trimPrefixMarker).
	PrefixMarker(dir string) (string, bool)
	// ReadUnderRoot returns the source of the file at the root-relative
	// path, if it exists.
	ReadUnderRoot(root, relPath string) (string, bool)
}

// PrefixResolver resolves absolute (rooted) #include targets by walking up
// from the including file's real path to find a $PBOPREFIX$ marker whose
// contents, joined with the remaining path suffix, equal the requested
// logical path. Grounded on armake's matches_includepath (preprocess.cpp):
// a successful match is cached by the caller (find_file's "actualpath"
// cache), here left to the PrefixTree implementation since that is where
// the real filesystem lives.
type PrefixResolver struct {
	Roots []string
	Tree  PrefixTree
}

// Resolve implements Resolver for absolute include targets.
func (r *PrefixResolver) Resolve(target, fromReal string) (string, string, bool) {
	want := normalizeLogicalPath(target)
	for _, root := range r.Roots {
		for _, dir := range r.Tree.Ancestors(fromReal, root) {
			marker, ok := r.Tree.PrefixMarker(dir)
			if !ok {
				continue
			}
			prefix := trimPrefixMarker(marker)
			suffix := fromReal[len(dir):]
			candidate := normalizeLogicalPath(prefix + suffix)

			matched := candidate == want
			if !matched && len(candidate) > 0 && candidate[0] != '\\' && len(want) > 0 && want[0] == '\\' {
				matched = candidate == want[1:]
			}
			if matched {
				if src, ok := r.Tree.ReadUnderRoot(root, suffix); ok {
					return src, want, true
				}
			}
		}
	}
	return "", "", false
}

// trimPrefixMarker keeps the first line of a $PBOPREFIX$ file and trims
// every trailing path separator from it. Supplements the base
// spec with armake's actual behavior (preprocess.cpp): the marker may have
// a trailing newline or a trailing backslash, both of which must be
// stripped before concatenating the include suffix.
func trimPrefixMarker(marker string) string {
	line := marker
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimRight(line, "\\/")
	return line
}
