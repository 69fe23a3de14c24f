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

// cmd/pbokit is a thin demonstration CLI wiring the library packages
// (config, model, material, pack, sign) into the subcommands of §6.1. The
// dispatcher, flag parsing, and filesystem walking below are explicitly
// out of the core's scope (§1) — this is the external collaborator, not
// part of the format engines themselves.
package main

import (
	"os"
	"path/filepath"
	"strings"
)

// osPrefixTree implements config.PrefixTree by walking the real
// filesystem, the real-world counterpart of armake's matches_includepath
// directory walk.
type osPrefixTree struct{}

func (osPrefixTree) Ancestors(path, root string) []string {
	dir := filepath.Dir(path)
	root = filepath.Clean(root)
	var out []string
	for {
		out = append(out, dir)
		if dir == root || len(dir) <= len(root) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return out
}

func (osPrefixTree) PrefixMarker(dir string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(dir, "$PBOPREFIX$"))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (osPrefixTree) ReadUnderRoot(root, relPath string) (string, bool) {
	native := strings.ReplaceAll(relPath, "\\", string(filepath.Separator))
	data, err := os.ReadFile(filepath.Join(root, native))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// osSourceLoader implements model.SourceLoader by resolving a logical
// (backslash-separated) path against a set of include roots, the same
// roots #include resolution uses.
type osSourceLoader struct {
	roots []string
	base  string // directory of the file the logical path was referenced from
}

func (l osSourceLoader) Load(logicalPath string) (string, bool) {
	native := strings.ReplaceAll(strings.TrimPrefix(logicalPath, "\\"), "\\", string(filepath.Separator))
	if data, err := os.ReadFile(filepath.Join(l.base, native)); err == nil {
		return string(data), true
	}
	for _, root := range l.roots {
		if data, err := os.ReadFile(filepath.Join(root, native)); err == nil {
			return string(data), true
		}
	}
	return "", false
}

// walkFiles returns every regular file under dir, relative to dir, with
// forward-slash-joined logical names.
func walkFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	return out, err
}
