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

package model

import (
	"github.com/koffeinflummi/pbokit/config"
	"github.com/koffeinflummi/pbokit/core/diag"
	"github.com/koffeinflummi/pbokit/core/log"
	"github.com/koffeinflummi/pbokit/material"
)

// SourceLoader reads the raw text of a referenced source file (a .rvmat
// material) by its logical (PBO-prefixed) path.
type SourceLoader interface {
	Load(logicalPath string) (string, bool)
}

// ResolveMaterials preprocesses, parses and resolves every distinct
// material path referenced by lod's faces, per §4.2.5. The result is
// indexed like lod.Materials; a path the loader cannot find gets a nil
// entry. Faces that name no material (MaterialIndex == -1) have no entry.
func ResolveMaterials(ctx log.Context, lod *LOD, loader SourceLoader, resolver config.Resolver, sink *diag.Sink) ([]*material.Material, error) {
	materials := make([]*material.Material, len(lod.Materials))
	for i, path := range lod.Materials {
		src, ok := loader.Load(path)
		if !ok {
			materials[i] = nil
			continue
		}
		pre, _, err := config.Preprocess(ctx, path, src, resolver, sink)
		if err != nil {
			return nil, err
		}
		ast, err := config.Parse(ctx, path, pre, sink)
		if err != nil {
			return nil, err
		}
		m, err := material.Resolve(ctx, path, ast, sink)
		if err != nil {
			return nil, err
		}
		materials[i] = m
	}
	return materials, nil
}
