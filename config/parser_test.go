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

package config_test

import (
	"strings"
	"testing"

	"github.com/koffeinflummi/pbokit/config"
	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/core/log"
)

func TestParseClassWithValue(t *testing.T) {
	ast, err := config.Parse(log.Background(), "test.cpp", `class A { value = 3; };`, nil)
	assert.For(t, "parse err").ThatError(err).Succeeded()
	assert.For(t, "defs").That(len(ast.Root.Defs)).Equals(1)
	cls := ast.ClassAt(ast.Root.Defs[0].Class)
	assert.For(t, "name").That(cls.Name).Equals("A")
	assert.For(t, "value").That(cls.Defs[0].Variable.Value.Int).Equals(int32(3))
}

func TestParseInheritance(t *testing.T) {
	ast, err := config.Parse(log.Background(), "test.cpp", `
		class Base { a = 1; };
		class Derived: Base { b = 2; };
	`, nil)
	assert.For(t, "parse err").ThatError(err).Succeeded()
	v, found := ast.Lookup("Derived >> a")
	assert.For(t, "found").That(found).Equals(config.FoundValue)
	assert.For(t, "value").That(v.Int).Equals(int32(1))
}

func TestParseArray(t *testing.T) {
	ast, err := config.Parse(log.Background(), "test.cpp", `values[] = {1, 2, "three"};`, nil)
	assert.For(t, "parse err").ThatError(err).Succeeded()
	v := ast.Root.Defs[0].Variable.Value
	assert.For(t, "len").That(len(v.Elements)).Equals(3)
	assert.For(t, "elem2").That(v.Elements[2].Str).Equals("three")
}

func TestRapifyDerapifyRoundTrip(t *testing.T) {
	ast, err := config.Parse(log.Background(), "test.cpp", `class A { value = 3; };`, nil)
	assert.For(t, "parse err").ThatError(err).Succeeded()

	bin, err := config.Rapify(ast)
	assert.For(t, "rapify err").ThatError(err).Succeeded()
	assert.For(t, "magic").That(string(bin[:4])).Equals(config.Magic)

	reAst, err := config.DerapifyAST(bin)
	assert.For(t, "derapify err").ThatError(err).Succeeded()
	text := config.Derapify(reAst)
	assert.For(t, "text").That(strings.Contains(text, "class A")).Equals(true)
	assert.For(t, "text").That(strings.Contains(text, "value = 3;")).Equals(true)
}

func TestParseUnquotedValue(t *testing.T) {
	ast, err := config.Parse(log.Background(), "test.cpp", `value = someIdent;`, nil)
	assert.For(t, "parse err").ThatError(err).Succeeded()
	v := ast.Root.Defs[0].Variable.Value
	assert.For(t, "kind").That(v.Kind).Equals(config.ExprString)
	assert.For(t, "str").That(v.Str).Equals("someIdent")
}

func TestDerapifyBadMagic(t *testing.T) {
	_, err := config.DerapifyAST([]byte("nope"))
	assert.For(t, "err").ThatError(err).Failed()
}
