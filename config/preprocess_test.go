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

	"github.com/koffeinflummi/pbokit/core/assert"
	"github.com/koffeinflummi/pbokit/config"
)

func TestPreprocessObjectMacro(t *testing.T) {
	src := "#define FOO 42\nvalue = FOO;\n"
	out, _, err := config.Preprocess(noopCtx(), "test.cpp", src, nil, nil)
	assert.For(t, "err").ThatError(err).Succeeded()
	assert.For(t, "out").That(strings.Contains(out, "value = 42;")).Equals(true)
}

func TestPreprocessFunctionMacro(t *testing.T) {
	src := `#define QUOTE(x) "x"` + "\n" + "value = QUOTE(bar);\n"
	out, _, err := config.Preprocess(noopCtx(), "test.cpp", src, nil, nil)
	assert.For(t, "err").ThatError(err).Succeeded()
	assert.For(t, "out").That(strings.Contains(out, `value = "bar";`)).Equals(true)
}

func TestPreprocessIfdef(t *testing.T) {
	src := "#define DEBUG\n#ifdef DEBUG\nvalue = 1;\n#else\nvalue = 2;\n#endif\n"
	out, _, err := config.Preprocess(noopCtx(), "test.cpp", src, nil, nil)
	assert.For(t, "err").ThatError(err).Succeeded()
	assert.For(t, "out").That(strings.Contains(out, "value = 1;")).Equals(true)
	assert.For(t, "out").That(strings.Contains(out, "value = 2;")).Equals(false)
}

func TestPreprocessCyclicMacroStopsExpanding(t *testing.T) {
	src := "#define A B\n#define B A\nvalue = A;\n"
	_, _, err := config.Preprocess(noopCtx(), "test.cpp", src, nil, nil)
	assert.For(t, "err").ThatError(err).Succeeded()
}

func TestPreprocessCommentStripping(t *testing.T) {
	src := "// comment\nvalue = 1; /* inline */\n"
	out, _, err := config.Preprocess(noopCtx(), "test.cpp", src, nil, nil)
	assert.For(t, "err").ThatError(err).Succeeded()
	assert.For(t, "out").That(strings.Contains(out, "value = 1;")).Equals(true)
}
